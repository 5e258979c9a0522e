package vpc

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// NewService creates a VPC service for the region of cfg.
func NewService(cfg aws.Config) Service {
	return &service{client: ec2.NewFromConfig(cfg)}
}

// NewServiceWithClient creates a VPC service around an existing client.
func NewServiceWithClient(client EC2ClientAPI) Service {
	return &service{client: client}
}

// ListRegions returns the regions enabled for the account, in API order.
func (s *service) ListRegions(ctx context.Context) ([]string, error) {
	out, err := s.client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to describe regions: %w", err)
	}
	regions := make([]string, 0, len(out.Regions))
	for _, r := range out.Regions {
		regions = append(regions, aws.ToString(r.RegionName))
	}
	return regions, nil
}

func (s *service) SecurityGroups(ctx context.Context) ([]SecurityGroup, error) {
	return s.describeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{})
}

// DefaultSecurityGroups returns the security groups named "default".
func (s *service) DefaultSecurityGroups(ctx context.Context) ([]SecurityGroup, error) {
	return s.describeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		Filters: []types.Filter{{Name: aws.String("group-name"), Values: []string{"default"}}},
	})
}

func (s *service) describeSecurityGroups(ctx context.Context, input *ec2.DescribeSecurityGroupsInput) ([]SecurityGroup, error) {
	var groups []SecurityGroup
	paginator := ec2.NewDescribeSecurityGroupsPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe security groups: %w", err)
		}
		for _, sg := range page.SecurityGroups {
			group := SecurityGroup{
				ID:          aws.ToString(sg.GroupId),
				Name:        aws.ToString(sg.GroupName),
				EgressRules: len(sg.IpPermissionsEgress),
			}
			for _, perm := range sg.IpPermissions {
				group.Ingress = append(group.Ingress, toPermission(perm))
			}
			groups = append(groups, group)
		}
	}
	return groups, nil
}

func toPermission(perm types.IpPermission) Permission {
	p := Permission{
		Protocol: aws.ToString(perm.IpProtocol),
		HasPorts: perm.FromPort != nil && perm.ToPort != nil,
		FromPort: aws.ToInt32(perm.FromPort),
		ToPort:   aws.ToInt32(perm.ToPort),
	}
	for _, r := range perm.IpRanges {
		p.CIDRs = append(p.CIDRs, aws.ToString(r.CidrIp))
	}
	return p
}

// OpenToWorld reports whether the rule allows 0.0.0.0/0 to reach port.
// Rules without a port range only match when they allow every protocol.
func (p Permission) OpenToWorld(port int32) bool {
	world := false
	for _, cidr := range p.CIDRs {
		if cidr == WorldCIDR {
			world = true
			break
		}
	}
	if !world {
		return false
	}
	if p.HasPorts && p.Protocol != "-1" {
		return p.FromPort <= port && port <= p.ToPort
	}
	return p.Protocol == "-1"
}

// AvailableVPCs returns the ids of VPCs in the available state.
func (s *service) AvailableVPCs(ctx context.Context) ([]string, error) {
	var ids []string
	paginator := ec2.NewDescribeVpcsPaginator(s.client, &ec2.DescribeVpcsInput{
		Filters: []types.Filter{{Name: aws.String("state"), Values: []string{"available"}}},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe VPCs: %w", err)
		}
		for _, v := range page.Vpcs {
			ids = append(ids, aws.ToString(v.VpcId))
		}
	}
	return ids, nil
}

// FlowLogResources returns the resource ids that have a flow log attached.
func (s *service) FlowLogResources(ctx context.Context) ([]string, error) {
	var ids []string
	paginator := ec2.NewDescribeFlowLogsPaginator(s.client, &ec2.DescribeFlowLogsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe flow logs: %w", err)
		}
		for _, fl := range page.FlowLogs {
			ids = append(ids, aws.ToString(fl.ResourceId))
		}
	}
	return ids, nil
}

func (s *service) PeeringRoutes(ctx context.Context) ([]PeeringRoute, error) {
	var routes []PeeringRoute
	paginator := ec2.NewDescribeRouteTablesPaginator(s.client, &ec2.DescribeRouteTablesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe route tables: %w", err)
		}
		for _, rt := range page.RouteTables {
			for _, route := range rt.Routes {
				if aws.ToString(route.VpcPeeringConnectionId) == "" {
					continue
				}
				routes = append(routes, PeeringRoute{
					RouteTableID:        aws.ToString(rt.RouteTableId),
					DestinationCIDR:     aws.ToString(route.DestinationCidrBlock),
					PeeringConnectionID: aws.ToString(route.VpcPeeringConnectionId),
				})
			}
		}
	}
	return routes, nil
}

// InstancesWithoutProfile returns the ids of instances with no IAM instance profile.
func (s *service) InstancesWithoutProfile(ctx context.Context) ([]string, error) {
	var ids []string
	paginator := ec2.NewDescribeInstancesPaginator(s.client, &ec2.DescribeInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe instances: %w", err)
		}
		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				if instance.IamInstanceProfile == nil {
					ids = append(ids, aws.ToString(instance.InstanceId))
				}
			}
		}
	}
	return ids, nil
}
