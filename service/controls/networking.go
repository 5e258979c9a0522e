package controls

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/thirukguru/aws-cloud-wellness/model"
	"github.com/thirukguru/aws-cloud-wellness/service/vpc"
)

// peeringPrefixLimit is the narrowest prefix a peering route may use
// before it is reported as too wide.
const peeringPrefixLimit = 24

// portOpenToWorld builds 4.1 and 4.2.
func portOpenToWorld(idx int, port int32) func(context.Context, Inputs) (model.ControlResult, error) {
	description := fmt.Sprintf("Ensure no security groups allow ingress from 0.0.0.0/0 to port %d", port)
	reason := fmt.Sprintf("Found Security Group with port %d open to the world (0.0.0.0/0)", port)
	return func(ctx context.Context, in Inputs) (model.ControlResult, error) {
		f := newFindings(model.CategoryNetworking, idx, description, true)
		perRegion, err := eachRegion(ctx, in, func(ctx context.Context, region string) ([]vpc.SecurityGroup, error) {
			return in.Regional.VPC(region).SecurityGroups(ctx)
		})
		if err != nil {
			return model.ControlResult{}, err
		}
		for i, groups := range perRegion {
			region := in.Snapshot.Regions[i]
			for _, sg := range groups {
				for _, perm := range sg.Ingress {
					if perm.OpenToWorld(port) {
						f.add(reason, regionOffender(region, sg.ID), securityGroupSearchLink(region, sg.ID))
						break
					}
				}
			}
		}
		return f.result(), nil
	}
}

type flowLogState struct {
	vpcs    []string
	flowLog []string
}

// 4.3
func flowLogsEnabled(ctx context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryNetworking, 3, "Ensure VPC flow logging is enabled in all VPCs", true)
	perRegion, err := eachRegion(ctx, in, func(ctx context.Context, region string) (flowLogState, error) {
		svc := in.Regional.VPC(region)
		flowLogs, err := svc.FlowLogResources(ctx)
		if err != nil {
			return flowLogState{}, err
		}
		vpcs, err := svc.AvailableVPCs(ctx)
		if err != nil {
			return flowLogState{}, err
		}
		return flowLogState{vpcs: vpcs, flowLog: flowLogs}, nil
	})
	if err != nil {
		return model.ControlResult{}, err
	}
	for i, state := range perRegion {
		region := in.Snapshot.Regions[i]
		covered := make(map[string]bool, len(state.flowLog))
		for _, id := range state.flowLog {
			if strings.Contains(id, "vpc-") {
				covered[id] = true
			}
		}
		for _, id := range state.vpcs {
			if !covered[id] {
				f.add("VPC without active VPC Flow Logs found", regionOffender(region, id),
					fmt.Sprintf("https://console.aws.amazon.com/vpc/home?region=%s#vpcs:filter=%s", region, id))
			}
		}
	}
	return f.result(), nil
}

// 4.4
func defaultSecurityGroupsRestricted(ctx context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryNetworking, 4, "Ensure the default security group of every VPC restricts all traffic", true)
	perRegion, err := eachRegion(ctx, in, func(ctx context.Context, region string) ([]vpc.SecurityGroup, error) {
		return in.Regional.VPC(region).DefaultSecurityGroups(ctx)
	})
	if err != nil {
		return model.ControlResult{}, err
	}
	for i, groups := range perRegion {
		region := in.Snapshot.Regions[i]
		for _, sg := range groups {
			if len(sg.Ingress)+sg.EgressRules > 0 {
				f.add("Default security groups with ingress or egress rules discovered", regionOffender(region, sg.ID),
					fmt.Sprintf("https://console.aws.amazon.com/vpc/home?region=%s#securityGroups:filter=%s", region, sg.ID))
			}
		}
	}
	return f.result(), nil
}

// 4.5
func peeringRoutesLeastAccess(ctx context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryNetworking, 5, "Ensure routing tables for VPC peering are least access", false)
	perRegion, err := eachRegion(ctx, in, func(ctx context.Context, region string) ([]vpc.PeeringRoute, error) {
		return in.Regional.VPC(region).PeeringRoutes(ctx)
	})
	if err != nil {
		return model.ControlResult{}, err
	}
	for i, routes := range perRegion {
		region := in.Snapshot.Regions[i]
		for _, route := range routes {
			prefix, ok := cidrPrefix(route.DestinationCIDR)
			if !ok || prefix >= peeringPrefixLimit {
				continue
			}
			f.add("Large CIDR block routed to peer discovered, please investigate", regionOffender(region, route.RouteTableID),
				fmt.Sprintf("https://console.aws.amazon.com/vpc/home?region=%s#routetables:filter=%s", region, route.RouteTableID))
		}
	}
	return f.result(), nil
}

func cidrPrefix(cidr string) (int, bool) {
	_, bits, found := strings.Cut(cidr, "/")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(bits)
	if err != nil {
		return 0, false
	}
	return n, true
}
