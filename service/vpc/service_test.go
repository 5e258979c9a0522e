package vpc

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEC2Client struct {
	EC2ClientAPI
	groups      []types.SecurityGroup
	groupInputs []*ec2.DescribeSecurityGroupsInput
	routeTables []types.RouteTable
	instances   []types.Instance
}

func (m *mockEC2Client) DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error) {
	return &ec2.DescribeRegionsOutput{Regions: []types.Region{
		{RegionName: aws.String("us-east-1")},
		{RegionName: aws.String("eu-west-1")},
	}}, nil
}

func (m *mockEC2Client) DescribeSecurityGroups(ctx context.Context, params *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
	m.groupInputs = append(m.groupInputs, params)
	return &ec2.DescribeSecurityGroupsOutput{SecurityGroups: m.groups}, nil
}

func (m *mockEC2Client) DescribeRouteTables(ctx context.Context, params *ec2.DescribeRouteTablesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRouteTablesOutput, error) {
	return &ec2.DescribeRouteTablesOutput{RouteTables: m.routeTables}, nil
}

func (m *mockEC2Client) DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	return &ec2.DescribeInstancesOutput{Reservations: []types.Reservation{{Instances: m.instances}}}, nil
}

func TestListRegions(t *testing.T) {
	regions, err := NewServiceWithClient(&mockEC2Client{}).ListRegions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"us-east-1", "eu-west-1"}, regions)
}

func TestSecurityGroups(t *testing.T) {
	client := &mockEC2Client{groups: []types.SecurityGroup{{
		GroupId:   aws.String("sg-1"),
		GroupName: aws.String("default"),
		IpPermissions: []types.IpPermission{{
			IpProtocol: aws.String("tcp"),
			FromPort:   aws.Int32(22),
			ToPort:     aws.Int32(22),
			IpRanges:   []types.IpRange{{CidrIp: aws.String(WorldCIDR)}},
		}},
		IpPermissionsEgress: []types.IpPermission{{IpProtocol: aws.String("-1")}},
	}}}
	svc := NewServiceWithClient(client)

	groups, err := svc.DefaultSecurityGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].EgressRules)
	assert.True(t, groups[0].Ingress[0].OpenToWorld(22))
	require.Len(t, client.groupInputs, 1)
	assert.Equal(t, "group-name", aws.ToString(client.groupInputs[0].Filters[0].Name))
}

func TestOpenToWorld(t *testing.T) {
	tests := []struct {
		name string
		perm Permission
		port int32
		want bool
	}{
		{"exact port", Permission{Protocol: "tcp", HasPorts: true, FromPort: 22, ToPort: 22, CIDRs: []string{WorldCIDR}}, 22, true},
		{"range covers port", Permission{Protocol: "tcp", HasPorts: true, FromPort: 0, ToPort: 65535, CIDRs: []string{WorldCIDR}}, 3389, true},
		{"other port", Permission{Protocol: "tcp", HasPorts: true, FromPort: 443, ToPort: 443, CIDRs: []string{WorldCIDR}}, 22, false},
		{"private range", Permission{Protocol: "tcp", HasPorts: true, FromPort: 22, ToPort: 22, CIDRs: []string{"10.0.0.0/8"}}, 22, false},
		{"all traffic", Permission{Protocol: "-1", CIDRs: []string{WorldCIDR}}, 22, true},
		{"udp without ports", Permission{Protocol: "udp", CIDRs: []string{WorldCIDR}}, 22, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.perm.OpenToWorld(tt.port); got != tt.want {
				t.Fatalf("OpenToWorld(%d) = %v, want %v", tt.port, got, tt.want)
			}
		})
	}
}

func TestPeeringRoutes(t *testing.T) {
	client := &mockEC2Client{routeTables: []types.RouteTable{{
		RouteTableId: aws.String("rtb-1"),
		Routes: []types.Route{
			{DestinationCidrBlock: aws.String("10.0.0.0/16"), VpcPeeringConnectionId: aws.String("pcx-1")},
			{DestinationCidrBlock: aws.String("0.0.0.0/0"), GatewayId: aws.String("igw-1")},
		},
	}}}

	routes, err := NewServiceWithClient(client).PeeringRoutes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []PeeringRoute{{RouteTableID: "rtb-1", DestinationCIDR: "10.0.0.0/16", PeeringConnectionID: "pcx-1"}}, routes)
}

func TestInstancesWithoutProfile(t *testing.T) {
	client := &mockEC2Client{instances: []types.Instance{
		{InstanceId: aws.String("i-1"), IamInstanceProfile: &types.IamInstanceProfile{Arn: aws.String("arn:aws:iam::123456789012:instance-profile/web")}},
		{InstanceId: aws.String("i-2")},
	}}

	ids, err := NewServiceWithClient(client).InstancesWithoutProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"i-2"}, ids)
}
