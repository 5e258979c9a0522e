// Package vpc reads the EC2 network and instance state the networking controls evaluate.
package vpc

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// EC2ClientAPI defines the EC2 client methods used by this service.
type EC2ClientAPI interface {
	DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
	DescribeSecurityGroups(ctx context.Context, params *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error)
	DescribeFlowLogs(ctx context.Context, params *ec2.DescribeFlowLogsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeFlowLogsOutput, error)
	DescribeVpcs(ctx context.Context, params *ec2.DescribeVpcsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error)
	DescribeRouteTables(ctx context.Context, params *ec2.DescribeRouteTablesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRouteTablesOutput, error)
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// Service reads the EC2 state of a single region.
type Service interface {
	ListRegions(ctx context.Context) ([]string, error)
	SecurityGroups(ctx context.Context) ([]SecurityGroup, error)
	DefaultSecurityGroups(ctx context.Context) ([]SecurityGroup, error)
	AvailableVPCs(ctx context.Context) ([]string, error)
	FlowLogResources(ctx context.Context) ([]string, error)
	PeeringRoutes(ctx context.Context) ([]PeeringRoute, error)
	InstancesWithoutProfile(ctx context.Context) ([]string, error)
}

type service struct {
	client EC2ClientAPI
}

// WorldCIDR is the IPv4 range that matches every address.
const WorldCIDR = "0.0.0.0/0"

// SecurityGroup is a security group and its rules.
type SecurityGroup struct {
	ID          string
	Name        string
	Ingress     []Permission
	EgressRules int
}

// Permission is one ingress rule.
type Permission struct {
	Protocol string
	// HasPorts is false when the rule carries no port range, as with protocol -1.
	HasPorts bool
	FromPort int32
	ToPort   int32
	CIDRs    []string
}

// PeeringRoute is a route whose target is a VPC peering connection.
type PeeringRoute struct {
	RouteTableID        string
	DestinationCIDR     string
	PeeringConnectionID string
}
