package controls

import (
	"context"

	"github.com/thirukguru/aws-cloud-wellness/model"
	"github.com/thirukguru/aws-cloud-wellness/service/cloudtrail"
	"github.com/thirukguru/aws-cloud-wellness/service/config"
	"github.com/thirukguru/aws-cloud-wellness/service/guardduty"
	"github.com/thirukguru/aws-cloud-wellness/service/iam"
	"github.com/thirukguru/aws-cloud-wellness/service/logging"
	"github.com/thirukguru/aws-cloud-wellness/service/s3security"
	"github.com/thirukguru/aws-cloud-wellness/service/vpc"
)

type mockIAM struct {
	iam.Service
	rootMFA        bool
	rootVirtualMFA bool
	inlineUsers    []iam.User
	supportCount   int
	supportErr     error
	accessKeys     map[string][]iam.AccessKey
	adminPolicies  []string
	roles          map[string]bool
	err            error
}

func (m *mockIAM) RootMFAEnabled(ctx context.Context) (bool, error) { return m.rootMFA, m.err }
func (m *mockIAM) RootVirtualMFA(ctx context.Context) (bool, error) { return m.rootVirtualMFA, m.err }
func (m *mockIAM) UsersWithInlinePolicies(ctx context.Context) ([]iam.User, error) {
	return m.inlineUsers, m.err
}
func (m *mockIAM) SupportAccessEntityCount(ctx context.Context) (int, error) {
	return m.supportCount, m.supportErr
}
func (m *mockIAM) AccessKeys(ctx context.Context, user string) ([]iam.AccessKey, error) {
	return m.accessKeys[user], m.err
}
func (m *mockIAM) AdminPolicies(ctx context.Context) ([]string, error) { return m.adminPolicies, m.err }
func (m *mockIAM) RoleExists(ctx context.Context, name string) (bool, error) {
	return m.roles[name], m.err
}

type mockInspector struct {
	enabled bool
	err     error
}

func (m *mockInspector) Enabled(ctx context.Context) (bool, error) { return m.enabled, m.err }

// mockRegional hands out per-region fakes. Regions without an entry get an
// empty fake.
type mockRegional struct {
	trails    map[string]*mockCloudTrail
	vpcs      map[string]*mockVPC
	configs   map[string]*mockConfig
	logs      map[string]*mockLogging
	detectors map[string][]guardduty.Detector
	s3        map[string]*mockS3
}

func (m *mockRegional) CloudTrail(region string) cloudtrail.Service {
	if ct, ok := m.trails[region]; ok {
		return ct
	}
	return &mockCloudTrail{}
}

func (m *mockRegional) VPC(region string) vpc.Service {
	if v, ok := m.vpcs[region]; ok {
		return v
	}
	return &mockVPC{}
}

func (m *mockRegional) Config(region string) config.Service {
	if c, ok := m.configs[region]; ok {
		return c
	}
	return &mockConfig{}
}

func (m *mockRegional) Logging(region string) logging.Service {
	if l, ok := m.logs[region]; ok {
		return l
	}
	return &mockLogging{}
}

func (m *mockRegional) GuardDuty(region string) guardduty.Service {
	return &mockGuardDuty{detectors: m.detectors[region]}
}

func (m *mockRegional) S3(region string) s3security.Service {
	if s, ok := m.s3[region]; ok {
		return s
	}
	return &mockS3{}
}

type mockCloudTrail struct {
	logging map[string]bool
}

func (m *mockCloudTrail) ListTrails(ctx context.Context) ([]model.Trail, error) { return nil, nil }
func (m *mockCloudTrail) IsLogging(ctx context.Context, arn string) (bool, error) {
	return m.logging[arn], nil
}

type mockVPC struct {
	vpc.Service
	groups        []vpc.SecurityGroup
	defaultGroups []vpc.SecurityGroup
	vpcs          []string
	flowLogs      []string
	routes        []vpc.PeeringRoute
	instances     []string
	err           error
}

func (m *mockVPC) SecurityGroups(ctx context.Context) ([]vpc.SecurityGroup, error) {
	return m.groups, m.err
}
func (m *mockVPC) DefaultSecurityGroups(ctx context.Context) ([]vpc.SecurityGroup, error) {
	return m.defaultGroups, m.err
}
func (m *mockVPC) AvailableVPCs(ctx context.Context) ([]string, error)    { return m.vpcs, m.err }
func (m *mockVPC) FlowLogResources(ctx context.Context) ([]string, error) { return m.flowLogs, m.err }
func (m *mockVPC) PeeringRoutes(ctx context.Context) ([]vpc.PeeringRoute, error) {
	return m.routes, m.err
}
func (m *mockVPC) InstancesWithoutProfile(ctx context.Context) ([]string, error) {
	return m.instances, m.err
}

type mockConfig struct {
	state config.RecorderState
	keys  []string
}

func (m *mockConfig) RecorderState(ctx context.Context) (config.RecorderState, error) {
	return m.state, nil
}
func (m *mockConfig) UnrotatedCustomerKeys(ctx context.Context) ([]string, error) { return m.keys, nil }

type mockLogging struct {
	filters     map[string][]logging.MetricFilter
	filtersErr  error
	actions     map[string][]string
	subscribers map[string]bool
}

func (m *mockLogging) MetricFilters(ctx context.Context, group string) ([]logging.MetricFilter, error) {
	return m.filters[group], m.filtersErr
}
func (m *mockLogging) AlarmActions(ctx context.Context, metric, namespace string) ([]string, error) {
	return m.actions[metric], nil
}
func (m *mockLogging) HasSubscribers(ctx context.Context, topic string) (bool, error) {
	return m.subscribers[topic], nil
}

type mockGuardDuty struct {
	detectors []guardduty.Detector
}

func (m *mockGuardDuty) Detectors(ctx context.Context) ([]guardduty.Detector, error) {
	return m.detectors, nil
}

type mockS3 struct {
	public     map[string]bool
	publicErr  map[string]error
	logging    map[string]bool
	loggingErr map[string]error
}

func (m *mockS3) PublicACL(ctx context.Context, bucket string) (bool, error) {
	return m.public[bucket], m.publicErr[bucket]
}
func (m *mockS3) LoggingEnabled(ctx context.Context, bucket string) (bool, error) {
	return m.logging[bucket], m.loggingErr[bucket]
}
