package orchestrator

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/thirukguru/aws-cloud-wellness/model"
	"github.com/thirukguru/aws-cloud-wellness/service/cloudtrail"
	"github.com/thirukguru/aws-cloud-wellness/service/config"
	"github.com/thirukguru/aws-cloud-wellness/service/guardduty"
	"github.com/thirukguru/aws-cloud-wellness/service/iam"
	"github.com/thirukguru/aws-cloud-wellness/service/logging"
	"github.com/thirukguru/aws-cloud-wellness/service/output"
	"github.com/thirukguru/aws-cloud-wellness/service/s3security"
	"github.com/thirukguru/aws-cloud-wellness/service/storage"
	"github.com/thirukguru/aws-cloud-wellness/service/vpc"
)

type mockCollector struct {
	snap *model.Snapshot
	err  error
}

func (m *mockCollector) Collect(ctx context.Context) (*model.Snapshot, error) {
	return m.snap, m.err
}

type mockIAM struct {
	iam.Service
	rootMFA        bool
	rootVirtualMFA bool
	supportCount   int
	roles          map[string]bool
}

func (m *mockIAM) RootMFAEnabled(ctx context.Context) (bool, error) { return m.rootMFA, nil }
func (m *mockIAM) RootVirtualMFA(ctx context.Context) (bool, error) { return m.rootVirtualMFA, nil }
func (m *mockIAM) UsersWithInlinePolicies(ctx context.Context) ([]iam.User, error) {
	return nil, nil
}
func (m *mockIAM) SupportAccessEntityCount(ctx context.Context) (int, error) {
	return m.supportCount, nil
}
func (m *mockIAM) AccessKeys(ctx context.Context, user string) ([]iam.AccessKey, error) {
	return nil, nil
}
func (m *mockIAM) AdminPolicies(ctx context.Context) ([]string, error) { return nil, nil }
func (m *mockIAM) RoleExists(ctx context.Context, name string) (bool, error) {
	return m.roles[name], nil
}

type mockInspector struct {
	enabled bool
}

func (m *mockInspector) Enabled(ctx context.Context) (bool, error) { return m.enabled, nil }

// mockRegional hands out per-region fakes. Regions without an entry get an
// empty fake.
type mockRegional struct {
	trails    map[string]*mockCloudTrail
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

func (m *mockRegional) VPC(region string) vpc.Service { return &mockVPC{} }

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

// mockVPC describes a region without VPCs or security groups.
type mockVPC struct {
	vpc.Service
}

func (m *mockVPC) SecurityGroups(ctx context.Context) ([]vpc.SecurityGroup, error) { return nil, nil }
func (m *mockVPC) DefaultSecurityGroups(ctx context.Context) ([]vpc.SecurityGroup, error) {
	return nil, nil
}
func (m *mockVPC) AvailableVPCs(ctx context.Context) ([]string, error)    { return nil, nil }
func (m *mockVPC) FlowLogResources(ctx context.Context) ([]string, error) { return nil, nil }
func (m *mockVPC) PeeringRoutes(ctx context.Context) ([]vpc.PeeringRoute, error) {
	return nil, nil
}
func (m *mockVPC) InstancesWithoutProfile(ctx context.Context) ([]string, error) { return nil, nil }

type mockConfig struct {
	state config.RecorderState
}

func (m *mockConfig) RecorderState(ctx context.Context) (config.RecorderState, error) {
	return m.state, nil
}
func (m *mockConfig) UnrotatedCustomerKeys(ctx context.Context) ([]string, error) { return nil, nil }

type mockLogging struct {
	filters     map[string][]logging.MetricFilter
	actions     map[string][]string
	subscribers map[string]bool
}

func (m *mockLogging) MetricFilters(ctx context.Context, group string) ([]logging.MetricFilter, error) {
	return m.filters[group], nil
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
	public  map[string]bool
	logging map[string]bool
}

func (m *mockS3) PublicACL(ctx context.Context, bucket string) (bool, error) {
	return m.public[bucket], nil
}
func (m *mockS3) LoggingEnabled(ctx context.Context, bucket string) (bool, error) {
	return m.logging[bucket], nil
}

// mockOutput records the console calls of a run in order.
type mockOutput struct {
	calls []string
	runs  []output.RunOutput
	urls  []string
}

func (m *mockOutput) RenderRun(out output.RunOutput) error {
	m.calls = append(m.calls, "RenderRun")
	m.runs = append(m.runs, out)
	return nil
}

func (m *mockOutput) RenderReportURL(url string) {
	m.calls = append(m.calls, "RenderReportURL")
	m.urls = append(m.urls, url)
}

func (m *mockOutput) StopSpinner() {
	m.calls = append(m.calls, "StopSpinner")
}

type mockPublisher struct {
	url     string
	err     error
	html    string
	account string
	calls   int
}

func (m *mockPublisher) Publish(ctx context.Context, html, account string) (string, error) {
	m.calls++
	m.html = html
	m.account = account
	return m.url, m.err
}

type mockConfigClient struct {
	mu     sync.Mutex
	inputs []*configservice.PutEvaluationsInput
	err    error
}

func (m *mockConfigClient) PutEvaluations(ctx context.Context, params *configservice.PutEvaluationsInput, optFns ...func(*configservice.Options)) (*configservice.PutEvaluationsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &configservice.PutEvaluationsOutput{}, nil
}

// failingStorage rejects every save.
type failingStorage struct {
	storage.Service
	err error
}

func (f *failingStorage) SaveRun(ctx context.Context, input storage.SaveRunInput) (int64, error) {
	return 0, f.err
}
