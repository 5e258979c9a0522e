package iam

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thirukguru/aws-cloud-wellness/model"
)

const reportCSV = `user,arn,user_creation_time,password_enabled,password_last_used,mfa_active,access_key_1_active,access_key_1_last_rotated,access_key_1_last_used_date,access_key_2_active,access_key_2_last_rotated,access_key_2_last_used_date
<root_account>,arn:aws:iam::123456789012:root,2020-01-01T00:00:00+00:00,not_supported,2024-05-01T10:00:00+00:00,true,false,N/A,,false,N/A,
alice,arn:aws:iam::123456789012:user/alice,2021-03-04T05:06:07+00:00,true,2024-04-01T00:00:00+00:00,false,true,2021-03-04T05:06:07+00:00,2024-04-02T00:00:00+00:00,false,N/A,N/A
`

type mockIAMClient struct {
	IAMClientAPI
	states        []types.ReportStateType
	generateCalls int
	report        []byte
	policy        *types.PasswordPolicy
	policyErr     error
	roleErr       error
	documents     map[string]string
}

func (m *mockIAMClient) GenerateCredentialReport(ctx context.Context, params *iam.GenerateCredentialReportInput, optFns ...func(*iam.Options)) (*iam.GenerateCredentialReportOutput, error) {
	state := types.ReportStateTypeComplete
	if m.generateCalls < len(m.states) {
		state = m.states[m.generateCalls]
	}
	m.generateCalls++
	return &iam.GenerateCredentialReportOutput{State: state}, nil
}

func (m *mockIAMClient) GetCredentialReport(ctx context.Context, params *iam.GetCredentialReportInput, optFns ...func(*iam.Options)) (*iam.GetCredentialReportOutput, error) {
	return &iam.GetCredentialReportOutput{Content: m.report}, nil
}

func (m *mockIAMClient) GetAccountPasswordPolicy(ctx context.Context, params *iam.GetAccountPasswordPolicyInput, optFns ...func(*iam.Options)) (*iam.GetAccountPasswordPolicyOutput, error) {
	if m.policyErr != nil {
		return nil, m.policyErr
	}
	return &iam.GetAccountPasswordPolicyOutput{PasswordPolicy: m.policy}, nil
}

func (m *mockIAMClient) GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
	if m.roleErr != nil {
		return nil, m.roleErr
	}
	return &iam.GetRoleOutput{Role: &types.Role{RoleName: params.RoleName}}, nil
}

func (m *mockIAMClient) ListPolicies(ctx context.Context, params *iam.ListPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListPoliciesOutput, error) {
	var policies []types.Policy
	for arn := range m.documents {
		policies = append(policies, types.Policy{Arn: aws.String(arn), DefaultVersionId: aws.String("v1")})
	}
	return &iam.ListPoliciesOutput{Policies: policies}, nil
}

func (m *mockIAMClient) GetPolicyVersion(ctx context.Context, params *iam.GetPolicyVersionInput, optFns ...func(*iam.Options)) (*iam.GetPolicyVersionOutput, error) {
	doc := url.PathEscape(m.documents[aws.ToString(params.PolicyArn)])
	return &iam.GetPolicyVersionOutput{PolicyVersion: &types.PolicyVersion{Document: aws.String(doc)}}, nil
}

func newTestService(client IAMClientAPI) (*service, *int) {
	sleeps := 0
	return &service{
		client: client,
		sleep: func(ctx context.Context, d time.Duration) error {
			sleeps++
			return nil
		},
	}, &sleeps
}

func TestGetCredentialReport(t *testing.T) {
	client := &mockIAMClient{
		states: []types.ReportStateType{types.ReportStateTypeStarted, types.ReportStateTypeInprogress},
		report: []byte(reportCSV),
	}
	svc, sleeps := newTestService(client)

	rows, err := svc.GetCredentialReport(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, *sleeps)

	root := rows[0]
	assert.Equal(t, "<root_account>", root.User())
	assert.Equal(t, model.NotApplicable, root.Get(model.ColAccessKey1LastUsed))
	assert.Equal(t, model.NotApplicable, root.Get(model.ColAccessKey2LastUsed))

	alice := rows[1]
	assert.True(t, alice.Enabled(model.ColAccessKey1Active))
	created, ok := alice.Time(model.ColUserCreationTime)
	require.True(t, ok)
	assert.Equal(t, time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC), created)
}

func TestGetCredentialReportExhaustsBudget(t *testing.T) {
	states := make([]types.ReportStateType, 20)
	for i := range states {
		states[i] = types.ReportStateTypeInprogress
	}
	client := &mockIAMClient{states: states, report: []byte(reportCSV)}
	svc, sleeps := newTestService(client)

	_, err := svc.GetCredentialReport(context.Background())
	require.ErrorIs(t, err, model.ErrCredentialReportUnavailable)
	assert.Equal(t, reportMaxPolls+1, *sleeps)
}

func TestGetPasswordPolicy(t *testing.T) {
	client := &mockIAMClient{policyErr: &types.NoSuchEntityException{Message: aws.String("The Password Policy cannot be found.")}}
	svc, _ := newTestService(client)

	policy, err := svc.GetPasswordPolicy(context.Background())
	require.NoError(t, err)
	assert.Nil(t, policy)

	client.policyErr = nil
	client.policy = &types.PasswordPolicy{
		RequireSymbols:          true,
		MinimumPasswordLength:   aws.Int32(14),
		PasswordReusePrevention: aws.Int32(24),
		ExpirePasswords:         true,
		MaxPasswordAge:          aws.Int32(90),
	}
	policy, err = svc.GetPasswordPolicy(context.Background())
	require.NoError(t, err)
	require.NotNil(t, policy)
	assert.True(t, policy.RequireSymbols)
	assert.Equal(t, 14, policy.MinimumPasswordLength)
	assert.Equal(t, 24, policy.PasswordReusePrevention)
	assert.Equal(t, 90, policy.MaxPasswordAge)

	client.policyErr = errors.New("throttled")
	_, err = svc.GetPasswordPolicy(context.Background())
	require.Error(t, err)
}

func TestRoleExists(t *testing.T) {
	client := &mockIAMClient{}
	svc, _ := newTestService(client)

	ok, err := svc.RoleExists(context.Background(), "AWSMacieServiceCustomerSetupRole")
	require.NoError(t, err)
	assert.True(t, ok)

	client.roleErr = &types.NoSuchEntityException{Message: aws.String("role not found")}
	ok, err = svc.RoleExists(context.Background(), "AWSMacieServiceCustomerSetupRole")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdminPolicies(t *testing.T) {
	client := &mockIAMClient{documents: map[string]string{
		"arn:aws:iam::123456789012:policy/admin":  `{"Version":"2012-10-17","Statement":{"Effect":"Allow","Action":"*","Resource":"*"}}`,
		"arn:aws:iam::123456789012:policy/list":   `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Action":["s3:Get*","*"],"Resource":["*"]}]}`,
		"arn:aws:iam::123456789012:policy/narrow": `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Action":"s3:*","Resource":"*"}]}`,
		"arn:aws:iam::123456789012:policy/deny":   `{"Version":"2012-10-17","Statement":[{"Effect":"Deny","Action":"*","Resource":"*"}]}`,
	}}
	svc, _ := newTestService(client)

	arns, err := svc.AdminPolicies(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"arn:aws:iam::123456789012:policy/admin",
		"arn:aws:iam::123456789012:policy/list",
	}, arns)
}

func TestGrantsFullAdmin(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want bool
	}{
		{"single statement", `{"Statement":{"Effect":"Allow","Action":"*:*","Resource":"*"}}`, true},
		{"scoped resource", `{"Statement":[{"Effect":"Allow","Action":"*","Resource":"arn:aws:s3:::bucket"}]}`, false},
		{"not action", `{"Statement":[{"Effect":"Allow","NotAction":"iam:*","Resource":"*"}]}`, false},
	}
	for _, tt := range tests {
		got, err := grantsFullAdmin(url.PathEscape(tt.doc))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s: grantsFullAdmin = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDecodePolicyDocument(t *testing.T) {
	tests := []struct {
		encoded string
		want    string
	}{
		{"%7B%22Sid%22%3A%22logs+archive%22%7D", `{"Sid":"logs+archive"}`},
		{"%7B%22Sid%22%3A%22full%20access%22%7D", `{"Sid":"full access"}`},
	}
	for _, tt := range tests {
		got, err := decodePolicyDocument(tt.encoded)
		if err != nil {
			t.Fatalf("decodePolicyDocument(%q): unexpected error: %v", tt.encoded, err)
		}
		if got != tt.want {
			t.Fatalf("decodePolicyDocument(%q) = %q, want %q", tt.encoded, got, tt.want)
		}
	}

	if _, err := decodePolicyDocument("%zz"); err == nil {
		t.Fatal("expected error for a malformed escape")
	}
}
