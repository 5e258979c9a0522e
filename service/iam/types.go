package iam

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/thirukguru/aws-cloud-wellness/model"
)

// IAMClientAPI is the interface for the AWS IAM client methods used by the service.
type IAMClientAPI interface {
	GenerateCredentialReport(ctx context.Context, params *iam.GenerateCredentialReportInput, optFns ...func(*iam.Options)) (*iam.GenerateCredentialReportOutput, error)
	GetCredentialReport(ctx context.Context, params *iam.GetCredentialReportInput, optFns ...func(*iam.Options)) (*iam.GetCredentialReportOutput, error)
	GetAccountPasswordPolicy(ctx context.Context, params *iam.GetAccountPasswordPolicyInput, optFns ...func(*iam.Options)) (*iam.GetAccountPasswordPolicyOutput, error)
	GetAccountSummary(ctx context.Context, params *iam.GetAccountSummaryInput, optFns ...func(*iam.Options)) (*iam.GetAccountSummaryOutput, error)
	ListVirtualMFADevices(ctx context.Context, params *iam.ListVirtualMFADevicesInput, optFns ...func(*iam.Options)) (*iam.ListVirtualMFADevicesOutput, error)
	ListUsers(ctx context.Context, params *iam.ListUsersInput, optFns ...func(*iam.Options)) (*iam.ListUsersOutput, error)
	ListUserPolicies(ctx context.Context, params *iam.ListUserPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListUserPoliciesOutput, error)
	ListEntitiesForPolicy(ctx context.Context, params *iam.ListEntitiesForPolicyInput, optFns ...func(*iam.Options)) (*iam.ListEntitiesForPolicyOutput, error)
	ListAccessKeys(ctx context.Context, params *iam.ListAccessKeysInput, optFns ...func(*iam.Options)) (*iam.ListAccessKeysOutput, error)
	ListPolicies(ctx context.Context, params *iam.ListPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListPoliciesOutput, error)
	GetPolicyVersion(ctx context.Context, params *iam.GetPolicyVersionInput, optFns ...func(*iam.Options)) (*iam.GetPolicyVersionOutput, error)
	GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error)
}

// Credential report polling budget.
const (
	reportPollInterval = 2 * time.Second
	reportMaxPolls     = 10
)

// SupportAccessPolicyARN is the managed policy that grants AWS Support access.
const SupportAccessPolicyARN = "arn:aws:iam::aws:policy/AWSSupportAccess"

// rootVirtualMFASuffix identifies a virtual MFA device assigned to root.
const rootVirtualMFASuffix = "mfa/root-account-mfa-device"

type sleepFunc func(ctx context.Context, d time.Duration) error

type service struct {
	client IAMClientAPI
	sleep  sleepFunc
}

// User is an IAM user name and ARN.
type User struct {
	Name string
	ARN  string
}

// AccessKey is the metadata of one user access key.
type AccessKey struct {
	ID         string
	CreateDate time.Time
}

// Service is the interface for the IAM reads the controls depend on.
type Service interface {
	GetCredentialReport(ctx context.Context) ([]model.CredentialRow, error)
	GetPasswordPolicy(ctx context.Context) (*model.PasswordPolicy, error)
	RootMFAEnabled(ctx context.Context) (bool, error)
	RootVirtualMFA(ctx context.Context) (bool, error)
	UsersWithInlinePolicies(ctx context.Context) ([]User, error)
	SupportAccessEntityCount(ctx context.Context) (int, error)
	AccessKeys(ctx context.Context, userName string) ([]AccessKey, error)
	AdminPolicies(ctx context.Context) ([]string, error)
	RoleExists(ctx context.Context, roleName string) (bool, error)
}

type policyDocument struct {
	Version   string          `json:"Version"`
	Statement json.RawMessage `json:"Statement"`
}

type policyStatement struct {
	Effect   string      `json:"Effect"`
	Action   interface{} `json:"Action"`
	Resource interface{} `json:"Resource"`
}
