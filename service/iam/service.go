package iam

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/thirukguru/aws-cloud-wellness/model"
	"github.com/thirukguru/aws-cloud-wellness/shared/awserr"
)

// NewService creates a new IAM service.
func NewService(cfg aws.Config) Service {
	return NewServiceWithClient(iam.NewFromConfig(cfg))
}

// NewServiceWithClient creates an IAM service around an existing client.
func NewServiceWithClient(client IAMClientAPI) Service {
	return &service{client: client, sleep: sleepContext}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// GetCredentialReport asks IAM to generate the credential report, waits
// until it is complete and returns its rows. Row 0 is the root account.
func (s *service) GetCredentialReport(ctx context.Context) ([]model.CredentialRow, error) {
	polls := 0
	for {
		out, err := s.client.GenerateCredentialReport(ctx, &iam.GenerateCredentialReportInput{})
		if err != nil {
			return nil, fmt.Errorf("failed to generate credential report: %w", err)
		}
		if out.State == types.ReportStateTypeComplete {
			break
		}
		if err := s.sleep(ctx, reportPollInterval); err != nil {
			return nil, err
		}
		polls++
		if polls > reportMaxPolls {
			return nil, model.ErrCredentialReportUnavailable
		}
	}

	report, err := s.client.GetCredentialReport(ctx, &iam.GetCredentialReportInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to get credential report: %w", err)
	}

	rows, err := parseCredentialReport(report.Content)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: report has no rows", model.ErrCredentialReportUnavailable)
	}

	// Root keys that were never used may come without a last used date.
	for _, col := range []string{model.ColAccessKey1LastUsed, model.ColAccessKey2LastUsed} {
		if rows[0].Fields[col] == "" {
			rows[0].Fields[col] = model.NotApplicable
		}
	}
	return rows, nil
}

func parseCredentialReport(content []byte) ([]model.CredentialRow, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read credential report header: %w", err)
	}

	var rows []model.CredentialRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse credential report: %w", err)
		}
		fields := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				fields[col] = record[i]
			}
		}
		rows = append(rows, model.CredentialRow{Fields: fields})
	}
	return rows, nil
}

// GetPasswordPolicy returns nil when the account has no password policy.
func (s *service) GetPasswordPolicy(ctx context.Context) (*model.PasswordPolicy, error) {
	out, err := s.client.GetAccountPasswordPolicy(ctx, &iam.GetAccountPasswordPolicyInput{})
	if err != nil {
		if awserr.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account password policy: %w", err)
	}
	p := out.PasswordPolicy
	if p == nil {
		return nil, nil
	}
	return &model.PasswordPolicy{
		RequireUppercaseCharacters: p.RequireUppercaseCharacters,
		RequireLowercaseCharacters: p.RequireLowercaseCharacters,
		RequireSymbols:             p.RequireSymbols,
		RequireNumbers:             p.RequireNumbers,
		MinimumPasswordLength:      int(aws.ToInt32(p.MinimumPasswordLength)),
		PasswordReusePrevention:    int(aws.ToInt32(p.PasswordReusePrevention)),
		ExpirePasswords:            p.ExpirePasswords,
		MaxPasswordAge:             int(aws.ToInt32(p.MaxPasswordAge)),
	}, nil
}

func (s *service) RootMFAEnabled(ctx context.Context) (bool, error) {
	out, err := s.client.GetAccountSummary(ctx, &iam.GetAccountSummaryInput{})
	if err != nil {
		return false, fmt.Errorf("failed to get account summary: %w", err)
	}
	return out.SummaryMap[string(types.SummaryKeyTypeAccountMFAEnabled)] == 1, nil
}

// RootVirtualMFA reports whether the root MFA device is a virtual one.
func (s *service) RootVirtualMFA(ctx context.Context) (bool, error) {
	paginator := iam.NewListVirtualMFADevicesPaginator(s.client, &iam.ListVirtualMFADevicesInput{
		AssignmentStatus: types.AssignmentStatusTypeAny,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to list virtual MFA devices: %w", err)
		}
		for _, device := range page.VirtualMFADevices {
			if strings.HasSuffix(aws.ToString(device.SerialNumber), rootVirtualMFASuffix) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *service) UsersWithInlinePolicies(ctx context.Context) ([]User, error) {
	var users []User
	paginator := iam.NewListUsersPaginator(s.client, &iam.ListUsersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
		for _, user := range page.Users {
			policies, err := s.client.ListUserPolicies(ctx, &iam.ListUserPoliciesInput{
				UserName: user.UserName,
				MaxItems: aws.Int32(1),
			})
			if err != nil {
				return nil, fmt.Errorf("failed to list policies of user %s: %w", aws.ToString(user.UserName), err)
			}
			if len(policies.PolicyNames) > 0 {
				users = append(users, User{Name: aws.ToString(user.UserName), ARN: aws.ToString(user.Arn)})
			}
		}
	}
	return users, nil
}

// SupportAccessEntityCount counts the users, groups and roles the
// AWSSupportAccess policy is attached to.
func (s *service) SupportAccessEntityCount(ctx context.Context) (int, error) {
	count := 0
	paginator := iam.NewListEntitiesForPolicyPaginator(s.client, &iam.ListEntitiesForPolicyInput{
		PolicyArn: aws.String(SupportAccessPolicyARN),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to list entities for %s: %w", SupportAccessPolicyARN, err)
		}
		count += len(page.PolicyGroups) + len(page.PolicyUsers) + len(page.PolicyRoles)
	}
	return count, nil
}

func (s *service) AccessKeys(ctx context.Context, userName string) ([]AccessKey, error) {
	var keys []AccessKey
	paginator := iam.NewListAccessKeysPaginator(s.client, &iam.ListAccessKeysInput{
		UserName: aws.String(userName),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list access keys of %s: %w", userName, err)
		}
		for _, key := range page.AccessKeyMetadata {
			keys = append(keys, AccessKey{
				ID:         aws.ToString(key.AccessKeyId),
				CreateDate: aws.ToTime(key.CreateDate),
			})
		}
	}
	return keys, nil
}

// AdminPolicies returns the ARNs of customer managed policies whose default
// version allows every action on every resource.
func (s *service) AdminPolicies(ctx context.Context) ([]string, error) {
	var arns []string
	paginator := iam.NewListPoliciesPaginator(s.client, &iam.ListPoliciesInput{
		Scope:        types.PolicyScopeTypeLocal,
		OnlyAttached: false,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list policies: %w", err)
		}
		for _, policy := range page.Policies {
			version, err := s.client.GetPolicyVersion(ctx, &iam.GetPolicyVersionInput{
				PolicyArn: policy.Arn,
				VersionId: policy.DefaultVersionId,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to get policy version of %s: %w", aws.ToString(policy.Arn), err)
			}
			if version.PolicyVersion == nil {
				continue
			}
			admin, err := grantsFullAdmin(aws.ToString(version.PolicyVersion.Document))
			if err != nil {
				return nil, fmt.Errorf("policy %s: %w", aws.ToString(policy.Arn), err)
			}
			if admin {
				arns = append(arns, aws.ToString(policy.Arn))
			}
		}
	}
	return arns, nil
}

func (s *service) RoleExists(ctx context.Context, roleName string) (bool, error) {
	_, err := s.client.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(roleName)})
	if err != nil {
		if awserr.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get role %s: %w", roleName, err)
	}
	return true, nil
}

// decodePolicyDocument undoes the RFC 3986 escaping IAM applies to policy
// documents. A literal '+' stays a '+'.
func decodePolicyDocument(encoded string) (string, error) {
	decoded, err := url.PathUnescape(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode policy document: %w", err)
	}
	return decoded, nil
}

// grantsFullAdmin parses a URL-encoded policy document and reports whether
// an Allow statement grants "*" actions on "*" resources.
func grantsFullAdmin(encoded string) (bool, error) {
	decoded, err := decodePolicyDocument(encoded)
	if err != nil {
		return false, err
	}

	var doc policyDocument
	if err := json.Unmarshal([]byte(decoded), &doc); err != nil {
		return false, fmt.Errorf("failed to parse policy document: %w", err)
	}

	// Statement is either a single object or a list of them.
	var statements []policyStatement
	if err := json.Unmarshal(doc.Statement, &statements); err != nil {
		var single policyStatement
		if err := json.Unmarshal(doc.Statement, &single); err != nil {
			return false, fmt.Errorf("failed to parse policy statements: %w", err)
		}
		statements = []policyStatement{single}
	}

	for _, stmt := range statements {
		if stmt.Effect != "Allow" || stmt.Action == nil {
			continue
		}
		if containsWildcard(normalizeStringOrSlice(stmt.Action)) && containsWildcard(normalizeStringOrSlice(stmt.Resource)) {
			return true, nil
		}
	}
	return false, nil
}

func containsWildcard(values []string) bool {
	for _, v := range values {
		if v == "*" || v == "*:*" {
			return true
		}
	}
	return false
}

func normalizeStringOrSlice(v interface{}) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []interface{}:
		var result []string
		for _, item := range val {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	}
	return nil
}
