package model

import (
	"fmt"
	"strings"
	"time"
)

// UnsupportedRegions are skipped during region discovery.
var UnsupportedRegions = []string{"ap-northeast-3"}

// ObfuscatedAccountID replaces the real account id in shareable reports.
const ObfuscatedAccountID = "111111111111"

// Snapshot is the account state every control reads from. It is collected
// once per run and never modified afterwards. TrailErrors and
// EventRuleErrors hold, per region, why the trails or rules of that region
// could not be listed.
type Snapshot struct {
	Regions            []string
	CredentialReport   []CredentialRow
	PasswordPolicy     *PasswordPolicy
	TrailsByRegion     map[string][]Trail
	EventRulesByRegion map[string][]EventRule
	TrailErrors        map[string]string
	EventRuleErrors    map[string]string
	AccountID          string
	RealAccountID      string
	CollectedAt        time.Time
}

// TrailRegions returns the regions that own at least one trail, in region order.
func (s *Snapshot) TrailRegions() []string {
	out := make([]string, 0, len(s.TrailsByRegion))
	for _, r := range s.Regions {
		if len(s.TrailsByRegion[r]) > 0 {
			out = append(out, r)
		}
	}
	return out
}

// UnreadableRegions returns the regions of errs in region order.
func (s *Snapshot) UnreadableRegions(errs map[string]string) []string {
	var out []string
	for _, r := range s.Regions {
		if _, ok := errs[r]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Credential report column names.
const (
	ColUser                  = "user"
	ColARN                   = "arn"
	ColUserCreationTime      = "user_creation_time"
	ColPasswordEnabled       = "password_enabled"
	ColPasswordLastUsed      = "password_last_used"
	ColMFAActive             = "mfa_active"
	ColAccessKey1Active      = "access_key_1_active"
	ColAccessKey1LastRotated = "access_key_1_last_rotated"
	ColAccessKey1LastUsed    = "access_key_1_last_used_date"
	ColAccessKey2Active      = "access_key_2_active"
	ColAccessKey2LastRotated = "access_key_2_last_rotated"
	ColAccessKey2LastUsed    = "access_key_2_last_used_date"
)

// NotApplicable is synthesised for credential fields that were never populated.
const NotApplicable = "N/A"

var notApplicableValues = map[string]bool{
	"":               true,
	NotApplicable:    true,
	"no_information": true,
	"not_supported":  true,
}

// CredentialRow is one identity line of the IAM credential report.
type CredentialRow struct {
	Fields map[string]string
}

// Get returns the raw column value.
func (r CredentialRow) Get(col string) string {
	return r.Fields[col]
}

// User returns the user name column.
func (r CredentialRow) User() string {
	return r.Fields[ColUser]
}

// ARN returns the identity ARN.
func (r CredentialRow) ARN() string {
	return r.Fields[ColARN]
}

// Enabled reports whether a boolean column is "true".
func (r CredentialRow) Enabled(col string) bool {
	return r.Fields[col] == "true"
}

// Time parses a timestamp column. ok is false when the value is absent,
// one of the report's placeholder values, or malformed.
func (r CredentialRow) Time(col string) (t time.Time, ok bool) {
	raw := strings.TrimSpace(r.Fields[col])
	if notApplicableValues[raw] {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// PasswordPolicy is the account IAM password policy.
type PasswordPolicy struct {
	RequireUppercaseCharacters bool
	RequireLowercaseCharacters bool
	RequireSymbols             bool
	RequireNumbers             bool
	MinimumPasswordLength      int
	PasswordReusePrevention    int
	ExpirePasswords            bool
	MaxPasswordAge             int
}

// Trail is the subset of a CloudTrail trail description used by controls.
type Trail struct {
	Name                      string
	TrailARN                  string
	HomeRegion                string
	IsMultiRegionTrail        bool
	LogFileValidationEnabled  bool
	S3BucketName              string
	CloudWatchLogsLogGroupArn string
	KmsKeyID                  string
}

// ARNRegion returns the region field of the trail ARN.
func (t Trail) ARNRegion() string {
	parts := strings.Split(t.TrailARN, ":")
	if len(parts) > 3 {
		return parts[3]
	}
	return t.HomeRegion
}

// ConsoleLink is the CloudTrail console page of the trail. The console
// addresses a trail as "<arn prefix>@<name>".
func (t Trail) ConsoleLink() string {
	arn := strings.Replace(t.TrailARN, "/"+t.Name, "@"+t.Name, 1)
	return fmt.Sprintf("https://console.aws.amazon.com/cloudtrail/home?region=%s#/configuration/%s", t.ARNRegion(), arn)
}

// EventRule is an EventBridge rule.
type EventRule struct {
	Name         string
	State        string
	EventPattern string
}
