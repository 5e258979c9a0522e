package controls

import (
	"context"
	"fmt"
	"time"

	"github.com/thirukguru/aws-cloud-wellness/model"
	"github.com/thirukguru/aws-cloud-wellness/shared/awserr"
)

const (
	staleCredentialDays = 90
	rotationDays        = 90
	minPasswordLength   = 14
	minReusePrevention  = 24
	maxPasswordAgeDays  = 90
)

const noPasswordPolicyReason = "Account does not have an IAM password policy."

// daysSince returns the whole days elapsed between t and now.
func daysSince(now, t time.Time) int {
	return int(now.Sub(t) / (24 * time.Hour))
}

func rootRow(in Inputs) (model.CredentialRow, bool) {
	if in.Snapshot == nil || len(in.Snapshot.CredentialReport) == 0 {
		return model.CredentialRow{}, false
	}
	return in.Snapshot.CredentialReport[0], true
}

// 1.1
func rootUse(_ context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryIAM, 1, "Avoid the use of the root account", true)
	root, ok := rootRow(in)
	if !ok {
		return f.result(), nil
	}

	now := in.now()
	for _, col := range []string{model.ColPasswordLastUsed, model.ColAccessKey1LastUsed, model.ColAccessKey2LastUsed} {
		used, ok := root.Time(col)
		if !ok {
			continue
		}
		elapsed := now.Sub(used)
		if elapsed > 0 && daysSince(now, used) <= in.RootUseDays {
			f.add("Used within 24h", root.ARN(), rootCredentialsLink)
		}
	}
	return f.result(), nil
}

// 1.2
func mfaOnPasswordUsers(_ context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryIAM, 2, "Ensure multi-factor authentication (MFA) is enabled for all IAM users that have a console password", true)
	for _, row := range in.Snapshot.CredentialReport {
		if row.Enabled(model.ColPasswordEnabled) && row.Get(model.ColMFAActive) == "false" {
			f.add("No MFA on users with password.", row.ARN(), userCredentialsLink(row.User()))
		}
	}
	return f.result(), nil
}

// 1.3
func unusedCredentials(_ context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryIAM, 3, "Ensure credentials unused for 90 days or greater are disabled", true)
	now := in.now()

	checks := []struct {
		active   string
		lastUsed string
		suffix   string
	}{
		{model.ColPasswordEnabled, model.ColPasswordLastUsed, ":password"},
		{model.ColAccessKey1Active, model.ColAccessKey1LastUsed, ":key1"},
		{model.ColAccessKey2Active, model.ColAccessKey2LastUsed, ":key2"},
	}
	for _, row := range in.Snapshot.CredentialReport {
		for _, c := range checks {
			if !row.Enabled(c.active) {
				continue
			}
			// Never used credentials have no date to age.
			used, ok := row.Time(c.lastUsed)
			if !ok {
				continue
			}
			if daysSince(now, used) > staleCredentialDays {
				f.add("Credentials unused > 90 days detected.", row.ARN()+c.suffix, userCredentialsLink(row.User()))
			}
		}
	}
	return f.result(), nil
}

// 1.4
func rotatedKeys(_ context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryIAM, 4, "Ensure access keys are rotated every 90 days or less", true)
	const reason = "Key rotation >90 days or not used since rotation"
	now := in.now()

	keys := []struct {
		name        string
		active      string
		lastRotated string
		lastUsed    string
	}{
		{"key1", model.ColAccessKey1Active, model.ColAccessKey1LastRotated, model.ColAccessKey1LastUsed},
		{"key2", model.ColAccessKey2Active, model.ColAccessKey2LastRotated, model.ColAccessKey2LastUsed},
	}
	for _, row := range in.Snapshot.CredentialReport {
		for _, k := range keys {
			if !row.Enabled(k.active) {
				continue
			}
			rotated, ok := row.Time(k.lastRotated)
			if !ok {
				continue
			}
			link := userCredentialsLink(row.User())
			if daysSince(now, rotated) > rotationDays {
				f.add(reason, row.ARN()+":unrotated "+k.name, link)
			}
			if used, ok := row.Time(k.lastUsed); ok && used.Before(rotated) {
				f.add(reason, row.ARN()+":unused "+k.name, link)
			}
		}
	}
	return f.result(), nil
}

// passwordPolicyControl builds 1.5 to 1.11. check returns the fail reason
// or "" when the policy satisfies the control.
func passwordPolicyControl(idx int, description string, check func(p *model.PasswordPolicy) string) func(context.Context, Inputs) (model.ControlResult, error) {
	return func(_ context.Context, in Inputs) (model.ControlResult, error) {
		f := newFindings(model.CategoryIAM, idx, description, true)
		policy := in.Snapshot.PasswordPolicy
		if policy == nil {
			f.add(noPasswordPolicyReason, accountOffender, accountSettingsLink)
			return f.result(), nil
		}
		if reason := check(policy); reason != "" {
			f.add(reason, accountOffender, accountSettingsLink)
		}
		return f.result(), nil
	}
}

var (
	// 1.5
	passwordPolicyUppercase = passwordPolicyControl(5, "Ensure IAM password policy requires at least one uppercase letter", func(p *model.PasswordPolicy) string {
		if !p.RequireUppercaseCharacters {
			return "Password policy does not require at least one uppercase letter"
		}
		return ""
	})
	// 1.6
	passwordPolicyLowercase = passwordPolicyControl(6, "Ensure IAM password policy requires at least one lowercase letter", func(p *model.PasswordPolicy) string {
		if !p.RequireLowercaseCharacters {
			return "Password policy does not require at least one lowercase letter"
		}
		return ""
	})
	// 1.7
	passwordPolicySymbol = passwordPolicyControl(7, "Ensure IAM password policy requires at least one symbol", func(p *model.PasswordPolicy) string {
		if !p.RequireSymbols {
			return "Password policy does not require at least one symbol"
		}
		return ""
	})
	// 1.8
	passwordPolicyNumber = passwordPolicyControl(8, "Ensure IAM password policy requires at least one number", func(p *model.PasswordPolicy) string {
		if !p.RequireNumbers {
			return "Password policy does not require at least one number"
		}
		return ""
	})
	// 1.9
	passwordPolicyLength = passwordPolicyControl(9, "Ensure IAM password policy requires minimum length of 14 or greater", func(p *model.PasswordPolicy) string {
		if p.MinimumPasswordLength < minPasswordLength {
			return "Password policy does not require at least 14 characters"
		}
		return ""
	})
	// 1.10
	passwordPolicyReuse = passwordPolicyControl(10, "Ensure IAM password policy prevents password reuse", func(p *model.PasswordPolicy) string {
		if p.PasswordReusePrevention < minReusePrevention {
			return "Password policy does not prevent reusing last 24 passwords"
		}
		return ""
	})
	// 1.11
	passwordPolicyExpiry = passwordPolicyControl(11, "Ensure IAM password policy expires passwords within 90 days or less", func(p *model.PasswordPolicy) string {
		if !p.ExpirePasswords || p.MaxPasswordAge < 1 || p.MaxPasswordAge > maxPasswordAgeDays {
			return "Password policy does not expire passwords after 90 days or less"
		}
		return ""
	})
)

// 1.12
func rootKeyExists(_ context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryIAM, 12, "Ensure no root account access key exists", true)
	if root, ok := rootRow(in); ok {
		if root.Enabled(model.ColAccessKey1Active) || root.Enabled(model.ColAccessKey2Active) {
			f.fail("Root have active access keys")
		}
	}
	return f.result(), nil
}

// 1.13
func rootMFAEnabled(ctx context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryIAM, 13, "Ensure MFA is enabled for the root account", true)
	enabled, err := in.IAM.RootMFAEnabled(ctx)
	if err != nil {
		return model.ControlResult{}, err
	}
	if !enabled {
		f.fail("Root account not using MFA")
	}
	return f.result(), nil
}

// 1.14
func rootHardwareMFAEnabled(ctx context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryIAM, 14, "Ensure hardware MFA is enabled for the root account", true)
	enabled, err := in.IAM.RootMFAEnabled(ctx)
	if err != nil {
		return model.ControlResult{}, err
	}
	if !enabled {
		f.fail("Root account not using MFA")
		return f.result(), nil
	}
	virtual, err := in.IAM.RootVirtualMFA(ctx)
	if err != nil {
		return model.ControlResult{}, err
	}
	if virtual {
		f.fail("Root account not using hardware MFA")
	}
	return f.result(), nil
}

// 1.16
func noInlineUserPolicies(ctx context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryIAM, 16, "Ensure IAM policies are attached only to groups or roles", true)
	users, err := in.IAM.UsersWithInlinePolicies(ctx)
	if err != nil {
		return model.ControlResult{}, err
	}
	for _, u := range users {
		f.add("IAM user have inline policy attached", u.ARN, userPermissionsLink(u.Name))
	}
	return f.result(), nil
}

// 1.21
func instanceRolesUsed(ctx context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryIAM, 21, "Ensure IAM instance roles are used for AWS resource access from instances, application code is not audited", true)
	perRegion, err := eachRegion(ctx, in, func(ctx context.Context, region string) ([]string, error) {
		return in.Regional.VPC(region).InstancesWithoutProfile(ctx)
	})
	if err != nil {
		return model.ControlResult{}, err
	}
	for i, ids := range perRegion {
		region := in.Snapshot.Regions[i]
		for _, id := range ids {
			f.add("Instance not assigned IAM role for EC2", id,
				fmt.Sprintf("https://console.aws.amazon.com/ec2/v2/home?region=%s#Instances:search=%s", region, id))
		}
	}
	return f.result(), nil
}

// 1.22
func supportRoleExists(ctx context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryIAM, 22, "Ensure a support role has been created to manage incidents with AWS Support", true)
	count, err := in.IAM.SupportAccessEntityCount(ctx)
	switch {
	case awserr.IsNotFound(err):
		f.fail("AWSSupportAccess policy not created")
	case err != nil:
		return model.ControlResult{}, err
	case count == 0:
		f.fail("No user, group, or role assigned AWSSupportAccess")
	}
	return f.result(), nil
}

// 1.23
func noInitialAccessKeys(ctx context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryIAM, 23, "Do not setup access keys during initial user setup for all IAM users that have a console password", false)
	for i, row := range in.Snapshot.CredentialReport {
		// Row 0 is the root account, which has no IAM user to list keys for.
		if i == 0 {
			continue
		}
		if !row.Enabled(model.ColAccessKey1Active) && !row.Enabled(model.ColAccessKey2Active) {
			continue
		}
		created, ok := row.Time(model.ColUserCreationTime)
		if !ok {
			continue
		}
		keys, err := in.IAM.AccessKeys(ctx, row.User())
		if err != nil {
			return model.ControlResult{}, err
		}
		for _, key := range keys {
			if key.CreateDate.UTC().Unix() == created.Unix() {
				f.add("Users with keys created at user creation time found", row.ARN()+":"+key.ID, userCredentialsLink(row.User()))
			}
		}
	}
	return f.result(), nil
}

// 1.24
func noAdminPolicies(ctx context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryIAM, 24, "Ensure IAM policies that allow full administrative privileges are not created", true)
	arns, err := in.IAM.AdminPolicies(ctx)
	if err != nil {
		return model.ControlResult{}, err
	}
	for _, arn := range arns {
		f.add("Found full administrative policy", arn, "https://console.aws.amazon.com/iam/home?#/policies/"+arn)
	}
	return f.result(), nil
}
