// Package controls holds the catalogue of account best-practice controls.
//
// Every control reads the account snapshot and, where the snapshot does not
// carry the data, the read-only collaborators in Inputs. A control returns
// exactly one result; a returned error means a collaborator failed and is
// turned into a failing result by the caller.
package controls

import (
	"context"
	"time"

	"github.com/thirukguru/aws-cloud-wellness/model"
	"github.com/thirukguru/aws-cloud-wellness/service/cloudtrail"
	"github.com/thirukguru/aws-cloud-wellness/service/config"
	"github.com/thirukguru/aws-cloud-wellness/service/guardduty"
	"github.com/thirukguru/aws-cloud-wellness/service/iam"
	"github.com/thirukguru/aws-cloud-wellness/service/inspector"
	"github.com/thirukguru/aws-cloud-wellness/service/logging"
	"github.com/thirukguru/aws-cloud-wellness/service/s3security"
	"github.com/thirukguru/aws-cloud-wellness/service/vpc"
)

// Control is one entry of the catalogue.
type Control struct {
	Category model.Category
	Index    int
	Run      func(ctx context.Context, in Inputs) (model.ControlResult, error)
}

// ID returns the dotted control id.
func (c Control) ID() string {
	return model.ControlResult{Category: c.Category, Index: c.Index}.ControlID()
}

// Regional builds the collaborators of a single region.
type Regional interface {
	CloudTrail(region string) cloudtrail.Service
	VPC(region string) vpc.Service
	Config(region string) config.Service
	Logging(region string) logging.Service
	GuardDuty(region string) guardduty.Service
	S3(region string) s3security.Service
}

// Inputs is everything a control may read.
type Inputs struct {
	Snapshot  *model.Snapshot
	IAM       iam.Service
	Inspector inspector.Service
	Regional  Regional
	// HomeRegion is the region global reads are made from.
	HomeRegion string
	// RootUseDays is the window of root account use that fails 1.1.
	// Zero means the current day.
	RootUseDays int
	// Concurrency bounds the region fan-out inside a control.
	Concurrency int
	// Clock returns the current time. Each control samples it once.
	Clock func() time.Time
}

func (in Inputs) now() time.Time {
	if in.Clock == nil {
		return time.Now().UTC()
	}
	return in.Clock().UTC()
}

func (in Inputs) limit() int {
	if in.Concurrency < 1 {
		return 1
	}
	return in.Concurrency
}

var catalogue = []Control{
	{model.CategoryIAM, 1, rootUse},
	{model.CategoryIAM, 2, mfaOnPasswordUsers},
	{model.CategoryIAM, 3, unusedCredentials},
	{model.CategoryIAM, 4, rotatedKeys},
	{model.CategoryIAM, 5, passwordPolicyUppercase},
	{model.CategoryIAM, 6, passwordPolicyLowercase},
	{model.CategoryIAM, 7, passwordPolicySymbol},
	{model.CategoryIAM, 8, passwordPolicyNumber},
	{model.CategoryIAM, 9, passwordPolicyLength},
	{model.CategoryIAM, 10, passwordPolicyReuse},
	{model.CategoryIAM, 11, passwordPolicyExpiry},
	{model.CategoryIAM, 12, rootKeyExists},
	{model.CategoryIAM, 13, rootMFAEnabled},
	{model.CategoryIAM, 14, rootHardwareMFAEnabled},
	{model.CategoryIAM, 15, manual(model.CategoryIAM, 15, "Ensure security questions are registered in the AWS account, please verify manually", false)},
	{model.CategoryIAM, 16, noInlineUserPolicies},
	{model.CategoryIAM, 17, manual(model.CategoryIAM, 17, "Enable detailed billing, please verify manually", true)},
	{model.CategoryIAM, 18, manual(model.CategoryIAM, 18, "Ensure IAM Master and IAM Manager roles are active. Control under review/investigation", true)},
	{model.CategoryIAM, 19, manual(model.CategoryIAM, 19, "Maintain current contact details, please verify manually", true)},
	{model.CategoryIAM, 20, manual(model.CategoryIAM, 20, "Ensure security contact information is registered, please verify manually", true)},
	{model.CategoryIAM, 21, instanceRolesUsed},
	{model.CategoryIAM, 22, supportRoleExists},
	{model.CategoryIAM, 23, noInitialAccessKeys},
	{model.CategoryIAM, 24, noAdminPolicies},

	{model.CategoryLogging, 1, cloudTrailAllRegions},
	{model.CategoryLogging, 2, cloudTrailValidation},
	{model.CategoryLogging, 3, cloudTrailBucketNotPublic},
	{model.CategoryLogging, 4, cloudTrailCloudWatchLogs},
	{model.CategoryLogging, 5, configAllRegions},
	{model.CategoryLogging, 6, cloudTrailBucketLogging},
	{model.CategoryLogging, 7, cloudTrailEncryption},
	{model.CategoryLogging, 8, kmsKeyRotation},

	{model.CategoryMonitoring, 1, metricAlarm(1, "Ensure log metric filter unauthorized api calls",
		"Incorrect log metric alerts for unauthorized_api_calls", unauthorizedAPICallPatterns)},
	{model.CategoryMonitoring, 2, metricAlarm(2, "Ensure a log metric filter and alarm exist for Management Console sign-in without MFA",
		"Incorrect log metric alerts for management console signin without MFA", consoleSigninNoMFAPatterns)},
	{model.CategoryMonitoring, 3, metricAlarm(3, "Ensure a log metric filter and alarm exist for root usage",
		"Incorrect log metric alerts for root usage", rootUsagePatterns)},
	{model.CategoryMonitoring, 4, metricAlarm(4, "Ensure a log metric filter and alarm exist for IAM changes",
		"Incorrect log metric alerts for IAM policy changes", iamPolicyChangePatterns)},
	{model.CategoryMonitoring, 5, metricAlarm(5, "Ensure a log metric filter and alarm exist for CloudTrail configuration changes",
		"Incorrect log metric alerts for CloudTrail configuration changes", cloudTrailChangePatterns)},
	{model.CategoryMonitoring, 6, metricAlarm(6, "Ensure a log metric filter and alarm exist for console auth failures", "", consoleAuthFailurePatterns)},
	{model.CategoryMonitoring, 7, metricAlarm(7, "Ensure a log metric filter and alarm exist for disabling or scheduling deletion of KMS CMK", "", kmsKeyDisablePatterns)},
	{model.CategoryMonitoring, 8, metricAlarm(8, "Ensure a log metric filter and alarm exist for S3 bucket policy changes", "", s3PolicyChangePatterns)},
	{model.CategoryMonitoring, 9, metricAlarm(9, "Ensure a log metric filter and alarm exist for AWS Config configuration changes", "", configChangePatterns)},
	{model.CategoryMonitoring, 10, metricAlarm(10, "Ensure a log metric filter and alarm exist for security group changes", "", securityGroupChangePatterns)},
	{model.CategoryMonitoring, 11, metricAlarm(11, "Ensure a log metric filter and alarm exist for changes to Network Access Control Lists (NACL)", "", naclChangePatterns)},
	{model.CategoryMonitoring, 12, metricAlarm(12, "Ensure a log metric filter and alarm exist for changes to network gateways", "", gatewayChangePatterns)},
	{model.CategoryMonitoring, 13, metricAlarm(13, "Ensure a log metric filter and alarm exist for route table changes", "", routeTableChangePatterns)},
	{model.CategoryMonitoring, 14, metricAlarm(14, "Ensure a log metric filter and alarm exist for VPC changes", "", vpcChangePatterns)},
	{model.CategoryMonitoring, 15, manual(model.CategoryMonitoring, 15, "Ensure appropriate subscribers to each SNS topic, please verify manually", false)},
	{model.CategoryMonitoring, 16, metricAlarm(16, "Ensure a log metric filter and alarm exist for Organizations changes",
		"A log metric filter and alarm do not exist for Organizations changes", organizationsChangePatterns)},

	{model.CategoryNetworking, 1, portOpenToWorld(1, 22)},
	{model.CategoryNetworking, 2, portOpenToWorld(2, 3389)},
	{model.CategoryNetworking, 3, flowLogsEnabled},
	{model.CategoryNetworking, 4, defaultSecurityGroupsRestricted},
	{model.CategoryNetworking, 5, peeringRoutesLeastAccess},

	{model.CategoryCustom, 1, guardDutyEnabled},
	{model.CategoryCustom, 2, inspectorEnabled},
	{model.CategoryCustom, 3, macieEnabled},
}

// Catalogue returns every control in reporting order.
func Catalogue() []Control {
	out := make([]Control, len(catalogue))
	copy(out, catalogue)
	return out
}

// ByCategory returns the controls of one category in declared order.
func ByCategory(cat model.Category) []Control {
	var out []Control
	for _, c := range catalogue {
		if c.Category == cat {
			out = append(out, c)
		}
	}
	return out
}

func manual(cat model.Category, idx int, description string, scored bool) func(context.Context, Inputs) (model.ControlResult, error) {
	return func(context.Context, Inputs) (model.ControlResult, error) {
		return model.Manual(cat, idx, description, scored), nil
	}
}
