package controls

import (
	"context"
	"regexp"
	"strings"

	"github.com/thirukguru/aws-cloud-wellness/model"
	"github.com/thirukguru/aws-cloud-wellness/service/logging"
	"github.com/thirukguru/aws-cloud-wellness/shared/awserr"
)

// eventNamePattern matches a metric filter term selecting one CloudTrail event name.
func eventNamePattern(name string) string {
	return `\$\.eventName\s*=\s*"?` + name + `("|\)|\s)`
}

func eventSourcePattern(source string) string {
	return `\$\.eventSource\s*=\s*"?` + regexp.QuoteMeta(source) + `("|\)|\s)`
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

func eventNames(names ...string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = eventNamePattern(n)
	}
	return out
}

var (
	unauthorizedAPICallPatterns = compile(
		`\$\.errorCode\s*=\s*"?\*UnauthorizedOperation("|\)|\s)`,
		`\$\.errorCode\s*=\s*"?AccessDenied\*("|\)|\s)`,
	)
	consoleSigninNoMFAPatterns = compile(
		eventNamePattern("ConsoleLogin"),
		`\$\.additionalEventData\.MFAUsed\s*\!=\s*"?Yes`,
	)
	rootUsagePatterns = compile(
		`\$\.userIdentity\.type\s*=\s*"?Root`,
		`\$\.userIdentity\.invokedBy\s*NOT\s*EXISTS`,
		`\$\.eventType\s*\!=\s*"?AwsServiceEvent("|\)|\s)`,
	)
	iamPolicyChangePatterns = compile(eventNames(
		"DeleteGroupPolicy", "DeleteRolePolicy", "DeleteUserPolicy",
		"PutGroupPolicy", "PutRolePolicy", "PutUserPolicy",
		"CreatePolicy", "DeletePolicy", "CreatePolicyVersion", "DeletePolicyVersion",
		"AttachRolePolicy", "DetachRolePolicy", "AttachUserPolicy", "DetachUserPolicy",
		"AttachGroupPolicy", "DetachGroupPolicy",
	)...)
	cloudTrailChangePatterns = compile(eventNames(
		"CreateTrail", "UpdateTrail", "DeleteTrail", "StartLogging", "StopLogging",
	)...)
	consoleAuthFailurePatterns = compile(
		eventNamePattern("ConsoleLogin"),
		`\$\.errorMessage\s*=\s*"?Failed authentication("|\)|\s)`,
	)
	kmsKeyDisablePatterns = compile(append(
		[]string{eventSourcePattern("kms.amazonaws.com")},
		eventNames("DisableKey", "ScheduleKeyDeletion")...,
	)...)
	s3PolicyChangePatterns = compile(append(
		[]string{eventSourcePattern("s3.amazonaws.com")},
		eventNames(
			"PutBucketAcl", "PutBucketPolicy", "PutBucketCors", "PutBucketLifecycle", "PutBucketReplication",
			"DeleteBucketPolicy", "DeleteBucketCors", "DeleteBucketLifecycle", "DeleteBucketReplication",
		)...,
	)...)
	configChangePatterns = compile(append(
		[]string{eventSourcePattern("config.amazonaws.com")},
		eventNames("StopConfigurationRecorder", "DeleteDeliveryChannel", "PutDeliveryChannel", "PutConfigurationRecorder")...,
	)...)
	securityGroupChangePatterns = compile(eventNames(
		"AuthorizeSecurityGroupIngress", "AuthorizeSecurityGroupEgress",
		"RevokeSecurityGroupIngress", "RevokeSecurityGroupEgress",
		"CreateSecurityGroup", "DeleteSecurityGroup",
	)...)
	naclChangePatterns = compile(eventNames(
		"CreateNetworkAcl", "CreateNetworkAclEntry", "DeleteNetworkAcl", "DeleteNetworkAclEntry",
		"ReplaceNetworkAclEntry", "ReplaceNetworkAclAssociation",
	)...)
	gatewayChangePatterns = compile(eventNames(
		"CreateCustomerGateway", "DeleteCustomerGateway", "AttachInternetGateway",
		"CreateInternetGateway", "DeleteInternetGateway", "DetachInternetGateway",
	)...)
	routeTableChangePatterns = compile(eventNames(
		"CreateRoute", "CreateRouteTable", "ReplaceRoute", "ReplaceRouteTableAssociation",
		"DeleteRouteTable", "DeleteRoute", "DisassociateRouteTable",
	)...)
	vpcChangePatterns = compile(eventNames(
		"CreateVpc", "DeleteVpc", "ModifyVpcAttribute",
		"AcceptVpcPeeringConnection", "CreateVpcPeeringConnection", "DeleteVpcPeeringConnection", "RejectVpcPeeringConnection",
		"AttachClassicLinkVpc", "DetachClassicLinkVpc", "DisableVpcClassicLink", "EnableVpcClassicLink",
	)...)
	organizationsChangePatterns = compile(eventNames(
		"CreateAccount", "CreatePolicy", "CreateOrganizationalUnit", "DeleteOrganization", "DeleteOrganizationalUnit",
		"DeletePolicy", "DetachPolicy", "DisableAWSServiceAccess", "DisablePolicyType", "MoveAccount",
		"RemoveAccountFromOrganization", "UpdateOrganizationalUnit", "UpdatePolicy",
	)...)
)

// filterMatches reports whether a metric filter pattern matches every expression.
func filterMatches(pattern string, exprs []*regexp.Regexp) bool {
	for _, re := range exprs {
		if !re.MatchString(pattern) {
			return false
		}
	}
	return true
}

// metricAlarm builds a 3.x control. It passes when some trail delivers to a
// log group that has a matching metric filter whose alarm notifies an SNS
// topic with at least one subscriber. An empty reason reuses the description.
func metricAlarm(idx int, description, reason string, patterns []*regexp.Regexp) func(context.Context, Inputs) (model.ControlResult, error) {
	if reason == "" {
		reason = description
	}
	return func(ctx context.Context, in Inputs) (model.ControlResult, error) {
		f := newFindings(model.CategoryMonitoring, idx, description, true)
		f.unreadable(in.Snapshot, in.Snapshot.TrailErrors, "trails")
		for _, region := range in.Snapshot.TrailRegions() {
			svc := in.Regional.Logging(region)
			for _, trail := range in.Snapshot.TrailsByRegion[region] {
				ok, err := trailAlarmed(ctx, svc, trail, patterns)
				if err != nil {
					return model.ControlResult{}, err
				}
				if ok {
					return f.result(), nil
				}
			}
		}
		f.fail(reason)
		return f.result(), nil
	}
}

func trailAlarmed(ctx context.Context, svc logging.Service, trail model.Trail, patterns []*regexp.Regexp) (bool, error) {
	group, ok := logging.LogGroupName(trail.CloudWatchLogsLogGroupArn)
	if !ok {
		return false, nil
	}
	filters, err := svc.MetricFilters(ctx, group)
	if awserr.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, filter := range filters {
		if !filterMatches(filter.Pattern, patterns) {
			continue
		}
		actions, err := svc.AlarmActions(ctx, filter.MetricName, filter.MetricNamespace)
		if err != nil {
			return false, err
		}
		for _, action := range actions {
			if !strings.HasPrefix(action, "arn:aws:sns:") {
				continue
			}
			subscribed, err := svc.HasSubscribers(ctx, action)
			if awserr.IsNotFound(err) {
				continue
			}
			if err != nil {
				return false, err
			}
			if subscribed {
				return true, nil
			}
		}
	}
	return false, nil
}
