package controls

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thirukguru/aws-cloud-wellness/model"
	"github.com/thirukguru/aws-cloud-wellness/service/guardduty"
)

// Role created when Macie is enabled for the account.
const macieServiceRole = "AWSMacieServiceCustomerSetupRole"

// 5.1
func guardDutyEnabled(ctx context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryCustom, 1, "Ensure GuardDuty is enabled in all regions and is monitored", false)
	const reason = "GuardDuty is not enabled in each region with an enabled CloudWatch Rule"
	f.unreadable(in.Snapshot, in.Snapshot.EventRuleErrors, "event rules")

	perRegion, err := eachRegion(ctx, in, func(ctx context.Context, region string) ([]guardduty.Detector, error) {
		return in.Regional.GuardDuty(region).Detectors(ctx)
	})
	if err != nil {
		return model.ControlResult{}, err
	}

	for i, detectors := range perRegion {
		region := in.Snapshot.Regions[i]
		consoleLink := "https://console.aws.amazon.com/guardduty/home?region=" + region
		if len(detectors) == 0 {
			f.add(reason, regionOffender(region, "Not enabled"), consoleLink)
			continue
		}
		for _, d := range detectors {
			if !d.Enabled {
				f.add(reason, regionOffender(region, "Suspended"), consoleLink)
				continue
			}
			found := false
			for _, rule := range in.Snapshot.EventRulesByRegion[region] {
				if !guardDutyRule(rule) {
					continue
				}
				found = true
				if rule.State != "ENABLED" {
					f.add(reason, regionOffender(region, "Disabled rule"),
						fmt.Sprintf("https://console.aws.amazon.com/cloudwatch/home?region=%s#rules:name=%s", region, rule.Name))
				}
			}
			_, unreadable := in.Snapshot.EventRuleErrors[region]
			if !found && !unreadable {
				f.add(reason, regionOffender(region, "No GuardDuty CloudWatch Rules exist for this region"),
					"https://console.aws.amazon.com/cloudwatch/home?region="+region)
			}
		}
	}
	return f.result(), nil
}

type eventPattern struct {
	Source json.RawMessage `json:"source"`
	Detail struct {
		EventSource json.RawMessage `json:"eventSource"`
	} `json:"detail"`
}

// guardDutyRule reports whether the rule pattern selects GuardDuty events
// through its source or detail.eventSource field.
func guardDutyRule(rule model.EventRule) bool {
	var p eventPattern
	if err := json.Unmarshal([]byte(rule.EventPattern), &p); err != nil {
		return false
	}
	return strings.Contains(string(p.Source), "aws.guardduty") ||
		strings.Contains(string(p.Detail.EventSource), "aws.guardduty")
}

// 5.2
func inspectorEnabled(ctx context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryCustom, 2, "Ensure Inspector is enabled", false)
	enabled, err := in.Inspector.Enabled(ctx)
	if err != nil {
		return model.ControlResult{}, err
	}
	if !enabled {
		f.add("Inspector is not enabled", "Not enabled", "https://console.aws.amazon.com/inspector/home")
	}
	return f.result(), nil
}

// 5.3
func macieEnabled(ctx context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryCustom, 3, "Ensure Macie is enabled", false)
	exists, err := in.IAM.RoleExists(ctx, macieServiceRole)
	if err != nil {
		return model.ControlResult{}, err
	}
	if !exists {
		f.add("Macie is not enabled", accountOffender, "https://console.aws.amazon.com/console/home")
		return f.result(), nil
	}
	for _, rule := range in.Snapshot.EventRulesByRegion[in.HomeRegion] {
		if strings.Contains(rule.EventPattern, "aws.macie") {
			return f.result(), nil
		}
	}
	if cause, ok := in.Snapshot.EventRuleErrors[in.HomeRegion]; ok {
		f.unreadableRegion(in.HomeRegion, cause, "event rules")
		return f.result(), nil
	}
	f.add("There are no CloudWatch event rules for Macie activities", accountOffender, "https://console.aws.amazon.com/cloudwatch/home")
	return f.result(), nil
}
