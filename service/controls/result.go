package controls

import (
	"context"
	"fmt"
	"strings"

	"github.com/thirukguru/aws-cloud-wellness/model"
	"golang.org/x/sync/errgroup"
)

// findings accumulates the offenders of one control run.
type findings struct {
	cat         model.Category
	idx         int
	description string
	scored      bool

	failed    bool
	reasons   []string
	offenders []string
	links     []string
}

func newFindings(cat model.Category, idx int, description string, scored bool) *findings {
	return &findings{cat: cat, idx: idx, description: description, scored: scored}
}

// fail marks the control failed without naming a resource.
func (f *findings) fail(reason string) {
	f.failed = true
	f.addReason(reason)
}

// add records an offender and its console link.
func (f *findings) add(reason, offender, link string) {
	f.fail(reason)
	f.offenders = append(f.offenders, offender)
	f.links = append(f.links, link)
}

// unreadable fails f once for every region whose what could not be listed
// while the snapshot was collected.
func (f *findings) unreadable(snap *model.Snapshot, errs map[string]string, what string) {
	for _, region := range snap.UnreadableRegions(errs) {
		f.unreadableRegion(region, errs[region], what)
	}
}

func (f *findings) unreadableRegion(region, cause, what string) {
	f.add(fmt.Sprintf("Unable to list %s in %s: %s.", what, region, cause), regionOffender(region, "CannotVerify"), "")
}

func (f *findings) addReason(reason string) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	for _, r := range f.reasons {
		if r == reason {
			return
		}
	}
	f.reasons = append(f.reasons, reason)
}

func (f *findings) result() model.ControlResult {
	if !f.failed {
		return model.Passed(f.cat, f.idx, f.description, f.scored)
	}
	reason := strings.Join(f.reasons, " ")
	if reason == "" {
		reason = f.description
	}
	offenders, links := dedupeOffenders(f.offenders, f.links)
	return model.Failed(f.cat, f.idx, f.description, f.scored, reason, offenders, links)
}

// dedupeOffenders drops repeated offenders, keeping the first occurrence and
// its link. links may be shorter than offenders.
func dedupeOffenders(offenders, links []string) ([]string, []string) {
	if len(offenders) == 0 {
		return nil, nil
	}
	seen := make(map[string]bool, len(offenders))
	outOffenders := make([]string, 0, len(offenders))
	var outLinks []string
	for i, o := range offenders {
		if seen[o] {
			continue
		}
		seen[o] = true
		outOffenders = append(outOffenders, o)
		if i < len(links) {
			outLinks = append(outLinks, links[i])
		}
	}
	return outOffenders, outLinks
}

// eachRegion runs fn for every snapshot region on a bounded pool. Results
// are returned in region order whatever the completion order.
func eachRegion[T any](ctx context.Context, in Inputs, fn func(ctx context.Context, region string) (T, error)) ([]T, error) {
	regions := in.Snapshot.Regions
	out := make([]T, len(regions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.limit())
	for i, region := range regions {
		g.Go(func() error {
			v, err := fn(gctx, region)
			if err != nil {
				return fmt.Errorf("%s: %w", region, err)
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func regionOffender(region, id string) string {
	return region + " : " + id
}

// Console links.
func userCredentialsLink(user string) string {
	return fmt.Sprintf("https://console.aws.amazon.com/iam/home#/users/%s?section=security_credentials", user)
}

func userPermissionsLink(user string) string {
	return fmt.Sprintf("https://console.aws.amazon.com/iam/home#/users/%s?section=permissions", user)
}

func bucketLink(bucket, tab string) string {
	return fmt.Sprintf("https://s3.console.aws.amazon.com/s3/buckets/%s/?tab=%s", bucket, tab)
}

func configLink(region string) string {
	return fmt.Sprintf("https://console.aws.amazon.com/config/home?region=%s#/configure", region)
}

func securityGroupSearchLink(region, sg string) string {
	return fmt.Sprintf("https://console.aws.amazon.com/ec2/v2/home?region=%s#SecurityGroups:search=%s", region, sg)
}

const (
	accountOffender      = "Account"
	accountSettingsLink  = "https://console.aws.amazon.com/iam/home?#/account_settings"
	rootCredentialsLink  = "https://console.aws.amazon.com/iam/home#/security_credentials"
	cloudTrailConfigLink = "https://console.aws.amazon.com/cloudtrail/home#/configuration"
	globalConfigLink     = "https://console.aws.amazon.com/config/home#/configure"
)
