package collector

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/thirukguru/aws-cloud-wellness/model"
	"github.com/thirukguru/aws-cloud-wellness/service/iam"
	awssts "github.com/thirukguru/aws-cloud-wellness/service/sts"
	"github.com/thirukguru/aws-cloud-wellness/service/vpc"
	"golang.org/x/sync/errgroup"
)

// NewService creates a snapshot collector. home lists the regions of the
// account and regional builds the per-region readers.
func NewService(iamSvc iam.Service, stsSvc awssts.Service, home vpc.Service, regional RegionalReader, opts Options) Service {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &service{iam: iamSvc, sts: stsSvc, home: home, regional: regional, opts: opts}
}

func (s *service) Collect(ctx context.Context) (*model.Snapshot, error) {
	regions, err := s.regions(ctx)
	if err != nil {
		return nil, err
	}
	slog.Debug("discovered regions", "count", len(regions))

	report, err := s.iam.GetCredentialReport(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get credential report: %w", err)
	}

	policy, err := s.iam.GetPasswordPolicy(ctx)
	if err != nil {
		return nil, err
	}

	accountID, err := s.sts.GetAccountID(ctx)
	if err != nil {
		return nil, err
	}

	snap := &model.Snapshot{
		Regions:            regions,
		CredentialReport:   report,
		PasswordPolicy:     policy,
		TrailsByRegion:     make(map[string][]model.Trail),
		EventRulesByRegion: make(map[string][]model.EventRule),
		TrailErrors:        make(map[string]string),
		EventRuleErrors:    make(map[string]string),
		AccountID:          accountID,
		RealAccountID:      accountID,
	}
	if s.opts.ObfuscateAccount {
		snap.AccountID = model.ObfuscatedAccountID
	}

	if err := s.collectRegional(ctx, snap); err != nil {
		return nil, err
	}
	snap.CollectedAt = s.opts.Clock().UTC()
	return snap, nil
}

// regions returns the enabled regions in API order, without duplicates
// and without regions the controls cannot evaluate.
func (s *service) regions(ctx context.Context) ([]string, error) {
	all, err := s.home.ListRegions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(all))
	for _, r := range all {
		if r == "" || slices.Contains(out, r) || slices.Contains(model.UnsupportedRegions, r) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type regionState struct {
	trails   []model.Trail
	rules    []model.EventRule
	trailErr error
	rulesErr error
}

// collectRegional lists trails and rules for every region. A region that
// cannot be read is recorded in the snapshot and does not stop the others.
func (s *service) collectRegional(ctx context.Context, snap *model.Snapshot) error {
	states := make([]regionState, len(snap.Regions))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, region := range snap.Regions {
		g.Go(func() error {
			st := &states[i]
			st.trails, st.trailErr = s.regional.CloudTrail(region).ListTrails(ctx)
			st.rules, st.rulesErr = s.regional.Events(region).ListRules(ctx)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	for i, region := range snap.Regions {
		st := states[i]
		if st.trailErr != nil {
			slog.Warn("failed to list trails", "region", region, "error", st.trailErr)
			snap.TrailErrors[region] = st.trailErr.Error()
		} else if len(st.trails) > 0 {
			snap.TrailsByRegion[region] = st.trails
		}
		if st.rulesErr != nil {
			slog.Warn("failed to list event rules", "region", region, "error", st.rulesErr)
			snap.EventRuleErrors[region] = st.rulesErr.Error()
		} else if len(st.rules) > 0 {
			snap.EventRulesByRegion[region] = st.rules
		}
	}
	return nil
}
