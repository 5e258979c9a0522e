package orchestrator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/thirukguru/aws-cloud-wellness/model"
	"github.com/thirukguru/aws-cloud-wellness/service/storage"
)

func invocationMode(inv model.Invocation) string {
	if inv.Mode == model.InvocationRuleTriggered {
		return "rule"
	}
	return "adhoc"
}

// controlRecords flattens groups into the stored control rows.
func controlRecords(groups []model.CategoryGroup) []storage.ControlRecord {
	var out []storage.ControlRecord
	for _, g := range groups {
		for _, r := range g.Results {
			out = append(out, storage.ControlRecord{
				ControlID:   r.ControlID(),
				Category:    int(r.Category),
				Index:       r.Index,
				Description: r.Description,
				Result:      string(r.Result),
				Scored:      r.Scored,
				FailReason:  r.FailReason,
				Offenders:   r.Offenders,
			})
		}
	}
	return out
}

func (s *service) persistRunIfEnabled(
	ctx context.Context,
	flags model.Flags,
	inv model.Invocation,
	res *RunResult,
	duration time.Duration,
) error {
	if s.storageService == nil || !flags.Store {
		return nil
	}

	// History is keyed by the real account so masked runs still line up.
	accountID := res.Snapshot.RealAccountID
	if accountID == "" {
		accountID = res.Snapshot.AccountID
	}

	flagsJSON, _ := json.Marshal(flags)
	runID, err := s.storageService.SaveRun(ctx, storage.SaveRunInput{
		AccountID:   accountID,
		Region:      s.inputs.HomeRegion,
		Mode:        invocationMode(inv),
		DurationSec: int64(duration.Seconds()),
		Version:     s.versionInfo.Version,
		Profile:     flags.Profile,
		FlagsJSON:   string(flagsJSON),
		Annotation:  res.Annotation.String(),
		ReportURL:   res.ReportURL,
		Controls:    controlRecords(res.Groups),
	})
	if err != nil {
		return err
	}
	res.RunID = runID
	return nil
}
