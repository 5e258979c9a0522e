// Package orchestrator coordinates a wellness run from snapshot to verdict.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/thirukguru/aws-cloud-wellness/model"
	"github.com/thirukguru/aws-cloud-wellness/service/aggregate"
	"github.com/thirukguru/aws-cloud-wellness/service/feedback"
	"github.com/thirukguru/aws-cloud-wellness/service/output"
	htmloutput "github.com/thirukguru/aws-cloud-wellness/shared/html_output"
	"github.com/thirukguru/aws-cloud-wellness/shared/redact"
)

// NewService creates a new orchestrator service.
func NewService(deps Deps) Service {
	return &service{
		collectorService: deps.Collector,
		inputs:           deps.Inputs,
		outputService:    deps.Output,
		publisherService: deps.Publisher,
		storageService:   deps.Storage,
		feedbackClient:   deps.Feedback,
		versionInfo:      deps.VersionInfo,
	}
}

func (s *service) Orchestrate(ctx context.Context, flags model.Flags, inv model.Invocation) error {
	if flags.Version {
		return s.versionWorkflow()
	}

	_, err := s.Run(ctx, flags, inv)
	return err
}

func (s *service) versionWorkflow() error {
	s.outputService.StopSpinner()

	fmt.Println(s.versionInfo.String())

	return nil
}

// Run executes one wellness run. Control failures never fail the run; a
// missing credential report, a publish failure or a feedback failure does.
// A publish failure still lets history and the compliance verdict through.
func (s *service) Run(ctx context.Context, flags model.Flags, inv model.Invocation) (*RunResult, error) {
	startedAt := time.Now()

	snap, err := s.collectorService.Collect(ctx)
	if err != nil {
		s.outputService.StopSpinner()
		return nil, err
	}
	slog.Info("snapshot collected", "regions", len(snap.Regions), "users", len(snap.CredentialReport))

	in := s.inputs
	in.Snapshot = snap
	groups := RunAll(ctx, in)

	doc, err := aggregate.Document(groups)
	if err != nil {
		s.outputService.StopSpinner()
		return nil, err
	}
	res := &RunResult{
		Snapshot:   snap,
		Groups:     groups,
		Document:   doc,
		Annotation: aggregate.Annotate(groups),
		Summary:    aggregate.Summarize(groups),
	}

	if err := s.outputService.RenderRun(output.RunOutput{
		AccountID:     snap.AccountID,
		Groups:        groups,
		Summary:       res.Summary,
		Annotation:    res.Annotation,
		Document:      doc,
		PrintDocument: flags.PrintJSON,
		HTMLFile:      flags.HTMLFile,
	}); err != nil {
		return res, err
	}

	if flags.WebReport() || flags.HTMLFile != "" {
		html, err := s.renderReport(snap, res)
		if err != nil {
			return res, err
		}
		if flags.ObfuscateAccount {
			html = redact.ScrubAccountNumbers(html)
		}
		res.HTML = html

		if flags.HTMLFile != "" {
			if err := htmloutput.WriteHTMLString(flags.HTMLFile, html); err != nil {
				return res, err
			}
		}
	}

	var publishErr error
	if flags.WebReport() && s.publisherService != nil {
		url, err := s.publisherService.Publish(ctx, res.HTML, snap.AccountID)
		if err != nil {
			publishErr = err
		} else {
			res.ReportURL = url
			s.outputService.RenderReportURL(url)
		}
	}

	if err := s.persistRunIfEnabled(ctx, flags, inv, res, time.Since(startedAt)); err != nil {
		slog.Warn("failed to store run history", "error", err)
	}

	var feedbackErr error
	if inv.Mode == model.InvocationRuleTriggered {
		feedbackErr = s.reportCompliance(ctx, inv, res.Annotation)
	}
	return res, errors.Join(publishErr, feedbackErr)
}

func (s *service) renderReport(snap *model.Snapshot, res *RunResult) (string, error) {
	html, err := htmloutput.GenerateHTMLReport(htmloutput.ReportData{
		AccountID:   snap.AccountID,
		GeneratedAt: snap.CollectedAt.UTC().Format(time.ANSIC),
		Annotation:  res.Annotation.String(),
		Groups:      res.Groups,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render html report: %w", err)
	}
	return html, nil
}

func (s *service) reportCompliance(ctx context.Context, inv model.Invocation, annotation aggregate.Annotation) error {
	if inv.Event == nil {
		return fmt.Errorf("%w: rule-triggered run without event", model.ErrFeedback)
	}
	if s.feedbackClient == nil {
		return fmt.Errorf("%w: no config client", model.ErrFeedback)
	}
	adapter := feedback.NewAdapter(s.feedbackClient, *inv.Event)
	if err := adapter.Evaluate(annotation); err != nil {
		return err
	}
	if err := adapter.Report(ctx); err != nil {
		return err
	}
	ev := adapter.Evaluation()
	slog.Info("compliance evaluation reported", "rule", inv.Event.ConfigRuleID, "compliance", ev.ComplianceType)
	return nil
}
