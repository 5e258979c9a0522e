package orchestrator

import (
	"context"

	"github.com/thirukguru/aws-cloud-wellness/model"
	"github.com/thirukguru/aws-cloud-wellness/service/aggregate"
	"github.com/thirukguru/aws-cloud-wellness/service/collector"
	"github.com/thirukguru/aws-cloud-wellness/service/controls"
	"github.com/thirukguru/aws-cloud-wellness/service/feedback"
	"github.com/thirukguru/aws-cloud-wellness/service/output"
	"github.com/thirukguru/aws-cloud-wellness/service/publisher"
	"github.com/thirukguru/aws-cloud-wellness/service/storage"
)

// Deps are the collaborators of a run. Publisher, Storage and Feedback are
// optional and only used when the run asks for them.
type Deps struct {
	Collector collector.Service
	// Inputs carries the control collaborators; the snapshot is filled in per run.
	Inputs      controls.Inputs
	Output      output.Service
	Publisher   publisher.Service
	Storage     storage.Service
	Feedback    feedback.ConfigClientAPI
	VersionInfo model.VersionInfo
}

type service struct {
	collectorService collector.Service
	inputs           controls.Inputs
	outputService    output.Service
	publisherService publisher.Service
	storageService   storage.Service
	feedbackClient   feedback.ConfigClientAPI
	versionInfo      model.VersionInfo
}

// RunResult is everything a completed run produced.
type RunResult struct {
	Snapshot   *model.Snapshot
	Groups     []model.CategoryGroup
	Document   []byte
	Annotation aggregate.Annotation
	Summary    aggregate.Summary
	HTML       string
	ReportURL  string
	// RunID is the history id, zero when the run was not stored.
	RunID int64
}

// Service is the interface for orchestrator service.
type Service interface {
	Orchestrate(ctx context.Context, flags model.Flags, inv model.Invocation) error
	Run(ctx context.Context, flags model.Flags, inv model.Invocation) (*RunResult, error)
}
