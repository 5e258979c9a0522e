package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/thirukguru/aws-cloud-wellness/model"
	awsconfig "github.com/thirukguru/aws-cloud-wellness/service/aws_config"
	"github.com/thirukguru/aws-cloud-wellness/service/collector"
	"github.com/thirukguru/aws-cloud-wellness/service/controls"
	"github.com/thirukguru/aws-cloud-wellness/service/feedback"
	"github.com/thirukguru/aws-cloud-wellness/service/iam"
	"github.com/thirukguru/aws-cloud-wellness/service/inspector"
	"github.com/thirukguru/aws-cloud-wellness/service/orchestrator"
	"github.com/thirukguru/aws-cloud-wellness/service/output"
	"github.com/thirukguru/aws-cloud-wellness/service/publisher"
	"github.com/thirukguru/aws-cloud-wellness/service/storage"
	awssts "github.com/thirukguru/aws-cloud-wellness/service/sts"
	"github.com/thirukguru/aws-cloud-wellness/service/vpc"
	"github.com/thirukguru/aws-cloud-wellness/shared/banner"
	"github.com/thirukguru/aws-cloud-wellness/shared/spinner"
	"golang.org/x/term"
)

func runWellness(ctx context.Context, flags model.Flags, versionInfo model.VersionInfo) error {
	inv, err := loadInvocation(flags.EventPath, os.Stdin)
	if err != nil {
		return err
	}

	cfgService := awsconfig.NewService()
	awsCfg, err := cfgService.GetAWSCfg(ctx, awsconfig.Options{
		Region:      flags.Region,
		Profile:     flags.Profile,
		CallTimeout: flags.CallTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}
	if flags.Region == "" {
		flags.Region = awsCfg.Region
	}

	if interactive(flags) {
		banner.DrawBannerTitle()
		spinner.StartSpinner("Collecting account snapshot...")
		defer spinner.StopSpinner()
	}

	clients := collector.NewClients(awsCfg)
	iamService := iam.NewService(awsCfg)
	collectorService := collector.NewService(
		iamService,
		awssts.NewService(awsCfg),
		vpc.NewService(awsCfg),
		clients,
		collector.Options{
			HomeRegion:       awsCfg.Region,
			Concurrency:      flags.Concurrency,
			ObfuscateAccount: flags.ObfuscateAccount,
		},
	)

	deps := orchestrator.Deps{
		Collector: collectorService,
		Inputs: controls.Inputs{
			IAM:         iamService,
			Inspector:   inspector.NewService(awsCfg),
			Regional:    clients,
			HomeRegion:  awsCfg.Region,
			RootUseDays: flags.RootUseDays,
			Concurrency: flags.Concurrency,
		},
		Output:      output.NewService(flags.JSONOnly),
		VersionInfo: versionInfo,
	}

	if flags.WebReport() {
		deps.Publisher = publisher.NewService(awsCfg, publisher.Options{
			Bucket:   flags.OutputBucket,
			Detailed: flags.ReportNameDetails,
			TTL:      flags.ReportTTL,
			TopicARN: flags.SNSTopicARN,
		})
	}
	if inv.Mode == model.InvocationRuleTriggered {
		deps.Feedback = feedback.NewConfigClient(awsCfg)
	}
	if flags.Store {
		store, err := storage.NewService(flags.DBPath)
		if err != nil {
			slog.Warn("run history disabled", "error", err)
		} else {
			defer store.Close()
			deps.Storage = store
		}
	}

	return orchestrator.NewService(deps).Orchestrate(ctx, flags, inv)
}

// interactive reports whether progress decorations may be drawn.
func interactive(flags model.Flags) bool {
	return !flags.JSONOnly && term.IsTerminal(int(os.Stdout.Fd()))
}

// loadInvocation reads the Config rule event named by path, "-" meaning
// stdin. No path is an ad-hoc run.
func loadInvocation(path string, stdin io.Reader) (model.Invocation, error) {
	if path == "" {
		return model.Invocation{Mode: model.InvocationAdHoc}, nil
	}

	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return model.Invocation{}, fmt.Errorf("failed to read config event: %w", err)
	}

	event, err := feedback.ParseEvent(raw)
	if err != nil {
		return model.Invocation{}, err
	}
	return model.Invocation{Mode: model.InvocationRuleTriggered, Event: &event}, nil
}
