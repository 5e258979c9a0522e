// Package main is the entry point for the aws-cloud-wellness application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/thirukguru/aws-cloud-wellness/model"
	"github.com/thirukguru/aws-cloud-wellness/service/flag"
	"github.com/thirukguru/aws-cloud-wellness/service/orchestrator"
	"github.com/thirukguru/aws-cloud-wellness/service/output"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := loadDotEnv(".env"); err != nil {
		return err
	}

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "db", "history", "trends", "dashboard":
			return runStorageCommand(os.Args[1], os.Args[2:])
		}
	}

	flagService := flag.NewService()
	flags, err := flagService.GetParsedFlags()
	if err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}
	configureLogging(flags)

	versionInfo := model.VersionInfo{Version: version, Commit: commit, Date: date}

	if flags.Version {
		orchestratorService := orchestrator.NewService(orchestrator.Deps{
			Output:      output.NewService(flags.JSONOnly),
			VersionInfo: versionInfo,
		})
		return orchestratorService.Orchestrate(context.Background(), flags, model.Invocation{})
	}

	return runWellness(context.Background(), flags, versionInfo)
}

// loadDotEnv exports the variables of an optional .env file. Variables
// already set in the environment win.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

func logLevel(flags model.Flags) slog.Level {
	if flags.JSONOnly {
		return slog.LevelError
	}
	switch strings.ToLower(flags.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func configureLogging(flags model.Flags) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(flags)})
	slog.SetDefault(slog.New(handler))
}
