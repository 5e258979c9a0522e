package model

import "time"

// Flags holds the resolved run configuration (command line, environment and config file).
type Flags struct {
	Profile     string
	Region      string
	Version     bool
	ConfigPath  string
	EventPath   string
	JSONOnly    bool
	PrintJSON   bool
	LogLevel    string
	Concurrency int
	CallTimeout time.Duration

	OutputBucket      string
	ReportNameDetails bool
	ReportTTL         time.Duration
	ObfuscateAccount  bool
	SNSTopicARN       string
	HTMLFile          string

	Store  bool
	DBPath string

	RootUseDays int
}

// WebReport reports whether the HTML report should be uploaded.
func (f Flags) WebReport() bool {
	return f.OutputBucket != ""
}
