package storage

import (
	"context"
	"time"
)

// Service defines persistence and history query operations.
type Service interface {
	SaveRun(ctx context.Context, input SaveRunInput) (int64, error)
	GetTrends(accountID string, days int) ([]TrendPoint, error)
	GetRecentRuns(accountID string, limit int) ([]RunSummary, error)
	CompareRuns(runID1, runID2 int64) (*RunComparison, error)
	GetControlHistory(accountID, controlID string) ([]ControlHistoryEvent, error)
	ListControlResults(runID int64) ([]ControlSnapshot, error)
	Vacuum(ctx context.Context) error
	Reindex(ctx context.Context) error
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
	Close() error
}

// SaveRunInput is the payload saved for a completed run.
type SaveRunInput struct {
	// RunUUID is generated when empty.
	RunUUID     string
	AccountID   string
	Region      string
	Mode        string
	DurationSec int64
	Version     string
	Profile     string
	FlagsJSON   string
	Annotation  string
	ReportURL   string
	Controls    []ControlRecord
}

// ControlRecord is one control outcome as stored.
type ControlRecord struct {
	ControlID   string
	Category    int
	Index       int
	Description string
	Result      string
	Scored      bool
	FailReason  string
	Offenders   []string
}

// TrendPoint is a daily aggregate for trend visualizations.
type TrendPoint struct {
	AccountID string  `json:"account_id"`
	Date      string  `json:"date"`
	Runs      int     `json:"runs"`
	Total     int     `json:"total"`
	Passed    int     `json:"passed"`
	Failed    int     `json:"failed"`
	Manual    int     `json:"manual"`
	Score     float64 `json:"score"`
}

// RunSummary provides compact run metadata.
type RunSummary struct {
	RunID        int64
	RunUUID      string
	AccountID    string
	Region       string
	Mode         string
	RunTimestamp time.Time
	Total        int
	Passed       int
	Failed       int
	Manual       int
	Score        float64
	Annotation   string
	ReportURL    string
	Version      string
}

// RunComparison holds the control ids whose result changed between two runs.
type RunComparison struct {
	RunID1       int64
	RunID2       int64
	NewlyFailing []string
	Resolved     []string
	StillFailing []string
}

// ControlHistoryEvent is the result of one control in one run.
type ControlHistoryEvent struct {
	RunID        int64
	RunTimestamp time.Time
	Result       string
	FailReason   string
	Offenders    int
}

// ControlSnapshot is a run-time control view.
type ControlSnapshot struct {
	ControlID   string
	Description string
	Result      string
	Scored      bool
	FailReason  string
	Offenders   []string
}
