package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const defaultDBPath = "~/.aws-cloud-wellness/history.db"

const (
	resultPass   = "Pass"
	resultFail   = "Fail"
	resultManual = "Manual"
)

// NewService creates a SQLite-backed storage service.
func NewService(dbPath string) (Service, error) {
	resolved, err := resolvePath(dbPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaV1); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &service{db: db, dbPath: resolved}, nil
}

type service struct {
	db     *sql.DB
	dbPath string
}

func resolvePath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		p = defaultDBPath
	}
	if strings.HasPrefix(p, "~/") || p == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home dir: %w", err)
		}
		if p == "~" {
			p = home
		} else {
			p = filepath.Join(home, p[2:])
		}
	}
	return filepath.Clean(p), nil
}

type runCounts struct {
	total, passed, failed, manual int
	scoredPassed, scoredFailed    int
}

func countControls(records []ControlRecord) runCounts {
	var c runCounts
	for _, r := range records {
		c.total++
		switch r.Result {
		case resultPass:
			c.passed++
			if r.Scored {
				c.scoredPassed++
			}
		case resultFail:
			c.failed++
			if r.Scored {
				c.scoredFailed++
			}
		case resultManual:
			c.manual++
		}
	}
	return c
}

func (c runCounts) score() float64 {
	if c.scoredPassed+c.scoredFailed == 0 {
		return 100
	}
	return float64(c.scoredPassed) * 100 / float64(c.scoredPassed+c.scoredFailed)
}

func (s *service) SaveRun(ctx context.Context, input SaveRunInput) (int64, error) {
	if input.AccountID == "" {
		return 0, errors.New("account id is required")
	}
	if input.Region == "" {
		input.Region = "unknown"
	}
	if input.Mode == "" {
		input.Mode = "adhoc"
	}
	if input.RunUUID == "" {
		input.RunUUID = uuid.NewString()
	}
	counts := countControls(input.Controls)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (
			run_uuid, account_id, region, mode, run_duration, total_controls,
			passed_count, failed_count, manual_count, score, annotation, report_url,
			cli_version, run_profile, run_flags
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, input.RunUUID, input.AccountID, input.Region, input.Mode, input.DurationSec, counts.total,
		counts.passed, counts.failed, counts.manual, counts.score(), input.Annotation, input.ReportURL,
		input.Version, input.Profile, input.FlagsJSON)
	if err != nil {
		return 0, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err = s.saveControlsTx(ctx, tx, runID, input.Controls); err != nil {
		return 0, err
	}
	if err = s.saveRunMetricsTx(ctx, tx, runID, input.Controls, counts); err != nil {
		return 0, err
	}

	err = tx.Commit()
	if err != nil {
		return 0, err
	}
	return runID, nil
}

func (s *service) saveControlsTx(ctx context.Context, tx *sql.Tx, runID int64, records []ControlRecord) error {
	for _, r := range records {
		offenders, err := json.Marshal(r.Offenders)
		if err != nil {
			return fmt.Errorf("failed to encode offenders of %s: %w", r.ControlID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO control_results (
				run_id, control_id, category, control_index, description, result,
				scored, fail_reason, offender_count, offenders
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, runID, r.ControlID, r.Category, r.Index, r.Description, r.Result,
			r.Scored, r.FailReason, len(r.Offenders), string(offenders))
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *service) saveRunMetricsTx(ctx context.Context, tx *sql.Tx, runID int64, records []ControlRecord, counts runCounts) error {
	type metric struct {
		name     string
		val      float64
		unit     string
		category string
	}
	metrics := []metric{
		{"total_controls", float64(counts.total), "count", "Overall"},
		{"failed_controls", float64(counts.failed), "count", "Overall"},
		{"manual_controls", float64(counts.manual), "count", "Overall"},
		{"compliance_score", counts.score(), "percent", "Overall"},
	}
	failedByCategory := map[int]int{}
	var categories []int
	for _, r := range records {
		if _, ok := failedByCategory[r.Category]; !ok {
			categories = append(categories, r.Category)
			failedByCategory[r.Category] = 0
		}
		if r.Result == resultFail {
			failedByCategory[r.Category]++
		}
	}
	for _, cat := range categories {
		metrics = append(metrics, metric{"failed_controls", float64(failedByCategory[cat]), "count", strconv.Itoa(cat)})
	}

	for _, m := range metrics {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO metrics(run_id, metric_name, metric_value, metric_unit, category)
			VALUES (?, ?, ?, ?, ?)
		`, runID, m.name, m.val, m.unit, m.category)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetTrends returns one point per account and day, built from the worst run of that day.
func (s *service) GetTrends(accountID string, days int) ([]TrendPoint, error) {
	if days <= 0 {
		days = 30
	}
	query := `
		SELECT
			account_id,
			DATE(run_timestamp) as day,
			COUNT(*),
			MAX(total_controls),
			MIN(passed_count),
			MAX(failed_count),
			MAX(manual_count),
			MIN(score)
		FROM runs
		WHERE run_timestamp >= DATETIME('now', ?)
	`
	args := []any{fmt.Sprintf("-%d day", days)}
	if accountID != "" {
		query += " AND account_id=?"
		args = append(args, accountID)
	}
	query += " GROUP BY account_id, DATE(run_timestamp) ORDER BY day ASC, account_id ASC"
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []TrendPoint{}
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.AccountID, &p.Date, &p.Runs, &p.Total, &p.Passed, &p.Failed, &p.Manual, &p.Score); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (s *service) GetRecentRuns(accountID string, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT run_id, run_uuid, account_id, region, mode, run_timestamp,
			total_controls, passed_count, failed_count, manual_count, score,
			COALESCE(annotation, ''), COALESCE(report_url, ''), COALESCE(cli_version, '')
		FROM runs
	`
	args := []any{}
	if accountID != "" {
		query += " WHERE account_id=?"
		args = append(args, accountID)
	}
	query += " ORDER BY run_timestamp DESC, run_id DESC LIMIT ?"
	args = append(args, limit)
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.RunUUID, &r.AccountID, &r.Region, &r.Mode, &r.RunTimestamp,
			&r.Total, &r.Passed, &r.Failed, &r.Manual, &r.Score,
			&r.Annotation, &r.ReportURL, &r.Version); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *service) CompareRuns(runID1, runID2 int64) (*RunComparison, error) {
	first, err := s.failingControls(runID1)
	if err != nil {
		return nil, err
	}
	second, err := s.failingControls(runID2)
	if err != nil {
		return nil, err
	}

	firstSet := map[string]bool{}
	for _, id := range first {
		firstSet[id] = true
	}
	secondSet := map[string]bool{}
	for _, id := range second {
		secondSet[id] = true
	}

	cmp := &RunComparison{RunID1: runID1, RunID2: runID2}
	for _, id := range second {
		if firstSet[id] {
			cmp.StillFailing = append(cmp.StillFailing, id)
		} else {
			cmp.NewlyFailing = append(cmp.NewlyFailing, id)
		}
	}
	for _, id := range first {
		if !secondSet[id] {
			cmp.Resolved = append(cmp.Resolved, id)
		}
	}
	return cmp, nil
}

// failingControls returns the failing control ids of a run in control order.
func (s *service) failingControls(runID int64) ([]string, error) {
	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs WHERE run_id=?`, runID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("run %d not found", runID)
	}

	rows, err := s.db.Query(`
		SELECT control_id FROM control_results
		WHERE run_id=? AND result=?
		ORDER BY category ASC, control_index ASC
	`, runID, resultFail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *service) GetControlHistory(accountID, controlID string) ([]ControlHistoryEvent, error) {
	query := `
		SELECT cr.run_id, r.run_timestamp, cr.result, COALESCE(cr.fail_reason, ''), cr.offender_count
		FROM control_results cr
		JOIN runs r ON r.run_id = cr.run_id
		WHERE cr.control_id=?
	`
	args := []any{controlID}
	if accountID != "" {
		query += " AND r.account_id=?"
		args = append(args, accountID)
	}
	query += " ORDER BY r.run_timestamp ASC, r.run_id ASC"
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ControlHistoryEvent{}
	for rows.Next() {
		var e ControlHistoryEvent
		if err := rows.Scan(&e.RunID, &e.RunTimestamp, &e.Result, &e.FailReason, &e.Offenders); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *service) ListControlResults(runID int64) ([]ControlSnapshot, error) {
	rows, err := s.db.Query(`
		SELECT control_id, description, result, scored, COALESCE(fail_reason, ''), COALESCE(offenders, '')
		FROM control_results WHERE run_id=? ORDER BY category ASC, control_index ASC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ControlSnapshot{}
	for rows.Next() {
		var c ControlSnapshot
		var offenders string
		if err := rows.Scan(&c.ControlID, &c.Description, &c.Result, &c.Scored, &c.FailReason, &offenders); err != nil {
			return nil, err
		}
		if offenders != "" && offenders != "null" {
			if err := json.Unmarshal([]byte(offenders), &c.Offenders); err != nil {
				return nil, fmt.Errorf("failed to decode offenders of %s: %w", c.ControlID, err)
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *service) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

func (s *service) Reindex(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "REINDEX")
	return err
}

func (s *service) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, errors.New("days must be > 0")
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM runs WHERE run_timestamp < DATETIME('now', ?)
	`, fmt.Sprintf("-%d day", days))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *service) Close() error {
	return s.db.Close()
}
