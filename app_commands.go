package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/thirukguru/aws-cloud-wellness/service/storage"
	"github.com/thirukguru/aws-cloud-wellness/shared/trends"
)

// openStore is a variable to allow mocking in tests.
var openStore = storage.NewService

func runStorageCommand(cmd string, args []string) error {
	switch cmd {
	case "db":
		return runDBCommand(args, os.Stdout)
	case "history":
		return runHistoryCommand(args, os.Stdout)
	case "trends":
		return runTrendsCommand(args, os.Stdout)
	case "dashboard":
		return runDashboardCommand(args)
	default:
		return fmt.Errorf("unsupported command: %s", cmd)
	}
}

func runDBCommand(args []string, w io.Writer) error {
	fs := pflag.NewFlagSet("db", pflag.ContinueOnError)
	dbPath := fs.String("db-path", "", "SQLite database path")
	olderThan := fs.Int("older-than", 90, "Purge runs older than N days")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return fmt.Errorf("usage: aws-cloud-wellness db <vacuum|reindex|purge> [--db-path ...]")
	}

	store, err := openStore(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	switch sub := rest[0]; sub {
	case "vacuum":
		return store.Vacuum(ctx)
	case "reindex":
		return store.Reindex(ctx)
	case "purge":
		count, err := store.PurgeOlderThan(ctx, *olderThan)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Purged %d runs\n", count)
		return nil
	default:
		return fmt.Errorf("unsupported db command: %s", sub)
	}
}

func runHistoryCommand(args []string, w io.Writer) error {
	fs := pflag.NewFlagSet("history", pflag.ContinueOnError)
	dbPath := fs.String("db-path", "", "SQLite database path")
	accountID := fs.String("account-id", "", "AWS account ID filter")
	limit := fs.Int("limit", 20, "Number of runs to list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return fmt.Errorf("usage: aws-cloud-wellness history <list|show|compare|control>")
	}

	store, err := openStore(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	switch sub := rest[0]; sub {
	case "list":
		runs, err := store.GetRecentRuns(*accountID, *limit)
		if err != nil {
			return err
		}
		trends.RenderRecentRuns(w, runs)
		return nil
	case "show":
		if len(rest) < 2 {
			return fmt.Errorf("usage: aws-cloud-wellness history show <run-id>")
		}
		runID, err := strconv.ParseInt(rest[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", rest[1], err)
		}
		rows, err := store.ListControlResults(runID)
		if err != nil {
			return err
		}
		trends.RenderRunControls(w, runID, rows)
		return nil
	case "compare":
		if len(rest) < 3 {
			return fmt.Errorf("usage: aws-cloud-wellness history compare <older-run-id> <newer-run-id>")
		}
		ids := make([]int64, 2)
		for i, raw := range rest[1:3] {
			ids[i], err = strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", raw, err)
			}
		}
		cmp, err := store.CompareRuns(ids[0], ids[1])
		if err != nil {
			return err
		}
		trends.RenderComparisonTable(w, cmp)
		return nil
	case "control":
		if len(rest) < 2 {
			return fmt.Errorf("usage: aws-cloud-wellness history control <control-id> [--account-id ...]")
		}
		events, err := store.GetControlHistory(*accountID, rest[1])
		if err != nil {
			return err
		}
		trends.RenderControlHistory(w, rest[1], events)
		return nil
	default:
		return fmt.Errorf("unsupported history command: %s", sub)
	}
}

type trendOptions struct {
	Days       int
	Compare    bool
	ExportJSON string
	ExportCSV  string
	AccountID  string
}

func runTrendsCommand(args []string, w io.Writer) error {
	fs := pflag.NewFlagSet("trends", pflag.ContinueOnError)
	dbPath := fs.String("db-path", "", "SQLite database path")
	opts := trendOptions{}
	fs.IntVar(&opts.Days, "days", 30, "Number of days to include")
	fs.BoolVar(&opts.Compare, "compare", false, "Compare the two most recent runs")
	fs.StringVar(&opts.ExportJSON, "export-json", "", "Write trend points to a JSON file")
	fs.StringVar(&opts.ExportCSV, "export-csv", "", "Write trend points to a CSV file")
	fs.StringVar(&opts.AccountID, "account-id", "", "AWS account ID filter")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return runTrendWorkflow(store, opts, w)
}

func runTrendWorkflow(store storage.Service, opts trendOptions, w io.Writer) error {
	points, err := store.GetTrends(opts.AccountID, opts.Days)
	if err != nil {
		return err
	}
	trends.RenderTrendTable(w, points)

	if opts.Compare {
		runs, err := store.GetRecentRuns(opts.AccountID, 2)
		if err != nil {
			return err
		}
		if len(runs) >= 2 {
			cmp, err := store.CompareRuns(runs[1].RunID, runs[0].RunID)
			if err != nil {
				return err
			}
			trends.RenderComparisonTable(w, cmp)
		}
	}

	if strings.TrimSpace(opts.ExportJSON) != "" {
		b, err := json.MarshalIndent(points, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.ExportJSON, b, 0o644); err != nil {
			return err
		}
	}
	if strings.TrimSpace(opts.ExportCSV) != "" {
		if err := writeTrendCSV(opts.ExportCSV, points); err != nil {
			return err
		}
	}
	return nil
}

func writeTrendCSV(path string, points []storage.TrendPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	_ = w.Write([]string{"account_id", "date", "runs", "total", "passed", "failed", "manual", "score"})
	for _, p := range points {
		_ = w.Write([]string{
			p.AccountID, p.Date,
			strconv.Itoa(p.Runs), strconv.Itoa(p.Total), strconv.Itoa(p.Passed), strconv.Itoa(p.Failed), strconv.Itoa(p.Manual),
			strconv.FormatFloat(p.Score, 'f', 1, 64),
		})
	}
	w.Flush()
	return w.Error()
}

func runDashboardCommand(args []string) error {
	fs := pflag.NewFlagSet("dashboard", pflag.ContinueOnError)
	dbPath := fs.String("db-path", "", "SQLite database path")
	port := fs.Int("port", 8080, "Dashboard HTTP port")
	accountID := fs.String("account-id", "", "AWS account ID filter")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	addr := fmt.Sprintf(":%d", *port)
	fmt.Printf("Dashboard running on http://localhost%s\n", addr)
	return http.ListenAndServe(addr, dashboardHandler(store, *accountID))
}

func dashboardHandler(store storage.Service, accountID string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(dashboardPage))
	})
	mux.HandleFunc("/api/trends", func(w http.ResponseWriter, _ *http.Request) {
		points, err := store.GetTrends(accountID, 30)
		writeJSON(w, points, err)
	})
	mux.HandleFunc("/api/runs", func(w http.ResponseWriter, _ *http.Request) {
		runs, err := store.GetRecentRuns(accountID, 50)
		writeJSON(w, runs, err)
	})
	mux.HandleFunc("/api/controls", func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("run_id")
		if raw == "" {
			http.Error(w, "run_id is required", http.StatusBadRequest)
			return
		}
		runID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rows, err := store.ListControlResults(runID)
		writeJSON(w, rows, err)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any, err error) {
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

const dashboardPage = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>aws-cloud-wellness dashboard</title>
  <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
  <style>
    body { font-family: Arial, Helvetica, sans-serif; margin: 24px; color: #232F3F; }
    h1 { margin: 0 0 12px; }
    .panel { border: 1px solid #ccc; border-radius: 6px; padding: 16px; margin-bottom: 16px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ccc; padding: 6px; text-align: left; }
    th { background: #eee; }
    .error { color: #b91c1c; }
  </style>
</head>
<body>
  <h1>AWS Cloud Wellness Dashboard</h1>
  <div class="panel"><canvas id="trend" height="80"></canvas></div>
  <div class="panel"><h3>Daily Results</h3><div id="table-wrap">Loading...</div></div>
  <script>
    const wrap = document.getElementById('table-wrap');
    fetch('/api/trends')
      .then(r => { if (!r.ok) throw new Error('HTTP ' + r.status); return r.json(); })
      .then(rows => {
        if (!rows || rows.length === 0) { wrap.innerHTML = '<em>No stored runs.</em>'; return; }
        let html = '<table><thead><tr><th>Account</th><th>Date</th><th>Runs</th><th>Passed</th><th>Failed</th><th>Manual</th><th>Score</th></tr></thead><tbody>';
        for (const r of rows) {
          html += '<tr><td>' + r.account_id + '</td><td>' + r.date + '</td><td>' + r.runs + '</td><td>' +
            r.passed + '</td><td>' + r.failed + '</td><td>' + r.manual + '</td><td>' + r.score.toFixed(1) + '%</td></tr>';
        }
        wrap.innerHTML = html + '</tbody></table>';
        if (typeof Chart !== 'function') return;
        new Chart(document.getElementById('trend'), {
          type: 'line',
          data: {
            labels: rows.map(x => x.account_id + ' ' + x.date),
            datasets: [
              { label: 'Score %', data: rows.map(x => x.score), borderColor: '#ff9900' },
              { label: 'Failed controls', data: rows.map(x => x.failed), borderColor: '#ff6666' }
            ]
          },
          options: { responsive: true, scales: { y: { beginAtZero: true } } }
        });
      })
      .catch(err => { wrap.innerHTML = '<div class="error">Failed to load trend data: ' + err.message + '</div>'; });
  </script>
</body>
</html>`
