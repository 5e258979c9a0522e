// Package trends prints stored run history as console tables.
package trends

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/thirukguru/aws-cloud-wellness/model"
	"github.com/thirukguru/aws-cloud-wellness/service/storage"
)

const timeLayout = "2006-01-02 15:04"

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func score(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// RenderTrendTable prints one row per account and day.
func RenderTrendTable(w io.Writer, points []storage.TrendPoint) {
	if len(points) == 0 {
		fmt.Fprintln(w, "No stored runs in the selected window")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Account", "Date", "Runs", "Total", "Passed", "Failed", "Manual", "Score"})
	for _, p := range points {
		t.AppendRow(table.Row{p.AccountID, p.Date, p.Runs, p.Total, p.Passed, p.Failed, p.Manual, score(p.Score)})
	}
	t.Render()
}

// RenderRecentRuns prints the latest runs, newest first.
func RenderRecentRuns(w io.Writer, runs []storage.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No stored runs")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Run", "Time (UTC)", "Account", "Mode", "Passed", "Failed", "Manual", "Score"})
	for _, r := range runs {
		t.AppendRow(table.Row{r.RunID, r.RunTimestamp.UTC().Format(timeLayout), r.AccountID, r.Mode, r.Passed, r.Failed, r.Manual, score(r.Score)})
	}
	t.Render()
}

// RenderComparisonTable prints the controls whose result changed between two runs.
func RenderComparisonTable(w io.Writer, cmp *storage.RunComparison) {
	if cmp == nil {
		fmt.Fprintln(w, "No comparison data available")
		return
	}
	fmt.Fprintf(w, "\nRun Comparison (%d -> %d)\n", cmp.RunID1, cmp.RunID2)
	t := newTable(w)
	t.AppendHeader(table.Row{"Newly failing", "Resolved", "Still failing"})
	t.AppendRow(table.Row{len(cmp.NewlyFailing), len(cmp.Resolved), len(cmp.StillFailing)})
	t.AppendRow(table.Row{ids(cmp.NewlyFailing), ids(cmp.Resolved), ids(cmp.StillFailing)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: 30},
		{Number: 2, WidthMax: 30},
		{Number: 3, WidthMax: 30},
	})
	t.Render()
}

func ids(list []string) string {
	if len(list) == 0 {
		return "-"
	}
	return strings.Join(list, ", ")
}

// RenderControlHistory prints the result of one control across runs.
func RenderControlHistory(w io.Writer, controlID string, events []storage.ControlHistoryEvent) {
	if len(events) == 0 {
		fmt.Fprintf(w, "No history for control %s\n", controlID)
		return
	}
	fmt.Fprintf(w, "\nControl %s\n", controlID)
	t := newTable(w)
	t.AppendHeader(table.Row{"Run", "Time (UTC)", "Result", "Offenders", "Reason"})
	for _, e := range events {
		t.AppendRow(table.Row{e.RunID, e.RunTimestamp.UTC().Format(timeLayout), colorResult(e.Result), e.Offenders, e.FailReason})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 5, WidthMax: 60}})
	t.Render()
}

// RenderRunControls prints every control result of a stored run.
func RenderRunControls(w io.Writer, runID int64, rows []storage.ControlSnapshot) {
	if len(rows) == 0 {
		fmt.Fprintf(w, "Run %d not found or has no controls\n", runID)
		return
	}
	fmt.Fprintf(w, "\nRun %d\n", runID)
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Result", "Scored", "Description", "Offenders"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.ControlID, colorResult(r.Result), r.Scored, r.Description, len(r.Offenders)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: 60}})
	t.Render()
}

func colorResult(result string) string {
	switch model.Result(result) {
	case model.ResultFail:
		return text.FgRed.Sprint(result)
	case model.ResultPass:
		return text.FgGreen.Sprint(result)
	}
	return result
}
