package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/thirukguru/aws-cloud-wellness/model"
)

const maxReasonWidth = 60

func (r *realRenderer) DrawSummaryTable(out RunOutput) {
	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetTitle(fmt.Sprintf("Account %s", out.AccountID))
	t.AppendHeader(table.Row{"Category", "Controls", "Pass", "Fail", "Manual"})
	for _, g := range out.Groups {
		var pass, fail, manual int
		for _, res := range g.Results {
			switch res.Result {
			case model.ResultPass:
				pass++
			case model.ResultFail:
				fail++
			case model.ResultManual:
				manual++
			}
		}
		t.AppendRow(table.Row{g.Category.Label(), len(g.Results), pass, colorCount(fail, text.FgRed), manual})
	}
	s := out.Summary
	t.AppendFooter(table.Row{"Total", s.Total, s.Passed, s.Failed, s.Manual})
	t.AppendFooter(table.Row{"Score", fmt.Sprintf("%.1f%%", s.Score()), "", "", ""})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func (r *realRenderer) DrawFailureTable(groups []model.CategoryGroup) {
	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetTitle("Failed Controls")
	t.AppendHeader(table.Row{"ID", "Scored", "Reason", "Offenders"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: maxReasonWidth},
	})
	rows := 0
	for _, g := range groups {
		for _, res := range g.Results {
			if res.Result != model.ResultFail {
				continue
			}
			t.AppendRow(table.Row{res.ControlID(), res.Scored, res.FailReason, len(res.Offenders)})
			rows++
		}
	}
	if rows == 0 {
		return
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func (r *realRenderer) OutputDocument(document []byte) error {
	if _, err := r.w.Write(document); err != nil {
		return fmt.Errorf("failed to write result document: %w", err)
	}
	if len(document) > 0 && !strings.HasSuffix(string(document), "\n") {
		_, err := fmt.Fprintln(r.w)
		return err
	}
	return nil
}

func (r *realRenderer) OutputLine(format string, args ...any) {
	fmt.Fprintf(r.w, format+"\n", args...)
}

func colorCount(n int, color text.Color) string {
	if n == 0 {
		return "0"
	}
	return color.Sprint(n)
}
