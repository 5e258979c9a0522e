// Package htmloutput renders the browsable HTML report of a run.
package htmloutput

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/thirukguru/aws-cloud-wellness/model"
)

// ReportData contains all data needed for HTML report generation
type ReportData struct {
	AccountID string
	// GeneratedAt defaults to the current time.
	GeneratedAt string
	// Annotation is the failed-control summary shown in the header.
	Annotation string
	Groups     []model.CategoryGroup
}

type sectionView struct {
	Label    string
	Count    int
	Controls []controlView
}

type controlView struct {
	ID          string
	Description string
	Result      model.Result
	Failed      bool
	FailReason  string
	Offenders   []offenderView
	Scored      bool
}

type offenderView struct {
	Name string
	Link string
}

type pageView struct {
	AccountID   string
	GeneratedAt string
	Annotation  string
	Sections    []sectionView
}

// now is replaced in tests.
var now = time.Now

var reportTemplate = template.Must(template.New("report").Parse(htmlTemplate))

// GenerateHTMLReport generates a complete HTML report from the provided data
func GenerateHTMLReport(data ReportData) (string, error) {
	page := pageView{
		AccountID:   data.AccountID,
		GeneratedAt: data.GeneratedAt,
		Annotation:  data.Annotation,
	}
	if page.GeneratedAt == "" {
		page.GeneratedAt = now().UTC().Format(time.ANSIC)
	}
	for _, g := range data.Groups {
		page.Sections = append(page.Sections, newSection(g))
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, page); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

func newSection(g model.CategoryGroup) sectionView {
	s := sectionView{Label: g.Category.Label(), Count: len(g.Results)}
	for _, r := range g.Results {
		c := controlView{
			ID:          r.ControlID(),
			Description: r.Description,
			Result:      r.Result,
			Failed:      r.Result == model.ResultFail,
			Scored:      r.Scored,
		}
		if c.Failed {
			c.FailReason = r.FailReason
			c.Offenders = offenders(r)
		}
		s.Controls = append(s.Controls, c)
	}
	return s
}

// offenders pairs each offender with the link at the same position, if any.
func offenders(r model.ControlResult) []offenderView {
	out := make([]offenderView, len(r.Offenders))
	for i, o := range r.Offenders {
		out[i].Name = o
		if i < len(r.OffenderLinks) {
			out[i].Link = r.OffenderLinks[i]
		}
	}
	return out
}
