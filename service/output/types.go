package output

import (
	"io"

	"github.com/thirukguru/aws-cloud-wellness/model"
	"github.com/thirukguru/aws-cloud-wellness/service/aggregate"
	"github.com/thirukguru/aws-cloud-wellness/shared/spinner"
)

// Format represents the output format type
type Format string

const (
	// FormatTable prints the document followed by summary tables.
	FormatTable Format = "table"
	// FormatJSON prints nothing but the result document.
	FormatJSON Format = "json"
)

// RunOutput is what a completed run shows on the console.
type RunOutput struct {
	AccountID  string
	Groups     []model.CategoryGroup
	Summary    aggregate.Summary
	Annotation aggregate.Annotation
	// Document is printed when PrintDocument is set or the format is JSON.
	Document      []byte
	PrintDocument bool
	HTMLFile      string
}

// Renderer defines the interface for drawing tables
type Renderer interface {
	DrawSummaryTable(out RunOutput)
	DrawFailureTable(groups []model.CategoryGroup)
	OutputDocument(document []byte) error
	OutputLine(format string, args ...any)
	StopSpinner()
}

type realRenderer struct {
	w io.Writer
}

func (r *realRenderer) StopSpinner() {
	spinner.StopSpinner()
}

// service is the internal implementation
type service struct {
	format   Format
	renderer Renderer
}

// Service defines the interface for output operations
type Service interface {
	RenderRun(out RunOutput) error
	// RenderReportURL announces a published report. Silent in JSON format.
	RenderReportURL(url string)
	StopSpinner()
}
