// Package output provides a service for rendering run results to the console.
package output

import (
	"io"
	"os"
)

// NewService creates a new output service writing to stdout.
func NewService(jsonOnly bool) Service {
	return NewServiceWithWriter(os.Stdout, jsonOnly)
}

// NewServiceWithWriter creates an output service writing to w.
func NewServiceWithWriter(w io.Writer, jsonOnly bool) Service {
	f := FormatTable
	if jsonOnly {
		f = FormatJSON
	}
	return &service{
		format:   f,
		renderer: &realRenderer{w: w},
	}
}

func (s *service) RenderRun(out RunOutput) error {
	s.renderer.StopSpinner()

	if s.format == FormatJSON || out.PrintDocument {
		if err := s.renderer.OutputDocument(out.Document); err != nil {
			return err
		}
	}
	if s.format == FormatJSON {
		return nil
	}

	s.renderer.DrawSummaryTable(out)
	s.renderer.DrawFailureTable(out.Groups)
	s.renderer.OutputLine("%s", out.Annotation.String())
	if out.HTMLFile != "" {
		s.renderer.OutputLine("HTML report written to %s", out.HTMLFile)
	}
	return nil
}

func (s *service) RenderReportURL(url string) {
	if s.format == FormatJSON || url == "" {
		return
	}
	s.renderer.OutputLine("Report URL: %s", url)
}

func (s *service) StopSpinner() {
	s.renderer.StopSpinner()
}
