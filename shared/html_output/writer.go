package htmloutput

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteHTMLReport renders data and writes it to outputPath, creating the
// parent directory when needed.
func WriteHTMLReport(outputPath string, data ReportData) error {
	html, err := GenerateHTMLReport(data)
	if err != nil {
		return fmt.Errorf("failed to generate HTML report: %w", err)
	}
	return WriteHTMLString(outputPath, html)
}

// WriteHTMLString writes a pre-generated HTML string to a file
func WriteHTMLString(outputPath string, html string) error {
	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, []byte(html), 0644); err != nil {
		return fmt.Errorf("failed to write HTML file: %w", err)
	}
	return nil
}
