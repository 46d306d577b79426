// Package report renders validation findings as a CSV table, one row per
// finding.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ifc-community/ifcxml-checker/internal/validator"
)

// Header is the fixed column order of the report.
var Header = []string{
	"line",
	"id",
	"error_type",
	"error_message",
	"rule_name",
	"entity_type",
	"attribute_type",
	"link",
	"document_reference",
}

// Write renders the findings as CSV, header row first.
func Write(w io.Writer, findings []validator.Finding) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, f := range findings {
		if err := cw.Write(row(f)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save writes the report to the given path when findings exist. The
// return value reports whether a file was written.
func Save(path string, findings []validator.Finding) (bool, error) {
	if len(findings) == 0 {
		return false, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	if err := Write(f, findings); err != nil {
		return false, fmt.Errorf("failed to write report: %v", err)
	}
	return true, nil
}

func row(f validator.Finding) []string {
	return []string{
		lineField(f),
		f.ID,
		f.Kind,
		f.Message,
		f.RuleName,
		f.EntityType,
		f.AttributeType,
		f.Link,
		f.DocReference,
	}
}

// lineField renders the source line, or the bracketed line list for
// findings spanning several elements.
func lineField(f validator.Finding) string {
	if len(f.Lines) == 0 {
		return strconv.Itoa(f.Line)
	}
	parts := make([]string, len(f.Lines))
	for i, line := range f.Lines {
		parts[i] = strconv.Itoa(line)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
