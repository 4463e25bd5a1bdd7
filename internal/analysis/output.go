package analysis

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Output formats accepted by WriteReport.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
)

// WriteReport writes the batch results to w in the given format.
func WriteReport(w io.Writer, report *BatchReport, format string) error {
	switch strings.ToLower(format) {
	case FormatTable, "":
		return writeTable(w, report)
	case FormatCSV:
		return writeCSV(w, report)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func writeTable(w io.Writer, report *BatchReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "File\tSpecies\tConfidence\tError"); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range report.Results {
		r := &report.Results[i]
		var line string
		if r.OK() {
			line = fmt.Sprintf("%s\t%s\t%s\t\n", r.File, r.Label, r.ConfidenceText())
		} else {
			line = fmt.Sprintf("%s\t-\t-\t%s\n", r.File, r.Message())
		}
		if _, err := io.WriteString(tw, line); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	return tw.Flush()
}

func writeCSV(w io.Writer, report *BatchReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"file", "species", "confidence", "error_kind", "error"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range report.Results {
		r := &report.Results[i]
		conf := ""
		if r.Confidence != nil {
			conf = fmt.Sprintf("%.4f", *r.Confidence)
		}
		if err := cw.Write([]string{r.File, r.Label, conf, string(r.ErrorKind), r.Error}); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
