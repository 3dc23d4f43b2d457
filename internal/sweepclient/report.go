package sweepclient

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/placementcell/eligibility/internal/domain/sweep"
)

// Output formats for PrintManifest.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// PrintManifest writes a manifest to w as a table or as indented JSON.
func PrintManifest(w io.Writer, m sweep.Manifest, format string) error { //nolint:gocritic // hugeParam
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case FormatTable, "":
		return printTable(w, m)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func printTable(w io.Writer, m sweep.Manifest) error { //nolint:gocritic // hugeParam
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "APPLICATION\tOUTCOME\tSTATUS\tERROR")
	for _, it := range m.Items {
		status := string(it.Status)
		if status == "" {
			status = "-"
		}
		errText := it.Error
		if errText == "" {
			errText = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.ApplicationID, it.Outcome, status, errText)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	elapsed := m.FinishedAt.Sub(m.StartedAt)
	_, err := fmt.Fprintf(w, "\n%d updated, %d failed, %d skipped in %s\n", m.Updated, m.Failed, m.Skipped, elapsed)
	return err
}
