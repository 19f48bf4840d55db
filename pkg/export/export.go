// Package export writes disaggregation reports in portable formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kilianp07/amice/core/disagg"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Write encodes the report in the given format.
func Write(w io.Writer, format string, rep disagg.Report) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		return WriteJSON(w, rep)
	case FormatCSV:
		return WriteCSV(w, rep)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteJSON writes the report together with its summary.
func WriteJSON(w io.Writer, rep disagg.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		disagg.Report
		Summary disagg.Summary `json:"summary"`
	}{rep, rep.Summary()})
}

// WriteCSV writes one row per committed match.
func WriteCSV(w io.Writer, rep disagg.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"run_id", "appliance", "anchor", "absolute_anchor", "feature_error", "time_error", "score", "consumed"}); err != nil {
		return err
	}
	for _, r := range rep.Results {
		rec := []string{
			rep.RunID,
			r.Appliance,
			formatFloat(r.Anchor),
			formatFloat(r.AbsoluteAnchor),
			formatFloat(r.FeatureErr),
			formatFloat(r.TimeErr),
			formatFloat(r.Score()),
			strconv.Itoa(r.Consumed()),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
