// Package report renders ranked analysis results for people and spreadsheets.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"Buffetology/internal/model"
)

// Formats supported by Render.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
)

var header = []string{"Rank", "Ticker", "Quality", "Value", "Growth", "Overall", "Recommendation"}

// Render writes the first limit results in the given format. A limit of zero or less writes all.
func Render(w io.Writer, results []model.AnalysisResult, format string, limit int) error {
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	switch format {
	case FormatTable, "":
		return renderTable(w, results)
	case FormatCSV:
		return renderCSV(w, results)
	case FormatJSON:
		return renderJSON(w, results)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func score(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func row(rank int, r model.AnalysisResult) []string {
	return []string{
		strconv.Itoa(rank),
		r.Ticker,
		score(r.QualityScore),
		score(r.ValueScore),
		score(r.GrowthScore),
		score(r.OverallScore),
		string(r.Recommendation),
	}
}

func renderTable(w io.Writer, results []model.AnalysisResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for i, r := range results {
		fmt.Fprintln(tw, strings.Join(row(i+1, r), "\t"))
	}
	return tw.Flush()
}

func renderCSV(w io.Writer, results []model.AnalysisResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, r := range results {
		if err := cw.Write(row(i+1, r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonRecord struct {
	Rank int `json:"rank"`
	model.AnalysisResult
}

func renderJSON(w io.Writer, results []model.AnalysisResult) error {
	records := make([]jsonRecord, len(results))
	for i, r := range results {
		records[i] = jsonRecord{Rank: i + 1, AnalysisResult: r}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
