package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/anatolykoptev/go_hoover/internal/engine/analysis"
	"github.com/anatolykoptev/go_hoover/internal/engine/extract"
)

// CSVHeader is the column list of WriteCSVSummary.
func CSVHeader() []string {
	h := []string{"video_id", "title", "channel", "views", "duration", "urls_count"}
	for _, c := range extract.AllCategories {
		h = append(h, string(c)+"_count")
	}
	return append(h, "used_fallback", "analysis_date")
}

// WriteCSVSummary writes one row per successful item. Failed items are
// skipped; they are reported in the batch report instead.
func WriteCSVSummary(w io.Writer, b analysis.BatchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, it := range b.Items {
		if it.Result == nil {
			continue
		}
		if err := cw.Write(csvRow(it.Result)); err != nil {
			return fmt.Errorf("write csv row %s: %w", it.Input, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(r *analysis.AnalysisResult) []string {
	m := r.Metadata
	row := []string{
		m.VideoID,
		m.Title,
		m.ChannelTitle,
		strconv.FormatInt(m.ViewCount, 10),
		m.Duration,
		strconv.Itoa(len(r.URLs)),
	}
	for _, c := range extract.AllCategories {
		row = append(row, strconv.Itoa(len(r.Entities[c])))
	}
	return append(row, strconv.FormatBool(r.UsedFallbackContent), r.AnalyzedAt.Format(time.RFC3339))
}
