// Package export renders pipeline output for external consumers: CSV
// downloads (UTF-8 with BOM for spreadsheet compatibility) and the
// date/title/author/kind pivot summary.
package export

import (
	"bytes"
	"encoding/csv"

	"github.com/wxjp/jma-warnings-etl/internal/domain"
)

// utf8BOM prefixes CSV output so Excel detects UTF-8; without it Japanese
// text renders as mojibake in default spreadsheet imports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RecordsCSV serializes warning records, column order matching the raw
// warnings download of the reference tool.
func RecordsCSV(records []domain.WarningRecord) ([]byte, error) {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, []string{"ReportDateTime", "Title", "Author", "Kind", "Area", "Detail", "EntryID"})
	for _, r := range records {
		rows = append(rows, []string{r.ReportedAt, r.Title, r.Author, r.Kind, r.Area, r.Detail, r.EntryID})
	}
	return writeCSV(rows)
}

// EntriesCSV serializes the feed audit view. Detail payloads are already
// stripped by the pipeline; only metadata and any recorded fetch error
// appear.
func EntriesCSV(entries []domain.FeedEntry) ([]byte, error) {
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, []string{"EntryID", "FeedReportDateTime", "FeedTitle", "Author", "LinkedXMLUrl", "LinkedXMLError"})
	for _, e := range entries {
		rows = append(rows, []string{e.ID, e.ReportedAt, e.Title, e.Author, e.DetailURL, e.DetailFetchErr})
	}
	return writeCSV(rows)
}

func writeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
