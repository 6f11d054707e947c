package export

import (
	"sort"

	"github.com/wxjp/jma-warnings-etl/internal/domain"
)

// SummaryRow is one pivot cell: for a (report date, title, author, kind)
// group, the distinct areas the kind was announced for.
type SummaryRow struct {
	ReportDate string   `json:"report_date"` // YYYY-MM-DD
	Title      string   `json:"title"`
	Author     string   `json:"author"`
	Kind       string   `json:"kind"`
	Areas      []string `json:"areas"`
	Count      int      `json:"count"` // records in the group, duplicates included
}

type summaryKey struct {
	date, title, author, kind string
}

// Summarize groups records by report date, title, author, and kind,
// collecting the unique area list per group. Records whose reported-at
// timestamp cannot be parsed carry no usable date key and are skipped, same
// as the reference pivot dropping rows with uncoercible datetimes. Output is
// ordered by date, then title, author, kind.
func Summarize(records []domain.WarningRecord) []SummaryRow {
	groups := make(map[summaryKey]*SummaryRow)
	for _, r := range records {
		t, ok := domain.ParseReportTime(r.ReportedAt)
		if !ok {
			continue
		}
		key := summaryKey{
			date:   t.UTC().Format("2006-01-02"),
			title:  r.Title,
			author: r.Author,
			kind:   r.Kind,
		}
		row, exists := groups[key]
		if !exists {
			row = &SummaryRow{ReportDate: key.date, Title: r.Title, Author: r.Author, Kind: r.Kind}
			groups[key] = row
		}
		row.Count++
		if !containsString(row.Areas, r.Area) {
			row.Areas = append(row.Areas, r.Area)
		}
	}

	rows := make([]SummaryRow, 0, len(groups))
	for _, row := range groups {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.ReportDate != b.ReportDate {
			return a.ReportDate < b.ReportDate
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		if a.Author != b.Author {
			return a.Author < b.Author
		}
		return a.Kind < b.Kind
	})
	return rows
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
