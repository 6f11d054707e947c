package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wxjp/jma-warnings-etl/internal/domain"
)

func parseRows(t *testing.T, data []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(data, utf8BOM), "CSV output must start with a UTF-8 BOM")
	rows, err := csv.NewReader(strings.NewReader(string(data[len(utf8BOM):]))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRecordsCSV(t *testing.T) {
	records := []domain.WarningRecord{
		{
			EntryID:    "urn:uuid:entry-1",
			ReportedAt: "2026-03-10T11:30:00+09:00",
			Title:      domain.TargetCategory,
			Author:     "気象庁",
			Kind:       "大雨警報",
			Area:       "東京都",
			Detail:     "大雨に警戒してください。",
		},
		{
			EntryID:    "urn:uuid:entry-2",
			ReportedAt: "2026-03-10T10:00:00Z",
			Title:      domain.TargetCategory,
			Author:     "気象庁",
			Kind:       "取得エラー",
			Area:       "取得エラー",
			Detail:     "detail fetch: unexpected status 404",
		},
	}

	data, err := RecordsCSV(records)
	require.NoError(t, err)

	rows := parseRows(t, data)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ReportDateTime", "Title", "Author", "Kind", "Area", "Detail", "EntryID"}, rows[0])
	assert.Equal(t, []string{
		"2026-03-10T11:30:00+09:00", domain.TargetCategory, "気象庁",
		"大雨警報", "東京都", "大雨に警戒してください。", "urn:uuid:entry-1",
	}, rows[1])
	assert.Equal(t, "取得エラー", rows[2][3])
}

func TestRecordsCSVEmpty(t *testing.T) {
	data, err := RecordsCSV(nil)
	require.NoError(t, err)

	rows := parseRows(t, data)
	require.Len(t, rows, 1) // header only
}

func TestEntriesCSV(t *testing.T) {
	entries := []domain.FeedEntry{
		{
			ID:         "urn:uuid:entry-1",
			ReportedAt: "2026-03-10T10:55:00Z",
			Title:      domain.TargetCategory,
			Author:     "気象庁",
			DetailURL:  "https://example.com/detail.xml",
		},
		{
			ID:             "urn:uuid:entry-2",
			ReportedAt:     "2026-03-10T10:50:00Z",
			Title:          "地震情報",
			Author:         domain.NotAvailable,
			DetailURL:      "https://example.com/broken.xml",
			DetailFetchErr: "detail fetch: connection refused",
		},
	}

	data, err := EntriesCSV(entries)
	require.NoError(t, err)

	rows := parseRows(t, data)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"EntryID", "FeedReportDateTime", "FeedTitle", "Author", "LinkedXMLUrl", "LinkedXMLError"}, rows[0])
	assert.Equal(t, "", rows[1][5])
	assert.Equal(t, "detail fetch: connection refused", rows[2][5])
	assert.Equal(t, domain.NotAvailable, rows[2][3])
}
