package domain

// NotAvailable is the display sentinel for fields absent in the source feed.
// Keeping absent fields as a non-empty string keeps downstream CSV and JSON
// formatting total: no field ever needs a nil check before display.
const NotAvailable = "N/A"

// TargetCategory is the feed entry title that identifies 気象特別警報・警報・注意報
// (special warnings / warnings / advisories) reports. Entries in the long-term
// feed carry other report categories too (earthquake, volcano, etc.); only
// this one is parsed into warning records.
const TargetCategory = "気象特別警報・警報・注意報"

// FeedEntry is one entry of the JMA Atom list feed. The fetcher fills the
// feed-level metadata; DetailBytes/DetailFetchErr are populated by the detail
// fetch when the entry is within the retention window and declares an
// application/xml link. Entries are value types and never mutated after the
// fetch cycle that created them.
type FeedEntry struct {
	ID         string `json:"entry_id"`
	ReportedAt string `json:"feed_report_datetime"` // raw Atom <updated> text, "N/A" if absent
	Title      string `json:"feed_title"`
	Author     string `json:"author"`
	DetailURL  string `json:"linked_xml_url,omitempty"`

	DetailBytes    []byte `json:"-"`
	DetailFetchErr string `json:"linked_xml_error,omitempty"`
}

// DetailFetched reports whether a detail retrieval was actually attempted for
// this entry, successfully or not. Entries outside the window or without a
// detail link were never fetched and stay false.
func (e FeedEntry) DetailFetched() bool {
	return len(e.DetailBytes) > 0 || e.DetailFetchErr != ""
}

// FetchResult is the outcome of one list-feed retrieval cycle. Err is a
// recorded, local failure: the fetch functions never escalate transport or
// status errors, so a caller can always render a partial or empty state.
type FetchResult struct {
	Entries []FeedEntry
	Err     string
}

// FragmentStatus tags how a fragment came to exist. StatusOK fragments carry
// real extracted data; all other statuses are synthetic placeholders emitted
// when a detail document yielded no usable items. Failures are data, not
// errors, to the downstream consumer.
type FragmentStatus int

const (
	StatusOK FragmentStatus = iota
	StatusParseError
	StatusUnknownError
	StatusFetchError
	StatusNoData
	StatusFetchFailed
)

// Label returns the display string used for the kind and area columns of a
// synthetic fragment. The strings match the upstream tool's output so that
// exported CSVs stay comparable.
func (s FragmentStatus) Label() string {
	switch s {
	case StatusParseError:
		return "解析エラー"
	case StatusUnknownError:
		return "エラー"
	case StatusFetchError:
		return "取得エラー"
	case StatusNoData:
		return "データなし"
	case StatusFetchFailed:
		return "取得失敗"
	default:
		return ""
	}
}

// Fragment is one (kind, area) pairing extracted from a detail document,
// prior to being joined with entry-level metadata. Detail is the document's
// shared headline text for real fragments and an explanation for synthetic
// ones.
type Fragment struct {
	Status FragmentStatus `json:"-"`
	Kind   string         `json:"kind"`
	Area   string         `json:"area"`
	Detail string         `json:"detail"`
}

// syntheticFragment builds the placeholder emitted when a document produced
// no per-item fragments.
func syntheticFragment(status FragmentStatus, detail string) Fragment {
	return Fragment{Status: status, Kind: status.Label(), Area: status.Label(), Detail: detail}
}

// ParsedEntry pairs a feed entry with its extracted fragments. ReportedAt is
// the document-level ReportDateTime when the detail XML carried one, falling
// back to the feed-level timestamp otherwise.
type ParsedEntry struct {
	Entry      FeedEntry
	ReportedAt string
	Fragments  []Fragment
}

// WarningRecord is the atomic unit of output: one fragment joined with its
// parent entry's metadata.
type WarningRecord struct {
	EntryID    string `json:"entry_id"`
	ReportedAt string `json:"report_datetime"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	Kind       string `json:"kind"`
	Area       string `json:"area"`
	Detail     string `json:"detail"`
}

// FlattenRecords expands parsed entries into the flat ordered record sequence
// handed to consumers. Order follows the feed order of entries and the
// document order of fragments within each entry.
func FlattenRecords(parsed []ParsedEntry) []WarningRecord {
	var records []WarningRecord
	for _, p := range parsed {
		for _, f := range p.Fragments {
			records = append(records, WarningRecord{
				EntryID:    p.Entry.ID,
				ReportedAt: p.ReportedAt,
				Title:      p.Entry.Title,
				Author:     p.Entry.Author,
				Kind:       f.Kind,
				Area:       f.Area,
				Detail:     f.Detail,
			})
		}
	}
	return records
}
