package domain

import (
	"encoding/xml"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
)

// ParseEntries extracts warning fragments from the detail documents of a
// fetch cycle's entries.
//
// Only entries titled exactly TargetCategory are considered; everything else
// is skipped silently. The retention window is re-checked here with the same
// threshold as the fetch stage, but in the opposite direction: an entry is
// excluded only when its feed timestamp parses and is stale. Unparseable
// timestamps never cause exclusion at this stage.
//
// An entry contributes to the output only when it produced at least one
// fragment (real or synthetic) and a detail fetch was actually attempted for
// it. Entries that were never detail-fetched (outside the window, or no
// application/xml link) have their "no data" placeholder computed and then
// discarded, so they produce no visible row at all. An entry whose fetch was
// attempted but failed does surface, as a single fetch-error fragment.
func ParseEntries(entries []FeedEntry, thresholdHours int) []ParsedEntry {
	start := windowStart(thresholdHours)

	var parsed []ParsedEntry
	for _, e := range entries {
		if e.Title != TargetCategory {
			continue
		}
		if t, ok := ParseReportTime(e.ReportedAt); ok && t.Before(start) {
			continue
		}

		reportedAt, fragments := parseDetail(e)
		if len(fragments) == 0 || !e.DetailFetched() {
			continue
		}
		parsed = append(parsed, ParsedEntry{
			Entry:      e,
			ReportedAt: reportedAt,
			Fragments:  fragments,
		})
	}
	return parsed
}

// parseDetail extracts fragments from one entry's detail document. The
// returned reportedAt is the document's own ReportDateTime when present,
// otherwise the feed-level timestamp. When the document yields no usable
// items, exactly one synthetic fragment explains why.
func parseDetail(e FeedEntry) (string, []Fragment) {
	reportedAt := e.ReportedAt

	if len(e.DetailBytes) == 0 {
		switch {
		case e.DetailFetchErr != "":
			return reportedAt, []Fragment{syntheticFragment(StatusFetchError, e.DetailFetchErr)}
		case !e.DetailFetched():
			return reportedAt, []Fragment{syntheticFragment(StatusNoData, "時間外または取得対象外")}
		default:
			return reportedAt, []Fragment{syntheticFragment(StatusFetchFailed, "リンクXMLがありません")}
		}
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(decodeDetail(e.DetailBytes)); err != nil {
		var syntaxErr *xml.SyntaxError
		if errors.As(err, &syntaxErr) {
			return reportedAt, []Fragment{syntheticFragment(StatusParseError, "XML解析エラー")}
		}
		return reportedAt, []Fragment{syntheticFragment(StatusUnknownError, "不明なエラー")}
	}
	root := doc.Root()
	if root == nil {
		// ElementTree raises ParseError ("no element found") for an empty
		// document; keep the same classification.
		return reportedAt, []Fragment{syntheticFragment(StatusParseError, "XML解析エラー")}
	}

	if rt := elementText(findDescendant(root, "ReportDateTime")); rt != "" {
		reportedAt = rt
	}

	headline := NotAvailable
	if hl := findDescendant(root, "Headline", "Text"); hl != nil {
		if text := elementText(hl); text != "" {
			headline = text
		}
	}

	var fragments []Fragment
	for _, item := range findDescendants(root, "Item") {
		kind := textOrNA(findDescendant(item, "Kind", "Name"))
		areaEl := findDescendant(item, "Areas", "Area", "Name")
		if areaEl == nil {
			// Some document shapes nest the area name one level deeper.
			areaEl = findDescendant(item, "Areas", "Area", "Prefecture", "Name")
		}
		area := textOrNA(areaEl)
		if kind == NotAvailable && area == NotAvailable {
			continue
		}
		fragments = append(fragments, Fragment{Status: StatusOK, Kind: kind, Area: area, Detail: headline})
	}
	return reportedAt, fragments
}

// decodeDetail decodes detail document bytes as UTF-8, replacing invalid
// sequences rather than failing. Parsing must never fail on bad encoding
// alone.
func decodeDetail(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}

// JMA detail documents bind several namespaces and the bindings vary across
// document types, so all element matching below goes by local name only.
// etree keeps the local name in Tag and the prefix in Space, which makes the
// recursive descent independent of namespace binding.

// findDescendant locates the first element, in document order, matching the
// given local-name path: the first name may sit at any depth below root, the
// remaining names must be direct children. Mirrors an ElementTree
// ".//{*}a/{*}b" search. Returns nil when no match exists.
func findDescendant(root *etree.Element, path ...string) *etree.Element {
	if len(path) == 0 {
		return nil
	}
	for _, el := range findDescendants(root, path[0]) {
		if m := matchChildPath(el, path[1:]); m != nil {
			return m
		}
	}
	return nil
}

// findDescendants collects every element below root with the given local
// name, in document order.
func findDescendants(root *etree.Element, local string) []*etree.Element {
	var out []*etree.Element
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, child := range el.ChildElements() {
			if child.Tag == local {
				out = append(out, child)
			}
			walk(child)
		}
	}
	walk(root)
	return out
}

// matchChildPath follows a chain of direct-child local names from el,
// returning the first full match in document order.
func matchChildPath(el *etree.Element, path []string) *etree.Element {
	if len(path) == 0 {
		return el
	}
	for _, child := range el.ChildElements() {
		if child.Tag != path[0] {
			continue
		}
		if m := matchChildPath(child, path[1:]); m != nil {
			return m
		}
	}
	return nil
}

func elementText(el *etree.Element) string {
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

// textOrNA returns an element's trimmed text, or the "N/A" sentinel when the
// element is absent or empty.
func textOrNA(el *etree.Element) string {
	if text := elementText(el); text != "" {
		return text
	}
	return NotAvailable
}
