// Package domain models Japan Meteorological Agency (JMA) disaster-information
// reports distributed as 防災情報XML.
//
// # Data Source
//
// Reports arrive through the JMA long-term Atom feed
// (https://www.data.jma.go.jp/developer/xml/feed/extra_l.xml). Each feed
// entry carries an id, an <updated> timestamp, a report-category title, an
// author, and usually a link with type="application/xml" pointing at the full
// detail document. The feed mixes many report categories; only entries titled
// 気象特別警報・警報・注意報 carry the warning/advisory payloads parsed here.
//
// # Detail Document Conventions
//
// Detail documents are namespace-heavy XML whose bindings vary between
// document shapes, so all extraction matches local element names at any
// depth:
//
//	ReportDateTime      authoritative report time, overrides the feed timestamp
//	Headline/Text       document-level summary shared by every extracted record
//	Item                one warning/advisory announcement
//	  Kind/Name                       warning kind, e.g. 大雨警報
//	  Areas/Area/Name                 target area, e.g. 東京都
//	  Areas/Area/Prefecture/Name      fallback when the area name nests deeper
//
// Timestamps are ISO-8601 with either an explicit offset or a literal "Z"
// suffix. Absent or empty fields become the "N/A" sentinel so downstream
// formatting stays total.
//
// # Failure Conventions
//
// Failures are data, not errors: a detail document that cannot be fetched,
// decoded, or parsed yields exactly one synthetic fragment whose kind and
// area carry a sentinel label (解析エラー, 取得エラー, …) instead of raising.
// The retention-window filter fails open at fetch time (unknown age is kept)
// and closed at parse time (determinate stale entries are dropped); the
// asymmetry decides which placeholder rows become visible.
package domain
