package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detailXML = `<?xml version="1.0" encoding="UTF-8"?>
<Report xmlns="http://xml.kishou.go.jp/jmaxml1/">
  <Control>
    <Title>気象警報・注意報</Title>
  </Control>
  <Head xmlns="http://xml.kishou.go.jp/jmaxml1/informationBasis1/">
    <ReportDateTime>2026-03-10T11:30:00+09:00</ReportDateTime>
    <Headline>
      <Text>大雨に警戒してください。</Text>
    </Headline>
  </Head>
  <Body xmlns="http://xml.kishou.go.jp/jmaxml1/body/meteorology1/">
    <Warning>
      <Item>
        <Kind>
          <Name>大雨警報</Name>
        </Kind>
        <Areas>
          <Area>
            <Name>東京都</Name>
          </Area>
        </Areas>
      </Item>
      <Item>
        <Kind>
          <Name>洪水注意報</Name>
        </Kind>
        <Areas>
          <Area>
            <Name>神奈川県</Name>
          </Area>
        </Areas>
      </Item>
    </Warning>
  </Body>
</Report>`

func targetEntry(bytes []byte) FeedEntry {
	return FeedEntry{
		ID:          "urn:uuid:entry-1",
		ReportedAt:  "2026-03-10T11:00:00Z",
		Title:       TargetCategory,
		Author:      "気象庁",
		DetailURL:   "https://example.com/detail.xml",
		DetailBytes: bytes,
	}
}

func TestParseEntries(t *testing.T) {
	freezeClock(t)

	t.Run("items with kind and area", func(t *testing.T) {
		parsed := ParseEntries([]FeedEntry{targetEntry([]byte(detailXML))}, 48)
		require.Len(t, parsed, 1)

		p := parsed[0]
		// Document-level ReportDateTime replaces the feed timestamp.
		assert.Equal(t, "2026-03-10T11:30:00+09:00", p.ReportedAt)

		require.Len(t, p.Fragments, 2)
		assert.Equal(t, StatusOK, p.Fragments[0].Status)
		assert.Equal(t, "大雨警報", p.Fragments[0].Kind)
		assert.Equal(t, "東京都", p.Fragments[0].Area)
		assert.Equal(t, "洪水注意報", p.Fragments[1].Kind)
		assert.Equal(t, "神奈川県", p.Fragments[1].Area)
		// Headline text is document-level and shared by every fragment.
		for _, f := range p.Fragments {
			assert.Equal(t, "大雨に警戒してください。", f.Detail)
		}
	})

	t.Run("non-target title yields nothing regardless of content", func(t *testing.T) {
		e := targetEntry([]byte(detailXML))
		e.Title = "地震情報"
		assert.Empty(t, ParseEntries([]FeedEntry{e}, 48))
	})

	t.Run("determinate stale timestamp is excluded", func(t *testing.T) {
		e := targetEntry([]byte(detailXML))
		e.ReportedAt = "2026-03-01T00:00:00Z"
		assert.Empty(t, ParseEntries([]FeedEntry{e}, 48))
	})

	t.Run("unparseable timestamp is never excluded here", func(t *testing.T) {
		e := targetEntry([]byte(detailXML))
		e.ReportedAt = "not-a-timestamp"
		parsed := ParseEntries([]FeedEntry{e}, 48)
		require.Len(t, parsed, 1)
		// No document override would leave the raw text in place; here the
		// document carries its own ReportDateTime.
		assert.Equal(t, "2026-03-10T11:30:00+09:00", parsed[0].ReportedAt)
	})

	t.Run("prefecture name fallback", func(t *testing.T) {
		xml := `<Report>
  <Body>
    <Warning>
      <Item>
        <Kind><Name>暴風警報</Name></Kind>
        <Areas>
          <Area>
            <Prefecture><Name>沖縄県</Name></Prefecture>
          </Area>
        </Areas>
      </Item>
    </Warning>
  </Body>
</Report>`
		parsed := ParseEntries([]FeedEntry{targetEntry([]byte(xml))}, 48)
		require.Len(t, parsed, 1)
		require.Len(t, parsed[0].Fragments, 1)
		assert.Equal(t, "沖縄県", parsed[0].Fragments[0].Area)
	})

	t.Run("item with neither kind nor area is dropped", func(t *testing.T) {
		xml := `<Report>
  <Body>
    <Item><SomethingElse/></Item>
    <Item>
      <Kind><Name>高潮注意報</Name></Kind>
    </Item>
  </Body>
</Report>`
		parsed := ParseEntries([]FeedEntry{targetEntry([]byte(xml))}, 48)
		require.Len(t, parsed, 1)
		require.Len(t, parsed[0].Fragments, 1)
		assert.Equal(t, "高潮注意報", parsed[0].Fragments[0].Kind)
		assert.Equal(t, NotAvailable, parsed[0].Fragments[0].Area)
	})

	t.Run("missing headline becomes N/A", func(t *testing.T) {
		xml := `<Report>
  <Body>
    <Item>
      <Kind><Name>濃霧注意報</Name></Kind>
      <Areas><Area><Name>千葉県</Name></Area></Areas>
    </Item>
  </Body>
</Report>`
		parsed := ParseEntries([]FeedEntry{targetEntry([]byte(xml))}, 48)
		require.Len(t, parsed, 1)
		assert.Equal(t, NotAvailable, parsed[0].Fragments[0].Detail)
	})

	t.Run("namespace prefixes are ignored", func(t *testing.T) {
		xml := `<jmx:Report xmlns:jmx="http://xml.kishou.go.jp/jmaxml1/" xmlns:ib="http://xml.kishou.go.jp/jmaxml1/informationBasis1/">
  <ib:Head>
    <ib:Headline><ib:Text>暴風雪に警戒。</ib:Text></ib:Headline>
  </ib:Head>
  <jmx:Body>
    <jmx:Item>
      <jmx:Kind><jmx:Name>暴風雪警報</jmx:Name></jmx:Kind>
      <jmx:Areas><jmx:Area><jmx:Name>北海道</jmx:Name></jmx:Area></jmx:Areas>
    </jmx:Item>
  </jmx:Body>
</jmx:Report>`
		parsed := ParseEntries([]FeedEntry{targetEntry([]byte(xml))}, 48)
		require.Len(t, parsed, 1)
		require.Len(t, parsed[0].Fragments, 1)
		assert.Equal(t, "暴風雪警報", parsed[0].Fragments[0].Kind)
		assert.Equal(t, "北海道", parsed[0].Fragments[0].Area)
		assert.Equal(t, "暴風雪に警戒。", parsed[0].Fragments[0].Detail)
	})

	t.Run("malformed document yields one parse-error fragment", func(t *testing.T) {
		parsed := ParseEntries([]FeedEntry{targetEntry([]byte("<Report><Body></Report>"))}, 48)
		require.Len(t, parsed, 1)
		require.Len(t, parsed[0].Fragments, 1)

		f := parsed[0].Fragments[0]
		assert.Equal(t, StatusParseError, f.Status)
		assert.Equal(t, "解析エラー", f.Kind)
		assert.Equal(t, "解析エラー", f.Area)
		assert.Equal(t, "XML解析エラー", f.Detail)
	})

	t.Run("whitespace-only document counts as parse error", func(t *testing.T) {
		parsed := ParseEntries([]FeedEntry{targetEntry([]byte("   \n"))}, 48)
		require.Len(t, parsed, 1)
		require.Len(t, parsed[0].Fragments, 1)
		assert.Equal(t, StatusParseError, parsed[0].Fragments[0].Status)
	})

	t.Run("invalid UTF-8 is decoded lossily, not failed", func(t *testing.T) {
		xml := []byte(`<Report><Body><Item><Kind><Name>大雪警報</Name></Kind><Areas><Area><Name>新潟県</Name></Area></Areas></Item></Body></Report>`)
		xml = append(xml, 0xFF, 0xFE)
		parsed := ParseEntries([]FeedEntry{targetEntry(xml)}, 48)
		// Trailing garbage after the root element is an XML syntax problem,
		// not a decode failure; either way no error escapes.
		require.Len(t, parsed, 1)
		require.NotEmpty(t, parsed[0].Fragments)
	})

	t.Run("recorded fetch error surfaces as one fragment", func(t *testing.T) {
		e := targetEntry(nil)
		e.DetailFetchErr = "detail fetch: context deadline exceeded"
		parsed := ParseEntries([]FeedEntry{e}, 48)
		require.Len(t, parsed, 1)
		require.Len(t, parsed[0].Fragments, 1)

		f := parsed[0].Fragments[0]
		assert.Equal(t, StatusFetchError, f.Status)
		assert.Equal(t, "取得エラー", f.Kind)
		assert.Equal(t, "取得エラー", f.Area)
		assert.Equal(t, "detail fetch: context deadline exceeded", f.Detail)
	})

	t.Run("never-fetched entry produces no visible row", func(t *testing.T) {
		// Detail was never fetched (no bytes, no recorded error): the
		// "no data" placeholder is computed but discarded at the top level.
		e := targetEntry(nil)
		assert.Empty(t, ParseEntries([]FeedEntry{e}, 48))
	})

	t.Run("feed order is preserved", func(t *testing.T) {
		var entries []FeedEntry
		for i := 0; i < 3; i++ {
			e := targetEntry([]byte(detailXML))
			e.ID = fmt.Sprintf("urn:uuid:entry-%d", i)
			entries = append(entries, e)
		}
		parsed := ParseEntries(entries, 48)
		require.Len(t, parsed, 3)
		for i, p := range parsed {
			assert.Equal(t, fmt.Sprintf("urn:uuid:entry-%d", i), p.Entry.ID)
		}
	})
}

func TestFlattenRecords(t *testing.T) {
	freezeClock(t)

	parsed := ParseEntries([]FeedEntry{targetEntry([]byte(detailXML))}, 48)
	require.Len(t, parsed, 1)

	records := FlattenRecords(parsed)
	require.Len(t, records, 2)

	r := records[0]
	assert.Equal(t, "urn:uuid:entry-1", r.EntryID)
	assert.Equal(t, "2026-03-10T11:30:00+09:00", r.ReportedAt)
	assert.Equal(t, TargetCategory, r.Title)
	assert.Equal(t, "気象庁", r.Author)
	assert.Equal(t, "大雨警報", r.Kind)
	assert.Equal(t, "東京都", r.Area)
	assert.Equal(t, "大雨に警戒してください。", r.Detail)
}

func TestFlattenRecordsEmpty(t *testing.T) {
	assert.Empty(t, FlattenRecords(nil))
}
