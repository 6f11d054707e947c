package jma

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wxjp/jma-warnings-etl/internal/domain"
	"github.com/wxjp/jma-warnings-etl/internal/observability"
)

const listFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>高頻度フィード/気象に関する情報</title>
  <updated>2026-03-10T11:00:00Z</updated>
  <entry>
    <title>気象特別警報・警報・注意報</title>
    <id>urn:uuid:aaaa-1111</id>
    <updated>2026-03-10T10:55:00Z</updated>
    <author><name>気象庁</name></author>
    <link type="application/xml" href="%s/detail/aaaa-1111.xml"/>
  </entry>
  <entry>
    <title>地震情報</title>
    <id>urn:uuid:bbbb-2222</id>
    <updated>2026-03-10T10:50:00Z</updated>
    <link rel="alternate" type="text/html" href="https://example.com/page"/>
  </entry>
</feed>`

func testClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		userAgent:  "jma-warnings-etl/test",
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:    observability.NewMetricsForTesting(),
	}
}

func TestFetchListFeed(t *testing.T) {
	t.Run("parses entries with metadata and detail link", func(t *testing.T) {
		var srv *httptest.Server
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "jma-warnings-etl/test", r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "application/atom+xml")
			w.Write([]byte(replaceHost(listFeedXML, srv.URL)))
		}))
		defer srv.Close()

		res := testClient().FetchListFeed(context.Background(), srv.URL)
		require.Empty(t, res.Err)
		require.Len(t, res.Entries, 2)

		first := res.Entries[0]
		assert.Equal(t, "urn:uuid:aaaa-1111", first.ID)
		assert.Equal(t, "2026-03-10T10:55:00Z", first.ReportedAt)
		assert.Equal(t, domain.TargetCategory, first.Title)
		assert.Equal(t, "気象庁", first.Author)
		assert.Equal(t, srv.URL+"/detail/aaaa-1111.xml", first.DetailURL)
		assert.Empty(t, first.DetailBytes)

		second := res.Entries[1]
		assert.Equal(t, "地震情報", second.Title)
		// First author's name is absent: sentinel, not empty string.
		assert.Equal(t, domain.NotAvailable, second.Author)
		// text/html link does not count as a detail link.
		assert.Empty(t, second.DetailURL)
	})

	t.Run("http error status is recorded, not raised", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		res := testClient().FetchListFeed(context.Background(), srv.URL)
		assert.Contains(t, res.Err, "unexpected status 503")
		assert.Empty(t, res.Entries)
	})

	t.Run("transport failure is recorded, not raised", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close() // refuse connections

		res := testClient().FetchListFeed(context.Background(), srv.URL)
		assert.NotEmpty(t, res.Err)
		assert.Empty(t, res.Entries)
	})

	t.Run("unparseable feed body is recorded", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("this is not atom"))
		}))
		defer srv.Close()

		res := testClient().FetchListFeed(context.Background(), srv.URL)
		assert.NotEmpty(t, res.Err)
		assert.Empty(t, res.Entries)
	})
}

func TestFetchDetail(t *testing.T) {
	t.Run("stores raw bytes on success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("<Report/>"))
		}))
		defer srv.Close()

		in := domain.FeedEntry{ID: "urn:uuid:aaaa-1111", DetailURL: srv.URL + "/detail.xml"}
		out := testClient().FetchDetail(context.Background(), in)

		assert.Equal(t, []byte("<Report/>"), out.DetailBytes)
		assert.Empty(t, out.DetailFetchErr)
		// Input entry stays untouched.
		assert.Empty(t, in.DetailBytes)
	})

	t.Run("records failure text on error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		out := testClient().FetchDetail(context.Background(), domain.FeedEntry{DetailURL: srv.URL})
		assert.Empty(t, out.DetailBytes)
		assert.Contains(t, out.DetailFetchErr, "unexpected status 404")
		assert.True(t, out.DetailFetched())
	})
}

func replaceHost(fixture, host string) string {
	return fmt.Sprintf(fixture, host)
}
