package fetcher_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sat8bit/chorus/fetcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Martinaise Gazette</title>
  <item>
    <title>Older item</title>
    <link>https://example.com/old</link>
    <pubDate>Mon, 01 Jan 2024 10:00:00 +0000</pubDate>
    <description>&lt;p&gt;The harbour is &lt;b&gt;quiet&lt;/b&gt;.&lt;/p&gt;</description>
  </item>
  <item>
    <title> Body found behind the Whirling </title>
    <link>https://example.com/body</link>
    <pubDate>Tue, 02 Jan 2024 10:00:00 +0000</pubDate>
    <description>&lt;p&gt;A man hangs from a tree.&lt;/p&gt;&lt;script&gt;alert(1)&lt;/script&gt;
      &lt;p&gt;Nobody   saw anything.&lt;/p&gt;</description>
  </item>
  <item>
    <title>Empty</title>
    <link>https://example.com/empty</link>
    <description>&lt;p&gt; &lt;/p&gt;</description>
  </item>
</channel>
</rss>`

func serveFeed(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = io.WriteString(w, feedXML)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchConvertsItemsToScenes(t *testing.T) {
	srv := serveFeed(t)

	scenes, err := fetcher.NewRSSFetcher(srv.URL, 0).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, scenes, 2)

	assert.Equal(t, "Body found behind the Whirling", scenes[0].Title)
	assert.Equal(t, "A man hangs from a tree. Nobody saw anything.", scenes[0].Text)
	assert.Equal(t, "https://example.com/body", scenes[0].SourceURL)
	assert.Equal(t, "The harbour is quiet.", scenes[1].Text)
	for _, s := range scenes {
		assert.False(t, strings.Contains(s.Text, "alert"))
	}
}

func TestFetchHonoursLimit(t *testing.T) {
	srv := serveFeed(t)

	scenes, err := fetcher.NewRSSFetcher(srv.URL, 1).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, scenes, 1)
	assert.Equal(t, "https://example.com/body", scenes[0].SourceURL)
}

func TestFetchBadFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "not a feed")
	}))
	defer srv.Close()

	_, err := fetcher.NewRSSFetcher(srv.URL, 0).Fetch(context.Background())
	require.Error(t, err)
}
