package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const channelFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015"
      xmlns:media="http://search.yahoo.com/mrss/"
      xmlns="http://www.w3.org/2005/Atom">
  <title>Tech Channel</title>
  <entry>
    <id>yt:video:abc123</id>
    <yt:videoId>abc123</yt:videoId>
    <title>Complete Kubernetes Tutorial for Beginners</title>
    <author><name>Tech Channel</name></author>
    <published>2025-05-01T10:00:00+00:00</published>
    <media:group>
      <media:content url="https://example.com/v/abc123" duration="1500"/>
      <media:description>Full &lt;b&gt;walkthrough&lt;/b&gt; of cluster setup and networking.</media:description>
      <media:community>
        <media:statistics views="84000"/>
      </media:community>
    </media:group>
  </entry>
  <entry>
    <id>yt:video:def456</id>
    <yt:videoId>def456</yt:videoId>
    <title>Weekly livestream recording</title>
    <author><name>Tech Channel</name></author>
    <published>2025-05-02T10:00:00+00:00</published>
  </entry>
</feed>`

func feedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(body)) //nolint:errcheck // test server
	}))
}

func TestSource_FetchOne(t *testing.T) {
	server := feedServer(t, channelFeed)
	defer server.Close()

	src := NewSource(Config{Timeout: 5 * time.Second, UserAgent: "Vidscope-test/1.0"})
	items, err := src.FetchOne(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, items, 2)

	got := items[0]
	assert.Equal(t, "abc123", got.ID)
	assert.Equal(t, "Complete Kubernetes Tutorial for Beginners", got.Title)
	assert.Equal(t, "Tech Channel", got.Channel)
	assert.Equal(t, "1500", got.Duration)
	assert.EqualValues(t, 84000, got.ViewCount)
	assert.Equal(t, 2025, got.Published.Year())

	// sanitizer strips HTML from the media description
	assert.Contains(t, got.Description, "walkthrough")
	assert.NotContains(t, got.Description, "<b>")

	secs, ok := got.DurationSeconds()
	require.True(t, ok)
	assert.Equal(t, 1500, secs)
}

func TestSource_Fetch_SkipsFailingFeed(t *testing.T) {
	good := feedServer(t, channelFeed)
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer bad.Close()

	src := NewSource(Config{
		Feeds:     []string{good.URL, bad.URL},
		Timeout:   5 * time.Second,
		UserAgent: "Vidscope-test/1.0",
	})

	items, err := src.Fetch(context.Background())
	require.NoError(t, err, "one failing feed is not fatal")
	assert.Len(t, items, 2)
}

func TestSource_Fetch_CapsItems(t *testing.T) {
	server := feedServer(t, channelFeed)
	defer server.Close()

	src := NewSource(Config{
		Feeds:     []string{server.URL},
		Timeout:   5 * time.Second,
		UserAgent: "Vidscope-test/1.0",
		MaxItems:  1,
	})

	items, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestSource_Fetch_NoFeeds(t *testing.T) {
	src := NewSource(Config{})
	items, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSource_FetchOne_BadFeed(t *testing.T) {
	server := feedServer(t, "this is not xml")
	defer server.Close()

	src := NewSource(Config{Timeout: 5 * time.Second})
	_, err := src.FetchOne(context.Background(), server.URL)
	assert.Error(t, err)
}
