// Package feed pulls candidate videos from channel Atom/RSS feeds and turns
// them into pipeline items. YouTube channel feeds carry the interesting
// metadata (description, duration, view statistics) in media extensions.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"golang.org/x/sync/errgroup"

	"github.com/vidscope/vidscope/pkg/domain"
)

// maxConcurrentFetches bounds parallel feed downloads
const maxConcurrentFetches = 4

// Source fetches candidate videos from a set of channel feeds
type Source struct {
	client    *http.Client
	sanitizer *bluemonday.Policy
	userAgent string
	feeds     []string
	maxItems  int
}

// Config holds source settings
type Config struct {
	Feeds     []string
	Timeout   time.Duration
	UserAgent string
	MaxItems  int
}

// NewSource creates a channel-feed video source
func NewSource(cfg Config) *Source {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxItems := cfg.MaxItems
	if maxItems == 0 {
		maxItems = 100
	}

	return &Source{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		sanitizer: bluemonday.StrictPolicy(),
		userAgent: cfg.UserAgent,
		feeds:     cfg.Feeds,
		maxItems:  maxItems,
	}
}

// Fetch pulls all configured feeds concurrently and returns the combined
// candidate batch, capped at the configured maximum. A single failing feed
// is logged and skipped, not fatal.
func (s *Source) Fetch(ctx context.Context) ([]domain.Item, error) {
	if len(s.feeds) == 0 {
		return []domain.Item{}, nil
	}

	var mu sync.Mutex
	var all []domain.Item

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for _, url := range s.feeds {
		g.Go(func() error {
			items, err := s.FetchOne(gctx, url)
			if err != nil {
				lgr.Printf("[WARN] feed %s failed: %v", url, err)
				return nil // keep other feeds going
			}
			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch feeds: %w", err)
	}

	if len(all) > s.maxItems {
		all = all[:s.maxItems]
	}

	lgr.Printf("[INFO] fetched %d candidate items from %d feeds", len(all), len(s.feeds))
	return all, nil
}

// FetchOne downloads and parses a single channel feed
func (s *Source) FetchOne(ctx context.Context, url string) ([]domain.Item, error) {
	body, err := s.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer body.Close() //nolint:errcheck // read-only body

	parsed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]domain.Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		items = append(items, s.convert(entry, parsed.Title))
	}
	return items, nil
}

// convert maps one feed entry to a pipeline item
func (s *Source) convert(entry *gofeed.Item, channelFallback string) domain.Item {
	item := domain.Item{
		ID:          entry.GUID,
		Title:       entry.Title,
		Description: s.sanitizer.Sanitize(entry.Description),
		Channel:     channelFallback,
	}

	if item.ID == "" {
		item.ID = entry.Link
	}
	if entry.Author != nil && entry.Author.Name != "" {
		item.Channel = entry.Author.Name
	}

	if entry.PublishedParsed != nil {
		item.Published = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		item.Published = *entry.UpdatedParsed
	}

	s.applyExtensions(entry, &item)
	return item
}

// applyExtensions pulls video metadata out of yt/media feed extensions:
// the media description and statistics live under media:group.
func (s *Source) applyExtensions(entry *gofeed.Item, item *domain.Item) {
	if yt, ok := entry.Extensions["yt"]; ok {
		if v := firstExtensionValue(yt["videoId"]); v != "" {
			item.ID = v
		}
	}

	media, ok := entry.Extensions["media"]
	if !ok {
		return
	}

	for _, group := range media["group"] {
		if v := firstExtensionValue(group.Children["description"]); v != "" && item.Description == "" {
			item.Description = s.sanitizer.Sanitize(v)
		}
		if v := firstExtensionValue(group.Children["content"]); v != "" && item.Duration == "" {
			item.Duration = v
		}
		for _, community := range group.Children["community"] {
			for _, stat := range community.Children["statistics"] {
				if views, ok := parseViews(stat.Attrs["views"]); ok {
					item.ViewCount = views
				}
			}
		}
	}
}

// firstExtensionValue returns the first extension's value or duration attr
func firstExtensionValue(exts []ext.Extension) string {
	for _, e := range exts {
		if e.Value != "" {
			return e.Value
		}
		if d, ok := e.Attrs["duration"]; ok {
			return d
		}
	}
	return ""
}

// parseViews converts the statistics views attribute
func parseViews(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	var views int64
	if _, err := fmt.Sscanf(s, "%d", &views); err != nil || views < 0 {
		return 0, false
	}
	return views, true
}

// get retrieves content from a URL
func (s *Source) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/rss+xml,application/atom+xml,application/xml;q=0.9,text/xml;q=0.8,*/*;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}
