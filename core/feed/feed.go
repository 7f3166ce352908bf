// Package feed fetches public RSS feeds and normalizes their entries into
// track candidates.
package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"CortexFM/logger"

	"github.com/mmcdole/gofeed"
)

// Enclosure is one media attachment of a feed entry.
type Enclosure struct {
	URL    string
	Type   string
	Length int64
}

// Entry is one normalized feed entry. Fields mirror what public audio feeds
// actually provide; any of them may be empty.
type Entry struct {
	Title       string
	Author      string
	Rights      string
	License     string
	Summary     string
	Description string
	Link        string
	Links       []string
	Enclosures  []Enclosure
	// DurationSeconds is the feed-declared duration, 0 when absent.
	// Feeds are frequently wrong on this; the fetched payload wins.
	DurationSeconds int
}

// Client fetches and parses feeds.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a feed client with the given request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the feed at url and returns its entries.
func (c *Client) Fetch(ctx context.Context, url string) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	entries, err := Parse(body)
	if err != nil {
		return nil, err
	}

	logger.Info("Fetched feed",
		logger.String("url", url),
		logger.Int("entries", len(entries)))
	return entries, nil
}

// Parse decodes feed bytes into normalized entries.
func Parse(data []byte) ([]Entry, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		entries = append(entries, newEntry(item))
	}
	return entries, nil
}

// newEntry flattens one parsed item, pulling the Dublin Core, Creative
// Commons and itunes extension fields the license detection feeds on.
func newEntry(item *gofeed.Item) Entry {
	entry := Entry{
		Title:       item.Title,
		Description: item.Description,
		Link:        item.Link,
	}
	if item.Author != nil {
		entry.Author = item.Author.Name
	}
	if dc := item.DublinCoreExt; dc != nil {
		if entry.Author == "" && len(dc.Creator) > 0 {
			entry.Author = dc.Creator[0]
		}
		if len(dc.Rights) > 0 {
			entry.Rights = dc.Rights[0]
		}
	}
	if item.ITunesExt != nil {
		entry.DurationSeconds = parseDuration(item.ITunesExt.Duration)
	}
	entry.License = ccLicense(item)

	if item.Link != "" {
		entry.Links = append(entry.Links, item.Link)
	}
	// cc:license carries a URL; surface it both as a link candidate and
	// as a text signal.
	if entry.License != "" {
		entry.Links = append(entry.Links, entry.License)
	}

	for _, enc := range item.Enclosures {
		if enc == nil {
			continue
		}
		length, _ := strconv.ParseInt(enc.Length, 10, 64)
		entry.Enclosures = append(entry.Enclosures, Enclosure{
			URL:    enc.URL,
			Type:   enc.Type,
			Length: length,
		})
	}
	return entry
}

// ccLicense pulls the cc:license extension element off an item. Feeds
// declare the namespace under either common prefix.
func ccLicense(item *gofeed.Item) string {
	for _, prefix := range []string{"cc", "creativeCommons"} {
		if elems, ok := item.Extensions[prefix]["license"]; ok && len(elems) > 0 {
			return strings.TrimSpace(elems[0].Value)
		}
	}
	return ""
}

// parseDuration handles the itunes:duration formats "SS", "MM:SS" and
// "HH:MM:SS". Returns 0 for anything unparseable.
func parseDuration(s string) int {
	if s == "" {
		return 0
	}
	var h, m, sec int
	switch {
	case countColons(s) == 2:
		if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
			return 0
		}
	case countColons(s) == 1:
		if _, err := fmt.Sscanf(s, "%d:%d", &m, &sec); err != nil {
			return 0
		}
	default:
		if _, err := fmt.Sscanf(s, "%d", &sec); err != nil {
			return 0
		}
	}
	return h*3600 + m*60 + sec
}

func countColons(s string) int {
	n := 0
	for _, r := range s {
		if r == ':' {
			n++
		}
	}
	return n
}
