package hunter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"CortexFM/logger"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
	"github.com/tcolgate/mp3"
)

// Payload describes a fetched audio file. Properties discovered from the
// payload itself take precedence over feed-declared metadata.
type Payload struct {
	LocalPath     string
	ContentType   string
	FileSizeBytes int64
	// Format is derived from the file's actual container, "" when the probe
	// cannot identify it.
	Format string
	// DurationSeconds is 0 when the payload does not reveal it.
	DurationSeconds int
	ID3Tags         map[string]string
}

// Fetcher retrieves an audio payload from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, audioURL string) (*Payload, error)
}

// HTTPFetcher downloads audio over HTTP into a local directory and probes
// the result for metadata.
type HTTPFetcher struct {
	client      *http.Client
	downloadDir string
}

// NewHTTPFetcher creates a fetcher writing into downloadDir.
func NewHTTPFetcher(downloadDir string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client:      &http.Client{Timeout: timeout},
		downloadDir: downloadDir,
	}
}

// Fetch downloads audioURL to a unique local file and probes it.
func (f *HTTPFetcher) Fetch(ctx context.Context, audioURL string) (*Payload, error) {
	if err := os.MkdirAll(f.downloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audio download returned status %d", resp.StatusCode)
	}

	localPath := filepath.Join(f.downloadDir, uuid.NewString()+extensionFromURL(audioURL))
	out, err := os.Create(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create local file: %w", err)
	}

	written, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(localPath)
		return nil, fmt.Errorf("failed to save audio payload: %w", err)
	}

	payload := &Payload{
		LocalPath:     localPath,
		ContentType:   resp.Header.Get("Content-Type"),
		FileSizeBytes: written,
	}
	probeAudioFile(payload)
	probeDuration(payload)

	logger.Debug("Fetched audio payload",
		logger.String("url", audioURL),
		logger.Int64("bytes", written),
		logger.String("format", payload.Format))
	return payload, nil
}

// probeAudioFile reads container and ID3 metadata from the downloaded file.
// Probe failures are not fatal; the payload just stays unprobed.
func probeAudioFile(payload *Payload) {
	f, err := os.Open(payload.LocalPath)
	if err != nil {
		return
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return
	}

	payload.Format = strings.ToLower(string(m.FileType()))
	tags := map[string]string{}
	if v := m.Title(); v != "" {
		tags["title"] = v
	}
	if v := m.Artist(); v != "" {
		tags["artist"] = v
	}
	if v := m.Album(); v != "" {
		tags["album"] = v
	}
	if v := m.Genre(); v != "" {
		tags["genre"] = v
	}
	if y := m.Year(); y != 0 {
		tags["year"] = strconv.Itoa(y)
	}
	if len(tags) > 0 {
		payload.ID3Tags = tags
	}
}

// probeDuration measures the payload's real duration by summing mp3 frame
// durations, so the feed-declared value never wins over the actual audio.
// Only mp3 payloads are measured; failures leave the duration unknown.
func probeDuration(payload *Payload) {
	if payload.Format != "mp3" && !strings.HasSuffix(payload.LocalPath, ".mp3") {
		return
	}
	f, err := os.Open(payload.LocalPath)
	if err != nil {
		return
	}
	defer f.Close()

	var (
		total   time.Duration
		frame   mp3.Frame
		skipped int
	)
	d := mp3.NewDecoder(f)
	for {
		if err := d.Decode(&frame, &skipped); err != nil {
			break
		}
		total += frame.Duration()
	}
	if secs := int(total.Round(time.Second) / time.Second); secs > 0 {
		payload.DurationSeconds = secs
	}
}

// extensionFromURL pulls a file extension off the URL path, defaulting to
// .mp3 when there is none.
func extensionFromURL(audioURL string) string {
	u, err := url.Parse(audioURL)
	if err != nil {
		return ".mp3"
	}
	ext := path.Ext(u.Path)
	if ext == "" || len(ext) > 6 {
		return ".mp3"
	}
	return ext
}
