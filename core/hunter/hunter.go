// Package hunter ingests candidate tracks discovered from public feeds:
// license and duration filtering, source-URL deduplication, bounded audio
// download, and the exclusive-commit ingest transaction.
package hunter

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"CortexFM/cache"
	"CortexFM/config"
	"CortexFM/core/feed"
	"CortexFM/logger"
	"CortexFM/model"
	"CortexFM/repository"

	"github.com/google/uuid"
)

// Duration policy: candidates with a known duration outside [60, 600]
// seconds are rejected. Unknown durations pass the filter and default to
// DefaultDurationSeconds after fetch.
const (
	MinDurationSeconds     = 60
	MaxDurationSeconds     = 600
	DefaultDurationSeconds = 180
)

// allowedLicenses is the ingest allow-list.
var allowedLicenses = map[string]struct{}{
	"CC0":           {},
	"CC-BY":         {},
	"CC-BY-SA":      {},
	"Public Domain": {},
}

// FeedSource returns the entries of a feed.
type FeedSource interface {
	Fetch(ctx context.Context, url string) ([]feed.Entry, error)
}

// ObjectStore persists fetched audio payloads.
type ObjectStore interface {
	UploadAudio(ctx context.Context, localPath, contentType string) (string, error)
}

// Hunter coordinates track acquisition.
type Hunter struct {
	cfg        *config.Config
	feedSource FeedSource
	fetcher    Fetcher
	store      ObjectStore
	tracks     repository.TrackRepository
	artists    repository.ArtistRepository
	licenses   repository.LicenseRepository
	seen       *cache.SourceURLCache

	// slots bounds concurrent downloads system-wide. Acquired before the
	// fetch, released unconditionally afterward.
	slots chan struct{}
}

// New creates a Hunter. seen may be nil; the dedup SELECT then carries the
// full load.
func New(
	cfg *config.Config,
	feedSource FeedSource,
	fetcher Fetcher,
	store ObjectStore,
	tracks repository.TrackRepository,
	artists repository.ArtistRepository,
	licenses repository.LicenseRepository,
	seen *cache.SourceURLCache,
) *Hunter {
	limit := cfg.MaxConcurrentDownloads
	if limit <= 0 {
		limit = 1
	}
	return &Hunter{
		cfg:        cfg,
		feedSource: feedSource,
		fetcher:    fetcher,
		store:      store,
		tracks:     tracks,
		artists:    artists,
		licenses:   licenses,
		seen:       seen,
		slots:      make(chan struct{}, limit),
	}
}

// Accepts reports whether a candidate passes the license allow-list and the
// duration policy. Candidates failing here are rejections, not failures.
func Accepts(candidate *model.CandidateTrack) bool {
	if _, ok := allowedLicenses[candidate.LicenseCode]; !ok {
		return false
	}
	if candidate.DurationSeconds != nil {
		d := *candidate.DurationSeconds
		if d < MinDurationSeconds || d > MaxDurationSeconds {
			return false
		}
	}
	return true
}

// IngestBatch fetches the configured feed and ingests up to maxEntries of
// its entries. Returns the number of tracks accepted into the catalog.
// Per-entry failures are logged and do not abort the batch.
func (h *Hunter) IngestBatch(ctx context.Context, maxEntries int) (int, error) {
	entries, err := h.feedSource.Fetch(ctx, h.cfg.FeedURL)
	if err != nil {
		return 0, err
	}
	if maxEntries > 0 && len(entries) > maxEntries {
		entries = entries[:maxEntries]
	}

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for _, entry := range entries {
		candidate := feed.Extract(entry)
		if candidate == nil {
			continue
		}

		wg.Add(1)
		go func(c *model.CandidateTrack) {
			defer wg.Done()
			ok, err := h.Ingest(ctx, c)
			if err != nil {
				logger.Error("Failed to ingest candidate",
					logger.String("title", c.Title),
					logger.String("sourceUrl", c.SourceURL),
					logger.ErrorField(err))
				return
			}
			if ok {
				accepted.Add(1)
			}
		}(candidate)
	}
	wg.Wait()

	logger.Info("Ingest batch finished",
		logger.Int("entries", len(entries)),
		logger.Int("accepted", int(accepted.Load())))
	return int(accepted.Load()), nil
}

// Ingest runs the full acquisition path for one candidate. It returns
// (false, nil) for normal rejections (filtered, duplicate) and a non-nil
// error only for genuine failures; either way the catalog is untouched on
// anything but full success.
func (h *Hunter) Ingest(ctx context.Context, candidate *model.CandidateTrack) (bool, error) {
	if !Accepts(candidate) {
		logger.Debug("Candidate filtered",
			logger.String("title", candidate.Title),
			logger.String("license", candidate.LicenseCode))
		return false, nil
	}

	// Dedup gate. The check here races against concurrent ingests of the
	// same source URL; the unique index on tracks.source_url decides the
	// winner at commit time.
	dup, err := h.isDuplicate(ctx, candidate.SourceURL)
	if err != nil {
		return false, err
	}
	if dup {
		logger.Debug("Candidate already ingested",
			logger.String("sourceUrl", candidate.SourceURL))
		return false, nil
	}

	// Bounded download slot; backpressure, not correctness.
	select {
	case h.slots <- struct{}{}:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	defer func() { <-h.slots }()

	fetchCtx, cancel := context.WithTimeout(ctx, h.cfg.FetchTimeout)
	defer cancel()

	payload, err := h.fetcher.Fetch(fetchCtx, candidate.AudioURL)
	if err != nil {
		return false, err
	}
	defer os.Remove(payload.LocalPath)

	// Fetched properties win over feed-declared metadata.
	if payload.FileSizeBytes > 0 {
		candidate.FileSizeBytes = &payload.FileSizeBytes
	}
	if payload.Format != "" {
		candidate.Format = payload.Format
	}
	if payload.DurationSeconds > 0 {
		d := payload.DurationSeconds
		candidate.DurationSeconds = &d
	}
	if len(payload.ID3Tags) > 0 {
		candidate.ID3Tags = payload.ID3Tags
	}

	objectKey, err := h.store.UploadAudio(ctx, payload.LocalPath, payload.ContentType)
	if err != nil {
		return false, err
	}

	accepted, err := h.commit(candidate, objectKey)
	if err != nil || !accepted {
		return accepted, err
	}

	if h.seen != nil {
		if err := h.seen.MarkSeen(ctx, candidate.SourceURL); err != nil {
			logger.Warn("Failed to mark source URL seen", logger.ErrorField(err))
		}
	}

	logger.Info("Ingested track",
		logger.String("title", candidate.Title),
		logger.String("artist", candidate.Artist),
		logger.String("license", candidate.LicenseCode))
	return true, nil
}

func (h *Hunter) isDuplicate(ctx context.Context, sourceURL string) (bool, error) {
	if h.seen != nil {
		hit, err := h.seen.Seen(ctx, sourceURL)
		if err != nil {
			// Cache trouble is not fatal; the SQL lookup answers.
			logger.Warn("Source URL cache unavailable", logger.ErrorField(err))
		} else if hit {
			return true, nil
		}
	}

	existing, err := h.tracks.GetTrackBySourceURL(sourceURL)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

// commit resolves artist and license and inserts the track as one atomic
// transaction. A duplicate source URL at insert time is the losing side of
// the dedup race and maps to a silent rejection.
func (h *Hunter) commit(candidate *model.CandidateTrack, objectKey string) (bool, error) {
	tx, err := h.tracks.BeginTx()
	if err != nil {
		return false, err
	}

	artistName := candidate.Artist
	if artistName == "" {
		artistName = "Unknown Artist"
	}
	artist, err := h.artists.GetOrCreateArtistWithTx(tx, artistName)
	if err != nil {
		h.tracks.RollbackTx(tx)
		return false, err
	}

	lic, err := h.licenses.GetLicenseByShortCode(candidate.LicenseCode)
	if err != nil {
		h.tracks.RollbackTx(tx)
		return false, err
	}
	if lic == nil {
		// Seed data is incomplete; a configuration fault, not a rejection.
		h.tracks.RollbackTx(tx)
		return false, &MissingLicenseError{ShortCode: candidate.LicenseCode}
	}

	duration := DefaultDurationSeconds
	if candidate.DurationSeconds != nil {
		duration = *candidate.DurationSeconds
	}

	track := &model.Track{
		ID:               uuid.NewString(),
		Title:            candidate.Title,
		ArtistID:         artist.ID,
		Album:            candidate.Album,
		LicenseID:        lic.ID,
		AudioURL:         candidate.AudioURL,
		AudioObjectKey:   objectKey,
		DurationSeconds:  duration,
		Format:           candidate.Format,
		FileSizeBytes:    candidate.FileSizeBytes,
		ID3Tags:          candidate.ID3Tags,
		AudioFingerprint: candidate.Fingerprint(),
		SourceURL:        candidate.SourceURL,
		CollectedBy:      candidate.CollectedBy,
		CollectedAt:      candidate.CollectedAt,
		Status:           model.StatusPendingEnrichment,
	}
	if track.CollectedAt.IsZero() {
		track.CollectedAt = time.Now().UTC()
	}

	if err := h.tracks.CreateTrackWithTx(tx, track); err != nil {
		h.tracks.RollbackTx(tx)
		if repository.IsDuplicateEntry(err) {
			logger.Debug("Lost ingest race for source URL",
				logger.String("sourceUrl", candidate.SourceURL))
			return false, nil
		}
		return false, err
	}

	if err := h.tracks.CommitTx(tx); err != nil {
		h.tracks.RollbackTx(tx)
		if repository.IsDuplicateEntry(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// MissingLicenseError reports a license short code absent from storage.
type MissingLicenseError struct {
	ShortCode string
}

func (e *MissingLicenseError) Error() string {
	return "license not seeded: " + e.ShortCode
}
