package hunter

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"CortexFM/config"
	"CortexFM/core/feed"
	"CortexFM/model"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

// ---- fakes ----

type fakeTrackRepo struct {
	mu       sync.Mutex
	bySource map[string]*model.Track
	// failCreateDuplicate simulates losing the unique-index race.
	failCreateDuplicate bool
}

func newFakeTrackRepo() *fakeTrackRepo {
	return &fakeTrackRepo{bySource: make(map[string]*model.Track)}
}

func (f *fakeTrackRepo) GetTrackByID(id string) (*model.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.bySource {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeTrackRepo) GetTrackBySourceURL(sourceURL string) (*model.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bySource[sourceURL], nil
}

func (f *fakeTrackRepo) ListTracksByStatus(status model.TrackStatus, limit int) ([]*model.Track, error) {
	return nil, nil
}

func (f *fakeTrackRepo) ListTracks(status model.TrackStatus, limit, offset int) ([]*model.Track, error) {
	return nil, nil
}

func (f *fakeTrackRepo) CountTracksByStatus(status model.TrackStatus) (int, error) {
	return 0, nil
}

func (f *fakeTrackRepo) BeginTx() (*sql.Tx, error) { return nil, nil }
func (f *fakeTrackRepo) RollbackTx(tx *sql.Tx)     {}
func (f *fakeTrackRepo) CommitTx(tx *sql.Tx) error { return nil }

func (f *fakeTrackRepo) CreateTrackWithTx(tx *sql.Tx, track *model.Track) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateDuplicate {
		return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	}
	if _, exists := f.bySource[track.SourceURL]; exists {
		return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	}
	f.bySource[track.SourceURL] = track
	return nil
}

func (f *fakeTrackRepo) UpdateEnrichmentWithTx(tx *sql.Tx, track *model.Track) error { return nil }

func (f *fakeTrackRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bySource)
}

type fakeArtistRepo struct {
	mu      sync.Mutex
	byName  map[string]*model.Artist
	created int
}

func newFakeArtistRepo() *fakeArtistRepo {
	return &fakeArtistRepo{byName: make(map[string]*model.Artist)}
}

func (f *fakeArtistRepo) GetArtistByID(id string) (*model.Artist, error) { return nil, nil }

func (f *fakeArtistRepo) GetArtistByNormalizedName(name string) (*model.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byName[name], nil
}

func (f *fakeArtistRepo) GetOrCreateArtistWithTx(tx *sql.Tx, name string) (*model.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := normalize(name)
	if a, ok := f.byName[key]; ok {
		return a, nil
	}
	a := &model.Artist{ID: uuid.NewString(), Name: name, NameNormalized: key}
	f.byName[key] = a
	f.created++
	return a, nil
}

func normalize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}

type fakeLicenseRepo struct {
	byCode map[string]*model.License
}

func newFakeLicenseRepo(codes ...string) *fakeLicenseRepo {
	f := &fakeLicenseRepo{byCode: make(map[string]*model.License)}
	for _, code := range codes {
		f.byCode[code] = &model.License{ID: uuid.NewString(), ShortCode: code}
	}
	return f
}

func (f *fakeLicenseRepo) GetLicenseByShortCode(code string) (*model.License, error) {
	return f.byCode[code], nil
}

func (f *fakeLicenseRepo) ListLicenses() ([]*model.License, error) { return nil, nil }
func (f *fakeLicenseRepo) SeedDefaultLicenses() (int, error)       { return 0, nil }

type fakeFetcher struct {
	format   string
	fileSize int64
	duration int
	dir      string
}

func (f *fakeFetcher) Fetch(ctx context.Context, audioURL string) (*Payload, error) {
	localPath := filepath.Join(f.dir, uuid.NewString()+".mp3")
	if err := os.WriteFile(localPath, []byte("audio-bytes"), 0644); err != nil {
		return nil, err
	}
	return &Payload{
		LocalPath:       localPath,
		ContentType:     "audio/mpeg",
		FileSizeBytes:   f.fileSize,
		Format:          f.format,
		DurationSeconds: f.duration,
	}, nil
}

type fakeStore struct{}

func (fakeStore) UploadAudio(ctx context.Context, localPath, contentType string) (string, error) {
	return "audio/" + filepath.Base(localPath), nil
}

type fakeFeedSource struct {
	entries []feed.Entry
}

func (f *fakeFeedSource) Fetch(ctx context.Context, url string) ([]feed.Entry, error) {
	return f.entries, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		FeedURL:                "https://example.org/feed.xml",
		DownloadDir:            t.TempDir(),
		MaxConcurrentDownloads: 2,
		FetchTimeout:           5 * time.Second,
	}
}

func newTestHunter(t *testing.T, tracks *fakeTrackRepo, licenses *fakeLicenseRepo) (*Hunter, *fakeArtistRepo) {
	t.Helper()
	artists := newFakeArtistRepo()
	cfg := testConfig(t)
	h := New(cfg, &fakeFeedSource{}, &fakeFetcher{dir: cfg.DownloadDir, fileSize: 11}, fakeStore{}, tracks, artists, licenses, nil)
	return h, artists
}

func candidate(sourceURL string) *model.CandidateTrack {
	return &model.CandidateTrack{
		Title:       "Song Title",
		Artist:      "Artist Name",
		LicenseCode: "CC-BY",
		SourceURL:   sourceURL,
		AudioURL:    sourceURL + ".mp3",
		Format:      "mp3",
		CollectedAt: time.Now().UTC(),
		CollectedBy: feed.CollectorID,
	}
}

// ---- tests ----

func TestAccepts(t *testing.T) {
	intp := func(v int) *int { return &v }

	cases := []struct {
		name     string
		license  string
		duration *int
		want     bool
	}{
		{"allowed license unknown duration", "CC-BY", nil, true},
		{"cc0", "CC0", intp(120), true},
		{"share-alike", "CC-BY-SA", intp(120), true},
		{"public domain", "Public Domain", intp(120), true},
		{"non-commercial disallowed", "CC-BY-NC", intp(120), false},
		{"unresolved license", "", intp(120), false},
		{"too short", "CC-BY", intp(45), false},
		{"lower bound inclusive", "CC-BY", intp(60), true},
		{"upper bound inclusive", "CC-BY", intp(600), true},
		{"too long", "CC-BY", intp(601), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := candidate("https://example.org/items/1")
			c.LicenseCode = tc.license
			c.DurationSeconds = tc.duration
			if got := Accepts(c); got != tc.want {
				t.Fatalf("Accepts = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIngestAcceptsAndPersists(t *testing.T) {
	tracks := newFakeTrackRepo()
	h, _ := newTestHunter(t, tracks, newFakeLicenseRepo("CC-BY"))

	ok, err := h.Ingest(context.Background(), candidate("https://example.org/items/1"))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if !ok {
		t.Fatal("expected candidate to be accepted")
	}

	track, err := tracks.GetTrackBySourceURL("https://example.org/items/1")
	if err != nil || track == nil {
		t.Fatalf("track not persisted: %v", err)
	}
	if track.Status != model.StatusPendingEnrichment {
		t.Fatalf("status = %q, want %q", track.Status, model.StatusPendingEnrichment)
	}
	if track.DurationSeconds != DefaultDurationSeconds {
		t.Fatalf("duration = %d, want default %d", track.DurationSeconds, DefaultDurationSeconds)
	}
	if track.FileSizeBytes == nil || *track.FileSizeBytes != 11 {
		t.Fatalf("file size = %v, want fetched size 11", track.FileSizeBytes)
	}
	if track.AudioFingerprint == "" {
		t.Fatal("expected fingerprint to be recorded")
	}
	if track.AudioObjectKey == "" {
		t.Fatal("expected object key to be recorded")
	}
}

func TestIngestDuplicateIsSilentNoOp(t *testing.T) {
	tracks := newFakeTrackRepo()
	h, _ := newTestHunter(t, tracks, newFakeLicenseRepo("CC-BY"))

	ctx := context.Background()
	ok, err := h.Ingest(ctx, candidate("https://example.org/items/1"))
	if err != nil || !ok {
		t.Fatalf("first ingest: ok=%v err=%v", ok, err)
	}

	ok, err = h.Ingest(ctx, candidate("https://example.org/items/1"))
	if err != nil {
		t.Fatalf("duplicate ingest must not error: %v", err)
	}
	if ok {
		t.Fatal("duplicate ingest must not be accepted")
	}
	if tracks.count() != 1 {
		t.Fatalf("expected exactly one track, got %d", tracks.count())
	}
}

func TestIngestLostUniqueIndexRace(t *testing.T) {
	tracks := newFakeTrackRepo()
	tracks.failCreateDuplicate = true
	h, _ := newTestHunter(t, tracks, newFakeLicenseRepo("CC-BY"))

	// Insert hits the unique index even though the dedup check passed:
	// graceful rejection, not an error.
	ok, err := h.Ingest(context.Background(), candidate("https://example.org/items/1"))
	if err != nil {
		t.Fatalf("losing writer must not error: %v", err)
	}
	if ok {
		t.Fatal("losing writer must not report acceptance")
	}
}

func TestIngestMissingLicenseIsFailure(t *testing.T) {
	tracks := newFakeTrackRepo()
	h, _ := newTestHunter(t, tracks, newFakeLicenseRepo( /* nothing seeded */ ))

	ok, err := h.Ingest(context.Background(), candidate("https://example.org/items/1"))
	if ok {
		t.Fatal("must not accept without license row")
	}
	if err == nil {
		t.Fatal("missing seeded license must surface as failure")
	}
	var missing *MissingLicenseError
	if !errors.As(err, &missing) {
		t.Fatalf("unexpected error type: %v", err)
	}
	if tracks.count() != 0 {
		t.Fatal("no track may survive a failed ingest")
	}
}

func TestIngestFetchedMetadataWins(t *testing.T) {
	tracks := newFakeTrackRepo()
	artists := newFakeArtistRepo()
	cfg := testConfig(t)
	fetcher := &fakeFetcher{dir: cfg.DownloadDir, fileSize: 2048, format: "ogg", duration: 240}
	h := New(cfg, &fakeFeedSource{}, fetcher, fakeStore{}, tracks, artists, newFakeLicenseRepo("CC-BY"), nil)

	c := candidate("https://example.org/items/2")
	feedSize := int64(1)
	feedDuration := 90
	c.FileSizeBytes = &feedSize
	c.DurationSeconds = &feedDuration

	ok, err := h.Ingest(context.Background(), c)
	if err != nil || !ok {
		t.Fatalf("ingest: ok=%v err=%v", ok, err)
	}

	track, _ := tracks.GetTrackBySourceURL("https://example.org/items/2")
	if track.DurationSeconds != 240 {
		t.Fatalf("duration = %d, want fetched 240", track.DurationSeconds)
	}
	if track.FileSizeBytes == nil || *track.FileSizeBytes != 2048 {
		t.Fatalf("file size = %v, want fetched 2048", track.FileSizeBytes)
	}
	if track.Format != "ogg" {
		t.Fatalf("format = %q, want fetched ogg", track.Format)
	}
}

func TestIngestSharedArtist(t *testing.T) {
	tracks := newFakeTrackRepo()
	h, artists := newTestHunter(t, tracks, newFakeLicenseRepo("CC-BY"))

	ctx := context.Background()
	if _, err := h.Ingest(ctx, candidate("https://example.org/items/1")); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Ingest(ctx, candidate("https://example.org/items/2")); err != nil {
		t.Fatal(err)
	}
	if artists.created != 1 {
		t.Fatalf("expected one shared artist row, got %d", artists.created)
	}
}

func TestIngestBatch(t *testing.T) {
	entries := []feed.Entry{
		{
			Title:  "Band - First",
			Rights: "CC-BY",
			Link:   "https://example.org/items/1",
			Enclosures: []feed.Enclosure{
				{URL: "https://example.org/items/1.mp3", Type: "audio/mpeg"},
			},
		},
		{
			// No resolvable license: extractor rejects, never counted.
			Title: "Band - Unlicensed",
			Link:  "https://example.org/items/2",
			Enclosures: []feed.Enclosure{
				{URL: "https://example.org/items/2.mp3", Type: "audio/mpeg"},
			},
		},
		{
			Title:  "Band - Second",
			Rights: "CC0",
			Link:   "https://example.org/items/3",
			Enclosures: []feed.Enclosure{
				{URL: "https://example.org/items/3.mp3", Type: "audio/mpeg"},
			},
		},
	}

	tracks := newFakeTrackRepo()
	artists := newFakeArtistRepo()
	cfg := testConfig(t)
	h := New(cfg, &fakeFeedSource{entries: entries},
		&fakeFetcher{dir: cfg.DownloadDir, fileSize: 5}, fakeStore{},
		tracks, artists, newFakeLicenseRepo("CC-BY", "CC0"), nil)

	accepted, err := h.IngestBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("IngestBatch failed: %v", err)
	}
	if accepted != 2 {
		t.Fatalf("accepted = %d, want 2", accepted)
	}
	if tracks.count() != 2 {
		t.Fatalf("persisted = %d, want 2", tracks.count())
	}

	// Re-running the same batch skips everything as duplicates.
	accepted, err = h.IngestBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("second IngestBatch failed: %v", err)
	}
	if accepted != 0 {
		t.Fatalf("second run accepted = %d, want 0", accepted)
	}
}

func TestIngestBatchRespectsMaxEntries(t *testing.T) {
	var entries []feed.Entry
	for i := 0; i < 5; i++ {
		entries = append(entries, feed.Entry{
			Title:  "Band - Track",
			Rights: "CC-BY",
			Link:   "https://example.org/items/" + string(rune('a'+i)),
			Enclosures: []feed.Enclosure{
				{URL: "https://example.org/items/x.mp3", Type: "audio/mpeg"},
			},
		})
	}

	tracks := newFakeTrackRepo()
	artists := newFakeArtistRepo()
	cfg := testConfig(t)
	h := New(cfg, &fakeFeedSource{entries: entries},
		&fakeFetcher{dir: cfg.DownloadDir, fileSize: 5}, fakeStore{},
		tracks, artists, newFakeLicenseRepo("CC-BY"), nil)

	accepted, err := h.IngestBatch(context.Background(), 2)
	if err != nil {
		t.Fatalf("IngestBatch failed: %v", err)
	}
	if accepted != 2 {
		t.Fatalf("accepted = %d, want 2 (first two entries only)", accepted)
	}
}
