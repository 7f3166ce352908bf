package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// CandidateTrack is an unvalidated track record extracted from one feed
// entry. It is never persisted as-is; the hunter turns accepted candidates
// into Track rows. LicenseCode, SourceURL and AudioURL are always set by
// the extractor.
type CandidateTrack struct {
	Title           string
	Artist          string
	Album           string
	DurationSeconds *int
	LicenseCode     string
	LicenseURL      string
	SourceURL       string
	AudioURL        string
	FileSizeBytes   *int64
	Format          string
	ID3Tags         map[string]string
	CollectedAt     time.Time
	CollectedBy     string
}

// Fingerprint returns a content hash over the identifying fields. It is
// stored on the track but not consulted for dedup matching.
func (c *CandidateTrack) Fingerprint() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", c.Title, c.Artist, c.AudioURL)))
	return hex.EncodeToString(sum[:])
}
