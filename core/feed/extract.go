package feed

import (
	"strings"
	"time"

	"CortexFM/core/license"
	"CortexFM/model"
)

// CollectorID identifies this collector on every track it ingests.
const CollectorID = "hunter/v1"

// titleSeparator splits "Artist - Title" feed titles.
const titleSeparator = " - "

// Extract turns one feed entry into a track candidate. It returns nil when a
// required field cannot be resolved: no license code, or no audio URL. Pure
// transformation; no network or database access.
func Extract(entry Entry) *model.CandidateTrack {
	title := entry.Title
	artist := entry.Author

	// Feeds commonly pack "Artist - Title" into the title element. Split at
	// the first separator only; titles may contain further dashes.
	if idx := strings.Index(title, titleSeparator); idx >= 0 {
		artist = title[:idx]
		title = title[idx+len(titleSeparator):]
	}
	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)

	code, licenseURL := license.Detect(license.Signals{
		Rights:      entry.Rights,
		License:     entry.License,
		LinkURLs:    entry.Links,
		Description: entry.Summary + entry.Description,
	})
	if code == "" {
		return nil
	}

	// Prefer the first audio enclosure; fall back to the entry link.
	var audioURL, mediaType string
	for _, enc := range entry.Enclosures {
		if strings.HasPrefix(enc.Type, "audio/") {
			audioURL = enc.URL
			mediaType = enc.Type
			break
		}
	}
	if audioURL == "" {
		audioURL = entry.Link
	}
	if audioURL == "" {
		return nil
	}

	sourceURL := entry.Link
	if sourceURL == "" {
		sourceURL = audioURL
	}

	candidate := &model.CandidateTrack{
		Title:       title,
		Artist:      artist,
		LicenseCode: code,
		LicenseURL:  licenseURL,
		SourceURL:   sourceURL,
		AudioURL:    audioURL,
		Format:      formatFromMediaType(mediaType),
		CollectedAt: time.Now().UTC(),
		CollectedBy: CollectorID,
	}
	if entry.DurationSeconds > 0 {
		d := entry.DurationSeconds
		candidate.DurationSeconds = &d
	}
	return candidate
}

// formatFromMediaType maps an enclosure media type to a short format name.
func formatFromMediaType(mediaType string) string {
	switch mediaType {
	case "audio/mpeg", "audio/mp3":
		return "mp3"
	case "audio/ogg", "audio/vorbis":
		return "ogg"
	case "audio/flac", "audio/x-flac":
		return "flac"
	case "audio/wav", "audio/x-wav":
		return "wav"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return "m4a"
	default:
		return "mp3"
	}
}
