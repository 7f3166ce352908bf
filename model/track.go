package model

import "time"

// Track represents an audio track admitted into the catalog.
type Track struct {
	ID       string `json:"id" gorm:"type:char(36);primaryKey"`
	Title    string `json:"title" gorm:"size:500;not null;index"`
	ArtistID string `json:"artistId" gorm:"type:char(36);not null;index"`
	Album    string `json:"album" gorm:"size:500"`
	// LicenseID references pre-seeded license rows; resolution failure at
	// ingest is a configuration fault, not a candidate rejection.
	LicenseID string `json:"licenseId" gorm:"type:char(36);not null;index"`

	AudioURL string `json:"audioUrl" gorm:"type:text;not null"`
	// AudioObjectKey is the object storage key of the fetched payload.
	AudioObjectKey  string `json:"audioObjectKey" gorm:"type:text"`
	DurationSeconds int    `json:"durationSeconds" gorm:"not null;check:positive_duration,duration_seconds > 0"`
	BitrateKbps     *int   `json:"bitrateKbps"`
	Format          string `json:"format" gorm:"size:10;default:mp3"`
	FileSizeBytes   *int64 `json:"fileSizeBytes"`

	// Classification fields, populated by the librarian.
	PrimaryGenre    string   `json:"primaryGenre" gorm:"size:100"`
	SecondaryGenres []string `json:"secondaryGenres" gorm:"type:json;serializer:json"`
	MoodTags        []string `json:"moodTags" gorm:"type:json;serializer:json"`
	CulturalContext string   `json:"culturalContext" gorm:"size:200"`

	ID3Tags map[string]string `json:"id3Tags" gorm:"type:json;serializer:json"`
	// AudioFingerprint is recorded at ingest but not used for matching;
	// source_url is the sole dedup key.
	AudioFingerprint string    `json:"audioFingerprint" gorm:"type:text"`
	Embedding        []float32 `json:"-" gorm:"type:json;serializer:json"`

	SourceURL   string    `json:"sourceUrl" gorm:"type:varchar(768);not null;uniqueIndex"`
	CollectedBy string    `json:"collectedBy" gorm:"size:50;not null;default:hunter/v1"`
	CollectedAt time.Time `json:"collectedAt" gorm:"not null"`

	Status TrackStatus `json:"status" gorm:"size:50;not null;index;default:pending_enrichment;check:valid_status,status IN ('pending_enrichment','pending_compliance','approved','rejected','on_hold')"`

	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName implements the gorm table naming override.
func (Track) TableName() string { return "tracks" }
