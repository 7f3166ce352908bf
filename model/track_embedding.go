package model

import "time"

// TrackEmbedding stores one semantic vector per (track, model version) pair.
// Rows are cascade-deleted with their track.
type TrackEmbedding struct {
	ID           string    `json:"id" gorm:"type:char(36);primaryKey"`
	TrackID      string    `json:"trackId" gorm:"type:char(36);not null;uniqueIndex:uniq_track_model,priority:1"`
	Embedding    []float32 `json:"embedding" gorm:"type:json;serializer:json"`
	ModelVersion string    `json:"modelVersion" gorm:"size:50;not null;uniqueIndex:uniq_track_model,priority:2"`
	GeneratedAt  time.Time `json:"generatedAt" gorm:"not null"`
}

// TableName implements the gorm table naming override.
func (TrackEmbedding) TableName() string { return "track_embeddings" }
