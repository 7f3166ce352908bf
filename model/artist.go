package model

import "time"

// Artist is shared reference data; many tracks point at one artist.
// Uniqueness is keyed on the normalized name, never the display name.
type Artist struct {
	ID   string `json:"id" gorm:"type:char(36);primaryKey"`
	Name string `json:"name" gorm:"size:300;not null"`
	// NameNormalized is the lowercase, trimmed display name.
	NameNormalized string   `json:"nameNormalized" gorm:"size:300;not null;uniqueIndex"`
	Aliases        []string `json:"aliases" gorm:"type:json;serializer:json"`
	Bio            string   `json:"bio" gorm:"type:text"`

	// Aggregate counters, maintained by external aggregation.
	TrackCount int   `json:"trackCount" gorm:"default:0"`
	TotalPlays int64 `json:"totalPlays" gorm:"default:0"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName implements the gorm table naming override.
func (Artist) TableName() string { return "artists" }
