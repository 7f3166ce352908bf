package model

import "time"

// License is pre-seeded reference data; read-only from the pipeline's
// perspective.
type License struct {
	ID        string `json:"id" gorm:"type:char(36);primaryKey"`
	ShortCode string `json:"shortCode" gorm:"size:20;not null;uniqueIndex"`
	FullName  string `json:"fullName" gorm:"size:200;not null"`
	URL       string `json:"url" gorm:"type:text;not null"`

	AllowsCommercial    bool `json:"allowsCommercial" gorm:"not null"`
	AllowsDerivatives   bool `json:"allowsDerivatives" gorm:"not null"`
	RequiresAttribution bool `json:"requiresAttribution" gorm:"not null"`
	RequiresShareAlike  bool `json:"requiresShareAlike" gorm:"not null"`

	IsActive    bool   `json:"isActive" gorm:"default:true"`
	UsageCount  int    `json:"usageCount" gorm:"default:0"`
	Description string `json:"description" gorm:"type:text"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName implements the gorm table naming override.
func (License) TableName() string { return "licenses" }
