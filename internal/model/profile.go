package model

import "time"

// Profile represents a machining profile.
type Profile struct {
	ID          int64   `gorm:"primaryKey"`
	Name        string  `gorm:"uniqueIndex;size:128;not null"`
	Description string  `gorm:"size:1024"`
	FeedRate    float64 `gorm:"not null;default:30"`
	PDFPath     string  `gorm:"size:512"`
	Preview     []byte  // first PDF page, rendered by the client
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Associations
	Tools    []Tool               `gorm:"foreignKey:ProfileID"`
	Variants []ProductSizeVariant `gorm:"foreignKey:ProfileID"`
}
