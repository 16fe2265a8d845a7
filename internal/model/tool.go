package model

import "time"

// Tool represents a single tool record. Code is the 6-digit identity key
// produced by the toolcode package; tools sharing the first five characters
// of their code form one set and carry a byte-identical photo.
type Tool struct {
	ID          int64  `gorm:"primaryKey"`
	ProfileID   int64  `gorm:"index;not null"`
	Position    string `gorm:"size:16;not null"`
	ToolType    string `gorm:"size:16;not null"`
	SetNumber   int    `gorm:"not null;default:1"`
	Code        string `gorm:"uniqueIndex;size:6;not null"`
	KnivesCount int    `gorm:"not null;default:6"`
	Status      string `gorm:"size:32;not null;default:ready"`
	Notes       string `gorm:"size:1024"`
	Photo       []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Associations
	Profile Profile `gorm:"constraint:OnDelete:CASCADE"`
}
