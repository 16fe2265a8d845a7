package model

import "time"

// HeadAssignment binds a tool to one of the 10 spindle heads of a profile,
// together with its machining parameters. At most one assignment exists per
// (profile, head) pair; replacing it is an atomic delete-then-insert.
type HeadAssignment struct {
	ID           int64 `gorm:"primaryKey"`
	ProfileID    int64 `gorm:"not null;uniqueIndex:idx_assignments_profile_head,priority:1"`
	ToolID       int64 `gorm:"index;not null"`
	HeadNumber   int   `gorm:"not null;uniqueIndex:idx_assignments_profile_head,priority:2"`
	RPM          *int
	PassDepth    *float64
	WorkMaterial string `gorm:"size:256"`
	Remarks      string `gorm:"size:1024"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Associations
	Profile Profile `gorm:"constraint:OnDelete:CASCADE"`
	Tool    Tool    `gorm:"constraint:OnDelete:CASCADE"`
}
