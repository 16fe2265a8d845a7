package model

import "fmt"

// MaterialSize is a stock size catalog entry (raw material dimensions in mm).
type MaterialSize struct {
	ID          int64   `gorm:"primaryKey" json:"id"`
	Width       float64 `gorm:"not null;uniqueIndex:idx_material_sizes_dims,priority:1" json:"width"`
	Thickness   float64 `gorm:"not null;uniqueIndex:idx_material_sizes_dims,priority:2" json:"thickness"`
	Name        string  `gorm:"size:128" json:"name"`
	Description string  `gorm:"size:512" json:"description"`
}

// DisplayName renders the size the way the legacy string fields did.
func (m MaterialSize) DisplayName() string {
	if m.Thickness > 0 {
		return fmt.Sprintf("%g x %g (%s)", m.Width, m.Thickness, m.Name)
	}
	return fmt.Sprintf("%g (%s)", m.Width, m.Name)
}
