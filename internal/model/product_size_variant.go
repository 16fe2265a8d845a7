package model

import (
	"fmt"
	"strings"
	"time"
)

// ProductSizeVariant is one finished-product size a profile can be run at.
type ProductSizeVariant struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	ProfileID  int64     `gorm:"index;not null" json:"profile_id"`
	Width      float64   `gorm:"not null" json:"width"`
	Thickness  float64   `gorm:"not null" json:"thickness"`
	MaterialID *int64    `json:"material_id"`
	IsDefault  bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`

	// Associations
	Material *MaterialSize `gorm:"foreignKey:MaterialID;constraint:OnDelete:SET NULL" json:"material,omitempty"`
}

// DisplayName renders a single variant.
func (v ProductSizeVariant) DisplayName() string {
	if v.Thickness > 0 {
		return fmt.Sprintf("%g x %g mm", v.Width, v.Thickness)
	}
	return fmt.Sprintf("%g mm", v.Width)
}

// FormatVariants renders the legacy product-size display string from the
// normalized variant rows.
func FormatVariants(variants []ProductSizeVariant) string {
	parts := make([]string, len(variants))
	for i, v := range variants {
		parts[i] = v.DisplayName()
	}
	return strings.Join(parts, "; ")
}
