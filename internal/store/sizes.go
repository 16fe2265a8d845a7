package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"hydromat-tooling-backend/internal/model"
	"hydromat-tooling-backend/internal/security"
)

// FindOrCreateMaterialSize returns the existing stock size with matching
// dimensions or inserts a new one. The size's ID is filled in either way.
func (s *gormStore) FindOrCreateMaterialSize(ctx context.Context, perms security.Permissions, size *model.MaterialSize) error {
	if !perms.CanEdit {
		return ErrReadOnly
	}
	if size.Name == "" {
		size.Name = fmt.Sprintf("%g x %g", size.Width, size.Thickness)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.MaterialSize
		err := tx.Where("width = ? AND thickness = ?", size.Width, size.Thickness).
			First(&existing).Error
		if err == nil {
			*size = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(size).Error
	})
}

func (s *gormStore) MaterialSizes(ctx context.Context) ([]model.MaterialSize, error) {
	var sizes []model.MaterialSize
	err := s.db.WithContext(ctx).Order("width, thickness").Find(&sizes).Error
	return sizes, err
}

func (s *gormStore) VariantsByProfile(ctx context.Context, profileID int64) ([]model.ProductSizeVariant, error) {
	var variants []model.ProductSizeVariant
	err := s.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("id").
		Find(&variants).Error
	return variants, err
}

func (s *gormStore) CreateVariant(ctx context.Context, perms security.Permissions, variant *model.ProductSizeVariant) error {
	if !perms.CanEdit {
		return ErrReadOnly
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile model.Profile
		if err := tx.First(&profile, variant.ProfileID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("profile %d does not exist: %w", variant.ProfileID, err)
			}
			return err
		}
		if variant.IsDefault {
			if err := clearDefaultVariant(tx, variant.ProfileID); err != nil {
				return err
			}
		}
		return tx.Create(variant).Error
	})
}

func (s *gormStore) UpdateVariant(ctx context.Context, perms security.Permissions, variant *model.ProductSizeVariant) error {
	if !perms.CanEdit {
		return ErrReadOnly
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.ProductSizeVariant
		if err := tx.First(&current, variant.ID).Error; err != nil {
			return err
		}
		variant.ProfileID = current.ProfileID
		if variant.IsDefault && !current.IsDefault {
			if err := clearDefaultVariant(tx, current.ProfileID); err != nil {
				return err
			}
		}
		return tx.Model(&model.ProductSizeVariant{}).
			Where("id = ?", variant.ID).
			Updates(map[string]any{
				"width":       variant.Width,
				"thickness":   variant.Thickness,
				"material_id": variant.MaterialID,
				"is_default":  variant.IsDefault,
			}).Error
	})
}

func (s *gormStore) DeleteVariant(ctx context.Context, perms security.Permissions, variantID int64) error {
	if !perms.CanEdit {
		return ErrReadOnly
	}
	return s.db.WithContext(ctx).Delete(&model.ProductSizeVariant{}, variantID).Error
}

// At most one variant per profile is the default.
func clearDefaultVariant(tx *gorm.DB, profileID int64) error {
	return tx.Model(&model.ProductSizeVariant{}).
		Where("profile_id = ? AND is_default", profileID).
		Update("is_default", false).Error
}
