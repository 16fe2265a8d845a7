package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"hydromat-tooling-backend/internal/model"
	"hydromat-tooling-backend/internal/security"
)

// CreateProfile inserts a new profile. Names are unique.
func (s *gormStore) CreateProfile(ctx context.Context, perms security.Permissions, profile *model.Profile) error {
	if !perms.CanEdit {
		return ErrReadOnly
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Profile{}).Where("name = ?", profile.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %q", ErrNameExists, profile.Name)
		}
		return tx.Create(profile).Error
	})
}

func (s *gormStore) UpdateProfile(ctx context.Context, perms security.Permissions, profileID int64, upd ProfileUpdate) (*model.Profile, error) {
	if !perms.CanEdit {
		return nil, ErrReadOnly
	}

	var out model.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Profile
		if err := tx.First(&current, profileID).Error; err != nil {
			return err
		}

		updates := map[string]any{}
		if upd.Name != nil && *upd.Name != current.Name {
			var count int64
			if err := tx.Model(&model.Profile{}).
				Where("name = ? AND id <> ?", *upd.Name, profileID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fmt.Errorf("%w: %q", ErrNameExists, *upd.Name)
			}
			updates["name"] = *upd.Name
		}
		if upd.Description != nil {
			updates["description"] = *upd.Description
		}
		if upd.FeedRate != nil {
			updates["feed_rate"] = *upd.FeedRate
		}
		if upd.PDFPath != nil {
			updates["pdf_path"] = *upd.PDFPath
		}
		if upd.PreviewSet {
			updates["preview"] = upd.Preview
		}

		if len(updates) > 0 {
			if err := tx.Model(&model.Profile{}).Where("id = ?", profileID).Updates(updates).Error; err != nil {
				return err
			}
		}
		return tx.First(&out, profileID).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProfile removes a profile and everything hanging off it. Child rows
// are deleted explicitly so the cascade does not depend on the driver's
// foreign key enforcement.
func (s *gormStore) DeleteProfile(ctx context.Context, perms security.Permissions, profileID int64) (*model.Profile, error) {
	if !perms.CanEdit {
		return nil, ErrReadOnly
	}

	var deleted model.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deleted, profileID).Error; err != nil {
			return err
		}
		if err := tx.Where("profile_id = ?", profileID).Delete(&model.HeadAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("profile_id = ?", profileID).Delete(&model.Tool{}).Error; err != nil {
			return err
		}
		if err := tx.Where("profile_id = ?", profileID).Delete(&model.ProductSizeVariant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Profile{}, profileID).Error
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

func (s *gormStore) GetProfile(ctx context.Context, profileID int64) (*model.Profile, error) {
	var profile model.Profile
	if err := s.db.WithContext(ctx).First(&profile, profileID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *gormStore) Profiles(ctx context.Context) ([]model.Profile, error) {
	var profiles []model.Profile
	err := s.db.WithContext(ctx).Order("name").Find(&profiles).Error
	return profiles, err
}

// ProfileStatistics counts a profile's tools by position and type.
func (s *gormStore) ProfileStatistics(ctx context.Context, profileID int64) (*ProfileStatistics, error) {
	if _, err := s.GetProfile(ctx, profileID); err != nil {
		return nil, err
	}

	tools, err := s.ToolsByProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	stats := &ProfileStatistics{
		TotalTools: len(tools),
		ByPosition: map[string]int{},
		ByType:     map[string]int{},
	}
	for _, tool := range tools {
		stats.ByPosition[tool.Position]++
		stats.ByType[tool.ToolType]++
		stats.TotalKnives += tool.KnivesCount
	}
	return stats, nil
}
