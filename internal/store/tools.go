package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"hydromat-tooling-backend/internal/model"
	"hydromat-tooling-backend/internal/security"
	"hydromat-tooling-backend/internal/toolcode"
)

// CreateTool generates the tool's code from its identity fields and inserts
// it. When the tool joins an existing set whose first member carries a
// photo, that photo replaces whatever the caller supplied, keeping every
// set member byte-identical. The whole operation is one transaction.
func (s *gormStore) CreateTool(ctx context.Context, perms security.Permissions, tool *model.Tool) error {
	if !perms.CanEdit {
		return ErrReadOnly
	}

	code, err := toolcode.Generate(int(tool.ProfileID), tool.Position, tool.ToolType, tool.SetNumber)
	if err != nil {
		return err
	}
	tool.Code = code

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile model.Profile
		if err := tx.First(&profile, tool.ProfileID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("profile %d does not exist: %w", tool.ProfileID, err)
			}
			return err
		}

		var count int64
		if err := tx.Model(&model.Tool{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", ErrCodeExists, code)
		}

		first, err := firstToolInSet(tx, tool.ProfileID, toolcode.SetPrefix(code))
		if err != nil {
			return err
		}
		if first != nil && len(first.Photo) > 0 {
			tool.Photo = first.Photo
		}

		return tx.Create(tool).Error
	})
}

// UpdateTool applies a partial update. When the identity fields change, the
// code is regenerated and re-checked for uniqueness; a change that moves the
// tool into a different set inherits that set's photo the same way CreateTool
// does. A photo change is only
// honored on the first member of the set and then propagated to every
// member in the same transaction; on any other member the photo
// sub-operation is rejected with ErrNotFirstInSet while the remaining field
// changes still apply, and the updated tool is returned alongside the error.
func (s *gormStore) UpdateTool(ctx context.Context, perms security.Permissions, toolID int64, upd ToolUpdate) (*model.Tool, error) {
	if !perms.CanEdit {
		return nil, ErrReadOnly
	}

	var out model.Tool
	var photoErr error

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Tool
		if err := tx.First(&current, toolID).Error; err != nil {
			return err
		}

		profileID := current.ProfileID
		if upd.ProfileID != nil {
			profileID = *upd.ProfileID
		}
		position := current.Position
		if upd.Position != nil {
			position = *upd.Position
		}
		toolType := current.ToolType
		if upd.ToolType != nil {
			toolType = *upd.ToolType
		}
		setNumber := current.SetNumber
		if upd.SetNumber != nil {
			setNumber = *upd.SetNumber
		}

		code := current.Code
		updates := map[string]any{}

		identityChanged := profileID != current.ProfileID ||
			position != current.Position ||
			toolType != current.ToolType ||
			setNumber != current.SetNumber
		if identityChanged {
			if profileID != current.ProfileID {
				var profile model.Profile
				if err := tx.First(&profile, profileID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return fmt.Errorf("profile %d does not exist: %w", profileID, err)
					}
					return err
				}
			}
			newCode, err := toolcode.Generate(int(profileID), position, toolType, setNumber)
			if err != nil {
				return err
			}
			if newCode != code {
				var count int64
				if err := tx.Model(&model.Tool{}).
					Where("code = ? AND id <> ?", newCode, toolID).
					Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					return fmt.Errorf("%w: %s", ErrCodeExists, newCode)
				}
			}
			code = newCode
			updates["profile_id"] = profileID
			updates["position"] = position
			updates["tool_type"] = toolType
			updates["set_number"] = setNumber
			updates["code"] = code
		}

		if upd.KnivesCount != nil {
			updates["knives_count"] = *upd.KnivesCount
		}
		if upd.Status != nil {
			updates["status"] = *upd.Status
		}
		if upd.Notes != nil {
			updates["notes"] = *upd.Notes
		}

		if len(updates) > 0 {
			if err := tx.Model(&model.Tool{}).Where("id = ?", toolID).Updates(updates).Error; err != nil {
				return err
			}
		}

		// An identity change that lands the tool in a different set is a
		// join, so the destination set's photo wins, same as on create.
		if identityChanged && toolcode.SetPrefix(code) != toolcode.SetPrefix(current.Code) {
			var first model.Tool
			err := tx.Where("profile_id = ? AND code LIKE ? AND id <> ?",
				profileID, toolcode.SetPrefix(code)+"%", toolID).
				Order("id").
				First(&first).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err == nil && len(first.Photo) > 0 {
				if err := tx.Model(&model.Tool{}).
					Where("id = ?", toolID).
					Update("photo", first.Photo).Error; err != nil {
					return err
				}
			}
		}

		if upd.PhotoSet {
			first, err := firstToolInSet(tx, profileID, toolcode.SetPrefix(code))
			if err != nil {
				return err
			}
			if first == nil || first.ID != toolID {
				photoErr = ErrNotFirstInSet
			} else {
				// Propagate to the whole set, first member included.
				if err := tx.Model(&model.Tool{}).
					Where("profile_id = ? AND code LIKE ?", profileID, toolcode.SetPrefix(code)+"%").
					Update("photo", upd.Photo).Error; err != nil {
					return err
				}
			}
		}

		return tx.First(&out, toolID).Error
	})
	if err != nil {
		return nil, err
	}
	if photoErr != nil {
		return &out, photoErr
	}
	return &out, nil
}

// DeleteTool removes a tool. A tool still bound to a head cannot be
// deleted. Deleting the first member of a set never rewrites the photos of
// the remaining members.
func (s *gormStore) DeleteTool(ctx context.Context, perms security.Permissions, toolID int64) (*model.Tool, error) {
	if !perms.CanEdit {
		return nil, ErrReadOnly
	}

	var deleted model.Tool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deleted, toolID).Error; err != nil {
			return err
		}

		var assigned int64
		if err := tx.Model(&model.HeadAssignment{}).
			Where("tool_id = ?", toolID).
			Count(&assigned).Error; err != nil {
			return err
		}
		if assigned > 0 {
			return ErrToolAssigned
		}

		return tx.Delete(&model.Tool{}, toolID).Error
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

func (s *gormStore) GetTool(ctx context.Context, toolID int64) (*model.Tool, error) {
	var tool model.Tool
	if err := s.db.WithContext(ctx).First(&tool, toolID).Error; err != nil {
		return nil, err
	}
	return &tool, nil
}

func (s *gormStore) ToolByCode(ctx context.Context, code string) (*model.Tool, error) {
	var tool model.Tool
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&tool).Error; err != nil {
		return nil, err
	}
	return &tool, nil
}

func (s *gormStore) ToolsByProfile(ctx context.Context, profileID int64) ([]model.Tool, error) {
	var tools []model.Tool
	err := s.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("code").
		Find(&tools).Error
	return tools, err
}

// ToolsInSet lists the members of one tool set in creation order.
func (s *gormStore) ToolsInSet(ctx context.Context, profileID int64, prefix string) ([]model.Tool, error) {
	var tools []model.Tool
	err := s.db.WithContext(ctx).
		Where("profile_id = ? AND code LIKE ?", profileID, prefix+"%").
		Order("id").
		Find(&tools).Error
	return tools, err
}

func (s *gormStore) IsToolAssigned(ctx context.Context, toolID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.HeadAssignment{}).
		Where("tool_id = ?", toolID).
		Count(&count).Error
	return count > 0, err
}

// firstToolInSet returns the set member with the lowest ID, or nil when the
// set is empty. The first member owns the set's photo.
func firstToolInSet(tx *gorm.DB, profileID int64, prefix string) (*model.Tool, error) {
	var first model.Tool
	err := tx.Where("profile_id = ? AND code LIKE ?", profileID, prefix+"%").
		Order("id").
		First(&first).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &first, nil
}
