package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"hydromat-tooling-backend/internal/heads"
	"hydromat-tooling-backend/internal/model"
	"hydromat-tooling-backend/internal/security"
)

// AssignToolToHead replaces the assignment on (profile, head) with the given
// one. Delete and insert run in one transaction: readers either see the old
// assignment or the new one, never two rows and never none.
func (s *gormStore) AssignToolToHead(ctx context.Context, perms security.Permissions, a *model.HeadAssignment) error {
	if !perms.CanEdit {
		return ErrReadOnly
	}
	if _, err := heads.RequiredPosition(a.HeadNumber); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tool model.Tool
		if err := tx.First(&tool, a.ToolID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("tool %d does not exist: %w", a.ToolID, err)
			}
			return err
		}

		if err := tx.Where("profile_id = ? AND head_number = ?", a.ProfileID, a.HeadNumber).
			Delete(&model.HeadAssignment{}).Error; err != nil {
			return err
		}

		return tx.Create(a).Error
	})
}

// ClearHeadAssignment removes the assignment on (profile, head), if any.
func (s *gormStore) ClearHeadAssignment(ctx context.Context, perms security.Permissions, profileID int64, head int) error {
	if !perms.CanEdit {
		return ErrReadOnly
	}
	return s.db.WithContext(ctx).
		Where("profile_id = ? AND head_number = ?", profileID, head).
		Delete(&model.HeadAssignment{}).Error
}

// AssignmentsByProfile lists a profile's assignments joined with each
// tool's code and position, ordered by head number.
func (s *gormStore) AssignmentsByProfile(ctx context.Context, profileID int64) ([]AssignmentView, error) {
	var rows []AssignmentView
	err := s.db.WithContext(ctx).
		Model(&model.HeadAssignment{}).
		Select("head_assignments.id, head_assignments.profile_id, head_assignments.tool_id, "+
			"head_assignments.head_number, head_assignments.rpm, head_assignments.pass_depth, "+
			"head_assignments.work_material, head_assignments.remarks, "+
			"tools.code AS tool_code, tools.position AS tool_position").
		Joins("JOIN tools ON tools.id = head_assignments.tool_id").
		Where("head_assignments.profile_id = ?", profileID).
		Order("head_assignments.head_number").
		Scan(&rows).Error
	return rows, err
}
