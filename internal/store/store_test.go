package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hydromat-tooling-backend/internal/model"
	"hydromat-tooling-backend/internal/security"
	"hydromat-tooling-backend/internal/toolcode"
)

var (
	editPerms     = security.ModeFullAccess.Permissions()
	readOnlyPerms = security.ModeReadOnly.Permissions()
)

// newTestStore opens a fresh in-memory SQLite database for one test.
func newTestStore(t *testing.T) Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(
		&model.Profile{},
		&model.MaterialSize{},
		&model.ProductSizeVariant{},
		&model.Tool{},
		&model.HeadAssignment{},
		&model.PushSubscription{},
	))

	return NewGormStore(db)
}

func createTestProfile(t *testing.T, s Store, name string) *model.Profile {
	t.Helper()
	profile := &model.Profile{Name: name, FeedRate: 30}
	require.NoError(t, s.CreateProfile(context.Background(), editPerms, profile))
	return profile
}

func TestCreateToolGeneratesCode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	profile := createTestProfile(t, s, "Skirting 21x120")

	tool := &model.Tool{
		ProfileID:   profile.ID,
		Position:    toolcode.PositionTop,
		ToolType:    toolcode.TypeProfile,
		SetNumber:   3,
		KnivesCount: 6,
		Status:      "ready",
	}
	require.NoError(t, s.CreateTool(ctx, editPerms, tool))
	assert.Equal(t, fmt.Sprintf("21%03d3", profile.ID), tool.Code)

	// Same identity again collides on the deterministic code.
	dup := &model.Tool{
		ProfileID: profile.ID,
		Position:  toolcode.PositionTop,
		ToolType:  toolcode.TypeProfile,
		SetNumber: 3,
	}
	err := s.CreateTool(ctx, editPerms, dup)
	assert.ErrorIs(t, err, ErrCodeExists)

	// Invalid identity surfaces the generator's validation error.
	bad := &model.Tool{ProfileID: profile.ID, Position: "Diagonal", ToolType: toolcode.TypeProfile, SetNumber: 1}
	err = s.CreateTool(ctx, editPerms, bad)
	var verr *toolcode.ValidationError
	assert.ErrorAs(t, err, &verr)

	// Unknown profile is rejected.
	orphan := &model.Tool{ProfileID: 999, Position: toolcode.PositionTop, ToolType: toolcode.TypeProfile, SetNumber: 1}
	assert.Error(t, s.CreateTool(ctx, editPerms, orphan))
}

func TestSetPhotoPropagation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	profile := createTestProfile(t, s, "Architrave 18x96")

	photo1 := []byte("photo-one")
	first := &model.Tool{
		ProfileID: profile.ID,
		Position:  toolcode.PositionBottom,
		ToolType:  toolcode.TypeStraight,
		SetNumber: 1,
		Photo:     photo1,
	}
	require.NoError(t, s.CreateTool(ctx, editPerms, first))

	// A new member of the same set inherits the first member's photo, even
	// when the caller supplies a different one.
	second := &model.Tool{
		ProfileID: profile.ID,
		Position:  toolcode.PositionBottom,
		ToolType:  toolcode.TypeStraight,
		SetNumber: 2,
		Photo:     []byte("caller-supplied"),
	}
	require.NoError(t, s.CreateTool(ctx, editPerms, second))
	assert.Equal(t, photo1, second.Photo)
	assert.Equal(t, toolcode.SetPrefix(first.Code), toolcode.SetPrefix(second.Code))

	stored, err := s.GetTool(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, photo1, stored.Photo)

	// Updating the first member's photo propagates to the whole set.
	photo2 := []byte("photo-two")
	_, err = s.UpdateTool(ctx, editPerms, first.ID, ToolUpdate{Photo: photo2, PhotoSet: true})
	require.NoError(t, err)

	members, err := s.ToolsInSet(ctx, profile.ID, toolcode.SetPrefix(first.Code))
	require.NoError(t, err)
	require.Len(t, members, 2)
	for _, member := range members {
		assert.Equal(t, photo2, member.Photo, "tool %d", member.ID)
	}

	// A photo edit on a non-first member is rejected, while other field
	// changes in the same call still apply.
	notes := "rebalanced"
	updated, err := s.UpdateTool(ctx, editPerms, second.ID, ToolUpdate{
		Notes:    &notes,
		Photo:    []byte("rogue"),
		PhotoSet: true,
	})
	assert.ErrorIs(t, err, ErrNotFirstInSet)
	require.NotNil(t, updated)
	assert.Equal(t, notes, updated.Notes)
	assert.Equal(t, photo2, updated.Photo, "photo must stay untouched")
}

func TestCreateToolIntoSetWithoutPhoto(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	profile := createTestProfile(t, s, "Cladding 19x145")

	first := &model.Tool{
		ProfileID: profile.ID,
		Position:  toolcode.PositionLeft,
		ToolType:  toolcode.TypeProfile,
		SetNumber: 1,
	}
	require.NoError(t, s.CreateTool(ctx, editPerms, first))

	// The first member has no photo, so a new member keeps its own.
	supplied := []byte("supplied")
	second := &model.Tool{
		ProfileID: profile.ID,
		Position:  toolcode.PositionLeft,
		ToolType:  toolcode.TypeProfile,
		SetNumber: 2,
		Photo:     supplied,
	}
	require.NoError(t, s.CreateTool(ctx, editPerms, second))
	assert.Equal(t, supplied, second.Photo)
}

func TestUpdateToolRegeneratesCode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	profile := createTestProfile(t, s, "Corner 45")

	tool := &model.Tool{
		ProfileID: profile.ID,
		Position:  toolcode.PositionRight,
		ToolType:  toolcode.TypeStraight,
		SetNumber: 1,
	}
	require.NoError(t, s.CreateTool(ctx, editPerms, tool))

	position := toolcode.PositionLeft
	updated, err := s.UpdateTool(ctx, editPerms, tool.ID, ToolUpdate{Position: &position})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("40%03d1", profile.ID), updated.Code)
	assert.Equal(t, position, updated.Position)

	// Moving onto an occupied identity is refused.
	other := &model.Tool{
		ProfileID: profile.ID,
		Position:  toolcode.PositionRight,
		ToolType:  toolcode.TypeStraight,
		SetNumber: 1,
	}
	require.NoError(t, s.CreateTool(ctx, editPerms, other))

	back := toolcode.PositionRight
	_, err = s.UpdateTool(ctx, editPerms, tool.ID, ToolUpdate{Position: &back})
	assert.ErrorIs(t, err, ErrCodeExists)
}

func TestUpdateToolJoinsSetInheritsPhoto(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	profile := createTestProfile(t, s, "Panel 16x200")

	setPhoto := []byte("set-photo")
	anchor := &model.Tool{
		ProfileID: profile.ID,
		Position:  toolcode.PositionTop,
		ToolType:  toolcode.TypeProfile,
		SetNumber: 1,
		Photo:     setPhoto,
	}
	require.NoError(t, s.CreateTool(ctx, editPerms, anchor))

	loner := &model.Tool{
		ProfileID: profile.ID,
		Position:  toolcode.PositionBottom,
		ToolType:  toolcode.TypeStraight,
		SetNumber: 1,
		Photo:     []byte("other-photo"),
	}
	require.NoError(t, s.CreateTool(ctx, editPerms, loner))

	// Re-identifying the loner into the anchor's set is a join: the set's
	// photo replaces the loner's own.
	position := toolcode.PositionTop
	toolType := toolcode.TypeProfile
	setNumber := 2
	moved, err := s.UpdateTool(ctx, editPerms, loner.ID, ToolUpdate{
		Position:  &position,
		ToolType:  &toolType,
		SetNumber: &setNumber,
	})
	require.NoError(t, err)
	assert.Equal(t, toolcode.SetPrefix(anchor.Code), toolcode.SetPrefix(moved.Code))
	assert.Equal(t, setPhoto, moved.Photo)

	members, err := s.ToolsInSet(ctx, profile.ID, toolcode.SetPrefix(anchor.Code))
	require.NoError(t, err)
	require.Len(t, members, 2)
	for _, member := range members {
		assert.Equal(t, setPhoto, member.Photo, "tool %d (code %s)", member.ID, member.Code)
	}

	// Moving into an empty set keeps the tool's own photo.
	back := toolcode.PositionBottom
	straight := toolcode.TypeStraight
	one := 1
	alone, err := s.UpdateTool(ctx, editPerms, loner.ID, ToolUpdate{
		Position:  &back,
		ToolType:  &straight,
		SetNumber: &one,
	})
	require.NoError(t, err)
	assert.Equal(t, setPhoto, alone.Photo, "no members to inherit from")

	// A set-number-only change stays inside the set and touches no photo.
	three := 3
	sibling, err := s.UpdateTool(ctx, editPerms, anchor.ID, ToolUpdate{SetNumber: &three})
	require.NoError(t, err)
	assert.Equal(t, setPhoto, sibling.Photo)
}

func TestUpdateToolProfileMustExist(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	profile := createTestProfile(t, s, "Batten 21x45")

	tool := &model.Tool{
		ProfileID: profile.ID,
		Position:  toolcode.PositionRight,
		ToolType:  toolcode.TypeStraight,
		SetNumber: 1,
	}
	require.NoError(t, s.CreateTool(ctx, editPerms, tool))

	missing := int64(42)
	_, err := s.UpdateTool(ctx, editPerms, tool.ID, ToolUpdate{ProfileID: &missing})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// The tool stays where it was.
	stored, err := s.GetTool(ctx, tool.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, stored.ProfileID)
	assert.Equal(t, tool.Code, stored.Code)

	other := createTestProfile(t, s, "Batten 21x70")
	rehomed, err := s.UpdateTool(ctx, editPerms, tool.ID, ToolUpdate{ProfileID: &other.ID})
	require.NoError(t, err)
	assert.Equal(t, other.ID, rehomed.ProfileID)
	assert.Equal(t, fmt.Sprintf("30%03d1", other.ID), rehomed.Code)
}

func TestDeleteTool(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	profile := createTestProfile(t, s, "Handrail 40x60")

	first := &model.Tool{ProfileID: profile.ID, Position: toolcode.PositionTop, ToolType: toolcode.TypeStraight, SetNumber: 1, Photo: []byte("p")}
	second := &model.Tool{ProfileID: profile.ID, Position: toolcode.PositionTop, ToolType: toolcode.TypeStraight, SetNumber: 2}
	require.NoError(t, s.CreateTool(ctx, editPerms, first))
	require.NoError(t, s.CreateTool(ctx, editPerms, second))

	// An assigned tool cannot be deleted.
	assignment := &model.HeadAssignment{ProfileID: profile.ID, ToolID: first.ID, HeadNumber: 7}
	require.NoError(t, s.AssignToolToHead(ctx, editPerms, assignment))
	_, err := s.DeleteTool(ctx, editPerms, first.ID)
	assert.ErrorIs(t, err, ErrToolAssigned)

	require.NoError(t, s.ClearHeadAssignment(ctx, editPerms, profile.ID, 7))

	// Deleting the first member leaves the survivor's photo untouched.
	deleted, err := s.DeleteTool(ctx, editPerms, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, deleted.ID)

	survivor, err := s.GetTool(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("p"), survivor.Photo)

	_, err = s.DeleteTool(ctx, editPerms, first.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAssignmentReplaceIsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	profile := createTestProfile(t, s, "Window bead")

	toolX := &model.Tool{ProfileID: profile.ID, Position: toolcode.PositionRight, ToolType: toolcode.TypeProfile, SetNumber: 1}
	toolY := &model.Tool{ProfileID: profile.ID, Position: toolcode.PositionRight, ToolType: toolcode.TypeProfile, SetNumber: 2}
	require.NoError(t, s.CreateTool(ctx, editPerms, toolX))
	require.NoError(t, s.CreateTool(ctx, editPerms, toolY))

	rpm := 6000
	require.NoError(t, s.AssignToolToHead(ctx, editPerms, &model.HeadAssignment{
		ProfileID: profile.ID, ToolID: toolX.ID, HeadNumber: 3, RPM: &rpm,
	}))
	require.NoError(t, s.AssignToolToHead(ctx, editPerms, &model.HeadAssignment{
		ProfileID: profile.ID, ToolID: toolY.ID, HeadNumber: 3,
	}))

	rows, err := s.AssignmentsByProfile(ctx, profile.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1, "exactly one assignment per (profile, head)")
	assert.Equal(t, toolY.ID, rows[0].ToolID)
	assert.Equal(t, 3, rows[0].HeadNumber)
	assert.Equal(t, toolY.Code, rows[0].ToolCode)

	// A tool may sit on several heads at once.
	require.NoError(t, s.AssignToolToHead(ctx, editPerms, &model.HeadAssignment{
		ProfileID: profile.ID, ToolID: toolY.ID, HeadNumber: 5,
	}))
	assigned, err := s.IsToolAssigned(ctx, toolY.ID)
	require.NoError(t, err)
	assert.True(t, assigned)

	// Head numbers outside the table are a caller error.
	err = s.AssignToolToHead(ctx, editPerms, &model.HeadAssignment{
		ProfileID: profile.ID, ToolID: toolY.ID, HeadNumber: 11,
	})
	assert.Error(t, err)
}

func TestReadOnlyPermissions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	profile := createTestProfile(t, s, "Guarded")

	tool := &model.Tool{ProfileID: profile.ID, Position: toolcode.PositionTop, ToolType: toolcode.TypeProfile, SetNumber: 1}
	assert.ErrorIs(t, s.CreateTool(ctx, readOnlyPerms, tool), ErrReadOnly)
	assert.ErrorIs(t, s.CreateProfile(ctx, readOnlyPerms, &model.Profile{Name: "x"}), ErrReadOnly)
	_, err := s.UpdateTool(ctx, readOnlyPerms, 1, ToolUpdate{})
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.ErrorIs(t, s.AssignToolToHead(ctx, readOnlyPerms, &model.HeadAssignment{HeadNumber: 1}), ErrReadOnly)
	assert.ErrorIs(t, s.ClearHeadAssignment(ctx, readOnlyPerms, profile.ID, 1), ErrReadOnly)

	// Reads stay available.
	_, err = s.Profiles(ctx)
	assert.NoError(t, err)
}

func TestProfileLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	profile := createTestProfile(t, s, "Fence post")
	assert.ErrorIs(t, s.CreateProfile(ctx, editPerms, &model.Profile{Name: "Fence post"}), ErrNameExists)

	name := "Fence post v2"
	updated, err := s.UpdateProfile(ctx, editPerms, profile.ID, ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	tool := &model.Tool{ProfileID: profile.ID, Position: toolcode.PositionBottom, ToolType: toolcode.TypeProfile, SetNumber: 1, KnivesCount: 4}
	require.NoError(t, s.CreateTool(ctx, editPerms, tool))
	require.NoError(t, s.AssignToolToHead(ctx, editPerms, &model.HeadAssignment{
		ProfileID: profile.ID, ToolID: tool.ID, HeadNumber: 1,
	}))

	stats, err := s.ProfileStatistics(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalTools)
	assert.Equal(t, 1, stats.ByPosition[toolcode.PositionBottom])
	assert.Equal(t, 1, stats.ByType[toolcode.TypeProfile])
	assert.Equal(t, 4, stats.TotalKnives)

	_, err = s.DeleteProfile(ctx, editPerms, profile.ID)
	require.NoError(t, err)

	_, err = s.GetTool(ctx, tool.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "tools go with their profile")
	rows, err := s.AssignmentsByProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMaterialSizesAndVariants(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	profile := createTestProfile(t, s, "Decking 28x145")

	size := &model.MaterialSize{Width: 100, Thickness: 32}
	require.NoError(t, s.FindOrCreateMaterialSize(ctx, editPerms, size))
	require.NotZero(t, size.ID)
	assert.Equal(t, "100 x 32", size.Name)

	again := &model.MaterialSize{Width: 100, Thickness: 32, Name: "ignored"}
	require.NoError(t, s.FindOrCreateMaterialSize(ctx, editPerms, again))
	assert.Equal(t, size.ID, again.ID, "same dimensions resolve to the same row")

	v1 := &model.ProductSizeVariant{ProfileID: profile.ID, Width: 90, Thickness: 28, MaterialID: &size.ID, IsDefault: true}
	v2 := &model.ProductSizeVariant{ProfileID: profile.ID, Width: 92, Thickness: 28, IsDefault: true}
	require.NoError(t, s.CreateVariant(ctx, editPerms, v1))
	require.NoError(t, s.CreateVariant(ctx, editPerms, v2))

	variants, err := s.VariantsByProfile(ctx, profile.ID)
	require.NoError(t, err)
	require.Len(t, variants, 2)
	assert.False(t, variants[0].IsDefault, "new default displaces the old one")
	assert.True(t, variants[1].IsDefault)
	assert.Equal(t, "90 x 28 mm; 92 x 28 mm", model.FormatVariants(variants))

	require.NoError(t, s.DeleteVariant(ctx, editPerms, v1.ID))
	variants, err = s.VariantsByProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.Len(t, variants, 1)
}
