package store

import (
	"context"

	"gorm.io/gorm"

	"hydromat-tooling-backend/internal/model"
	"hydromat-tooling-backend/internal/security"
)

// ToolUpdate describes a partial tool update. Nil fields are untouched.
// PhotoSet marks an explicit photo change (Photo may be nil to clear it).
type ToolUpdate struct {
	ProfileID   *int64
	Position    *string
	ToolType    *string
	SetNumber   *int
	KnivesCount *int
	Status      *string
	Notes       *string
	Photo       []byte
	PhotoSet    bool
}

// ProfileUpdate describes a partial profile update.
type ProfileUpdate struct {
	Name        *string
	Description *string
	FeedRate    *float64
	PDFPath     *string
	Preview     []byte
	PreviewSet  bool
}

// ProfileStatistics aggregates the tooling of one profile.
type ProfileStatistics struct {
	TotalTools  int            `json:"total_tools"`
	ByPosition  map[string]int `json:"by_position"`
	ByType      map[string]int `json:"by_type"`
	TotalKnives int            `json:"total_knives"`
}

// AssignmentView is an assignment row joined with its tool's code.
type AssignmentView struct {
	ID           int64    `json:"id"`
	ProfileID    int64    `json:"profile_id"`
	ToolID       int64    `json:"tool_id"`
	HeadNumber   int      `json:"head_number"`
	RPM          *int     `json:"rpm"`
	PassDepth    *float64 `json:"pass_depth"`
	WorkMaterial string   `json:"work_material"`
	Remarks      string   `json:"remarks"`
	ToolCode     string   `json:"tool_code"`
	ToolPosition string   `json:"tool_position"`
}

// Store defines all database operations. Mutating operations take the
// caller's permissions and run as single transactions, so no reader ever
// observes a half-applied composite change.
type Store interface {
	DB() *gorm.DB

	// Tools
	CreateTool(ctx context.Context, perms security.Permissions, tool *model.Tool) error
	UpdateTool(ctx context.Context, perms security.Permissions, toolID int64, upd ToolUpdate) (*model.Tool, error)
	DeleteTool(ctx context.Context, perms security.Permissions, toolID int64) (*model.Tool, error)
	GetTool(ctx context.Context, toolID int64) (*model.Tool, error)
	ToolByCode(ctx context.Context, code string) (*model.Tool, error)
	ToolsByProfile(ctx context.Context, profileID int64) ([]model.Tool, error)
	ToolsInSet(ctx context.Context, profileID int64, prefix string) ([]model.Tool, error)
	IsToolAssigned(ctx context.Context, toolID int64) (bool, error)

	// Head assignments
	AssignToolToHead(ctx context.Context, perms security.Permissions, a *model.HeadAssignment) error
	ClearHeadAssignment(ctx context.Context, perms security.Permissions, profileID int64, head int) error
	AssignmentsByProfile(ctx context.Context, profileID int64) ([]AssignmentView, error)

	// Profiles
	CreateProfile(ctx context.Context, perms security.Permissions, profile *model.Profile) error
	UpdateProfile(ctx context.Context, perms security.Permissions, profileID int64, upd ProfileUpdate) (*model.Profile, error)
	DeleteProfile(ctx context.Context, perms security.Permissions, profileID int64) (*model.Profile, error)
	GetProfile(ctx context.Context, profileID int64) (*model.Profile, error)
	Profiles(ctx context.Context) ([]model.Profile, error)
	ProfileStatistics(ctx context.Context, profileID int64) (*ProfileStatistics, error)

	// Size catalogs
	FindOrCreateMaterialSize(ctx context.Context, perms security.Permissions, size *model.MaterialSize) error
	MaterialSizes(ctx context.Context) ([]model.MaterialSize, error)
	VariantsByProfile(ctx context.Context, profileID int64) ([]model.ProductSizeVariant, error)
	CreateVariant(ctx context.Context, perms security.Permissions, variant *model.ProductSizeVariant) error
	UpdateVariant(ctx context.Context, perms security.Permissions, variant *model.ProductSizeVariant) error
	DeleteVariant(ctx context.Context, perms security.Permissions, variantID int64) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying connection for read-only query handlers.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}
