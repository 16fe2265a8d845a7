package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hydromat-tooling-backend/internal/events"
	"hydromat-tooling-backend/internal/model"
	"hydromat-tooling-backend/internal/store"
)

// ProfileResponse represents the API response for a single profile.
type ProfileResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	FeedRate    float64 `json:"feed_rate"`
	PDFPath     string  `json:"pdf_path"`
	HasPreview  bool    `json:"has_preview"`
	TotalTools  int64   `json:"total_tools"`
}

// GetProfiles handles the GET /api/profiles request.
func GetProfiles(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var profiles []model.Profile
		if err := db.Order("name").Find(&profiles).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve profiles"})
			return
		}

		type aggRow struct {
			ProfileID  int64
			TotalTools int64
		}
		var aggs []aggRow
		if err := db.
			Model(&model.Tool{}).
			Select("profile_id as profile_id, COUNT(*) as total_tools").
			Group("profile_id").
			Scan(&aggs).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate tools"})
			return
		}

		aggMap := make(map[int64]aggRow, len(aggs))
		for _, a := range aggs {
			aggMap[a.ProfileID] = a
		}

		responses := make([]ProfileResponse, 0, len(profiles))
		for _, p := range profiles {
			responses = append(responses, ProfileResponse{
				ID:          p.ID,
				Name:        p.Name,
				Description: p.Description,
				FeedRate:    p.FeedRate,
				PDFPath:     p.PDFPath,
				HasPreview:  len(p.Preview) > 0,
				TotalTools:  aggMap[p.ID].TotalTools,
			})
		}
		c.JSON(http.StatusOK, responses)
	}
}

type createProfileRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	FeedRate    *float64 `json:"feed_rate"`
	PDFPath     string   `json:"pdf_path"`
	Preview     []byte   `json:"preview"`
}

// CreateProfile handles POST /api/profiles.
func (h *Handler) CreateProfile(c *gin.Context) {
	var req createProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	feedRate := 30.0
	if req.FeedRate != nil {
		feedRate = *req.FeedRate
	}

	profile := &model.Profile{
		Name:        req.Name,
		Description: req.Description,
		FeedRate:    feedRate,
		PDFPath:     req.PDFPath,
		Preview:     req.Preview,
	}
	if err := h.store.CreateProfile(c.Request.Context(), h.perms(), profile); err != nil {
		abortWithError(c, err)
		return
	}

	h.publish(events.ProfileCreated{ProfileID: profile.ID, Name: profile.Name})
	c.JSON(http.StatusCreated, gin.H{"id": profile.ID, "name": profile.Name})
}

// GetProfile handles GET /api/profiles/{profile_id}. The response carries
// the normalized variant rows plus the legacy display string.
func (h *Handler) GetProfile(c *gin.Context) {
	profileID, err := strconv.ParseInt(c.Param("profile_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return
	}

	ctx := c.Request.Context()
	profile, err := h.store.GetProfile(ctx, profileID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	variants, err := h.store.VariantsByProfile(ctx, profileID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                    profile.ID,
		"name":                  profile.Name,
		"description":           profile.Description,
		"feed_rate":             profile.FeedRate,
		"pdf_path":              profile.PDFPath,
		"has_preview":           len(profile.Preview) > 0,
		"preview":               profile.Preview,
		"variants":              variants,
		"product_sizes_display": model.FormatVariants(variants),
	})
}

type updateProfileRequest struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	FeedRate     *float64 `json:"feed_rate"`
	PDFPath      *string  `json:"pdf_path"`
	Preview      []byte   `json:"preview"`
	ClearPreview bool     `json:"clear_preview"`
}

// UpdateProfile handles PUT /api/profiles/{profile_id}.
func (h *Handler) UpdateProfile(c *gin.Context) {
	profileID, err := strconv.ParseInt(c.Param("profile_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upd := store.ProfileUpdate{
		Name:        req.Name,
		Description: req.Description,
		FeedRate:    req.FeedRate,
		PDFPath:     req.PDFPath,
	}
	if req.ClearPreview {
		upd.PreviewSet = true
	} else if len(req.Preview) > 0 {
		upd.PreviewSet = true
		upd.Preview = req.Preview
	}

	profile, err := h.store.UpdateProfile(c.Request.Context(), h.perms(), profileID, upd)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": profile.ID, "name": profile.Name})
}

// DeleteProfile handles DELETE /api/profiles/{profile_id}. Tools,
// assignments and variants of the profile go with it.
func (h *Handler) DeleteProfile(c *gin.Context) {
	profileID, err := strconv.ParseInt(c.Param("profile_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return
	}

	profile, err := h.store.DeleteProfile(c.Request.Context(), h.perms(), profileID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.publish(events.ProfileDeleted{ProfileID: profile.ID, Name: profile.Name})
	c.Status(http.StatusNoContent)
}

// GetProfileStatistics handles GET /api/profiles/{profile_id}/statistics.
func (h *Handler) GetProfileStatistics(c *gin.Context) {
	profileID, err := strconv.ParseInt(c.Param("profile_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return
	}

	stats, err := h.store.ProfileStatistics(c.Request.Context(), profileID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
