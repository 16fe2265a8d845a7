package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hydromat-tooling-backend/internal/model"
)

// GetMaterialSizes handles GET /api/material_sizes: the shared stock-size
// catalog, ordered by dimensions.
func GetMaterialSizes(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sizes []model.MaterialSize
		if err := db.Order("width, thickness").Find(&sizes).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve material sizes"})
			return
		}
		c.JSON(http.StatusOK, sizes)
	}
}

type createMaterialSizeRequest struct {
	Width     float64 `json:"width" binding:"required"`
	Thickness float64 `json:"thickness" binding:"required"`
	Name      string  `json:"name"`
}

// CreateMaterialSize handles POST /api/material_sizes. Posting dimensions
// that already exist returns the existing row instead of a duplicate.
func (h *Handler) CreateMaterialSize(c *gin.Context) {
	var req createMaterialSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	size := &model.MaterialSize{
		Width:     req.Width,
		Thickness: req.Thickness,
		Name:      req.Name,
	}
	if err := h.store.FindOrCreateMaterialSize(c.Request.Context(), h.perms(), size); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, size)
}

// GetVariants handles GET /api/profiles/{profile_id}/variants.
func (h *Handler) GetVariants(c *gin.Context) {
	profileID, err := strconv.ParseInt(c.Param("profile_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return
	}

	variants, err := h.store.VariantsByProfile(c.Request.Context(), profileID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"variants": variants,
		"display":  model.FormatVariants(variants),
	})
}

type variantRequest struct {
	Width      float64 `json:"width" binding:"required"`
	Thickness  float64 `json:"thickness"`
	MaterialID *int64  `json:"material_id"`
	IsDefault  bool    `json:"is_default"`
}

// CreateVariant handles POST /api/profiles/{profile_id}/variants.
func (h *Handler) CreateVariant(c *gin.Context) {
	profileID, err := strconv.ParseInt(c.Param("profile_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return
	}

	var req variantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	variant := &model.ProductSizeVariant{
		ProfileID:  profileID,
		Width:      req.Width,
		Thickness:  req.Thickness,
		MaterialID: req.MaterialID,
		IsDefault:  req.IsDefault,
	}
	if err := h.store.CreateVariant(c.Request.Context(), h.perms(), variant); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, variant)
}

// UpdateVariant handles PUT /api/variants/{variant_id}.
func (h *Handler) UpdateVariant(c *gin.Context) {
	variantID, err := strconv.ParseInt(c.Param("variant_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid variant id"})
		return
	}

	var req variantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	variant := &model.ProductSizeVariant{
		ID:         variantID,
		Width:      req.Width,
		Thickness:  req.Thickness,
		MaterialID: req.MaterialID,
		IsDefault:  req.IsDefault,
	}
	if err := h.store.UpdateVariant(c.Request.Context(), h.perms(), variant); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, variant)
}

// DeleteVariant handles DELETE /api/variants/{variant_id}.
func (h *Handler) DeleteVariant(c *gin.Context) {
	variantID, err := strconv.ParseInt(c.Param("variant_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid variant id"})
		return
	}

	if err := h.store.DeleteVariant(c.Request.Context(), h.perms(), variantID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
