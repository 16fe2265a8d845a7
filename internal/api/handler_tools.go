package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hydromat-tooling-backend/internal/events"
	"hydromat-tooling-backend/internal/model"
	"hydromat-tooling-backend/internal/store"
	"hydromat-tooling-backend/internal/toolcode"
)

type toolResponse struct {
	ID          int64  `json:"id"`
	ProfileID   int64  `json:"profile_id"`
	Position    string `json:"position"`
	ToolType    string `json:"tool_type"`
	SetNumber   int    `json:"set_number"`
	Code        string `json:"code"`
	KnivesCount int    `json:"knives_count"`
	Status      string `json:"status"`
	Notes       string `json:"notes"`
	HasPhoto    bool   `json:"has_photo"`
	Photo       []byte `json:"photo,omitempty"`
}

func newToolResponse(t *model.Tool) toolResponse {
	return toolResponse{
		ID:          t.ID,
		ProfileID:   t.ProfileID,
		Position:    t.Position,
		ToolType:    t.ToolType,
		SetNumber:   t.SetNumber,
		Code:        t.Code,
		KnivesCount: t.KnivesCount,
		Status:      t.Status,
		Notes:       t.Notes,
		HasPhoto:    len(t.Photo) > 0,
		Photo:       t.Photo,
	}
}

type createToolRequest struct {
	ProfileID   int64  `json:"profile_id" binding:"required"`
	Position    string `json:"position" binding:"required"`
	ToolType    string `json:"tool_type" binding:"required"`
	SetNumber   int    `json:"set_number"`
	KnivesCount *int   `json:"knives_count"`
	Status      string `json:"status"`
	Notes       string `json:"notes"`
	Photo       []byte `json:"photo"`
}

// CreateTool handles POST /api/tools.
func (h *Handler) CreateTool(c *gin.Context) {
	var req createToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.SetNumber == 0 {
		req.SetNumber = 1
	}
	knives := 6
	if req.KnivesCount != nil {
		knives = *req.KnivesCount
	}
	if req.Status == "" {
		req.Status = "ready"
	}

	tool := &model.Tool{
		ProfileID:   req.ProfileID,
		Position:    req.Position,
		ToolType:    req.ToolType,
		SetNumber:   req.SetNumber,
		KnivesCount: knives,
		Status:      req.Status,
		Notes:       req.Notes,
		Photo:       req.Photo,
	}
	if err := h.store.CreateTool(c.Request.Context(), h.perms(), tool); err != nil {
		abortWithError(c, err)
		return
	}

	h.publish(events.ToolCreated{ToolID: tool.ID, ProfileID: tool.ProfileID, Code: tool.Code})
	c.JSON(http.StatusCreated, newToolResponse(tool))
}

// DecodeToolCode handles GET /api/toolcode/{code}: structural decode of a
// code without touching the database. Clients use it for as-you-type
// feedback.
func DecodeToolCode(c *gin.Context) {
	code := c.Param("code")
	decoded := toolcode.Decode(code)
	if decoded == nil {
		c.JSON(http.StatusOK, gin.H{"valid": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"position":   decoded.Position,
		"tool_type":  decoded.ToolType,
		"profile_id": decoded.ProfileID,
		"set_number": decoded.SetNumber,
		"set_prefix": toolcode.SetPrefix(code),
	})
}

// GetToolByCode handles GET /api/tools/code/{code}.
func (h *Handler) GetToolByCode(c *gin.Context) {
	code := c.Param("code")
	if !toolcode.Validate(code) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "not a valid tool code"})
		return
	}

	tool, err := h.store.ToolByCode(c.Request.Context(), code)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newToolResponse(tool))
}

// GetTool handles GET /api/tools/{tool_id}.
func (h *Handler) GetTool(c *gin.Context) {
	toolID, err := strconv.ParseInt(c.Param("tool_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tool id"})
		return
	}

	tool, err := h.store.GetTool(c.Request.Context(), toolID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newToolResponse(tool))
}

// GetProfileTools handles GET /api/profiles/{profile_id}/tools.
func (h *Handler) GetProfileTools(c *gin.Context) {
	profileID, err := strconv.ParseInt(c.Param("profile_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return
	}

	tools, err := h.store.ToolsByProfile(c.Request.Context(), profileID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	responses := make([]toolResponse, 0, len(tools))
	for i := range tools {
		responses = append(responses, newToolResponse(&tools[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// GetToolSet handles GET /api/tools/{tool_id}/set: the members of the
// tool's set in creation order (the first one owns the shared photo).
func (h *Handler) GetToolSet(c *gin.Context) {
	toolID, err := strconv.ParseInt(c.Param("tool_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tool id"})
		return
	}

	tool, err := h.store.GetTool(c.Request.Context(), toolID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	members, err := h.store.ToolsInSet(c.Request.Context(), tool.ProfileID, toolcode.SetPrefix(tool.Code))
	if err != nil {
		abortWithError(c, err)
		return
	}

	responses := make([]toolResponse, 0, len(members))
	for i := range members {
		responses = append(responses, newToolResponse(&members[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"prefix": toolcode.SetPrefix(tool.Code),
		"tools":  responses,
	})
}

type updateToolRequest struct {
	ProfileID   *int64  `json:"profile_id"`
	Position    *string `json:"position"`
	ToolType    *string `json:"tool_type"`
	SetNumber   *int    `json:"set_number"`
	KnivesCount *int    `json:"knives_count"`
	Status      *string `json:"status"`
	Notes       *string `json:"notes"`
	Photo       []byte  `json:"photo"`
	ClearPhoto  bool    `json:"clear_photo"`
}

// UpdateTool handles PUT /api/tools/{tool_id}. A rejected photo edit on a
// non-first set member comes back as 409 with the tool as updated by the
// remaining field changes.
func (h *Handler) UpdateTool(c *gin.Context) {
	toolID, err := strconv.ParseInt(c.Param("tool_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tool id"})
		return
	}

	var req updateToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upd := store.ToolUpdate{
		ProfileID:   req.ProfileID,
		Position:    req.Position,
		ToolType:    req.ToolType,
		SetNumber:   req.SetNumber,
		KnivesCount: req.KnivesCount,
		Status:      req.Status,
		Notes:       req.Notes,
	}
	if req.ClearPhoto {
		upd.PhotoSet = true
	} else if len(req.Photo) > 0 {
		upd.PhotoSet = true
		upd.Photo = req.Photo
	}

	tool, err := h.store.UpdateTool(c.Request.Context(), h.perms(), toolID, upd)
	if errors.Is(err, store.ErrNotFirstInSet) {
		// Partial success: everything but the photo applied.
		h.publish(events.ToolUpdated{ToolID: tool.ID, ProfileID: tool.ProfileID, Code: tool.Code})
		c.JSON(http.StatusConflict, gin.H{
			"error":   err.Error(),
			"applied": true,
			"tool":    newToolResponse(tool),
		})
		return
	}
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.publish(events.ToolUpdated{ToolID: tool.ID, ProfileID: tool.ProfileID, Code: tool.Code})
	if upd.PhotoSet {
		h.publish(events.SetPhotoUpdated{ProfileID: tool.ProfileID, Prefix: toolcode.SetPrefix(tool.Code)})
	}
	c.JSON(http.StatusOK, newToolResponse(tool))
}

// DeleteTool handles DELETE /api/tools/{tool_id}.
func (h *Handler) DeleteTool(c *gin.Context) {
	toolID, err := strconv.ParseInt(c.Param("tool_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tool id"})
		return
	}

	tool, err := h.store.DeleteTool(c.Request.Context(), h.perms(), toolID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.publish(events.ToolDeleted{ToolID: tool.ID, ProfileID: tool.ProfileID, Code: tool.Code})
	c.Status(http.StatusNoContent)
}
