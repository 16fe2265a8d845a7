package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hydromat-tooling-backend/internal/events"
	"hydromat-tooling-backend/internal/heads"
	"hydromat-tooling-backend/internal/model"
)

// GetHeadPositions handles GET /api/heads: the fixed head-to-position table.
func GetHeadPositions(c *gin.Context) {
	c.JSON(http.StatusOK, heads.Positions())
}

type assignHeadRequest struct {
	ToolID       int64    `json:"tool_id" binding:"required"`
	RPM          *int     `json:"rpm"`
	PassDepth    *float64 `json:"pass_depth"`
	WorkMaterial string   `json:"work_material"`
	Remarks      string   `json:"remarks"`
}

// AssignHead handles PUT /api/profiles/{profile_id}/heads/{head}. The old
// assignment on the head, if any, is replaced atomically. A tool whose
// position does not match the head's required position is still assigned
// but the response carries an advisory warning.
func (h *Handler) AssignHead(c *gin.Context) {
	profileID, err := strconv.ParseInt(c.Param("profile_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return
	}
	head, err := strconv.Atoi(c.Param("head"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid head number"})
		return
	}
	required, err := heads.RequiredPosition(head)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req assignHeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	tool, err := h.store.GetTool(ctx, req.ToolID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var warnings []string
	positionMismatch := tool.Position != required
	if positionMismatch {
		warnings = append(warnings, fmt.Sprintf(
			"tool position %s does not match required position %s for head %d",
			tool.Position, required, head))
	}
	if assigned, err := h.store.IsToolAssigned(ctx, tool.ID); err == nil && assigned {
		warnings = append(warnings, fmt.Sprintf("tool %s is already assigned to another head", tool.Code))
	}

	assignment := &model.HeadAssignment{
		ProfileID:    profileID,
		ToolID:       req.ToolID,
		HeadNumber:   head,
		RPM:          req.RPM,
		PassDepth:    req.PassDepth,
		WorkMaterial: req.WorkMaterial,
		Remarks:      req.Remarks,
	}
	if err := h.store.AssignToolToHead(ctx, h.perms(), assignment); err != nil {
		abortWithError(c, err)
		return
	}

	h.publish(events.ToolAssigned{
		ProfileID:  profileID,
		HeadNumber: head,
		ToolID:     tool.ID,
		ToolCode:   tool.Code,
	})
	c.JSON(http.StatusOK, gin.H{
		"id":                assignment.ID,
		"profile_id":        assignment.ProfileID,
		"tool_id":           assignment.ToolID,
		"head_number":       assignment.HeadNumber,
		"tool_code":         tool.Code,
		"position_mismatch": positionMismatch,
		"warnings":          warnings,
	})
}

// ClearHead handles DELETE /api/profiles/{profile_id}/heads/{head}.
func (h *Handler) ClearHead(c *gin.Context) {
	profileID, err := strconv.ParseInt(c.Param("profile_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return
	}
	head, err := strconv.Atoi(c.Param("head"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid head number"})
		return
	}

	if err := h.store.ClearHeadAssignment(c.Request.Context(), h.perms(), profileID, head); err != nil {
		abortWithError(c, err)
		return
	}

	h.publish(events.AssignmentCleared{ProfileID: profileID, HeadNumber: head})
	c.Status(http.StatusNoContent)
}

type assignmentResponse struct {
	ID               int64    `json:"id"`
	ProfileID        int64    `json:"profile_id"`
	ToolID           int64    `json:"tool_id"`
	HeadNumber       int      `json:"head_number"`
	RPM              *int     `json:"rpm"`
	PassDepth        *float64 `json:"pass_depth"`
	WorkMaterial     string   `json:"work_material"`
	Remarks          string   `json:"remarks"`
	ToolCode         string   `json:"tool_code"`
	ToolPosition     string   `json:"tool_position"`
	RequiredPosition string   `json:"required_position"`
	PositionMismatch bool     `json:"position_mismatch"`
}

// GetAssignments handles GET /api/profiles/{profile_id}/assignments. Each
// row is annotated with the head's required position so the client can
// render the advisory mismatch flag.
func (h *Handler) GetAssignments(c *gin.Context) {
	profileID, err := strconv.ParseInt(c.Param("profile_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return
	}

	rows, err := h.store.AssignmentsByProfile(c.Request.Context(), profileID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	responses := make([]assignmentResponse, 0, len(rows))
	for _, row := range rows {
		required, _ := heads.RequiredPosition(row.HeadNumber)
		responses = append(responses, assignmentResponse{
			ID:               row.ID,
			ProfileID:        row.ProfileID,
			ToolID:           row.ToolID,
			HeadNumber:       row.HeadNumber,
			RPM:              row.RPM,
			PassDepth:        row.PassDepth,
			WorkMaterial:     row.WorkMaterial,
			Remarks:          row.Remarks,
			ToolCode:         row.ToolCode,
			ToolPosition:     row.ToolPosition,
			RequiredPosition: required,
			PositionMismatch: row.ToolPosition != required,
		})
	}
	c.JSON(http.StatusOK, responses)
}
