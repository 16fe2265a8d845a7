package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hydromat-tooling-backend/internal/events"
	"hydromat-tooling-backend/internal/security"
	"hydromat-tooling-backend/internal/store"
	"hydromat-tooling-backend/internal/toolcode"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	guard   *security.Guard
	events  *events.Dispatcher
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, guard *security.Guard, dispatcher *events.Dispatcher, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		guard:   guard,
		events:  dispatcher,
		webpush: webpushOptions,
	}
}

// perms snapshots the caller's capabilities for one request.
func (h *Handler) perms() security.Permissions {
	if h.guard == nil {
		return security.ModeFullAccess.Permissions()
	}
	return h.guard.Permissions()
}

func (h *Handler) publish(e events.Event) {
	if h.events != nil {
		h.events.Publish(e)
	}
}

// errorStatus maps store and generator errors onto HTTP status codes.
func errorStatus(err error) int {
	var verr *toolcode.ValidationError
	switch {
	case errors.Is(err, store.ErrReadOnly):
		return http.StatusForbidden
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrCodeExists),
		errors.Is(err, store.ErrNameExists),
		errors.Is(err, store.ErrToolAssigned),
		errors.Is(err, store.ErrNotFirstInSet):
		return http.StatusConflict
	case errors.As(err, &verr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(errorStatus(err), gin.H{"error": err.Error()})
}
