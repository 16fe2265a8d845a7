package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hydromat-tooling-backend/internal/model"
)

type putSubscriptionRequest struct {
	Endpoint           string  `json:"endpoint" binding:"required"`
	P256DH             string  `json:"p256dh" binding:"required"`
	Auth               string  `json:"auth" binding:"required"`
	SubscribedProfiles []int64 `json:"subscribed_profiles"`
}

// PutSubscription creates or replaces a push subscription and its watched
// profile list. Every requested profile must exist; a stale ID fails the
// whole request so the client never believes it is watching a profile that
// is gone.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subscription := model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}

	var profiles []model.Profile
	err := h.store.DB().Transaction(func(tx *gorm.DB) error {
		if len(req.SubscribedProfiles) > 0 {
			if err := tx.Find(&profiles, req.SubscribedProfiles).Error; err != nil {
				return err
			}
			if len(profiles) != len(req.SubscribedProfiles) {
				return gorm.ErrRecordNotFound
			}
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&subscription).Error; err != nil {
			return err
		}

		return tx.Model(&subscription).Association("Profiles").Replace(&profiles)
	})

	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "one or more subscribed profiles do not exist"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	profileIDs := make([]int64, len(profiles))
	for i, profile := range profiles {
		profileIDs[i] = profile.ID
	}
	c.JSON(http.StatusCreated, gin.H{
		"endpoint":            subscription.Endpoint,
		"subscribed_profiles": profileIDs,
	})
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription drops a subscription by endpoint.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.DB().Delete(&model.PushSubscription{Endpoint: req.Endpoint}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// rawQueryParam picks a query value without URL decoding; push endpoints
// carry characters that round-trip badly through a decode.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// GetSubscription returns the watched profile list of one subscription.
func (h *Handler) GetSubscription(c *gin.Context) {
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return
	}

	var subscription model.PushSubscription
	if err := h.store.DB().Preload("Profiles").First(&subscription, "endpoint = ?", raw).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	profileIDs := make([]int64, len(subscription.Profiles))
	for i, profile := range subscription.Profiles {
		profileIDs[i] = profile.ID
	}

	c.JSON(http.StatusOK, gin.H{
		"endpoint":            subscription.Endpoint,
		"subscribed_profiles": profileIDs,
	})
}
