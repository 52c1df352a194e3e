package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/garyellow/medreminder-linebot-go/internal/config"
	domerrors "github.com/garyellow/medreminder-linebot-go/internal/errors"
	"github.com/garyellow/medreminder-linebot-go/internal/storage"
	"github.com/gin-gonic/gin"
)

// Response texts for /send-reminder.
const (
	textMissingParams = "缺少必要參數"
	textSent          = "提醒已發送"
)

func (a *Application) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "LINE Bot Medicine Reminder Server is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *Application) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(a.startedAt).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.ReadinessPing)
	defer cancel()

	if err := a.store.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: store unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "store unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"store":  a.store.Driver(),
	})
}

// envCheck reports which settings are present. It never echoes secrets.
func (a *Application) envCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"lineTokenSet":    a.cfg.LineChannelToken != "",
		"lineSecretSet":   a.cfg.LineChannelSecret != "",
		"tokenLength":     len(a.cfg.LineChannelToken),
		"secretLength":    len(a.cfg.LineChannelSecret),
		"clientAvailable": a.delivery != nil,
		"storeAvailable":  !isUnavailable(a.store),
		"storeDriver":     a.cfg.StoreDriver,
	})
}

type reminderPayload struct {
	ID           string `json:"id"`
	Hour         *int   `json:"hour"`
	Minute       *int   `json:"minute"`
	MedicineName string `json:"medicineName"`
	Dosage       string `json:"dosage"`
}

type sendReminderRequest struct {
	LineUserID string           `json:"lineUserId"`
	Reminder   *reminderPayload `json:"reminder"`
}

// sendReminder pushes one reminder card. The external scheduler calls it
// when a reminder is due.
func (a *Application) sendReminder(c *gin.Context) {
	var req sendReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.LineUserID == "" || req.Reminder == nil ||
		req.Reminder.Hour == nil || req.Reminder.Minute == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": textMissingParams})
		return
	}

	r := storage.Reminder{
		ID:           req.Reminder.ID,
		Hour:         *req.Reminder.Hour,
		Minute:       *req.Reminder.Minute,
		MedicineName: req.Reminder.MedicineName,
		Dosage:       req.Reminder.Dosage,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), config.PushRequest)
	defer cancel()

	if err := a.delivery.DeliverReminder(ctx, req.LineUserID, r); err != nil {
		if errors.Is(err, domerrors.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": textMissingParams})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": domerrors.GetUserMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": textSent})
}
