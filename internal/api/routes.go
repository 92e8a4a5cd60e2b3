package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/stationcall/internal/channel"
	"github.com/zulandar/stationcall/internal/dispatch"
	"github.com/zulandar/stationcall/internal/models"
	"gorm.io/gorm"
)

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB, transport channel.Transport) {
	router.GET("/healthz", handleHealth(db))
	router.GET("/api/messages", handleMessageList(db))
	router.GET("/api/messages/:id", handleMessageDetail(db))
	router.POST("/api/messages/:id/send", handleMessageSend(db, transport))
}

func handleHealth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func handleMessageList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var msgs []models.Message
		q := db.Order("created_at DESC").Limit(200)
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}
		if err := q.Find(&msgs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"messages": msgs})
	}
}

func handleMessageDetail(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var msg models.Message
		err := db.Where("id = ?", c.Param("id")).First(&msg).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, msg)
	}
}

// handleMessageSend triggers an immediate send. The actor defaults to
// "operator" and can be overridden with the X-Actor header.
func handleMessageSend(db *gorm.DB, transport channel.Transport) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader("X-Actor")
		if actor == "" {
			actor = "operator"
		}

		orch := &dispatch.Orchestrator{DB: db, Transport: transport}
		result, err := orch.Send(c.Param("id"), actor, c.ClientIP())
		if errors.Is(err, dispatch.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"recipients_count": result.RecipientsCount,
			"already_sent":     result.AlreadySent,
		})
	}
}
