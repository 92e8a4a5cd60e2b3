// Package audit records operator and system actions to the activity log.
package audit

import (
	"log"
	"time"

	"github.com/zulandar/stationcall/internal/models"
	"gorm.io/gorm"
)

// Well-known audit actions emitted by the dispatch pipeline.
const (
	ActionSendMessage   = "Send Message"
	ActionSendFailed    = "Send Message Failed"
	ActionDeliveryError = "Delivery Error"
)

// Record writes one activity-log entry. Best-effort: a store error is
// logged and swallowed so that auditing can never fail the action it
// describes.
func Record(db *gorm.DB, actor, action, detail, sourceIP string) {
	entry := models.ActivityLog{
		Actor:     actor,
		Action:    action,
		Detail:    detail,
		SourceIP:  sourceIP,
		CreatedAt: time.Now(),
	}
	if err := db.Create(&entry).Error; err != nil {
		log.Printf("audit: record %q for %s: %v", action, actor, err)
	}
}
