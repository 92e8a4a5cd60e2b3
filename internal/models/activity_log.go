package models

import "time"

// ActivityLog records one operator or system action for the audit trail.
type ActivityLog struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Actor     string `gorm:"size:64;index"`
	Action    string `gorm:"size:64;index"`
	Detail    string `gorm:"type:text"`
	SourceIP  string `gorm:"size:45"`
	CreatedAt time.Time
}
