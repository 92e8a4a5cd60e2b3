package models

import "time"

// User is a directory entry. The dispatch pipeline only ever reads users;
// writes happen in the operator-facing CRUD layer.
type User struct {
	Username  string `gorm:"primaryKey;size:64"`
	Email     string `gorm:"size:256"`
	Role      string `gorm:"size:32;index"`
	IsActive  bool   `gorm:"default:true"`
	CreatedAt time.Time
}
