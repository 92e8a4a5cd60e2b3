package models

import "time"

// Group is a named audience definition: manual members plus an optional
// dynamic attribute filter stored as a JSON object.
type Group struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:128;not null;uniqueIndex"`
	Filters   string `gorm:"type:json"` // JSON object, keys projected onto the filter allow-list at resolve time
	IsActive  bool   `gorm:"default:true"` // inactive groups contribute nothing during resolution
	CreatedAt time.Time
	UpdatedAt time.Time

	Members []GroupMember `gorm:"foreignKey:GroupID"`
}

// GroupMember is one manual membership entry. Duplicate usernames within
// a group are rejected by the composite primary key.
type GroupMember struct {
	GroupID  uint   `gorm:"primaryKey"`
	Username string `gorm:"primaryKey;size:64"`
	JoinedAt time.Time
}
