// Package directory provides read-only queries against the user and group
// store. The dispatch pipeline consumes the directory through these
// functions and never writes to it.
package directory

import (
	"errors"
	"fmt"

	"github.com/zulandar/stationcall/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a referenced group does not exist.
var ErrNotFound = errors.New("directory: not found")

// GroupByID fetches a group with its manual members preloaded.
func GroupByID(db *gorm.DB, id uint) (*models.Group, error) {
	var group models.Group
	err := db.Preload("Members").Where("id = ?", id).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("directory: group %d: %w", id, err)
	}
	return &group, nil
}

// FindUsers returns users matching all set fields of the filter
// (conjunction). An empty filter matches nothing by contract; callers
// check Filter.IsEmpty before querying.
func FindUsers(db *gorm.DB, f Filter) ([]models.User, error) {
	if f.IsEmpty() {
		return nil, nil
	}

	q := db.Model(&models.User{})
	if f.Role != nil {
		q = q.Where("role = ?", *f.Role)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if f.Username != nil {
		q = q.Where("username = ?", *f.Username)
	}

	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("directory: find users: %w", err)
	}
	return users, nil
}

// EmailableUsers returns the subset of the given usernames that have a
// non-empty email address, with their addresses.
func EmailableUsers(db *gorm.DB, usernames []string) ([]models.User, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := db.Where("username IN ? AND email <> ''", usernames).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("directory: emails for %d usernames: %w", len(usernames), err)
	}
	return users, nil
}
