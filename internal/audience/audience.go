// Package audience computes the recipient set for a message.
package audience

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zulandar/stationcall/internal/directory"
	"github.com/zulandar/stationcall/internal/models"
	"gorm.io/gorm"
)

// Resolve computes the deduplicated username set a message will be sent
// to: the explicit recipients, plus the target group's manual members,
// plus directory matches for the group's filter. A dangling group
// reference is not an error (resolution proceeds with the explicit
// recipients only), but a directory query failure propagates — it must
// never silently shrink the audience to empty.
//
// The result is sorted for determinism; order carries no meaning
// downstream.
func Resolve(db *gorm.DB, msg *models.Message) ([]string, error) {
	set := make(map[string]struct{})

	explicit, err := msg.RecipientList()
	if err != nil {
		return nil, fmt.Errorf("audience: %w", err)
	}
	for _, u := range explicit {
		set[u] = struct{}{}
	}

	if msg.TargetGroupID != nil {
		if err := addGroup(db, *msg.TargetGroupID, set); err != nil {
			return nil, err
		}
	}

	audience := make([]string, 0, len(set))
	for u := range set {
		audience = append(audience, u)
	}
	sort.Strings(audience)
	return audience, nil
}

// addGroup unions a group's manual members and filter matches into set.
func addGroup(db *gorm.DB, groupID uint, set map[string]struct{}) error {
	group, err := directory.GroupByID(db, groupID)
	if errors.Is(err, directory.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("audience: %w", err)
	}
	if !group.IsActive {
		return nil
	}

	for _, m := range group.Members {
		set[m.Username] = struct{}{}
	}

	filter, err := directory.ParseFilter(group.Filters)
	if err != nil {
		return fmt.Errorf("audience: group %q: %w", group.Name, err)
	}
	if filter.IsEmpty() {
		return nil
	}

	users, err := directory.FindUsers(db, filter)
	if err != nil {
		return fmt.Errorf("audience: group %q: %w", group.Name, err)
	}
	for _, u := range users {
		set[u.Username] = struct{}{}
	}
	return nil
}
