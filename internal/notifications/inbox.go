package notifications

import (
	"errors"
	"fmt"
	"time"

	"github.com/gymbro-app/backend/internal/repositories"
)

// ErrNotFound is returned when the targeted event does not exist or belongs
// to another recipient.
var ErrNotFound = errors.New("notification not found")

// Inbox serves grouped notification reads and group-granular mutations over
// the durable event store.
type Inbox struct {
	store repositories.NotificationRepository
}

// NewInbox creates a new Inbox
func NewInbox(store repositories.NotificationRepository) *Inbox {
	return &Inbox{store: store}
}

// ListGroups returns one offset page of the user's display groups plus the
// total unread group count. Groups are recomputed from the raw event stream
// on every call; group counts are small enough that offset pagination holds.
func (i *Inbox) ListGroups(userID uint, page, limit int) ([]Group, int, error) {
	events, err := i.store.ListByRecipient(userID)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	groups := BuildGroups(events)

	unread := 0
	for _, g := range groups {
		if g.Unread {
			unread++
		}
	}

	start := (page - 1) * limit
	if start >= len(groups) {
		return []Group{}, unread, nil
	}
	end := start + limit
	if end > len(groups) {
		end = len(groups)
	}
	return groups[start:end], unread, nil
}

// UnreadCount counts unread groups, not raw events: five unread likes on one
// thread contribute 1.
func (i *Inbox) UnreadCount(userID uint) (int, error) {
	events, err := i.store.ListByRecipient(userID)
	if err != nil {
		return 0, fmt.Errorf("list notifications: %w", err)
	}

	unread := 0
	for _, g := range BuildGroups(events) {
		if g.Unread {
			unread++
		}
	}
	return unread, nil
}

// MarkRead marks the event read. For collapsible types the whole group is
// marked: opening "3 people liked your post" clears all three events.
func (i *Inbox) MarkRead(userID, eventID uint) (time.Time, error) {
	n, err := i.store.GetByID(eventID)
	if err != nil || n.RecipientID != userID {
		return time.Time{}, ErrNotFound
	}

	now := time.Now()
	if Collapsible(n.Type) {
		if err := i.store.MarkGroupRead(userID, n.Type, n.EntityType, n.EntityID, now); err != nil {
			return time.Time{}, fmt.Errorf("mark group read: %w", err)
		}
		return now, nil
	}
	if err := i.store.MarkRead(n.ID, now); err != nil {
		return time.Time{}, fmt.Errorf("mark read: %w", err)
	}
	return now, nil
}

// MarkAllRead sets ReadAt on every unread event for the user, regardless of
// grouping, and returns how many rows changed.
func (i *Inbox) MarkAllRead(userID uint) (int64, error) {
	modified, err := i.store.MarkAllRead(userID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return modified, nil
}

// Delete removes the event, or for collapsible types every event sharing its
// group key.
func (i *Inbox) Delete(userID, eventID uint) error {
	n, err := i.store.GetByID(eventID)
	if err != nil || n.RecipientID != userID {
		return ErrNotFound
	}

	if Collapsible(n.Type) {
		if err := i.store.DeleteGroup(userID, n.Type, n.EntityType, n.EntityID); err != nil {
			return fmt.Errorf("delete group: %w", err)
		}
		return nil
	}
	if err := i.store.Delete(n.ID); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}
