package notifications

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/gymbro-app/backend/internal/models"
)

// fakeNotificationStore implements repositories.NotificationRepository in
// memory, mirroring the SQL ordering and tuple semantics.
type fakeNotificationStore struct {
	nextID    uint
	rows      []models.Notification
	createErr error
}

func (s *fakeNotificationStore) CreateNotification(n *models.Notification) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	n.ID = s.nextID
	s.rows = append(s.rows, *n)
	return nil
}

func (s *fakeNotificationStore) GetByID(id uint) (*models.Notification, error) {
	for i := range s.rows {
		if s.rows[i].ID == id {
			n := s.rows[i]
			return &n, nil
		}
	}
	return nil, errors.New("record not found")
}

func (s *fakeNotificationStore) ListByRecipient(recipientID uint) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range s.rows {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *fakeNotificationStore) MarkRead(id uint, at time.Time) error {
	for i := range s.rows {
		if s.rows[i].ID == id {
			at := at
			s.rows[i].ReadAt = &at
		}
	}
	return nil
}

func (s *fakeNotificationStore) MarkGroupRead(recipientID uint, notifType, entityType, entityID string, at time.Time) error {
	for i := range s.rows {
		n := &s.rows[i]
		if n.RecipientID == recipientID && n.Type == notifType && n.EntityType == entityType && n.EntityID == entityID && n.ReadAt == nil {
			at := at
			n.ReadAt = &at
		}
	}
	return nil
}

func (s *fakeNotificationStore) MarkAllRead(recipientID uint, at time.Time) (int64, error) {
	var modified int64
	for i := range s.rows {
		if s.rows[i].RecipientID == recipientID && s.rows[i].ReadAt == nil {
			at := at
			s.rows[i].ReadAt = &at
			modified++
		}
	}
	return modified, nil
}

func (s *fakeNotificationStore) Delete(id uint) error {
	return s.deleteWhere(func(n models.Notification) bool { return n.ID == id })
}

func (s *fakeNotificationStore) DeleteGroup(recipientID uint, notifType, entityType, entityID string) error {
	return s.deleteWhere(func(n models.Notification) bool {
		return n.RecipientID == recipientID && n.Type == notifType && n.EntityType == entityType && n.EntityID == entityID
	})
}

func (s *fakeNotificationStore) DeleteByTuple(recipientID, actorID uint, notifType, entityType, entityID string) error {
	return s.deleteWhere(func(n models.Notification) bool {
		return n.RecipientID == recipientID && n.ActorID == actorID && n.Type == notifType && n.EntityType == entityType && n.EntityID == entityID
	})
}

func (s *fakeNotificationStore) deleteWhere(match func(models.Notification) bool) error {
	kept := s.rows[:0]
	for _, n := range s.rows {
		if !match(n) {
			kept = append(kept, n)
		}
	}
	s.rows = kept
	return nil
}

func (s *fakeNotificationStore) seed(t *testing.T, events ...models.Notification) {
	t.Helper()
	for i := range events {
		if err := s.CreateNotification(&events[i]); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

const threadHexA = "aaaaaaaaaaaaaaaaaaaaaaaa"
const threadHexB = "bbbbbbbbbbbbbbbbbbbbbbbb"

func TestInboxListGroups(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeNotificationStore{}
	store.seed(t,
		models.Notification{RecipientID: 1, ActorID: 2, Type: models.NotificationTypeLike, EntityType: models.EntityTypeThread, EntityID: threadHexA, CreatedAt: base},
		models.Notification{RecipientID: 1, ActorID: 3, Type: models.NotificationTypeLike, EntityType: models.EntityTypeThread, EntityID: threadHexA, CreatedAt: base.Add(time.Minute)},
		models.Notification{RecipientID: 1, ActorID: 4, Type: models.NotificationTypeFollow, EntityType: models.EntityTypeUser, EntityID: "4", CreatedAt: base.Add(2 * time.Minute)},
		models.Notification{RecipientID: 9, ActorID: 2, Type: models.NotificationTypeFollow, EntityType: models.EntityTypeUser, EntityID: "2", CreatedAt: base},
	)

	inbox := NewInbox(store)
	groups, unread, err := inbox.ListGroups(1, 1, 10)
	if err != nil {
		t.Fatalf("ListGroups: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}
	if unread != 2 {
		t.Errorf("unread = %d, want 2 groups", unread)
	}
	if groups[0].Type != models.NotificationTypeFollow {
		t.Errorf("first group type = %q, want the newest", groups[0].Type)
	}
	if groups[1].Count != 2 {
		t.Errorf("like group Count = %d, want 2", groups[1].Count)
	}
}

func TestInboxListGroupsPagination(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeNotificationStore{}
	for i := 0; i < 5; i++ {
		store.seed(t, models.Notification{
			RecipientID: 1, ActorID: uint(i + 2),
			Type: models.NotificationTypeFollow, EntityType: models.EntityTypeUser, EntityID: "2",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	inbox := NewInbox(store)
	page1, _, err := inbox.ListGroups(1, 1, 2)
	if err != nil {
		t.Fatalf("ListGroups: %v", err)
	}
	page3, _, err := inbox.ListGroups(1, 3, 2)
	if err != nil {
		t.Fatalf("ListGroups: %v", err)
	}
	beyond, _, err := inbox.ListGroups(1, 9, 2)
	if err != nil {
		t.Fatalf("ListGroups: %v", err)
	}
	if len(page1) != 2 || len(page3) != 1 || len(beyond) != 0 {
		t.Errorf("page sizes = %d/%d/%d, want 2/1/0", len(page1), len(page3), len(beyond))
	}
}

func TestInboxUnreadCountsGroupsNotEvents(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeNotificationStore{}
	for i := 0; i < 5; i++ {
		store.seed(t, models.Notification{
			RecipientID: 1, ActorID: uint(i + 2),
			Type: models.NotificationTypeLike, EntityType: models.EntityTypeThread, EntityID: threadHexA,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	inbox := NewInbox(store)
	unread, err := inbox.UnreadCount(1)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if unread != 1 {
		t.Errorf("unread = %d, want 1: five likes on one thread are one group", unread)
	}
}

func TestInboxMarkReadCollapsibleClearsGroup(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeNotificationStore{}
	store.seed(t,
		models.Notification{RecipientID: 1, ActorID: 2, Type: models.NotificationTypeLike, EntityType: models.EntityTypeThread, EntityID: threadHexA, CreatedAt: base},
		models.Notification{RecipientID: 1, ActorID: 3, Type: models.NotificationTypeLike, EntityType: models.EntityTypeThread, EntityID: threadHexA, CreatedAt: base.Add(time.Minute)},
		models.Notification{RecipientID: 1, ActorID: 4, Type: models.NotificationTypeLike, EntityType: models.EntityTypeThread, EntityID: threadHexB, CreatedAt: base.Add(2 * time.Minute)},
	)

	inbox := NewInbox(store)
	if _, err := inbox.MarkRead(1, 1); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	unread, err := inbox.UnreadCount(1)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if unread != 1 {
		t.Errorf("unread = %d, want 1: the whole group on thread A should be read", unread)
	}
	for _, n := range store.rows {
		if n.EntityID == threadHexA && n.ReadAt == nil {
			t.Errorf("event %d on thread A still unread", n.ID)
		}
		if n.EntityID == threadHexB && n.ReadAt != nil {
			t.Errorf("event %d on thread B should be untouched", n.ID)
		}
	}
}

func TestInboxMarkReadWrongRecipient(t *testing.T) {
	t.Parallel()

	store := &fakeNotificationStore{}
	store.seed(t, models.Notification{
		RecipientID: 9, ActorID: 2,
		Type: models.NotificationTypeFollow, EntityType: models.EntityTypeUser, EntityID: "2",
		CreatedAt: time.Now(),
	})

	inbox := NewInbox(store)
	if _, err := inbox.MarkRead(1, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkRead for another recipient's event = %v, want ErrNotFound", err)
	}
	if _, err := inbox.MarkRead(1, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkRead for missing event = %v, want ErrNotFound", err)
	}
}

func TestInboxMarkAllRead(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	read := base.Add(-time.Hour)
	store := &fakeNotificationStore{}
	store.seed(t,
		models.Notification{RecipientID: 1, ActorID: 2, Type: models.NotificationTypeFollow, EntityType: models.EntityTypeUser, EntityID: "2", CreatedAt: base},
		models.Notification{RecipientID: 1, ActorID: 3, Type: models.NotificationTypeFollow, EntityType: models.EntityTypeUser, EntityID: "3", CreatedAt: base, ReadAt: &read},
		models.Notification{RecipientID: 9, ActorID: 2, Type: models.NotificationTypeFollow, EntityType: models.EntityTypeUser, EntityID: "2", CreatedAt: base},
	)

	inbox := NewInbox(store)
	modified, err := inbox.MarkAllRead(1)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if modified != 1 {
		t.Errorf("modified = %d, want 1: already-read rows do not count", modified)
	}

	unread, err := inbox.UnreadCount(1)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if unread != 0 {
		t.Errorf("unread = %d after MarkAllRead, want 0", unread)
	}
}

func TestInboxDeleteCollapsibleRemovesGroup(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeNotificationStore{}
	store.seed(t,
		models.Notification{RecipientID: 1, ActorID: 2, Type: models.NotificationTypeLike, EntityType: models.EntityTypeThread, EntityID: threadHexA, CreatedAt: base},
		models.Notification{RecipientID: 1, ActorID: 3, Type: models.NotificationTypeLike, EntityType: models.EntityTypeThread, EntityID: threadHexA, CreatedAt: base.Add(time.Minute)},
		models.Notification{RecipientID: 1, ActorID: 4, Type: models.NotificationTypeFollow, EntityType: models.EntityTypeUser, EntityID: "4", CreatedAt: base.Add(2 * time.Minute)},
	)

	inbox := NewInbox(store)
	if err := inbox.Delete(1, 2); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(store.rows) != 1 {
		t.Fatalf("rows left = %d, want 1: deleting one like removes the group", len(store.rows))
	}
	if store.rows[0].Type != models.NotificationTypeFollow {
		t.Error("surviving row should be the follow event")
	}

	if err := inbox.Delete(1, 3); err != nil {
		t.Fatalf("Delete follow: %v", err)
	}
	if len(store.rows) != 0 {
		t.Errorf("rows left = %d, want 0", len(store.rows))
	}
}
