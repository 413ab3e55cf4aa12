package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/gymbro-app/backend/internal/models"
)

// Group is a collapsed, display-ready set of notification events sharing a
// group key. It is derived per request, never stored.
type Group struct {
	Key        string     `json:"groupKey"`
	ID         uint       `json:"id"` // representative (most recent) event
	Type       string     `json:"type"`
	EntityType string     `json:"entityType"`
	EntityID   string     `json:"entityId"`
	ActorID    uint       `json:"actorId"`
	Text       string     `json:"text"`
	CreatedAt  time.Time  `json:"createdAt"`
	ReadAt     *time.Time `json:"readAt"`
	Count      int        `json:"groupCount"`
	Unread     bool       `json:"-"`
}

// Collapsible reports whether events of this type share a group with other
// events on the same target. Follow, repost and post events never collapse.
func Collapsible(notifType string) bool {
	return notifType == models.NotificationTypeLike || notifType == models.NotificationTypeComment
}

// GroupKey computes the equivalence class an event collapses under: the
// (type, entityType, entityId) triple for like/comment, the event's own
// identity otherwise.
func GroupKey(n models.Notification) string {
	if Collapsible(n.Type) {
		return n.Type + "|" + n.EntityType + "|" + n.EntityID
	}
	return fmt.Sprintf("single|%d", n.ID)
}

// BuildGroups folds a newest-first event list into display groups. The first
// member seen per key is the representative, so groups come out already
// ordered by representative timestamp descending.
func BuildGroups(events []models.Notification) []Group {
	index := make(map[string]int)
	groups := make([]Group, 0, len(events))

	for _, n := range events {
		key := GroupKey(n)
		if i, ok := index[key]; ok {
			g := &groups[i]
			g.Count++
			if n.ReadAt == nil {
				g.Unread = true
				g.ReadAt = nil
			} else if !g.Unread && (g.ReadAt == nil || n.ReadAt.After(*g.ReadAt)) {
				g.ReadAt = n.ReadAt
			}
			continue
		}

		index[key] = len(groups)
		groups = append(groups, Group{
			Key:        key,
			ID:         n.ID,
			Type:       n.Type,
			EntityType: n.EntityType,
			EntityID:   n.EntityID,
			ActorID:    n.ActorID,
			Text:       n.Text, // representative raw text, synthesized below
			CreatedAt:  n.CreatedAt,
			ReadAt:     n.ReadAt,
			Count:      1,
			Unread:     n.ReadAt == nil,
		})
	}

	for i := range groups {
		groups[i].Text = DisplayText(groups[i].Type, groups[i].Count, groups[i].Text)
	}
	return groups
}

// DisplayText synthesizes the human-readable group summary. Non-collapsible
// types keep their stored text verbatim.
func DisplayText(notifType string, count int, rawText string) string {
	switch notifType {
	case models.NotificationTypeLike:
		if count <= 1 {
			return "liked your post"
		}
		return fmt.Sprintf("and %d others liked your post", count-1)
	case models.NotificationTypeComment:
		if count > 1 {
			return fmt.Sprintf("and %d others commented on your post", count-1)
		}
		preview := stripCommentWrapping(rawText)
		if preview == "" {
			return "commented on your post"
		}
		return fmt.Sprintf("commented on your post: “%s”", preview)
	}
	return rawText
}

// stripCommentWrapping removes the "commented:" prefix and quote wrapping a
// stored comment notification carries, leaving the bare preview.
func stripCommentWrapping(raw string) string {
	s := strings.TrimSpace(raw)
	if rest, ok := cutPrefixFold(s, "commented"); ok {
		s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), ":"))
	} else if rest, ok := cutPrefixFold(s, "replied"); ok {
		s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), ":"))
	}
	for _, quote := range []string{`"`, "“", "”"} {
		s = strings.TrimPrefix(s, quote)
		s = strings.TrimSuffix(s, quote)
	}
	return strings.TrimSpace(s)
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}
