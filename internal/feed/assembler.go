package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/gymbro-app/backend/internal/models"
	"github.com/gymbro-app/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FollowSource resolves who the viewer follows.
type FollowSource interface {
	GetFollowingIDs(userID uint) ([]uint, error)
}

// Page is one assembled feed page. NextCursor is nil on the last page.
type Page struct {
	Items      []models.Thread
	NextCursor *string
}

// Assembler merges the followed and other content streams into one
// reverse-chronological timeline. The followed stream is served until it is
// genuinely exhausted, then the other stream fills the tail; the cursor's
// group tag records which phase the scan is in.
type Assembler struct {
	threads repositories.ThreadRepository
	follows FollowSource
}

// NewAssembler creates a new Assembler
func NewAssembler(threads repositories.ThreadRepository, follows FollowSource) *Assembler {
	return &Assembler{threads: threads, follows: follows}
}

// Assemble returns one feed page for the viewer. Each underlying query asks
// for limit+1 rows: the extra row, when present, supplies the next cursor's
// timestamp without a separate count.
func (a *Assembler) Assemble(ctx context.Context, viewerID uint, rawCursor string, limit int) (Page, error) {
	cursor := ParseCursor(rawCursor)

	followingIDs, err := a.follows.GetFollowingIDs(viewerID)
	if err != nil {
		return Page{}, fmt.Errorf("resolve following: %w", err)
	}
	// The viewer's own threads belong to the followed stream.
	followed := append([]uint{viewerID}, followingIDs...)

	if cursor.Group == GroupOther {
		return a.otherPage(ctx, followed, cursor, limit)
	}

	items, err := a.threads.ListByAuthors(ctx, followed, cursor.Until, cursor.Ref, int64(limit+1))
	if err != nil {
		return Page{}, fmt.Errorf("query followed stream: %w", err)
	}

	if len(items) > limit {
		next := Cursor{Group: GroupFollowed, Until: items[limit].CreatedAt, Ref: items[limit].ID}.String()
		return Page{Items: items[:limit], NextCursor: &next}, nil
	}

	// Followed stream exhausted within this page: fall through to the other
	// stream and flip the group tag from here on.
	page := items
	remain := limit - len(page)
	others, err := a.threads.ListExcludingAuthors(ctx, followed, time.Time{}, primitive.ObjectID{}, int64(remain+1))
	if err != nil {
		return Page{}, fmt.Errorf("query other stream: %w", err)
	}

	take := remain
	if len(others) < take {
		take = len(others)
	}
	page = append(page, others[:take]...)

	if len(others) > take {
		next := Cursor{Group: GroupOther, Until: others[take].CreatedAt, Ref: others[take].ID}.String()
		return Page{Items: page, NextCursor: &next}, nil
	}
	return Page{Items: page}, nil
}

func (a *Assembler) otherPage(ctx context.Context, followed []uint, cursor Cursor, limit int) (Page, error) {
	items, err := a.threads.ListExcludingAuthors(ctx, followed, cursor.Until, cursor.Ref, int64(limit+1))
	if err != nil {
		return Page{}, fmt.Errorf("query other stream: %w", err)
	}
	if len(items) > limit {
		next := Cursor{Group: GroupOther, Until: items[limit].CreatedAt, Ref: items[limit].ID}.String()
		return Page{Items: items[:limit], NextCursor: &next}, nil
	}
	return Page{Items: items}, nil
}

// AuthorTimeline is the profile view: a single descending-time scan over one
// author, bypassing the two-stream merge.
func (a *Assembler) AuthorTimeline(ctx context.Context, authorID uint, rawCursor string, limit int) (Page, error) {
	until, ref := ParseTimeCursor(rawCursor)
	items, err := a.threads.ListByAuthor(ctx, authorID, until, ref, int64(limit+1))
	if err != nil {
		return Page{}, fmt.Errorf("query author timeline: %w", err)
	}
	if len(items) > limit {
		next := FormatTimeCursor(items[limit].CreatedAt, items[limit].ID)
		return Page{Items: items[:limit], NextCursor: &next}, nil
	}
	return Page{Items: items}, nil
}
