package feed

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/gymbro-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeFollowSource struct {
	following []uint
}

func (f *fakeFollowSource) GetFollowingIDs(userID uint) ([]uint, error) {
	return f.following, nil
}

// fakeThreadStore implements repositories.ThreadRepository over a slice.
type fakeThreadStore struct {
	threads []models.Thread
}

func (s *fakeThreadStore) CreateThread(ctx context.Context, thread *models.Thread) error {
	s.threads = append(s.threads, *thread)
	return nil
}

func (s *fakeThreadStore) GetThreadByID(ctx context.Context, id string) (*models.Thread, error) {
	for i := range s.threads {
		if s.threads[i].ID.Hex() == id {
			return &s.threads[i], nil
		}
	}
	return nil, errors.New("thread not found")
}

func (s *fakeThreadStore) DeleteThread(ctx context.Context, id string) error { return nil }

func (s *fakeThreadStore) AddLike(ctx context.Context, id string, userID uint) (bool, error) {
	return true, nil
}

func (s *fakeThreadStore) RemoveLike(ctx context.Context, id string, userID uint) (bool, error) {
	return true, nil
}

func (s *fakeThreadStore) list(match func(models.Thread) bool, until time.Time, ref primitive.ObjectID, limit int64) ([]models.Thread, error) {
	var out []models.Thread
	for _, t := range s.threads {
		if !match(t) || !inPage(t, until, ref) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// inPage mirrors the repository's resume predicate: strictly older than the
// cursor row, or same timestamp at or below the ref id.
func inPage(t models.Thread, until time.Time, ref primitive.ObjectID) bool {
	if until.IsZero() {
		return true
	}
	if ref.IsZero() {
		return !t.CreatedAt.After(until)
	}
	if t.CreatedAt.Before(until) {
		return true
	}
	return t.CreatedAt.Equal(until) && t.ID.Hex() <= ref.Hex()
}

func (s *fakeThreadStore) ListByAuthors(ctx context.Context, authorIDs []uint, until time.Time, ref primitive.ObjectID, limit int64) ([]models.Thread, error) {
	set := make(map[uint]bool, len(authorIDs))
	for _, id := range authorIDs {
		set[id] = true
	}
	return s.list(func(t models.Thread) bool { return set[t.AuthorID] }, until, ref, limit)
}

func (s *fakeThreadStore) ListExcludingAuthors(ctx context.Context, authorIDs []uint, until time.Time, ref primitive.ObjectID, limit int64) ([]models.Thread, error) {
	set := make(map[uint]bool, len(authorIDs))
	for _, id := range authorIDs {
		set[id] = true
	}
	return s.list(func(t models.Thread) bool { return !set[t.AuthorID] }, until, ref, limit)
}

func (s *fakeThreadStore) ListByAuthor(ctx context.Context, authorID uint, until time.Time, ref primitive.ObjectID, limit int64) ([]models.Thread, error) {
	return s.list(func(t models.Thread) bool { return t.AuthorID == authorID }, until, ref, limit)
}

func newThread(t *testing.T, authorID uint, createdAt time.Time) models.Thread {
	t.Helper()
	return models.Thread{
		ID:        primitive.NewObjectID(),
		AuthorID:  authorID,
		CreatedAt: createdAt,
	}
}

func at(minute int) time.Time {
	return time.Date(2026, 5, 1, 12, minute, 0, 0, time.UTC)
}

func TestAssembleFollowedBeforeOther(t *testing.T) {
	t.Parallel()

	// B's thread is the newest overall but B is not followed, so it must come
	// after every followed thread.
	store := &fakeThreadStore{threads: []models.Thread{
		newThread(t, 2, at(5)),  // followed
		newThread(t, 9, at(50)), // other, newest
		newThread(t, 3, at(4)),  // followed
	}}
	a := NewAssembler(store, &fakeFollowSource{following: []uint{2, 3}})

	page, err := a.Assemble(context.Background(), 1, "", 10)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(page.Items) != 3 {
		t.Fatalf("len(Items) = %d, want 3", len(page.Items))
	}
	gotAuthors := []uint{page.Items[0].AuthorID, page.Items[1].AuthorID, page.Items[2].AuthorID}
	wantAuthors := []uint{2, 3, 9}
	for i := range wantAuthors {
		if gotAuthors[i] != wantAuthors[i] {
			t.Fatalf("authors = %v, want %v", gotAuthors, wantAuthors)
		}
	}
	if page.NextCursor != nil {
		t.Errorf("NextCursor = %q, want nil", *page.NextCursor)
	}
}

func TestAssembleFlipsToOtherStream(t *testing.T) {
	t.Parallel()

	// Followed threads A(t=5) and C(t=4) exactly fill the page; the other
	// stream still holds B(t=3), so the cursor must flip to the other group
	// instead of ending the walk.
	threadA := newThread(t, 2, at(5))
	threadB := newThread(t, 9, at(3))
	threadC := newThread(t, 3, at(4))
	store := &fakeThreadStore{threads: []models.Thread{threadA, threadB, threadC}}
	a := NewAssembler(store, &fakeFollowSource{following: []uint{2, 3}})

	page, err := a.Assemble(context.Background(), 1, "", 2)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(page.Items))
	}
	if page.Items[0].ID != threadA.ID || page.Items[1].ID != threadC.ID {
		t.Fatal("first page should hold the two followed threads, newest first")
	}
	if page.NextCursor == nil {
		t.Fatal("NextCursor = nil, want other-group cursor")
	}
	cursor := ParseCursor(*page.NextCursor)
	if cursor.Group != GroupOther {
		t.Fatalf("cursor group = %q, want %q", cursor.Group, GroupOther)
	}

	page2, err := a.Assemble(context.Background(), 1, *page.NextCursor, 2)
	if err != nil {
		t.Fatalf("Assemble page 2: %v", err)
	}
	if len(page2.Items) != 1 || page2.Items[0].ID != threadB.ID {
		t.Fatalf("page 2 = %d items, want just the unfollowed thread", len(page2.Items))
	}
	if page2.NextCursor != nil {
		t.Errorf("page 2 NextCursor = %q, want nil", *page2.NextCursor)
	}
}

func TestAssembleViewerOwnThreadsInFollowedStream(t *testing.T) {
	t.Parallel()

	mine := newThread(t, 1, at(10))
	other := newThread(t, 9, at(20))
	store := &fakeThreadStore{threads: []models.Thread{mine, other}}
	a := NewAssembler(store, &fakeFollowSource{})

	page, err := a.Assemble(context.Background(), 1, "", 10)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(page.Items))
	}
	if page.Items[0].ID != mine.ID {
		t.Error("viewer's own thread should lead despite being older")
	}
}

func TestAssembleFullWalkSeesEachThreadOnce(t *testing.T) {
	t.Parallel()

	var threads []models.Thread
	for i := 0; i < 7; i++ {
		threads = append(threads, newThread(t, 2, at(i*2))) // followed
	}
	for i := 0; i < 5; i++ {
		threads = append(threads, newThread(t, 9, at(i*2+1))) // other
	}
	store := &fakeThreadStore{threads: threads}
	a := NewAssembler(store, &fakeFollowSource{following: []uint{2}})

	seen := make(map[primitive.ObjectID]int)
	cursor := ""
	sawOther := false
	for pages := 0; ; pages++ {
		if pages > 20 {
			t.Fatal("walk did not terminate")
		}
		page, err := a.Assemble(context.Background(), 1, cursor, 3)
		if err != nil {
			t.Fatalf("Assemble: %v", err)
		}
		for _, item := range page.Items {
			seen[item.ID]++
			if item.AuthorID == 9 {
				sawOther = true
			} else if sawOther {
				t.Fatal("followed thread appeared after the other stream started")
			}
		}
		if page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}

	if len(seen) != len(threads) {
		t.Fatalf("saw %d distinct threads, want %d", len(seen), len(threads))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("thread %s seen %d times, want 1", id.Hex(), n)
		}
	}
}

func TestAssembleIdenticalTimestampsTerminate(t *testing.T) {
	t.Parallel()

	// Millisecond-precision stores happily hand out the same created_at to a
	// whole burst of writes. A timestamp-only cursor can never advance past
	// such a run; the ref id in the cursor must carry the walk through it.
	var threads []models.Thread
	for i := 0; i < 5; i++ {
		threads = append(threads, newThread(t, 2, at(10)))
	}
	for i := 0; i < 4; i++ {
		threads = append(threads, newThread(t, 9, at(10)))
	}
	store := &fakeThreadStore{threads: threads}
	a := NewAssembler(store, &fakeFollowSource{following: []uint{2}})

	seen := make(map[primitive.ObjectID]int)
	cursor := ""
	for pages := 0; ; pages++ {
		if pages > 10 {
			t.Fatalf("walk did not terminate: %d pages, cursor %q", pages, cursor)
		}
		page, err := a.Assemble(context.Background(), 1, cursor, 3)
		if err != nil {
			t.Fatalf("Assemble: %v", err)
		}
		for _, item := range page.Items {
			seen[item.ID]++
		}
		if page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}

	if len(seen) != len(threads) {
		t.Fatalf("saw %d distinct threads, want %d", len(seen), len(threads))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("thread %s seen %d times, want 1", id.Hex(), n)
		}
	}
}

func TestAuthorTimelineIdenticalTimestampsTerminate(t *testing.T) {
	t.Parallel()

	var threads []models.Thread
	for i := 0; i < 5; i++ {
		threads = append(threads, newThread(t, 2, at(10)))
	}
	store := &fakeThreadStore{threads: threads}
	a := NewAssembler(store, &fakeFollowSource{})

	seen := make(map[primitive.ObjectID]int)
	cursor := ""
	for pages := 0; ; pages++ {
		if pages > 10 {
			t.Fatalf("walk did not terminate: %d pages, cursor %q", pages, cursor)
		}
		page, err := a.AuthorTimeline(context.Background(), 2, cursor, 2)
		if err != nil {
			t.Fatalf("AuthorTimeline: %v", err)
		}
		for _, item := range page.Items {
			seen[item.ID]++
		}
		if page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}

	if len(seen) != 5 {
		t.Fatalf("saw %d distinct threads, want 5", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("thread %s seen %d times, want 1", id.Hex(), n)
		}
	}
}

func TestAssembleGarbageCursorRestarts(t *testing.T) {
	t.Parallel()

	store := &fakeThreadStore{threads: []models.Thread{
		newThread(t, 2, at(5)),
		newThread(t, 2, at(4)),
	}}
	a := NewAssembler(store, &fakeFollowSource{following: []uint{2}})

	fresh, err := a.Assemble(context.Background(), 1, "", 10)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	garbage, err := a.Assemble(context.Background(), 1, "!!not-a-cursor!!", 10)
	if err != nil {
		t.Fatalf("Assemble with garbage cursor: %v", err)
	}
	if len(garbage.Items) != len(fresh.Items) {
		t.Fatalf("garbage cursor returned %d items, fresh returned %d", len(garbage.Items), len(fresh.Items))
	}
	for i := range fresh.Items {
		if garbage.Items[i].ID != fresh.Items[i].ID {
			t.Fatal("garbage cursor should behave like an empty cursor")
		}
	}
}

func TestAuthorTimeline(t *testing.T) {
	t.Parallel()

	var threads []models.Thread
	for i := 0; i < 5; i++ {
		threads = append(threads, newThread(t, 2, at(i)))
	}
	threads = append(threads, newThread(t, 9, at(30)))
	store := &fakeThreadStore{threads: threads}
	a := NewAssembler(store, &fakeFollowSource{})

	page, err := a.AuthorTimeline(context.Background(), 2, "", 3)
	if err != nil {
		t.Fatalf("AuthorTimeline: %v", err)
	}
	if len(page.Items) != 3 {
		t.Fatalf("len(Items) = %d, want 3", len(page.Items))
	}
	if page.NextCursor == nil {
		t.Fatal("NextCursor = nil, want cursor")
	}
	for _, item := range page.Items {
		if item.AuthorID != 2 {
			t.Fatalf("timeline leaked thread by author %d", item.AuthorID)
		}
	}

	page2, err := a.AuthorTimeline(context.Background(), 2, *page.NextCursor, 3)
	if err != nil {
		t.Fatalf("AuthorTimeline page 2: %v", err)
	}
	if len(page2.Items) != 2 {
		t.Fatalf("page 2 = %d items, want 2", len(page2.Items))
	}
	if page2.NextCursor != nil {
		t.Errorf("page 2 NextCursor = %q, want nil", *page2.NextCursor)
	}
}
