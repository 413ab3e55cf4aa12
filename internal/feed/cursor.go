package feed

import (
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cursor group tags. The feed serves the followed stream first; once the tag
// flips to other it never goes back.
const (
	GroupFollowed = "f"
	GroupOther    = "o"
)

// Cursor is the decoded resume point of a merged feed scan. Until and Ref
// name the first row of the next page in (created_at DESC, _id DESC) order:
// the timestamp alone cannot advance past a run of identical created_at
// values, so the row id breaks the tie. Zero Until means the top of the
// stream.
type Cursor struct {
	Group string
	Until time.Time
	Ref   primitive.ObjectID
}

// ParseCursor decodes an opaque feed cursor. It never fails: anything that
// does not parse resumes from the start of the followed group.
func ParseCursor(raw string) Cursor {
	if raw == "" {
		return Cursor{Group: GroupFollowed}
	}

	if group, rest, ok := strings.Cut(raw, ":"); ok && (group == GroupFollowed || group == GroupOther) {
		until, ref := parseTimeRef(rest)
		return Cursor{Group: group, Until: until, Ref: ref}
	}

	return Cursor{Group: GroupFollowed}
}

// String encodes the cursor for the client. The format is private to this
// package; clients must treat it as opaque.
func (c Cursor) String() string {
	if c.Until.IsZero() {
		return c.Group + ":"
	}
	return c.Group + ":" + formatTimeRef(c.Until, c.Ref)
}

// ParseTimeCursor decodes the cursor used by author timelines. Invalid input
// means start from the top.
func ParseTimeCursor(raw string) (time.Time, primitive.ObjectID) {
	return parseTimeRef(raw)
}

// FormatTimeCursor encodes an author-timeline cursor.
func FormatTimeCursor(t time.Time, ref primitive.ObjectID) string {
	return formatTimeRef(t, ref)
}

// ParseEdgeCursor decodes the cursor used by follower and following lists,
// whose rows carry numeric ids. Invalid input means start from the top.
func ParseEdgeCursor(raw string) (time.Time, uint) {
	ts := raw
	var ref uint
	if i := strings.LastIndexByte(raw, ':'); i >= 0 {
		if id, err := strconv.ParseUint(raw[i+1:], 10, 32); err == nil && id != 0 {
			ref = uint(id)
			ts = raw[:i]
		}
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, 0
	}
	return t, ref
}

// FormatEdgeCursor encodes a follower-list cursor.
func FormatEdgeCursor(t time.Time, id uint) string {
	return t.UTC().Format(time.RFC3339Nano) + ":" + strconv.FormatUint(uint64(id), 10)
}

func formatTimeRef(t time.Time, ref primitive.ObjectID) string {
	return t.UTC().Format(time.RFC3339Nano) + ":" + ref.Hex()
}

// parseTimeRef splits "<RFC3339Nano>:<hex id>". The id suffix is optional so
// older timestamp-only cursors still resume; the trailing segment is only
// treated as an id when it is a well-formed ObjectID, which no RFC3339
// fragment is.
func parseTimeRef(raw string) (time.Time, primitive.ObjectID) {
	ts := raw
	var ref primitive.ObjectID
	if i := strings.LastIndexByte(raw, ':'); i >= 0 {
		if id, err := primitive.ObjectIDFromHex(raw[i+1:]); err == nil {
			ref = id
			ts = raw[:i]
		}
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, primitive.ObjectID{}
	}
	return t, ref
}
