package handlers

import (
	"context"
	"time"

	"github.com/gymbro-app/backend/internal/models"
	"github.com/gymbro-app/backend/internal/repositories"
)

// ThreadStats are the derived per-thread counters. Likes come from the
// thread's member set, replies and reposts from their own collections; none
// of them is a stored counter.
type ThreadStats struct {
	Likes   int   `json:"likes"`
	Replies int64 `json:"replies"`
	Reposts int64 `json:"reposts"`
}

// ThreadItem is a thread enriched with author info and viewer-specific flags.
type ThreadItem struct {
	ID           string                `json:"id"`
	Author       models.UserCompact    `json:"author"`
	CreatedAt    time.Time             `json:"createdAt"`
	Text         string                `json:"text"`
	Tags         []string              `json:"tags"`
	Media        []models.ThreadMedia  `json:"media"`
	Fitness      *models.ThreadFitness `json:"fitness,omitempty"`
	Stats        ThreadStats           `json:"stats"`
	LikedByMe    bool                  `json:"likedByMe"`
	SavedByMe    bool                  `json:"savedByMe"`
	RepostedByMe bool                  `json:"repostedByMe"`
}

// threadPresenter builds ThreadItems for any handler that returns threads.
type threadPresenter struct {
	userRepository        repositories.UserRepository
	commentRepository     repositories.CommentRepository
	repostRepository      repositories.RepostRepository
	savedThreadRepository repositories.SavedThreadRepository
}

func (p *threadPresenter) present(ctx context.Context, viewerID uint, threads []models.Thread) ([]ThreadItem, error) {
	authorIDSet := make(map[uint]bool)
	threadIDs := make([]string, len(threads))
	for i, t := range threads {
		authorIDSet[t.AuthorID] = true
		threadIDs[i] = t.ID.Hex()
	}

	authorIDs := make([]uint, 0, len(authorIDSet))
	for id := range authorIDSet {
		authorIDs = append(authorIDs, id)
	}
	authors, err := p.userRepository.GetUsersByIDs(authorIDs)
	if err != nil {
		return nil, err
	}
	authorMap := make(map[uint]models.UserCompact, len(authors))
	for _, a := range authors {
		authorMap[a.ID] = a.ToCompact()
	}

	savedMap, err := p.savedThreadRepository.GetSavedThreadIDs(ctx, viewerID, threadIDs)
	if err != nil {
		return nil, err
	}
	repostedMap, err := p.repostRepository.GetRepostedThreadIDs(ctx, viewerID, threadIDs)
	if err != nil {
		return nil, err
	}

	items := make([]ThreadItem, len(threads))
	for i, t := range threads {
		tid := t.ID.Hex()
		replies, err := p.commentRepository.CountByThread(ctx, tid)
		if err != nil {
			return nil, err
		}
		reposts, err := p.repostRepository.CountByThread(ctx, tid)
		if err != nil {
			return nil, err
		}
		items[i] = ThreadItem{
			ID:           tid,
			Author:       authorMap[t.AuthorID],
			CreatedAt:    t.CreatedAt,
			Text:         t.Text,
			Tags:         t.Tags,
			Media:        t.Media,
			Fitness:      t.Fitness,
			Stats:        ThreadStats{Likes: len(t.LikedBy), Replies: replies, Reposts: reposts},
			LikedByMe:    t.LikedByUser(viewerID),
			SavedByMe:    savedMap[tid],
			RepostedByMe: repostedMap[tid],
		}
	}
	return items, nil
}
