package handlers

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gymbro-app/backend/internal/models"
	"github.com/gymbro-app/backend/internal/notifications"
	"github.com/gymbro-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

var tagPattern = regexp.MustCompile(`#([A-Za-z0-9_]+)`)

// ThreadHandler handles thread CRUD plus the like and repost toggles.
type ThreadHandler struct {
	threadRepository repositories.ThreadRepository
	repostRepository repositories.RepostRepository
	followRepository repositories.FollowRepository
	dispatcher       *notifications.Dispatcher
	presenter        threadPresenter
}

// NewThreadHandler creates a new ThreadHandler
func NewThreadHandler(
	threadRepo repositories.ThreadRepository,
	repostRepo repositories.RepostRepository,
	followRepo repositories.FollowRepository,
	userRepo repositories.UserRepository,
	commentRepo repositories.CommentRepository,
	savedThreadRepo repositories.SavedThreadRepository,
	dispatcher *notifications.Dispatcher,
) *ThreadHandler {
	return &ThreadHandler{
		threadRepository: threadRepo,
		repostRepository: repostRepo,
		followRepository: followRepo,
		dispatcher:       dispatcher,
		presenter: threadPresenter{
			userRepository:        userRepo,
			commentRepository:     commentRepo,
			repostRepository:      repostRepo,
			savedThreadRepository: savedThreadRepo,
		},
	}
}

// RegisterThreadRoutes registers thread-related routes
func (h *ThreadHandler) RegisterThreadRoutes(g *echo.Group) {
	g.POST("/threads", h.CreateThread)
	g.GET("/threads/:id", h.GetThread)
	g.DELETE("/threads/:id", h.DeleteThread)
	g.POST("/threads/:id/like", h.ToggleLike)
	g.POST("/threads/:id/repost", h.ToggleRepost)
}

// CreateThread creates a thread and fans a `post` notification out to every
// mutual follower of the author.
func (h *ThreadHandler) CreateThread(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateThreadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	text := strings.TrimSpace(req.Text)
	if text == "" && len(req.Media) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "text or media is required")
	}
	if err := validateMedia(req.Media); err != nil {
		return err
	}

	thread := &models.Thread{
		AuthorID: currentUserID,
		Text:     text,
		Tags:     extractTags(text),
		Media:    req.Media,
		Fitness:  req.Fitness,
	}
	if err := h.threadRepository.CreateThread(c.Request().Context(), thread); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.notifyMutualFollowers(currentUserID, thread)

	return c.JSON(http.StatusCreated, echo.Map{"id": thread.ID.Hex()})
}

// notifyMutualFollowers dispatches a `post` event to each follower the author
// follows back. Push failures never surface; the thread is already created.
func (h *ThreadHandler) notifyMutualFollowers(authorID uint, thread *models.Thread) {
	followerIDs, err := h.followRepository.GetFollowerIDs(authorID)
	if err != nil {
		return
	}
	followingIDs, err := h.followRepository.GetFollowingIDs(authorID)
	if err != nil {
		return
	}
	following := make(map[uint]bool, len(followingIDs))
	for _, id := range followingIDs {
		following[id] = true
	}

	for _, followerID := range followerIDs {
		if !following[followerID] {
			continue
		}
		h.dispatcher.Notify(followerID, authorID,
			models.NotificationTypePost, models.EntityTypeThread, thread.ID.Hex(),
			"posted a new post")
	}
}

// GetThread returns a single enriched thread
func (h *ThreadHandler) GetThread(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	thread, err := h.threadRepository.GetThreadByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Thread not found")
	}

	items, err := h.presenter.present(c.Request().Context(), currentUserID, []models.Thread{*thread})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items[0])
}

// DeleteThread deletes the current user's own thread
func (h *ThreadHandler) DeleteThread(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	thread, err := h.threadRepository.GetThreadByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Thread not found")
	}
	if thread.AuthorID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Cannot delete another user's thread")
	}

	if err := h.threadRepository.DeleteThread(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// ToggleLike likes the thread if the user has not liked it, unlikes it
// otherwise. Like dispatches a notification to the author; unlike revokes it.
func (h *ThreadHandler) ToggleLike(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	threadID := c.Param("id")

	thread, err := h.threadRepository.GetThreadByID(c.Request().Context(), threadID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Thread not found")
	}

	if thread.LikedByUser(currentUserID) {
		if _, err := h.threadRepository.RemoveLike(c.Request().Context(), threadID, currentUserID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		h.dispatcher.Revoke(thread.AuthorID, currentUserID,
			models.NotificationTypeLike, models.EntityTypeThread, threadID)
		return c.JSON(http.StatusOK, echo.Map{"likedByMe": false, "likeCount": len(thread.LikedBy) - 1})
	}

	added, err := h.threadRepository.AddLike(c.Request().Context(), threadID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if added {
		if _, err := h.dispatcher.Notify(thread.AuthorID, currentUserID,
			models.NotificationTypeLike, models.EntityTypeThread, threadID,
			"liked your post"); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"likedByMe": true, "likeCount": len(thread.LikedBy) + 1})
}

// ToggleRepost reposts the thread or removes an existing repost.
func (h *ThreadHandler) ToggleRepost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	threadID := c.Param("id")
	ctx := c.Request().Context()

	thread, err := h.threadRepository.GetThreadByID(ctx, threadID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Thread not found")
	}

	reposted, err := h.repostRepository.HasUserReposted(ctx, currentUserID, threadID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if reposted {
		if err := h.repostRepository.DeleteRepost(ctx, currentUserID, threadID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		h.dispatcher.Revoke(thread.AuthorID, currentUserID,
			models.NotificationTypeRepost, models.EntityTypeThread, threadID)
	} else {
		repost := &models.Repost{UserID: currentUserID, ThreadID: thread.ID}
		if err := h.repostRepository.CreateRepost(ctx, repost); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if _, err := h.dispatcher.Notify(thread.AuthorID, currentUserID,
			models.NotificationTypeRepost, models.EntityTypeThread, threadID,
			"reposted your post"); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	count, err := h.repostRepository.CountByThread(ctx, threadID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"repostedByMe": !reposted, "repostCount": count})
}

func extractTags(text string) []string {
	tags := []string{}
	seen := make(map[string]bool)
	for _, m := range tagPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			tags = append(tags, m[1])
		}
	}
	return tags
}

func validateMedia(media []models.ThreadMedia) error {
	hasVideo, hasImage := false, false
	for _, m := range media {
		switch m.Type {
		case "video":
			hasVideo = true
		case "image":
			hasImage = true
		}
	}
	if hasVideo && hasImage {
		return echo.NewHTTPError(http.StatusBadRequest, "Only multiple images OR a single video is allowed")
	}
	if hasVideo && len(media) > 1 {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Only 1 video is allowed per post, got %d media items", len(media)))
	}
	return nil
}
