package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gymbro-app/backend/internal/models"
	"github.com/gymbro-app/backend/internal/notifications"
	"github.com/gymbro-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// maxCommentsPerThread caps the flat comment listing.
const maxCommentsPerThread = 200

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	threadRepository  repositories.ThreadRepository
	userRepository    repositories.UserRepository
	dispatcher        *notifications.Dispatcher
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(
	commentRepo repositories.CommentRepository,
	threadRepo repositories.ThreadRepository,
	userRepo repositories.UserRepository,
	dispatcher *notifications.Dispatcher,
) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		threadRepository:  threadRepo,
		userRepository:    userRepo,
		dispatcher:        dispatcher,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.GET("/threads/:id/comments", h.GetComments)
	g.POST("/threads/:id/comments", h.CreateComment)
	g.DELETE("/threads/:thread_id/comments/:comment_id", h.DeleteComment)
	g.POST("/threads/:thread_id/comments/:comment_id/like", h.ToggleCommentLike)
}

// EnrichedComment includes author info and the viewer's like state
type EnrichedComment struct {
	ID        string             `json:"id"`
	Author    models.UserCompact `json:"author"`
	Text      string             `json:"text"`
	CreatedAt time.Time          `json:"createdAt"`
	LikeCount int                `json:"likeCount"`
	LikedByMe bool               `json:"likedByMe"`
}

// GetComments lists a thread's comments, newest first
func (h *CommentHandler) GetComments(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	threadID := c.Param("id")

	if _, err := h.threadRepository.GetThreadByID(c.Request().Context(), threadID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Thread not found")
	}

	comments, err := h.commentRepository.ListByThread(c.Request().Context(), threadID, maxCommentsPerThread)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	authorIDSet := make(map[uint]bool)
	for _, cm := range comments {
		authorIDSet[cm.AuthorID] = true
	}
	authorIDs := make([]uint, 0, len(authorIDSet))
	for id := range authorIDSet {
		authorIDs = append(authorIDs, id)
	}
	authors, err := h.userRepository.GetUsersByIDs(authorIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	authorMap := make(map[uint]models.UserCompact, len(authors))
	for _, a := range authors {
		authorMap[a.ID] = a.ToCompact()
	}

	items := make([]EnrichedComment, len(comments))
	for i, cm := range comments {
		likedByMe := false
		for _, id := range cm.LikedBy {
			if id == currentUserID {
				likedByMe = true
				break
			}
		}
		items[i] = EnrichedComment{
			ID:        cm.ID.Hex(),
			Author:    authorMap[cm.AuthorID],
			Text:      cm.Text,
			CreatedAt: cm.CreatedAt,
			LikeCount: len(cm.LikedBy),
			LikedByMe: likedByMe,
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreateComment adds a comment and dispatches a `comment` notification with a
// short preview of the text to the thread author.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	threadID := c.Param("id")

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	thread, err := h.threadRepository.GetThreadByID(c.Request().Context(), threadID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Thread not found")
	}

	comment := &models.Comment{
		ThreadID: thread.ID,
		AuthorID: currentUserID,
		Text:     req.Text,
	}
	if err := h.commentRepository.CreateComment(c.Request().Context(), comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	preview := commentPreview(req.Text)
	h.dispatcher.Notify(thread.AuthorID, currentUserID,
		models.NotificationTypeComment, models.EntityTypeThread, threadID,
		fmt.Sprintf("commented: %q", preview))

	return c.JSON(http.StatusCreated, echo.Map{"id": comment.ID.Hex()})
}

// commentPreview truncates the notification preview on a rune boundary so
// multi-byte text never yields invalid UTF-8.
func commentPreview(text string) string {
	const maxRunes = 50
	r := []rune(text)
	if len(r) <= maxRunes {
		return text
	}
	return string(r[:maxRunes])
}

// DeleteComment deletes the current user's own comment
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	comment, err := h.commentRepository.GetCommentByID(c.Request().Context(), c.Param("comment_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
	}
	if comment.ThreadID.Hex() != c.Param("thread_id") {
		return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
	}
	if comment.AuthorID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Cannot delete another user's comment")
	}

	if err := h.commentRepository.DeleteComment(c.Request().Context(), c.Param("comment_id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// ToggleCommentLike likes or unlikes a comment
func (h *CommentHandler) ToggleCommentLike(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	comment, err := h.commentRepository.GetCommentByID(c.Request().Context(), c.Param("comment_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
	}
	if comment.ThreadID.Hex() != c.Param("thread_id") {
		return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
	}

	liked := false
	for _, id := range comment.LikedBy {
		if id == currentUserID {
			liked = true
			break
		}
	}

	if err := h.commentRepository.ToggleLike(c.Request().Context(), comment.ID.Hex(), currentUserID, liked); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	count := len(comment.LikedBy)
	if liked {
		count--
	} else {
		count++
	}
	return c.JSON(http.StatusOK, echo.Map{"likedByMe": !liked, "likeCount": count})
}
