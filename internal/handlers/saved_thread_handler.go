package handlers

import (
	"net/http"

	"github.com/gymbro-app/backend/internal/models"
	"github.com/gymbro-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// SavedThreadHandler handles the viewer's private saved-thread list
type SavedThreadHandler struct {
	savedThreadRepository repositories.SavedThreadRepository
	threadRepository      repositories.ThreadRepository
}

// NewSavedThreadHandler creates a new SavedThreadHandler
func NewSavedThreadHandler(savedThreadRepo repositories.SavedThreadRepository, threadRepo repositories.ThreadRepository) *SavedThreadHandler {
	return &SavedThreadHandler{
		savedThreadRepository: savedThreadRepo,
		threadRepository:      threadRepo,
	}
}

// RegisterSavedThreadRoutes registers saved-thread routes
func (h *SavedThreadHandler) RegisterSavedThreadRoutes(g *echo.Group) {
	g.POST("/threads/:id/save", h.ToggleSave)
}

// ToggleSave saves the thread for the viewer, or unsaves it if already saved.
// Saving is private; no notification is dispatched.
func (h *SavedThreadHandler) ToggleSave(c echo.Context) error {
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

	saved, err := h.savedThreadRepository.IsSaved(ctx, currentUserID, threadID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if saved {
		if err := h.savedThreadRepository.UnsaveThread(ctx, currentUserID, threadID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	} else {
		entry := &models.SavedThread{UserID: currentUserID, ThreadID: thread.ID}
		if err := h.savedThreadRepository.SaveThread(ctx, entry); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"savedByMe": !saved})
}
