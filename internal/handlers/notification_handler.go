package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gymbro-app/backend/internal/models"
	"github.com/gymbro-app/backend/internal/notifications"
	"github.com/gymbro-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// NotificationHandler exposes the grouped notification inbox
type NotificationHandler struct {
	inbox          *notifications.Inbox
	userRepository repositories.UserRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(inbox *notifications.Inbox, userRepo repositories.UserRepository) *NotificationHandler {
	return &NotificationHandler{inbox: inbox, userRepository: userRepo}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.POST("/notifications/:id/read", h.MarkRead)
	g.POST("/notifications/read-all", h.MarkAllRead)
	g.DELETE("/notifications/:id", h.DeleteNotification)
}

// EnrichedGroup is a notification group plus its representative actor
type EnrichedGroup struct {
	notifications.Group
	Actor models.UserCompact `json:"actor"`
}

// GetNotifications returns one page of grouped notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 20
	} else if limit > 50 {
		limit = 50
	}

	groups, unread, err := h.inbox.ListGroups(currentUserID, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	actorIDSet := make(map[uint]bool)
	for _, g := range groups {
		actorIDSet[g.ActorID] = true
	}
	actorIDs := make([]uint, 0, len(actorIDSet))
	for id := range actorIDSet {
		actorIDs = append(actorIDs, id)
	}
	actors, err := h.userRepository.GetUsersByIDs(actorIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	actorMap := make(map[uint]models.UserCompact, len(actors))
	for _, a := range actors {
		actorMap[a.ID] = a.ToCompact()
	}

	items := make([]EnrichedGroup, len(groups))
	for i, g := range groups {
		items[i] = EnrichedGroup{Group: g, Actor: actorMap[g.ActorID]}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"items":       items,
		"unreadCount": unread,
		"page":        page,
		"limit":       limit,
	})
}

// GetUnreadCount returns the number of unread notification groups
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count, err := h.inbox.UnreadCount(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"unreadCount": count})
}

// MarkRead marks a notification read. For collapsible types the whole group
// the event belongs to is marked.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	readAt, err := h.inbox.MarkRead(currentUserID, uint(id))
	if err != nil {
		if errors.Is(err, notifications.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "readAt": readAt})
}

// MarkAllRead marks every unread notification of the current user read
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	modified, err := h.inbox.MarkAllRead(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "modifiedCount": modified})
}

// DeleteNotification deletes a notification, or its whole group for
// collapsible types.
func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	if err := h.inbox.Delete(currentUserID, uint(id)); err != nil {
		if errors.Is(err, notifications.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
