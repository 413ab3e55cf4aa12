package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gymbro-app/backend/internal/feed"
	"github.com/gymbro-app/backend/internal/models"
	"github.com/gymbro-app/backend/internal/notifications"
	"github.com/gymbro-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followRepository repositories.FollowRepository
	userRepository   repositories.UserRepository
	dispatcher       *notifications.Dispatcher
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, dispatcher *notifications.Dispatcher) *FollowHandler {
	return &FollowHandler{
		followRepository: followRepo,
		userRepository:   userRepo,
		dispatcher:       dispatcher,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.GET("/users/:id/follow", h.GetFollowSummary)
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
}

func (h *FollowHandler) targetID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	return uint(id), nil
}

func (h *FollowHandler) summary(c echo.Context, isFollowing bool, targetID uint) error {
	followerCount, err := h.followRepository.GetFollowersCount(targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	followingCount, err := h.followRepository.GetFollowingCount(targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"isFollowing":    isFollowing,
		"followerCount":  followerCount,
		"followingCount": followingCount,
	})
}

// GetFollowSummary returns follower/following counts and whether the current
// user follows the target
func (h *FollowHandler) GetFollowSummary(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	targetID, err := h.targetID(c)
	if err != nil {
		return err
	}

	isFollowing, err := h.followRepository.IsFollowing(currentUserID, targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return h.summary(c, isFollowing, targetID)
}

// FollowUser follows a user and dispatches a `follow` notification
func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	targetID, err := h.targetID(c)
	if err != nil {
		return err
	}
	if currentUserID == targetID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}
	if _, err := h.userRepository.GetUserByID(targetID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	isFollowing, err := h.followRepository.IsFollowing(currentUserID, targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if isFollowing {
		// Already following; just report current state.
		return h.summary(c, true, targetID)
	}

	follow := &models.Follow{FollowerID: currentUserID, FollowingID: targetID}
	if err := h.followRepository.CreateFollow(follow); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.dispatcher.Notify(targetID, currentUserID,
		models.NotificationTypeFollow, models.EntityTypeUser, fmt.Sprint(currentUserID),
		"started following you")

	return h.summary(c, true, targetID)
}

// UnfollowUser removes the follow edge and revokes its notification
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	targetID, err := h.targetID(c)
	if err != nil {
		return err
	}
	if currentUserID == targetID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot unfollow yourself")
	}

	isFollowing, err := h.followRepository.IsFollowing(currentUserID, targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !isFollowing {
		return h.summary(c, false, targetID)
	}

	if err := h.followRepository.DeleteFollow(currentUserID, targetID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.dispatcher.Revoke(targetID, currentUserID,
		models.NotificationTypeFollow, models.EntityTypeUser, fmt.Sprint(currentUserID))

	return h.summary(c, false, targetID)
}

// GetFollowers lists a user's followers with a descending-time cursor
func (h *FollowHandler) GetFollowers(c echo.Context) error {
	return h.listEdges(c, true)
}

// GetFollowing lists who a user follows with a descending-time cursor
func (h *FollowHandler) GetFollowing(c echo.Context) error {
	return h.listEdges(c, false)
}

func (h *FollowHandler) listEdges(c echo.Context, followers bool) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	targetID, err := h.targetID(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 20
	} else if limit > 50 {
		limit = 50
	}
	before, beforeID := feed.ParseEdgeCursor(c.QueryParam("cursor"))

	var edges []models.Follow
	if followers {
		edges, err = h.followRepository.ListFollowers(targetID, before, beforeID, limit+1)
	} else {
		edges, err = h.followRepository.ListFollowing(targetID, before, beforeID, limit+1)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var nextCursor *string
	if len(edges) > limit {
		cursor := feed.FormatEdgeCursor(edges[limit].CreatedAt, edges[limit].ID)
		nextCursor = &cursor
		edges = edges[:limit]
	}

	userIDs := make([]uint, len(edges))
	for i, e := range edges {
		if followers {
			userIDs[i] = e.FollowerID
		} else {
			userIDs[i] = e.FollowingID
		}
	}
	users, err := h.userRepository.GetUsersByIDs(userIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	userMap := make(map[uint]models.UserCompact, len(users))
	for _, u := range users {
		userMap[u.ID] = u.ToCompact()
	}

	items := make([]models.UserCompact, 0, len(edges))
	for _, id := range userIDs {
		if u, ok := userMap[id]; ok {
			items = append(items, u)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "nextCursor": nextCursor})
}
