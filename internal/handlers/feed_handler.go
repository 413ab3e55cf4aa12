package handlers

import (
	"net/http"
	"strconv"

	"github.com/gymbro-app/backend/internal/feed"
	"github.com/gymbro-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	assembler *feed.Assembler
	presenter threadPresenter
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(
	assembler *feed.Assembler,
	userRepo repositories.UserRepository,
	commentRepo repositories.CommentRepository,
	repostRepo repositories.RepostRepository,
	savedThreadRepo repositories.SavedThreadRepository,
) *FeedHandler {
	return &FeedHandler{
		assembler: assembler,
		presenter: threadPresenter{
			userRepository:        userRepo,
			commentRepository:     commentRepo,
			repostRepository:      repostRepo,
			savedThreadRepository: savedThreadRepo,
		},
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns one cursor-paginated feed page for the current user. An
// authorId query parameter switches to the profile timeline.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 20
	} else if limit > 50 {
		limit = 50
	}
	cursor := c.QueryParam("cursor")

	var page feed.Page
	var err error
	if rawAuthor := c.QueryParam("authorId"); rawAuthor != "" {
		authorID, parseErr := strconv.ParseUint(rawAuthor, 10, 32)
		if parseErr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid author ID")
		}
		page, err = h.assembler.AuthorTimeline(c.Request().Context(), uint(authorID), cursor, limit)
	} else {
		page, err = h.assembler.Assemble(c.Request().Context(), currentUserID, cursor, limit)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	items, err := h.presenter.present(c.Request().Context(), currentUserID, page.Items)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"items":      items,
		"nextCursor": page.NextCursor,
	})
}
