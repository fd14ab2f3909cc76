package handlers

import (
	"net/http"
	"strconv"

	"github.com/greenloop/ecopost/backend/internal/engagement"
	"github.com/greenloop/ecopost/backend/internal/feed"
	"github.com/greenloop/ecopost/backend/internal/models"
	"github.com/greenloop/ecopost/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	sessions       *engagement.Manager
	userRepository repositories.UserRepository
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(sessions *engagement.Manager, userRepo repositories.UserRepository) *FeedHandler {
	return &FeedHandler{
		sessions:       sessions,
		userRepository: userRepo,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
	g.DELETE("/feed/session", h.DropSession)
}

// GetFeed returns the user's feed, searched and ranked. The search always
// runs against the full local collection before ranking, so changing the
// field selector or clearing the query never compounds with a prior pass.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	session := h.sessions.Session(userID)
	forceRefresh, _ := strconv.ParseBool(c.QueryParam("refresh"))
	if forceRefresh || len(session.Posts()) == 0 {
		if err := session.Refresh(c.Request().Context()); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	sortKey := feed.ParseSortKey(c.QueryParam("sort"))
	field := feed.ParseSearchField(c.QueryParam("field"))
	query := c.QueryParam("q")

	posts := feed.Rank(feed.Filter(session.Posts(), field, query), sortKey)

	// Build the author map for the displayed subset
	authorMap := make(map[string]models.UserCompact)
	for _, p := range posts {
		if _, seen := authorMap[p.AuthorID]; seen {
			continue
		}
		if id, err := strconv.ParseUint(p.AuthorID, 10, 32); err == nil {
			if user, err := h.userRepository.GetUserByID(uint(id)); err == nil {
				authorMap[p.AuthorID] = user.ToCompact()
			}
		}
	}

	enriched := make([]models.EnrichedFeedPost, len(posts))
	for i, p := range posts {
		enriched[i] = models.EnrichedFeedPost{
			FeedPost: p,
			Author:   authorMap[p.AuthorID],
			Viewer:   session.Reaction(p.ID.Hex()),
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"posts": enriched,
		"meta": echo.Map{
			"sort":  sortKey,
			"field": field,
			"query": query,
			"count": len(enriched),
		},
	})
}

// DropSession discards the user's feed session, e.g. on sign-out
func (h *FeedHandler) DropSession(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	h.sessions.Drop(userID)
	return c.NoContent(http.StatusNoContent)
}
