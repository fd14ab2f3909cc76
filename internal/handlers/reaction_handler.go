package handlers

import (
	"errors"
	"net/http"

	"github.com/greenloop/ecopost/backend/internal/engagement"
	"github.com/greenloop/ecopost/backend/internal/models"
	"github.com/greenloop/ecopost/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// ReactionHandler handles HTTP requests related to reactions
type ReactionHandler struct {
	sessions           *engagement.Manager
	reactionRepository repositories.ReactionRepository
	postRepository     repositories.PostRepository
}

// NewReactionHandler creates a new ReactionHandler
func NewReactionHandler(sessions *engagement.Manager, reactionRepo repositories.ReactionRepository, postRepo repositories.PostRepository) *ReactionHandler {
	return &ReactionHandler{
		sessions:           sessions,
		reactionRepository: reactionRepo,
		postRepository:     postRepo,
	}
}

// RegisterReactionRoutes registers reaction-related routes
func (h *ReactionHandler) RegisterReactionRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/reactions/:type", h.ToggleReaction)
	g.GET("/posts/:post_id/reactions", h.GetPostReaction)
	g.GET("/profile/reactions", h.GetReactedPosts)
}

// ToggleReaction flips one reaction type on a post for the current user
func (h *ReactionHandler) ToggleReaction(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	postID := c.Param("post_id")
	rtype := models.ReactionType(c.Param("type"))
	if !rtype.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown reaction type")
	}

	session := h.sessions.Session(userID)
	if len(session.Posts()) == 0 {
		if err := session.Refresh(c.Request().Context()); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	err := session.Toggle(c.Request().Context(), postID, rtype)
	switch {
	case err == nil:
	case errors.Is(err, engagement.ErrUnknownPost):
		return echo.NewHTTPError(http.StatusNotFound, "Post not found in feed")
	case errors.Is(err, engagement.ErrToggleInFlight):
		return echo.NewHTTPError(http.StatusConflict, "A toggle for this reaction is still in flight, retry shortly")
	case errors.Is(err, engagement.ErrRemoteWrite):
		return echo.NewHTTPError(http.StatusBadGateway, "Reaction could not be saved, feed has been resynchronized")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"post_id":         postID,
		"viewer_reaction": session.Reaction(postID),
	})
}

// GetPostReaction returns the current user's stored flags for one post
func (h *ReactionHandler) GetPostReaction(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	postID := c.Param("post_id")

	reaction, err := h.reactionRepository.GetUserReaction(userID, postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	counts := models.ReactionCounts{}
	if reaction != nil {
		counts = reaction.Counts()
	}
	return c.JSON(http.StatusOK, echo.Map{"post_id": postID, "viewer_reaction": counts})
}

// GetReactedPosts returns the posts the current user has reacted to,
// grouped by reaction type for the profile view
func (h *ReactionHandler) GetReactedPosts(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	rows, err := h.reactionRepository.ListUserReactions(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	grouped := map[models.ReactionType][]models.FeedPost{
		models.ReactionLeaf:    {},
		models.ReactionGoing:   {},
		models.ReactionRecycle: {},
	}

	for _, row := range rows {
		flags := row.Counts()
		var active []models.ReactionType
		for _, t := range models.ReactionTypes {
			if flags.Get(t) == 1 {
				active = append(active, t)
			}
		}
		if len(active) == 0 {
			continue
		}

		post, err := h.postRepository.GetPostByID(c.Request().Context(), row.PostID)
		if err != nil {
			// Post may have been removed; skip its stale reaction row
			continue
		}
		stats, err := h.reactionRepository.GetStats(row.PostID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		fp := models.FeedPost{Post: *post, Stats: stats.Counts()}
		for _, t := range active {
			grouped[t] = append(grouped[t], fp)
		}
	}

	return c.JSON(http.StatusOK, grouped)
}
