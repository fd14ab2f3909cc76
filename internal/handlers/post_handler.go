package handlers

import (
	"net/http"
	"strconv"

	"github.com/greenloop/ecopost/backend/internal/models"
	"github.com/greenloop/ecopost/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository     repositories.PostRepository
	reactionRepository repositories.ReactionRepository
	userRepository     repositories.UserRepository
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, reactionRepo repositories.ReactionRepository, userRepo repositories.UserRepository) *PostHandler {
	return &PostHandler{
		postRepository:     postRepo,
		reactionRepository: reactionRepo,
		userRepository:     userRepo,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.GET("/posts", h.GetMyPosts)
}

// CreatePost creates a new post along with its zeroed stats row. The post
// insert must succeed before the stats insert is attempted; a stats failure
// leaves the post live but uncounted and is surfaced, not rolled back.
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post := &models.Post{
		AuthorID:  strconv.FormatUint(uint64(userID), 10),
		Title:     req.Title,
		Caption:   req.Caption,
		Location:  req.Location,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Scale:     req.Scale,
		ImageURL:  req.ImageURL,
	}

	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.reactionRepository.CreateStats(post.ID.Hex()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError,
			"Post created but its reaction counters could not be initialized")
	}

	return c.JSON(http.StatusCreated, post)
}

// GetPost retrieves one post joined with its aggregate counters, the
// author's compact profile and the caller's own reaction flags
func (h *PostHandler) GetPost(c echo.Context) error {
	postID := c.Param("id")
	userID := getUserIDFromContext(c)

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	stats, err := h.reactionRepository.GetStats(postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	enriched := models.EnrichedFeedPost{
		FeedPost: models.FeedPost{Post: *post, Stats: stats.Counts()},
	}

	if authorID, parseErr := strconv.ParseUint(post.AuthorID, 10, 32); parseErr == nil {
		if author, err := h.userRepository.GetUserByID(uint(authorID)); err == nil {
			enriched.Author = author.ToCompact()
		}
	}

	if userID > 0 {
		if reaction, err := h.reactionRepository.GetUserReaction(userID, postID); err == nil && reaction != nil {
			enriched.Viewer = reaction.Counts()
		}
	}

	return c.JSON(http.StatusOK, enriched)
}

// GetMyPosts retrieves the authenticated user's own posts, newest first
func (h *PostHandler) GetMyPosts(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	skip, _ := strconv.ParseInt(c.QueryParam("skip"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit == 0 {
		limit = 10 // Default limit
	}

	authorID := strconv.FormatUint(uint64(userID), 10)
	posts, err := h.postRepository.GetPostsByAuthorID(c.Request().Context(), authorID, skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	feedPosts := make([]models.FeedPost, 0, len(posts))
	for _, p := range posts {
		stats, err := h.reactionRepository.GetStats(p.ID.Hex())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		feedPosts = append(feedPosts, models.FeedPost{Post: p, Stats: stats.Counts()})
	}

	return c.JSON(http.StatusOK, feedPosts)
}
