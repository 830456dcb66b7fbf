package server

import (
	"strings"

	"bugbook/internal/auth"
	"bugbook/internal/models"
	"bugbook/internal/observability"
	"bugbook/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// feedPageSize is the number of posts per feed page. One extra row is fetched
// to decide whether another page exists.
const feedPageSize = 10

// GetForYouFeed handles GET /api/posts/for-you
// @Summary For-you feed
// @Description Return one page of the reverse-chronological feed
// @Tags posts
// @Produce json
// @Param cursor query string false "ID of the last post from the previous page"
// @Success 200 {object} models.PostsPage
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts/for-you [get]
func (s *Server) GetForYouFeed(c *fiber.Ctx) error {
	userID := s.currentUser(c).ID
	cursor := c.Query("cursor")

	posts, err := s.postRepo.ListFeed(c.UserContext(), cursor, feedPageSize+1, userID)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	page := models.PostsPage{Posts: posts}
	if len(posts) > feedPageSize {
		page.Posts = posts[:feedPageSize]
		next := page.Posts[feedPageSize-1].ID
		page.NextCursor = &next
	}
	if page.Posts == nil {
		page.Posts = []*models.Post{}
	}

	cursorLabel := "none"
	if cursor != "" {
		cursorLabel = "present"
	}
	observability.FeedPagesServed.WithLabelValues(cursorLabel).Inc()

	return c.Status(fiber.StatusOK).JSON(page)
}

// CreatePost handles POST /api/posts
// @Summary Create post
// @Description Create a new post authored by the authenticated user
// @Tags posts
// @Accept json
// @Produce json
// @Param request body object{content=string} true "Post content"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	content := strings.TrimSpace(req.Content)
	if err := validation.ValidatePostContent(content); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	user := s.currentUser(c)
	postID, err := auth.NewPostID()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	post := &models.Post{
		ID:      postID,
		Content: content,
		UserID:  user.ID,
	}
	if err := s.postRepo.Create(c.UserContext(), post); err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	post.User = *user
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
// @Summary Post detail
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.postRepo.GetByID(c.UserContext(), c.Params("id"), s.currentUser(c).ID)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

// DeletePost handles DELETE /api/posts/:id. Only the author may delete.
// @Summary Delete post
// @Tags posts
// @Param id path string true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	user := s.currentUser(c)

	post, err := s.postRepo.GetByID(c.UserContext(), c.Params("id"), user.ID)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	if post.UserID != user.ID {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("You can only delete your own posts"))
	}

	if err := s.postRepo.Delete(c.UserContext(), post.ID); err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikePost handles POST /api/posts/:id/like. Liking twice is a no-op.
// @Summary Like post
// @Tags posts
// @Param id path string true "Post ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	user := s.currentUser(c)
	postID := c.Params("id")

	// Verify the post exists so likes never dangle
	if _, err := s.postRepo.GetByID(c.UserContext(), postID, user.ID); err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	if err := s.postRepo.Like(c.UserContext(), user.ID, postID); err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UnlikePost handles DELETE /api/posts/:id/like. Unliking an unliked post is
// a no-op.
// @Summary Unlike post
// @Tags posts
// @Param id path string true "Post ID"
// @Success 204
// @Router /posts/{id}/like [delete]
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	user := s.currentUser(c)

	if err := s.postRepo.Unlike(c.UserContext(), user.ID, c.Params("id")); err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
