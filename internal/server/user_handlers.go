package server

import (
	"bugbook/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
// @Summary Current user profile
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(s.currentUser(c))
}

// GetUserProfile handles GET /api/users/:id
// @Summary User profile
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	user, err := s.userRepo.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.Status(fiber.StatusOK).JSON(user)
}

// GetUserPosts handles GET /api/users/:id/posts
// @Summary Posts by user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Param limit query int false "Page size" default(10)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/posts [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	authorID := c.Params("id")

	// 404 for unknown users rather than an empty list
	if _, err := s.userRepo.GetByID(c.UserContext(), authorID); err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	limit := c.QueryInt("limit", feedPageSize)
	if limit < 1 || limit > 50 {
		limit = feedPageSize
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	posts, err := s.postRepo.ListByUser(c.UserContext(), authorID, limit, offset, s.currentUser(c).ID)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}
