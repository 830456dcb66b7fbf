package server

import (
	"io"

	"bugbook/internal/models"
	"bugbook/internal/uploads"

	"github.com/gofiber/fiber/v2"
)

// UploadAvatar handles POST /api/uploads/avatar
// @Summary Upload avatar
// @Description Accept an image file, normalize it, store it, and set it as the user's avatar
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Avatar image (JPEG, PNG, GIF, or WebP)"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /uploads/avatar [post]
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Avatar file is required"))
	}
	if fileHeader.Size > uploads.MaxUploadBytes {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Avatar file is too large"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(io.LimitReader(file, uploads.MaxUploadBytes+1))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	user, err := s.uploadService.UploadAvatar(c.UserContext(), s.currentUser(c).ID, content)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.Status(fiber.StatusOK).JSON(user)
}
