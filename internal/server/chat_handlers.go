package server

import (
	"errors"
	"time"

	"bugbook/internal/models"

	"github.com/gofiber/fiber/v2"
)

// chatTokenLifetime bounds how long a minted chat token stays valid.
const chatTokenLifetime = time.Hour

// GetChatToken handles GET /api/chat/token
// @Summary Chat token
// @Description Mint a short-lived token the frontend chat SDK presents as the user
// @Tags chat
// @Produce json
// @Success 200 {object} object{token=string,expiresAt=string}
// @Failure 401 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /chat/token [get]
func (s *Server) GetChatToken(c *fiber.Ctx) error {
	if s.chat == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(errors.New("chat integration is not configured")))
	}

	expiresAt := time.Now().Add(chatTokenLifetime)
	token, err := s.chat.CreateToken(s.currentUser(c).ID, expiresAt)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"token":     token,
		"expiresAt": expiresAt,
	})
}
