package server

import (
	"bugbook/internal/auth"
	"bugbook/internal/chat"
	"bugbook/internal/models"
	"bugbook/internal/observability"
	"bugbook/internal/repository"
	"bugbook/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Register a new account and start a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,password=string} true "Signup request"
// @Success 201 {object} object{user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := validation.ValidateUsername(req.Username); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	// Pre-checks give precise conflict messages; the unique indexes remain
	// the authority under races.
	existing, err := s.userRepo.FindByUsername(c.UserContext(), req.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if existing != nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewConflictError("Username already taken"))
	}

	existing, err = s.userRepo.FindByEmail(c.UserContext(), req.Email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if existing != nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewConflictError("Email already taken"))
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	userID, err := auth.NewUserID()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	user := &models.User{
		ID:           userID,
		Username:     req.Username,
		DisplayName:  req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
	}

	// The chat mirror call runs inside the transaction so a chat outage
	// leaves no half-registered account behind.
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewUserRepository(tx).Create(c.UserContext(), user); err != nil {
			return err
		}
		if s.chat != nil {
			if err := s.chat.UpsertUser(c.UserContext(), chat.User{
				ID:       user.ID,
				Username: user.Username,
				Name:     user.DisplayName,
			}); err != nil {
				observability.ChatMirrorFailures.Inc()
				return models.NewInternalError(err)
			}
		}
		return nil
	})
	if txErr != nil {
		return models.RespondWithError(c, models.StatusFor(txErr), txErr)
	}

	session, err := s.sessions.Create(c.UserContext(), user.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	observability.SessionsCreated.WithLabelValues("signup").Inc()

	c.Cookie(s.sessions.SessionCookie(session.ID))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user": user,
	})
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate with username and password and start a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Login credentials"
// @Success 200 {object} object{user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Username == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username and password are required"))
	}

	user, err := s.userRepo.FindByUsername(c.UserContext(), req.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if user == nil || user.PasswordHash == "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Incorrect username or password"))
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil || !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Incorrect username or password"))
	}

	session, err := s.sessions.Create(c.UserContext(), user.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	observability.SessionsCreated.WithLabelValues("login").Inc()

	c.Cookie(s.sessions.SessionCookie(session.ID))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user": user,
	})
}

// Logout handles POST /api/auth/logout
// @Summary User logout
// @Description Invalidate the current session and clear the session cookie
// @Tags auth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	token := c.Cookies(auth.CookieName)

	validation, err := s.sessions.Validate(c.UserContext(), token)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if validation == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Unauthorized"))
	}

	if err := s.sessions.Invalidate(c.UserContext(), validation.Session.ID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	c.Cookie(s.sessions.BlankCookie())
	return c.SendStatus(fiber.StatusNoContent)
}

// GetSession handles GET /api/auth/session
// @Summary Current session
// @Description Return the authenticated user and session expiry
// @Tags auth
// @Produce json
// @Success 200 {object} object{user=models.User,expiresAt=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/session [get]
func (s *Server) GetSession(c *fiber.Ctx) error {
	user := s.currentUser(c)
	session := s.currentSession(c)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user":      user,
		"expiresAt": session.ExpiresAt,
	})
}
