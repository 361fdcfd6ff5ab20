package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/wadtheplanet/wadtheplanet/internal/middleware"
	"github.com/wadtheplanet/wadtheplanet/internal/services"
	"github.com/wadtheplanet/wadtheplanet/internal/utils"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	Users *services.UserService
	Store *session.Store
}

type registerInput struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Register handles POST /register. A successful registration also logs the
// new account in.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in registerInput
	if err := c.BodyParser(&in); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "auth.register")
	}

	user, err := h.Users.Register(in.Username, in.Email, in.Password)
	if err != nil {
		return respondServiceError(c, err, "auth.register")
	}

	if err := h.startSession(c, user.ID); err != nil {
		return respondServiceError(c, err, "auth.register")
	}
	return utils.SuccessResponse(c, user, fiber.StatusCreated)
}

type loginInput struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in loginInput
	if err := c.BodyParser(&in); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "auth.login")
	}

	user, err := h.Users.Authenticate(in.Username, in.Password)
	if err != nil {
		return respondServiceError(c, err, "auth.login")
	}

	if err := h.startSession(c, user.ID); err != nil {
		return respondServiceError(c, err, "auth.login")
	}
	return utils.SuccessResponse(c, user, fiber.StatusOK)
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sess, err := h.Store.Get(c)
	if err == nil {
		_ = sess.Destroy()
	}
	return utils.MessageResponse(c, "Logged out")
}

// startSession rotates the session and binds it to the user.
func (h *AuthHandler) startSession(c *fiber.Ctx, userID uint) error {
	sess, err := h.Store.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(middleware.SessionUserKey, userID)
	return sess.Save()
}
