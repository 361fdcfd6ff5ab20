package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/wadtheplanet/wadtheplanet/internal/models"
	"github.com/wadtheplanet/wadtheplanet/internal/types"
	"gorm.io/gorm"
)

// SessionUserKey is the session key holding the logged-in user ID.
const SessionUserKey = "user_id"

// Auth resolves the session cookie to a user record.
type Auth struct {
	Store *session.Store
	DB    *gorm.DB
}

// LoadUser resolves the current session to a user, if any, and stores it in
// c.Locals("user"). Anonymous requests pass through with no user set. A
// session pointing at a deleted account is destroyed.
func (a *Auth) LoadUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := a.Store.Get(c)
		if err != nil {
			return c.Next()
		}

		userID, ok := sess.Get(SessionUserKey).(uint)
		if !ok || userID == 0 {
			return c.Next()
		}

		var user models.User
		if err := a.DB.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				_ = sess.Destroy()
			}
			return c.Next()
		}

		c.Locals("user", &user)
		return c.Next()
	}
}

// RequireUser rejects requests without a logged-in user. Must run after
// LoadUser.
func (a *Auth) RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals("user").(*models.User); !ok {
			return &types.CustomError{
				Code:    fiber.StatusForbidden,
				Message: "Login required",
				Type:    "authorization.user",
			}
		}
		return c.Next()
	}
}
