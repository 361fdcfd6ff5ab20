package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/wadtheplanet/wadtheplanet/internal/models"
	"github.com/wadtheplanet/wadtheplanet/internal/services"
	"github.com/wadtheplanet/wadtheplanet/internal/utils"
	"github.com/wadtheplanet/wadtheplanet/internal/visibility"
)

// currentUser returns the logged-in user from context, or nil (set by the
// auth middleware).
func currentUser(c *fiber.Ctx) *models.User {
	if user, ok := c.Locals("user").(*models.User); ok {
		return user
	}
	return nil
}

// requesterID returns the logged-in user ID, or visibility.Anonymous.
func requesterID(c *fiber.Ctx) uint {
	if user := currentUser(c); user != nil {
		return user.ID
	}
	return visibility.Anonymous
}

// respondServiceError translates service sentinel errors into the standard
// error envelope. Not-found and forbidden map to distinct codes; unexpected
// errors become an opaque 500 so persistence details never leak.
func respondServiceError(c *fiber.Ctx, err error, errorType string) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, errorType)
	case errors.Is(err, services.ErrBadCredentials):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusUnauthorized, errorType)
	case errors.Is(err, services.ErrForbidden):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, errorType)
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFoundResponse(c, err.Error())
	case errors.Is(err, services.ErrDuplicate):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusConflict, errorType)
	default:
		return utils.ErrorResponse(c, "Internal server error", fiber.StatusInternalServerError, errorType)
	}
}

// profileView is the public shape of a user record.
func profileView(user *models.User) fiber.Map {
	return fiber.Map{
		"username":  user.Username,
		"avatarKey": user.AvatarKey,
	}
}
