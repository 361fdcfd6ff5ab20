package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/wadtheplanet/wadtheplanet/internal/services"
	"github.com/wadtheplanet/wadtheplanet/internal/utils"
)

// AccountHandler handles the logged-in user's self-service routes.
type AccountHandler struct {
	Users   *services.UserService
	Systems *services.SystemService
	Store   *session.Store
}

// Me handles GET /account: the caller's own profile with all of their solar
// systems, private ones included.
func (h *AccountHandler) Me(c *fiber.Ctx) error {
	user := currentUser(c)

	_, systems, err := h.Systems.ListForAccount(user.ID, user.Username)
	if err != nil {
		return respondServiceError(c, err, "account.me")
	}

	return utils.SuccessResponse(c, fiber.Map{
		"user":         user,
		"solarSystems": systems,
	}, fiber.StatusOK)
}

type editAccountInput struct {
	Email    *string `json:"email" form:"email"`
	Password *string `json:"password" form:"password"`
}

// Edit handles POST /account/edit. Accepts email/password fields and an
// optional multipart "avatar" image.
func (h *AccountHandler) Edit(c *fiber.Ctx) error {
	user := currentUser(c)

	var in editAccountInput
	if err := c.BodyParser(&in); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "account.edit")
	}

	updated, err := h.Users.Update(user.ID, services.UpdateUserInput{
		Email:    in.Email,
		Password: in.Password,
	})
	if err != nil {
		return respondServiceError(c, err, "account.edit")
	}

	if file, err := c.FormFile("avatar"); err == nil {
		f, err := file.Open()
		if err != nil {
			return utils.ErrorResponse(c, "Cannot read avatar upload", fiber.StatusBadRequest, "account.edit")
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return utils.ErrorResponse(c, "Cannot read avatar upload", fiber.StatusBadRequest, "account.edit")
		}
		if err := h.Users.SetAvatar(c.Context(), user.ID, data); err != nil {
			return respondServiceError(c, err, "account.edit")
		}
	}

	return utils.SuccessResponse(c, updated, fiber.StatusOK)
}

// Delete handles POST /account/delete: removes the account and everything it
// owns, then ends the session.
func (h *AccountHandler) Delete(c *fiber.Ctx) error {
	user := currentUser(c)

	if err := h.Users.Delete(c.Context(), user.ID); err != nil {
		return respondServiceError(c, err, "account.delete")
	}

	if sess, err := h.Store.Get(c); err == nil {
		_ = sess.Destroy()
	}
	return utils.MessageResponse(c, "Account deleted")
}
