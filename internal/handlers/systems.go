package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wadtheplanet/wadtheplanet/internal/services"
	"github.com/wadtheplanet/wadtheplanet/internal/utils"
)

// SystemHandler handles account pages and solar-system routes.
type SystemHandler struct {
	Systems *services.SystemService
}

// Account handles GET /:username/, the public account page with the
// visibility-filtered solar systems.
func (h *SystemHandler) Account(c *fiber.Ctx) error {
	owner, systems, err := h.Systems.ListForAccount(requesterID(c), c.Params("username"))
	if err != nil {
		return respondServiceError(c, err, "account.view")
	}

	return utils.SuccessResponse(c, fiber.Map{
		"user":         profileView(owner),
		"solarSystems": systems,
	}, fiber.StatusOK)
}

type createSystemInput struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
	Visibility  *bool  `json:"visibility" form:"visibility"`
}

// Create handles POST /:username/create-system. Systems can only be created
// under the caller's own account path.
func (h *SystemHandler) Create(c *fiber.Ctx) error {
	user := currentUser(c)
	if c.Params("username") != user.Username {
		return utils.ErrorResponse(c, "Cannot create a solar system for another user",
			fiber.StatusForbidden, "system.create")
	}

	var in createSystemInput
	if err := c.BodyParser(&in); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "system.create")
	}
	visible := true
	if in.Visibility != nil {
		visible = *in.Visibility
	}

	system, err := h.Systems.Create(user.ID, in.Name, in.Description, visible)
	if err != nil {
		return respondServiceError(c, err, "system.create")
	}
	return utils.SuccessResponse(c, system, fiber.StatusCreated)
}

// View handles GET /:username/:system/, returning the system with its
// visibility-filtered planets.
func (h *SystemHandler) View(c *fiber.Ctx) error {
	system, planets, err := h.Systems.GetByPath(requesterID(c), c.Params("username"), c.Params("system"))
	if err != nil {
		return respondServiceError(c, err, "system.view")
	}

	return utils.SuccessResponse(c, fiber.Map{
		"solarSystem": system,
		"planets":     planets,
	}, fiber.StatusOK)
}

type editSystemInput struct {
	Name        *string `json:"name" form:"name"`
	Description *string `json:"description" form:"description"`
	Visibility  *bool   `json:"visibility" form:"visibility"`
}

// Edit handles POST /:username/:system/edit.
func (h *SystemHandler) Edit(c *fiber.Ctx) error {
	user := currentUser(c)

	system, _, err := h.Systems.GetByPath(user.ID, c.Params("username"), c.Params("system"))
	if err != nil {
		return respondServiceError(c, err, "system.edit")
	}

	var in editSystemInput
	if err := c.BodyParser(&in); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "system.edit")
	}

	updated, err := h.Systems.Update(user.ID, system.ID, services.UpdateSystemInput{
		Name:        in.Name,
		Description: in.Description,
		Visibility:  in.Visibility,
	})
	if err != nil {
		return respondServiceError(c, err, "system.edit")
	}
	return utils.SuccessResponse(c, updated, fiber.StatusOK)
}

// Delete handles POST /:username/:system/delete.
func (h *SystemHandler) Delete(c *fiber.Ctx) error {
	user := currentUser(c)

	system, _, err := h.Systems.GetByPath(user.ID, c.Params("username"), c.Params("system"))
	if err != nil {
		return respondServiceError(c, err, "system.delete")
	}

	if err := h.Systems.Delete(c.Context(), user.ID, system.ID); err != nil {
		return respondServiceError(c, err, "system.delete")
	}
	return utils.MessageResponse(c, "Solar system deleted")
}
