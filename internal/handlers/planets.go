package handlers

import (
	"io"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/wadtheplanet/wadtheplanet/internal/services"
	"github.com/wadtheplanet/wadtheplanet/internal/storage"
	"github.com/wadtheplanet/wadtheplanet/internal/types"
	"github.com/wadtheplanet/wadtheplanet/internal/utils"
)

// PlanetHandler handles planet routes and comment/rating submission.
type PlanetHandler struct {
	Systems *services.SystemService
	Planets *services.PlanetService
	Scores  *services.ScoreService
	Blobs   storage.BlobStore
}

type createPlanetInput struct {
	Name       string `json:"name" form:"name"`
	Visibility *bool  `json:"visibility" form:"visibility"`
}

// Create handles POST /:username/:system/create-planet. Accepts an optional
// multipart "texture" image which is normalized on write.
func (h *PlanetHandler) Create(c *fiber.Ctx) error {
	user := currentUser(c)
	if c.Params("username") != user.Username {
		return utils.ErrorResponse(c, "Cannot create a planet for another user",
			fiber.StatusForbidden, "planet.create")
	}

	system, _, err := h.Systems.GetByPath(user.ID, c.Params("username"), c.Params("system"))
	if err != nil {
		return respondServiceError(c, err, "planet.create")
	}

	var in createPlanetInput
	if err := c.BodyParser(&in); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "planet.create")
	}
	visible := true
	if in.Visibility != nil {
		visible = *in.Visibility
	}

	planet, err := h.Planets.Create(user.ID, system.ID, in.Name, visible)
	if err != nil {
		return respondServiceError(c, err, "planet.create")
	}

	if data, ok := h.readUpload(c, "texture"); ok {
		if err := h.Planets.SetTexture(c.Context(), user.ID, planet.ID, data); err != nil {
			// The planet exists; a bad texture is reported but does not undo
			// the create.
			return respondServiceError(c, err, "planet.create")
		}
	}

	return utils.SuccessResponse(c, planet, fiber.StatusCreated)
}

// View handles GET /:username/:system/:planet/, returning the planet with
// its comments.
func (h *PlanetHandler) View(c *fiber.Ctx) error {
	planet, comments, err := h.Planets.GetByPath(requesterID(c),
		c.Params("username"), c.Params("system"), c.Params("planet"))
	if err != nil {
		return respondServiceError(c, err, "planet.view")
	}

	return utils.SuccessResponse(c, fiber.Map{
		"planet":   planet,
		"comments": comments,
	}, fiber.StatusOK)
}

type editPlanetInput struct {
	Name       *string `json:"name" form:"name"`
	Visibility *bool   `json:"visibility" form:"visibility"`
}

// Edit handles POST /:username/:system/:planet/edit. Accepts name and
// visibility fields plus an optional multipart "texture" image. A texture
// that fails to decode leaves the previous texture in place.
func (h *PlanetHandler) Edit(c *fiber.Ctx) error {
	user := currentUser(c)

	planet, _, err := h.Planets.GetByPath(user.ID,
		c.Params("username"), c.Params("system"), c.Params("planet"))
	if err != nil {
		return respondServiceError(c, err, "planet.edit")
	}

	var in editPlanetInput
	if err := c.BodyParser(&in); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "planet.edit")
	}

	updated, err := h.Planets.Update(user.ID, planet.ID, services.UpdatePlanetInput{
		Name:       in.Name,
		Visibility: in.Visibility,
	})
	if err != nil {
		return respondServiceError(c, err, "planet.edit")
	}

	if data, ok := h.readUpload(c, "texture"); ok {
		if err := h.Planets.SetTexture(c.Context(), user.ID, planet.ID, data); err != nil {
			return respondServiceError(c, err, "planet.edit")
		}
	}

	return utils.SuccessResponse(c, updated, fiber.StatusOK)
}

// Delete handles POST /:username/:system/:planet/delete.
func (h *PlanetHandler) Delete(c *fiber.Ctx) error {
	user := currentUser(c)

	planet, _, err := h.Planets.GetByPath(user.ID,
		c.Params("username"), c.Params("system"), c.Params("planet"))
	if err != nil {
		return respondServiceError(c, err, "planet.delete")
	}

	if err := h.Scores.DeletePlanet(user.ID, planet.ID); err != nil {
		return respondServiceError(c, err, "planet.delete")
	}

	if planet.TextureKey != "" {
		if err := h.Blobs.Delete(c.Context(), planet.TextureKey); err != nil {
			log.Printf("Failed to delete texture %s: %v", planet.TextureKey, err)
		}
	}
	return utils.MessageResponse(c, "Planet deleted")
}

type commentInput struct {
	Body   string        `json:"body" form:"body"`
	Rating types.FlexInt `json:"rating" form:"rating"`
}

// Comment handles POST /:username/:system/:planet/comment, the rate/comment
// upsert. A second submission from the same user updates their existing
// comment.
func (h *PlanetHandler) Comment(c *fiber.Ctx) error {
	user := currentUser(c)

	planet, _, err := h.Planets.GetByPath(user.ID,
		c.Params("username"), c.Params("system"), c.Params("planet"))
	if err != nil {
		return respondServiceError(c, err, "planet.comment")
	}

	var in commentInput
	if err := c.BodyParser(&in); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "planet.comment")
	}

	comment, err := h.Scores.UpsertComment(user.ID, planet.ID, in.Rating.Int(), in.Body)
	if err != nil {
		return respondServiceError(c, err, "planet.comment")
	}
	return utils.SuccessResponse(c, comment, fiber.StatusOK)
}

type deleteCommentInput struct {
	CommentID types.FlexInt `json:"commentId" form:"commentId"`
}

// DeleteComment handles POST /:username/:system/:planet/comment/delete.
// Without a commentId it deletes the caller's own comment on the planet; the
// planet owner may pass a commentId to remove someone else's.
func (h *PlanetHandler) DeleteComment(c *fiber.Ctx) error {
	user := currentUser(c)

	planet, _, err := h.Planets.GetByPath(user.ID,
		c.Params("username"), c.Params("system"), c.Params("planet"))
	if err != nil {
		return respondServiceError(c, err, "planet.comment.delete")
	}

	var in deleteCommentInput
	if err := c.BodyParser(&in); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "planet.comment.delete")
	}

	if in.CommentID > 0 {
		err = h.Scores.DeleteComment(user.ID, uint(in.CommentID.Int()))
	} else {
		err = h.Scores.DeleteOwnComment(user.ID, planet.ID)
	}
	if err != nil {
		return respondServiceError(c, err, "planet.comment.delete")
	}
	return utils.MessageResponse(c, "Comment deleted")
}

// readUpload reads an optional multipart file field.
func (h *PlanetHandler) readUpload(c *fiber.Ctx, field string) ([]byte, bool) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, false
	}
	f, err := file.Open()
	if err != nil {
		return nil, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, false
	}
	return data, true
}
