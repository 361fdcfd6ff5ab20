package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/wadtheplanet/wadtheplanet/internal/models"
	"github.com/wadtheplanet/wadtheplanet/internal/services"
	"github.com/wadtheplanet/wadtheplanet/internal/storage"
	"github.com/wadtheplanet/wadtheplanet/internal/utils"
	"github.com/wadtheplanet/wadtheplanet/internal/visibility"
	"gorm.io/gorm"
)

// BrowseHandler handles the read-only discovery routes: leaderboard, search
// and blob streaming.
type BrowseHandler struct {
	DB           *gorm.DB
	Searches     *services.SearchService
	Leaderboards *services.LeaderboardService
	Blobs        storage.BlobStore
}

// Leaderboard handles GET /leaderboard.
func (h *BrowseHandler) Leaderboard(c *fiber.Ctx) error {
	board, err := h.Leaderboards.Top(requesterID(c))
	if err != nil {
		return respondServiceError(c, err, "leaderboard")
	}
	return utils.SuccessResponse(c, board, fiber.StatusOK)
}

// Search handles GET /search?q=.
func (h *BrowseHandler) Search(c *fiber.Ctx) error {
	result, err := h.Searches.Search(requesterID(c), c.Query("q"))
	if err != nil {
		return respondServiceError(c, err, "search")
	}
	return utils.SuccessResponse(c, result, fiber.StatusOK)
}

// Texture handles GET /textures/:planet and streams the stored texture
// bitmap. Private planets stream only to their owner.
func (h *BrowseHandler) Texture(c *fiber.Ctx) error {
	planetID, err := strconv.ParseUint(c.Params("planet"), 10, 32)
	if err != nil {
		return utils.ErrorResponse(c, "Invalid planet id", fiber.StatusBadRequest, "texture")
	}

	var planet models.Planet
	if err := h.DB.First(&planet, uint(planetID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "Planet not found")
		}
		return utils.ErrorResponse(c, "Internal server error", fiber.StatusInternalServerError, "texture")
	}
	var system models.SolarSystem
	if err := h.DB.First(&system, planet.SolarSystemID).Error; err != nil {
		return utils.ErrorResponse(c, "Internal server error", fiber.StatusInternalServerError, "texture")
	}
	// A hidden solar system hides its planets' textures as well
	if !visibility.Visible(planet, requesterID(c)) ||
		!visibility.Visible(system, requesterID(c)) ||
		planet.TextureKey == "" {
		return utils.NotFoundResponse(c, "Texture not found")
	}

	data, contentType, err := h.Blobs.Get(c.Context(), planet.TextureKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return utils.NotFoundResponse(c, "Texture not found")
		}
		return utils.ErrorResponse(c, "Internal server error", fiber.StatusInternalServerError, "texture")
	}

	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}

// Avatar handles GET /avatars/:username and streams the user's avatar.
func (h *BrowseHandler) Avatar(c *fiber.Ctx) error {
	var user models.User
	if err := h.DB.Where("username = ?", c.Params("username")).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "User not found")
		}
		return utils.ErrorResponse(c, "Internal server error", fiber.StatusInternalServerError, "avatar")
	}
	if user.AvatarKey == "" {
		return utils.NotFoundResponse(c, "Avatar not found")
	}

	data, contentType, err := h.Blobs.Get(c.Context(), user.AvatarKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return utils.NotFoundResponse(c, "Avatar not found")
		}
		return utils.ErrorResponse(c, "Internal server error", fiber.StatusInternalServerError, "avatar")
	}

	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}
