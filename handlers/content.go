// handlers/content.go
package handlers

import (
	"puzzle-game-system/services"

	"github.com/gofiber/fiber/v2"
)

// Content is public and cacheable: the gateway and CDN may serve it for 5
// minutes without revalidating.
const contentCacheControl = "public, max-age=300"

func SetupContentRoutes(app *fiber.App, contentService *services.ContentService) {
	app.Get("/content/seasons", func(c *fiber.Ctx) error {
		seasons, err := contentService.ListSeasons(c.Context(), c.Query("locale", "en"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load seasons", "cause": err.Error()})
		}
		c.Set("Cache-Control", contentCacheControl)
		return c.JSON(fiber.Map{"seasons": seasons})
	})

	app.Get("/content/season/:seasonId", func(c *fiber.Ctx) error {
		content, err := contentService.GetSeasonContent(c.Context(), c.Params("seasonId"), c.Query("locale", "en"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load season content", "cause": err.Error()})
		}
		c.Set("Cache-Control", contentCacheControl)
		return c.JSON(content)
	})

	app.Get("/content/glossary", func(c *fiber.Ctx) error {
		entries, err := contentService.GetGlossary(c.Context(), c.Query("locale", "en"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load glossary", "cause": err.Error()})
		}
		c.Set("Cache-Control", contentCacheControl)
		return c.JSON(fiber.Map{"entries": entries})
	})

	app.Get("/content/config", func(c *fiber.Ctx) error {
		cfg, err := contentService.GetConfig(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load config", "cause": err.Error()})
		}
		c.Set("Cache-Control", contentCacheControl)
		return c.JSON(fiber.Map{
			"puzzleSource":    cfg.PuzzleSource,
			"maintenanceMode": cfg.MaintenanceMode,
			"minAppVersion":   cfg.MinAppVersion,
		})
	})
}
