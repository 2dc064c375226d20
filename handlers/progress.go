// handlers/progress.go
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"

	"puzzle-game-system/middleware"
	"puzzle-game-system/models"
	"puzzle-game-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressRoutes(app *fiber.App, progressService *services.ProgressService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/user/progress", func(c *fiber.Ctx) error {
		uid := c.Locals("user_id").(string)

		doc, err := progressService.GetProgress(c.Context(), uid)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load progress",
				"cause": err.Error(),
			})
		}
		if doc == nil {
			// never synced: the client seeds from its local state
			c.Set("Content-Type", "application/json")
			return c.SendString("null")
		}
		return c.JSON(doc)
	})

	securedGroup.Put("/user/progress", func(c *fiber.Ctx) error {
		uid := c.Locals("user_id").(string)

		// Strict decode: unknown fields are a client bug, not data to merge
		dec := json.NewDecoder(bytes.NewReader(c.Body()))
		dec.DisallowUnknownFields()
		var incoming models.ProgressDocument
		if err := dec.Decode(&incoming); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid progress document",
				"cause": err.Error(),
			})
		}

		merged, err := progressService.SyncProgress(c.Context(), uid, incoming)
		if err != nil {
			var verr *services.ValidationError
			switch {
			case errors.As(err, &verr):
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid progress document",
					"cause": verr.Error(),
				})
			case errors.Is(err, services.ErrConcurrencyConflict):
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error":     "sync conflict, retry",
					"retryable": true,
				})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to sync progress",
					"cause": err.Error(),
				})
			}
		}
		return c.JSON(merged)
	})
}
