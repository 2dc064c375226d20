// handlers/notifications.go
package handlers

import (
	"puzzle-game-system/middleware"
	"puzzle-game-system/models"
	"puzzle-game-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupNotificationRoutes(app *fiber.App, notificationService *services.NotificationService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Post("/fcm-token", func(c *fiber.Ctx) error {
		uid := c.Locals("user_id").(string)
		var req struct {
			Token    string `json:"token"`
			Platform string `json:"platform"`
			Locale   string `json:"locale"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		if req.Token == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing token"})
		}
		if req.Platform == "" {
			req.Platform = "android"
		}
		if req.Locale == "" {
			req.Locale = "en"
		}
		if err := notificationService.RegisterToken(c.Context(), uid, req.Token, req.Platform, req.Locale); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to register token", "cause": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	securedGroup.Delete("/fcm-token", func(c *fiber.Ctx) error {
		uid := c.Locals("user_id").(string)
		var req struct {
			Token string `json:"token"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		if req.Token == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing token"})
		}
		if err := notificationService.RemoveToken(c.Context(), uid, req.Token); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to remove token", "cause": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	securedGroup.Get("/notification-preferences", func(c *fiber.Ctx) error {
		uid := c.Locals("user_id").(string)
		prefs, err := notificationService.GetPreferences(c.Context(), uid)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load preferences", "cause": err.Error()})
		}
		return c.JSON(fiber.Map{
			"gameReminders":   prefs.GameReminders,
			"progressUpdates": prefs.ProgressUpdates,
			"competition":     prefs.Competition,
			"inactivity":      prefs.Inactivity,
			"newContent":      prefs.NewContent,
		})
	})

	securedGroup.Put("/notification-preferences", func(c *fiber.Ctx) error {
		uid := c.Locals("user_id").(string)
		req := struct {
			GameReminders   *bool `json:"gameReminders"`
			ProgressUpdates *bool `json:"progressUpdates"`
			Competition     *bool `json:"competition"`
			Inactivity      *bool `json:"inactivity"`
			NewContent      *bool `json:"newContent"`
		}{}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}

		orTrue := func(b *bool) bool { return b == nil || *b }
		prefs := &models.NotificationPreferences{
			UID:             uid,
			GameReminders:   orTrue(req.GameReminders),
			ProgressUpdates: orTrue(req.ProgressUpdates),
			Competition:     orTrue(req.Competition),
			Inactivity:      orTrue(req.Inactivity),
			NewContent:      orTrue(req.NewContent),
		}
		if err := notificationService.SavePreferences(c.Context(), prefs); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save preferences", "cause": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Admin push endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireRoles("admin", "owner"))

	adminGroup.Post("/push", func(c *fiber.Ctx) error {
		var req struct {
			UID      string            `json:"uid"`
			Title    string            `json:"title"`
			Body     string            `json:"body"`
			Data     map[string]string `json:"data"`
			Category string            `json:"category"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		if req.Title == "" || req.Body == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing title or body"})
		}
		if req.Category == "" {
			req.Category = services.CategoryBroadcast
		}

		var sent int
		var err error
		if req.UID != "" {
			sent, err = notificationService.SendToUser(c.Context(), req.UID, req.Title, req.Body, req.Data, req.Category)
		} else {
			sent, err = notificationService.SendToAll(c.Context(), req.Title, req.Body, req.Data, req.Category)
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "push failed", "cause": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ok", "sent": sent})
	})

	adminGroup.Get("/push/log", func(c *fiber.Ctx) error {
		rows, err := notificationService.RecentLog(c.Context(), c.QueryInt("limit", 50))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load push log", "cause": err.Error()})
		}
		return c.JSON(rows)
	})
}
