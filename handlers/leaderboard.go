// handlers/leaderboard.go
package handlers

import (
	"errors"

	"puzzle-game-system/middleware"
	"puzzle-game-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLeaderboardRoutes(app *fiber.App, leaderboardService *services.LeaderboardService, trigger *services.NotificationTrigger) {
	// Public — no user context required
	app.Get("/leaderboard/:puzzleId", func(c *fiber.Ctx) error {
		entries, err := leaderboardService.GetLeaderboard(c.Context(), c.Params("puzzleId"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load leaderboard",
				"cause": err.Error(),
			})
		}
		return c.JSON(entries)
	})

	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Post("/leaderboard/:puzzleId", func(c *fiber.Ctx) error {
		uid := c.Locals("user_id").(string)
		puzzleID := c.Params("puzzleId")

		var req struct {
			DisplayName string `json:"displayName"`
			SolveTimeMs int64  `json:"solveTimeMs"`
			Attempts    int64  `json:"attempts"`
			HintsUsed   int64  `json:"hintsUsed"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.DisplayName == "" {
			req.DisplayName = "Anonymous"
		}

		result, err := leaderboardService.SubmitSolve(c.Context(), puzzleID, uid,
			req.DisplayName, req.SolveTimeMs, req.Attempts, req.HintsUsed)
		if err != nil {
			var verr *services.ValidationError
			switch {
			case errors.Is(err, services.ErrAlreadySolved):
				// defined outcome, not a failure: first solve is permanent
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error":          "already_solved",
					"is_first_solve": false,
				})
			case errors.As(err, &verr):
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid submission",
					"cause": verr.Error(),
				})
			case errors.Is(err, services.ErrConcurrencyConflict):
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error":     "submission conflict, retry",
					"retryable": true,
				})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to submit solve",
					"cause": err.Error(),
				})
			}
		}

		trigger.OnAdmitted(result)

		return c.JSON(fiber.Map{
			"rank":           result.Rank,
			"is_first_solve": true,
			"top_three":      result.TopThree,
		})
	})
}
