// handlers/admin.go
package handlers

import (
	"puzzle-game-system/middleware"
	"puzzle-game-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAdminRoutes(app *fiber.App, adminService *services.AdminService) {
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware())

	adminGroup.Get("/seasons", adminService.ListSeasons)
	adminGroup.Post("/seasons", adminService.CreateSeason)
	adminGroup.Put("/seasons/:seasonId", adminService.UpdateSeason)
	adminGroup.Delete("/seasons/:seasonId", adminService.DeleteSeason)

	adminGroup.Get("/stages", adminService.ListStages)
	adminGroup.Post("/stages", adminService.CreateStage)
	adminGroup.Put("/stages/:stageId", adminService.UpdateStage)
	adminGroup.Delete("/stages/:stageId", adminService.DeleteStage)

	adminGroup.Get("/puzzles", adminService.ListPuzzles)
	adminGroup.Post("/puzzles", adminService.CreatePuzzle)
	adminGroup.Put("/puzzles/:puzzleId", adminService.UpdatePuzzle)
	adminGroup.Delete("/puzzles/:puzzleId", adminService.DeletePuzzle)

	adminGroup.Get("/reveals", adminService.ListReveals)
	adminGroup.Post("/reveals", adminService.UpsertReveal)

	adminGroup.Get("/glossary", adminService.ListGlossary)
	adminGroup.Post("/glossary", adminService.CreateGlossaryEntry)
	adminGroup.Put("/glossary/:entryId", adminService.UpdateGlossaryEntry)
	adminGroup.Delete("/glossary/:entryId", adminService.DeleteGlossaryEntry)

	adminGroup.Get("/config", adminService.GetConfig)
	adminGroup.Put("/config", adminService.UpdateConfig)

	adminGroup.Get("/tts-files", adminService.ListTTSFiles)
	adminGroup.Post("/tts-files/sync", adminService.SyncTTSFiles)
	adminGroup.Post("/tts-files/upload", adminService.UploadTTSAudio)
}
