package services

import (
	"encoding/json"
	"errors"
	"log"

	"puzzle-game-system/models"
	"puzzle-game-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Role sets forwarded by the gateway in X-User-Roles. Editors manage
// content; admins additionally manage config and narration files.
var (
	rolesEditorPlus = []string{"editor", "admin", "owner"}
	rolesAdminPlus  = []string{"admin", "owner"}
)

type AdminService struct {
	DB *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{DB: db}
}

func hasAnyRole(c *fiber.Ctx, allowed []string) bool {
	roles, _ := c.Locals("user_roles").([]string)
	for _, r := range roles {
		for _, a := range allowed {
			if r == a {
				return true
			}
		}
	}
	return false
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient role"})
}

func notFound(c *fiber.Ctx, entity string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": entity + " not found"})
}

// auditLog records an admin mutation with before/after snapshots. Audit
// failures are logged, not surfaced: the mutation itself already committed.
func (s *AdminService) auditLog(c *fiber.Ctx, action, targetType, targetID string, before, after any) {
	uid, _ := c.Locals("user_id").(string)
	email, _ := c.Locals("user_email").(string)

	var beforeData, afterData []byte
	if before != nil {
		beforeData, _ = json.Marshal(before)
	}
	if after != nil {
		afterData, _ = json.Marshal(after)
	}
	row := models.AdminAuditLog{
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		AdminUID:   uid,
		AdminEmail: email,
		BeforeData: beforeData,
		AfterData:  afterData,
	}
	if err := s.DB.Create(&row).Error; err != nil {
		log.Printf("⚠️ Audit log write failed (%s %s/%s): %v", action, targetType, targetID, err)
	}
}

// --- Seasons ---

type seasonRequest struct {
	ID               string                `json:"id"`
	Order            int                   `json:"order"`
	StageIDs         []string              `json:"stageIds"`
	RequiredSeasonID *string               `json:"requiredSeasonId"`
	UnlockDate       *string               `json:"unlockDate"`
	IsActive         *bool                 `json:"isActive"`
	Translations     models.TranslationSet `json:"translations"`
}

func (s *AdminService) ListSeasons(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesEditorPlus) {
		return forbidden(c)
	}
	var seasons []models.Season
	if err := s.DB.WithContext(c.Context()).Order("sort_order ASC").Find(&seasons).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list seasons", "cause": err.Error()})
	}
	return c.JSON(seasons)
}

func (s *AdminService) CreateSeason(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesEditorPlus) {
		return forbidden(c)
	}
	var req seasonRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if req.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id is required"})
	}
	season := models.Season{
		ID:               req.ID,
		SortOrder:        req.Order,
		StageIDs:         req.StageIDs,
		RequiredSeasonID: req.RequiredSeasonID,
		UnlockDate:       utils.ParseTimePtr(req.UnlockDate),
		Translations:     req.Translations,
		IsActive:         req.IsActive == nil || *req.IsActive,
	}
	if err := s.DB.WithContext(c.Context()).Create(&season).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create season", "cause": err.Error()})
	}
	s.auditLog(c, "create", "season", season.ID, nil, season)
	return c.JSON(fiber.Map{"success": true, "id": season.ID})
}

func (s *AdminService) UpdateSeason(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesEditorPlus) {
		return forbidden(c)
	}
	id := c.Params("seasonId")
	var season models.Season
	if err := s.DB.WithContext(c.Context()).Where("id = ?", id).First(&season).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Season")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load season", "cause": err.Error()})
	}
	before := season

	var req seasonRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	season.SortOrder = req.Order
	if req.StageIDs != nil {
		season.StageIDs = req.StageIDs
	}
	season.RequiredSeasonID = req.RequiredSeasonID
	if req.UnlockDate != nil {
		season.UnlockDate = utils.ParseTimePtr(req.UnlockDate)
	}
	if req.IsActive != nil {
		season.IsActive = *req.IsActive
	}
	if req.Translations != nil {
		season.Translations = req.Translations
	}
	if err := s.DB.WithContext(c.Context()).Save(&season).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update season", "cause": err.Error()})
	}
	s.auditLog(c, "update", "season", id, before, season)
	return c.JSON(fiber.Map{"success": true})
}

func (s *AdminService) DeleteSeason(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesAdminPlus) {
		return forbidden(c)
	}
	id := c.Params("seasonId")
	var season models.Season
	if err := s.DB.WithContext(c.Context()).Where("id = ?", id).First(&season).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Season")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load season", "cause": err.Error()})
	}
	if err := s.DB.WithContext(c.Context()).Delete(&season).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete season", "cause": err.Error()})
	}
	s.auditLog(c, "delete", "season", id, season, nil)
	return c.JSON(fiber.Map{"success": true})
}

// --- Stages ---

type stageRequest struct {
	ID              string                `json:"id"`
	SeasonID        string                `json:"seasonId"`
	Order           int                   `json:"order"`
	RequiredPuzzles int                   `json:"requiredPuzzles"`
	PuzzleIDs       []string              `json:"puzzleIds"`
	IsActive        *bool                 `json:"isActive"`
	Translations    models.TranslationSet `json:"translations"`
}

func (s *AdminService) ListStages(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesEditorPlus) {
		return forbidden(c)
	}
	query := s.DB.WithContext(c.Context()).Order("season_id, sort_order ASC")
	if seasonID := c.Query("seasonId"); seasonID != "" {
		query = query.Where("season_id = ?", seasonID)
	}
	var stages []models.Stage
	if err := query.Find(&stages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list stages", "cause": err.Error()})
	}
	return c.JSON(stages)
}

func (s *AdminService) CreateStage(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesEditorPlus) {
		return forbidden(c)
	}
	var req stageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if req.ID == "" || req.SeasonID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id and seasonId are required"})
	}
	stage := models.Stage{
		ID:              req.ID,
		SeasonID:        req.SeasonID,
		SortOrder:       req.Order,
		RequiredPuzzles: req.RequiredPuzzles,
		PuzzleIDs:       req.PuzzleIDs,
		Translations:    req.Translations,
		IsActive:        req.IsActive == nil || *req.IsActive,
	}
	if err := s.DB.WithContext(c.Context()).Create(&stage).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create stage", "cause": err.Error()})
	}
	s.auditLog(c, "create", "stage", stage.ID, nil, stage)
	return c.JSON(fiber.Map{"success": true, "id": stage.ID})
}

func (s *AdminService) UpdateStage(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesEditorPlus) {
		return forbidden(c)
	}
	id := c.Params("stageId")
	var stage models.Stage
	if err := s.DB.WithContext(c.Context()).Where("id = ?", id).First(&stage).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Stage")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load stage", "cause": err.Error()})
	}
	before := stage

	var req stageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if req.SeasonID != "" {
		stage.SeasonID = req.SeasonID
	}
	stage.SortOrder = req.Order
	stage.RequiredPuzzles = req.RequiredPuzzles
	if req.PuzzleIDs != nil {
		stage.PuzzleIDs = req.PuzzleIDs
	}
	if req.IsActive != nil {
		stage.IsActive = *req.IsActive
	}
	if req.Translations != nil {
		stage.Translations = req.Translations
	}
	if err := s.DB.WithContext(c.Context()).Save(&stage).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update stage", "cause": err.Error()})
	}
	s.auditLog(c, "update", "stage", id, before, stage)
	return c.JSON(fiber.Map{"success": true})
}

func (s *AdminService) DeleteStage(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesAdminPlus) {
		return forbidden(c)
	}
	id := c.Params("stageId")
	var stage models.Stage
	if err := s.DB.WithContext(c.Context()).Where("id = ?", id).First(&stage).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Stage")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load stage", "cause": err.Error()})
	}
	if err := s.DB.WithContext(c.Context()).Delete(&stage).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete stage", "cause": err.Error()})
	}
	s.auditLog(c, "delete", "stage", id, stage, nil)
	return c.JSON(fiber.Map{"success": true})
}

// --- Puzzles ---

type puzzleRequest struct {
	ID           string                `json:"id"`
	Type         string                `json:"type"`
	StageID      string                `json:"stageId"`
	Order        int                   `json:"order"`
	IsActive     *bool                 `json:"isActive"`
	Translations models.TranslationSet `json:"translations"`
}

func (s *AdminService) ListPuzzles(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesEditorPlus) {
		return forbidden(c)
	}
	query := s.DB.WithContext(c.Context()).Order("stage_id, sort_order ASC")
	if stageID := c.Query("stageId"); stageID != "" {
		query = query.Where("stage_id = ?", stageID)
	}
	var puzzles []models.Puzzle
	if err := query.Find(&puzzles).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list puzzles", "cause": err.Error()})
	}
	return c.JSON(puzzles)
}

func (s *AdminService) CreatePuzzle(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesEditorPlus) {
		return forbidden(c)
	}
	var req puzzleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if req.ID == "" || req.StageID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id and stageId are required"})
	}
	puzzle := models.Puzzle{
		ID:           req.ID,
		Type:         req.Type,
		StageID:      req.StageID,
		SortOrder:    req.Order,
		Translations: req.Translations,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}
	if err := s.DB.WithContext(c.Context()).Create(&puzzle).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create puzzle", "cause": err.Error()})
	}
	s.auditLog(c, "create", "puzzle", puzzle.ID, nil, puzzle)
	return c.JSON(fiber.Map{"success": true, "id": puzzle.ID})
}

func (s *AdminService) UpdatePuzzle(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesEditorPlus) {
		return forbidden(c)
	}
	id := c.Params("puzzleId")
	var puzzle models.Puzzle
	if err := s.DB.WithContext(c.Context()).Where("id = ?", id).First(&puzzle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Puzzle")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load puzzle", "cause": err.Error()})
	}
	before := puzzle

	var req puzzleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if req.Type != "" {
		puzzle.Type = req.Type
	}
	if req.StageID != "" {
		puzzle.StageID = req.StageID
	}
	puzzle.SortOrder = req.Order
	if req.IsActive != nil {
		puzzle.IsActive = *req.IsActive
	}
	if req.Translations != nil {
		puzzle.Translations = req.Translations
	}
	if err := s.DB.WithContext(c.Context()).Save(&puzzle).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update puzzle", "cause": err.Error()})
	}
	s.auditLog(c, "update", "puzzle", id, before, puzzle)
	return c.JSON(fiber.Map{"success": true})
}

func (s *AdminService) DeletePuzzle(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesAdminPlus) {
		return forbidden(c)
	}
	id := c.Params("puzzleId")
	var puzzle models.Puzzle
	if err := s.DB.WithContext(c.Context()).Where("id = ?", id).First(&puzzle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Puzzle")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load puzzle", "cause": err.Error()})
	}
	if err := s.DB.WithContext(c.Context()).Delete(&puzzle).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete puzzle", "cause": err.Error()})
	}
	s.auditLog(c, "delete", "puzzle", id, puzzle, nil)
	return c.JSON(fiber.Map{"success": true})
}

// --- Reveals ---

type revealRequest struct {
	PuzzleID     string                `json:"puzzleId"`
	LoreUnlock   string                `json:"loreUnlock"`
	Translations models.TranslationSet `json:"translations"`
}

func (s *AdminService) ListReveals(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesEditorPlus) {
		return forbidden(c)
	}
	var reveals []models.Reveal
	if err := s.DB.WithContext(c.Context()).Order("puzzle_id ASC").Find(&reveals).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list reveals", "cause": err.Error()})
	}
	return c.JSON(reveals)
}

func (s *AdminService) UpsertReveal(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesEditorPlus) {
		return forbidden(c)
	}
	var req revealRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if req.PuzzleID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "puzzleId is required"})
	}
	reveal := models.Reveal{
		PuzzleID:     req.PuzzleID,
		LoreUnlock:   req.LoreUnlock,
		Translations: req.Translations,
	}
	if err := s.DB.WithContext(c.Context()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "puzzle_id"}},
		UpdateAll: true,
	}).Create(&reveal).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upsert reveal", "cause": err.Error()})
	}
	s.auditLog(c, "upsert", "reveal", req.PuzzleID, nil, reveal)
	return c.JSON(fiber.Map{"success": true})
}

// --- Glossary ---

type glossaryRequest struct {
	ID           string                `json:"id"`
	Term         string                `json:"term"`
	Order        int                   `json:"order"`
	IsActive     *bool                 `json:"isActive"`
	Translations models.TranslationSet `json:"translations"`
}

func (s *AdminService) ListGlossary(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesEditorPlus) {
		return forbidden(c)
	}
	var entries []models.GlossaryEntry
	if err := s.DB.WithContext(c.Context()).Order("sort_order ASC").Find(&entries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list glossary", "cause": err.Error()})
	}
	return c.JSON(entries)
}

func (s *AdminService) CreateGlossaryEntry(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesEditorPlus) {
		return forbidden(c)
	}
	var req glossaryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	id := req.ID
	if id == "" {
		if req.Term == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id or term is required"})
		}
		id = slug.Make(req.Term)
	}
	entry := models.GlossaryEntry{
		ID:           id,
		SortOrder:    req.Order,
		Translations: req.Translations,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}
	if err := s.DB.WithContext(c.Context()).Create(&entry).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create glossary entry", "cause": err.Error()})
	}
	s.auditLog(c, "create", "glossary", id, nil, entry)
	return c.JSON(fiber.Map{"success": true, "id": id})
}

func (s *AdminService) UpdateGlossaryEntry(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesEditorPlus) {
		return forbidden(c)
	}
	id := c.Params("entryId")
	var entry models.GlossaryEntry
	if err := s.DB.WithContext(c.Context()).Where("id = ?", id).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Glossary entry")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load glossary entry", "cause": err.Error()})
	}
	before := entry

	var req glossaryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	entry.SortOrder = req.Order
	if req.IsActive != nil {
		entry.IsActive = *req.IsActive
	}
	if req.Translations != nil {
		entry.Translations = req.Translations
	}
	if err := s.DB.WithContext(c.Context()).Save(&entry).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update glossary entry", "cause": err.Error()})
	}
	s.auditLog(c, "update", "glossary", id, before, entry)
	return c.JSON(fiber.Map{"success": true})
}

func (s *AdminService) DeleteGlossaryEntry(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesAdminPlus) {
		return forbidden(c)
	}
	id := c.Params("entryId")
	var entry models.GlossaryEntry
	if err := s.DB.WithContext(c.Context()).Where("id = ?", id).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Glossary entry")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load glossary entry", "cause": err.Error()})
	}
	if err := s.DB.WithContext(c.Context()).Delete(&entry).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete glossary entry", "cause": err.Error()})
	}
	s.auditLog(c, "delete", "glossary", id, entry, nil)
	return c.JSON(fiber.Map{"success": true})
}

// --- App config ---

func (s *AdminService) GetConfig(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesEditorPlus) {
		return forbidden(c)
	}
	var cfg models.AppConfig
	err := s.DB.WithContext(c.Context()).Where("key = ?", "main").First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = models.AppConfig{Key: "main", PuzzleSource: "remote", MinAppVersion: "1.0.0"}
	} else if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load config", "cause": err.Error()})
	}
	return c.JSON(cfg)
}

func (s *AdminService) UpdateConfig(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesAdminPlus) {
		return forbidden(c)
	}
	var req struct {
		PuzzleSource    *string `json:"puzzleSource"`
		MaintenanceMode *bool   `json:"maintenanceMode"`
		MinAppVersion   *string `json:"minAppVersion"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}

	var cfg models.AppConfig
	err := s.DB.WithContext(c.Context()).Where("key = ?", "main").First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = models.AppConfig{Key: "main", PuzzleSource: "remote", MinAppVersion: "1.0.0"}
	} else if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load config", "cause": err.Error()})
	}
	before := cfg

	if req.PuzzleSource != nil {
		cfg.PuzzleSource = *req.PuzzleSource
	}
	if req.MaintenanceMode != nil {
		cfg.MaintenanceMode = *req.MaintenanceMode
	}
	if req.MinAppVersion != nil {
		cfg.MinAppVersion = *req.MinAppVersion
	}
	if err := s.DB.WithContext(c.Context()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&cfg).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update config", "cause": err.Error()})
	}
	s.auditLog(c, "update", "config", "main", before, cfg)
	return c.JSON(fiber.Map{"success": true})
}

// --- Narration (TTS) files ---

func (s *AdminService) ListTTSFiles(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesEditorPlus) {
		return forbidden(c)
	}
	query := s.DB.WithContext(c.Context()).Order("locale, narration_id ASC")
	if locale := c.Query("locale"); locale != "" {
		query = query.Where("locale = ?", locale)
	}
	var files []models.TTSFile
	if err := query.Find(&files).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list tts files", "cause": err.Error()})
	}
	return c.JSON(files)
}

// SyncTTSFiles bulk-upserts the narration registry from a pipeline manifest.
func (s *AdminService) SyncTTSFiles(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesAdminPlus) {
		return forbidden(c)
	}
	var req struct {
		Files []struct {
			NarrationID  string   `json:"narrationId"`
			Locale       string   `json:"locale"`
			Type         string   `json:"type"`
			DurationSecs *float64 `json:"durationSecs"`
			AudioURL     string   `json:"audioUrl"`
		} `json:"files"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if len(req.Files) == 0 {
		return c.JSON(fiber.Map{"success": true, "upserted": 0})
	}

	upserted := 0
	for _, f := range req.Files {
		if f.NarrationID == "" || f.Locale == "" {
			continue
		}
		fileType := f.Type
		if fileType == "" {
			fileType = "unknown"
		}
		row := models.TTSFile{
			NarrationID:  f.NarrationID,
			Locale:       f.Locale,
			Type:         fileType,
			DurationSecs: f.DurationSecs,
			AudioURL:     f.AudioURL,
		}
		if err := s.DB.WithContext(c.Context()).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "narration_id"}, {Name: "locale"}},
			DoUpdates: clause.AssignmentColumns([]string{"type", "duration_secs", "audio_url"}),
		}).Create(&row).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to sync tts files", "cause": err.Error()})
		}
		upserted++
	}
	s.auditLog(c, "sync", "tts_files", "bulk", nil, fiber.Map{"count": upserted})
	return c.JSON(fiber.Map{"success": true, "upserted": upserted})
}

// UploadTTSAudio stores one narration clip in R2 and registers it.
func (s *AdminService) UploadTTSAudio(c *fiber.Ctx) error {
	if !hasAnyRole(c, rolesAdminPlus) {
		return forbidden(c)
	}
	narrationID := c.FormValue("narrationId")
	locale := c.FormValue("locale")
	if narrationID == "" || locale == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "narrationId and locale are required"})
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "audio file is required", "cause": err.Error()})
	}

	key := "narrations/" + locale + "/" + slug.Make(narrationID) + ".mp3"
	url, err := utils.UploadMultipartToR2(fileHeader, key)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload audio", "cause": err.Error()})
	}

	row := models.TTSFile{
		NarrationID: narrationID,
		Locale:      locale,
		Type:        "narration",
		AudioURL:    url,
	}
	if err := s.DB.WithContext(c.Context()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "narration_id"}, {Name: "locale"}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "audio_url"}),
	}).Create(&row).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to register audio", "cause": err.Error()})
	}
	s.auditLog(c, "upload", "tts_files", narrationID+"/"+locale, nil, row)
	return c.JSON(fiber.Map{"success": true, "url": url})
}
