package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"puzzle-game-system/models"

	"golang.org/x/text/language"
	"gorm.io/gorm"
)

type ContentService struct {
	DB *gorm.DB
}

func NewContentService(db *gorm.DB) *ContentService {
	return &ContentService{DB: db}
}

// resolveTranslation picks the best available locale from a translation set:
// exact key, then BCP 47 matching over the available locales, then English,
// then empty. English is always the matcher fallback so a bad locale string
// degrades gracefully.
func resolveTranslation(set models.TranslationSet, locale string) map[string]json.RawMessage {
	if len(set) == 0 {
		return map[string]json.RawMessage{}
	}

	raw, ok := set[locale]
	if !ok {
		available := make([]string, 0, len(set))
		for k := range set {
			if k != "en" {
				available = append(available, k)
			}
		}
		sort.Strings(available)
		// English first: NewMatcher uses the first tag as the default.
		// keys stays parallel to tags so the matched index maps back to
		// the set key, which need not equal the matched tag's string.
		keys := []string{"en"}
		tags := []language.Tag{language.English}
		for _, k := range available {
			if tag, err := language.Parse(k); err == nil {
				keys = append(keys, k)
				tags = append(tags, tag)
			}
		}
		matcher := language.NewMatcher(tags)
		_, idx := language.MatchStrings(matcher, locale)
		raw, ok = set[keys[idx]]
		if !ok {
			raw, ok = set["en"]
		}
	}
	if !ok {
		return map[string]json.RawMessage{}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return map[string]json.RawMessage{}
	}
	return fields
}

func str(fields map[string]json.RawMessage, key string) string {
	var s string
	if raw, ok := fields[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

func strs(fields map[string]json.RawMessage, key string) []string {
	var out []string
	if raw, ok := fields[key]; ok {
		_ = json.Unmarshal(raw, &out)
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func rawField(fields map[string]json.RawMessage, key string) json.RawMessage {
	if raw, ok := fields[key]; ok {
		return raw
	}
	return json.RawMessage("null")
}

// SeasonView is the client-facing season shape with translations flattened
// for one locale.
type SeasonView struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Subtitle         string          `json:"subtitle"`
	Description      string          `json:"description"`
	Order            int             `json:"order"`
	StageIDs         []string        `json:"stageIds"`
	RequiredSeasonID *string         `json:"requiredSeasonId"`
	UnlockDate       *string         `json:"unlockDate"`
	Preview          json.RawMessage `json:"preview"`
}

type StageView struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Subtitle        string   `json:"subtitle"`
	Description     string   `json:"description"`
	Order           int      `json:"order"`
	RequiredPuzzles int      `json:"requiredPuzzles"`
	PuzzleIDs       []string `json:"puzzleIds"`
	SeasonID        string   `json:"seasonId"`
}

type PuzzleView struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	StageID     string          `json:"stageId"`
	Order       int             `json:"order"`
	Data        json.RawMessage `json:"data"`
	AnswerHash  string          `json:"answerHash"`
	Hints       json.RawMessage `json:"hints"`
}

type RevealView struct {
	PuzzleID       string `json:"puzzleId"`
	Title          string `json:"title"`
	Classification string `json:"classification"`
	Body           string `json:"body"`
	LoreUnlock     string `json:"loreUnlock"`
}

type SeasonContent struct {
	Stages  []StageView  `json:"stages"`
	Puzzles []PuzzleView `json:"puzzles"`
	Reveals []RevealView `json:"reveals"`
}

type GlossaryView struct {
	ID           string   `json:"id"`
	Order        int      `json:"order"`
	Term         string   `json:"term"`
	Aliases      []string `json:"aliases"`
	Summary      string   `json:"summary"`
	History      string   `json:"history"`
	HowItWorks   string   `json:"howItWorks"`
	Analogy      string   `json:"analogy"`
	Examples     []string `json:"examples"`
	RelatedTerms []string `json:"relatedTerms"`
}

// ListSeasons returns all active seasons flattened for the locale.
func (s *ContentService) ListSeasons(ctx context.Context, locale string) ([]SeasonView, error) {
	var seasons []models.Season
	if err := s.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC").
		Find(&seasons).Error; err != nil {
		return nil, err
	}

	views := make([]SeasonView, 0, len(seasons))
	for _, season := range seasons {
		t := resolveTranslation(season.Translations, locale)
		var unlockDate *string
		if season.UnlockDate != nil {
			d := season.UnlockDate.UTC().Format("2006-01-02T15:04:05Z07:00")
			unlockDate = &d
		}
		stageIDs := season.StageIDs
		if stageIDs == nil {
			stageIDs = []string{}
		}
		views = append(views, SeasonView{
			ID:               season.ID,
			Name:             str(t, "name"),
			Subtitle:         str(t, "subtitle"),
			Description:      str(t, "description"),
			Order:            season.SortOrder,
			StageIDs:         stageIDs,
			RequiredSeasonID: season.RequiredSeasonID,
			UnlockDate:       unlockDate,
			Preview:          rawField(t, "preview"),
		})
	}
	return views, nil
}

// GetSeasonContent returns a season's stages, puzzles and reveals flattened
// for the locale.
func (s *ContentService) GetSeasonContent(ctx context.Context, seasonID, locale string) (*SeasonContent, error) {
	var stages []models.Stage
	if err := s.DB.WithContext(ctx).
		Where("season_id = ? AND is_active = ?", seasonID, true).
		Order("sort_order ASC").
		Find(&stages).Error; err != nil {
		return nil, err
	}

	content := &SeasonContent{
		Stages:  make([]StageView, 0, len(stages)),
		Puzzles: []PuzzleView{},
		Reveals: []RevealView{},
	}

	stageIDs := make([]string, 0, len(stages))
	for _, stage := range stages {
		t := resolveTranslation(stage.Translations, locale)
		stageIDs = append(stageIDs, stage.ID)
		puzzleIDs := stage.PuzzleIDs
		if puzzleIDs == nil {
			puzzleIDs = []string{}
		}
		content.Stages = append(content.Stages, StageView{
			ID:              stage.ID,
			Name:            str(t, "name"),
			Subtitle:        str(t, "subtitle"),
			Description:     str(t, "description"),
			Order:           stage.SortOrder,
			RequiredPuzzles: stage.RequiredPuzzles,
			PuzzleIDs:       puzzleIDs,
			SeasonID:        stage.SeasonID,
		})
	}
	if len(stageIDs) == 0 {
		return content, nil
	}

	var puzzles []models.Puzzle
	if err := s.DB.WithContext(ctx).
		Where("stage_id IN ? AND is_active = ?", stageIDs, true).
		Order("stage_id, sort_order ASC").
		Find(&puzzles).Error; err != nil {
		return nil, err
	}

	puzzleIDs := make([]string, 0, len(puzzles))
	for _, puzzle := range puzzles {
		t := resolveTranslation(puzzle.Translations, locale)
		puzzleIDs = append(puzzleIDs, puzzle.ID)
		content.Puzzles = append(content.Puzzles, PuzzleView{
			ID:          puzzle.ID,
			Title:       str(t, "title"),
			Description: str(t, "description"),
			Type:        puzzle.Type,
			StageID:     puzzle.StageID,
			Order:       puzzle.SortOrder,
			Data:        rawField(t, "data"),
			AnswerHash:  str(t, "answerHash"),
			Hints:       rawField(t, "hints"),
		})
	}
	if len(puzzleIDs) == 0 {
		return content, nil
	}

	var reveals []models.Reveal
	if err := s.DB.WithContext(ctx).
		Where("puzzle_id IN ?", puzzleIDs).
		Find(&reveals).Error; err != nil {
		return nil, err
	}
	for _, reveal := range reveals {
		t := resolveTranslation(reveal.Translations, locale)
		content.Reveals = append(content.Reveals, RevealView{
			PuzzleID:       reveal.PuzzleID,
			Title:          str(t, "title"),
			Classification: str(t, "classification"),
			Body:           str(t, "body"),
			LoreUnlock:     reveal.LoreUnlock,
		})
	}
	return content, nil
}

// GetGlossary returns all active glossary entries with a non-empty term for
// the locale.
func (s *ContentService) GetGlossary(ctx context.Context, locale string) ([]GlossaryView, error) {
	var entries []models.GlossaryEntry
	if err := s.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	views := make([]GlossaryView, 0, len(entries))
	for _, entry := range entries {
		t := resolveTranslation(entry.Translations, locale)
		term := str(t, "term")
		if term == "" {
			continue
		}
		views = append(views, GlossaryView{
			ID:           entry.ID,
			Order:        entry.SortOrder,
			Term:         term,
			Aliases:      strs(t, "aliases"),
			Summary:      str(t, "summary"),
			History:      str(t, "history"),
			HowItWorks:   str(t, "howItWorks"),
			Analogy:      str(t, "analogy"),
			Examples:     strs(t, "examples"),
			RelatedTerms: strs(t, "relatedTerms"),
		})
	}
	return views, nil
}

// GetConfig returns the main app configuration row, or built-in defaults.
func (s *ContentService) GetConfig(ctx context.Context) (*models.AppConfig, error) {
	var cfg models.AppConfig
	err := s.DB.WithContext(ctx).Where("key = ?", "main").First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.AppConfig{
			Key:             "main",
			PuzzleSource:    "remote",
			MaintenanceMode: false,
			MinAppVersion:   "1.0.0",
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
