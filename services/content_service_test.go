package services

import (
	"context"
	"encoding/json"
	"testing"

	"puzzle-game-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func translationSet(locales map[string]string) models.TranslationSet {
	set := models.TranslationSet{}
	for locale, name := range locales {
		raw, _ := json.Marshal(map[string]string{"name": name})
		set[locale] = raw
	}
	return set
}

func TestResolveTranslationExactMatch(t *testing.T) {
	set := translationSet(map[string]string{"en": "Season One", "de": "Staffel Eins"})

	fields := resolveTranslation(set, "de")
	assert.Equal(t, "Staffel Eins", str(fields, "name"))
}

func TestResolveTranslationFallsBackToEnglish(t *testing.T) {
	set := translationSet(map[string]string{"en": "Season One", "de": "Staffel Eins"})

	fields := resolveTranslation(set, "fr")
	assert.Equal(t, "Season One", str(fields, "name"))
}

func TestResolveTranslationMatchesRegionalVariant(t *testing.T) {
	set := translationSet(map[string]string{"en": "Season One", "pt": "Temporada Um"})

	fields := resolveTranslation(set, "pt-BR")
	assert.Equal(t, "Temporada Um", str(fields, "name"))
}

func TestResolveTranslationPicksBestOfSeveral(t *testing.T) {
	set := translationSet(map[string]string{
		"en": "Season One",
		"de": "Staffel Eins",
		"pt": "Temporada Um",
	})

	assert.Equal(t, "Staffel Eins", str(resolveTranslation(set, "de-AT"), "name"))
	assert.Equal(t, "Temporada Um", str(resolveTranslation(set, "pt-BR"), "name"))
	assert.Equal(t, "Season One", str(resolveTranslation(set, "fr-CA"), "name"))
}

func TestResolveTranslationGarbageLocale(t *testing.T) {
	set := translationSet(map[string]string{"en": "Season One"})

	fields := resolveTranslation(set, "not a locale!!")
	assert.Equal(t, "Season One", str(fields, "name"))
}

func TestResolveTranslationEmptySet(t *testing.T) {
	fields := resolveTranslation(nil, "en")
	assert.Empty(t, fields)
	assert.Equal(t, "", str(fields, "name"))
}

func TestResolveTranslationMalformedPayload(t *testing.T) {
	set := models.TranslationSet{"en": json.RawMessage(`"not an object"`)}

	fields := resolveTranslation(set, "en")
	assert.Empty(t, fields)
}

func TestStrsDefaultsToEmptySlice(t *testing.T) {
	fields := map[string]json.RawMessage{"aliases": json.RawMessage(`["a","b"]`)}

	assert.Equal(t, []string{"a", "b"}, strs(fields, "aliases"))
	assert.Equal(t, []string{}, strs(fields, "missing"))
}

func TestRawFieldDefaultsToNull(t *testing.T) {
	fields := map[string]json.RawMessage{"preview": json.RawMessage(`{"x":1}`)}

	assert.Equal(t, json.RawMessage(`{"x":1}`), rawField(fields, "preview"))
	assert.Equal(t, json.RawMessage("null"), rawField(fields, "missing"))
}

func TestGetConfigDefaultsWhenRowMissing(t *testing.T) {
	db := testDB(t)
	svc := NewContentService(db)
	require.NoError(t, db.Delete(&models.AppConfig{}, "key = ?", "main").Error)

	cfg, err := svc.GetConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "main", cfg.Key)
	assert.Equal(t, "remote", cfg.PuzzleSource)
	assert.False(t, cfg.MaintenanceMode)
	assert.Equal(t, "1.0.0", cfg.MinAppVersion)

	require.NoError(t, db.Create(&models.AppConfig{
		Key: "main", PuzzleSource: "bundled", MaintenanceMode: true, MinAppVersion: "2.1.0",
	}).Error)
	t.Cleanup(func() { db.Delete(&models.AppConfig{}, "key = ?", "main") })

	cfg, err = svc.GetConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bundled", cfg.PuzzleSource)
	assert.True(t, cfg.MaintenanceMode)
}
