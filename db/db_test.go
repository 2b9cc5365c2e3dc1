package db

import (
	"testing"
	"time"

	"github.com/zombar/recipebox/models"
)

func intPtr(v int) *int { return &v }

func existingRecipe() *models.ExtractedRecipe {
	return &models.ExtractedRecipe{
		ID:    "r-1",
		Title: "Beef Stew",
		Ingredients: []models.Ingredient{
			{Name: "beef"},
		},
		Instructions: []models.InstructionStep{
			{StepNumber: 1, Description: "Simmer"},
		},
		Servings:   intPtr(4),
		SourceURL:  "https://example.com/stew",
		SourceType: models.SourceTypeWeb,
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestMergeUpdatePreservesSourceFields(t *testing.T) {
	existing := existingRecipe()

	// An update that changes the title but omits source fields.
	incoming := &models.ExtractedRecipe{
		ID:    "r-1",
		Title: "Hearty Beef Stew",
	}

	merged := MergeUpdate(existing, incoming)
	if merged.Title != "Hearty Beef Stew" {
		t.Errorf("title = %q", merged.Title)
	}
	if merged.SourceURL != existing.SourceURL {
		t.Errorf("source URL changed to %q", merged.SourceURL)
	}
	if merged.SourceType != existing.SourceType {
		t.Errorf("source type changed to %q", merged.SourceType)
	}
	if !merged.CreatedAt.Equal(existing.CreatedAt) {
		t.Errorf("created at changed to %v", merged.CreatedAt)
	}
}

func TestMergeUpdateNeverTakesIncomingSource(t *testing.T) {
	existing := existingRecipe()

	// Even an update that supplies source fields cannot rewrite provenance.
	incoming := &models.ExtractedRecipe{
		ID:         "r-1",
		SourceURL:  "https://attacker.example.com",
		SourceType: models.SourceTypeManual,
	}

	merged := MergeUpdate(existing, incoming)
	if merged.SourceURL != existing.SourceURL {
		t.Errorf("source URL = %q, want preserved", merged.SourceURL)
	}
	if merged.SourceType != existing.SourceType {
		t.Errorf("source type = %q, want preserved", merged.SourceType)
	}
}

func TestMergeUpdateOverlaysProvidedFields(t *testing.T) {
	existing := existingRecipe()

	incoming := &models.ExtractedRecipe{
		ID:       "r-1",
		Servings: intPtr(8),
		Ingredients: []models.Ingredient{
			{Name: "beef"},
			{Name: "carrots"},
		},
		Tags: []string{"winter"},
	}

	merged := MergeUpdate(existing, incoming)
	if *merged.Servings != 8 {
		t.Errorf("servings = %d", *merged.Servings)
	}
	if len(merged.Ingredients) != 2 {
		t.Errorf("ingredients = %+v", merged.Ingredients)
	}
	if merged.Title != existing.Title {
		t.Errorf("title = %q, want existing preserved", merged.Title)
	}
	if len(merged.Instructions) != 1 {
		t.Errorf("instructions = %+v, want existing preserved", merged.Instructions)
	}
}

func TestMergeUpdateEmptyIncomingKeepsEverything(t *testing.T) {
	existing := existingRecipe()
	merged := MergeUpdate(existing, &models.ExtractedRecipe{ID: "r-1"})

	if merged.Title != existing.Title ||
		merged.SourceURL != existing.SourceURL ||
		merged.SourceType != existing.SourceType ||
		len(merged.Ingredients) != len(existing.Ingredients) ||
		*merged.Servings != *existing.Servings {
		t.Errorf("merged = %+v, want identical to existing", merged)
	}
}
