package porter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/zombar/recipebox/models"
)

func seededService(t *testing.T, n int) (*Service, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	svc := NewService(repo)
	svc.now = func() string { return "2026-09-01" }

	if _, err := svc.ImportJSON(context.Background(), "user-1", minimalRecipes(n), ImportOptions{}); err != nil {
		t.Fatal(err)
	}
	return svc, repo
}

func TestExportRecipesJSON(t *testing.T) {
	svc, _ := seededService(t, 3)

	result, err := svc.ExportRecipes(context.Background(), "user-1", ExportOptions{})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if result.Filename != "recipes-export-2026-09-01.json" {
		t.Errorf("filename = %q", result.Filename)
	}
	if result.RecipeCount != 3 {
		t.Errorf("count = %d", result.RecipeCount)
	}

	var recipes []models.ExtractedRecipe
	if err := json.Unmarshal(result.Data, &recipes); err != nil {
		t.Fatalf("export not valid JSON: %v", err)
	}
	if len(recipes) != 3 {
		t.Errorf("exported %d recipes", len(recipes))
	}
}

func TestExportSingleRecipeFilename(t *testing.T) {
	svc, repo := seededService(t, 1)
	stored, _ := repo.FindByUserID(context.Background(), "user-1")

	result, err := svc.ExportRecipe(context.Background(), stored[0].ID, ExportOptions{})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if result.Filename != "recipe-recipe-1-2026-09-01.json" {
		t.Errorf("filename = %q", result.Filename)
	}
}

func TestExportSingleRecipeSlugFallsBackToSourceURL(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	svc.now = func() string { return "2026-09-01" }

	// A title that transliterates to an empty slug; the filename slug comes
	// from the source URL instead.
	payload := []byte(`[{"title":"紅燒肉","ingredients":["1 lb pork belly"],"instructions":["Braise slowly"],"source_url":"https://example.com/recipes/braised-pork.html"}]`)
	if _, err := svc.ImportJSON(context.Background(), "user-1", payload, ImportOptions{}); err != nil {
		t.Fatal(err)
	}
	stored, _ := repo.FindByUserID(context.Background(), "user-1")

	result, err := svc.ExportRecipe(context.Background(), stored[0].ID, ExportOptions{})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if result.Filename != "recipe-braised-pork-2026-09-01.json" {
		t.Errorf("filename = %q", result.Filename)
	}
}

func TestExportPlainText(t *testing.T) {
	svc, _ := seededService(t, 1)

	result, err := svc.ExportRecipes(context.Background(), "user-1", ExportOptions{PlainText: true})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.HasSuffix(result.Filename, ".txt") {
		t.Errorf("filename = %q", result.Filename)
	}
	text := string(result.Data)
	if !strings.Contains(text, "Recipe 1") || !strings.Contains(text, "Ingredients:") || !strings.Contains(text, "1. Mix well") {
		t.Errorf("text rendering incomplete:\n%s", text)
	}
}

func TestExportRedactsNotes(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	payload := []byte(`[{"title":"Stew","author":"Jane","ingredients":["1 lb beef, cubed"],"instructions":["Simmer"]}]`)
	if _, err := svc.ImportJSON(context.Background(), "user-1", payload, ImportOptions{}); err != nil {
		t.Fatal(err)
	}

	result, err := svc.ExportRecipes(context.Background(), "user-1", ExportOptions{RedactNotes: true})
	if err != nil {
		t.Fatal(err)
	}
	var recipes []models.ExtractedRecipe
	if err := json.Unmarshal(result.Data, &recipes); err != nil {
		t.Fatal(err)
	}
	if recipes[0].Author != "" {
		t.Errorf("author = %q, want redacted", recipes[0].Author)
	}
	for _, ing := range recipes[0].Ingredients {
		if ing.Notes != "" {
			t.Errorf("ingredient notes = %q, want redacted", ing.Notes)
		}
	}
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	svc, _ := seededService(t, 4)

	backup, err := svc.CreateBackup(context.Background(), "user-1", ExportOptions{})
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}
	if backup.Filename != "cookbook-backup-2026-09-01.json" {
		t.Errorf("filename = %q", backup.Filename)
	}

	var doc models.BackupDocument
	if err := json.Unmarshal(backup.Data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.RecipeCount != len(doc.Recipes) || doc.RecipeCount != 4 {
		t.Errorf("recipeCount = %d, recipes = %d", doc.RecipeCount, len(doc.Recipes))
	}
	if doc.Version != BackupVersion {
		t.Errorf("version = %q", doc.Version)
	}

	// Restore into an empty user: everything imports, no conflicts.
	result, err := svc.RestoreFromBackup(context.Background(), "user-2", backup.Data, ImportOptions{SkipDuplicates: true})
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if result.Progress.ImportedCount != doc.RecipeCount {
		t.Errorf("imported = %d, want %d", result.Progress.ImportedCount, doc.RecipeCount)
	}
	if len(result.Conflicts) != 0 {
		t.Errorf("conflicts = %+v, want none", result.Conflicts)
	}
}

func TestRestoreRejectsMajorVersionMismatch(t *testing.T) {
	svc, repo := seededService(t, 1)

	doc := models.BackupDocument{
		Version:     "2.0.0",
		RecipeCount: 1,
		Recipes: []models.ExtractedRecipe{{
			Title:        "From The Future",
			Ingredients:  []models.Ingredient{{Name: "flux"}},
			Instructions: []models.InstructionStep{{StepNumber: 1, Description: "Mix"}},
			SourceURL:    "https://example.com",
			SourceType:   models.SourceTypeManual,
		}},
	}
	payload, _ := json.Marshal(doc)

	_, err := svc.RestoreFromBackup(context.Background(), "user-2", payload, ImportOptions{})
	if err == nil {
		t.Fatal("expected version mismatch error")
	}
	var ingErr *models.IngestionError
	if !errors.As(err, &ingErr) || ingErr.Kind != models.ErrorValidation {
		t.Errorf("err = %v, want validation kind", err)
	}

	if stored, _ := repo.FindByUserID(context.Background(), "user-2"); len(stored) != 0 {
		t.Errorf("restore imported %d recipes despite version mismatch", len(stored))
	}
}

func TestRestoreRejectsMalformedDocument(t *testing.T) {
	svc := NewService(newMemoryRepo())

	for _, payload := range []string{`{"recipes":[]}`, `{"version":"1.0.0"}`, `not json`} {
		_, err := svc.RestoreFromBackup(context.Background(), "user-2", []byte(payload), ImportOptions{})
		if err == nil {
			t.Errorf("payload %q: expected error", payload)
		}
	}
}

func TestImportExternalPaprika(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	payload := []byte(`[{"name":"Paprika Chicken","ingredients":"1 whole chicken\n2 tbsp paprika","directions":"Season the chicken\nRoast for 1 hour","cook_time":"1 hour","servings":"4"}]`)

	result, err := svc.ImportExternal(context.Background(), "user-1", "paprika", payload, ImportOptions{})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.Progress.ImportedCount != 1 {
		t.Fatalf("progress = %+v", result.Progress)
	}

	stored, _ := repo.FindByUserID(context.Background(), "user-1")
	if len(stored[0].Ingredients) != 2 || len(stored[0].Instructions) != 2 {
		t.Errorf("recipe = %+v", stored[0])
	}
	if stored[0].CookingTime == nil || *stored[0].CookingTime != 60 {
		t.Errorf("cooking time = %v", stored[0].CookingTime)
	}
}

func TestImportExternalChefKeeper(t *testing.T) {
	svc := NewService(newMemoryRepo())
	payload := []byte(`{"recipes":[{"title":"Keeper Soup","ingredientLines":["2 cups stock"],"steps":["Boil the stock"],"yield":"2"}]}`)

	result, err := svc.ImportExternal(context.Background(), "user-1", "chefkeeper", payload, ImportOptions{})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.Progress.ImportedCount != 1 {
		t.Errorf("progress = %+v", result.Progress)
	}
}

func TestImportExternalMealMaster(t *testing.T) {
	svc := NewService(newMemoryRepo())
	payload := []byte(`MMMMM----- Recipe via Meal-Master
Title: Garlic Butter
Categories: Sauces, Basics
Yield: 8 servings

1/2 cup butter
4 cloves garlic

Melt the butter gently.
Stir in the minced garlic.
MMMMM`)

	result, err := svc.ImportExternal(context.Background(), "user-1", "mealmaster", payload, ImportOptions{})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.Progress.ImportedCount != 1 {
		t.Fatalf("progress = %+v", result.Progress)
	}
}

func TestImportExternalUnknownFormat(t *testing.T) {
	svc := NewService(newMemoryRepo())
	_, err := svc.ImportExternal(context.Background(), "user-1", "fitbit", []byte(`{}`), ImportOptions{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ingErr *models.IngestionError
	if !errors.As(err, &ingErr) || ingErr.Kind != models.ErrorUnsupported {
		t.Errorf("err = %v, want unsupported kind", err)
	}
}
