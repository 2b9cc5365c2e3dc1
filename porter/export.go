package porter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zombar/recipebox/models"
	"github.com/zombar/recipebox/slug"
)

// ExportOptions control serialization of exports and backups.
type ExportOptions struct {
	// RedactNotes drops personal fields (ingredient notes, author) from the
	// exported payload.
	RedactNotes bool
	// PlainText renders a human-readable text document instead of JSON.
	PlainText bool
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// ExportRecipes serializes all of a user's recipes. The filename is
// deterministic for a given date.
func (s *Service) ExportRecipes(ctx context.Context, userID string, opts ExportOptions) (*models.ExportResult, error) {
	recipes, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	for i := range recipes {
		redact(&recipes[i], opts)
	}

	if opts.PlainText {
		data := renderText(recipes)
		return &models.ExportResult{
			Filename:    fmt.Sprintf("recipes-export-%s.txt", s.now()),
			ContentType: "text/plain; charset=utf-8",
			Data:        data,
			RecipeCount: len(recipes),
		}, nil
	}

	data, err := json.MarshalIndent(recipes, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize recipes: %w", err)
	}
	return &models.ExportResult{
		Filename:    fmt.Sprintf("recipes-export-%s.json", s.now()),
		ContentType: "application/json",
		Data:        data,
		RecipeCount: len(recipes),
	}, nil
}

// ExportRecipe serializes a single recipe, named by its slug.
func (s *Service) ExportRecipe(ctx context.Context, recipeID string, opts ExportOptions) (*models.ExportResult, error) {
	recipe, err := s.repo.FindByID(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	redact(recipe, opts)

	// Untitleable recipes fall back to a slug from the source URL.
	name := slug.Generate(recipe.Title)
	if name == "" {
		name = slug.GenerateWithFallback(slug.FromSourceURL(recipe.SourceURL), "recipe")
	}

	if opts.PlainText {
		return &models.ExportResult{
			Filename:    fmt.Sprintf("recipe-%s-%s.txt", name, s.now()),
			ContentType: "text/plain; charset=utf-8",
			Data:        renderText([]models.ExtractedRecipe{*recipe}),
			RecipeCount: 1,
		}, nil
	}

	data, err := json.MarshalIndent(recipe, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize recipe: %w", err)
	}
	return &models.ExportResult{
		Filename:    fmt.Sprintf("recipe-%s-%s.json", name, s.now()),
		ContentType: "application/json",
		Data:        data,
		RecipeCount: 1,
	}, nil
}

// CreateBackup serializes all of a user's recipes into a versioned backup
// document.
func (s *Service) CreateBackup(ctx context.Context, userID string, opts ExportOptions) (*models.ExportResult, error) {
	recipes, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	for i := range recipes {
		redact(&recipes[i], opts)
	}

	doc := models.BackupDocument{
		Version:     BackupVersion,
		ExportDate:  time.Now().UTC(),
		RecipeCount: len(recipes),
		Recipes:     recipes,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize backup: %w", err)
	}
	return &models.ExportResult{
		Filename:    fmt.Sprintf("cookbook-backup-%s.json", s.now()),
		ContentType: "application/json",
		Data:        data,
		RecipeCount: len(recipes),
	}, nil
}

// RestoreFromBackup validates a backup document and imports its recipes
// through the duplicate-aware import path. A major-version mismatch rejects
// the whole document and imports nothing.
func (s *Service) RestoreFromBackup(ctx context.Context, userID string, payload []byte, opts ImportOptions) (*models.ImportResult, error) {
	var doc models.BackupDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, &models.IngestionError{Kind: models.ErrorParsing, Message: fmt.Sprintf("invalid backup document: %v", err)}
	}
	if doc.Version == "" || doc.Recipes == nil {
		return nil, &models.IngestionError{Kind: models.ErrorParsing, Message: "backup document missing version or recipes"}
	}

	docMajor, err := semverMajor(doc.Version)
	if err != nil {
		return nil, &models.IngestionError{Kind: models.ErrorParsing, Message: fmt.Sprintf("invalid backup version %q", doc.Version)}
	}
	currentMajor, _ := semverMajor(BackupVersion)
	if docMajor != currentMajor {
		return nil, &models.IngestionError{
			Kind:    models.ErrorValidation,
			Message: fmt.Sprintf("incompatible backup version %s (current %s)", doc.Version, BackupVersion),
			Details: map[string]any{"backup_version": doc.Version, "current_version": BackupVersion},
		}
	}

	items := make([]importItem, 0, len(doc.Recipes))
	for i := range doc.Recipes {
		recipe := doc.Recipes[i]
		recipe.ID = "" // restored recipes get fresh IDs
		items = append(items, importItem{position: i + 1, recipe: &recipe})
	}
	return s.importRecipes(ctx, userID, items, opts)
}

func semverMajor(version string) (int, error) {
	parts := strings.SplitN(strings.TrimPrefix(version, "v"), ".", 2)
	return strconv.Atoi(parts[0])
}

func redact(recipe *models.ExtractedRecipe, opts ExportOptions) {
	if !opts.RedactNotes {
		return
	}
	recipe.Author = ""
	for i := range recipe.Ingredients {
		recipe.Ingredients[i].Notes = ""
	}
}

// renderText renders recipes as a readable plaintext document.
func renderText(recipes []models.ExtractedRecipe) []byte {
	var b strings.Builder
	for i, recipe := range recipes {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(recipe.Title + "\n")
		b.WriteString(strings.Repeat("=", len(recipe.Title)) + "\n")
		if recipe.Description != "" {
			b.WriteString("\n" + recipe.Description + "\n")
		}
		if recipe.Servings != nil {
			fmt.Fprintf(&b, "\nServes %d\n", *recipe.Servings)
		}
		if recipe.PrepTime != nil {
			fmt.Fprintf(&b, "Prep: %d min\n", *recipe.PrepTime)
		}
		if recipe.CookingTime != nil {
			fmt.Fprintf(&b, "Cook: %d min\n", *recipe.CookingTime)
		}

		b.WriteString("\nIngredients:\n")
		for _, ing := range recipe.Ingredients {
			b.WriteString("- " + formatIngredient(ing) + "\n")
		}

		b.WriteString("\nInstructions:\n")
		for _, step := range recipe.Instructions {
			fmt.Fprintf(&b, "%d. %s\n", step.StepNumber, step.Description)
		}

		if recipe.SourceURL != "" {
			b.WriteString("\nSource: " + recipe.SourceURL + "\n")
		}
	}
	return []byte(b.String())
}

func formatIngredient(ing models.Ingredient) string {
	var parts []string
	if ing.Quantity != nil {
		parts = append(parts, trimFloat(*ing.Quantity))
	}
	if ing.Unit != "" {
		parts = append(parts, ing.Unit)
	}
	parts = append(parts, ing.Name)
	line := strings.Join(parts, " ")
	if ing.Notes != "" {
		line += " (" + ing.Notes + ")"
	}
	return line
}

func trimFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
