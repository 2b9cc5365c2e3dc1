package porter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/zombar/recipebox/models"
	"github.com/zombar/recipebox/normalize"
)

// ImportJSON imports a single JSON recipe object or an array of them.
// Foreign field names are normalized to the canonical shape before
// validation; items missing title, ingredients, or instructions are recorded
// as errors and the batch continues.
func (s *Service) ImportJSON(ctx context.Context, userID string, payload []byte, opts ImportOptions) (*models.ImportResult, error) {
	var raw any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, &models.IngestionError{Kind: models.ErrorParsing, Message: fmt.Sprintf("invalid JSON payload: %v", err)}
	}

	var objects []any
	switch v := raw.(type) {
	case []any:
		objects = v
	case map[string]any:
		objects = []any{v}
	default:
		return nil, &models.IngestionError{Kind: models.ErrorParsing, Message: "payload must be a recipe object or array"}
	}

	items := make([]importItem, 0, len(objects))
	for i, obj := range objects {
		m, ok := obj.(map[string]any)
		if !ok {
			items = append(items, importItem{position: i + 1, err: fmt.Errorf("not a recipe object")})
			continue
		}
		items = append(items, s.foreignItem(i+1, m))
	}

	return s.importRecipes(ctx, userID, items, opts)
}

// ImportCSV imports recipes from CSV with a header row. Required columns:
// title, ingredients, instructions; ingredients and instructions are
// semicolon-separated within their cell.
func (s *Service) ImportCSV(ctx context.Context, userID string, payload []byte, opts ImportOptions) (*models.ImportResult, error) {
	reader := csv.NewReader(bytes.NewReader(payload))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &models.IngestionError{Kind: models.ErrorParsing, Message: fmt.Sprintf("invalid CSV payload: %v", err)}
	}
	if len(rows) < 2 {
		return nil, &models.IngestionError{Kind: models.ErrorParsing, Message: "CSV payload has no data rows"}
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"title", "ingredients", "instructions"} {
		if _, ok := columns[required]; !ok {
			return nil, &models.IngestionError{Kind: models.ErrorParsing, Message: fmt.Sprintf("CSV missing required column %q", required)}
		}
	}

	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	items := make([]importItem, 0, len(rows)-1)
	for i, row := range rows[1:] {
		m := map[string]any{
			"title":        cell(row, "title"),
			"description":  cell(row, "description"),
			"ingredients":  splitCell(cell(row, "ingredients")),
			"instructions": splitCell(cell(row, "instructions")),
			"servings":     cell(row, "servings"),
			"cook_time":    cell(row, "cook_time"),
			"prep_time":    cell(row, "prep_time"),
			"categories":   splitCell(cell(row, "categories")),
			"tags":         splitCell(cell(row, "tags")),
			"source_url":   cell(row, "source_url"),
		}
		items = append(items, s.foreignItem(i+1, m))
	}

	return s.importRecipes(ctx, userID, items, opts)
}

func splitCell(cell string) []any {
	if cell == "" {
		return nil
	}
	var out []any
	for _, part := range strings.Split(cell, ";") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ImportExternal imports exports from known external recipe apps:
// "paprika", "mealmaster", or "chefkeeper".
func (s *Service) ImportExternal(ctx context.Context, userID, format string, payload []byte, opts ImportOptions) (*models.ImportResult, error) {
	switch strings.ToLower(format) {
	case "paprika":
		return s.importPaprika(ctx, userID, payload, opts)
	case "mealmaster":
		return s.importMealMaster(ctx, userID, payload, opts)
	case "chefkeeper":
		return s.importChefKeeper(ctx, userID, payload, opts)
	default:
		return nil, &models.IngestionError{
			Kind:    models.ErrorUnsupported,
			Message: fmt.Sprintf("unknown external format %q", format),
			Details: map[string]any{"supported": []string{"paprika", "mealmaster", "chefkeeper"}},
		}
	}
}

// importPaprika handles Paprika JSON exports: an array of objects with
// newline-separated ingredient and direction blocks.
func (s *Service) importPaprika(ctx context.Context, userID string, payload []byte, opts ImportOptions) (*models.ImportResult, error) {
	var entries []map[string]any
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, &models.IngestionError{Kind: models.ErrorParsing, Message: fmt.Sprintf("invalid paprika export: %v", err)}
	}

	items := make([]importItem, 0, len(entries))
	for i, entry := range entries {
		m := map[string]any{
			"title":        entry["name"],
			"description":  entry["description"],
			"ingredients":  splitLines(stringField(entry["ingredients"])),
			"instructions": splitLines(stringField(entry["directions"])),
			"cook_time":    entry["cook_time"],
			"prep_time":    entry["prep_time"],
			"servings":     entry["servings"],
			"categories":   entry["categories"],
			"source_url":   entry["source_url"],
		}
		items = append(items, s.foreignItem(i+1, m))
	}
	return s.importRecipes(ctx, userID, items, opts)
}

// importMealMaster handles Meal-Master text exports: recipes delimited by
// "MMMMM" header/footer lines with Title/Categories/Yield fields, an
// ingredient block, and free-text instructions.
func (s *Service) importMealMaster(ctx context.Context, userID string, payload []byte, opts ImportOptions) (*models.ImportResult, error) {
	var items []importItem
	position := 0

	for _, block := range splitMealMasterBlocks(string(payload)) {
		position++
		m := map[string]any{}
		var ingredients, instructions []any
		inIngredients := false

		for _, line := range strings.Split(block, "\n") {
			trimmed := strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(trimmed, "Title:"):
				m["title"] = strings.TrimSpace(strings.TrimPrefix(trimmed, "Title:"))
			case strings.HasPrefix(trimmed, "Categories:"):
				var cats []any
				for _, c := range strings.Split(strings.TrimPrefix(trimmed, "Categories:"), ",") {
					if c = strings.TrimSpace(c); c != "" {
						cats = append(cats, c)
					}
				}
				m["categories"] = cats
			case strings.HasPrefix(trimmed, "Yield:"):
				m["servings"] = strings.TrimSpace(strings.TrimPrefix(trimmed, "Yield:"))
			case trimmed == "":
				// Blank line after the ingredient block starts instructions.
				if inIngredients && len(ingredients) > 0 {
					inIngredients = false
				}
			default:
				if !inIngredients && len(ingredients) == 0 && leadsWithQuantity(trimmed) {
					inIngredients = true
				}
				if inIngredients {
					ingredients = append(ingredients, trimmed)
				} else if len(ingredients) > 0 {
					instructions = append(instructions, trimmed)
				}
			}
		}

		m["ingredients"] = ingredients
		m["instructions"] = instructions
		items = append(items, s.foreignItem(position, m))
	}

	if len(items) == 0 {
		return nil, &models.IngestionError{Kind: models.ErrorParsing, Message: "no Meal-Master recipe blocks found"}
	}
	return s.importRecipes(ctx, userID, items, opts)
}

func splitMealMasterBlocks(text string) []string {
	var blocks []string
	var current []string
	inBlock := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "MMMMM") {
			if inBlock {
				blocks = append(blocks, strings.Join(current, "\n"))
				current = nil
			}
			inBlock = !inBlock || strings.Contains(trimmed, "Recipe")
			continue
		}
		if inBlock {
			current = append(current, line)
		}
	}
	if inBlock && len(current) > 0 {
		blocks = append(blocks, strings.Join(current, "\n"))
	}
	return blocks
}

func leadsWithQuantity(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	_, ok := normalize.ParseQuantity(fields[0])
	return ok
}

// importChefKeeper handles ChefKeeper JSON exports: {"recipes": [...]} with
// ingredientLines and steps arrays.
func (s *Service) importChefKeeper(ctx context.Context, userID string, payload []byte, opts ImportOptions) (*models.ImportResult, error) {
	var doc struct {
		Recipes []map[string]any `json:"recipes"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, &models.IngestionError{Kind: models.ErrorParsing, Message: fmt.Sprintf("invalid chefkeeper export: %v", err)}
	}
	if len(doc.Recipes) == 0 {
		return nil, &models.IngestionError{Kind: models.ErrorParsing, Message: "chefkeeper export contains no recipes"}
	}

	items := make([]importItem, 0, len(doc.Recipes))
	for i, entry := range doc.Recipes {
		m := map[string]any{
			"title":        entry["title"],
			"description":  entry["notes"],
			"ingredients":  entry["ingredientLines"],
			"instructions": entry["steps"],
			"cook_time":    entry["cookTime"],
			"prep_time":    entry["prepTime"],
			"servings":     entry["yield"],
			"tags":         entry["tags"],
			"source_url":   entry["sourceUrl"],
		}
		items = append(items, s.foreignItem(i+1, m))
	}
	return s.importRecipes(ctx, userID, items, opts)
}

// foreignItem normalizes one foreign recipe object to the canonical shape.
// Title, ingredients, and instructions are required; their absence is an
// item error, not a batch failure.
func (s *Service) foreignItem(position int, m map[string]any) importItem {
	title := firstString(m, "title", "name")
	ingredients := firstList(m, "ingredients", "recipeIngredient", "recipe-ingredient", "ingredient_lines")
	instructions := firstList(m, "instructions", "recipeInstructions", "recipe-instructions", "directions", "steps")

	var missing []string
	if title == "" {
		missing = append(missing, "title")
	}
	if len(ingredients) == 0 {
		missing = append(missing, "ingredients")
	}
	if len(instructions) == 0 {
		missing = append(missing, "instructions")
	}
	if len(missing) > 0 {
		return importItem{position: position, err: fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))}
	}

	content := models.NormalizedContent{
		Title:        title,
		Description:  firstString(m, "description", "summary"),
		Ingredients:  ingredients,
		Instructions: instructions,
	}
	if minutes, ok := timeField(m, "cookingTime", "cookTime", "cook_time"); ok {
		content.Metadata.CookingTime = minutes
	}
	if minutes, ok := timeField(m, "prepTime", "prep_time"); ok {
		content.Metadata.PrepTime = minutes
	}
	if servings, ok := servingsField(m, "servings", "yield", "recipeYield"); ok {
		content.Metadata.Servings = servings
	}
	content.Metadata.Difficulty = firstString(m, "difficulty")
	content.Metadata.Categories = firstList(m, "categories", "recipeCategory")
	content.Metadata.Tags = firstList(m, "tags", "keywords")
	content.Metadata.Author = firstString(m, "author")

	sourceURL := firstString(m, "source_url", "sourceUrl", "url")
	sourceType := models.SourceTypeManual
	if sourceURL == "" {
		// Unique per item: the synthetic URL is persisted and enters the
		// duplicate index, so a stable placeholder would collide with items
		// from earlier imports.
		sourceURL = "document://import-" + uuid.New().String()
	}

	recipe := normalize.Normalize(content, sourceURL, sourceType)
	return importItem{position: position, recipe: &recipe}
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func firstList(m map[string]any, keys ...string) []string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case []any:
			var out []string
			for _, item := range v {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					out = append(out, strings.TrimSpace(s))
				}
			}
			if len(out) > 0 {
				return out
			}
		case []string:
			if len(v) > 0 {
				return v
			}
		case string:
			if lines := splitLinesToStrings(v); len(lines) > 0 {
				return lines
			}
		}
	}
	return nil
}

// timeField accepts numeric minutes, ISO-8601 durations, and phrases like
// "45 minutes" or "1 hour 30 minutes".
func timeField(m map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			if v > 0 {
				return v, true
			}
		case string:
			if minutes, ok := normalize.ParseMinutes(v); ok {
				return float64(minutes), true
			}
		}
	}
	return 0, false
}

// servingsField accepts numbers and strings like "4" or "4 servings".
func servingsField(m map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			if v > 0 {
				return v, true
			}
		case string:
			fields := strings.Fields(v)
			if len(fields) > 0 {
				if n, err := strconv.ParseFloat(fields[0], 64); err == nil && n > 0 {
					return n, true
				}
			}
		}
	}
	return 0, false
}

func stringField(v any) string {
	s, _ := v.(string)
	return s
}

func splitLines(text string) []any {
	var out []any
	for _, line := range splitLinesToStrings(text) {
		out = append(out, line)
	}
	return out
}

func splitLinesToStrings(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
