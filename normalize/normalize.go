package normalize

import (
	"math"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/zombar/recipebox/models"
)

var spaceRe = regexp.MustCompile(`\s+`)

// CollapseWhitespace trims a string and collapses internal runs of
// whitespace to single spaces.
func CollapseWhitespace(s string) string {
	return spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

// stepDurationRe finds an embedded duration inside an instruction line,
// e.g. "Bake for 10 minutes" or "simmer 2 hours".
var stepDurationRe = regexp.MustCompile(`(?i)(\d+)\s*(minutes|mins|hours|hrs)\b`)

// difficultyKeywords maps free-text difficulty descriptions onto the three
// canonical levels.
var difficultyKeywords = map[string]string{
	"easy":         "easy",
	"simple":       "easy",
	"beginner":     "easy",
	"basic":        "easy",
	"quick":        "easy",
	"medium":       "medium",
	"moderate":     "medium",
	"intermediate": "medium",
	"average":      "medium",
	"hard":         "hard",
	"difficult":    "hard",
	"advanced":     "hard",
	"expert":       "hard",
	"challenging":  "hard",
}

// categorySynonyms maps common category spellings onto the canonical set.
// Unmapped values pass through unchanged.
var categorySynonyms = map[string]string{
	"entree":      "main-course",
	"entrees":     "main-course",
	"main":        "main-course",
	"mains":       "main-course",
	"main course": "main-course",
	"main dish":   "main-course",
	"dinner":      "main-course",
	"starter":     "appetizers",
	"starters":    "appetizers",
	"appetizer":   "appetizers",
	"hors d'oeuvre": "appetizers",
	"dessert":     "desserts",
	"sweets":      "desserts",
	"sweet":       "desserts",
	"drink":       "beverages",
	"drinks":      "beverages",
	"beverage":    "beverages",
	"cocktail":    "beverages",
	"side":        "side-dishes",
	"sides":       "side-dishes",
	"side dish":   "side-dishes",
}

// Normalize converts raw adapter output into the canonical recipe shape.
// It is a pure transformation: no I/O, no validation. Callers sanitize and
// validate the result before persisting it.
func Normalize(content models.NormalizedContent, sourceURL string, sourceType models.SourceType) models.ExtractedRecipe {
	recipe := models.ExtractedRecipe{
		ID:            uuid.New().String(),
		Title:         CollapseWhitespace(content.Title),
		Description:   CollapseWhitespace(content.Description),
		SourceURL:     sourceURL,
		SourceType:    sourceType,
		Author:        CollapseWhitespace(content.Metadata.Author),
		PublishedDate: strings.TrimSpace(content.Metadata.PublishedDate),
	}

	for _, line := range content.Ingredients {
		ing := ParseIngredientLine(line)
		if ing.Name == "" {
			continue
		}
		recipe.Ingredients = append(recipe.Ingredients, ing)
	}

	for _, line := range content.Instructions {
		desc := CollapseWhitespace(line)
		if desc == "" {
			continue
		}
		step := models.InstructionStep{
			StepNumber:  len(recipe.Instructions) + 1,
			Description: desc,
		}
		if d, ok := parseStepDuration(desc); ok {
			step.Duration = &d
		}
		recipe.Instructions = append(recipe.Instructions, step)
	}

	recipe.CookingTime = roundPositiveMinutes(content.Metadata.CookingTime)
	recipe.PrepTime = roundPositiveMinutes(content.Metadata.PrepTime)

	if s := int(math.Round(content.Metadata.Servings)); s > 0 {
		recipe.Servings = &s
	}

	recipe.Difficulty = NormalizeDifficulty(content.Metadata.Difficulty)
	recipe.Categories = NormalizeCategories(content.Metadata.Categories)
	recipe.Tags = dedupeLower(content.Metadata.Tags)

	return recipe
}

// parseStepDuration extracts a duration embedded in an instruction line and
// converts it to minutes.
func parseStepDuration(desc string) (int, bool) {
	m := stepDurationRe.FindStringSubmatch(desc)
	if m == nil {
		return 0, false
	}
	n := 0
	for _, c := range m[1] {
		n = n*10 + int(c-'0')
	}
	unit := strings.ToLower(m[2])
	if unit == "hours" || unit == "hrs" {
		n *= 60
	}
	if n <= 0 {
		return 0, false
	}
	return n, true
}

// NormalizeDifficulty keyword-matches a free-text difficulty onto
// easy|medium|hard, returning "" when nothing matches.
func NormalizeDifficulty(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if level, ok := difficultyKeywords[s]; ok {
		return level
	}
	for keyword, level := range difficultyKeywords {
		if strings.Contains(s, keyword) {
			return level
		}
	}
	return ""
}

// NormalizeCategories lower-cases, maps through the synonym table, and
// deduplicates while preserving first-occurrence order.
func NormalizeCategories(categories []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range categories {
		c = strings.ToLower(CollapseWhitespace(c))
		if c == "" {
			continue
		}
		if mapped, ok := categorySynonyms[c]; ok {
			c = mapped
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func dedupeLower(values []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range values {
		v = strings.ToLower(CollapseWhitespace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func roundPositiveMinutes(v float64) *int {
	n := int(math.Round(v))
	if n <= 0 {
		return nil
	}
	return &n
}
