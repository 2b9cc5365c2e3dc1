package validate

import (
	"regexp"
	"strings"

	"github.com/zombar/recipebox/models"
)

// allowedCharsRe keeps a conservative character set for free-text fields:
// letters (any script), digits, whitespace, and common punctuation found in
// recipe text. Everything else is stripped.
var allowedCharsRe = regexp.MustCompile(`[^\p{L}\p{N}\s.,;:!?'"()\[\]/&%°\-–—+=*#@½⅓⅔¼¾⅕⅛⅜⅝⅞]`)

var sanitizeSpaceRe = regexp.MustCompile(`\s+`)

// Sanitize applies the always-safe transforms to a recipe in place: trims
// and whitespace-normalizes free text, strips characters outside the
// allow-list, truncates oversized fields, renumbers instruction steps to
// match position, and lower-cases categories and tags.
// It never fails and never drops ingredients or steps.
func Sanitize(recipe *models.ExtractedRecipe) {
	recipe.Title = sanitizeText(recipe.Title, maxFieldLength)
	recipe.Description = sanitizeText(recipe.Description, maxFieldLength)
	recipe.Author = sanitizeText(recipe.Author, maxFieldLength)

	for i := range recipe.Ingredients {
		recipe.Ingredients[i].Name = sanitizeText(recipe.Ingredients[i].Name, maxFieldLength)
		recipe.Ingredients[i].Unit = sanitizeText(recipe.Ingredients[i].Unit, maxFieldLength)
		recipe.Ingredients[i].Notes = sanitizeText(recipe.Ingredients[i].Notes, maxFieldLength)
	}

	for i := range recipe.Instructions {
		recipe.Instructions[i].Description = sanitizeText(recipe.Instructions[i].Description, maxFieldLength)
		recipe.Instructions[i].StepNumber = i + 1
	}

	for i := range recipe.Categories {
		recipe.Categories[i] = strings.ToLower(sanitizeText(recipe.Categories[i], maxFieldLength))
	}
	for i := range recipe.Tags {
		recipe.Tags[i] = strings.ToLower(sanitizeText(recipe.Tags[i], maxFieldLength))
	}
}

// sanitizeText trims, collapses whitespace, strips disallowed characters,
// and truncates to limit characters.
func sanitizeText(s string, limit int) string {
	s = allowedCharsRe.ReplaceAllString(s, "")
	s = sanitizeSpaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
	if len(s) > limit {
		runes := []rune(s)
		if len(runes) > limit {
			s = strings.TrimSpace(string(runes[:limit]))
		}
	}
	return s
}
