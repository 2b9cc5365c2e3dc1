// Package validate provides structural validation and sanitization of
// canonical recipes before persistence. Validation and sanitization are
// independent: callers sanitize first, then validate, act on errors, and
// surface warnings non-fatally.
package validate

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/zombar/recipebox/models"
)

const (
	maxTitleLength       = 200
	maxFieldLength       = 1000
	maxDescriptionLength = 2000
	maxIngredients       = 100
	maxInstructions      = 100
)

// suspiciousPatterns flag markup injection attempts in free-text fields.
// Flagged, not stripped: stripping is the sanitizer's job.
var suspiciousPatterns = []string{
	"javascript:",
	"<script",
	"onerror=",
	"onclick=",
	"onload=",
}

// Validate checks a canonical recipe and returns hard errors (block
// persistence) plus soft warnings (reported but non-fatal).
func Validate(recipe *models.ExtractedRecipe) models.ValidationResult {
	result := models.ValidationResult{
		IsValid:  true,
		Errors:   []string{},
		Warnings: []string{},
	}

	if strings.TrimSpace(recipe.Title) == "" {
		result.Errors = append(result.Errors, "title is required")
	}
	if len(recipe.Ingredients) == 0 {
		result.Errors = append(result.Errors, "at least one ingredient is required")
	}
	if len(recipe.Instructions) == 0 {
		result.Errors = append(result.Errors, "at least one instruction is required")
	}

	if recipe.SourceURL == "" {
		result.Errors = append(result.Errors, "source URL is required")
	} else if !validSourceURL(recipe.SourceURL) {
		result.Errors = append(result.Errors, fmt.Sprintf("source URL %q is not http(s), document:// or file://", recipe.SourceURL))
	}

	if !models.ValidSourceType(recipe.SourceType) {
		result.Errors = append(result.Errors, fmt.Sprintf("source type %q is not one of web, video, document, manual", recipe.SourceType))
	}

	for i, ing := range recipe.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("ingredient %d has a blank name", i+1))
		}
		if ing.Quantity != nil && *ing.Quantity < 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("ingredient %d has a negative quantity", i+1))
		}
	}

	for i, step := range recipe.Instructions {
		if strings.TrimSpace(step.Description) == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("instruction %d has a blank description", i+1))
		}
		if step.StepNumber != i+1 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("instruction %d is numbered %d", i+1, step.StepNumber))
		}
		if step.Duration != nil && *step.Duration < 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("instruction %d has a negative duration", i+1))
		}
	}

	if recipe.CookingTime != nil && *recipe.CookingTime < 0 {
		result.Warnings = append(result.Warnings, "cooking time is negative")
	}
	if recipe.PrepTime != nil && *recipe.PrepTime < 0 {
		result.Warnings = append(result.Warnings, "prep time is negative")
	}
	if recipe.Servings != nil && *recipe.Servings <= 0 {
		result.Warnings = append(result.Warnings, "servings is not positive")
	}

	if recipe.Difficulty != "" && recipe.Difficulty != "easy" && recipe.Difficulty != "medium" && recipe.Difficulty != "hard" {
		result.Warnings = append(result.Warnings, fmt.Sprintf("difficulty %q is not one of easy, medium, hard", recipe.Difficulty))
	}

	if utf8.RuneCountInString(recipe.Title) > maxTitleLength {
		result.Warnings = append(result.Warnings, fmt.Sprintf("title exceeds %d characters", maxTitleLength))
	}
	if utf8.RuneCountInString(recipe.Description) > maxDescriptionLength {
		result.Warnings = append(result.Warnings, fmt.Sprintf("description exceeds %d characters", maxDescriptionLength))
	}
	if len(recipe.Ingredients) > maxIngredients {
		result.Warnings = append(result.Warnings, fmt.Sprintf("more than %d ingredients", maxIngredients))
	}
	if len(recipe.Instructions) > maxInstructions {
		result.Warnings = append(result.Warnings, fmt.Sprintf("more than %d instructions", maxInstructions))
	}

	lowerTitle := strings.ToLower(recipe.Title)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(lowerTitle, pattern) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("title contains suspicious pattern %q", pattern))
		}
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// validSourceURL accepts http/https plus the synthetic schemes used for
// non-web sources.
func validSourceURL(raw string) bool {
	if strings.HasPrefix(raw, "document://") || strings.HasPrefix(raw, "file://") {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
