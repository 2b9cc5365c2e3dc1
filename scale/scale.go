// Package scale adjusts recipe ingredient quantities for a different
// serving count.
package scale

import (
	"fmt"

	"github.com/zombar/recipebox/models"
)

// Scale returns a copy of the recipe adjusted to newServings. Every
// ingredient quantity is multiplied by newServings/originalServings;
// quantities that were never set stay unset. All other fields pass through
// unchanged and the input recipe is not modified.
func Scale(recipe *models.ExtractedRecipe, newServings int) (*models.ExtractedRecipe, error) {
	if newServings <= 0 {
		return nil, &models.IngestionError{
			Kind:    models.ErrorValidation,
			Message: fmt.Sprintf("servings must be positive, got %d", newServings),
		}
	}
	if recipe.Servings == nil || *recipe.Servings <= 0 {
		return nil, &models.IngestionError{
			Kind:    models.ErrorValidation,
			Message: "recipe has no known serving count to scale from",
		}
	}

	factor := float64(newServings) / float64(*recipe.Servings)

	scaled := *recipe
	scaled.Ingredients = make([]models.Ingredient, len(recipe.Ingredients))
	for i, ing := range recipe.Ingredients {
		scaled.Ingredients[i] = ing
		if ing.Quantity != nil {
			q := *ing.Quantity * factor
			scaled.Ingredients[i].Quantity = &q
		}
	}

	servings := newServings
	scaled.Servings = &servings
	return &scaled, nil
}
