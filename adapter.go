// Package recipebox implements the recipe ingestion core: a fetch
// orchestrator dispatching over an ordered chain of source adapters that
// turn fetched pages into validated canonical recipes.
package recipebox

import (
	"context"

	"github.com/zombar/recipebox/models"
	"github.com/zombar/recipebox/normalize"
	"github.com/zombar/recipebox/validate"
)

// SourceAdapter extracts a recipe from a fetched page. The orchestrator
// owns the network fetch; adapters only parse.
type SourceAdapter interface {
	// CanHandle reports whether this adapter owns the given URL.
	CanHandle(rawURL string) bool

	// SupportedDomains lists the domains this adapter handles; "*" means
	// universal fallback.
	SupportedDomains() []string

	// Extract parses the fetched page body into an ingestion result.
	Extract(ctx context.Context, pageURL string, body []byte) *models.IngestionResult
}

// NewAdapterChain returns the adapters in dispatch order. Order is a tested
// invariant: platform adapters first, then site-specific adapters, then the
// universal structured-data fallback. The first adapter whose CanHandle
// returns true owns the URL, so the trivially-accepting fallback must come
// last.
func NewAdapterChain() []SourceAdapter {
	return []SourceAdapter{
		NewYouTubeAdapter(),
		NewTikTokAdapter(),
		NewInstagramAdapter(),
		NewAllRecipesAdapter(),
		NewStructuredDataAdapter(),
	}
}

// buildResult runs adapter output through the normalize -> sanitize ->
// validate tail of the pipeline shared by every adapter.
func buildResult(content models.NormalizedContent, sourceURL string, sourceType models.SourceType, confidence float64, warnings []string) *models.IngestionResult {
	recipe := normalize.Normalize(content, sourceURL, sourceType)
	validate.Sanitize(&recipe)

	vr := validate.Validate(&recipe)
	if !vr.IsValid {
		return models.FailWithDetails(models.ErrorValidation, "extracted recipe failed validation", map[string]any{
			"errors": vr.Errors,
		})
	}

	result := models.Succeed(&recipe)
	result.Confidence = confidence
	result.Warnings = append(warnings, vr.Warnings...)
	return result
}
