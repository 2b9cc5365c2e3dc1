// Package porter implements bulk recipe movement: format-aware import with
// duplicate detection, JSON and plaintext export, and versioned
// backup/restore.
package porter

import (
	"context"
	"fmt"
	"strings"

	"github.com/zombar/recipebox/metrics"
	"github.com/zombar/recipebox/models"
	"github.com/zombar/recipebox/validate"
)

// BackupVersion is the semver written into backup documents. Restore
// rejects documents whose major version differs.
const BackupVersion = "1.0.0"

const defaultBatchSize = 25

// Repository is the recipe persistence capability the porter depends on.
type Repository interface {
	Create(ctx context.Context, userID string, recipe *models.ExtractedRecipe) (*models.ExtractedRecipe, error)
	FindByUserID(ctx context.Context, userID string) ([]models.ExtractedRecipe, error)
	FindByID(ctx context.Context, id string) (*models.ExtractedRecipe, error)
	Update(ctx context.Context, recipe *models.ExtractedRecipe) (*models.ExtractedRecipe, error)
	Delete(ctx context.Context, id string) error
}

// ImportOptions control one import or restore call.
type ImportOptions struct {
	// SkipDuplicates records typed conflicts for title/URL matches. Matches
	// are skipped either way; there is no overwrite path.
	SkipDuplicates bool
	BatchSize      int
	// Progress, when set, receives a counter snapshot after every processed
	// item.
	Progress func(models.ImportProgress)
}

// Service moves recipes in and out of the repository in bulk.
type Service struct {
	repo Repository
	now  func() string // export date stamp, YYYY-MM-DD
}

// NewService creates a porter backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: today}
}

// duplicateIndex tracks a user's existing titles and source URLs during one
// import call. Not safe for concurrent use; an import call is serialized.
type duplicateIndex struct {
	byTitle map[string]models.ExtractedRecipe
	byURL   map[string]models.ExtractedRecipe
}

func (s *Service) buildDuplicateIndex(ctx context.Context, userID string) (*duplicateIndex, error) {
	existing, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing recipes: %w", err)
	}
	idx := &duplicateIndex{
		byTitle: make(map[string]models.ExtractedRecipe, len(existing)),
		byURL:   make(map[string]models.ExtractedRecipe, len(existing)),
	}
	for _, r := range existing {
		idx.byTitle[strings.ToLower(r.Title)] = r
		if r.SourceURL != "" {
			idx.byURL[r.SourceURL] = r
		}
	}
	return idx, nil
}

// conflict returns the matching existing recipe and conflict type, if any.
// Titles match case-insensitively; URLs match exactly.
func (idx *duplicateIndex) conflict(recipe *models.ExtractedRecipe) (models.ExtractedRecipe, models.ConflictType, bool) {
	if existing, ok := idx.byTitle[strings.ToLower(recipe.Title)]; ok {
		return existing, models.ConflictTitleMatch, true
	}
	if recipe.SourceURL != "" {
		if existing, ok := idx.byURL[recipe.SourceURL]; ok {
			return existing, models.ConflictURLMatch, true
		}
	}
	return models.ExtractedRecipe{}, "", false
}

func (idx *duplicateIndex) add(recipe *models.ExtractedRecipe) {
	idx.byTitle[strings.ToLower(recipe.Title)] = *recipe
	if recipe.SourceURL != "" {
		idx.byURL[recipe.SourceURL] = *recipe
	}
}

// importRecipes is the shared import loop: per item, sanitize, validate,
// duplicate-check, persist. Items are processed in batches with a progress
// snapshot after each item. Item failures are recorded, never fatal; the
// final counters satisfy processed == imported+skipped+errored.
func (s *Service) importRecipes(ctx context.Context, userID string, items []importItem, opts ImportOptions) (*models.ImportResult, error) {
	idx, err := s.buildDuplicateIndex(ctx, userID)
	if err != nil {
		return nil, err
	}

	batchSize := opts.BatchSize
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}

	result := &models.ImportResult{Progress: models.ImportProgress{TotalItems: len(items)}}
	progress := &result.Progress

	report := func() {
		if opts.Progress != nil {
			opts.Progress(*progress)
		}
	}

	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}

		for _, item := range items[start:end] {
			progress.ProcessedItems++

			if item.err != nil {
				progress.ErrorCount++
				progress.Errors = append(progress.Errors, fmt.Sprintf("item %d: %v", item.position, item.err))
				metrics.ImportItemsTotal.WithLabelValues("error").Inc()
				report()
				continue
			}

			recipe := item.recipe
			validate.Sanitize(recipe)
			if vr := validate.Validate(recipe); !vr.IsValid {
				progress.ErrorCount++
				progress.Errors = append(progress.Errors,
					fmt.Sprintf("item %d (%q): %s", item.position, recipe.Title, strings.Join(vr.Errors, "; ")))
				metrics.ImportItemsTotal.WithLabelValues("error").Inc()
				report()
				continue
			}

			if existing, conflictType, found := idx.conflict(recipe); found {
				// Duplicates are skipped by default; no silent overwrite.
				progress.SkippedCount++
				metrics.ImportItemsTotal.WithLabelValues("skipped").Inc()
				if opts.SkipDuplicates {
					result.Conflicts = append(result.Conflicts, models.DuplicateConflict{
						IncomingTitle: recipe.Title,
						ExistingID:    existing.ID,
						ExistingTitle: existing.Title,
						Type:          conflictType,
					})
				}
				report()
				continue
			}

			created, err := s.repo.Create(ctx, userID, recipe)
			if err != nil {
				progress.ErrorCount++
				progress.Errors = append(progress.Errors, fmt.Sprintf("item %d (%q): %v", item.position, recipe.Title, err))
				metrics.ImportItemsTotal.WithLabelValues("error").Inc()
				report()
				continue
			}

			idx.add(created)
			progress.ImportedCount++
			metrics.ImportItemsTotal.WithLabelValues("imported").Inc()
			report()
		}
	}

	return result, nil
}

// importItem pairs a parsed recipe with its source position; parse failures
// travel as items so the batch counters account for them.
type importItem struct {
	position int
	recipe   *models.ExtractedRecipe
	err      error
}
