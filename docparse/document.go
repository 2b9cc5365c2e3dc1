package docparse

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/zombar/recipebox/metrics"
	"github.com/zombar/recipebox/models"
	"github.com/zombar/recipebox/validate"
)

// TextExtractor converts a binary document into plain text. Binary format
// readers (PDF, Word) live behind this interface.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, filename string) (string, error)
}

// plainTextExtractor handles .txt and .md files directly.
type plainTextExtractor struct{}

func (plainTextExtractor) ExtractText(_ context.Context, data []byte, _ string) (string, error) {
	return string(data), nil
}

// Config contains document ingestion limits.
type Config struct {
	MaxFileBytes      int64
	AllowedExtensions []string
}

// DefaultConfig returns default document ingestion configuration.
func DefaultConfig() Config {
	return Config{
		MaxFileBytes:      10 * 1024 * 1024, // 10MB max upload
		AllowedExtensions: []string{".txt", ".md", ".pdf", ".doc", ".docx"},
	}
}

// Result is the outcome of processing one uploaded document.
type Result struct {
	Success  bool                      `json:"success"`
	Recipes  []*models.ExtractedRecipe `json:"recipes,omitempty"`
	Error    *models.IngestionError    `json:"error,omitempty"`
	Warnings []string                  `json:"warnings,omitempty"`
}

// Service ingests uploaded documents: size and type gating, text
// extraction, section splitting, and per-section recipe assembly.
type Service struct {
	config     Config
	extractors map[string]TextExtractor
}

// NewService creates a document ingestion service. Plain-text formats are
// handled internally; binary extractors register via RegisterExtractor.
func NewService(config Config) *Service {
	return &Service{
		config: config,
		extractors: map[string]TextExtractor{
			".txt": plainTextExtractor{},
			".md":  plainTextExtractor{},
		},
	}
}

// RegisterExtractor installs a text extractor for a file extension
// (lower-case, with leading dot).
func (s *Service) RegisterExtractor(ext string, extractor TextExtractor) {
	s.extractors[ext] = extractor
}

// ProcessDocument gates on size and type, extracts text, splits sections,
// and assembles one recipe per surviving section. A malformed section is
// skipped; the call fails only when no section survives.
func (s *Service) ProcessDocument(ctx context.Context, data []byte, filename string) *Result {
	if int64(len(data)) > s.config.MaxFileBytes {
		return &Result{Error: &models.IngestionError{
			Kind:    models.ErrorFileSize,
			Message: fmt.Sprintf("file exceeds %d byte limit", s.config.MaxFileBytes),
			Details: map[string]any{"limit_bytes": s.config.MaxFileBytes, "size_bytes": len(data)},
		}}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !s.allowedExtension(ext) {
		return &Result{Error: &models.IngestionError{
			Kind:    models.ErrorFileType,
			Message: fmt.Sprintf("file type %q not supported", ext),
			Details: map[string]any{"allowed": s.config.AllowedExtensions},
		}}
	}

	extractor, ok := s.extractors[ext]
	if !ok {
		return &Result{Error: &models.IngestionError{
			Kind:    models.ErrorFileType,
			Message: fmt.Sprintf("no text extractor registered for %q", ext),
		}}
	}

	text, err := extractor.ExtractText(ctx, data, filename)
	if err != nil {
		return &Result{Error: &models.IngestionError{
			Kind:    models.ErrorParsing,
			Message: fmt.Sprintf("text extraction failed: %v", err),
		}}
	}
	if strings.TrimSpace(text) == "" {
		return &Result{Error: &models.IngestionError{
			Kind:    models.ErrorParsing,
			Message: "document contains no extractable text",
		}}
	}

	sections := SplitSections(text)
	if len(sections) == 0 {
		return &Result{Error: &models.IngestionError{
			Kind:    models.ErrorParsing,
			Message: "no recipe sections found in document",
		}}
	}

	result := &Result{}
	for i, section := range sections {
		recipe := sectionRecipe(section, filename)
		validate.Sanitize(recipe)

		vr := validate.Validate(recipe)
		if !vr.IsValid {
			log.Printf("skipping document section %d (%q): %v", i+1, section.Title, vr.Errors)
			metrics.DocumentSectionsTotal.WithLabelValues("skipped").Inc()
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("section %d skipped: %s", i+1, strings.Join(vr.Errors, "; ")))
			continue
		}
		metrics.DocumentSectionsTotal.WithLabelValues("kept").Inc()
		result.Warnings = append(result.Warnings, vr.Warnings...)
		result.Recipes = append(result.Recipes, recipe)
	}

	if len(result.Recipes) == 0 {
		return &Result{Error: &models.IngestionError{
			Kind:    models.ErrorValidation,
			Message: "no document sections produced a valid recipe",
			Details: map[string]any{"sections_found": len(sections)},
		}}
	}
	result.Success = true
	return result
}

func (s *Service) allowedExtension(ext string) bool {
	for _, allowed := range s.config.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// sectionRecipe assembles a flat recipe from one section: ingredient lines
// become bare names, instruction lines become numbered steps. Quantities are
// left unparsed for the user to review.
func sectionRecipe(section Section, filename string) *models.ExtractedRecipe {
	title := section.Title
	if title == "" {
		title = "Untitled Recipe"
	}

	recipe := &models.ExtractedRecipe{
		Title:      title,
		SourceURL:  "file://" + filename,
		SourceType: models.SourceTypeDocument,
	}

	ingredients := sectionLines(section.Content, ingredientsLabelRe, instructionsLabelRe)
	instructions := sectionLines(section.Content, instructionsLabelRe, ingredientsLabelRe)

	// The splitter keeps sections carrying a list plus a single label; the
	// unlabeled side falls back to the list lines outside the labeled block.
	switch {
	case len(ingredients) == 0 && len(instructions) > 0:
		ingredients = unlabeledListLines(section.Content, instructionsLabelRe)
	case len(instructions) == 0 && len(ingredients) > 0:
		instructions = unlabeledListLines(section.Content, ingredientsLabelRe)
	}

	for _, line := range ingredients {
		recipe.Ingredients = append(recipe.Ingredients, models.Ingredient{Name: line})
	}
	for i, line := range instructions {
		recipe.Instructions = append(recipe.Instructions, models.InstructionStep{
			StepNumber:  i + 1,
			Description: line,
		})
	}
	return recipe
}

// unlabeledListLines returns the cleaned list lines of a section outside the
// given labeled block.
func unlabeledListLines(text string, labeled *regexp.Regexp) []string {
	if loc := labeled.FindStringIndex(text); loc != nil {
		end := len(text)
		if blank := strings.Index(text[loc[1]:], "\n\n"); blank >= 0 {
			end = loc[1] + blank
		}
		text = text[:loc[0]] + text[end:]
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if !listLineRe.MatchString(line) {
			continue
		}
		if cleaned := strings.TrimSpace(sectionBulletRe.ReplaceAllString(line, "")); cleaned != "" {
			lines = append(lines, cleaned)
		}
	}
	return lines
}

var sectionBulletRe = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)

// sectionLines returns the cleaned lines between a label and the next blank
// line or competing label.
func sectionLines(text string, label, stop *regexp.Regexp) []string {
	loc := label.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	rest := text[loc[1]:]
	if stopLoc := stop.FindStringIndex(rest); stopLoc != nil {
		rest = rest[:stopLoc[0]]
	}
	if blank := strings.Index(rest, "\n\n"); blank >= 0 {
		rest = rest[:blank]
	}

	var lines []string
	for _, line := range strings.Split(rest, "\n") {
		cleaned := strings.TrimSpace(sectionBulletRe.ReplaceAllString(line, ""))
		if cleaned != "" {
			lines = append(lines, cleaned)
		}
	}
	return lines
}
