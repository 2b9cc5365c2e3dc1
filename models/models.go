package models

import "time"

// SourceType identifies where a recipe was ingested from.
type SourceType string

const (
	SourceTypeWeb      SourceType = "web"
	SourceTypeVideo    SourceType = "video"
	SourceTypeDocument SourceType = "document"
	SourceTypeManual   SourceType = "manual"
)

// ValidSourceType reports whether s is one of the four known source types.
func ValidSourceType(s SourceType) bool {
	switch s {
	case SourceTypeWeb, SourceTypeVideo, SourceTypeDocument, SourceTypeManual:
		return true
	}
	return false
}

// ErrorKind classifies ingestion failures so callers can decide how to react.
// Only network errors are retryable.
type ErrorKind string

const (
	ErrorNetwork     ErrorKind = "network"
	ErrorParsing     ErrorKind = "parsing"
	ErrorValidation  ErrorKind = "validation"
	ErrorUnsupported ErrorKind = "unsupported"
	ErrorFileSize    ErrorKind = "file_size"
	ErrorFileType    ErrorKind = "file_type"
	ErrorProcessing  ErrorKind = "processing"
)

// Ingredient is one entry in a recipe's ingredient list.
// Quantity is nil when the source line carried no parseable amount.
type Ingredient struct {
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity,omitempty"`
	Unit     string   `json:"unit,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

// InstructionStep is one ordered step in a recipe.
// StepNumber is 1-based and matches the step's position after sanitization.
type InstructionStep struct {
	StepNumber  int    `json:"step_number"`
	Description string `json:"description"`
	Duration    *int   `json:"duration,omitempty"` // minutes
}

// ExtractedRecipe is the canonical recipe representation produced by the
// ingestion pipeline and persisted by the repository.
type ExtractedRecipe struct {
	ID            string            `json:"id,omitempty"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	Ingredients   []Ingredient      `json:"ingredients"`
	Instructions  []InstructionStep `json:"instructions"`
	CookingTime   *int              `json:"cooking_time,omitempty"` // minutes
	PrepTime      *int              `json:"prep_time,omitempty"`    // minutes
	Servings      *int              `json:"servings,omitempty"`
	Difficulty    string            `json:"difficulty,omitempty"` // easy|medium|hard
	Categories    []string          `json:"categories,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	SourceURL     string            `json:"source_url"`
	SourceType    SourceType        `json:"source_type"`
	Author        string            `json:"author,omitempty"`
	PublishedDate string            `json:"published_date,omitempty"`
	CreatedAt     time.Time         `json:"created_at,omitempty"`
	UpdatedAt     time.Time         `json:"updated_at,omitempty"`
}

// ContentMetadata carries raw, pre-normalization metadata alongside adapter
// output. Zero values mean "not present".
type ContentMetadata struct {
	CookingTime   float64  `json:"cooking_time,omitempty"` // raw minutes
	PrepTime      float64  `json:"prep_time,omitempty"`    // raw minutes
	Servings      float64  `json:"servings,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Author        string   `json:"author,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
}

// NormalizedContent is the transient adapter output handed to the
// normalizer. It lives only within a single ingestion call.
type NormalizedContent struct {
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Ingredients  []string        `json:"ingredients"`
	Instructions []string        `json:"instructions"`
	Metadata     ContentMetadata `json:"metadata"`
}

// IngestionError is a typed ingestion failure with a machine-readable kind,
// a human-readable message, and optional structured details.
type IngestionError struct {
	Kind    ErrorKind      `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *IngestionError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Retryable reports whether the failure class is worth retrying.
func (e *IngestionError) Retryable() bool {
	return e.Kind == ErrorNetwork
}

// IngestionResult is the tagged union returned by every extraction path:
// either Recipe is set (Success true) or Error is set.
// Confidence is diagnostic metadata for degraded extractions (placeholder
// video recipes score low); it never gates success.
type IngestionResult struct {
	Success    bool             `json:"success"`
	Recipe     *ExtractedRecipe `json:"recipe,omitempty"`
	Error      *IngestionError  `json:"error,omitempty"`
	Warnings   []string         `json:"warnings,omitempty"`
	Confidence float64          `json:"confidence,omitempty"`
}

// Succeed builds a successful result.
func Succeed(recipe *ExtractedRecipe) *IngestionResult {
	return &IngestionResult{Success: true, Recipe: recipe, Confidence: 1.0}
}

// Fail builds a failed result of the given kind.
func Fail(kind ErrorKind, message string) *IngestionResult {
	return &IngestionResult{Error: &IngestionError{Kind: kind, Message: message}}
}

// FailWithDetails builds a failed result carrying structured details.
func FailWithDetails(kind ErrorKind, message string, details map[string]any) *IngestionResult {
	return &IngestionResult{Error: &IngestionError{Kind: kind, Message: message, Details: details}}
}

// ValidationResult reports hard errors (block persistence) and soft
// warnings (surfaced but non-fatal).
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// BackupDocument is the versioned serialization envelope for bulk backups.
// RecipeCount must equal len(Recipes).
type BackupDocument struct {
	Version     string            `json:"version"`
	ExportDate  time.Time         `json:"export_date"`
	RecipeCount int               `json:"recipe_count"`
	Recipes     []ExtractedRecipe `json:"recipes"`
}

// ConflictType distinguishes how an incoming recipe collided with an
// existing one during import.
type ConflictType string

const (
	ConflictTitleMatch ConflictType = "title_match"
	ConflictURLMatch   ConflictType = "url_match"
)

// DuplicateConflict records a title or source-URL collision detected during
// import. Produced per batch, never persisted.
type DuplicateConflict struct {
	IncomingTitle string       `json:"incoming_title"`
	ExistingID    string       `json:"existing_id"`
	ExistingTitle string       `json:"existing_title"`
	Type          ConflictType `json:"type"`
}

// ImportProgress holds the monotonic counters of a running import batch.
// At completion ProcessedItems == ImportedCount+SkippedCount+ErrorCount.
type ImportProgress struct {
	TotalItems     int      `json:"total_items"`
	ProcessedItems int      `json:"processed_items"`
	ImportedCount  int      `json:"imported_count"`
	SkippedCount   int      `json:"skipped_count"`
	ErrorCount     int      `json:"error_count"`
	Errors         []string `json:"errors,omitempty"`
}

// ImportResult is the final outcome of an import or restore call.
type ImportResult struct {
	Progress  ImportProgress      `json:"progress"`
	Conflicts []DuplicateConflict `json:"conflicts,omitempty"`
}

// ExportResult carries a serialized export payload plus its deterministic
// filename and content type.
type ExportResult struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
	RecipeCount int    `json:"recipe_count"`
}
