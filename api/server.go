// Package api exposes the recipe ingestion pipeline over HTTP.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zombar/recipebox"
	"github.com/zombar/recipebox/db"
	"github.com/zombar/recipebox/docparse"
	"github.com/zombar/recipebox/models"
	"github.com/zombar/recipebox/porter"
	"github.com/zombar/recipebox/scale"
	"github.com/zombar/recipebox/storage"
)

// Extractor is the URL ingestion capability the server depends on.
type Extractor interface {
	ExtractRecipe(ctx context.Context, rawURL string) *models.IngestionResult
	ExtractBatch(ctx context.Context, urls []string) []recipebox.BatchResult
	CanHandle(rawURL string) bool
	SupportedDomains() []string
}

// DocumentProcessor ingests uploaded documents.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, data []byte, filename string) *docparse.Result
}

// Server represents the API server
type Server struct {
	repo        porter.Repository
	extractor   Extractor
	documents   DocumentProcessor
	porter      *porter.Service
	backups     storage.BackupStore
	addr        string
	server      *http.Server
	mux         *http.ServeMux
	corsEnabled bool
	closers     []func() error
}

// Config contains server configuration
type Config struct {
	Addr            string
	DBConfig        db.Config
	ExtractorConfig recipebox.Config
	DocumentConfig  docparse.Config
	StorageConfig   storage.Config
	CORSEnabled     bool
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ExtractorConfig: recipebox.DefaultConfig(),
		DocumentConfig:  docparse.DefaultConfig(),
		StorageConfig:   storage.DefaultConfig(),
		CORSEnabled:     true,
	}
}

// NewServer creates a new API server with real dependencies.
func NewServer(config Config) (*Server, error) {
	database, err := db.New(config.DBConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	backupStore, err := storage.New(config.StorageConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	s := newServer(
		database,
		recipebox.NewService(config.ExtractorConfig),
		docparse.NewService(config.DocumentConfig),
		backupStore,
		config,
	)
	s.closers = append(s.closers, database.Close)
	return s, nil
}

// newServer wires a server from its dependencies; tests pass fakes.
func newServer(repo porter.Repository, extractor Extractor, documents DocumentProcessor, backups storage.BackupStore, config Config) *Server {
	s := &Server{
		repo:        repo,
		extractor:   extractor,
		documents:   documents,
		porter:      porter.NewService(repo),
		backups:     backups,
		addr:        config.Addr,
		mux:         http.NewServeMux(),
		corsEnabled: config.CORSEnabled,
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         config.Addr,
		Handler:      s.middleware(s.mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // batch extraction can be slow
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// registerRoutes sets up all API routes
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/api/extract", s.handleExtract)
	s.mux.HandleFunc("/api/extract/batch", s.handleExtractBatch)
	s.mux.HandleFunc("/api/domains", s.handleDomains)
	s.mux.HandleFunc("/api/documents", s.handleDocuments)
	s.mux.HandleFunc("/api/import", s.handleImport)
	s.mux.HandleFunc("/api/export", s.handleExport)
	s.mux.HandleFunc("/api/backup", s.handleBackup)
	s.mux.HandleFunc("/api/restore", s.handleRestore)
	s.mux.HandleFunc("/api/recipes", s.handleRecipes)
	s.mux.HandleFunc("/api/recipes/", s.handleRecipe) // /api/recipes/{id}[/export|/scale]
}

// Start starts the API server
func (s *Server) Start() error {
	log.Printf("Starting API server on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down API server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	for _, closer := range s.closers {
		if err := closer(); err != nil {
			return err
		}
	}
	return nil
}

// middleware applies common middleware to all routes
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CORS headers
		if s.corsEnabled {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-ID")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		// Logging (skip health checks to reduce noise)
		start := time.Now()
		if r.URL.Path != "/health" {
			log.Printf("%s %s", r.Method, r.URL.Path)
		}

		next.ServeHTTP(w, r)

		if r.URL.Path != "/health" {
			log.Printf("%s %s - completed in %v", r.Method, r.URL.Path, time.Since(start))
		}
	})
}

// userID returns the caller's user ID. Authentication is handled upstream;
// the proxy forwards the identity in a header.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return "default"
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now(),
	})
}

func (s *Server) handleDomains(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"domains": s.extractor.SupportedDomains(),
	})
}

// ExtractRequest represents a single URL extraction request
type ExtractRequest struct {
	URL  string `json:"url"`
	Save bool   `json:"save"` // persist the extracted recipe
}

// handleExtract extracts a recipe from one URL.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	result := s.extractor.ExtractRecipe(r.Context(), req.URL)
	if !result.Success {
		respondIngestionError(w, result.Error)
		return
	}

	if req.Save {
		created, err := s.repo.Create(r.Context(), userID(r), result.Recipe)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to save recipe")
			return
		}
		result.Recipe = created
	}

	respondJSON(w, http.StatusOK, result)
}

// ExtractBatchRequest represents a multi-URL extraction request
type ExtractBatchRequest struct {
	URLs []string `json:"urls"`
}

func (s *Server) handleExtractBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ExtractBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.URLs) == 0 {
		respondError(w, http.StatusBadRequest, "urls is required")
		return
	}

	results := s.extractor.ExtractBatch(r.Context(), req.URLs)

	succeeded := 0
	for _, br := range results {
		if br.Result.Success {
			succeeded++
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"results":   results,
		"total":     len(results),
		"succeeded": succeeded,
	})
}

// handleDocuments ingests an uploaded document (multipart field "file").
func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	result := s.documents.ProcessDocument(r.Context(), data, header.Filename)
	if !result.Success {
		respondIngestionError(w, result.Error)
		return
	}

	// Persist each extracted recipe.
	uid := userID(r)
	var saved []*models.ExtractedRecipe
	for _, recipe := range result.Recipes {
		if recipe.ID == "" {
			recipe.ID = uuid.New().String()
		}
		created, err := s.repo.Create(r.Context(), uid, recipe)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to save %q: %v", recipe.Title, err))
			continue
		}
		saved = append(saved, created)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"recipes":  saved,
		"warnings": result.Warnings,
	})
}

// handleImport imports recipes; ?format=json|csv|paprika|mealmaster|chefkeeper.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 10<<20))
	if err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	opts := porter.ImportOptions{
		SkipDuplicates: r.URL.Query().Get("skip_duplicates") == "true",
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	var result *models.ImportResult
	var importErr error
	switch format {
	case "json":
		result, importErr = s.porter.ImportJSON(r.Context(), userID(r), payload, opts)
	case "csv":
		result, importErr = s.porter.ImportCSV(r.Context(), userID(r), payload, opts)
	default:
		result, importErr = s.porter.ImportExternal(r.Context(), userID(r), format, payload, opts)
	}
	if importErr != nil {
		respondPorterError(w, importErr)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleExport serializes the user's recipes; ?format=text for plaintext.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	opts := porter.ExportOptions{
		PlainText:   r.URL.Query().Get("format") == "text",
		RedactNotes: r.URL.Query().Get("redact") == "true",
	}
	result, err := s.porter.ExportRecipes(r.Context(), userID(r), opts)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "export failed")
		return
	}
	serveExport(w, result)
}

// handleBackup creates a versioned backup and stores it.
func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	result, err := s.porter.CreateBackup(r.Context(), userID(r), porter.ExportOptions{})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "backup failed")
		return
	}

	key := ""
	if s.backups != nil {
		key, err = s.backups.SaveBackup(result.Data, result.Filename)
		if err != nil {
			log.Printf("Failed to store backup: %v", err)
			// Still return the backup payload even if storing fails
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"filename":     result.Filename,
		"recipe_count": result.RecipeCount,
		"storage_key":  key,
		"data":         json.RawMessage(result.Data),
	})
}

// handleRestore restores recipes from a backup document.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 50<<20))
	if err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	opts := porter.ImportOptions{
		SkipDuplicates: r.URL.Query().Get("skip_duplicates") == "true",
	}
	result, err := s.porter.RestoreFromBackup(r.Context(), userID(r), payload, opts)
	if err != nil {
		respondPorterError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// handleRecipes lists the user's recipes.
func (s *Server) handleRecipes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	recipes, err := s.repo.FindByUserID(r.Context(), userID(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list recipes")
		return
	}

	total := len(recipes)
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", total)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	recipes = recipes[offset:end]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"recipes": recipes,
		"count":   len(recipes),
		"total":   total,
		"offset":  offset,
	})
}

// handleRecipe dispatches /api/recipes/{id}, /api/recipes/{id}/export, and
// /api/recipes/{id}/scale.
func (s *Server) handleRecipe(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/recipes/")
	if path == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	if strings.HasSuffix(path, "/export") {
		s.handleRecipeExport(w, r, strings.TrimSuffix(path, "/export"))
		return
	}
	if strings.HasSuffix(path, "/scale") {
		s.handleRecipeScale(w, r, strings.TrimSuffix(path, "/scale"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		recipe, err := s.repo.FindByID(r.Context(), path)
		if err != nil {
			respondNotFoundOrError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, recipe)

	case http.MethodPut:
		var incoming models.ExtractedRecipe
		if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		incoming.ID = path
		updated, err := s.repo.Update(r.Context(), &incoming)
		if err != nil {
			respondNotFoundOrError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := s.repo.Delete(r.Context(), path); err != nil {
			respondNotFoundOrError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleRecipeExport(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	opts := porter.ExportOptions{
		PlainText: r.URL.Query().Get("format") == "text",
	}
	result, err := s.porter.ExportRecipe(r.Context(), id, opts)
	if err != nil {
		respondNotFoundOrError(w, err)
		return
	}
	serveExport(w, result)
}

// ScaleRequest asks for a recipe adjusted to a new serving count.
type ScaleRequest struct {
	Servings int  `json:"servings"`
	Save     bool `json:"save"` // persist the scaled quantities
}

func (s *Server) handleRecipeScale(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ScaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	recipe, err := s.repo.FindByID(r.Context(), id)
	if err != nil {
		respondNotFoundOrError(w, err)
		return
	}

	scaled, err := scale.Scale(recipe, req.Servings)
	if err != nil {
		respondPorterError(w, err)
		return
	}

	if req.Save {
		scaled, err = s.repo.Update(r.Context(), scaled)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to save scaled recipe")
			return
		}
	}

	respondJSON(w, http.StatusOK, scaled)
}

// queryInt parses a non-negative integer query parameter.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

// serveExport writes an export payload with its filename and content type.
func serveExport(w http.ResponseWriter, result *models.ExportResult) {
	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(result.Data)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondIngestionError maps an ingestion error kind to an HTTP status.
func respondIngestionError(w http.ResponseWriter, err *models.IngestionError) {
	if err == nil {
		respondError(w, http.StatusInternalServerError, "unknown error")
		return
	}
	respondJSON(w, statusForKind(err.Kind), map[string]interface{}{
		"error":   err.Message,
		"kind":    err.Kind,
		"details": err.Details,
	})
}

// respondPorterError unwraps typed ingestion errors from the import path.
func respondPorterError(w http.ResponseWriter, err error) {
	var ingErr *models.IngestionError
	if errors.As(err, &ingErr) {
		respondIngestionError(w, ingErr)
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}

func respondNotFoundOrError(w http.ResponseWriter, err error) {
	if errors.Is(err, sql.ErrNoRows) || strings.Contains(err.Error(), "not found") {
		respondError(w, http.StatusNotFound, "recipe not found")
		return
	}
	respondError(w, http.StatusInternalServerError, "internal error")
}

func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.ErrorNetwork:
		return http.StatusBadGateway
	case models.ErrorParsing:
		return http.StatusUnprocessableEntity
	case models.ErrorValidation, models.ErrorUnsupported:
		return http.StatusBadRequest
	case models.ErrorFileSize:
		return http.StatusRequestEntityTooLarge
	case models.ErrorFileType:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}
