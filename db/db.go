// Package db provides the PostgreSQL recipe repository.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/zombar/recipebox/models"
)

// DB wraps the database connection and provides recipe data access.
type DB struct {
	conn *sql.DB
}

// Config contains database configuration
type Config struct {
	DSN string // PostgreSQL connection string
}

// New creates a new database connection and runs pending migrations.
func New(config Config) (*DB, error) {
	conn, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn}

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// DB returns the underlying database connection for metrics collection
func (db *DB) DB() *sql.DB {
	return db.conn
}

// Create persists a recipe for a user. The recipe document is stored as
// JSON alongside the columns used for lookups and duplicate detection.
func (db *DB) Create(ctx context.Context, userID string, recipe *models.ExtractedRecipe) (*models.ExtractedRecipe, error) {
	stored := *recipe
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	jsonData, err := json.Marshal(&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recipe: %w", err)
	}

	query := `
		INSERT INTO recipes (id, user_id, title, source_url, source_type, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = db.conn.ExecContext(ctx, query,
		stored.ID,
		userID,
		stored.Title,
		stored.SourceURL,
		string(stored.SourceType),
		string(jsonData),
		stored.CreatedAt,
		stored.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save recipe: %w", err)
	}
	return &stored, nil
}

// FindByID retrieves a recipe by ID. Returns sql.ErrNoRows when absent.
func (db *DB) FindByID(ctx context.Context, id string) (*models.ExtractedRecipe, error) {
	var jsonData string
	err := db.conn.QueryRowContext(ctx, "SELECT data FROM recipes WHERE id = $1", id).Scan(&jsonData)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe: %w", err)
	}

	var recipe models.ExtractedRecipe
	if err := json.Unmarshal([]byte(jsonData), &recipe); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe: %w", err)
	}
	return &recipe, nil
}

// FindByUserID retrieves all of a user's recipes, newest first.
func (db *DB) FindByUserID(ctx context.Context, userID string) ([]models.ExtractedRecipe, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT data FROM recipes WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	var recipes []models.ExtractedRecipe
	for rows.Next() {
		var jsonData string
		if err := rows.Scan(&jsonData); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		var recipe models.ExtractedRecipe
		if err := json.Unmarshal([]byte(jsonData), &recipe); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recipe: %w", err)
		}
		recipes = append(recipes, recipe)
	}
	return recipes, rows.Err()
}

// Update replaces a recipe's stored document, merged over the existing row.
// Fields the caller omits keep their persisted values; sourceURL and
// sourceType in particular are never cleared by an update that omits them.
func (db *DB) Update(ctx context.Context, recipe *models.ExtractedRecipe) (*models.ExtractedRecipe, error) {
	existing, err := db.FindByID(ctx, recipe.ID)
	if err != nil {
		return nil, err
	}

	merged := MergeUpdate(existing, recipe)
	merged.UpdatedAt = time.Now().UTC()

	jsonData, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recipe: %w", err)
	}

	query := `
		UPDATE recipes
		SET title = $2, source_url = $3, source_type = $4, data = $5, updated_at = $6
		WHERE id = $1
	`
	_, err = db.conn.ExecContext(ctx, query,
		merged.ID,
		merged.Title,
		merged.SourceURL,
		string(merged.SourceType),
		string(jsonData),
		merged.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}
	return merged, nil
}

// Delete removes a recipe by ID.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, "DELETE FROM recipes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MergeUpdate overlays an incoming partial update on the existing recipe.
// Zero-valued incoming fields keep the existing values; provenance fields
// (sourceURL, sourceType, createdAt) always come from the existing row.
func MergeUpdate(existing, incoming *models.ExtractedRecipe) *models.ExtractedRecipe {
	merged := *existing

	if incoming.Title != "" {
		merged.Title = incoming.Title
	}
	if incoming.Description != "" {
		merged.Description = incoming.Description
	}
	if incoming.Ingredients != nil {
		merged.Ingredients = incoming.Ingredients
	}
	if incoming.Instructions != nil {
		merged.Instructions = incoming.Instructions
	}
	if incoming.CookingTime != nil {
		merged.CookingTime = incoming.CookingTime
	}
	if incoming.PrepTime != nil {
		merged.PrepTime = incoming.PrepTime
	}
	if incoming.Servings != nil {
		merged.Servings = incoming.Servings
	}
	if incoming.Difficulty != "" {
		merged.Difficulty = incoming.Difficulty
	}
	if incoming.Categories != nil {
		merged.Categories = incoming.Categories
	}
	if incoming.Tags != nil {
		merged.Tags = incoming.Tags
	}
	if incoming.Author != "" {
		merged.Author = incoming.Author
	}
	if incoming.PublishedDate != "" {
		merged.PublishedDate = incoming.PublishedDate
	}
	return &merged
}
