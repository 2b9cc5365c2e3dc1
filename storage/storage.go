// Package storage persists backup documents to the filesystem or to
// S3-compatible object storage.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zombar/recipebox/slug"
)

// BackupStore is the persistence capability backup archives are written to.
type BackupStore interface {
	// SaveBackup writes a backup payload and returns its storage key.
	SaveBackup(data []byte, filename string) (string, error)
	// ReadBackup reads a previously stored backup by key.
	ReadBackup(key string) ([]byte, error)
	// DeleteBackup removes a stored backup.
	DeleteBackup(key string) error
}

// Config contains storage configuration
type Config struct {
	BasePath string // Base directory for all stored files
}

// DefaultConfig returns default storage configuration
func DefaultConfig() Config {
	return Config{
		BasePath: "./storage",
	}
}

// Storage handles filesystem storage operations
type Storage struct {
	config Config
}

// New creates a new Storage instance
func New(config Config) (*Storage, error) {
	// Create base directory if it doesn't exist
	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base storage directory: %w", err)
	}

	return &Storage{
		config: config,
	}, nil
}

// SaveBackup writes a backup document under backups/YYYY/MM/.
// Returns the relative file path from the base storage directory.
func (s *Storage) SaveBackup(data []byte, filename string) (string, error) {
	dirPath := filepath.Join(s.config.BasePath, backupPrefix(time.Now()))

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	filePath := filepath.Join(dirPath, filename)

	// Check if file already exists and make unique if necessary
	counter := 1
	base, ext := splitExt(filename)
	for fileExists(filePath) {
		filePath = filepath.Join(dirPath, slug.MakeUnique(base, counter)+ext)
		counter++
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup file: %w", err)
	}

	// Return relative path from base storage directory
	relPath, err := filepath.Rel(s.config.BasePath, filePath)
	if err != nil {
		return "", fmt.Errorf("failed to get relative path: %w", err)
	}

	return relPath, nil
}

// ReadBackup reads a backup from the filesystem
func (s *Storage) ReadBackup(relPath string) ([]byte, error) {
	fullPath := filepath.Join(s.config.BasePath, relPath)

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup file: %w", err)
	}

	return data, nil
}

// DeleteBackup deletes a backup from the filesystem
func (s *Storage) DeleteBackup(relPath string) error {
	fullPath := filepath.Join(s.config.BasePath, relPath)

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete backup file: %w", err)
	}

	return nil
}

// backupPrefix returns the backups/YYYY/MM directory for a timestamp.
func backupPrefix(now time.Time) string {
	return filepath.Join("backups",
		fmt.Sprintf("%04d", now.Year()),
		fmt.Sprintf("%02d", int(now.Month())))
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// splitExt splits a filename into base name and extension.
func splitExt(filename string) (string, string) {
	ext := filepath.Ext(filename)
	return filename[:len(filename)-len(ext)], ext
}
