package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestNewS3Storage tests creating S3 storage with valid config
func TestNewS3Storage(t *testing.T) {
	config := S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		Bucket:          "test-bucket",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
	}

	ctx := context.Background()
	storage, err := NewS3Storage(ctx, config)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	if storage == nil {
		t.Fatal("Expected storage to be non-nil")
	}
}

// TestNewS3StorageMissingBucket tests error handling for missing bucket
func TestNewS3StorageMissingBucket(t *testing.T) {
	config := S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		Bucket:          "", // Missing bucket
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
	}

	ctx := context.Background()
	_, err := NewS3Storage(ctx, config)
	if err == nil {
		t.Fatal("Expected error for missing bucket, got nil")
	}
}

// TestNewS3StorageMissingRegion tests error handling for missing region
func TestNewS3StorageMissingRegion(t *testing.T) {
	config := S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "", // Missing region
		Bucket:          "test-bucket",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
	}

	ctx := context.Background()
	_, err := NewS3Storage(ctx, config)
	if err == nil {
		t.Fatal("Expected error for missing region, got nil")
	}
}

// TestNewS3StorageMissingCredentials tests error handling for missing credentials
func TestNewS3StorageMissingCredentials(t *testing.T) {
	config := S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		Bucket:          "test-bucket",
		AccessKeyID:     "", // Missing credentials
		SecretAccessKey: "",
		UsePathStyle:    true,
	}

	ctx := context.Background()
	_, err := NewS3Storage(ctx, config)
	if err == nil {
		t.Fatal("Expected error for missing credentials, got nil")
	}
}

func TestSaveBackupRoundTrip(t *testing.T) {
	store, err := New(Config{BasePath: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	payload := []byte(`{"version":"1.0.0","recipes":[]}`)
	key, err := store.SaveBackup(payload, "cookbook-backup-2026-09-01.json")
	if err != nil {
		t.Fatalf("SaveBackup failed: %v", err)
	}

	wantDir := backupPrefix(time.Now())
	if !strings.HasPrefix(key, wantDir+string(filepath.Separator)) {
		t.Errorf("key = %q, want under %q", key, wantDir)
	}

	got, err := store.ReadBackup(key)
	if err != nil {
		t.Fatalf("ReadBackup failed: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("round trip mismatch: %q", got)
	}

	if err := store.DeleteBackup(key); err != nil {
		t.Fatalf("DeleteBackup failed: %v", err)
	}
	if _, err := store.ReadBackup(key); err == nil {
		t.Error("ReadBackup succeeded after delete")
	}
}

func TestSaveBackupUniquesCollidingNames(t *testing.T) {
	store, err := New(Config{BasePath: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	first, err := store.SaveBackup([]byte("one"), "cookbook-backup-2026-09-01.json")
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.SaveBackup([]byte("two"), "cookbook-backup-2026-09-01.json")
	if err != nil {
		t.Fatal(err)
	}

	if first == second {
		t.Fatalf("colliding filenames produced same key %q", first)
	}
	if got, _ := store.ReadBackup(first); string(got) != "one" {
		t.Errorf("first backup = %q", got)
	}
	if got, _ := store.ReadBackup(second); string(got) != "two" {
		t.Errorf("second backup = %q", got)
	}
}
