package recipebox

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/zombar/recipebox/models"
)

// Config contains extraction service configuration.
type Config struct {
	HTTPTimeout   time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	MaxConcurrent int   // cap on concurrent fetches in batch extraction
	MaxBodyBytes  int64 // cap on fetched response body size
	UserAgent     string
}

// DefaultConfig returns default extraction configuration.
func DefaultConfig() Config {
	return Config{
		HTTPTimeout:   30 * time.Second,
		MaxRetries:    3,
		RetryDelay:    time.Second,
		MaxConcurrent: 5,
		MaxBodyBytes:  10 * 1024 * 1024, // 10MB max page size
		UserAgent:     "Mozilla/5.0 (compatible; RecipeBox/1.0)",
	}
}

// fetchHTML performs one HTTP fetch, enforcing the timeout, a text/html
// content type, and the configured user agent. Non-2xx responses are network
// failures; non-HTML bodies are parsing failures.
func (s *Service) fetchHTML(ctx context.Context, targetURL string) ([]byte, *models.IngestionError) {
	ctx, cancel := context.WithTimeout(ctx, s.config.HTTPTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", targetURL, nil)
	if err != nil {
		return nil, &models.IngestionError{
			Kind:    models.ErrorProcessing,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}
	req.Header.Set("User-Agent", s.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &models.IngestionError{
			Kind:    models.ErrorNetwork,
			Message: fmt.Sprintf("failed to fetch URL: %v", err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &models.IngestionError{
			Kind:    models.ErrorNetwork,
			Message: fmt.Sprintf("HTTP error: %d %s", resp.StatusCode, resp.Status),
			Details: map[string]any{"status_code": resp.StatusCode},
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml") {
		return nil, &models.IngestionError{
			Kind:    models.ErrorParsing,
			Message: fmt.Sprintf("unexpected content type %q", contentType),
			Details: map[string]any{"content_type": contentType},
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.config.MaxBodyBytes))
	if err != nil {
		return nil, &models.IngestionError{
			Kind:    models.ErrorNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
		}
	}
	return body, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
