package recipebox

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/zombar/recipebox/metrics"
	"github.com/zombar/recipebox/models"
)

// Service is the fetch orchestrator. It owns adapter registration order,
// issues network fetches, retries transient failures, and returns typed
// results.
type Service struct {
	config     Config
	httpClient *http.Client
	adapters   []SourceAdapter
	sleep      func(time.Duration)
}

// NewService creates an extraction service with the standard adapter chain.
func NewService(config Config) *Service {
	return &Service{
		config:     config,
		httpClient: newHTTPClient(config.HTTPTimeout),
		adapters:   NewAdapterChain(),
		sleep:      time.Sleep,
	}
}

// CanHandle reports whether any registered adapter accepts the URL.
func (s *Service) CanHandle(rawURL string) bool {
	for _, adapter := range s.adapters {
		if adapter.CanHandle(rawURL) {
			return true
		}
	}
	return false
}

// SupportedDomains returns the union of every adapter's domain list.
func (s *Service) SupportedDomains() []string {
	var domains []string
	seen := make(map[string]bool)
	for _, adapter := range s.adapters {
		for _, d := range adapter.SupportedDomains() {
			if !seen[d] {
				seen[d] = true
				domains = append(domains, d)
			}
		}
	}
	return domains
}

// ExtractRecipe validates the URL, dispatches to the first adapter that
// accepts it, and fetches with bounded retry. Only network failures are
// retried; parsing, validation, and unsupported outcomes are terminal.
// Backoff is linear: RetryDelay times the attempt number just failed.
func (s *Service) ExtractRecipe(ctx context.Context, rawURL string) *models.IngestionResult {
	start := time.Now()
	result := s.extractRecipe(ctx, rawURL)
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())

	sourceType := "unknown"
	kind := ""
	if result.Success {
		sourceType = string(result.Recipe.SourceType)
	} else if result.Error != nil {
		kind = string(result.Error.Kind)
	}
	metrics.ExtractionsTotal.WithLabelValues(sourceType, metrics.Outcome(result.Success, kind)).Inc()
	return result
}

func (s *Service) extractRecipe(ctx context.Context, rawURL string) *models.IngestionResult {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return models.Fail(models.ErrorUnsupported, "URL must be http or https")
	}

	var adapter SourceAdapter
	for _, a := range s.adapters {
		if a.CanHandle(rawURL) {
			adapter = a
			break
		}
	}
	if adapter == nil {
		return models.Fail(models.ErrorUnsupported, "no adapter handles this URL")
	}

	// A zero-value config must still attempt the fetch once.
	maxRetries := s.config.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr *models.IngestionError
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			s.sleep(s.config.RetryDelay * time.Duration(attempt-1))
			metrics.FetchRetriesTotal.Inc()
		}

		body, fetchErr := s.fetchHTML(ctx, rawURL)
		if fetchErr != nil {
			lastErr = fetchErr
			if fetchErr.Retryable() {
				continue
			}
			return &models.IngestionResult{Error: fetchErr}
		}

		result := adapter.Extract(ctx, rawURL, body)
		if result.Success || !result.Error.Retryable() {
			return result
		}
		lastErr = result.Error
	}

	return models.FailWithDetails(models.ErrorNetwork,
		fmt.Sprintf("extraction failed after %d attempts: %s", maxRetries, lastErr.Message),
		map[string]any{"attempts": maxRetries, "url": rawURL})
}

// BatchResult pairs a URL with its extraction outcome.
type BatchResult struct {
	URL    string                  `json:"url"`
	Result *models.IngestionResult `json:"result"`
}

// ExtractBatch extracts multiple URLs, at most MaxConcurrent in flight at a
// time. URLs are processed in chunks; a chunk completes fully before the
// next begins. Results preserve input order.
func (s *Service) ExtractBatch(ctx context.Context, urls []string) []BatchResult {
	results := make([]BatchResult, len(urls))

	chunkSize := s.config.MaxConcurrent
	if chunkSize < 1 {
		chunkSize = 1
	}

	for start := 0; start < len(urls); start += chunkSize {
		end := start + chunkSize
		if end > len(urls) {
			end = len(urls)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = BatchResult{URL: urls[i], Result: s.ExtractRecipe(ctx, urls[i])}
			}(i)
		}
		wg.Wait()
	}

	return results
}
