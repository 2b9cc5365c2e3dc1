// Package metrics exposes Prometheus collectors for the ingestion pipeline.
// Collectors register on the default registry; the API server serves them
// via promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExtractionsTotal counts extraction attempts by source type and outcome.
	// Outcome is "success" or the error kind.
	ExtractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipebox_extractions_total",
		Help: "Recipe extraction attempts by source type and outcome",
	}, []string{"source_type", "outcome"})

	// ExtractionDuration observes wall time of single-URL extractions.
	ExtractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recipebox_extraction_duration_seconds",
		Help:    "Wall time of single URL extractions",
		Buckets: prometheus.DefBuckets,
	})

	// FetchRetriesTotal counts network fetch retries across all extractions.
	FetchRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recipebox_fetch_retries_total",
		Help: "Network fetch retries",
	})

	// ImportItemsTotal counts import batch items by result
	// (imported, skipped, error).
	ImportItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipebox_import_items_total",
		Help: "Import batch items by result",
	}, []string{"result"})

	// DocumentSectionsTotal counts recipe sections found in uploaded
	// documents by disposition (kept, skipped).
	DocumentSectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipebox_document_sections_total",
		Help: "Document recipe sections by disposition",
	}, []string{"disposition"})
)

// Outcome converts a success flag and error kind into a label value.
func Outcome(success bool, kind string) string {
	if success {
		return "success"
	}
	if kind == "" {
		return "processing"
	}
	return kind
}
