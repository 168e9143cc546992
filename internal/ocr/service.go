// Package ocr extracts structured data from scanned documents using Google
// Cloud services.
//
// Two engines implement the Analyzer interface:
//   - Document AI, driven by a trained custom processor (the "model"), returns
//     named fields with confidence scores.
//   - Cloud Vision document text detection returns the raw text only, for
//     operators who have not trained a processor yet.
//
// Required environment variables:
//   - GOOGLE_APPLICATION_CREDENTIALS: path to a service account JSON file, OR
//   - GOOGLE_CREDENTIALS: inline JSON credentials string
//
// Both engines accept PDF and common scan image formats and are subject to
// the APIs' 20MB synchronous processing limit.
package ocr

import (
	"context"
	"io"
	"time"
)

// Statuses recorded in analysis results.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Analyzer extracts text and fields from a single scanned document.
type Analyzer interface {
	// AnalyzeDocument processes one document. The filename is recorded in the
	// result and used to pick the MIME type.
	AnalyzeDocument(ctx context.Context, filename string, data io.Reader) (*Analysis, error)

	// Close releases the underlying API client.
	Close() error
}

// Analysis is the per-document result written to the output folder as
// <stem>_analysis.json and later uploaded to the spreadsheet.
type Analysis struct {
	// SourceFile is the analyzed file's base name.
	SourceFile string `json:"source_file"`

	// Status is StatusSuccess or StatusFailed.
	Status string `json:"status"`

	// Error holds the failure message when Status is StatusFailed.
	Error string `json:"error,omitempty"`

	// ModelID identifies the processor or engine that produced the result.
	ModelID string `json:"model_id,omitempty"`

	// ExtractedFields maps the processor's field names to their values.
	ExtractedFields map[string]string `json:"extracted_fields"`

	// ConfidenceScores holds per-field confidence (0.0 to 1.0).
	ConfidenceScores map[string]float32 `json:"confidence_scores"`

	// KeyFields are canonical fields resolved through the configured keyword
	// mapping. Optional.
	KeyFields map[string]KeyField `json:"key_fields,omitempty"`

	// RawContent is the full recognized text.
	RawContent string `json:"raw_content,omitempty"`

	// PageCount is the number of pages the engine reported.
	PageCount int `json:"page_count"`

	// AnalyzedAt is when the analysis completed.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// MovedToProcessed records whether the input file was moved to the
	// processed folder after analysis.
	MovedToProcessed bool `json:"moved_to_processed"`
}

// KeyField is a canonical field with the confidence of the extracted field it
// was resolved from.
type KeyField struct {
	Value      string  `json:"value"`
	Confidence float32 `json:"confidence"`
}
