package ocr

import (
	"errors"
	"fmt"
)

// Common analysis errors.
var (
	// ErrDocumentTooLarge is returned when the document exceeds the API's
	// synchronous processing limit (20MB).
	ErrDocumentTooLarge = errors.New("document exceeds the maximum size limit (20MB)")

	// ErrUnsupportedFormat is returned for file types the engine cannot send.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrMissingCredentials is returned when neither GOOGLE_APPLICATION_CREDENTIALS
	// nor GOOGLE_CREDENTIALS is configured.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS")

	// ErrProcessorNotConfigured is returned when the Document AI engine is
	// selected without a processor id.
	ErrProcessorNotConfigured = errors.New("DOCUMENT_AI_PROCESSOR_ID is not configured")

	// ErrAnalysisFailed is returned when the cloud API rejects or fails the
	// request.
	ErrAnalysisFailed = errors.New("document analysis failed")

	// ErrEmptyDocument is returned when no text or fields were recognized.
	ErrEmptyDocument = errors.New("document contains no recognizable content")
)

// AnalysisError wraps an error with the failed operation and extra context.
type AnalysisError struct {
	Op      string
	Err     error
	Details string
}

func (e *AnalysisError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

func (e *AnalysisError) Is(target error) bool { return errors.Is(e.Err, target) }

// WrapAnalysisError wraps err as an AnalysisError unless it already is one.
func WrapAnalysisError(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return err
	}
	return &AnalysisError{Op: op, Err: err, Details: details}
}
