package ocr

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"docflow/internal/logger"
)

// MaxDocumentSizeBytes is the synchronous processing limit shared by the
// Document AI and Vision APIs.
const MaxDocumentSizeBytes = 20 * 1024 * 1024

// mimeTypes maps supported scan extensions to the MIME type sent to the API.
var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".bmp":  "image/bmp",
}

// DocumentAISettings configures the Document AI engine.
type DocumentAISettings struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
	Timeout          time.Duration
}

// DocumentAIAnalyzer implements Analyzer using a Document AI custom processor.
type DocumentAIAnalyzer struct {
	client   *documentai.DocumentProcessorClient
	settings DocumentAISettings
	log      zerolog.Logger
}

// NewDocumentAIAnalyzer creates the Document AI engine with credentials from
// the environment.
func NewDocumentAIAnalyzer(ctx context.Context, settings DocumentAISettings) (*DocumentAIAnalyzer, error) {
	const op = "NewDocumentAIAnalyzer"

	if settings.ProcessorID == "" {
		return nil, WrapAnalysisError(op, ErrProcessorNotConfigured, "")
	}
	if settings.Location == "" {
		settings.Location = "eu"
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 60 * time.Second
	}

	var clientOptions []option.ClientOption
	if settings.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", settings.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	} else {
		return nil, WrapAnalysisError(op, ErrMissingCredentials, "no credentials found in environment")
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		return nil, WrapAnalysisError(op, err, fmt.Sprintf("failed to create Document AI client for location %s", settings.Location))
	}

	return &DocumentAIAnalyzer{
		client:   client,
		settings: settings,
		log:      logger.WithComponent("document-ai"),
	}, nil
}

// AnalyzeDocument sends one document through the configured processor and
// maps the returned entities to extracted fields.
func (a *DocumentAIAnalyzer) AnalyzeDocument(ctx context.Context, filename string, data io.Reader) (*Analysis, error) {
	const op = "AnalyzeDocument"

	mimeType, err := mimeTypeFor(filename)
	if err != nil {
		return nil, WrapAnalysisError(op, err, filename)
	}

	docBytes, err := io.ReadAll(data)
	if err != nil {
		return nil, WrapAnalysisError(op, err, "failed to read document data")
	}
	if len(docBytes) > MaxDocumentSizeBytes {
		return nil, WrapAnalysisError(op, ErrDocumentTooLarge, fmt.Sprintf("file size: %d bytes", len(docBytes)))
	}

	processCtx, cancel := context.WithTimeout(ctx, a.settings.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: a.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  docBytes,
				MimeType: mimeType,
			},
		},
	}

	resp, err := a.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, a.wrapAPIError(op, err)
	}
	if resp.Document == nil {
		return nil, WrapAnalysisError(op, ErrAnalysisFailed, "no document in response")
	}

	analysis := mapDocument(resp.Document)
	analysis.SourceFile = filepath.Base(filename)
	analysis.ModelID = a.settings.ProcessorID
	analysis.AnalyzedAt = time.Now()

	if len(analysis.ExtractedFields) == 0 && strings.TrimSpace(analysis.RawContent) == "" {
		return nil, WrapAnalysisError(op, ErrEmptyDocument, analysis.SourceFile)
	}

	a.log.Info().
		Str("file", analysis.SourceFile).
		Int("fields", len(analysis.ExtractedFields)).
		Int("pages", analysis.PageCount).
		Msg("Document analyzed")

	return analysis, nil
}

// processorName builds the fully qualified processor resource name.
func (a *DocumentAIAnalyzer) processorName() string {
	if a.settings.ProcessorVersion != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			a.settings.ProjectID, a.settings.Location, a.settings.ProcessorID, a.settings.ProcessorVersion)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		a.settings.ProjectID, a.settings.Location, a.settings.ProcessorID)
}

// wrapAPIError translates Document AI errors into package sentinels where the
// failure mode is recognizable.
func (a *DocumentAIAnalyzer) wrapAPIError(op string, err error) error {
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "NOT_FOUND"):
		return WrapAnalysisError(op, ErrAnalysisFailed, fmt.Sprintf("processor not found: %s", a.settings.ProcessorID))
	case strings.Contains(errStr, "INVALID_ARGUMENT"):
		return WrapAnalysisError(op, ErrUnsupportedFormat, "document rejected by the processor")
	case strings.Contains(errStr, "context deadline exceeded"):
		return WrapAnalysisError(op, context.DeadlineExceeded, "processing timeout")
	default:
		return WrapAnalysisError(op, ErrAnalysisFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// mapDocument converts a Document AI document into an Analysis. Entity types
// are the field names a custom extractor was trained with; normalized values
// are preferred over the raw mention text.
func mapDocument(doc *documentaipb.Document) *Analysis {
	analysis := &Analysis{
		Status:           StatusSuccess,
		ExtractedFields:  make(map[string]string),
		ConfidenceScores: make(map[string]float32),
		RawContent:       doc.Text,
		PageCount:        len(doc.Pages),
	}

	for _, entity := range doc.Entities {
		name := entity.Type
		if name == "" {
			continue
		}

		value := strings.TrimSpace(entity.MentionText)
		if entity.NormalizedValue != nil && entity.NormalizedValue.Text != "" {
			value = strings.TrimSpace(entity.NormalizedValue.Text)
		}
		if value == "" {
			continue
		}

		analysis.ExtractedFields[name] = value
		analysis.ConfidenceScores[name] = entity.Confidence
	}

	return analysis
}

// Close closes the underlying Document AI client.
func (a *DocumentAIAnalyzer) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

// mimeTypeFor resolves the MIME type from a filename extension.
func mimeTypeFor(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	mimeType, ok := mimeTypes[ext]
	if !ok {
		return "", ErrUnsupportedFormat
	}
	return mimeType, nil
}
