package ocr

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"docflow/internal/logger"
)

// VisionModelID is recorded in results produced by the Vision engine.
const VisionModelID = "vision-document-text-detection"

// VisionAnalyzer implements Analyzer using Cloud Vision document text
// detection. It extracts the raw text only; use the Document AI engine for
// named fields.
type VisionAnalyzer struct {
	client *vision.ImageAnnotatorClient
	log    zerolog.Logger
}

// NewVisionAnalyzer creates the Vision engine with credentials from the
// environment.
func NewVisionAnalyzer(ctx context.Context) (*VisionAnalyzer, error) {
	const op = "NewVisionAnalyzer"

	var clientOptions []option.ClientOption
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	} else {
		return nil, WrapAnalysisError(op, ErrMissingCredentials, "no credentials found in environment")
	}

	client, err := vision.NewImageAnnotatorClient(ctx, clientOptions...)
	if err != nil {
		return nil, WrapAnalysisError(op, err, "failed to create Vision client")
	}

	return &VisionAnalyzer{
		client: client,
		log:    logger.WithComponent("vision"),
	}, nil
}

// AnalyzeDocument runs document text detection on one file. PDFs and TIFFs go
// through the file annotation API; plain images through image annotation.
func (v *VisionAnalyzer) AnalyzeDocument(ctx context.Context, filename string, data io.Reader) (*Analysis, error) {
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

	var text string
	var confidence float32
	var pages int

	switch mimeType {
	case "application/pdf", "image/tiff":
		text, confidence, pages, err = v.annotateFile(ctx, docBytes, mimeType)
	default:
		text, confidence, err = v.annotateImage(ctx, docBytes)
		pages = 1
	}
	if err != nil {
		return nil, WrapAnalysisError(op, err, filepath.Base(filename))
	}

	if strings.TrimSpace(text) == "" {
		return nil, WrapAnalysisError(op, ErrEmptyDocument, filepath.Base(filename))
	}

	analysis := &Analysis{
		SourceFile:       filepath.Base(filename),
		Status:           StatusSuccess,
		ModelID:          VisionModelID,
		ExtractedFields:  make(map[string]string),
		ConfidenceScores: map[string]float32{"text": confidence},
		RawContent:       text,
		PageCount:        pages,
		AnalyzedAt:       time.Now(),
	}

	v.log.Info().
		Str("file", analysis.SourceFile).
		Int("pages", pages).
		Float32("confidence", confidence).
		Int("text_length", len(text)).
		Msg("Document analyzed")

	return analysis, nil
}

// annotateFile processes multi-page formats through the file annotation API.
func (v *VisionAnalyzer) annotateFile(ctx context.Context, content []byte, mimeType string) (string, float32, int, error) {
	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  content,
					MimeType: mimeType,
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	if len(resp.Responses) == 0 {
		return "", 0, 0, fmt.Errorf("%w: no response from Vision API", ErrAnalysisFailed)
	}

	fileResp := resp.Responses[0]
	if fileResp.Error != nil {
		return "", 0, 0, fmt.Errorf("%w: %s", ErrAnalysisFailed, fileResp.Error.Message)
	}

	var text strings.Builder
	var confidenceSum float32
	var confidenceCount int

	for pageIdx, page := range fileResp.Responses {
		if page.Error != nil {
			return "", 0, 0, fmt.Errorf("%w: page %d: %s", ErrAnalysisFailed, pageIdx+1, page.Error.Message)
		}
		if page.FullTextAnnotation == nil {
			continue
		}
		if pageIdx > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(page.FullTextAnnotation.Text)

		for _, pageInfo := range page.FullTextAnnotation.Pages {
			if pageInfo.Confidence > 0 {
				confidenceSum += pageInfo.Confidence
				confidenceCount++
			}
		}
	}

	var avg float32
	if confidenceCount > 0 {
		avg = confidenceSum / float32(confidenceCount)
	}
	return text.String(), avg, len(fileResp.Responses), nil
}

// annotateImage processes single-image formats.
func (v *VisionAnalyzer) annotateImage(ctx context.Context, content []byte) (string, float32, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: content},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	if len(resp.Responses) == 0 {
		return "", 0, fmt.Errorf("%w: no response from Vision API", ErrAnalysisFailed)
	}

	imgResp := resp.Responses[0]
	if imgResp.Error != nil {
		return "", 0, fmt.Errorf("%w: %s", ErrAnalysisFailed, imgResp.Error.Message)
	}
	if imgResp.FullTextAnnotation == nil {
		return "", 0, nil
	}

	var confidence float32
	if len(imgResp.FullTextAnnotation.Pages) > 0 {
		confidence = imgResp.FullTextAnnotation.Pages[0].Confidence
	}
	return imgResp.FullTextAnnotation.Text, confidence, nil
}

// Close closes the underlying Vision client.
func (v *VisionAnalyzer) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}
