package ocr

import (
	"errors"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
)

func TestMapDocument(t *testing.T) {
	doc := &documentaipb.Document{
		Text: "Invoice 2024-001\nTotal: 119.00 EUR",
		Pages: []*documentaipb.Document_Page{
			{PageNumber: 1},
			{PageNumber: 2},
		},
		Entities: []*documentaipb.Document_Entity{
			{
				Type:        "invoice_number",
				MentionText: "2024-001",
				Confidence:  0.98,
			},
			{
				Type:        "total_amount",
				MentionText: "119,00",
				NormalizedValue: &documentaipb.Document_Entity_NormalizedValue{
					Text: "119.00",
				},
				Confidence: 0.91,
			},
			{
				// Entities without a type carry no field name and are skipped.
				MentionText: "stray",
			},
			{
				Type:        "empty_value",
				MentionText: "   ",
			},
		},
	}

	analysis := mapDocument(doc)

	if analysis.Status != StatusSuccess {
		t.Errorf("Status = %q, want %q", analysis.Status, StatusSuccess)
	}
	if analysis.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", analysis.PageCount)
	}
	if analysis.RawContent != doc.Text {
		t.Errorf("RawContent = %q, want document text", analysis.RawContent)
	}
	if len(analysis.ExtractedFields) != 2 {
		t.Fatalf("extracted %d fields, want 2: %v", len(analysis.ExtractedFields), analysis.ExtractedFields)
	}
	if got := analysis.ExtractedFields["invoice_number"]; got != "2024-001" {
		t.Errorf("invoice_number = %q, want 2024-001", got)
	}
	// Normalized values win over the raw mention text.
	if got := analysis.ExtractedFields["total_amount"]; got != "119.00" {
		t.Errorf("total_amount = %q, want normalized 119.00", got)
	}
	if got := analysis.ConfidenceScores["total_amount"]; got != 0.91 {
		t.Errorf("total_amount confidence = %v, want 0.91", got)
	}
}

func TestMimeTypeFor(t *testing.T) {
	tests := []struct {
		filename string
		want     string
		wantErr  bool
	}{
		{"scan.pdf", "application/pdf", false},
		{"SCAN.PDF", "application/pdf", false},
		{"receipt.jpg", "image/jpeg", false},
		{"receipt.jpeg", "image/jpeg", false},
		{"page.tif", "image/tiff", false},
		{"notes.txt", "", true},
		{"noextension", "", true},
	}

	for _, tt := range tests {
		got, err := mimeTypeFor(tt.filename)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("mimeTypeFor(%q) error = %v, want ErrUnsupportedFormat", tt.filename, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("mimeTypeFor(%q) unexpected error: %v", tt.filename, err)
			continue
		}
		if got != tt.want {
			t.Errorf("mimeTypeFor(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestProcessorName(t *testing.T) {
	a := &DocumentAIAnalyzer{settings: DocumentAISettings{
		ProjectID:   "my-project",
		Location:    "eu",
		ProcessorID: "abc123",
	}}
	want := "projects/my-project/locations/eu/processors/abc123"
	if got := a.processorName(); got != want {
		t.Errorf("processorName() = %q, want %q", got, want)
	}

	a.settings.ProcessorVersion = "v2"
	want += "/processorVersions/v2"
	if got := a.processorName(); got != want {
		t.Errorf("processorName() with version = %q, want %q", got, want)
	}
}
