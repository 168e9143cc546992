package ocr

import "testing"

func TestMapKeyFields(t *testing.T) {
	analysis := &Analysis{
		ExtractedFields: map[string]string{
			"invoice_number": "2024-001",
			"invoice_date":   "2024-03-15",
			"total_amount":   "119.00",
			"net_amount":     "100.00",
		},
		ConfidenceScores: map[string]float32{
			"invoice_number": 0.98,
			"invoice_date":   0.95,
			"total_amount":   0.91,
			"net_amount":     0.90,
		},
	}

	mapping := map[string][]string{
		"Rechnungsnummer": {"invoice", "number"},
		"Datum":           {"date"},
		"Bruttobetrag":    {"total"},
		"Steuersatz":      {"tax", "rate"},
	}

	keyFields := MapKeyFields(analysis, mapping)

	if got := keyFields["Rechnungsnummer"].Value; got != "2024-001" {
		t.Errorf("Rechnungsnummer = %q, want 2024-001", got)
	}
	if got := keyFields["Datum"].Value; got != "2024-03-15" {
		t.Errorf("Datum = %q, want 2024-03-15", got)
	}
	if got := keyFields["Bruttobetrag"].Confidence; got != 0.91 {
		t.Errorf("Bruttobetrag confidence = %v, want 0.91", got)
	}
	// No extracted field matches both "tax" and "rate".
	if _, ok := keyFields["Steuersatz"]; ok {
		t.Error("Steuersatz resolved but no field should match")
	}
}

func TestMapKeyFieldsDeterministicWithTies(t *testing.T) {
	analysis := &Analysis{
		ExtractedFields: map[string]string{
			"amount_gross": "119.00",
			"amount_net":   "100.00",
		},
		ConfidenceScores: map[string]float32{
			"amount_gross": 0.9,
			"amount_net":   0.8,
		},
	}
	mapping := map[string][]string{"Betrag": {"amount"}}

	// Both fields match; the alphabetically first one must win every run.
	for i := 0; i < 10; i++ {
		keyFields := MapKeyFields(analysis, mapping)
		if got := keyFields["Betrag"].Value; got != "119.00" {
			t.Fatalf("run %d: Betrag = %q, want 119.00 from amount_gross", i, got)
		}
	}
}

func TestMapKeyFieldsNoMatches(t *testing.T) {
	analysis := &Analysis{
		ExtractedFields: map[string]string{"vendor": "ACME"},
	}
	if got := MapKeyFields(analysis, map[string][]string{"IBAN": {"iban"}}); got != nil {
		t.Errorf("MapKeyFields() = %v, want nil when nothing matches", got)
	}
	if got := MapKeyFields(analysis, nil); got != nil {
		t.Errorf("MapKeyFields() = %v, want nil for empty mapping", got)
	}
}
