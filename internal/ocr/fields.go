package ocr

import (
	"sort"
	"strings"
)

// MapKeyFields resolves canonical field names against an analysis's extracted
// fields. For each canonical name the mapping lists keywords; the first
// extracted field whose name contains every keyword (case-insensitively)
// provides the value and confidence. A field sharing only some of the
// keywords never matches, so invoice_date cannot satisfy a mapping meant
// for invoice_number. Canonical names with no match are omitted.
func MapKeyFields(a *Analysis, mapping map[string][]string) map[string]KeyField {
	if len(mapping) == 0 || len(a.ExtractedFields) == 0 {
		return nil
	}

	// Sorted field names keep the resolution deterministic when several
	// extracted fields match the same keywords.
	fieldNames := make([]string, 0, len(a.ExtractedFields))
	for name := range a.ExtractedFields {
		fieldNames = append(fieldNames, name)
	}
	sort.Strings(fieldNames)

	keyFields := make(map[string]KeyField)
	for canonical, keywords := range mapping {
		if len(keywords) == 0 {
			continue
		}
		for _, fieldName := range fieldNames {
			if matchesAll(fieldName, keywords) {
				keyFields[canonical] = KeyField{
					Value:      a.ExtractedFields[fieldName],
					Confidence: a.ConfidenceScores[fieldName],
				}
				break
			}
		}
	}

	if len(keyFields) == 0 {
		return nil
	}
	return keyFields
}

func matchesAll(fieldName string, keywords []string) bool {
	lower := strings.ToLower(fieldName)
	for _, keyword := range keywords {
		if !strings.Contains(lower, strings.ToLower(keyword)) {
			return false
		}
	}
	return true
}
