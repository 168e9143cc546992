package tracking

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// AuditLog appends a human-readable block per upload run to the duplicates
// log, recording how many files were seen and which were skipped.
type AuditLog struct {
	path string
}

// NewAuditLog returns an AuditLog writing to path. The file is created on
// first Record.
func NewAuditLog(path string) *AuditLog {
	return &AuditLog{path: path}
}

// Record appends one run's summary block.
func (l *AuditLog) Record(at time.Time, fresh, duplicates []string) error {
	const op = "Record"

	var b strings.Builder
	fmt.Fprintf(&b, "\n=== %s ===\n", at.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Total files: %d\n", len(fresh)+len(duplicates))
	fmt.Fprintf(&b, "New uploads: %d\n", len(fresh))
	fmt.Fprintf(&b, "Duplicates skipped: %d\n", len(duplicates))

	if len(duplicates) > 0 {
		b.WriteString("DUPLICATES:\n")
		for _, name := range duplicates {
			fmt.Fprintf(&b, "  - %s\n", name)
		}
	}
	if len(fresh) > 0 {
		b.WriteString("NEW FILES:\n")
		for _, name := range fresh {
			fmt.Fprintf(&b, "  + %s\n", name)
		}
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("%s: failed to open %s: %w", op, l.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("%s: failed to append to %s: %w", op, l.path, err)
	}
	return nil
}
