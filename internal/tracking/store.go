// Package tracking maintains the duplicate-avoidance state between upload
// runs: a flat file of already-uploaded analysis filenames and an append-only
// audit log of what each run skipped.
//
// The format is deliberately plain text, one filename per line, so the store
// stays inspectable and repairable with a text editor.
package tracking

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Store is the set of analysis filenames that were already uploaded.
type Store struct {
	path  string
	names map[string]struct{}
}

// OpenStore loads the store from path, creating an empty file when none
// exists yet.
func OpenStore(path string) (*Store, error) {
	const op = "OpenStore"

	s := &Store{path: path, names: make(map[string]struct{})}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open %s: %w", op, path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name != "" {
			s.names[name] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: failed to read %s: %w", op, path, err)
	}

	return s, nil
}

// Len returns the number of tracked filenames.
func (s *Store) Len() int { return len(s.names) }

// Contains reports whether name was already uploaded.
func (s *Store) Contains(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Add records name as uploaded, appending it to the backing file. Adding a
// name twice is a no-op.
func (s *Store) Add(name string) error {
	const op = "Add"

	if s.Contains(name) {
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("%s: failed to open %s: %w", op, s.path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, name); err != nil {
		return fmt.Errorf("%s: failed to append to %s: %w", op, s.path, err)
	}

	s.names[name] = struct{}{}
	return nil
}

// Partition splits names into those not yet uploaded and known duplicates,
// preserving order.
func (s *Store) Partition(names []string) (fresh, duplicates []string) {
	for _, name := range names {
		if s.Contains(name) {
			duplicates = append(duplicates, name)
		} else {
			fresh = append(fresh, name)
		}
	}
	return fresh, duplicates
}
