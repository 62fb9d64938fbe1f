package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Open builds a store and loads it from cfg.Source. A missing or unreadable
// source is logged and leaves the store empty.
func Open(cfg Config, opts ...Option) *Store {
	s := New(cfg, opts...)
	if err := s.LoadFile(s.cfg.Source); err != nil {
		s.log.Warn("dataset unavailable, starting empty", "source", s.cfg.Source, "error", err)
		return s
	}
	s.log.Info("dataset loaded", "source", s.cfg.Source, "records", s.Len())
	return s
}

// LoadFile replaces the store contents with the CSV file at path.
func (s *Store) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer f.Close()
	return s.Load(f)
}

// Load replaces the store contents with the CSV rows read from r. The first
// row names the fields; ids are assigned 0..N-1 in row order. On error the
// store is left unchanged.
func (s *Store) Load(r io.Reader) error {
	rows, err := readCSV(r, s.cfg.Comma)
	if err != nil {
		return err
	}
	s.replace(rows)
	return nil
}

func readCSV(r io.Reader, comma rune) ([]Fields, error) {
	csvr := csv.NewReader(r)
	csvr.Comma = comma
	csvr.LazyQuotes = true
	csvr.FieldsPerRecord = -1
	lines, err := csvr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if len(lines) == 0 {
		return nil, nil
	}

	header := lines[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	rows := make([]Fields, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if len(line) == 1 && strings.TrimSpace(line[0]) == "" && len(header) > 1 {
			continue
		}
		f := make(Fields, len(header))
		for i, name := range header {
			if name == IDField {
				continue
			}
			if i < len(line) {
				f[name] = cellValue(line[i])
			} else {
				f[name] = Null()
			}
		}
		rows = append(rows, f)
	}
	return rows, nil
}

func checkHeader(header []string) error {
	seen := make(map[string]struct{}, len(header))
	for _, name := range header {
		if name == "" {
			return fmt.Errorf("%w: blank column name in header", ErrSourceUnavailable)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate column %q", ErrSourceUnavailable, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
