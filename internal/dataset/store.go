package dataset

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Op names a store mutation.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event describes a committed mutation. Record is the stored record after an
// insert or update and the removed record after a delete.
type Event struct {
	Op     Op
	Record Record
	At     time.Time
}

// Observer receives events after the store lock is released.
type Observer func(Event)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used by the store.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithObserver registers an observer for mutation events.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithRecords seeds the store with rows. Ids are assigned 0..N-1 in order.
func WithRecords(rows ...Fields) Option {
	return func(s *Store) {
		s.records = s.records[:0]
		for i, f := range rows {
			s.records = append(s.records, Record{ID: i, Fields: withoutID(f)})
		}
	}
}

// Store is the in-memory ordered collection of records. It is safe for
// concurrent use; every returned record is a copy.
type Store struct {
	cfg       Config
	log       *slog.Logger
	observers []Observer

	mu      sync.RWMutex
	records []Record
}

// New returns an empty store. Use Load or Open to populate it from the source.
func New(cfg Config, opts ...Option) *Store {
	cfg.validate()
	s := &Store{cfg: cfg, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the store configuration with defaults applied.
func (s *Store) Config() Config { return s.cfg }

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// All returns every record in store order.
func (s *Store) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.records)
}

// Top returns the first n records; n is clamped to [0, Len()].
func (s *Store) Top(n int) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n = max(0, min(n, len(s.records)))
	return cloneAll(s.records[:n])
}

// FindByField returns every record whose field stringifies to value, ignoring case.
func (s *Store) FindByField(field, value string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, r := range s.records {
		if MatchText(r.Get(field), value) {
			out = append(out, r.clone())
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no record with %s %q", ErrNotFound, field, value)
	}
	return out, nil
}

// FindByName searches the configured name field.
func (s *Store) FindByName(value string) ([]Record, error) {
	return s.FindByField(s.cfg.NameField, value)
}

// FindByFilters returns the records matching every filter entry. An empty
// filter set is invalid input.
func (s *Store) FindByFilters(filters Fields) ([]Record, error) {
	if len(filters) == 0 {
		return nil, fmt.Errorf("%w: no filter provided", ErrInvalidInput)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	candidates := s.records
	for field, want := range filters {
		var narrowed []Record
		for _, r := range candidates {
			if r.Get(field).Matches(want) {
				narrowed = append(narrowed, r)
			}
		}
		candidates = narrowed
		if len(candidates) == 0 {
			break
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no record matches the filters", ErrNotFound)
	}
	return cloneAll(candidates), nil
}

// Insert appends a record with id max+1 (0 on an empty store). A caller
// supplied id is dropped after the emptiness check, so a body holding only
// an id still creates a record.
func (s *Store) Insert(fields Fields) (Record, error) {
	if len(fields) == 0 {
		return Record{}, fmt.Errorf("%w: record has no fields", ErrInvalidInput)
	}
	fields = withoutID(fields)
	s.mu.Lock()
	rec := Record{ID: s.nextID(), Fields: fields}
	s.records = append(s.records, rec)
	s.mu.Unlock()

	s.log.Debug("record inserted", "id", rec.ID)
	s.emit(OpInsert, rec)
	return rec.clone(), nil
}

// Update overwrites the given fields of record id in place. Fields not
// mentioned are untouched; new names are added; id is never changed.
func (s *Store) Update(id int, fields Fields) (Record, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Record{}, fmt.Errorf("%w: record %d", ErrNotFound, id)
	}
	rec := s.records[i].clone()
	if rec.Fields == nil {
		rec.Fields = make(Fields, len(fields))
	}
	for k, v := range fields {
		if k == IDField {
			continue
		}
		rec.Fields[k] = v
	}
	s.records[i] = rec
	s.mu.Unlock()

	s.log.Debug("record updated", "id", id, "fields", len(fields))
	s.emit(OpUpdate, rec)
	return rec.clone(), nil
}

// Delete removes record id and returns it.
func (s *Store) Delete(id int) (Record, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Record{}, fmt.Errorf("%w: record %d", ErrNotFound, id)
	}
	rec := s.records[i]
	s.records = append(s.records[:i], s.records[i+1:]...)
	s.mu.Unlock()

	s.log.Debug("record deleted", "id", id)
	s.emit(OpDelete, rec)
	return rec.clone(), nil
}

// Label returns the display value of a record using the configured name field.
func (s *Store) Label(r Record) Value {
	return r.Label(s.cfg.NameField, s.cfg.UnnamedLabel)
}

// replace swaps the whole collection, assigning ids 0..N-1.
func (s *Store) replace(rows []Fields) {
	records := make([]Record, len(rows))
	for i, f := range rows {
		records[i] = Record{ID: i, Fields: f}
	}
	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
}

// nextID must be called with mu held.
func (s *Store) nextID() int {
	if len(s.records) == 0 {
		return 0
	}
	top := s.records[0].ID
	for _, r := range s.records[1:] {
		top = max(top, r.ID)
	}
	return top + 1
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id int) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) emit(op Op, rec Record) {
	if len(s.observers) == 0 {
		return
	}
	ev := Event{Op: op, Record: rec.clone(), At: time.Now().UTC()}
	for _, o := range s.observers {
		o(ev)
	}
}

func cloneAll(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.clone()
	}
	return out
}

func withoutID(f Fields) Fields {
	out := f.Clone()
	delete(out, IDField)
	return out
}
