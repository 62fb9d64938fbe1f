package dataset

import (
	"encoding/json"
	"fmt"
)

// IDField is the reserved field holding the store-assigned identifier.
const IDField = "id"

// Fields maps field names to values. It never carries the reserved id.
type Fields map[string]Value

// FieldsFrom converts a plain map, as produced by encoding/json, into Fields.
func FieldsFrom(m map[string]any) (Fields, error) {
	if m == nil {
		return nil, nil
	}
	out := make(Fields, len(m))
	for k, raw := range m {
		v, err := FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// Clone returns a copy of the fields. Values are immutable, so a shallow copy suffices.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Record is one row of the dataset.
type Record struct {
	ID     int
	Fields Fields
}

// Get returns the value of a field. The reserved id is reported as a number;
// absent fields are Null.
func (r Record) Get(field string) Value {
	if field == IDField {
		return Int(r.ID)
	}
	return r.Fields[field]
}

// Has reports whether the field is present on the record.
func (r Record) Has(field string) bool {
	if field == IDField {
		return true
	}
	_, ok := r.Fields[field]
	return ok
}

// Label returns the record's display value for nameField, or fallback when the
// field is absent.
func (r Record) Label(nameField, fallback string) Value {
	if v, ok := r.Fields[nameField]; ok {
		return v
	}
	return String(fallback)
}

func (r Record) clone() Record {
	return Record{ID: r.ID, Fields: r.Fields.Clone()}
}

// MarshalJSON encodes the record as a flat object holding id and every field.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		out[k] = v
	}
	out[IDField] = r.ID
	return json.Marshal(out)
}

// UnmarshalJSON decodes a flat object. A missing id leaves ID at zero.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rec := Record{Fields: make(Fields, len(raw))}
	for k, msg := range raw {
		if k == IDField {
			if err := json.Unmarshal(msg, &rec.ID); err != nil {
				return fmt.Errorf("field %q: %w", IDField, err)
			}
			continue
		}
		var v Value
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
		rec.Fields[k] = v
	}
	*r = rec
	return nil
}
