// ABOUTME: Table schemas used to coerce outbound payloads and validate writes
// ABOUTME: Drops empty fields, converts numbers and dates, reports per-field errors
package records

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Kind is the storage type of a field.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
	KindRef
	KindTime
	KindPicklist
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindFloat:
		return "number"
	case KindRef:
		return "reference"
	case KindTime:
		return "datetime"
	case KindPicklist:
		return "picklist"
	default:
		return "text"
	}
}

// Field describes one column of a table.
type Field struct {
	Name        string
	Label       string
	Kind        Kind
	Required    bool
	NonNegative bool
	Options     []string
}

// Schema describes a table.
type Schema struct {
	Table  string
	Fields []Field
}

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames lists every column, Id first.
func (s Schema) FieldNames() []string {
	names := make([]string, 0, len(s.Fields)+1)
	names = append(names, IDField)
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Registry maps table names to schemas.
type Registry map[string]Schema

// NewRegistry indexes the given schemas by table.
func NewRegistry(schemas ...Schema) Registry {
	reg := make(Registry, len(schemas))
	for _, s := range schemas {
		reg[s.Table] = s
	}
	return reg
}

// Lookup returns the schema for a table.
func (r Registry) Lookup(table string) (Schema, bool) {
	s, ok := r[table]
	return s, ok
}

// Tables lists registered tables in sorted order.
func (r Registry) Tables() []string {
	tables := make([]string, 0, len(r))
	for t := range r {
		tables = append(tables, t)
	}
	slices.Sort(tables)
	return tables
}

// Coerce returns a copy of rec with nil, empty-string and unknown fields removed
// and every remaining value converted to its field's kind. Values that cannot be
// converted are dropped and reported.
func (s Schema) Coerce(rec Record) (Record, []FieldError) {
	out := make(Record, len(rec))
	var errs []FieldError

	if raw, ok := rec[IDField]; ok && raw != nil {
		if id, ok := AsInt(raw); ok {
			out[IDField] = id
		} else {
			errs = append(errs, FieldError{FieldLabel: IDField, Message: "must be an integer"})
		}
	}

	for _, f := range s.Fields {
		raw, ok := rec[f.Name]
		if !ok || isEmpty(raw) {
			continue
		}
		v, err := coerceValue(f, raw)
		if err != nil {
			errs = append(errs, FieldError{FieldLabel: f.label(), Message: err.Error()})
			continue
		}
		out[f.Name] = v
	}
	return out, errs
}

// Validate checks a coerced record. Required fields are only enforced on create.
func (s Schema) Validate(rec Record, creating bool) []FieldError {
	var errs []FieldError
	for _, f := range s.Fields {
		v, present := rec[f.Name]
		if !present || isEmpty(v) {
			if creating && f.Required {
				errs = append(errs, FieldError{FieldLabel: f.label(), Message: "is required"})
			}
			continue
		}
		if _, err := coerceValue(f, v); err != nil {
			errs = append(errs, FieldError{FieldLabel: f.label(), Message: err.Error()})
		}
	}
	return errs
}

func (f Field) label() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

func isEmpty(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(s) == ""
	}
	return false
}

func coerceValue(f Field, raw any) (any, error) {
	switch f.Kind {
	case KindInt, KindRef:
		n, ok := AsInt(raw)
		if !ok {
			return nil, fmt.Errorf("must be an integer")
		}
		if (f.NonNegative || f.Kind == KindRef) && n < 0 {
			return nil, fmt.Errorf("must not be negative")
		}
		return n, nil
	case KindFloat:
		n, ok := AsFloat(raw)
		if !ok {
			return nil, fmt.Errorf("must be a number")
		}
		if f.NonNegative && n < 0 {
			return nil, fmt.Errorf("must not be negative")
		}
		return n, nil
	case KindTime:
		t, err := ParseTime(raw)
		if err != nil {
			return nil, err
		}
		return t.UTC().Format(time.RFC3339), nil
	case KindPicklist:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("must be text")
		}
		if !slices.Contains(f.Options, s) {
			return nil, fmt.Errorf("must be one of %s", strings.Join(f.Options, ", "))
		}
		return s, nil
	default:
		s, ok := raw.(string)
		if !ok {
			return fmt.Sprint(raw), nil
		}
		return s, nil
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime accepts time.Time values and the common ISO 8601 layouts.
func ParseTime(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return time.Time{}, fmt.Errorf("must be a date")
		}
		return *v, nil
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("must be a date")
}
