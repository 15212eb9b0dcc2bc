package model

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
)

// ErrFieldNotSet is returned by typed accessors when a declared field is
// absent from the record or null.
var ErrFieldNotSet = errors.New("model: field not set")

// AnnotationMarker identifies out-of-band annotation keys in JSON payloads,
// either as a prefix (`@odata.type`) or infix (`photo@odata.mediaEditLink`).
const AnnotationMarker = "@"

// TypeAnnotation is the per-object type discriminator.
const TypeAnnotation = "@odata.type"

// IsAnnotation reports whether a payload key is an annotation rather than a field.
func IsAnnotation(key string) bool {
	return strings.Contains(key, AnnotationMarker)
}

// Record is a value of one schema type: a descriptor plus the declared
// fields that were present in the payload it was built from.
type Record struct {
	desc        *Descriptor
	reg         *Registry
	fields      map[string]any
	annotations map[string]any
}

// New returns an empty record of the named type.
func (r *Registry) New(typeName string) (*Record, error) {
	d, err := r.structured(typeName)
	if err != nil {
		return nil, err
	}
	return &Record{desc: d, reg: r, fields: make(map[string]any), annotations: make(map[string]any)}, nil
}

// Construct builds a record of the named type from a decoded JSON object.
// Annotation keys are kept apart from fields. Keys the type does not
// declare, directly or through its base chain, are dropped.
func (r *Registry) Construct(typeName string, payload map[string]any) (*Record, error) {
	d, err := r.structured(typeName)
	if err != nil {
		return nil, err
	}
	return r.construct(d, payload), nil
}

func (r *Registry) construct(d *Descriptor, payload map[string]any) *Record {
	rec := &Record{
		desc:        d,
		reg:         r,
		fields:      make(map[string]any, len(payload)),
		annotations: make(map[string]any),
	}
	for k, v := range payload {
		if IsAnnotation(k) {
			rec.annotations[k] = v
			continue
		}
		if _, ok := d.Field(k); ok {
			rec.fields[k] = v
		}
	}
	return rec
}

func (r *Registry) structured(typeName string) (*Descriptor, error) {
	d, ok := r.Lookup(typeName)
	if !ok {
		return nil, fmt.Errorf("model: type %q: %w", typeName, domain.ErrNotFound)
	}
	if !d.IsStructured() {
		return nil, fmt.Errorf("model: type %q is not structured: %w", typeName, domain.ErrInvalidInput)
	}
	return d, nil
}

// Type returns the record's descriptor.
func (rec *Record) Type() *Descriptor {
	return rec.desc
}

// Is reports whether the record's type is name or derives from it.
func (rec *Record) Is(name string) bool {
	return rec.desc.Is(rec.reg.Canonical(name))
}

// Get returns the raw decoded value of a field.
func (rec *Record) Get(name string) (any, bool) {
	v, ok := rec.fields[name]
	return v, ok
}

// Has reports whether a field is present, including present-but-null.
func (rec *Record) Has(name string) bool {
	_, ok := rec.fields[name]
	return ok
}

// Fields lists the present fields in declaration order, structural
// properties before navigation properties.
func (rec *Record) Fields() []string {
	out := make([]string, 0, len(rec.fields))
	for _, p := range rec.desc.Properties {
		if _, ok := rec.fields[p.Name]; ok {
			out = append(out, p.Name)
		}
	}
	for _, p := range rec.desc.Navigation {
		if _, ok := rec.fields[p.Name]; ok {
			out = append(out, p.Name)
		}
	}
	return out
}

// Annotation returns a payload annotation such as `@odata.etag`.
func (rec *Record) Annotation(key string) (any, bool) {
	v, ok := rec.annotations[key]
	return v, ok
}

// ID returns the `id` field, or "" when the record has none.
func (rec *Record) ID() string {
	s, _ := rec.fields["id"].(string)
	return s
}

// Set assigns a declared field.
func (rec *Record) Set(name string, value any) error {
	if _, ok := rec.desc.Field(name); !ok {
		return fmt.Errorf("model: %s has no field %q: %w", rec.desc.Name, name, domain.ErrNotFound)
	}
	rec.fields[name] = value
	return nil
}

// MarshalJSON emits the fields, the annotations and an `@odata.type`
// discriminator naming the record's type.
func (rec *Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(rec.fields)+len(rec.annotations)+1)
	for k, v := range rec.annotations {
		out[k] = v
	}
	for k, v := range rec.fields {
		out[k] = v
	}
	out[TypeAnnotation] = "#" + rec.desc.QualifiedName()
	return json.Marshal(out)
}

func (rec *Record) value(name string) (any, error) {
	if _, ok := rec.desc.Field(name); !ok {
		return nil, fmt.Errorf("model: %s has no field %q: %w", rec.desc.Name, name, domain.ErrNotFound)
	}
	v, ok := rec.fields[name]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrFieldNotSet, rec.desc.Name, name)
	}
	return v, nil
}

func (rec *Record) mismatch(name, want string, v any) error {
	return fmt.Errorf("model: %s.%s: want %s, got %T: %w", rec.desc.Name, name, want, v, domain.ErrInvalidInput)
}

// String returns a text, enum or other string-encoded field.
func (rec *Record) String(name string) (string, error) {
	v, err := rec.value(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", rec.mismatch(name, "string", v)
	}
	return s, nil
}

// Int64 returns an integer field. Large integers sent as strings
// (IEEE754Compatible) are accepted.
func (rec *Record) Int64(name string) (int64, error) {
	v, err := rec.value(name)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		// 2^63 itself is representable as a float64 but not as an int64
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, rec.mismatch(name, "integer", v)
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, rec.mismatch(name, "integer", v)
		}
		return i, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, rec.mismatch(name, "integer", v)
		}
		return i, nil
	}
	return 0, rec.mismatch(name, "integer", v)
}

// Float64 returns a floating-point field. `NaN`, `INF` and `-INF` strings are accepted.
func (rec *Record) Float64(name string) (float64, error) {
	v, err := rec.value(name)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, rec.mismatch(name, "number", v)
		}
		return f, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, rec.mismatch(name, "number", v)
		}
		return f, nil
	}
	return 0, rec.mismatch(name, "number", v)
}

// Bool returns a boolean field.
func (rec *Record) Bool(name string) (bool, error) {
	v, err := rec.value(name)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, rec.mismatch(name, "boolean", v)
	}
	return b, nil
}

// Time returns an Edm.DateTimeOffset field.
func (rec *Record) Time(name string) (time.Time, error) {
	s, err := rec.String(name)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("model: %s.%s: %w", rec.desc.Name, name, err)
	}
	return t, nil
}

// Date returns an Edm.Date field as midnight UTC.
func (rec *Record) Date(name string) (time.Time, error) {
	s, err := rec.String(name)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("model: %s.%s: %w", rec.desc.Name, name, err)
	}
	return t, nil
}

// Duration returns an Edm.Duration field.
func (rec *Record) Duration(name string) (time.Duration, error) {
	s, err := rec.String(name)
	if err != nil {
		return 0, err
	}
	d, err := ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("model: %s.%s: %w", rec.desc.Name, name, err)
	}
	return d, nil
}

// Bytes returns a base64-encoded Edm.Binary field.
func (rec *Record) Bytes(name string) ([]byte, error) {
	s, err := rec.String(name)
	if err != nil {
		return nil, err
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("model: %s.%s: %w", rec.desc.Name, name, err)
	}
	return b, nil
}

// Strings returns a collection of strings.
func (rec *Record) Strings(name string) ([]string, error) {
	v, err := rec.value(name)
	if err != nil {
		return nil, err
	}
	switch items := v.(type) {
	case []string:
		return items, nil
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, rec.mismatch(name, "string collection", v)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, rec.mismatch(name, "string collection", v)
}

// Nested constructs a single-valued structured or navigation field. The
// nested object's own discriminator wins over the declared type.
func (rec *Record) Nested(name string) (*Record, error) {
	p, err := rec.structuredField(name, false)
	if err != nil {
		return nil, err
	}
	v, err := rec.value(name)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, rec.mismatch(name, "object", v)
	}
	return rec.reg.nested(p.Type.Name, obj)
}

// NestedList constructs a collection-valued structured or navigation field.
func (rec *Record) NestedList(name string) ([]*Record, error) {
	p, err := rec.structuredField(name, true)
	if err != nil {
		return nil, err
	}
	v, err := rec.value(name)
	if err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, rec.mismatch(name, "array", v)
	}
	out := make([]*Record, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, rec.mismatch(fmt.Sprintf("%s[%d]", name, i), "object", item)
		}
		nested, err := rec.reg.nested(p.Type.Name, obj)
		if err != nil {
			return nil, err
		}
		out = append(out, nested)
	}
	return out, nil
}

func (rec *Record) structuredField(name string, collection bool) (domain.Property, error) {
	p, ok := rec.desc.Field(name)
	if !ok {
		return p, fmt.Errorf("model: %s has no field %q: %w", rec.desc.Name, name, domain.ErrNotFound)
	}
	if p.Type.Category != domain.CategoryStructured || p.Type.Collection != collection {
		return p, fmt.Errorf("model: %s.%s is %s: %w", rec.desc.Name, name, p.Type, domain.ErrInvalidInput)
	}
	return p, nil
}

func (r *Registry) nested(declared string, obj map[string]any) (*Record, error) {
	base, ok := r.types[declared]
	if !ok {
		return nil, fmt.Errorf("model: type %q: %w", declared, domain.ErrNotFound)
	}
	d := base
	if disc, ok := obj[TypeAnnotation].(string); ok && disc != "" {
		sub, err := r.discriminated(disc)
		if err != nil {
			return nil, err
		}
		if !sub.Is(base.Name) {
			return nil, &domain.TypeResolutionError{Discriminator: disc, Reason: "not derived from " + base.Name}
		}
		d = sub
	}
	return r.construct(d, obj), nil
}
