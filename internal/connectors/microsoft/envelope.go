package microsoft

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// EnvelopeKind discriminates decoded response bodies.
type EnvelopeKind int

const (
	// EnvelopeEmpty is a response without a body, e.g. 204 No Content.
	EnvelopeEmpty EnvelopeKind = iota
	// EnvelopeSingle is one object (or a wrapped primitive value).
	EnvelopeSingle
	// EnvelopeCollection is a `value` array with paging annotations.
	EnvelopeCollection
)

func (k EnvelopeKind) String() string {
	switch k {
	case EnvelopeEmpty:
		return "empty"
	case EnvelopeSingle:
		return "single"
	case EnvelopeCollection:
		return "collection"
	}
	return fmt.Sprintf("EnvelopeKind(%d)", int(k))
}

// OData control annotations read from response bodies.
const (
	annotationContext   = "@odata.context"
	annotationNextLink  = "@odata.nextLink"
	annotationDeltaLink = "@odata.deltaLink"
	annotationCount     = "@odata.count"
)

// Envelope is a decoded OData JSON response body.
type Envelope struct {
	Kind EnvelopeKind
	// Context is the @odata.context URL, used for type resolution.
	Context string

	// Object is set for EnvelopeSingle.
	Object map[string]any

	// Items, NextLink, DeltaLink and Count are set for EnvelopeCollection.
	Items     []any
	NextLink  string
	DeltaLink string
	Count     *int64
}

// ParseEnvelope decodes a response body. Numbers are kept as json.Number
// so 64-bit integers survive intact.
func ParseEnvelope(body []byte) (*Envelope, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return &Envelope{Kind: EnvelopeEmpty}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: null body", ErrMalformedResponse)
	}

	env := &Envelope{Kind: EnvelopeSingle, Object: obj}
	env.Context, _ = obj[annotationContext].(string)

	// A single entity may itself declare an array property named "value";
	// its context then ends in /$entity.
	items, isArray := obj["value"].([]any)
	if !isArray || strings.HasSuffix(env.Context, "/$entity") {
		return env, nil
	}

	env.Kind = EnvelopeCollection
	env.Object = nil
	env.Items = items
	env.NextLink, _ = obj[annotationNextLink].(string)
	env.DeltaLink, _ = obj[annotationDeltaLink].(string)
	if n, ok := obj[annotationCount].(json.Number); ok {
		if count, err := n.Int64(); err == nil {
			env.Count = &count
		}
	}
	return env, nil
}

// Objects returns the collection items that are JSON objects.
func (e *Envelope) Objects() []map[string]any {
	out := make([]map[string]any, 0, len(e.Items))
	for _, item := range e.Items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}
