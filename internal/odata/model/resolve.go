package model

import (
	"strings"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
	"github.com/custodia-labs/msgraph-cli/internal/logger"
	"github.com/custodia-labs/msgraph-cli/internal/odata/csdl"
)

// ContextAnnotation carries the context URL of a response or object.
const ContextAnnotation = "@odata.context"

// Resolve picks the descriptor for a payload. The payload's own
// `@odata.type` wins; otherwise the context URL (the argument, or the
// payload's `@odata.context`) is walked; otherwise fallback is used.
func (r *Registry) Resolve(payload map[string]any, contextURL, fallback string) (*Descriptor, error) {
	if disc, ok := payload[TypeAnnotation].(string); ok && disc != "" {
		return r.discriminated(disc)
	}

	if contextURL == "" {
		contextURL, _ = payload[ContextAnnotation].(string)
	}
	if contextURL != "" {
		if d, ok := r.ResolveContext(contextURL); ok {
			return d, nil
		}
		logger.Debug("context %q does not name a structured type", contextURL)
	}

	if fallback != "" {
		d, ok := r.Lookup(fallback)
		if !ok || !d.IsStructured() {
			return nil, &domain.TypeResolutionError{Context: contextURL, Reason: "unknown fallback type " + fallback}
		}
		return d, nil
	}
	return nil, &domain.TypeResolutionError{Context: contextURL, Reason: "no discriminator, context or fallback type"}
}

// ConstructAny resolves the payload's type and constructs it.
func (r *Registry) ConstructAny(payload map[string]any, contextURL, fallback string) (*Record, error) {
	d, err := r.Resolve(payload, contextURL, fallback)
	if err != nil {
		return nil, err
	}
	return r.construct(d, payload), nil
}

func (r *Registry) discriminated(disc string) (*Descriptor, error) {
	d, ok := r.Lookup(disc)
	if !ok {
		return nil, &domain.TypeResolutionError{Discriminator: disc, Reason: "unknown type"}
	}
	if !d.IsStructured() {
		return nil, &domain.TypeResolutionError{Discriminator: disc, Reason: "not a structured type"}
	}
	return d, nil
}

// ResolveContext finds the structured type described by a context URL or
// resource path, e.g. `$metadata#users('id')/messages/$entity`,
// `$metadata#Collection(microsoft.graph.reminder)` or `me/manager`.
func (r *Registry) ResolveContext(contextURL string) (*Descriptor, bool) {
	d, _, ok := r.ResolveResource(contextURL)
	return d, ok
}

// ResolveResource walks a resource path or context URL and reports the
// structured type it addresses and whether it addresses a collection of
// that type. Key segments (`users/{id}`) are accepted after a collection.
func (r *Registry) ResolveResource(path string) (*Descriptor, bool, bool) {
	if i := strings.Index(path, "#"); i >= 0 {
		path = path[i+1:]
	} else if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}

	var (
		current    *Descriptor
		collection bool
	)
	for _, seg := range splitPath(path) {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, "$") {
			if seg == "$entity" {
				collection = false
			}
			continue
		}
		inner, wrapped := csdl.SplitCollection(seg)
		if wrapped {
			seg = inner
		}
		name, keyed := seg, false
		if i := strings.Index(name, "("); i >= 0 {
			name, keyed = name[:i], true
		}

		if current == nil {
			if d, ok := r.EntitySetType(name); ok {
				current, collection = d, !r.IsSingleton(name) && !keyed
				continue
			}
			d, ok := r.Lookup(name)
			if !ok || !d.IsStructured() {
				return nil, false, false
			}
			current, collection = d, wrapped
			continue
		}

		if p, ok := current.Field(name); ok {
			if p.Type.Category != domain.CategoryStructured {
				return nil, false, false
			}
			next, ok := r.types[p.Type.Name]
			if !ok {
				return nil, false, false
			}
			current, collection = next, p.Type.Collection && !keyed
			continue
		}
		// type cast segment
		if d, ok := r.Lookup(name); ok && d.IsStructured() {
			current = d
			continue
		}
		if collection && !keyed {
			collection = false
			continue
		}
		return nil, false, false
	}
	return current, collection, current != nil
}

// splitPath splits on '/' outside parentheses and quoted key values.
func splitPath(path string) []string {
	var (
		out    []string
		depth  int
		quoted bool
		start  int
	)
	for i := 0; i < len(path); i++ {
		switch c := path[i]; {
		case c == '\'':
			quoted = !quoted
		case quoted:
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == '/' && depth == 0:
			out = append(out, path[start:i])
			start = i + 1
		}
	}
	return append(out, path[start:])
}
