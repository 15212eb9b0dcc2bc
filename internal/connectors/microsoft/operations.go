package microsoft

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
)

// InvokeAction posts a bound action to {resource}/{action} with params as
// the JSON body.
func (c *Client) InvokeAction(
	ctx context.Context, resource string, op *domain.Operation, params map[string]any,
) (*Envelope, error) {
	if err := validateParams(op, params); err != nil {
		return nil, err
	}
	var body any
	if len(params) > 0 {
		body = params
	}
	return c.Request(resource).child(op.Name).Post(ctx, body)
}

// CallFunction gets a bound function as {resource}/{function}(p='v',n=1).
// Structured and collection arguments are passed as parameter aliases.
func (c *Client) CallFunction(
	ctx context.Context, resource string, op *domain.Operation, params map[string]any,
) (*Envelope, error) {
	if err := validateParams(op, params); err != nil {
		return nil, err
	}
	segment, aliases, err := functionSegment(op, params)
	if err != nil {
		return nil, err
	}
	req := c.Request(resource).child(segment)
	for k, v := range aliases {
		req.Param(k, v)
	}
	return req.Get(ctx)
}

func validateParams(op *domain.Operation, params map[string]any) error {
	unknown := make([]string, 0)
	for name := range params {
		if _, ok := op.Parameter(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%s: unknown parameters %s: %w", op.Name, strings.Join(unknown, ", "), domain.ErrInvalidInput)
	}
	for _, p := range op.Parameters {
		if _, ok := params[p.Name]; !ok && !p.Type.Nullable {
			return fmt.Errorf("%s: missing required parameter %s: %w", op.Name, p.Name, domain.ErrInvalidInput)
		}
	}
	return nil
}

// functionSegment renders the function call path segment in declared
// parameter order and returns the alias values for the query string.
func functionSegment(op *domain.Operation, params map[string]any) (string, map[string]string, error) {
	parts := make([]string, 0, len(params))
	aliases := make(map[string]string)
	for _, p := range op.Parameters {
		v, ok := params[p.Name]
		if !ok {
			continue
		}
		if p.Type.Collection || p.Type.Category == domain.CategoryStructured {
			data, err := json.Marshal(v)
			if err != nil {
				return "", nil, fmt.Errorf("%s: encode %s: %w", op.Name, p.Name, err)
			}
			alias := "@" + p.Name
			aliases[alias] = string(data)
			parts = append(parts, p.Name+"="+alias)
			continue
		}
		parts = append(parts, p.Name+"="+literal(p.Type.Category, v))
	}
	return op.Name + "(" + strings.Join(parts, ",") + ")", aliases, nil
}

// literal renders a primitive value in OData URL literal syntax.
func literal(category domain.Category, v any) string {
	if v == nil {
		return "null"
	}
	if t, ok := v.(time.Time); ok {
		if category == domain.CategoryDate {
			return t.Format(time.DateOnly)
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	s := fmt.Sprint(v)
	switch category {
	case domain.CategoryText, domain.CategoryEnum:
		return "'" + url.PathEscape(strings.ReplaceAll(s, "'", "''")) + "'"
	case domain.CategoryDuration:
		return "duration'" + url.PathEscape(s) + "'"
	case domain.CategoryBinary:
		return "binary'" + url.PathEscape(s) + "'"
	}
	return url.PathEscape(s)
}
