package microsoft

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/custodia-labs/msgraph-cli/internal/odata/model"
)

// Page is one page of a collection response.
type Page struct {
	Items     []any
	Context   string
	NextLink  string
	DeltaLink string
	Count     *int64

	client   *Client
	header   http.Header
	nextOnce sync.Once
	next     *Request
}

// GetPage fetches a collection page.
func (r *Request) GetPage(ctx context.Context) (*Page, error) {
	env, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}
	if env.Kind != EnvelopeCollection {
		return nil, fmt.Errorf("%w: expected a collection, got %s", ErrMalformedResponse, env.Kind)
	}
	return &Page{
		Items:     env.Items,
		Context:   env.Context,
		NextLink:  env.NextLink,
		DeltaLink: env.DeltaLink,
		Count:     env.Count,
		client:    r.client,
		header:    r.header.Clone(),
	}, nil
}

// HasNext reports whether another page follows.
func (p *Page) HasNext() bool {
	return p.NextLink != ""
}

// NextPageRequest returns the request for the following page, or nil on
// the last page. The request is built on first use.
func (p *Page) NextPageRequest() *Request {
	if !p.HasNext() {
		return nil
	}
	p.nextOnce.Do(func() {
		p.next = p.client.Request(p.NextLink)
		for k, v := range p.header {
			p.next.header[k] = v
		}
	})
	return p.next
}

// Next fetches the following page. It returns nil, nil on the last page.
func (p *Page) Next(ctx context.Context) (*Page, error) {
	req := p.NextPageRequest()
	if req == nil {
		return nil, nil
	}
	return req.GetPage(ctx)
}

// Records constructs every object item through the registry, using the
// page context and then fallback when an item has no discriminator.
func (p *Page) Records(reg *model.Registry, fallback string) ([]*model.Record, error) {
	out := make([]*model.Record, 0, len(p.Items))
	for i, item := range p.Items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: item %d is not an object", ErrMalformedResponse, i)
		}
		rec, err := reg.ConstructAny(obj, p.Context, fallback)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Pages calls fn for every page starting with this request, following
// next links until the last page or until fn returns an error.
func (r *Request) Pages(ctx context.Context, fn func(*Page) error) error {
	page, err := r.GetPage(ctx)
	for err == nil && page != nil {
		if err = fn(page); err != nil {
			return err
		}
		page, err = page.Next(ctx)
	}
	return err
}
