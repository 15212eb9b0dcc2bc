package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/msgraph-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
	"github.com/custodia-labs/msgraph-cli/internal/core/ports/driving"
	"github.com/custodia-labs/msgraph-cli/internal/logger"
	"github.com/custodia-labs/msgraph-cli/internal/odata/model"
)

// Ensure GraphService implements the interface.
var _ driving.GraphService = (*GraphService)(nil)

// GraphService issues Graph requests and types the responses through the
// schema registry. When a payload carries neither a discriminator nor a
// usable context URL, the type addressed by the resource path is used.
type GraphService struct {
	client  *microsoft.Client
	schemas driving.SchemaService
}

// NewGraphService creates a GraphService.
func NewGraphService(client *microsoft.Client, schemas driving.SchemaService) *GraphService {
	return &GraphService{client: client, schemas: schemas}
}

// List fetches a collection, following next links when all is set.
func (s *GraphService) List(ctx context.Context, resource string, opts domain.QueryOptions, all bool) (*driving.Result, error) {
	reg, err := s.schemas.Registry(ctx)
	if err != nil {
		return nil, err
	}
	fallback := resourceType(reg, resource)

	req := s.request(resource, opts)
	if !all {
		page, err := req.GetPage(ctx)
		if err != nil {
			return nil, err
		}
		records, err := page.Records(reg, fallback)
		if err != nil {
			return nil, err
		}
		return &driving.Result{
			Records:   records,
			NextLink:  page.NextLink,
			DeltaLink: page.DeltaLink,
			Count:     page.Count,
		}, nil
	}

	result := &driving.Result{}
	pages := 0
	err = req.Pages(ctx, func(page *microsoft.Page) error {
		pages++
		records, err := page.Records(reg, fallback)
		if err != nil {
			return fmt.Errorf("page %d: %w", pages, err)
		}
		result.Records = append(result.Records, records...)
		if result.Count == nil {
			result.Count = page.Count
		}
		result.DeltaLink = page.DeltaLink
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("listed %d records from %s in %d pages", len(result.Records), resource, pages)
	return result, nil
}

// Get fetches a single entity.
func (s *GraphService) Get(ctx context.Context, resource string, opts domain.QueryOptions) (*model.Record, error) {
	reg, err := s.schemas.Registry(ctx)
	if err != nil {
		return nil, err
	}

	env, err := s.request(resource, opts).Get(ctx)
	if err != nil {
		return nil, err
	}
	if env.Kind != microsoft.EnvelopeSingle {
		return nil, fmt.Errorf("%w: expected an entity, got %s", microsoft.ErrMalformedResponse, env.Kind)
	}
	return reg.ConstructAny(env.Object, env.Context, resourceType(reg, resource))
}

// Download streams media content to path. Resources of a stream-bearing
// type address their content through `$value`.
func (s *GraphService) Download(ctx context.Context, resource, path string) (int64, error) {
	reg, err := s.schemas.Registry(ctx)
	if err != nil {
		return 0, err
	}

	target := resource
	if !strings.HasSuffix(target, "/$value") && !strings.HasSuffix(target, "/content") {
		if d, collection, ok := reg.ResolveResource(resource); ok && !collection && d.HasStream {
			target = strings.TrimSuffix(target, "/") + "/$value"
		}
	}
	return s.client.Request(target).Download(ctx, path)
}

// Invoke calls a bound action.
func (s *GraphService) Invoke(ctx context.Context, resource, action string, params map[string]any) (*driving.Result, error) {
	reg, err := s.schemas.Registry(ctx)
	if err != nil {
		return nil, err
	}
	op, err := boundOperation(reg, resource, action, func(d *model.Descriptor) map[string]*domain.Operation {
		return d.Actions
	})
	if err != nil {
		return nil, err
	}

	env, err := s.client.InvokeAction(ctx, resource, op, params)
	if err != nil {
		return nil, err
	}
	return operationResult(reg, env, op)
}

// Call calls a bound function.
func (s *GraphService) Call(ctx context.Context, resource, function string, params map[string]any) (*driving.Result, error) {
	reg, err := s.schemas.Registry(ctx)
	if err != nil {
		return nil, err
	}
	op, err := boundOperation(reg, resource, function, func(d *model.Descriptor) map[string]*domain.Operation {
		return d.Functions
	})
	if err != nil {
		return nil, err
	}

	env, err := s.client.CallFunction(ctx, resource, op, params)
	if err != nil {
		return nil, err
	}
	return operationResult(reg, env, op)
}

func (s *GraphService) request(resource string, opts domain.QueryOptions) *microsoft.Request {
	req := s.client.Request(resource).Query(opts)
	// Advanced directory queries require eventual consistency.
	if opts.Count || opts.Search != "" {
		req.Header("ConsistencyLevel", "eventual")
	}
	return req
}

// resourceType names the type addressed by resource, or "" if the path
// cannot be walked.
func resourceType(reg *model.Registry, resource string) string {
	d, _, ok := reg.ResolveResource(resource)
	if !ok {
		logger.Debug("no schema type for resource %s", resource)
		return ""
	}
	return d.Name
}

func boundOperation(
	reg *model.Registry, resource, name string, ops func(*model.Descriptor) map[string]*domain.Operation,
) (*domain.Operation, error) {
	d, collection, ok := reg.ResolveResource(resource)
	if !ok {
		return nil, fmt.Errorf("resource %s: %w", resource, domain.ErrNotFound)
	}
	op, ok := ops(d)[name]
	if !ok {
		return nil, fmt.Errorf("operation %s on %s: %w", name, d.Name, domain.ErrNotFound)
	}
	if op.BoundToCollection != collection {
		return nil, fmt.Errorf("operation %s on %s is bound to a %s: %w",
			name, d.Name, bindingTarget(op.BoundToCollection), domain.ErrInvalidInput)
	}
	return op, nil
}

func bindingTarget(collection bool) string {
	if collection {
		return "collection"
	}
	return "single entity"
}

// operationResult types an operation response by its declared return type.
// Primitive and enum results are returned as plain values.
func operationResult(reg *model.Registry, env *microsoft.Envelope, op *domain.Operation) (*driving.Result, error) {
	result := &driving.Result{}
	fallback := ""
	if op.ReturnType != nil && op.ReturnType.Category == domain.CategoryStructured {
		fallback = op.ReturnType.Name
	}

	switch env.Kind {
	case microsoft.EnvelopeEmpty:
		return result, nil

	case microsoft.EnvelopeCollection:
		result.NextLink = env.NextLink
		result.DeltaLink = env.DeltaLink
		result.Count = env.Count
		for i, item := range env.Items {
			obj, ok := item.(map[string]any)
			if !ok || (fallback == "" && op.ReturnType != nil) {
				result.Values = append(result.Values, item)
				continue
			}
			rec, err := reg.ConstructAny(obj, env.Context, fallback)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			result.Records = append(result.Records, rec)
		}
		return result, nil
	}

	if fallback == "" && op.ReturnType != nil {
		// {"@odata.context": "...#Edm.String", "value": "..."}
		if v, ok := env.Object["value"]; ok {
			result.Values = append(result.Values, v)
			return result, nil
		}
	}
	rec, err := reg.ConstructAny(env.Object, env.Context, fallback)
	if err != nil {
		return nil, err
	}
	result.Records = append(result.Records, rec)
	return result, nil
}
