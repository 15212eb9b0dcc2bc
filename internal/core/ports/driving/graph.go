package driving

import (
	"context"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
	"github.com/custodia-labs/msgraph-cli/internal/odata/model"
)

// SchemaService provides the synthesized model of the service schema.
type SchemaService interface {
	// Registry returns the model registry, loading the schema on first use.
	// Concurrent first callers share one load. A failed load is returned to
	// every waiter and attempted again on the next call.
	Registry(ctx context.Context) (*model.Registry, error)
}

// Result is the outcome of a Graph call.
type Result struct {
	// Records holds the typed entities or complex values returned.
	Records []*model.Record
	// Values holds primitive results, e.g. from a function returning
	// Collection(Edm.String).
	Values []any

	NextLink  string
	DeltaLink string
	Count     *int64
}

// GraphService issues typed requests against the Graph API.
type GraphService interface {
	// List fetches a collection. With all set, next links are followed
	// until the collection is exhausted.
	List(ctx context.Context, resource string, opts domain.QueryOptions, all bool) (*Result, error)

	// Get fetches a single entity.
	Get(ctx context.Context, resource string, opts domain.QueryOptions) (*model.Record, error)

	// Download streams the media content of a resource to path.
	Download(ctx context.Context, resource, path string) (int64, error)

	// Invoke calls the named bound action on resource.
	// Returns ErrNotFound if the resource type declares no such action.
	Invoke(ctx context.Context, resource, action string, params map[string]any) (*Result, error)

	// Call calls the named bound function on resource.
	// Returns ErrNotFound if the resource type declares no such function.
	Call(ctx context.Context, resource, function string, params map[string]any) (*Result, error)
}

// Account identifies the principal requests are made as.
type Account struct {
	ID          string
	DisplayName string
	Email       string
}

// AccountService reports the signed-in account.
type AccountService interface {
	// WhoAmI fetches the signed-in user's profile.
	WhoAmI(ctx context.Context) (*Account, error)
}
