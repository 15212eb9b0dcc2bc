package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/msgraph-cli/internal/core/ports/driven"
	"github.com/custodia-labs/msgraph-cli/internal/core/ports/driving"
	"github.com/custodia-labs/msgraph-cli/internal/logger"
	"github.com/custodia-labs/msgraph-cli/internal/odata/csdl"
	"github.com/custodia-labs/msgraph-cli/internal/odata/model"
)

// Ensure SchemaService implements the interface.
var _ driving.SchemaService = (*SchemaService)(nil)

// SchemaService loads the CSDL metadata once and serves the resulting registry.
type SchemaService struct {
	source driven.MetadataSource
	group  singleflight.Group

	mu       sync.RWMutex
	registry *model.Registry
}

// NewSchemaService creates a schema service reading from source.
func NewSchemaService(source driven.MetadataSource) *SchemaService {
	return &SchemaService{source: source}
}

// Registry returns the loaded registry, loading it on first use.
// Errors are not cached.
func (s *SchemaService) Registry(ctx context.Context) (*model.Registry, error) {
	if reg := s.loaded(); reg != nil {
		return reg, nil
	}

	v, err, shared := s.group.Do("registry", func() (any, error) {
		if reg := s.loaded(); reg != nil {
			return reg, nil
		}
		// the load is shared; one caller giving up must not fail the rest
		reg, err := s.load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.registry = reg
		s.mu.Unlock()
		return reg, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("schema load shared between callers")
	}
	return v.(*model.Registry), nil
}

func (s *SchemaService) loaded() *model.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry
}

func (s *SchemaService) load(ctx context.Context) (*model.Registry, error) {
	start := time.Now()

	rc, err := s.source.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open metadata: %w", err)
	}
	defer rc.Close()

	schema, err := csdl.Parse(rc)
	if err != nil {
		return nil, err
	}
	reg, err := model.NewRegistry(schema)
	if err != nil {
		return nil, err
	}

	logger.Info("loaded %d schema types in %s", len(schema.Types), time.Since(start).Round(time.Millisecond))
	return reg, nil
}
