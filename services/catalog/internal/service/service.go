// Package service implements the catalog write operations and single-item
// reads. Every reference accepted here may be native or legacy; legacy ones
// are copied into the primary store through the resolver before use.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/game-store/services/catalog/internal/cache"
	"github.com/example/game-store/services/catalog/internal/legacy"
	"github.com/example/game-store/services/catalog/internal/resolver"
	"github.com/example/game-store/services/catalog/internal/store"
	"github.com/example/game-store/services/catalog/internal/validation"
)

// Legacy is the part of the legacy document store the write path touches.
type Legacy interface {
	GetProduct(ctx context.Context, id int64) (legacy.Product, error)
	ListCategories(ctx context.Context) ([]legacy.Category, error)
	ListSuppliers(ctx context.Context) ([]legacy.Supplier, error)
	SoftDeleteProduct(ctx context.Context, id int64) error
}

type Service struct {
	Store    store.Store
	Legacy   Legacy
	Resolver *resolver.Resolver
	Cache    cache.QueryCache
	Validate *validation.Validator
	Log      *zap.Logger

	NewID func() uuid.UUID
	Now   func() time.Time
}

// New also points res.OnCopy at the query cache unless the caller set it,
// so lazy copies made through any surface sharing res evict listings.
func New(st store.Store, legacyStore Legacy, res *resolver.Resolver, c cache.QueryCache, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		Store:    st,
		Legacy:   legacyStore,
		Resolver: res,
		Cache:    c,
		Validate: validation.New(),
		Log:      log,
		NewID:    uuid.New,
		Now:      time.Now,
	}
	if res != nil && res.OnCopy == nil {
		res.OnCopy = func(ctx context.Context, entity string, _ uuid.UUID) {
			s.evict(ctx, "copy "+entity)
		}
	}
	return s
}

// evict drops every cached listing. Any write can change any filtered set,
// so there is no narrower eviction. Failures are logged; cached entries
// still expire by TTL.
func (s *Service) evict(ctx context.Context, op string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.EvictAll(context.WithoutCancel(ctx)); err != nil {
		s.Log.Warn("query cache eviction failed", zap.String("op", op), zap.Error(err))
	}
}
