package query

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/example/game-store/services/catalog/internal/domain"
	"github.com/example/game-store/services/catalog/internal/legacy"
	"github.com/example/game-store/services/catalog/internal/store"
)

// countingPrimary counts how often a listing asks the primary store for a
// query handle.
type countingPrimary struct {
	*store.Memory
	calls atomic.Int32
}

func (c *countingPrimary) Games() store.GameQuery {
	c.calls.Add(1)
	return c.Memory.Games()
}

type countingLegacy struct {
	*legacy.Store
	calls atomic.Int32
}

func (c *countingLegacy) Products() legacy.ProductQuery {
	c.calls.Add(1)
	return c.Store.Products()
}

// catalogFixture is the dataset used across the listing tests:
//
//	primary A(10, "Game A", G1, P1), B(20, "Game B", G1, P1), C(40, "G!me C", G2, P2)
//	legacy  L(15, "Product 1", category C1, supplier S1)
type catalogFixture struct {
	primary *countingPrimary
	legacy  *countingLegacy
	g1, g2  uuid.UUID
	a, b, c uuid.UUID
	now     time.Time
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mem := store.NewMemory()
	p1 := domain.Publisher{ID: uuid.New(), CompanyName: "P1"}
	p2 := domain.Publisher{ID: uuid.New(), CompanyName: "P2"}
	require.NoError(t, mem.CreatePublisher(ctx, p1))
	require.NoError(t, mem.CreatePublisher(ctx, p2))

	f := &catalogFixture{g1: uuid.New(), g2: uuid.New(), a: uuid.New(), b: uuid.New(), c: uuid.New(), now: now}
	require.NoError(t, mem.CreateGenre(ctx, domain.Genre{ID: f.g1, Name: "G1"}))
	require.NoError(t, mem.CreateGenre(ctx, domain.Genre{ID: f.g2, Name: "G2"}))
	for _, g := range []store.Game{
		{ID: f.a, Key: "game-a", Name: "Game A", Price: 10, GenreIDs: []uuid.UUID{f.g1}, PublisherID: &p1.ID, CreatedAt: now.AddDate(0, 0, -3), Views: 5, CommentCount: 1},
		{ID: f.b, Key: "game-b", Name: "Game B", Price: 20, GenreIDs: []uuid.UUID{f.g1}, PublisherID: &p1.ID, CreatedAt: now.AddDate(0, -6, 0), Views: 50, CommentCount: 7},
		{ID: f.c, Key: "g-me-c", Name: "G!me C", Price: 40, GenreIDs: []uuid.UUID{f.g2}, PublisherID: &p2.ID, CreatedAt: now.AddDate(-2, -6, 0), Views: 20, CommentCount: 3},
	} {
		require.NoError(t, mem.CreateGame(ctx, g))
	}

	ls, err := legacy.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ls.Close() })
	require.NoError(t, ls.PutCategory(ctx, legacy.Category{CategoryID: 1, CategoryName: "C1"}))
	require.NoError(t, ls.PutSupplier(ctx, legacy.Supplier{SupplierID: 1, CompanyName: "S1"}))
	require.NoError(t, ls.PutProduct(ctx, legacy.Product{
		ProductID: 1, ProductName: "Product 1", UnitPrice: 15, CategoryID: 1, SupplierID: 1,
		AddedAt: now.AddDate(0, 0, -20), Views: 30,
	}))

	f.primary = &countingPrimary{Memory: mem}
	f.legacy = &countingLegacy{Store: ls}
	return f
}

func (f *catalogFixture) service() *Service {
	svc := NewService(f.primary, f.legacy, nil, time.Minute, nil)
	svc.Now = func() time.Time { return f.now }
	return svc
}

func (f *catalogFixture) adapterCalls() (int32, int32) {
	return f.primary.calls.Load(), f.legacy.calls.Load()
}

func price(v float64) *float64 { return &v }

func names(items []domain.CatalogItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func baseRequest() Request {
	return Request{
		Sort:      domain.SortPriceAsc,
		Page:      1,
		PageCount: domain.PageAll,
		Trigger:   domain.TriggerApplyFilters,
	}
}
