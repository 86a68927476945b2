package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/game-store/services/catalog/internal/cache"
	"github.com/example/game-store/services/catalog/internal/domain"
	"github.com/example/game-store/services/catalog/internal/legacy"
	"github.com/example/game-store/services/catalog/internal/resolver"
	"github.com/example/game-store/services/catalog/internal/store"
)

type fixture struct {
	svc    *Service
	store  *store.Memory
	legacy *legacy.Store
	cache  *cache.Memory
	rpg    domain.Genre
	pc     domain.Platform
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	ls, err := legacy.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ls.Close() })
	require.NoError(t, ls.PutCategory(ctx, legacy.Category{CategoryID: 1, CategoryName: "Beverages"}))
	require.NoError(t, ls.PutSupplier(ctx, legacy.Supplier{SupplierID: 1, CompanyName: "Exotic Liquids"}))
	require.NoError(t, ls.PutProduct(ctx, legacy.Product{
		ProductID: 5, ProductName: "Chai", UnitPrice: 18, UnitsInStock: 3,
		CategoryID: 1, SupplierID: 1, AddedAt: time.Now().UTC(),
	}))

	st := store.NewMemory()
	f := &fixture{
		store:  st,
		legacy: ls,
		cache:  cache.NewMemory(16, time.Minute),
		rpg:    domain.Genre{ID: uuid.New(), Name: "RPG"},
		pc:     domain.Platform{ID: uuid.New(), Type: "PC"},
	}
	require.NoError(t, st.CreateGenre(ctx, f.rpg))
	require.NoError(t, st.CreatePlatform(ctx, f.pc))
	f.svc = New(st, ls, resolver.New(st, ls, zap.NewNop()), f.cache, zap.NewNop())
	return f
}

// primeCache puts one entry in the query cache so eviction is observable.
func (f *fixture) primeCache(t *testing.T) {
	t.Helper()
	require.NoError(t, f.cache.Set(context.Background(), "fp", cache.Entry{}, time.Minute))
	require.Equal(t, 1, f.cache.Len())
}

func TestCreateGame_DerivesKeyAndEvicts(t *testing.T) {
	f := newFixture(t)
	f.primeCache(t)

	item, err := f.svc.CreateGame(context.Background(), GameInput{
		Name:      "  Baldur's Gate 3 ",
		Price:     59.99,
		Genres:    []string{f.rpg.ID.String(), "1"},
		Platforms: []string{f.pc.ID.String()},
		Publisher: "1",
	})
	require.NoError(t, err)
	assert.Equal(t, "baldur-s-gate-3", item.Key)
	assert.Equal(t, "Baldur's Gate 3", item.Name)
	assert.Equal(t, "Exotic Liquids", item.PublisherName)
	assert.Len(t, item.GenreIDs, 2)
	assert.Equal(t, 0, f.cache.Len())

	c, err := f.legacy.GetCategory(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, c.CopiedToPrimary)
}

func TestCreateGame_DuplicateKey(t *testing.T) {
	f := newFixture(t)
	in := GameInput{Name: "Doom", Genres: []string{f.rpg.ID.String()}}
	_, err := f.svc.CreateGame(context.Background(), in)
	require.NoError(t, err)

	_, err = f.svc.CreateGame(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
}

func TestCreateGame_ReportsAllInvalidGenres(t *testing.T) {
	f := newFixture(t)
	f.primeCache(t)
	missing := uuid.NewString()

	_, err := f.svc.CreateGame(context.Background(), GameInput{
		Name:   "Doom",
		Genres: []string{"x", missing, "77", f.rpg.ID.String()},
	})
	require.ErrorIs(t, err, domain.ErrIdsNotValid)
	e, _ := domain.AsError(err)
	assert.Equal(t, []string{"x", missing, "77"}, e.Details["ids"])
	assert.Equal(t, 1, f.cache.Len())
}

func TestCreateGame_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateGame(context.Background(), GameInput{Name: " ", Price: -1, Discount: 120})
	require.ErrorIs(t, err, domain.ErrValidation)
	e, _ := domain.AsError(err)
	assert.Contains(t, e.Details, "name")
	assert.Contains(t, e.Details, "price")
	assert.Contains(t, e.Details, "discount")
	assert.Contains(t, e.Details, "genreIds")
}

func TestUpdateGame_LegacyRefCopiesFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.svc.UpdateGame(ctx, "5", GameInput{Name: "Chai Deluxe", Price: 20, Genres: []string{"1"}})
	require.NoError(t, err)
	assert.Equal(t, domain.OriginPrimary, item.Origin)
	assert.Equal(t, "Chai Deluxe", item.Name)
	assert.Equal(t, "chai-5", item.Key)

	p, err := f.legacy.GetProduct(ctx, 5)
	require.NoError(t, err)
	id, ok := p.Copy()
	require.True(t, ok)
	assert.Equal(t, item.ID.Native, id)

	again, err := f.svc.UpdateGame(ctx, "5", GameInput{Name: "Chai", Price: 21, Genres: []string{"1"}})
	require.NoError(t, err)
	assert.Equal(t, item.ID, again.ID)
}

func TestDeleteGame_LegacySoftDeletesDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.primeCache(t)

	require.NoError(t, f.svc.DeleteGame(ctx, "5"))
	assert.Equal(t, 0, f.cache.Len())

	_, err := f.svc.GetGame(ctx, "5")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteGame(ctx, "5"), domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteGame(ctx, "nope"), domain.ErrInvalidIdentifier)
}

func TestDeleteGame_CopiedLegacyDeletesPrimaryToo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.svc.Resolver.ResolveGame(ctx, "5")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteGame(ctx, "5"))
	_, err = f.store.GetGame(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetGame_ByKeyCountsViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateGame(ctx, GameInput{Name: "Doom", Genres: []string{f.rpg.ID.String()}})
	require.NoError(t, err)

	first, err := f.svc.GetGame(ctx, "doom")
	require.NoError(t, err)
	second, err := f.svc.GetGame(ctx, "doom")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Views)
	assert.Equal(t, int64(2), second.Views)
}

func TestGetGame_LegacyByNumericID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.svc.GetGame(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, domain.OriginLegacy, item.Origin)
	assert.Equal(t, "Chai", item.Name)

	id, err := f.svc.Resolver.ResolveGame(ctx, "5")
	require.NoError(t, err)
	item, err = f.svc.GetGame(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, domain.OriginPrimary, item.Origin)
	assert.Equal(t, id, item.ID.Native)
}

func TestUpdateGenre_RejectsCycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	child, err := f.svc.CreateGenre(ctx, GenreInput{Name: "Action RPG", Parent: f.rpg.ID.String()})
	require.NoError(t, err)
	grandchild, err := f.svc.CreateGenre(ctx, GenreInput{Name: "Soulslike", Parent: child.ID.String()})
	require.NoError(t, err)

	_, err = f.svc.UpdateGenre(ctx, f.rpg.ID.String(), GenreInput{Name: "RPG", Parent: grandchild.ID.String()})
	assert.ErrorIs(t, err, domain.ErrGenreCycle)
	_, err = f.svc.UpdateGenre(ctx, f.rpg.ID.String(), GenreInput{Name: "RPG", Parent: f.rpg.ID.String()})
	assert.ErrorIs(t, err, domain.ErrGenreCycle)

	moved, err := f.svc.UpdateGenre(ctx, grandchild.ID.String(), GenreInput{Name: "Soulslike", Parent: f.rpg.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, f.rpg.ID, *moved.ParentID)
}

func TestListGenres_IncludesUncopiedCategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	views, err := f.svc.ListGenres(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, domain.LegacyRef(1), views[1].ID)

	_, err = f.svc.Resolver.ResolveGenre(ctx, "1")
	require.NoError(t, err)
	views, err = f.svc.ListGenres(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		assert.Equal(t, domain.OriginPrimary, v.Origin)
	}

	view, err := f.svc.GetGenre(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Beverages", view.Name)
	assert.Equal(t, domain.OriginPrimary, view.Origin)
}

func TestCreatePublisher_UniqueName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreatePublisher(ctx, PublisherInput{CompanyName: "Larian"})
	require.NoError(t, err)
	_, err = f.svc.CreatePublisher(ctx, PublisherInput{CompanyName: "larian "})
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	_, err = f.svc.CreatePublisher(ctx, PublisherInput{CompanyName: "Bad", HomePage: "not a url"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListPublishers_MergesSuppliers(t *testing.T) {
	f := newFixture(t)
	views, err := f.svc.ListPublishers(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, domain.OriginLegacy, views[0].Origin)
	assert.Equal(t, "Exotic Liquids", views[0].CompanyName)
}

func TestDeletePlatform_NativeOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assert.ErrorIs(t, f.svc.DeletePlatform(ctx, "3"), domain.ErrInvalidIdentifier)
	require.NoError(t, f.svc.DeletePlatform(ctx, f.pc.ID.String()))
	assert.ErrorIs(t, f.svc.DeletePlatform(ctx, f.pc.ID.String()), domain.ErrNotFound)
}

func TestAddToCart_LegacyGameAndStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.svc.AddToCart(ctx, "user-1", "5", 2)
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, 18.0, order.Lines[0].Price)

	p, err := f.legacy.GetProduct(ctx, 5)
	require.NoError(t, err)
	id, ok := p.Copy()
	require.True(t, ok)
	assert.Equal(t, id, order.Lines[0].GameID)

	_, err = f.svc.AddToCart(ctx, "user-1", id.String(), 2)
	assert.ErrorIs(t, err, domain.ErrOutOfStock)

	order, err = f.svc.AddToCart(ctx, "user-1", id.String(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, order.Lines[0].Quantity)

	_, err = f.svc.AddToCart(ctx, "user-1", id.String(), 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateGame_InvalidInputCopiesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.primeCache(t)

	_, err := f.svc.UpdateGame(ctx, "5", GameInput{Name: ""})
	require.ErrorIs(t, err, domain.ErrValidation)

	p, err := f.legacy.GetProduct(ctx, 5)
	require.NoError(t, err)
	assert.False(t, p.CopiedToPrimary)
	assert.Equal(t, 1, f.cache.Len())
}

func TestDeleteGame_LegacyRemovesUnflaggedCopy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	five := int64(5)
	orphan := store.Game{ID: uuid.New(), Key: "chai-5", Name: "Chai", LegacyProductID: &five}
	require.NoError(t, f.store.CreateGame(ctx, orphan))

	require.NoError(t, f.svc.DeleteGame(ctx, "5"))
	_, err := f.store.GetGame(ctx, orphan.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.Resolver.ResolveGame(ctx, "5")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMutations_EvictQueryCache(t *testing.T) {
	nativeGame := func(t *testing.T, f *fixture) string {
		t.Helper()
		item, err := f.svc.CreateGame(context.Background(), GameInput{Name: "Doom", Genres: []string{f.rpg.ID.String()}})
		require.NoError(t, err)
		return item.ID.Native.String()
	}
	publisher := func(t *testing.T, f *fixture) string {
		t.Helper()
		p, err := f.svc.CreatePublisher(context.Background(), PublisherInput{CompanyName: "Larian"})
		require.NoError(t, err)
		return p.ID.String()
	}

	tests := []struct {
		name   string
		setup  func(t *testing.T, f *fixture) string
		mutate func(ctx context.Context, f *fixture, ref string) error
	}{
		{"create game", nil, func(ctx context.Context, f *fixture, _ string) error {
			_, err := f.svc.CreateGame(ctx, GameInput{Name: "Quake", Genres: []string{f.rpg.ID.String()}})
			return err
		}},
		{"update native game", nativeGame, func(ctx context.Context, f *fixture, ref string) error {
			_, err := f.svc.UpdateGame(ctx, ref, GameInput{Name: "Doom II", Genres: []string{f.rpg.ID.String()}})
			return err
		}},
		{"update legacy game", nil, func(ctx context.Context, f *fixture, _ string) error {
			_, err := f.svc.UpdateGame(ctx, "5", GameInput{Name: "Chai", Genres: []string{f.rpg.ID.String()}})
			return err
		}},
		{"delete native game", nativeGame, func(ctx context.Context, f *fixture, ref string) error {
			return f.svc.DeleteGame(ctx, ref)
		}},
		{"delete legacy game", nil, func(ctx context.Context, f *fixture, _ string) error {
			return f.svc.DeleteGame(ctx, "5")
		}},
		{"create genre", nil, func(ctx context.Context, f *fixture, _ string) error {
			_, err := f.svc.CreateGenre(ctx, GenreInput{Name: "Roguelike"})
			return err
		}},
		{"update genre", nil, func(ctx context.Context, f *fixture, _ string) error {
			_, err := f.svc.UpdateGenre(ctx, f.rpg.ID.String(), GenreInput{Name: "Role-playing"})
			return err
		}},
		{"delete genre", nil, func(ctx context.Context, f *fixture, _ string) error {
			return f.svc.DeleteGenre(ctx, f.rpg.ID.String())
		}},
		{"create publisher", nil, func(ctx context.Context, f *fixture, _ string) error {
			_, err := f.svc.CreatePublisher(ctx, PublisherInput{CompanyName: "id Software"})
			return err
		}},
		{"update publisher", publisher, func(ctx context.Context, f *fixture, ref string) error {
			_, err := f.svc.UpdatePublisher(ctx, ref, PublisherInput{CompanyName: "Larian Studios"})
			return err
		}},
		{"delete publisher", publisher, func(ctx context.Context, f *fixture, ref string) error {
			return f.svc.DeletePublisher(ctx, ref)
		}},
		{"create platform", nil, func(ctx context.Context, f *fixture, _ string) error {
			_, err := f.svc.CreatePlatform(ctx, PlatformInput{Type: "Console"})
			return err
		}},
		{"delete platform", nil, func(ctx context.Context, f *fixture, _ string) error {
			return f.svc.DeletePlatform(ctx, f.pc.ID.String())
		}},
		{"add legacy game to cart", nil, func(ctx context.Context, f *fixture, _ string) error {
			_, err := f.svc.AddToCart(ctx, "user-1", "5", 1)
			return err
		}},
		{"resolve legacy reference", nil, func(ctx context.Context, f *fixture, _ string) error {
			_, err := f.svc.Resolver.Resolve(ctx, "publisher", "1")
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			var ref string
			if tt.setup != nil {
				ref = tt.setup(t, f)
			}
			f.primeCache(t)

			require.NoError(t, tt.mutate(context.Background(), f, ref))
			assert.Equal(t, 0, f.cache.Len())
		})
	}
}
