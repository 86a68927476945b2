package query

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/game-store/services/catalog/internal/domain"
	"github.com/example/game-store/services/catalog/internal/legacy"
	"github.com/example/game-store/services/catalog/internal/store"
)

// PrimarySource hands out query handles over primary games.
type PrimarySource interface {
	Games() store.GameQuery
}

// LegacySource hands out query handles over legacy products.
type LegacySource interface {
	Products() legacy.ProductQuery
	ListCategories(ctx context.Context) ([]legacy.Category, error)
}

// genreSets is the genre criterion split per source. A legacy category and
// the genre it was copied to count as the same genre on both sides.
type genreSets struct {
	primary []uuid.UUID
	legacy  []int64
}

func expandGenres(refs []domain.Ref, categories []legacy.Category) genreSets {
	var sets genreSets
	primarySeen := make(map[uuid.UUID]struct{})
	legacySeen := make(map[int64]struct{})
	addPrimary := func(id uuid.UUID) {
		if _, ok := primarySeen[id]; !ok {
			primarySeen[id] = struct{}{}
			sets.primary = append(sets.primary, id)
		}
	}
	addLegacy := func(id int64) {
		if _, ok := legacySeen[id]; !ok {
			legacySeen[id] = struct{}{}
			sets.legacy = append(sets.legacy, id)
		}
	}

	copiedTo := make(map[int64]uuid.UUID)
	copiedFrom := make(map[uuid.UUID]int64)
	for _, c := range categories {
		if id, ok := c.Copy(); ok {
			copiedTo[c.CategoryID] = id
			copiedFrom[id] = c.CategoryID
		}
	}
	for _, ref := range refs {
		switch ref.Kind {
		case domain.RefNative:
			addPrimary(ref.Native)
			if cat, ok := copiedFrom[ref.Native]; ok {
				addLegacy(cat)
			}
		case domain.RefLegacy:
			addLegacy(ref.Legacy)
			if id, ok := copiedTo[ref.Legacy]; ok {
				addPrimary(id)
			}
		}
	}
	return sets
}

func primaryPipeline(f Filter, genres genreSets, now time.Time) *Pipeline[store.GameQuery] {
	name := domain.EffectiveName(f.Name)
	p := &Pipeline[store.GameQuery]{}
	p.AddIf(f.IncludeDeleted, func(q store.GameQuery) store.GameQuery { return q.WithDeleted(true) }).
		AddIf(len(f.Genres) > 0, func(q store.GameQuery) store.GameQuery { return q.InGenres(genres.primary) }).
		AddIf(len(f.Platforms) > 0, func(q store.GameQuery) store.GameQuery { return q.OnPlatforms(f.Platforms) }).
		AddIf(len(f.Publishers) > 0, func(q store.GameQuery) store.GameQuery { return q.ByPublisherNames(f.Publishers) }).
		AddIf(f.MinPrice != nil, func(q store.GameQuery) store.GameQuery { return q.MinPrice(*f.MinPrice) }).
		AddIf(f.MaxPrice != nil, func(q store.GameQuery) store.GameQuery { return q.MaxPrice(*f.MaxPrice) }).
		AddIf(name != "", func(q store.GameQuery) store.GameQuery { return q.NameContains(name) }).
		AddIf(f.Date != "", func(q store.GameQuery) store.GameQuery { return q.CreatedSince(f.Date.Since(now)) })
	return p
}

// legacyPipeline mirrors primaryPipeline. Legacy products have no platforms,
// so any platform criterion excludes them all.
func legacyPipeline(f Filter, genres genreSets, now time.Time) *Pipeline[legacy.ProductQuery] {
	name := domain.EffectiveName(f.Name)
	p := &Pipeline[legacy.ProductQuery]{}
	p.AddIf(f.IncludeDeleted, func(q legacy.ProductQuery) legacy.ProductQuery { return q.WithDeleted(true) }).
		AddIf(len(f.Genres) > 0, func(q legacy.ProductQuery) legacy.ProductQuery { return q.InCategories(genres.legacy) }).
		AddIf(len(f.Platforms) > 0, func(q legacy.ProductQuery) legacy.ProductQuery { return q.None() }).
		AddIf(len(f.Publishers) > 0, func(q legacy.ProductQuery) legacy.ProductQuery { return q.BySupplierNames(f.Publishers) }).
		AddIf(f.MinPrice != nil, func(q legacy.ProductQuery) legacy.ProductQuery { return q.MinPrice(*f.MinPrice) }).
		AddIf(f.MaxPrice != nil, func(q legacy.ProductQuery) legacy.ProductQuery { return q.MaxPrice(*f.MaxPrice) }).
		AddIf(name != "", func(q legacy.ProductQuery) legacy.ProductQuery { return q.NameContains(name) }).
		AddIf(f.Date != "", func(q legacy.ProductQuery) legacy.ProductQuery { return q.AddedSince(f.Date.Since(now)) })
	return p
}
