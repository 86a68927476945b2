package resolver

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/game-store/services/catalog/internal/domain"
	"github.com/example/game-store/services/catalog/internal/slug"
	"github.com/example/game-store/services/catalog/internal/store"
)

func (r *Resolver) copyCategory(ctx context.Context, id int64) (uuid.UUID, error) {
	return r.run(ctx, saga{
		entity: "genre",
		id:     id,
		copied: func(ctx context.Context) (uuid.UUID, bool, error) {
			c, err := r.Legacy.GetCategory(ctx, id)
			if err != nil {
				return uuid.Nil, false, err
			}
			primaryID, ok := c.Copy()
			return primaryID, ok, nil
		},
		orphan: func(ctx context.Context) (uuid.UUID, bool, error) {
			g, err := r.Primary.GenreByLegacyID(ctx, id)
			return found(g.ID, err)
		},
		insert: func(ctx context.Context) (uuid.UUID, string, error) {
			c, err := r.Legacy.GetCategory(ctx, id)
			if err != nil {
				return uuid.Nil, "", err
			}
			g := domain.Genre{ID: r.NewID(), Name: c.CategoryName, LegacyCategoryID: &id}
			if err := r.Primary.CreateGenre(ctx, g); err != nil {
				return uuid.Nil, "", err
			}
			return g.ID, outcomeCreated, nil
		},
		mark: func(ctx context.Context, primaryID uuid.UUID) error {
			return r.Legacy.MarkCategoryCopied(ctx, id, primaryID)
		},
	})
}

// copySupplier adopts an existing publisher with the same company name
// instead of failing on the unique name.
func (r *Resolver) copySupplier(ctx context.Context, id int64) (uuid.UUID, error) {
	return r.run(ctx, saga{
		entity: "publisher",
		id:     id,
		copied: func(ctx context.Context) (uuid.UUID, bool, error) {
			s, err := r.Legacy.GetSupplier(ctx, id)
			if err != nil {
				return uuid.Nil, false, err
			}
			primaryID, ok := s.Copy()
			return primaryID, ok, nil
		},
		orphan: func(ctx context.Context) (uuid.UUID, bool, error) {
			p, err := r.Primary.PublisherByLegacyID(ctx, id)
			return found(p.ID, err)
		},
		insert: func(ctx context.Context) (uuid.UUID, string, error) {
			s, err := r.Legacy.GetSupplier(ctx, id)
			if err != nil {
				return uuid.Nil, "", err
			}
			p := domain.Publisher{
				ID:               r.NewID(),
				CompanyName:      s.CompanyName,
				HomePage:         s.HomePage,
				LegacySupplierID: &id,
			}
			err = r.Primary.CreatePublisher(ctx, p)
			if !errors.Is(err, domain.ErrDuplicateKey) {
				if err != nil {
					return uuid.Nil, "", err
				}
				return p.ID, outcomeCreated, nil
			}
			if err := r.conflictOnBackRef(ctx, func(ctx context.Context) (uuid.UUID, bool, error) {
				existing, err := r.Primary.PublisherByLegacyID(ctx, id)
				return found(existing.ID, err)
			}); err != nil {
				return uuid.Nil, "", err
			}
			existing, err := r.Primary.PublisherByName(ctx, s.CompanyName)
			if err != nil {
				return uuid.Nil, "", err
			}
			return existing.ID, outcomeAdopted, nil
		},
		mark: func(ctx context.Context, primaryID uuid.UUID) error {
			return r.Legacy.MarkSupplierCopied(ctx, id, primaryID)
		},
	})
}

// copyProduct copies the product's category and supplier first so the new
// game can reference them. A dangling category or supplier id is dropped.
func (r *Resolver) copyProduct(ctx context.Context, id int64) (uuid.UUID, error) {
	return r.run(ctx, saga{
		entity: "game",
		id:     id,
		copied: func(ctx context.Context) (uuid.UUID, bool, error) {
			p, err := r.Legacy.GetProduct(ctx, id)
			if err != nil {
				return uuid.Nil, false, err
			}
			primaryID, ok := p.Copy()
			if !ok && p.Deleted {
				return uuid.Nil, false, deletedProduct(id)
			}
			return primaryID, ok, nil
		},
		orphan: func(ctx context.Context) (uuid.UUID, bool, error) {
			g, err := r.Primary.GameByLegacyID(ctx, id)
			return found(g.ID, err)
		},
		insert: func(ctx context.Context) (uuid.UUID, string, error) {
			p, err := r.Legacy.GetProduct(ctx, id)
			if err != nil {
				return uuid.Nil, "", err
			}
			if p.Deleted {
				return uuid.Nil, "", deletedProduct(id)
			}
			g := store.Game{
				ID:              r.NewID(),
				Key:             slug.ForLegacy(p.ProductName, id),
				Name:            p.ProductName,
				Description:     p.QuantityPerUnit,
				Price:           p.UnitPrice,
				UnitsInStock:    p.UnitsInStock,
				CreatedAt:       p.AddedAt,
				Views:           p.Views,
				LegacyProductID: &id,
			}
			if g.CreatedAt.IsZero() {
				g.CreatedAt = r.Now().UTC()
			}
			if p.CategoryID > 0 {
				genreID, err := r.dependency(ctx, "genre", p.CategoryID, r.copyCategory)
				if err != nil {
					return uuid.Nil, "", err
				}
				if genreID != uuid.Nil {
					g.GenreIDs = []uuid.UUID{genreID}
				}
			}
			if p.SupplierID > 0 {
				publisherID, err := r.dependency(ctx, "publisher", p.SupplierID, r.copySupplier)
				if err != nil {
					return uuid.Nil, "", err
				}
				if publisherID != uuid.Nil {
					g.PublisherID = &publisherID
				}
			}

			err = r.Primary.CreateGame(ctx, g)
			if errors.Is(err, domain.ErrDuplicateKey) {
				if err := r.conflictOnBackRef(ctx, func(ctx context.Context) (uuid.UUID, bool, error) {
					existing, err := r.Primary.GameByLegacyID(ctx, id)
					return found(existing.ID, err)
				}); err != nil {
					return uuid.Nil, "", err
				}
				// A native game already took the derived key.
				g.Key = g.Key + "-" + uuid.NewString()[:8]
				err = r.Primary.CreateGame(ctx, g)
			}
			if err != nil {
				return uuid.Nil, "", err
			}
			return g.ID, outcomeCreated, nil
		},
		mark: func(ctx context.Context, primaryID uuid.UUID) error {
			return r.Legacy.MarkProductCopied(ctx, id, primaryID)
		},
	})
}

// deletedProduct reports a soft-deleted legacy product that was never
// copied. It stays in the legacy store only.
func deletedProduct(id int64) error {
	return domain.NotFound("game", domain.LegacyRef(id).String())
}

// dependency resolves a referenced legacy document, returning uuid.Nil when
// it does not exist.
func (r *Resolver) dependency(ctx context.Context, entity string, id int64, copyFn func(context.Context, int64) (uuid.UUID, error)) (uuid.UUID, error) {
	primaryID, err := r.once(ctx, entity, id, copyFn)
	if errors.Is(err, domain.ErrNotFound) {
		r.Log.Warn("legacy reference dangles",
			zap.String("entity", entity),
			zap.Int64("legacy_id", id))
		return uuid.Nil, nil
	}
	return primaryID, err
}

// conflictOnBackRef turns a unique-key failure into ErrLegacyConflict when a
// row with the same back-reference exists, which a store may report as
// either violation.
func (r *Resolver) conflictOnBackRef(ctx context.Context, lookup func(context.Context) (uuid.UUID, bool, error)) error {
	_, ok, err := lookup(ctx)
	if err != nil {
		return err
	}
	if ok {
		return store.ErrLegacyConflict
	}
	return nil
}
