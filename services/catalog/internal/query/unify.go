package query

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/example/game-store/services/catalog/internal/domain"
	"github.com/example/game-store/services/catalog/internal/legacy"
	"github.com/example/game-store/services/catalog/internal/store"
)

// Unify projects both sources into CatalogItems and concatenates them,
// primary first. It does not deduplicate; copied legacy products are already
// excluded by the legacy query.
func Unify(games []store.Game, products []legacy.Product) []domain.CatalogItem {
	out := make([]domain.CatalogItem, 0, len(games)+len(products))
	for _, g := range games {
		out = append(out, FromGame(g))
	}
	for _, p := range products {
		out = append(out, FromProduct(p))
	}
	return out
}

func FromGame(g store.Game) domain.CatalogItem {
	item := domain.CatalogItem{
		ID:            domain.NativeRef(g.ID),
		Origin:        domain.OriginPrimary,
		Key:           g.Key,
		Name:          g.Name,
		Description:   g.Description,
		Price:         g.Price,
		Discount:      g.Discount,
		UnitsInStock:  g.UnitsInStock,
		PublisherName: g.PublisherName,
		GenreIDs:      make([]domain.Ref, 0, len(g.GenreIDs)),
		PlatformIDs:   make([]domain.Ref, 0, len(g.PlatformIDs)),
		CreatedAt:     g.CreatedAt,
		Views:         g.Views,
		CommentCount:  g.CommentCount,
		Deleted:       g.Deleted,
	}
	if g.PublisherID != nil {
		item.PublisherID = domain.NativeRef(*g.PublisherID)
	}
	for _, id := range g.GenreIDs {
		item.GenreIDs = append(item.GenreIDs, domain.NativeRef(id))
	}
	for _, id := range g.PlatformIDs {
		item.PlatformIDs = append(item.PlatformIDs, domain.NativeRef(id))
	}
	return item
}

func FromProduct(p legacy.Product) domain.CatalogItem {
	item := domain.CatalogItem{
		ID:              domain.LegacyRef(p.ProductID),
		Origin:          domain.OriginLegacy,
		Key:             strconv.FormatInt(p.ProductID, 10),
		Name:            p.ProductName,
		Description:     p.QuantityPerUnit,
		Price:           p.UnitPrice,
		UnitsInStock:    p.UnitsInStock,
		PublisherID:     domain.LegacyRef(p.SupplierID),
		PublisherName:   p.SupplierName,
		GenreIDs:        []domain.Ref{domain.LegacyRef(p.CategoryID)},
		PlatformIDs:     []domain.Ref{},
		CreatedAt:       p.AddedAt,
		Views:           p.Views,
		Deleted:         p.Deleted,
		CopiedToPrimary: p.CopiedToPrimary,
	}
	if id, err := uuid.Parse(p.CategoryPrimaryID); err == nil {
		item.GenreIDs = append(item.GenreIDs, domain.NativeRef(id))
	}
	if id, ok := p.Copy(); ok {
		item.PrimaryID = &id
	}
	return item
}
