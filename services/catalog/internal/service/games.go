package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/game-store/services/catalog/internal/domain"
	"github.com/example/game-store/services/catalog/internal/legacy"
	"github.com/example/game-store/services/catalog/internal/query"
	"github.com/example/game-store/services/catalog/internal/slug"
	"github.com/example/game-store/services/catalog/internal/store"
)

// GameInput is the body of a game create or update. Publisher, Genres and
// Platforms hold references; genres and publisher may be legacy ids.
type GameInput struct {
	Key          string   `json:"key" validate:"omitempty,max=200"`
	Name         string   `json:"name" validate:"required,max=200"`
	Description  string   `json:"description" validate:"max=4000"`
	Price        float64  `json:"price" validate:"gte=0"`
	Discount     int      `json:"discount" validate:"gte=0,lte=100"`
	UnitsInStock int      `json:"unitsInStock" validate:"gte=0"`
	Publisher    string   `json:"publisherId"`
	Genres       []string `json:"genreIds" validate:"required,min=1"`
	Platforms    []string `json:"platformIds"`
}

func (s *Service) CreateGame(ctx context.Context, in GameInput) (domain.CatalogItem, error) {
	in, err := s.checkGame(in)
	if err != nil {
		return domain.CatalogItem{}, err
	}
	g, err := s.buildGame(ctx, in)
	if err != nil {
		return domain.CatalogItem{}, err
	}
	g.ID = s.NewID()
	g.CreatedAt = s.Now().UTC()
	if g.Key == "" {
		g.Key = slug.Make(in.Name)
	}
	if g.Key == "" {
		return domain.CatalogItem{}, domain.Validation("validation failed", map[string]any{"key": "cannot be derived from name"})
	}
	if err := s.Store.CreateGame(ctx, g); err != nil {
		return domain.CatalogItem{}, err
	}
	s.evict(ctx, "create game")
	return s.reload(ctx, g.ID)
}

// UpdateGame replaces the editable fields of a game. A legacy reference is
// copied first, so the update lands on the primary row. Invalid input is
// rejected before anything is copied.
func (s *Service) UpdateGame(ctx context.Context, ref string, in GameInput) (domain.CatalogItem, error) {
	in, err := s.checkGame(in)
	if err != nil {
		return domain.CatalogItem{}, err
	}
	id, err := s.Resolver.ResolveGame(ctx, ref)
	if err != nil {
		return domain.CatalogItem{}, err
	}
	cur, err := s.Store.GetGame(ctx, id)
	if err != nil {
		return domain.CatalogItem{}, err
	}
	g, err := s.buildGame(ctx, in)
	if err != nil {
		return domain.CatalogItem{}, err
	}
	g.ID = id
	if g.Key == "" {
		g.Key = cur.Key
	}
	if err := s.Store.UpdateGame(ctx, g); err != nil {
		return domain.CatalogItem{}, err
	}
	s.evict(ctx, "update game")
	return s.reload(ctx, id)
}

// DeleteGame soft-deletes a game. For a legacy reference the document is
// soft-deleted, and so is its primary copy if there is one.
func (s *Service) DeleteGame(ctx context.Context, raw string) error {
	ref := domain.ParseRef(raw)
	switch ref.Kind {
	case domain.RefNative:
		if err := s.Store.DeleteGame(ctx, ref.Native); err != nil {
			return err
		}
	case domain.RefLegacy:
		p, err := s.Legacy.GetProduct(ctx, ref.Legacy)
		if err != nil {
			return err
		}
		if p.Deleted {
			return domain.NotFound("game", raw)
		}
		if err := s.Legacy.SoftDeleteProduct(ctx, ref.Legacy); err != nil {
			return err
		}
		if err := s.deleteCopy(ctx, ref.Legacy, p); err != nil {
			return err
		}
	default:
		return domain.InvalidIdentifier(raw)
	}
	s.evict(ctx, "delete game")
	return nil
}

// deleteCopy soft-deletes the primary copy of a legacy product. Without a
// back-reference on the document it looks for a row left by an unfinished
// copy.
func (s *Service) deleteCopy(ctx context.Context, legacyID int64, p legacy.Product) error {
	id, ok := p.Copy()
	if !ok {
		g, err := s.Store.GameByLegacyID(ctx, legacyID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if g.Deleted {
			return nil
		}
		id = g.ID
	}
	if err := s.Store.DeleteGame(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// GetGame looks a game up by key, falling back to a primary id or a legacy
// product id. Reads of primary games count as views.
func (s *Service) GetGame(ctx context.Context, key string) (domain.CatalogItem, error) {
	key = strings.TrimSpace(key)
	g, err := s.Store.GetGameByKey(ctx, key)
	if err == nil {
		return s.viewed(ctx, g), nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.CatalogItem{}, err
	}

	ref := domain.ParseRef(key)
	switch ref.Kind {
	case domain.RefNative:
		g, err := s.Store.GetGame(ctx, ref.Native)
		if err != nil {
			return domain.CatalogItem{}, err
		}
		return s.viewed(ctx, g), nil
	case domain.RefLegacy:
		p, err := s.Legacy.GetProduct(ctx, ref.Legacy)
		if err != nil {
			return domain.CatalogItem{}, err
		}
		if p.Deleted {
			return domain.CatalogItem{}, domain.NotFound("game", key)
		}
		if id, ok := p.Copy(); ok {
			g, err := s.Store.GetGame(ctx, id)
			if err != nil {
				return domain.CatalogItem{}, err
			}
			return s.viewed(ctx, g), nil
		}
		return query.FromProduct(p), nil
	default:
		return domain.CatalogItem{}, err
	}
}

func (s *Service) viewed(ctx context.Context, g store.Game) domain.CatalogItem {
	if err := s.Store.IncrementGameViews(ctx, g.ID); err != nil {
		s.Log.Warn("increment game views failed", zap.String("game_id", g.ID.String()), zap.Error(err))
	} else {
		g.Views++
	}
	return query.FromGame(g)
}

func (s *Service) reload(ctx context.Context, id uuid.UUID) (domain.CatalogItem, error) {
	g, err := s.Store.GetGame(ctx, id)
	if err != nil {
		return domain.CatalogItem{}, err
	}
	return query.FromGame(g), nil
}

func (s *Service) checkGame(in GameInput) (GameInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Key = strings.TrimSpace(in.Key)
	if err := s.Validate.Validate(in); err != nil {
		return in, err
	}
	return in, nil
}

// buildGame resolves the references of checked input.
func (s *Service) buildGame(ctx context.Context, in GameInput) (store.Game, error) {
	genres, err := s.Resolver.ResolveGenres(ctx, in.Genres)
	if err != nil {
		return store.Game{}, err
	}
	platforms, err := s.Resolver.ResolvePlatforms(ctx, in.Platforms)
	if err != nil {
		return store.Game{}, err
	}
	g := store.Game{
		Key:          in.Key,
		Name:         in.Name,
		Description:  in.Description,
		Price:        in.Price,
		Discount:     in.Discount,
		UnitsInStock: in.UnitsInStock,
		GenreIDs:     genres,
		PlatformIDs:  platforms,
	}
	if p := strings.TrimSpace(in.Publisher); p != "" {
		id, err := s.Resolver.ResolvePublisher(ctx, p)
		if err != nil {
			return store.Game{}, err
		}
		g.PublisherID = &id
	}
	return g, nil
}
