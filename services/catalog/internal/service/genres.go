package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/example/game-store/services/catalog/internal/domain"
)

type GenreInput struct {
	Name   string `json:"name" validate:"required,max=100"`
	Parent string `json:"parentId"`
}

// GenreView lists primary genres alongside legacy categories that have not
// been copied yet.
type GenreView struct {
	ID       domain.Ref    `json:"id"`
	Origin   domain.Origin `json:"origin"`
	Name     string        `json:"name"`
	ParentID *uuid.UUID    `json:"parentId,omitempty"`
}

func (s *Service) CreateGenre(ctx context.Context, in GenreInput) (domain.Genre, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.Validate.Validate(in); err != nil {
		return domain.Genre{}, err
	}
	g := domain.Genre{ID: s.NewID(), Name: in.Name}
	parent, err := s.parent(ctx, in.Parent)
	if err != nil {
		return domain.Genre{}, err
	}
	g.ParentID = parent
	if err := s.Store.CreateGenre(ctx, g); err != nil {
		return domain.Genre{}, err
	}
	s.evict(ctx, "create genre")
	return g, nil
}

func (s *Service) UpdateGenre(ctx context.Context, ref string, in GenreInput) (domain.Genre, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.Validate.Validate(in); err != nil {
		return domain.Genre{}, err
	}
	id, err := s.Resolver.ResolveGenre(ctx, ref)
	if err != nil {
		return domain.Genre{}, err
	}
	parent, err := s.parent(ctx, in.Parent)
	if err != nil {
		return domain.Genre{}, err
	}
	if err := s.Store.UpdateGenre(ctx, domain.Genre{ID: id, Name: in.Name, ParentID: parent}); err != nil {
		return domain.Genre{}, err
	}
	s.evict(ctx, "update genre")
	return s.Store.GetGenre(ctx, id)
}

func (s *Service) DeleteGenre(ctx context.Context, ref string) error {
	id, err := s.Resolver.ResolveGenre(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteGenre(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, "delete genre")
	return nil
}

func (s *Service) GetGenre(ctx context.Context, ref string) (GenreView, error) {
	r := domain.ParseRef(ref)
	switch r.Kind {
	case domain.RefNative:
		g, err := s.Store.GetGenre(ctx, r.Native)
		if err != nil {
			return GenreView{}, err
		}
		return genreView(g), nil
	case domain.RefLegacy:
		cats, err := s.Legacy.ListCategories(ctx)
		if err != nil {
			return GenreView{}, err
		}
		for _, c := range cats {
			if c.CategoryID != r.Legacy {
				continue
			}
			if id, ok := c.Copy(); ok {
				g, err := s.Store.GetGenre(ctx, id)
				if err != nil {
					return GenreView{}, err
				}
				return genreView(g), nil
			}
			return GenreView{ID: r, Origin: domain.OriginLegacy, Name: c.CategoryName}, nil
		}
		return GenreView{}, domain.NotFound("genre", ref)
	default:
		return GenreView{}, domain.InvalidIdentifier(ref)
	}
}

func (s *Service) ListGenres(ctx context.Context) ([]GenreView, error) {
	genres, err := s.Store.ListGenres(ctx)
	if err != nil {
		return nil, err
	}
	cats, err := s.Legacy.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]GenreView, 0, len(genres)+len(cats))
	for _, g := range genres {
		out = append(out, genreView(g))
	}
	for _, c := range cats {
		if !c.CopiedToPrimary {
			out = append(out, GenreView{ID: domain.LegacyRef(c.CategoryID), Origin: domain.OriginLegacy, Name: c.CategoryName})
		}
	}
	return out, nil
}

func genreView(g domain.Genre) GenreView {
	return GenreView{ID: domain.NativeRef(g.ID), Origin: domain.OriginPrimary, Name: g.Name, ParentID: g.ParentID}
}

func (s *Service) parent(ctx context.Context, raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := s.Resolver.ResolveGenre(ctx, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
