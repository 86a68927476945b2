package service

import (
	"context"
	"strings"

	"github.com/example/game-store/services/catalog/internal/domain"
)

type PlatformInput struct {
	Type string `json:"type" validate:"required,max=50"`
}

func (s *Service) CreatePlatform(ctx context.Context, in PlatformInput) (domain.Platform, error) {
	in.Type = strings.TrimSpace(in.Type)
	if err := s.Validate.Validate(in); err != nil {
		return domain.Platform{}, err
	}
	p := domain.Platform{ID: s.NewID(), Type: in.Type}
	if err := s.Store.CreatePlatform(ctx, p); err != nil {
		return domain.Platform{}, err
	}
	s.evict(ctx, "create platform")
	return p, nil
}

// DeletePlatform accepts native ids only; platforms have no legacy origin.
func (s *Service) DeletePlatform(ctx context.Context, raw string) error {
	ref := domain.ParseRef(raw)
	if !ref.IsNative() {
		return domain.InvalidIdentifier(raw)
	}
	if err := s.Store.DeletePlatform(ctx, ref.Native); err != nil {
		return err
	}
	s.evict(ctx, "delete platform")
	return nil
}

func (s *Service) ListPlatforms(ctx context.Context) ([]domain.Platform, error) {
	return s.Store.ListPlatforms(ctx)
}
