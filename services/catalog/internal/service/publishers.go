package service

import (
	"context"
	"strings"

	"github.com/example/game-store/services/catalog/internal/domain"
)

type PublisherInput struct {
	CompanyName string `json:"companyName" validate:"required,max=200"`
	Description string `json:"description" validate:"max=4000"`
	HomePage    string `json:"homePage" validate:"omitempty,url"`
}

type PublisherView struct {
	ID          domain.Ref    `json:"id"`
	Origin      domain.Origin `json:"origin"`
	CompanyName string        `json:"companyName"`
	Description string        `json:"description,omitempty"`
	HomePage    string        `json:"homePage,omitempty"`
}

func (s *Service) CreatePublisher(ctx context.Context, in PublisherInput) (domain.Publisher, error) {
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	if err := s.Validate.Validate(in); err != nil {
		return domain.Publisher{}, err
	}
	p := domain.Publisher{ID: s.NewID(), CompanyName: in.CompanyName, Description: in.Description, HomePage: in.HomePage}
	if err := s.Store.CreatePublisher(ctx, p); err != nil {
		return domain.Publisher{}, err
	}
	s.evict(ctx, "create publisher")
	return p, nil
}

func (s *Service) UpdatePublisher(ctx context.Context, ref string, in PublisherInput) (domain.Publisher, error) {
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	if err := s.Validate.Validate(in); err != nil {
		return domain.Publisher{}, err
	}
	id, err := s.Resolver.ResolvePublisher(ctx, ref)
	if err != nil {
		return domain.Publisher{}, err
	}
	p := domain.Publisher{ID: id, CompanyName: in.CompanyName, Description: in.Description, HomePage: in.HomePage}
	if err := s.Store.UpdatePublisher(ctx, p); err != nil {
		return domain.Publisher{}, err
	}
	s.evict(ctx, "update publisher")
	return s.Store.GetPublisher(ctx, id)
}

func (s *Service) DeletePublisher(ctx context.Context, ref string) error {
	id, err := s.Resolver.ResolvePublisher(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.Store.DeletePublisher(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, "delete publisher")
	return nil
}

// ListPublishers returns primary publishers followed by uncopied legacy
// suppliers.
func (s *Service) ListPublishers(ctx context.Context) ([]PublisherView, error) {
	pubs, err := s.Store.ListPublishers(ctx)
	if err != nil {
		return nil, err
	}
	sups, err := s.Legacy.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PublisherView, 0, len(pubs)+len(sups))
	for _, p := range pubs {
		out = append(out, PublisherView{
			ID:          domain.NativeRef(p.ID),
			Origin:      domain.OriginPrimary,
			CompanyName: p.CompanyName,
			Description: p.Description,
			HomePage:    p.HomePage,
		})
	}
	for _, sup := range sups {
		if sup.CopiedToPrimary {
			continue
		}
		out = append(out, PublisherView{
			ID:          domain.LegacyRef(sup.SupplierID),
			Origin:      domain.OriginLegacy,
			CompanyName: sup.CompanyName,
			HomePage:    sup.HomePage,
		})
	}
	return out, nil
}
