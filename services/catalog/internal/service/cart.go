package service

import (
	"context"
	"errors"

	"github.com/example/game-store/services/catalog/internal/domain"
)

// AddToCart adds quantity units of a game to the customer's open order,
// creating the order if needed. A legacy game is copied first so the order
// line references a primary row.
func (s *Service) AddToCart(ctx context.Context, customerID, ref string, quantity int) (domain.Order, error) {
	if quantity < 1 {
		return domain.Order{}, domain.Validation("validation failed", map[string]any{"quantity": "must be at least 1"})
	}
	id, err := s.Resolver.ResolveGame(ctx, ref)
	if err != nil {
		return domain.Order{}, err
	}
	g, err := s.Store.GetGame(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	inCart := 0
	order, err := s.Store.OpenOrder(ctx, customerID)
	switch {
	case err == nil:
		for _, l := range order.Lines {
			if l.GameID == id {
				inCart += l.Quantity
			}
		}
	case errors.Is(err, domain.ErrNotFound):
	default:
		return domain.Order{}, err
	}
	if inCart+quantity > g.UnitsInStock {
		return domain.Order{}, domain.OutOfStock(id.String(), inCart+quantity, g.UnitsInStock)
	}

	return s.Store.AddOrderLine(ctx, customerID, domain.OrderLine{
		GameID:   id,
		Price:    g.Price,
		Quantity: quantity,
		Discount: g.Discount,
	})
}

func (s *Service) OpenOrder(ctx context.Context, customerID string) (domain.Order, error) {
	return s.Store.OpenOrder(ctx, customerID)
}
