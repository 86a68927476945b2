package legacy

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type productPredicate func(p Product) bool

// ProductQuery is a lazily evaluated, composable query over product
// documents. Soft-deleted and already-copied documents are excluded unless
// asked for; a copied product is listed through its primary row instead.
type ProductQuery struct {
	s              *Store
	preds          []productPredicate
	includeDeleted bool
	includeCopied  bool
	empty          bool
}

func (s *Store) Products() ProductQuery {
	return ProductQuery{s: s}
}

func (q ProductQuery) with(p productPredicate) ProductQuery {
	q.preds = append(slices.Clone(q.preds), p)
	return q
}

func (q ProductQuery) WithDeleted(include bool) ProductQuery {
	q.includeDeleted = include
	return q
}

func (q ProductQuery) WithCopied(include bool) ProductQuery {
	q.includeCopied = include
	return q
}

// None makes the query match nothing.
func (q ProductQuery) None() ProductQuery {
	q.empty = true
	return q
}

func (q ProductQuery) InCategories(ids []int64) ProductQuery {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return q.with(func(p Product) bool {
		_, ok := set[p.CategoryID]
		return ok
	})
}

// BySupplierNames keeps products whose supplier company name matches one of
// names, case-insensitively.
func (q ProductQuery) BySupplierNames(names []string) ProductQuery {
	lower := make([]string, 0, len(names))
	for _, n := range names {
		lower = append(lower, strings.ToLower(strings.TrimSpace(n)))
	}
	return q.with(func(p Product) bool {
		return p.SupplierName != "" && slices.Contains(lower, strings.ToLower(p.SupplierName))
	})
}

func (q ProductQuery) MinPrice(min float64) ProductQuery {
	return q.with(func(p Product) bool { return p.UnitPrice >= min })
}

func (q ProductQuery) MaxPrice(max float64) ProductQuery {
	return q.with(func(p Product) bool { return p.UnitPrice <= max })
}

func (q ProductQuery) NameContains(sub string) ProductQuery {
	sub = strings.ToLower(sub)
	return q.with(func(p Product) bool { return strings.Contains(strings.ToLower(p.ProductName), sub) })
}

func (q ProductQuery) AddedSince(t time.Time) ProductQuery {
	return q.with(func(p Product) bool { return !p.AddedAt.Before(t) })
}

// Fetch materializes the query and returns the matching products, with their
// category and supplier names filled in, and their count.
func (q ProductQuery) Fetch(ctx context.Context) ([]Product, int, error) {
	if q.empty {
		return nil, 0, ctx.Err()
	}
	var out []Product
	err := q.s.view(ctx, func(txn *badger.Txn) error {
		suppliers := make(map[int64]string)
		if err := scanPrefix(txn, supplierPrefix, func(s Supplier) bool {
			suppliers[s.SupplierID] = s.CompanyName
			return true
		}); err != nil {
			return err
		}
		categories := make(map[int64]Category)
		if err := scanPrefix(txn, categoryPrefix, func(c Category) bool {
			categories[c.CategoryID] = c
			return true
		}); err != nil {
			return err
		}

		var scanErr error
		err := scanPrefix(txn, productPrefix, func(p Product) bool {
			if scanErr = ctx.Err(); scanErr != nil {
				return false
			}
			if p.Deleted && !q.includeDeleted {
				return true
			}
			if p.CopiedToPrimary && !q.includeCopied {
				return true
			}
			p.SupplierName = suppliers[p.SupplierID]
			if c, ok := categories[p.CategoryID]; ok {
				p.CategoryName = c.CategoryName
				if c.CopiedToPrimary {
					p.CategoryPrimaryID = c.PrimaryID
				}
			}
			for _, pred := range q.preds {
				if !pred(p) {
					return true
				}
			}
			out = append(out, p)
			return true
		})
		if err != nil {
			return err
		}
		return scanErr
	})
	if err != nil {
		return nil, 0, err
	}
	return out, len(out), nil
}
