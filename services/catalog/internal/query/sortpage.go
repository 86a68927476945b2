package query

import (
	"cmp"
	"slices"

	"github.com/example/game-store/services/catalog/internal/domain"
)

// Sort orders items in place by order. The sort is stable so ties keep their
// unified order.
func Sort(items []domain.CatalogItem, order domain.SortOrder) {
	var compare func(a, b domain.CatalogItem) int
	switch order {
	case domain.SortMostPopular:
		compare = func(a, b domain.CatalogItem) int { return cmp.Compare(b.Views, a.Views) }
	case domain.SortMostCommented:
		compare = func(a, b domain.CatalogItem) int { return cmp.Compare(b.CommentCount, a.CommentCount) }
	case domain.SortPriceAsc:
		compare = func(a, b domain.CatalogItem) int { return cmp.Compare(a.Price, b.Price) }
	case domain.SortPriceDesc:
		compare = func(a, b domain.CatalogItem) int { return cmp.Compare(b.Price, a.Price) }
	case domain.SortNewest:
		compare = func(a, b domain.CatalogItem) int { return b.CreatedAt.Compare(a.CreatedAt) }
	default:
		return
	}
	slices.SortStableFunc(items, compare)
}

// Paginate slices one page out of items. total is the summed match count
// across sources. PageAll returns everything on page 1 of 1; a page past the
// end is empty.
func Paginate(items []domain.CatalogItem, total, page int, size domain.PageCount) Page {
	if size == domain.PageAll {
		return Page{Items: items, TotalPages: 1, CurrentPage: 1}
	}
	n := int(size)
	pages := (total + n - 1) / n
	start := (page - 1) * n
	if start >= len(items) {
		return Page{Items: []domain.CatalogItem{}, TotalPages: pages, CurrentPage: page}
	}
	end := min(start+n, len(items))
	return Page{Items: items[start:end], TotalPages: pages, CurrentPage: page}
}
