package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/game-store/services/catalog/internal/domain"
)

func sortItems() []domain.CatalogItem {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []domain.CatalogItem{
		{Name: "a", Price: 30, Views: 1, CommentCount: 9, CreatedAt: t0},
		{Name: "b", Price: 10, Views: 7, CommentCount: 2, CreatedAt: t0.Add(48 * time.Hour)},
		{Name: "c", Price: 20, Views: 7, CommentCount: 5, CreatedAt: t0.Add(24 * time.Hour)},
		{Name: "d", Price: 10, Views: 3, CommentCount: 0, CreatedAt: t0.Add(72 * time.Hour)},
	}
}

func TestSort(t *testing.T) {
	tests := []struct {
		order domain.SortOrder
		want  []string
	}{
		{domain.SortMostPopular, []string{"b", "c", "d", "a"}},
		{domain.SortMostCommented, []string{"a", "c", "b", "d"}},
		{domain.SortPriceAsc, []string{"b", "d", "c", "a"}},
		{domain.SortPriceDesc, []string{"a", "c", "b", "d"}},
		{domain.SortNewest, []string{"d", "b", "c", "a"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			items := sortItems()
			Sort(items, tt.order)
			assert.Equal(t, tt.want, names(items))
		})
	}
}

func TestSort_PriceAscNonDecreasing(t *testing.T) {
	items := sortItems()
	Sort(items, domain.SortPriceAsc)
	for i := 1; i < len(items); i++ {
		require.LessOrEqual(t, items[i-1].Price, items[i].Price)
	}
}

func TestPaginate(t *testing.T) {
	items := make([]domain.CatalogItem, 25)
	for i := range items {
		items[i].Price = float64(i)
	}

	p := Paginate(items, 25, 1, 10)
	assert.Len(t, p.Items, 10)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 1, p.CurrentPage)

	p = Paginate(items, 25, 3, 10)
	require.Len(t, p.Items, 5)
	assert.Equal(t, float64(20), p.Items[0].Price)

	p = Paginate(items, 25, 4, 10)
	assert.Empty(t, p.Items)
	assert.NotNil(t, p.Items)
	assert.Equal(t, 3, p.TotalPages)

	p = Paginate(items, 25, 1, domain.PageAll)
	assert.Len(t, p.Items, 25)
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, 1, p.CurrentPage)

	p = Paginate(nil, 0, 1, 20)
	assert.Empty(t, p.Items)
	assert.Zero(t, p.TotalPages)
}
