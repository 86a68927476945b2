package query

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/example/game-store/services/catalog/internal/domain"
)

func TestFingerprint_IgnoresOrderAndCase(t *testing.T) {
	g1, g2 := uuid.New(), uuid.New()
	a := Filter{
		Genres:     []domain.Ref{domain.NativeRef(g1), domain.LegacyRef(3), domain.NativeRef(g2)},
		Publishers: []string{"Acme", "Bolt"},
		MinPrice:   price(5),
	}
	b := Filter{
		Genres:     []domain.Ref{domain.LegacyRef(3), domain.NativeRef(g2), domain.NativeRef(g1)},
		Publishers: []string{"bolt", "ACME"},
		MinPrice:   price(5.0),
	}
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_ExcludesSortAndPage(t *testing.T) {
	f := Filter{Name: "Game"}
	r1 := Request{Filter: f, Sort: domain.SortPriceAsc, Page: 1, PageCount: 10}
	r2 := Request{Filter: f, Sort: domain.SortNewest, Page: 3, PageCount: domain.PageAll}
	assert.Equal(t, Fingerprint(r1.Filter), Fingerprint(r2.Filter))
}

func TestFingerprint_ShortNameSharesUnfilteredKey(t *testing.T) {
	assert.Equal(t, Fingerprint(Filter{}), Fingerprint(Filter{Name: "ga"}))
	assert.NotEqual(t, Fingerprint(Filter{}), Fingerprint(Filter{Name: "gam"}))
}

func TestFingerprint_DistinguishesCriteria(t *testing.T) {
	base := Fingerprint(Filter{})
	for name, f := range map[string]Filter{
		"min":     {MinPrice: price(1)},
		"max":     {MaxPrice: price(1)},
		"date":    {Date: domain.DateLastWeek},
		"deleted": {IncludeDeleted: true},
		"legacy":  {Genres: []domain.Ref{domain.LegacyRef(1)}},
		"pub":     {Publishers: []string{"x"}},
		"plat":    {Platforms: []uuid.UUID{uuid.New()}},
	} {
		assert.NotEqual(t, base, Fingerprint(f), name)
	}
	assert.NotEqual(t, Fingerprint(Filter{MinPrice: price(1)}), Fingerprint(Filter{MaxPrice: price(1)}))
}
