package query

import (
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/example/game-store/services/catalog/internal/domain"
)

// Filter holds the filtering criteria of a listing request. Nil or empty
// fields are absent criteria.
type Filter struct {
	Genres         []domain.Ref
	Platforms      []uuid.UUID
	Publishers     []string
	MinPrice       *float64
	MaxPrice       *float64
	Name           string
	Date           domain.DateBucket
	IncludeDeleted bool
}

// Request is a listing request: filter plus sort, page and trigger.
type Request struct {
	Filter
	Sort      domain.SortOrder
	Page      int
	PageCount domain.PageCount
	Trigger   domain.Trigger
}

// Page is the listing response.
type Page struct {
	Items       []domain.CatalogItem `json:"items"`
	TotalPages  int                  `json:"totalPages"`
	CurrentPage int                  `json:"currentPage"`
}

// Fingerprint deterministically encodes the filter criteria. Sort, page and
// trigger are not part of it, and names too short to filter on are dropped so
// they share the unfiltered key.
func Fingerprint(f Filter) string {
	genres := make([]string, 0, len(f.Genres))
	for _, g := range f.Genres {
		genres = append(genres, g.Kind.String()+":"+g.String())
	}
	platforms := make([]string, 0, len(f.Platforms))
	for _, p := range f.Platforms {
		platforms = append(platforms, p.String())
	}
	publishers := make([]string, 0, len(f.Publishers))
	for _, p := range f.Publishers {
		publishers = append(publishers, strings.ToLower(strings.TrimSpace(p)))
	}

	var b strings.Builder
	b.WriteString("g=")
	b.WriteString(sortedSet(genres))
	b.WriteString("|p=")
	b.WriteString(sortedSet(platforms))
	b.WriteString("|pub=")
	b.WriteString(sortedSet(publishers))
	b.WriteString("|min=")
	b.WriteString(formatBound(f.MinPrice))
	b.WriteString("|max=")
	b.WriteString(formatBound(f.MaxPrice))
	b.WriteString("|name=")
	b.WriteString(strconv.Quote(strings.ToLower(domain.EffectiveName(f.Name))))
	b.WriteString("|date=")
	b.WriteString(string(f.Date))
	b.WriteString("|deleted=")
	b.WriteString(strconv.FormatBool(f.IncludeDeleted))
	return b.String()
}

func sortedSet(values []string) string {
	values = slices.Clone(values)
	slices.Sort(values)
	values = slices.Compact(values)
	for i, v := range values {
		values[i] = strconv.Quote(v)
	}
	return strings.Join(values, ",")
}

func formatBound(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
