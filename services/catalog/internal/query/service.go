package query

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/game-store/services/catalog/internal/cache"
	"github.com/example/game-store/services/catalog/internal/domain"
	"github.com/example/game-store/services/catalog/internal/legacy"
	"github.com/example/game-store/services/catalog/internal/store"
)

// Service answers listing requests. Cache may be nil, in which case every
// request runs both source pipelines.
type Service struct {
	Primary PrimarySource
	Legacy  LegacySource
	Cache   cache.QueryCache
	TTL     time.Duration
	Log     *zap.Logger
	Now     func() time.Time
}

func NewService(primary PrimarySource, legacySrc LegacySource, c cache.QueryCache, ttl time.Duration, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{Primary: primary, Legacy: legacySrc, Cache: c, TTL: ttl, Log: log, Now: time.Now}
}

// List returns one page of the unified, filtered and sorted catalog.
//
// With trigger ApplyFilters the cache is bypassed and rewritten. With any
// other trigger a live cache entry for the same filter is reused and only
// sorting and pagination run again.
func (s *Service) List(ctx context.Context, req Request) (Page, error) {
	if err := validate(req); err != nil {
		return Page{}, err
	}

	fp := Fingerprint(req.Filter)
	entry, hit := s.cached(ctx, req.Trigger, fp)
	if !hit {
		var err error
		entry, err = s.Filtered(ctx, req.Filter)
		if err != nil {
			return Page{}, err
		}
		s.remember(ctx, fp, entry)
	}

	items := slices.Clone(entry.Items)
	Sort(items, req.Sort)
	return Paginate(items, entry.Total, req.Page, req.PageCount), nil
}

func validate(req Request) error {
	details := map[string]any{}
	if req.Page < 1 {
		details["page"] = "must be at least 1"
	}
	if !slices.Contains(domain.PageCounts, req.PageCount) {
		details["pageCount"] = "must be one of 10, 20, 50, 100, all"
	}
	if !slices.Contains(domain.SortOrders, req.Sort) {
		details["sort"] = "unknown sort order"
	}
	if !slices.Contains(domain.Triggers, req.Trigger) {
		details["trigger"] = "unknown trigger"
	}
	if req.Date != "" && !slices.Contains(domain.DateBuckets, req.Date) {
		details["datePublishing"] = "unknown date bucket"
	}
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		details["minPrice"] = "must not exceed maxPrice"
	}
	if len(details) > 0 {
		return domain.Validation("invalid listing request", details)
	}
	return nil
}

func (s *Service) cached(ctx context.Context, trigger domain.Trigger, fp string) (cache.Entry, bool) {
	if s.Cache == nil || trigger == domain.TriggerApplyFilters {
		return cache.Entry{}, false
	}
	entry, ok, err := s.Cache.Get(ctx, fp)
	if err != nil {
		s.Log.Warn("query cache get failed", zap.String("fingerprint", fp), zap.Error(err))
		return cache.Entry{}, false
	}
	return entry, ok
}

// remember writes the filtered set unless the request was cancelled meanwhile.
func (s *Service) remember(ctx context.Context, fp string, entry cache.Entry) {
	if s.Cache == nil || ctx.Err() != nil {
		return
	}
	if err := s.Cache.Set(ctx, fp, entry, s.TTL); err != nil {
		s.Log.Warn("query cache set failed", zap.String("fingerprint", fp), zap.Error(err))
	}
}

// Filtered runs both source pipelines concurrently and unifies their results.
// The returned total is the sum of per-source match counts.
func (s *Service) Filtered(ctx context.Context, f Filter) (cache.Entry, error) {
	var genres genreSets
	if len(f.Genres) > 0 && s.Legacy != nil {
		categories, err := s.Legacy.ListCategories(ctx)
		if err != nil {
			return cache.Entry{}, err
		}
		genres = expandGenres(f.Genres, categories)
	} else {
		genres = expandGenres(f.Genres, nil)
	}

	now := s.now()
	var (
		games            []store.Game
		products         []legacy.Product
		nGames, nProduct int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		games, nGames, err = primaryPipeline(f, genres, now).Apply(s.Primary.Games()).Fetch(gctx)
		return err
	})
	if s.Legacy != nil {
		g.Go(func() error {
			var err error
			products, nProduct, err = legacyPipeline(f, genres, now).Apply(s.Legacy.Products()).Fetch(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return cache.Entry{}, err
	}
	return cache.Entry{Items: Unify(games, products), Total: nGames + nProduct}, nil
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Options are the enumerated option sets exposed to callers.
type Options struct {
	PageCounts     []domain.PageCount  `json:"pageCounts"`
	Sorts          []domain.SortOrder  `json:"sorts"`
	DatePublishing []domain.DateBucket `json:"datePublishing"`
	Triggers       []domain.Trigger    `json:"triggers"`
}

func ListOptions() Options {
	return Options{
		PageCounts:     slices.Clone(domain.PageCounts),
		Sorts:          slices.Clone(domain.SortOrders),
		DatePublishing: slices.Clone(domain.DateBuckets),
		Triggers:       slices.Clone(domain.Triggers),
	}
}
