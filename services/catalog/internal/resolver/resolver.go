// Package resolver turns catalog references into primary-store identifiers,
// copying legacy documents into the primary store the first time they are
// referenced.
//
// A copy is a two-step saga over stores that cannot share a transaction:
//
//  1. insert the primary row carrying a unique back-reference to the legacy id
//  2. flag the legacy document copied with the new primary id
//
// A crash between the steps leaves a primary row nobody points at yet. The
// next resolution of the same id finds it through the back-reference and
// finishes step 2, so the copy converges without a compensating delete.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/example/game-store/services/catalog/internal/domain"
	"github.com/example/game-store/services/catalog/internal/legacy"
	"github.com/example/game-store/services/catalog/internal/store"
)

// Primary is the subset of the primary store the resolver reads and writes.
type Primary interface {
	GetGame(ctx context.Context, id uuid.UUID) (store.Game, error)
	GameByLegacyID(ctx context.Context, productID int64) (store.Game, error)
	CreateGame(ctx context.Context, g store.Game) error

	GetGenre(ctx context.Context, id uuid.UUID) (domain.Genre, error)
	GenreByLegacyID(ctx context.Context, categoryID int64) (domain.Genre, error)
	CreateGenre(ctx context.Context, g domain.Genre) error

	GetPublisher(ctx context.Context, id uuid.UUID) (domain.Publisher, error)
	PublisherByLegacyID(ctx context.Context, supplierID int64) (domain.Publisher, error)
	PublisherByName(ctx context.Context, companyName string) (domain.Publisher, error)
	CreatePublisher(ctx context.Context, p domain.Publisher) error

	GetPlatform(ctx context.Context, id uuid.UUID) (domain.Platform, error)
}

// Legacy is the subset of the legacy document store the resolver uses.
type Legacy interface {
	GetProduct(ctx context.Context, id int64) (legacy.Product, error)
	GetCategory(ctx context.Context, id int64) (legacy.Category, error)
	GetSupplier(ctx context.Context, id int64) (legacy.Supplier, error)
	MarkProductCopied(ctx context.Context, id int64, primaryID uuid.UUID) error
	MarkCategoryCopied(ctx context.Context, id int64, primaryID uuid.UUID) error
	MarkSupplierCopied(ctx context.Context, id int64, primaryID uuid.UUID) error
}

// RetryPolicy controls how often flagging a legacy document is retried.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

var DefaultRetry = RetryPolicy{MaxRetries: 3, BaseDelay: 50 * time.Millisecond}

var copiesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "catalog_resolver_copies_total",
	Help: "Legacy documents copied into the primary store, by entity and outcome.",
}, []string{"entity", "outcome"})

const (
	outcomeCreated  = "created"
	outcomeRepaired = "repaired"
	outcomeRaced    = "raced"
	outcomeAdopted  = "adopted"
)

// Resolver resolves game, genre, publisher and platform references.
type Resolver struct {
	Primary Primary
	Legacy  Legacy
	Retry   RetryPolicy
	Log     *zap.Logger

	// NewID allocates primary ids for copied rows.
	NewID func() uuid.UUID
	Now   func() time.Time

	// OnCopy, when set, runs after a legacy document was flagged copied by
	// this resolver or found copied by a concurrent one. Resolutions that
	// only follow an existing back-reference do not call it.
	OnCopy func(ctx context.Context, entity string, primaryID uuid.UUID)

	flight singleflight.Group
}

func New(primary Primary, legacyStore Legacy, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		Primary: primary,
		Legacy:  legacyStore,
		Retry:   DefaultRetry,
		Log:     log,
		NewID:   uuid.New,
		Now:     time.Now,
	}
}

// Resolve dispatches on entity name ("game", "genre", "publisher", "platform").
func (r *Resolver) Resolve(ctx context.Context, entity, raw string) (uuid.UUID, error) {
	switch entity {
	case "game":
		return r.ResolveGame(ctx, raw)
	case "genre":
		return r.ResolveGenre(ctx, raw)
	case "publisher":
		return r.ResolvePublisher(ctx, raw)
	case "platform":
		return r.resolvePlatform(ctx, raw)
	default:
		return uuid.Nil, domain.Validation(fmt.Sprintf("unknown entity %q", entity), map[string]any{"entity": entity})
	}
}

// ResolveGame returns the primary id of a game reference. A legacy product
// is copied together with its category and supplier.
func (r *Resolver) ResolveGame(ctx context.Context, raw string) (uuid.UUID, error) {
	ref := domain.ParseRef(raw)
	switch ref.Kind {
	case domain.RefNative:
		if _, err := r.Primary.GetGame(ctx, ref.Native); err != nil {
			return uuid.Nil, err
		}
		return ref.Native, nil
	case domain.RefLegacy:
		return r.once(ctx, "game", ref.Legacy, r.copyProduct)
	default:
		return uuid.Nil, domain.InvalidIdentifier(raw)
	}
}

func (r *Resolver) ResolveGenre(ctx context.Context, raw string) (uuid.UUID, error) {
	ref := domain.ParseRef(raw)
	switch ref.Kind {
	case domain.RefNative:
		if _, err := r.Primary.GetGenre(ctx, ref.Native); err != nil {
			return uuid.Nil, err
		}
		return ref.Native, nil
	case domain.RefLegacy:
		return r.once(ctx, "genre", ref.Legacy, r.copyCategory)
	default:
		return uuid.Nil, domain.InvalidIdentifier(raw)
	}
}

func (r *Resolver) ResolvePublisher(ctx context.Context, raw string) (uuid.UUID, error) {
	ref := domain.ParseRef(raw)
	switch ref.Kind {
	case domain.RefNative:
		if _, err := r.Primary.GetPublisher(ctx, ref.Native); err != nil {
			return uuid.Nil, err
		}
		return ref.Native, nil
	case domain.RefLegacy:
		return r.once(ctx, "publisher", ref.Legacy, r.copySupplier)
	default:
		return uuid.Nil, domain.InvalidIdentifier(raw)
	}
}

// Platforms only exist in the primary store, so a numeric id is invalid.
func (r *Resolver) resolvePlatform(ctx context.Context, raw string) (uuid.UUID, error) {
	ref := domain.ParseRef(raw)
	if !ref.IsNative() {
		return uuid.Nil, domain.InvalidIdentifier(raw)
	}
	if _, err := r.Primary.GetPlatform(ctx, ref.Native); err != nil {
		return uuid.Nil, err
	}
	return ref.Native, nil
}

// ResolveGenres resolves every reference and reports all unusable ones in a
// single IdsNotValid error. Duplicates collapse, first position wins.
func (r *Resolver) ResolveGenres(ctx context.Context, raws []string) ([]uuid.UUID, error) {
	return r.resolveAll(ctx, "genre", raws, r.ResolveGenre)
}

func (r *Resolver) ResolvePlatforms(ctx context.Context, raws []string) ([]uuid.UUID, error) {
	return r.resolveAll(ctx, "platform", raws, r.resolvePlatform)
}

func (r *Resolver) resolveAll(ctx context.Context, entity string, raws []string, resolve func(context.Context, string) (uuid.UUID, error)) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raws))
	seen := make(map[uuid.UUID]struct{}, len(raws))
	var invalid []string
	for _, raw := range raws {
		id, err := resolve(ctx, raw)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrInvalidIdentifier), errors.Is(err, domain.ErrNotFound):
			invalid = append(invalid, raw)
			continue
		default:
			return nil, err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(invalid) > 0 {
		return nil, domain.IdsNotValid(entity, invalid)
	}
	return out, nil
}

// once collapses concurrent resolutions of one legacy id in this process.
// Across processes the unique back-reference column serializes the insert.
func (r *Resolver) once(ctx context.Context, entity string, id int64, copyFn func(context.Context, int64) (uuid.UUID, error)) (uuid.UUID, error) {
	key := entity + ":" + strconv.FormatInt(id, 10)
	v, err, _ := r.flight.Do(key, func() (interface{}, error) {
		return copyFn(ctx, id)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return v.(uuid.UUID), nil
}

// saga describes the copy of one legacy document.
type saga struct {
	entity string
	id     int64
	// copied reads the legacy document's back-reference.
	copied func(ctx context.Context) (uuid.UUID, bool, error)
	// orphan finds a primary row already carrying the back-reference.
	orphan func(ctx context.Context) (uuid.UUID, bool, error)
	// insert creates the primary row and returns its id.
	insert func(ctx context.Context) (uuid.UUID, string, error)
	// mark flags the legacy document copied.
	mark func(ctx context.Context, primaryID uuid.UUID) error
}

func (r *Resolver) run(ctx context.Context, s saga) (uuid.UUID, error) {
	if id, ok, err := s.copied(ctx); err != nil || ok {
		return id, err
	}

	primaryID, found, err := s.orphan(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	outcome := outcomeRepaired
	if !found {
		primaryID, outcome, err = s.insert(ctx)
		if errors.Is(err, store.ErrLegacyConflict) {
			// Another process won the insert; its row is the copy.
			primaryID, found, err = s.orphan(ctx)
			if err == nil && !found {
				err = fmt.Errorf("resolve %s %d: back-reference conflict without a row", s.entity, s.id)
			}
			outcome = outcomeRaced
		}
		if err != nil {
			return uuid.Nil, err
		}
	}

	err = r.withRetry(ctx, s.entity, s.id, func(ctx context.Context) error {
		return s.mark(ctx, primaryID)
	})
	if errors.Is(err, legacy.ErrCopiedElsewhere) {
		id, ok, rerr := s.copied(ctx)
		if rerr != nil {
			return uuid.Nil, rerr
		}
		if ok {
			r.Log.Warn("legacy document copied concurrently",
				zap.String("entity", s.entity),
				zap.Int64("legacy_id", s.id),
				zap.String("kept", id.String()),
				zap.String("orphaned", primaryID.String()))
			r.notifyCopy(ctx, s.entity, id)
			return id, nil
		}
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("flag %s %d copied to %s: %w", s.entity, s.id, primaryID, err)
	}

	copiesTotal.WithLabelValues(s.entity, outcome).Inc()
	r.Log.Info("legacy document copied",
		zap.String("entity", s.entity),
		zap.Int64("legacy_id", s.id),
		zap.String("primary_id", primaryID.String()),
		zap.String("outcome", outcome))
	r.notifyCopy(ctx, s.entity, primaryID)
	return primaryID, nil
}

func (r *Resolver) notifyCopy(ctx context.Context, entity string, primaryID uuid.UUID) {
	if r.OnCopy != nil {
		r.OnCopy(ctx, entity, primaryID)
	}
}

func (r *Resolver) withRetry(ctx context.Context, entity string, id int64, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt <= r.Retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.Retry.BaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			r.Log.Debug("retrying legacy copy flag",
				zap.String("entity", entity),
				zap.Int64("legacy_id", id),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		err = fn(ctx)
		if err == nil || !retryable(err) {
			return err
		}
		r.Log.Warn("flag legacy document failed",
			zap.String("entity", entity),
			zap.Int64("legacy_id", id),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return err
}

func retryable(err error) bool {
	return !errors.Is(err, legacy.ErrCopiedElsewhere) &&
		!errors.Is(err, domain.ErrNotFound) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// found adapts a primary lookup to the (id, ok, err) shape, mapping
// NotFound to ok=false.
func found(id uuid.UUID, err error) (uuid.UUID, bool, error) {
	if errors.Is(err, domain.ErrNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}
