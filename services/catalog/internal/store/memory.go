package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/game-store/services/catalog/internal/domain"
)

// Memory is an in-process Store for development and tests.
// WARNING: not suitable for production; state is lost on restart and is not
// shared across instances.
type Memory struct {
	mu         sync.RWMutex
	games      map[uuid.UUID]Game
	gameOrder  []uuid.UUID
	genres     map[uuid.UUID]domain.Genre
	publishers map[uuid.UUID]domain.Publisher
	platforms  map[uuid.UUID]domain.Platform
	orders     map[string]domain.Order
	processed  map[string]bool
	now        func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		games:      make(map[uuid.UUID]Game),
		genres:     make(map[uuid.UUID]domain.Genre),
		publishers: make(map[uuid.UUID]domain.Publisher),
		platforms:  make(map[uuid.UUID]domain.Platform),
		orders:     make(map[string]domain.Order),
		processed:  make(map[string]bool),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ── Games ──────────────────────────────────────────────────────────────────

type gamePredicate func(g Game, publisherName string) bool

type memGameQuery struct {
	s              *Memory
	preds          []gamePredicate
	includeDeleted bool
}

func (s *Memory) Games() GameQuery {
	return memGameQuery{s: s}
}

func (q memGameQuery) with(p gamePredicate) GameQuery {
	q.preds = append(slices.Clone(q.preds), p)
	return q
}

func (q memGameQuery) WithDeleted(include bool) GameQuery {
	q.includeDeleted = include
	return q
}

func (q memGameQuery) InGenres(ids []uuid.UUID) GameQuery {
	set := toSet(ids)
	return q.with(func(g Game, _ string) bool { return intersects(g.GenreIDs, set) })
}

func (q memGameQuery) OnPlatforms(ids []uuid.UUID) GameQuery {
	set := toSet(ids)
	return q.with(func(g Game, _ string) bool { return intersects(g.PlatformIDs, set) })
}

func (q memGameQuery) ByPublisherNames(names []string) GameQuery {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
	return q.with(func(_ Game, pub string) bool {
		_, ok := set[strings.ToLower(pub)]
		return ok && pub != ""
	})
}

func (q memGameQuery) MinPrice(p float64) GameQuery {
	return q.with(func(g Game, _ string) bool { return g.Price >= p })
}

func (q memGameQuery) MaxPrice(p float64) GameQuery {
	return q.with(func(g Game, _ string) bool { return g.Price <= p })
}

func (q memGameQuery) NameContains(sub string) GameQuery {
	sub = strings.ToLower(sub)
	return q.with(func(g Game, _ string) bool { return strings.Contains(strings.ToLower(g.Name), sub) })
}

func (q memGameQuery) CreatedSince(t time.Time) GameQuery {
	return q.with(func(g Game, _ string) bool { return !g.CreatedAt.Before(t) })
}

func (q memGameQuery) Fetch(ctx context.Context) ([]Game, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()

	out := make([]Game, 0, len(q.s.gameOrder))
outer:
	for _, id := range q.s.gameOrder {
		g := q.s.games[id]
		if g.Deleted && !q.includeDeleted {
			continue
		}
		g.PublisherName = q.s.publisherNameLocked(g.PublisherID)
		for _, p := range q.preds {
			if !p(g, g.PublisherName) {
				continue outer
			}
		}
		out = append(out, cloneGame(g))
	}
	return out, len(out), nil
}

func (s *Memory) GetGame(_ context.Context, id uuid.UUID) (Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	if !ok || g.Deleted {
		return Game{}, domain.NotFound("game", id.String())
	}
	g.PublisherName = s.publisherNameLocked(g.PublisherID)
	return cloneGame(g), nil
}

func (s *Memory) GetGameByKey(_ context.Context, key string) (Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.gameOrder {
		g := s.games[id]
		if !g.Deleted && g.Key == key {
			g.PublisherName = s.publisherNameLocked(g.PublisherID)
			return cloneGame(g), nil
		}
	}
	return Game{}, domain.NotFound("game", key)
}

func (s *Memory) GameByLegacyID(_ context.Context, productID int64) (Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.gameOrder {
		g := s.games[id]
		if g.LegacyProductID != nil && *g.LegacyProductID == productID {
			return cloneGame(g), nil
		}
	}
	return Game{}, domain.NotFound("game", domain.LegacyRef(productID).String())
}

func (s *Memory) CreateGame(_ context.Context, g Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkGameUniqueLocked(g); err != nil {
		return err
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}
	s.games[g.ID] = cloneGame(g)
	s.gameOrder = append(s.gameOrder, g.ID)
	return nil
}

func (s *Memory) UpdateGame(_ context.Context, g Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.games[g.ID]
	if !ok || cur.Deleted {
		return domain.NotFound("game", g.ID.String())
	}
	if err := s.checkGameUniqueLocked(g); err != nil {
		return err
	}
	g.CreatedAt = cur.CreatedAt
	g.Views = cur.Views
	g.CommentCount = cur.CommentCount
	g.LegacyProductID = cur.LegacyProductID
	s.games[g.ID] = cloneGame(g)
	return nil
}

func (s *Memory) checkGameUniqueLocked(g Game) error {
	if g.LegacyProductID != nil {
		for id, other := range s.games {
			if id != g.ID && other.LegacyProductID != nil && *other.LegacyProductID == *g.LegacyProductID {
				return ErrLegacyConflict
			}
		}
	}
	for id, other := range s.games {
		if id == g.ID {
			continue
		}
		if !other.Deleted && other.Key == g.Key {
			return domain.DuplicateKey("key", g.Key)
		}
	}
	return nil
}

func (s *Memory) DeleteGame(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok || g.Deleted {
		return domain.NotFound("game", id.String())
	}
	g.Deleted = true
	s.games[id] = g
	return nil
}

func (s *Memory) IncrementGameViews(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return domain.NotFound("game", id.String())
	}
	g.Views++
	s.games[id] = g
	return nil
}

func (s *Memory) ApplyCommentDelta(_ context.Context, eventID, _ string, gameID uuid.UUID, delta int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processed[eventID] {
		return false, nil
	}
	g, ok := s.games[gameID]
	if !ok {
		return false, domain.NotFound("game", gameID.String())
	}
	g.CommentCount = max(g.CommentCount+delta, 0)
	s.games[gameID] = g
	s.processed[eventID] = true
	return true, nil
}

// ── Genres ─────────────────────────────────────────────────────────────────

func (s *Memory) GetGenre(_ context.Context, id uuid.UUID) (domain.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.genres[id]
	if !ok || g.Deleted {
		return domain.Genre{}, domain.NotFound("genre", id.String())
	}
	return g, nil
}

func (s *Memory) GenreByLegacyID(_ context.Context, categoryID int64) (domain.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.genres {
		if g.LegacyCategoryID != nil && *g.LegacyCategoryID == categoryID {
			return g, nil
		}
	}
	return domain.Genre{}, domain.NotFound("genre", domain.LegacyRef(categoryID).String())
}

func (s *Memory) ListGenres(_ context.Context) ([]domain.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Genre, 0, len(s.genres))
	for _, g := range s.genres {
		if !g.Deleted {
			out = append(out, g)
		}
	}
	slices.SortFunc(out, func(a, b domain.Genre) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *Memory) CreateGenre(_ context.Context, g domain.Genre) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.LegacyCategoryID != nil {
		for _, other := range s.genres {
			if other.LegacyCategoryID != nil && *other.LegacyCategoryID == *g.LegacyCategoryID {
				return ErrLegacyConflict
			}
		}
	}
	s.genres[g.ID] = g
	return nil
}

func (s *Memory) UpdateGenre(_ context.Context, g domain.Genre) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.genres[g.ID]
	if !ok || cur.Deleted {
		return domain.NotFound("genre", g.ID.String())
	}
	if parentChainReaches(g.ID, g.ParentID, func(id uuid.UUID) (domain.Genre, bool) {
		p, ok := s.genres[id]
		return p, ok
	}) {
		return domain.GenreCycle(g.ID.String(), g.ParentID.String())
	}
	g.LegacyCategoryID = cur.LegacyCategoryID
	s.genres[g.ID] = g
	return nil
}

func (s *Memory) DeleteGenre(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.genres[id]
	if !ok || g.Deleted {
		return domain.NotFound("genre", id.String())
	}
	g.Deleted = true
	s.genres[id] = g
	return nil
}

// ── Publishers ─────────────────────────────────────────────────────────────

func (s *Memory) GetPublisher(_ context.Context, id uuid.UUID) (domain.Publisher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.publishers[id]
	if !ok || p.Deleted {
		return domain.Publisher{}, domain.NotFound("publisher", id.String())
	}
	return p, nil
}

func (s *Memory) PublisherByLegacyID(_ context.Context, supplierID int64) (domain.Publisher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.publishers {
		if p.LegacySupplierID != nil && *p.LegacySupplierID == supplierID {
			return p, nil
		}
	}
	return domain.Publisher{}, domain.NotFound("publisher", domain.LegacyRef(supplierID).String())
}

func (s *Memory) PublisherByName(_ context.Context, companyName string) (domain.Publisher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.publishers {
		if !p.Deleted && strings.EqualFold(p.CompanyName, companyName) {
			return p, nil
		}
	}
	return domain.Publisher{}, domain.NotFound("publisher", companyName)
}

func (s *Memory) ListPublishers(_ context.Context) ([]domain.Publisher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Publisher, 0, len(s.publishers))
	for _, p := range s.publishers {
		if !p.Deleted {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b domain.Publisher) int { return strings.Compare(a.CompanyName, b.CompanyName) })
	return out, nil
}

func (s *Memory) CreatePublisher(_ context.Context, p domain.Publisher) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkPublisherUniqueLocked(p); err != nil {
		return err
	}
	s.publishers[p.ID] = p
	return nil
}

func (s *Memory) UpdatePublisher(_ context.Context, p domain.Publisher) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.publishers[p.ID]
	if !ok || cur.Deleted {
		return domain.NotFound("publisher", p.ID.String())
	}
	p.LegacySupplierID = cur.LegacySupplierID
	if err := s.checkPublisherUniqueLocked(p); err != nil {
		return err
	}
	s.publishers[p.ID] = p
	return nil
}

func (s *Memory) checkPublisherUniqueLocked(p domain.Publisher) error {
	if p.LegacySupplierID != nil {
		for id, other := range s.publishers {
			if id != p.ID && other.LegacySupplierID != nil && *other.LegacySupplierID == *p.LegacySupplierID {
				return ErrLegacyConflict
			}
		}
	}
	for id, other := range s.publishers {
		if id == p.ID {
			continue
		}
		if !other.Deleted && strings.EqualFold(other.CompanyName, p.CompanyName) {
			return domain.DuplicateKey("companyName", p.CompanyName)
		}
	}
	return nil
}

func (s *Memory) DeletePublisher(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.publishers[id]
	if !ok || p.Deleted {
		return domain.NotFound("publisher", id.String())
	}
	p.Deleted = true
	s.publishers[id] = p
	return nil
}

// ── Platforms ──────────────────────────────────────────────────────────────

func (s *Memory) GetPlatform(_ context.Context, id uuid.UUID) (domain.Platform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.platforms[id]
	if !ok || p.Deleted {
		return domain.Platform{}, domain.NotFound("platform", id.String())
	}
	return p, nil
}

func (s *Memory) ListPlatforms(_ context.Context) ([]domain.Platform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Platform, 0, len(s.platforms))
	for _, p := range s.platforms {
		if !p.Deleted {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b domain.Platform) int { return strings.Compare(a.Type, b.Type) })
	return out, nil
}

func (s *Memory) CreatePlatform(_ context.Context, p domain.Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.platforms {
		if !other.Deleted && strings.EqualFold(other.Type, p.Type) {
			return domain.DuplicateKey("type", p.Type)
		}
	}
	s.platforms[p.ID] = p
	return nil
}

func (s *Memory) DeletePlatform(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.platforms[id]
	if !ok || p.Deleted {
		return domain.NotFound("platform", id.String())
	}
	p.Deleted = true
	s.platforms[id] = p
	return nil
}

// ── Orders ─────────────────────────────────────────────────────────────────

func (s *Memory) OpenOrder(_ context.Context, customerID string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[customerID]
	if !ok {
		return domain.Order{}, domain.NotFound("order", customerID)
	}
	o.Lines = slices.Clone(o.Lines)
	return o, nil
}

func (s *Memory) AddOrderLine(_ context.Context, customerID string, line domain.OrderLine) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[customerID]
	if !ok {
		o = domain.Order{ID: uuid.New(), CustomerID: customerID, CreatedAt: s.now()}
	}
	line.OrderID = o.ID
	merged := false
	for i := range o.Lines {
		if o.Lines[i].GameID == line.GameID {
			o.Lines[i].Quantity += line.Quantity
			o.Lines[i].Price = line.Price
			o.Lines[i].Discount = line.Discount
			merged = true
			break
		}
	}
	if !merged {
		o.Lines = append(o.Lines, line)
	}
	s.orders[customerID] = o
	o.Lines = slices.Clone(o.Lines)
	return o, nil
}

// ── helpers ────────────────────────────────────────────────────────────────

func (s *Memory) publisherNameLocked(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return s.publishers[*id].CompanyName
}

func cloneGame(g Game) Game {
	g.GenreIDs = slices.Clone(g.GenreIDs)
	g.PlatformIDs = slices.Clone(g.PlatformIDs)
	return g
}

func toSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func intersects(ids []uuid.UUID, set map[uuid.UUID]struct{}) bool {
	for _, id := range ids {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
