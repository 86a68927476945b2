package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/example/game-store/services/catalog/internal/domain"
)

// ErrLegacyConflict is returned by a create when another row already holds
// the same legacy back-reference.
var ErrLegacyConflict = errors.New("store: legacy back-reference already taken")

// Game is the primary-store representation of a sellable game.
type Game struct {
	ID              uuid.UUID
	Key             string
	Name            string
	Description     string
	Price           float64
	Discount        int
	UnitsInStock    int
	PublisherID     *uuid.UUID
	PublisherName   string
	GenreIDs        []uuid.UUID
	PlatformIDs     []uuid.UUID
	CreatedAt       time.Time
	Views           int64
	CommentCount    int
	Deleted         bool
	LegacyProductID *int64
}

// GameQuery is a lazily evaluated, composable query over primary games.
// Every method returns a new handle; nothing runs until Fetch.
type GameQuery interface {
	WithDeleted(include bool) GameQuery
	InGenres(ids []uuid.UUID) GameQuery
	OnPlatforms(ids []uuid.UUID) GameQuery
	ByPublisherNames(names []string) GameQuery
	MinPrice(p float64) GameQuery
	MaxPrice(p float64) GameQuery
	NameContains(s string) GameQuery
	CreatedSince(t time.Time) GameQuery
	// Fetch materializes the query and returns the rows with their count.
	Fetch(ctx context.Context) ([]Game, int, error)
}

// Store defines all persistence operations on the primary catalog store.
// Lookups by legacy id include soft-deleted rows.
type Store interface {
	// Game reads
	Games() GameQuery
	GetGame(ctx context.Context, id uuid.UUID) (Game, error)
	GetGameByKey(ctx context.Context, key string) (Game, error)
	GameByLegacyID(ctx context.Context, productID int64) (Game, error)

	// Game writes
	CreateGame(ctx context.Context, g Game) error
	UpdateGame(ctx context.Context, g Game) error
	DeleteGame(ctx context.Context, id uuid.UUID) error
	IncrementGameViews(ctx context.Context, id uuid.UUID) error
	// ApplyCommentDelta adds delta to the game's comment count, never going
	// below zero. It reports false without writing when eventID was already
	// applied.
	ApplyCommentDelta(ctx context.Context, eventID, subject string, gameID uuid.UUID, delta int) (bool, error)

	// Genres
	GetGenre(ctx context.Context, id uuid.UUID) (domain.Genre, error)
	GenreByLegacyID(ctx context.Context, categoryID int64) (domain.Genre, error)
	ListGenres(ctx context.Context) ([]domain.Genre, error)
	CreateGenre(ctx context.Context, g domain.Genre) error
	// UpdateGenre fails with GenreCycle when the new parent chain reaches g.
	// The check and the write are atomic.
	UpdateGenre(ctx context.Context, g domain.Genre) error
	DeleteGenre(ctx context.Context, id uuid.UUID) error

	// Publishers
	GetPublisher(ctx context.Context, id uuid.UUID) (domain.Publisher, error)
	PublisherByLegacyID(ctx context.Context, supplierID int64) (domain.Publisher, error)
	PublisherByName(ctx context.Context, companyName string) (domain.Publisher, error)
	ListPublishers(ctx context.Context) ([]domain.Publisher, error)
	CreatePublisher(ctx context.Context, p domain.Publisher) error
	UpdatePublisher(ctx context.Context, p domain.Publisher) error
	DeletePublisher(ctx context.Context, id uuid.UUID) error

	// Platforms
	GetPlatform(ctx context.Context, id uuid.UUID) (domain.Platform, error)
	ListPlatforms(ctx context.Context) ([]domain.Platform, error)
	CreatePlatform(ctx context.Context, p domain.Platform) error
	DeletePlatform(ctx context.Context, id uuid.UUID) error

	// Orders
	OpenOrder(ctx context.Context, customerID string) (domain.Order, error)
	AddOrderLine(ctx context.Context, customerID string, line domain.OrderLine) (domain.Order, error)
}

var (
	_ Store = (*Postgres)(nil)
	_ Store = (*Memory)(nil)
)

// parentChainReaches walks up from parent and reports whether it reaches id.
// The walk stops at a missing or soft-deleted ancestor.
func parentChainReaches(id uuid.UUID, parent *uuid.UUID, lookup func(uuid.UUID) (domain.Genre, bool)) bool {
	seen := map[uuid.UUID]bool{}
	for cur := parent; cur != nil; {
		if *cur == id {
			return true
		}
		if seen[*cur] {
			return false
		}
		seen[*cur] = true
		g, ok := lookup(*cur)
		if !ok || g.Deleted {
			return false
		}
		cur = g.ParentID
	}
	return false
}
