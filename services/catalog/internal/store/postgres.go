package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/game-store/services/catalog/internal/domain"
)

// Outbox event types written alongside catalog mutations.
const (
	EventGameUpserted      = "catalog.game.upserted"
	EventGameDeleted       = "catalog.game.deleted"
	EventGenreUpserted     = "catalog.genre.upserted"
	EventGenreDeleted      = "catalog.genre.deleted"
	EventPublisherUpserted = "catalog.publisher.upserted"
	EventPublisherDeleted  = "catalog.publisher.deleted"
	EventPlatformUpserted  = "catalog.platform.upserted"
	EventPlatformDeleted   = "catalog.platform.deleted"
)

const pgUniqueViolation = "23505"

// Postgres is the production Store backed by a pgx pool.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ── Game query builder ─────────────────────────────────────────────────────

const selectGames = `
SELECT g.id::text, g.key, g.name, g.description, g.price::float8, g.discount, g.units_in_stock,
       g.publisher_id::text, COALESCE(p.company_name, ''),
       COALESCE((SELECT array_agg(gg.genre_id::text ORDER BY gg.position) FROM game_genres gg WHERE gg.game_id = g.id), '{}'),
       COALESCE((SELECT array_agg(gp.platform_id::text) FROM game_platforms gp WHERE gp.game_id = g.id), '{}'),
       g.created_at, g.views, g.comment_count, g.deleted, g.legacy_product_id
FROM games g
LEFT JOIN publishers p ON p.id = g.publisher_id`

type pgGameQuery struct {
	db             querier
	where          []string
	args           []any
	includeDeleted bool
}

func (s *Postgres) Games() GameQuery {
	return pgGameQuery{db: s.db}
}

// add appends a predicate; "?" in cond is replaced by the next placeholder.
func (q pgGameQuery) add(cond string, arg any) GameQuery {
	q.args = append(append([]any(nil), q.args...), arg)
	q.where = append(append([]string(nil), q.where...), strings.Replace(cond, "?", "$"+strconv.Itoa(len(q.args)), 1))
	return q
}

func (q pgGameQuery) WithDeleted(include bool) GameQuery {
	q.includeDeleted = include
	return q
}

func (q pgGameQuery) InGenres(ids []uuid.UUID) GameQuery {
	return q.add(`EXISTS (SELECT 1 FROM game_genres gg WHERE gg.game_id = g.id AND gg.genre_id = ANY(?::uuid[]))`, uuidStrings(ids))
}

func (q pgGameQuery) OnPlatforms(ids []uuid.UUID) GameQuery {
	return q.add(`EXISTS (SELECT 1 FROM game_platforms gp WHERE gp.game_id = g.id AND gp.platform_id = ANY(?::uuid[]))`, uuidStrings(ids))
}

func (q pgGameQuery) ByPublisherNames(names []string) GameQuery {
	lower := make([]string, 0, len(names))
	for _, n := range names {
		lower = append(lower, strings.ToLower(strings.TrimSpace(n)))
	}
	return q.add(`lower(p.company_name) = ANY(?::text[])`, lower)
}

func (q pgGameQuery) MinPrice(p float64) GameQuery {
	return q.add(`g.price >= ?`, p)
}

func (q pgGameQuery) MaxPrice(p float64) GameQuery {
	return q.add(`g.price <= ?`, p)
}

func (q pgGameQuery) NameContains(sub string) GameQuery {
	return q.add(`g.name ILIKE ?`, "%"+escapeLike(sub)+"%")
}

func (q pgGameQuery) CreatedSince(t time.Time) GameQuery {
	return q.add(`g.created_at >= ?`, t)
}

func (q pgGameQuery) SQL() (string, []any) {
	where := q.where
	if !q.includeDeleted {
		where = append([]string{"NOT g.deleted"}, where...)
	}
	sql := selectGames
	if len(where) > 0 {
		sql += "\nWHERE " + strings.Join(where, "\n  AND ")
	}
	return sql + "\nORDER BY g.created_at, g.id", q.args
}

func (q pgGameQuery) Fetch(ctx context.Context) ([]Game, int, error) {
	sql, args := q.SQL()
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var out []Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("query games: %w", err)
	}
	return out, len(out), nil
}

// ── Game reads ─────────────────────────────────────────────────────────────

func (s *Postgres) GetGame(ctx context.Context, id uuid.UUID) (Game, error) {
	return s.oneGame(ctx, `WHERE g.id = $1 AND NOT g.deleted`, []any{id.String()}, id.String())
}

func (s *Postgres) GetGameByKey(ctx context.Context, key string) (Game, error) {
	return s.oneGame(ctx, `WHERE g.key = $1 AND NOT g.deleted`, []any{key}, key)
}

func (s *Postgres) GameByLegacyID(ctx context.Context, productID int64) (Game, error) {
	return s.oneGame(ctx, `WHERE g.legacy_product_id = $1`, []any{productID}, domain.LegacyRef(productID).String())
}

func (s *Postgres) oneGame(ctx context.Context, where string, args []any, ref string) (Game, error) {
	g, err := scanGame(s.db.QueryRow(ctx, selectGames+"\n"+where, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Game{}, domain.NotFound("game", ref)
		}
		return Game{}, err
	}
	return g, nil
}

// ── Game writes ────────────────────────────────────────────────────────────

func (s *Postgres) CreateGame(ctx context.Context, g Game) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertGameSQL, insertGameArgs(g)...); err != nil {
			return mapUniqueErr(err, "key", g.Key)
		}
		if err := writeGameLinks(ctx, tx, g); err != nil {
			return err
		}
		return insertOutboxEvent(ctx, tx, EventGameUpserted, map[string]any{"game_id": g.ID.String()})
	})
}

// insertGameSQL writes views and deleted as given; copies of legacy
// products carry both.
const insertGameSQL = `
INSERT INTO games (id, key, name, description, price, discount, units_in_stock, publisher_id, created_at, views, deleted, legacy_product_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8::uuid,$9,$10,$11,$12)`

func insertGameArgs(g Game) []any {
	return []any{
		g.ID, g.Key, g.Name, g.Description, g.Price, g.Discount, g.UnitsInStock,
		uuidPtrString(g.PublisherID), g.CreatedAt, g.Views, g.Deleted, g.LegacyProductID,
	}
}

func (s *Postgres) UpdateGame(ctx context.Context, g Game) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
UPDATE games
SET key=$2, name=$3, description=$4, price=$5, discount=$6, units_in_stock=$7, publisher_id=$8::uuid, updated_at=now()
WHERE id=$1 AND NOT deleted`,
			g.ID, g.Key, g.Name, g.Description, g.Price, g.Discount, g.UnitsInStock, uuidPtrString(g.PublisherID),
		)
		if err != nil {
			return mapUniqueErr(err, "key", g.Key)
		}
		if tag.RowsAffected() == 0 {
			return domain.NotFound("game", g.ID.String())
		}
		if _, err := tx.Exec(ctx, `DELETE FROM game_genres WHERE game_id=$1`, g.ID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM game_platforms WHERE game_id=$1`, g.ID); err != nil {
			return err
		}
		if err := writeGameLinks(ctx, tx, g); err != nil {
			return err
		}
		return insertOutboxEvent(ctx, tx, EventGameUpserted, map[string]any{"game_id": g.ID.String()})
	})
}

func (s *Postgres) DeleteGame(ctx context.Context, id uuid.UUID) error {
	return s.softDelete(ctx, "games", "game", EventGameDeleted, id)
}

func (s *Postgres) IncrementGameViews(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `UPDATE games SET views = views + 1 WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("game", id.String())
	}
	return nil
}

func (s *Postgres) ApplyCommentDelta(ctx context.Context, eventID, subject string, gameID uuid.UUID, delta int) (bool, error) {
	applied := false
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO processed_events (event_id, subject) VALUES ($1,$2) ON CONFLICT (event_id) DO NOTHING`,
			eventID, subject)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		tag, err = tx.Exec(ctx,
			`UPDATE games SET comment_count = GREATEST(comment_count + $2, 0) WHERE id=$1`,
			gameID, delta)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.NotFound("game", gameID.String())
		}
		applied = true
		return nil
	})
	return applied, err
}

func writeGameLinks(ctx context.Context, tx pgx.Tx, g Game) error {
	for i, gid := range g.GenreIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO game_genres (game_id, genre_id, position) VALUES ($1,$2,$3) ON CONFLICT DO NOTHING`,
			g.ID, gid, i,
		); err != nil {
			return err
		}
	}
	for _, pid := range g.PlatformIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO game_platforms (game_id, platform_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
			g.ID, pid,
		); err != nil {
			return err
		}
	}
	return nil
}

// ── Genres ─────────────────────────────────────────────────────────────────

const selectGenres = `SELECT id::text, name, parent_id::text, legacy_category_id, deleted FROM genres`

func (s *Postgres) GetGenre(ctx context.Context, id uuid.UUID) (domain.Genre, error) {
	g, err := scanGenre(s.db.QueryRow(ctx, selectGenres+` WHERE id=$1 AND NOT deleted`, id))
	return g, notFound(err, "genre", id.String())
}

func (s *Postgres) GenreByLegacyID(ctx context.Context, categoryID int64) (domain.Genre, error) {
	g, err := scanGenre(s.db.QueryRow(ctx, selectGenres+` WHERE legacy_category_id=$1`, categoryID))
	return g, notFound(err, "genre", domain.LegacyRef(categoryID).String())
}

func (s *Postgres) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	rows, err := s.db.Query(ctx, selectGenres+` WHERE NOT deleted ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Genre
	for rows.Next() {
		g, err := scanGenre(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Postgres) CreateGenre(ctx context.Context, g domain.Genre) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO genres (id, name, parent_id, legacy_category_id) VALUES ($1,$2,$3::uuid,$4)`,
			g.ID, g.Name, uuidPtrString(g.ParentID), g.LegacyCategoryID,
		); err != nil {
			return mapUniqueErr(err, "name", g.Name)
		}
		return insertOutboxEvent(ctx, tx, EventGenreUpserted, map[string]any{"genre_id": g.ID.String()})
	})
}

// genreTreeLock serializes parent changes across instances.
const genreTreeLock = 0x67656e7265

// genreChainSQL reports whether walking up from $1 through live genres
// reaches $2.
const genreChainSQL = `
WITH RECURSIVE chain (id, parent_id) AS (
    SELECT id, parent_id FROM genres WHERE id = $1 AND NOT deleted
    UNION
    SELECT g.id, g.parent_id FROM genres g JOIN chain c ON g.id = c.parent_id WHERE NOT g.deleted
)
SELECT EXISTS (SELECT 1 FROM chain WHERE id = $2)`

func (s *Postgres) UpdateGenre(ctx context.Context, g domain.Genre) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if g.ParentID != nil {
			if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(genreTreeLock)); err != nil {
				return err
			}
			var cycle bool
			if err := tx.QueryRow(ctx, genreChainSQL, *g.ParentID, g.ID).Scan(&cycle); err != nil {
				return err
			}
			if cycle {
				return domain.GenreCycle(g.ID.String(), g.ParentID.String())
			}
		}
		tag, err := tx.Exec(ctx,
			`UPDATE genres SET name=$2, parent_id=$3::uuid WHERE id=$1 AND NOT deleted`,
			g.ID, g.Name, uuidPtrString(g.ParentID),
		)
		if err != nil {
			return mapUniqueErr(err, "name", g.Name)
		}
		if tag.RowsAffected() == 0 {
			return domain.NotFound("genre", g.ID.String())
		}
		return insertOutboxEvent(ctx, tx, EventGenreUpserted, map[string]any{"genre_id": g.ID.String()})
	})
}

func (s *Postgres) DeleteGenre(ctx context.Context, id uuid.UUID) error {
	return s.softDelete(ctx, "genres", "genre", EventGenreDeleted, id)
}

// ── Publishers ─────────────────────────────────────────────────────────────

const selectPublishers = `SELECT id::text, company_name, description, home_page, legacy_supplier_id, deleted FROM publishers`

func (s *Postgres) GetPublisher(ctx context.Context, id uuid.UUID) (domain.Publisher, error) {
	p, err := scanPublisher(s.db.QueryRow(ctx, selectPublishers+` WHERE id=$1 AND NOT deleted`, id))
	return p, notFound(err, "publisher", id.String())
}

func (s *Postgres) PublisherByLegacyID(ctx context.Context, supplierID int64) (domain.Publisher, error) {
	p, err := scanPublisher(s.db.QueryRow(ctx, selectPublishers+` WHERE legacy_supplier_id=$1`, supplierID))
	return p, notFound(err, "publisher", domain.LegacyRef(supplierID).String())
}

func (s *Postgres) PublisherByName(ctx context.Context, companyName string) (domain.Publisher, error) {
	p, err := scanPublisher(s.db.QueryRow(ctx,
		selectPublishers+` WHERE lower(company_name)=lower($1) AND NOT deleted`, companyName))
	return p, notFound(err, "publisher", companyName)
}

func (s *Postgres) ListPublishers(ctx context.Context) ([]domain.Publisher, error) {
	rows, err := s.db.Query(ctx, selectPublishers+` WHERE NOT deleted ORDER BY company_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Publisher
	for rows.Next() {
		p, err := scanPublisher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) CreatePublisher(ctx context.Context, p domain.Publisher) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO publishers (id, company_name, description, home_page, legacy_supplier_id) VALUES ($1,$2,$3,$4,$5)`,
			p.ID, p.CompanyName, p.Description, p.HomePage, p.LegacySupplierID,
		); err != nil {
			return mapUniqueErr(err, "companyName", p.CompanyName)
		}
		return insertOutboxEvent(ctx, tx, EventPublisherUpserted, map[string]any{"publisher_id": p.ID.String()})
	})
}

func (s *Postgres) UpdatePublisher(ctx context.Context, p domain.Publisher) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE publishers SET company_name=$2, description=$3, home_page=$4 WHERE id=$1 AND NOT deleted`,
			p.ID, p.CompanyName, p.Description, p.HomePage,
		)
		if err != nil {
			return mapUniqueErr(err, "companyName", p.CompanyName)
		}
		if tag.RowsAffected() == 0 {
			return domain.NotFound("publisher", p.ID.String())
		}
		return insertOutboxEvent(ctx, tx, EventPublisherUpserted, map[string]any{"publisher_id": p.ID.String()})
	})
}

func (s *Postgres) DeletePublisher(ctx context.Context, id uuid.UUID) error {
	return s.softDelete(ctx, "publishers", "publisher", EventPublisherDeleted, id)
}

// ── Platforms ──────────────────────────────────────────────────────────────

func (s *Postgres) GetPlatform(ctx context.Context, id uuid.UUID) (domain.Platform, error) {
	var p domain.Platform
	var idText string
	err := s.db.QueryRow(ctx, `SELECT id::text, type, deleted FROM platforms WHERE id=$1 AND NOT deleted`, id).
		Scan(&idText, &p.Type, &p.Deleted)
	if err != nil {
		return domain.Platform{}, notFound(err, "platform", id.String())
	}
	p.ID, err = uuid.Parse(idText)
	return p, err
}

func (s *Postgres) ListPlatforms(ctx context.Context) ([]domain.Platform, error) {
	rows, err := s.db.Query(ctx, `SELECT id::text, type FROM platforms WHERE NOT deleted ORDER BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Platform
	for rows.Next() {
		var p domain.Platform
		var idText string
		if err := rows.Scan(&idText, &p.Type); err != nil {
			return nil, err
		}
		if p.ID, err = uuid.Parse(idText); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) CreatePlatform(ctx context.Context, p domain.Platform) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO platforms (id, type) VALUES ($1,$2)`, p.ID, p.Type); err != nil {
			return mapUniqueErr(err, "type", p.Type)
		}
		return insertOutboxEvent(ctx, tx, EventPlatformUpserted, map[string]any{"platform_id": p.ID.String()})
	})
}

func (s *Postgres) DeletePlatform(ctx context.Context, id uuid.UUID) error {
	return s.softDelete(ctx, "platforms", "platform", EventPlatformDeleted, id)
}

// ── Orders ─────────────────────────────────────────────────────────────────

func (s *Postgres) OpenOrder(ctx context.Context, customerID string) (domain.Order, error) {
	return loadOpenOrder(ctx, s.db, customerID)
}

func (s *Postgres) AddOrderLine(ctx context.Context, customerID string, line domain.OrderLine) (domain.Order, error) {
	var order domain.Order
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var orderID uuid.UUID
		err := tx.QueryRow(ctx,
			`SELECT id FROM orders WHERE customer_id=$1 AND status='open' FOR UPDATE`, customerID,
		).Scan(&orderID)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			orderID = uuid.New()
			if _, err := tx.Exec(ctx,
				`INSERT INTO orders (id, customer_id, status, created_at) VALUES ($1,$2,'open',now())`,
				orderID, customerID,
			); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO order_lines (order_id, game_id, price, quantity, discount)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (order_id, game_id) DO UPDATE
SET quantity = order_lines.quantity + EXCLUDED.quantity, price = EXCLUDED.price, discount = EXCLUDED.discount`,
			orderID, line.GameID, line.Price, line.Quantity, line.Discount,
		); err != nil {
			return err
		}
		order, err = loadOpenOrder(ctx, tx, customerID)
		return err
	})
	return order, err
}

func loadOpenOrder(ctx context.Context, q querier, customerID string) (domain.Order, error) {
	var o domain.Order
	var idText string
	err := q.QueryRow(ctx,
		`SELECT id::text, customer_id, created_at FROM orders WHERE customer_id=$1 AND status='open'`, customerID,
	).Scan(&idText, &o.CustomerID, &o.CreatedAt)
	if err != nil {
		return domain.Order{}, notFound(err, "order", customerID)
	}
	if o.ID, err = uuid.Parse(idText); err != nil {
		return domain.Order{}, err
	}
	rows, err := q.Query(ctx,
		`SELECT game_id::text, price::float8, quantity, discount FROM order_lines WHERE order_id=$1 ORDER BY game_id`, o.ID)
	if err != nil {
		return domain.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		l := domain.OrderLine{OrderID: o.ID}
		var gameID string
		if err := rows.Scan(&gameID, &l.Price, &l.Quantity, &l.Discount); err != nil {
			return domain.Order{}, err
		}
		if l.GameID, err = uuid.Parse(gameID); err != nil {
			return domain.Order{}, err
		}
		o.Lines = append(o.Lines, l)
	}
	return o, rows.Err()
}

// ── helpers ────────────────────────────────────────────────────────────────

func (s *Postgres) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("db begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Postgres) softDelete(ctx context.Context, table, entity, event string, id uuid.UUID) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE `+table+` SET deleted = true WHERE id=$1 AND NOT deleted`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.NotFound(entity, id.String())
		}
		return insertOutboxEvent(ctx, tx, event, map[string]any{entity + "_id": id.String()})
	})
}

func insertOutboxEvent(ctx context.Context, tx pgx.Tx, eventType string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO catalog_outbox (id, event_type, payload) VALUES ($1,$2,$3)`,
		uuid.New(), eventType, b,
	)
	return err
}

// mapUniqueErr turns unique violations into ErrLegacyConflict (back-reference
// columns) or a DuplicateKey on field.
func mapUniqueErr(err error, field, value string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		if strings.Contains(pgErr.ConstraintName, "legacy") {
			return ErrLegacyConflict
		}
		return domain.DuplicateKey(field, value)
	}
	return err
}

func notFound(err error, entity, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFound(entity, id)
	}
	return err
}

func scanGame(row pgx.Row) (Game, error) {
	var (
		g         Game
		id        string
		publisher *string
		genres    []string
		platforms []string
	)
	if err := row.Scan(&id, &g.Key, &g.Name, &g.Description, &g.Price, &g.Discount, &g.UnitsInStock,
		&publisher, &g.PublisherName, &genres, &platforms,
		&g.CreatedAt, &g.Views, &g.CommentCount, &g.Deleted, &g.LegacyProductID); err != nil {
		return Game{}, err
	}
	var err error
	if g.ID, err = uuid.Parse(id); err != nil {
		return Game{}, err
	}
	if g.PublisherID, err = parseUUIDPtr(publisher); err != nil {
		return Game{}, err
	}
	if g.GenreIDs, err = parseUUIDs(genres); err != nil {
		return Game{}, err
	}
	if g.PlatformIDs, err = parseUUIDs(platforms); err != nil {
		return Game{}, err
	}
	return g, nil
}

func scanGenre(row pgx.Row) (domain.Genre, error) {
	var g domain.Genre
	var id string
	var parent *string
	if err := row.Scan(&id, &g.Name, &parent, &g.LegacyCategoryID, &g.Deleted); err != nil {
		return domain.Genre{}, err
	}
	var err error
	if g.ID, err = uuid.Parse(id); err != nil {
		return domain.Genre{}, err
	}
	g.ParentID, err = parseUUIDPtr(parent)
	return g, err
}

func scanPublisher(row pgx.Row) (domain.Publisher, error) {
	var p domain.Publisher
	var id string
	if err := row.Scan(&id, &p.CompanyName, &p.Description, &p.HomePage, &p.LegacySupplierID, &p.Deleted); err != nil {
		return domain.Publisher{}, err
	}
	var err error
	p.ID, err = uuid.Parse(id)
	return p, err
}

func parseUUIDPtr(s *string) (*uuid.UUID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseUUIDs(in []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(in))
	for _, s := range in {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
