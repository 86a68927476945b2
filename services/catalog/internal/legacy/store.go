// Package legacy is the embedded document store holding imported Northwind
// records that have not been migrated into the primary store yet.
package legacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/example/game-store/services/catalog/internal/domain"
)

// Key prefixes. Ids are zero padded so prefix scans return them in id order.
const (
	productPrefix  = "product/"
	categoryPrefix = "category/"
	supplierPrefix = "supplier/"
)

// ErrCopiedElsewhere is returned when a document is already flagged as copied
// to a different primary row.
var ErrCopiedElsewhere = errors.New("legacy: document already copied to another primary row")

// Store wraps a Badger database holding msgpack-encoded documents.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the document store at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	return open(opts)
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func productKey(id int64) []byte  { return []byte(fmt.Sprintf("%s%020d", productPrefix, id)) }
func categoryKey(id int64) []byte { return []byte(fmt.Sprintf("%s%020d", categoryPrefix, id)) }
func supplierKey(id int64) []byte { return []byte(fmt.Sprintf("%s%020d", supplierPrefix, id)) }

// ── Reads ──────────────────────────────────────────────────────────────────

func (s *Store) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := s.view(ctx, func(txn *badger.Txn) error {
		if err := getDoc(txn, productKey(id), &p); err != nil {
			return err
		}
		var sup Supplier
		if err := getDoc(txn, supplierKey(p.SupplierID), &sup); err == nil {
			p.SupplierName = sup.CompanyName
		}
		var cat Category
		if err := getDoc(txn, categoryKey(p.CategoryID), &cat); err == nil {
			p.CategoryName = cat.CategoryName
		}
		return nil
	})
	return p, notFound(err, "product", id)
}

func (s *Store) GetCategory(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := s.view(ctx, func(txn *badger.Txn) error { return getDoc(txn, categoryKey(id), &c) })
	return c, notFound(err, "category", id)
}

func (s *Store) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	var sup Supplier
	err := s.view(ctx, func(txn *badger.Txn) error { return getDoc(txn, supplierKey(id), &sup) })
	return sup, notFound(err, "supplier", id)
}

func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := s.view(ctx, func(txn *badger.Txn) error {
		return scanPrefix(txn, categoryPrefix, func(c Category) bool {
			out = append(out, c)
			return true
		})
	})
	return out, err
}

func (s *Store) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	var out []Supplier
	err := s.view(ctx, func(txn *badger.Txn) error {
		return scanPrefix(txn, supplierPrefix, func(sup Supplier) bool {
			out = append(out, sup)
			return true
		})
	})
	return out, err
}

// ── Writes ─────────────────────────────────────────────────────────────────

// PutProduct stores or replaces a product document. Used by the import path.
func (s *Store) PutProduct(ctx context.Context, p Product) error {
	return s.update(ctx, func(txn *badger.Txn) error { return setDoc(txn, productKey(p.ProductID), p) })
}

func (s *Store) PutCategory(ctx context.Context, c Category) error {
	return s.update(ctx, func(txn *badger.Txn) error { return setDoc(txn, categoryKey(c.CategoryID), c) })
}

func (s *Store) PutSupplier(ctx context.Context, sup Supplier) error {
	return s.update(ctx, func(txn *badger.Txn) error { return setDoc(txn, supplierKey(sup.SupplierID), sup) })
}

// MarkProductCopied flags the product as copied to primaryID. Marking the
// same target twice is a no-op; a different target is ErrCopiedElsewhere.
func (s *Store) MarkProductCopied(ctx context.Context, id int64, primaryID uuid.UUID) error {
	return markCopied(ctx, s, productKey(id), "product", id, primaryID, func(p *Product) (*bool, *string) {
		return &p.CopiedToPrimary, &p.PrimaryID
	})
}

func (s *Store) MarkCategoryCopied(ctx context.Context, id int64, primaryID uuid.UUID) error {
	return markCopied(ctx, s, categoryKey(id), "category", id, primaryID, func(c *Category) (*bool, *string) {
		return &c.CopiedToPrimary, &c.PrimaryID
	})
}

func (s *Store) MarkSupplierCopied(ctx context.Context, id int64, primaryID uuid.UUID) error {
	return markCopied(ctx, s, supplierKey(id), "supplier", id, primaryID, func(sup *Supplier) (*bool, *string) {
		return &sup.CopiedToPrimary, &sup.PrimaryID
	})
}

func markCopied[T any](ctx context.Context, s *Store, key []byte, entity string, id int64, primaryID uuid.UUID, flag func(*T) (*bool, *string)) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		var doc T
		if err := getDoc(txn, key, &doc); err != nil {
			return err
		}
		copied, ref := flag(&doc)
		if *copied {
			if *ref == primaryID.String() {
				return nil
			}
			return ErrCopiedElsewhere
		}
		*copied = true
		*ref = primaryID.String()
		return setDoc(txn, key, doc)
	})
	return notFound(err, entity, id)
}

// SoftDeleteProduct hides a product from listings.
func (s *Store) SoftDeleteProduct(ctx context.Context, id int64) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		var p Product
		if err := getDoc(txn, productKey(id), &p); err != nil {
			return err
		}
		if p.Deleted {
			return badger.ErrKeyNotFound
		}
		p.Deleted = true
		return setDoc(txn, productKey(id), p)
	})
	return notFound(err, "product", id)
}

// ── helpers ────────────────────────────────────────────────────────────────

func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(fn)
}

func getDoc(txn *badger.Txn, key []byte, dest any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return msgpack.Unmarshal(val, dest)
	})
}

func setDoc(txn *badger.Txn, key []byte, doc any) error {
	data, err := msgpack.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return txn.Set(key, data)
}

// scanPrefix decodes every document under prefix in key order until fn
// returns false.
func scanPrefix[T any](txn *badger.Txn, prefix string, fn func(T) bool) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		var doc T
		if err := it.Item().Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &doc)
		}); err != nil {
			return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
		}
		if !fn(doc) {
			return nil
		}
	}
	return nil
}

func notFound(err error, entity string, id int64) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.NotFound("legacy "+entity, domain.LegacyRef(id).String())
	}
	return err
}
