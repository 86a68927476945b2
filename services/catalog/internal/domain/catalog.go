// Package domain holds the catalog vocabulary shared by the stores, the query
// pipeline and the write services.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type Origin string

const (
	OriginPrimary Origin = "primary"
	OriginLegacy  Origin = "legacy"
)

// CatalogItem is the unified listing shape both stores project into.
type CatalogItem struct {
	ID            Ref       `json:"id"`
	Origin        Origin    `json:"origin"`
	Key           string    `json:"key"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Price         float64   `json:"price"`
	Discount      int       `json:"discount"`
	UnitsInStock  int       `json:"unitsInStock"`
	PublisherID   Ref       `json:"publisherId"`
	PublisherName string    `json:"publisherName,omitempty"`
	GenreIDs      []Ref     `json:"genreIds"`
	PlatformIDs   []Ref     `json:"platformIds"`
	CreatedAt     time.Time `json:"createdAt"`
	Views         int64     `json:"views"`
	CommentCount  int       `json:"commentCount"`
	Deleted       bool      `json:"deleted,omitempty"`

	// Legacy origin only.
	CopiedToPrimary bool       `json:"copiedToPrimary,omitempty"`
	PrimaryID       *uuid.UUID `json:"primaryId,omitempty"`
}

// Genre forms a tree through ParentID. A genre copied from a legacy category
// keeps the category id as back-reference.
type Genre struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	ParentID         *uuid.UUID `json:"parentId,omitempty"`
	LegacyCategoryID *int64     `json:"legacyCategoryId,omitempty"`
	Deleted          bool       `json:"deleted,omitempty"`
}

type Publisher struct {
	ID               uuid.UUID `json:"id"`
	CompanyName      string    `json:"companyName"`
	Description      string    `json:"description,omitempty"`
	HomePage         string    `json:"homePage,omitempty"`
	LegacySupplierID *int64    `json:"legacySupplierId,omitempty"`
	Deleted          bool      `json:"deleted,omitempty"`
}

type Platform struct {
	ID      uuid.UUID `json:"id"`
	Type    string    `json:"type"`
	Deleted bool      `json:"deleted,omitempty"`
}

type OrderLine struct {
	OrderID  uuid.UUID `json:"orderId"`
	GameID   uuid.UUID `json:"gameId"`
	Price    float64   `json:"price"`
	Quantity int       `json:"quantity"`
	Discount int       `json:"discount"`
}

// Order is a customer's open order.
type Order struct {
	ID         uuid.UUID   `json:"id"`
	CustomerID string      `json:"customerId"`
	Lines      []OrderLine `json:"lines"`
	CreatedAt  time.Time   `json:"createdAt"`
}
