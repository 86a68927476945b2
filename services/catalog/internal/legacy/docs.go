package legacy

import (
	"time"

	"github.com/google/uuid"
)

// Product is an imported Northwind product document.
type Product struct {
	ProductID       int64     `msgpack:"product_id" json:"productId"`
	ProductName     string    `msgpack:"product_name" json:"productName"`
	QuantityPerUnit string    `msgpack:"quantity_per_unit" json:"quantityPerUnit"`
	UnitPrice       float64   `msgpack:"unit_price" json:"unitPrice"`
	UnitsInStock    int       `msgpack:"units_in_stock" json:"unitsInStock"`
	Discontinued    bool      `msgpack:"discontinued" json:"discontinued"`
	CategoryID      int64     `msgpack:"category_id" json:"categoryId"`
	SupplierID      int64     `msgpack:"supplier_id" json:"supplierId"`
	AddedAt         time.Time `msgpack:"added_at" json:"addedAt"`
	Views           int64     `msgpack:"views" json:"views"`
	Deleted         bool      `msgpack:"deleted" json:"deleted"`
	CopiedToPrimary bool      `msgpack:"copied_to_primary" json:"copiedToPrimary"`
	PrimaryID       string    `msgpack:"primary_id,omitempty" json:"primaryId,omitempty"`

	// Filled by queries from the referenced documents.
	CategoryName      string `msgpack:"-" json:"-"`
	CategoryPrimaryID string `msgpack:"-" json:"-"`
	SupplierName      string `msgpack:"-" json:"-"`
}

type Category struct {
	CategoryID      int64  `msgpack:"category_id" json:"categoryId"`
	CategoryName    string `msgpack:"category_name" json:"categoryName"`
	Description     string `msgpack:"description" json:"description"`
	CopiedToPrimary bool   `msgpack:"copied_to_primary" json:"copiedToPrimary"`
	PrimaryID       string `msgpack:"primary_id,omitempty" json:"primaryId,omitempty"`
}

type Supplier struct {
	SupplierID      int64  `msgpack:"supplier_id" json:"supplierId"`
	CompanyName     string `msgpack:"company_name" json:"companyName"`
	HomePage        string `msgpack:"home_page" json:"homePage"`
	CopiedToPrimary bool   `msgpack:"copied_to_primary" json:"copiedToPrimary"`
	PrimaryID       string `msgpack:"primary_id,omitempty" json:"primaryId,omitempty"`
}

// Copy reports the primary row a document was copied to.
func (p Product) Copy() (uuid.UUID, bool)  { return copiedTo(p.CopiedToPrimary, p.PrimaryID) }
func (c Category) Copy() (uuid.UUID, bool) { return copiedTo(c.CopiedToPrimary, c.PrimaryID) }
func (s Supplier) Copy() (uuid.UUID, bool) { return copiedTo(s.CopiedToPrimary, s.PrimaryID) }

func copiedTo(copied bool, primaryID string) (uuid.UUID, bool) {
	if !copied {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(primaryID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
