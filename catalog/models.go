package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Entity is implemented by every catalog model.
type Entity interface {
	EntityID() string
	EntityStoreID() string
	Validate() error

	setID(uuid.UUID)
	// prepare assigns an id when missing and applies column defaults.
	prepare()
	timestamps() (created, updated *time.Time)
}

// Store is a tenant. Every other entity belongs to exactly one store.
type Store struct {
	bun.BaseModel `bun:"table:stores,alias:s"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	OwnerID   string    `bun:"owner_id" json:"ownerId"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// Brand groups products of one manufacturer inside a store.
type Brand struct {
	bun.BaseModel `bun:"table:brands,alias:b"`

	ID          uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	StoreID     uuid.UUID `bun:"store_id,type:uuid,notnull" json:"storeId"`
	Name        string    `bun:"name,notnull" json:"name"`
	Description string    `bun:"description" json:"description"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`

	Store *Store `bun:"rel:belongs-to,join:store_id=id" json:"store,omitempty"`
}

// Category is a node of a store's category tree.
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:c"`

	ID          uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	StoreID     uuid.UUID  `bun:"store_id,type:uuid,notnull" json:"storeId"`
	ParentID    *uuid.UUID `bun:"parent_id,type:uuid" json:"parentId,omitempty"`
	Name        string     `bun:"name,notnull" json:"name"`
	Description string     `bun:"description" json:"description"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`

	Store  *Store    `bun:"rel:belongs-to,join:store_id=id" json:"store,omitempty"`
	Parent *Category `bun:"rel:belongs-to,join:parent_id=id" json:"parent,omitempty"`
}

// Product statuses.
const (
	ProductActive   = "active"
	ProductDraft    = "draft"
	ProductArchived = "archived"
)

// Product is a sellable item.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID          uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	StoreID     uuid.UUID  `bun:"store_id,type:uuid,notnull" json:"storeId"`
	BrandID     *uuid.UUID `bun:"brand_id,type:uuid" json:"brandId,omitempty"`
	CategoryID  *uuid.UUID `bun:"category_id,type:uuid" json:"categoryId,omitempty"`
	Name        string     `bun:"name,notnull" json:"name"`
	SKU         string     `bun:"sku" json:"sku"`
	Barcode     string     `bun:"barcode" json:"barcode"`
	Description string     `bun:"description" json:"description"`
	Price       float64    `bun:"price,notnull,default:0" json:"price"`
	Stock       int        `bun:"stock,notnull,default:0" json:"stock"`
	Status      string     `bun:"status,notnull,default:'active'" json:"status"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`

	Store    *Store    `bun:"rel:belongs-to,join:store_id=id" json:"store,omitempty"`
	Brand    *Brand    `bun:"rel:belongs-to,join:brand_id=id" json:"brand,omitempty"`
	Category *Category `bun:"rel:belongs-to,join:category_id=id" json:"category,omitempty"`
}

func (s *Store) EntityID() string      { return s.ID.String() }
func (s *Store) EntityStoreID() string { return s.ID.String() }
func (s *Store) setID(id uuid.UUID)    { s.ID = id }
func (s *Store) prepare()              { s.ID = ensure(s.ID) }
func (s *Store) timestamps() (*time.Time, *time.Time) {
	return &s.CreatedAt, &s.UpdatedAt
}

func (b *Brand) EntityID() string      { return b.ID.String() }
func (b *Brand) EntityStoreID() string { return b.StoreID.String() }
func (b *Brand) setID(id uuid.UUID)    { b.ID = id }
func (b *Brand) prepare()              { b.ID = ensure(b.ID) }
func (b *Brand) timestamps() (*time.Time, *time.Time) {
	return &b.CreatedAt, &b.UpdatedAt
}

func (c *Category) EntityID() string      { return c.ID.String() }
func (c *Category) EntityStoreID() string { return c.StoreID.String() }
func (c *Category) setID(id uuid.UUID)    { c.ID = id }
func (c *Category) prepare()              { c.ID = ensure(c.ID) }
func (c *Category) timestamps() (*time.Time, *time.Time) {
	return &c.CreatedAt, &c.UpdatedAt
}

func (p *Product) EntityID() string      { return p.ID.String() }
func (p *Product) EntityStoreID() string { return p.StoreID.String() }
func (p *Product) setID(id uuid.UUID)    { p.ID = id }
func (p *Product) prepare() {
	p.ID = ensure(p.ID)
	if p.Status == "" {
		p.Status = ProductActive
	}
}
func (p *Product) timestamps() (*time.Time, *time.Time) {
	return &p.CreatedAt, &p.UpdatedAt
}

func ensure(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}
