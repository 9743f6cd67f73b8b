package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search/query"
)

// Entity types. Stores are not searchable.
const (
	TypeStore    = "store"
	TypeBrand    = "brand"
	TypeCategory = "category"
	TypeProduct  = "product"
)

// StoreField is the document field carrying the owning store.
const StoreField = "storeId"

func entityID[E Entity](e E) string  { return e.EntityID() }
func storeIDOf[E Entity](e E) string { return e.EntityStoreID() }

func timestamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func optionalID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func storeRef(s *Store) any {
	if s == nil {
		return nil
	}
	return map[string]any{"id": s.ID.String(), "name": s.Name}
}

// BrandDescriptor maps brands onto the "brands" index.
func BrandDescriptor() search.Descriptor[*Brand] {
	return search.Descriptor[*Brand]{
		EntityType: TypeBrand,
		TextFields: []search.TextField{
			{Name: "name", Boost: 3},
			{Name: "description", Boost: 1},
		},
		DateFields: []string{"createdAt"},
		StoreField: StoreField,
		SortField:  "name",
		ID:         entityID[*Brand],
		StoreID:    storeIDOf[*Brand],
		Flatten:    FlattenBrand,
	}
}

// FlattenBrand projects a brand into its search document.
func FlattenBrand(b *Brand) query.Document {
	return query.Document{
		"id":          b.ID.String(),
		StoreField:    b.StoreID.String(),
		"name":        b.Name,
		"description": b.Description,
		"createdAt":   timestamp(b.CreatedAt),
		"store":       storeRef(b.Store),
	}
}

// CategoryDescriptor maps categories onto the "categories" index.
func CategoryDescriptor() search.Descriptor[*Category] {
	return search.Descriptor[*Category]{
		EntityType: TypeCategory,
		TextFields: []search.TextField{
			{Name: "name", Boost: 3},
			{Name: "description", Boost: 1},
		},
		KeywordFields: []string{"parentId"},
		DateFields:    []string{"createdAt"},
		StoreField:    StoreField,
		SortField:     "name",
		ID:            entityID[*Category],
		StoreID:       storeIDOf[*Category],
		Flatten:       FlattenCategory,
	}
}

// FlattenCategory projects a category into its search document.
func FlattenCategory(c *Category) query.Document {
	var parent any
	if c.Parent != nil {
		parent = map[string]any{"id": c.Parent.ID.String(), "name": c.Parent.Name}
	}
	return query.Document{
		"id":          c.ID.String(),
		StoreField:    c.StoreID.String(),
		"parentId":    optionalID(c.ParentID),
		"name":        c.Name,
		"description": c.Description,
		"createdAt":   timestamp(c.CreatedAt),
		"parent":      parent,
		"store":       storeRef(c.Store),
	}
}

// ProductDescriptor maps products onto the "products" index. Brand and
// category names are searchable through their display sub-objects.
func ProductDescriptor() search.Descriptor[*Product] {
	return search.Descriptor[*Product]{
		EntityType: TypeProduct,
		TextFields: []search.TextField{
			{Name: "name", Boost: 3},
			{Name: "sku", Boost: 2},
			{Name: "barcode", Boost: 2},
			{Name: "description", Boost: 1},
			{Name: "brand.name", Boost: 1},
			{Name: "category.name", Boost: 1},
		},
		KeywordFields: []string{"status", "brandId", "categoryId"},
		NumericFields: []string{"price", "stock"},
		DateFields:    []string{"createdAt"},
		StoreField:    StoreField,
		SortField:     "name",
		ID:            entityID[*Product],
		StoreID:       storeIDOf[*Product],
		Flatten:       FlattenProduct,
	}
}

// FlattenProduct projects a product into its search document.
func FlattenProduct(p *Product) query.Document {
	var brand, category any
	if p.Brand != nil {
		brand = map[string]any{"id": p.Brand.ID.String(), "name": p.Brand.Name}
	}
	if p.Category != nil {
		category = map[string]any{"id": p.Category.ID.String(), "name": p.Category.Name}
	}
	return query.Document{
		"id":          p.ID.String(),
		StoreField:    p.StoreID.String(),
		"brandId":     optionalID(p.BrandID),
		"categoryId":  optionalID(p.CategoryID),
		"name":        p.Name,
		"sku":         p.SKU,
		"barcode":     p.Barcode,
		"description": p.Description,
		"price":       p.Price,
		"stock":       p.Stock,
		"status":      p.Status,
		"createdAt":   timestamp(p.CreatedAt),
		"brand":       brand,
		"category":    category,
		"store":       storeRef(p.Store),
	}
}
