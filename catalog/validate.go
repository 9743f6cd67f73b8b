package catalog

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

var notNil = validation.By(func(value any) error {
	if id, ok := value.(uuid.UUID); ok && id == uuid.Nil {
		return validation.ErrRequired
	}
	return nil
})

// Validate checks a store before it is written.
func (s *Store) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Name, validation.Required, validation.Length(1, 200)),
	)
}

// Validate checks a brand before it is written.
func (b *Brand) Validate() error {
	return validation.ValidateStruct(b,
		validation.Field(&b.StoreID, notNil),
		validation.Field(&b.Name, validation.Required, validation.Length(1, 200)),
	)
}

// Validate checks a category before it is written.
func (c *Category) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.StoreID, notNil),
		validation.Field(&c.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&c.ParentID, validation.By(func(value any) error {
			if c.ParentID != nil && *c.ParentID == c.ID {
				return validation.NewError("validation_parent_self", "cannot be the category itself")
			}
			return nil
		})),
	)
}

// Validate checks a product before it is written.
func (p *Product) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.StoreID, notNil),
		validation.Field(&p.Name, validation.Required, validation.Length(1, 300)),
		validation.Field(&p.Price, validation.Min(0.0)),
		validation.Field(&p.Stock, validation.Min(0)),
		validation.Field(&p.Status, validation.In(ProductActive, ProductDraft, ProductArchived)),
	)
}
