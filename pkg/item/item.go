package item

import (
	"context"
	"errors"
)

// Item is a purchasable product. ID is zero until a Repository saves it.
type Item struct {
	ID       int64  `json:"id,omitempty"`
	ItemName string `json:"itemName"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
}

// New returns an unsaved item.
func New(name string, price, quantity int) Item {
	return Item{ItemName: name, Price: price, Quantity: quantity}
}

// Saved reports whether the item has been assigned an id.
func (i Item) Saved() bool {
	return i.ID != 0
}

// Repository defines behavior for storing items.
//
// Save assigns the next id regardless of any id already set on the item.
// FindAll returns items in the order they were saved. Update replaces
// ItemName, Price and Quantity and never changes the id.
type Repository interface {
	Save(ctx context.Context, it Item) (Item, error)
	FindByID(ctx context.Context, id int64) (Item, error)
	FindAll(ctx context.Context) ([]Item, error)
	Update(ctx context.Context, id int64, values Item) error
	ClearStore(ctx context.Context) error
}

// ErrNotFound indicates the requested item does not exist.
var ErrNotFound = errors.New("item not found")
