package items

import (
	"context"
	"time"
)

// Item is the single domain resource. Price is carried as a decimal
// string so clients get exact values, not floats.
type Item struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store persists items. Get, Update and Delete return store.ErrNotFound
// for unknown ids.
type Store interface {
	List(ctx context.Context) ([]Item, error)
	Get(ctx context.Context, id string) (*Item, error)
	Create(ctx context.Context, name, description, price string) (*Item, error)
	Update(ctx context.Context, id, name, description, price string) (*Item, error)
	Delete(ctx context.Context, id string) error
}
