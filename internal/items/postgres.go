package items

import (
	"context"
	"database/sql"
	"fmt"

	"item-service/internal/db"
	"item-service/internal/store"
)

type PostgresStore struct {
	db *db.DB
}

func NewPostgresStore(db *db.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) List(ctx context.Context) ([]Item, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, description, price::text, created_at, updated_at
		FROM items
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	out := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Item, error) {
	var it Item
	err := p.db.QueryRowContext(ctx, `
		SELECT id, name, description, price::text, created_at, updated_at
		FROM items
		WHERE id = $1
	`, id).Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.CreatedAt, &it.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (p *PostgresStore) Create(ctx context.Context, name, description, price string) (*Item, error) {
	var it Item
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO items (name, description, price)
		VALUES ($1, $2, $3::numeric)
		RETURNING id, name, description, price::text, created_at, updated_at
	`, name, description, price).Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.CreatedAt, &it.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return &it, nil
}

func (p *PostgresStore) Update(ctx context.Context, id, name, description, price string) (*Item, error) {
	var it Item
	err := p.db.QueryRowContext(ctx, `
		UPDATE items
		SET name = $2, description = $3, price = $4::numeric, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, description, price::text, created_at, updated_at
	`, id, name, description, price).Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.CreatedAt, &it.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return &it, nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
