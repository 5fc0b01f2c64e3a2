package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"itemservice/pkg/item"
)

// Schema creates the items table used by Repository.
const Schema = `CREATE TABLE IF NOT EXISTS items (
	id BIGSERIAL PRIMARY KEY,
	item_name TEXT NOT NULL,
	price BIGINT NOT NULL,
	quantity BIGINT NOT NULL
)`

// widenColumns upgrades tables created when price and quantity were INT.
const widenColumns = `ALTER TABLE items
	ALTER COLUMN price TYPE BIGINT,
	ALTER COLUMN quantity TYPE BIGINT`

// Repository persists items in PostgreSQL.
type Repository struct {
	db *sql.DB
}

// New creates a PostgreSQL repository.
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the items table if it is missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create items table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, widenColumns); err != nil {
		return fmt.Errorf("widen items columns: %w", err)
	}
	return nil
}

// Save inserts a new item and returns it with the generated id.
func (r *Repository) Save(ctx context.Context, it item.Item) (item.Item, error) {
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO items (item_name,price,quantity) VALUES ($1,$2,$3) RETURNING id",
		it.ItemName, it.Price, it.Quantity).Scan(&it.ID)
	if err != nil {
		return item.Item{}, fmt.Errorf("insert item: %w", err)
	}
	return it, nil
}

// FindByID retrieves an item by ID.
func (r *Repository) FindByID(ctx context.Context, id int64) (item.Item, error) {
	var it item.Item
	err := r.db.QueryRowContext(ctx, "SELECT id,item_name,price,quantity FROM items WHERE id=$1", id).
		Scan(&it.ID, &it.ItemName, &it.Price, &it.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return item.Item{}, item.ErrNotFound
	}
	if err != nil {
		return item.Item{}, fmt.Errorf("select item %d: %w", id, err)
	}
	return it, nil
}

// FindAll fetches all items ordered by id, which is insertion order.
func (r *Repository) FindAll(ctx context.Context) ([]item.Item, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id,item_name,price,quantity FROM items ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	defer rows.Close()
	items := []item.Item{}
	for rows.Next() {
		var it item.Item
		if err := rows.Scan(&it.ID, &it.ItemName, &it.Price, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Update updates an existing item.
func (r *Repository) Update(ctx context.Context, id int64, values item.Item) error {
	res, err := r.db.ExecContext(ctx, "UPDATE items SET item_name=$2, price=$3, quantity=$4 WHERE id=$1",
		id, values.ItemName, values.Price, values.Quantity)
	if err != nil {
		return fmt.Errorf("update item %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return item.ErrNotFound
	}
	return nil
}

// ClearStore empties the table and restarts the id sequence.
func (r *Repository) ClearStore(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "TRUNCATE items RESTART IDENTITY"); err != nil {
		return fmt.Errorf("truncate items: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
