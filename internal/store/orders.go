package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PGOrders implements Orders against PostgreSQL.
type PGOrders struct {
	db DBTX
}

// NewOrders returns an Orders repository backed by db.
func NewOrders(db DBTX) *PGOrders {
	return &PGOrders{db: db}
}

func (r *PGOrders) FindByID(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := r.db.QueryRow(ctx,
		`SELECT id, owner_id, order_number, status, created_at FROM orders WHERE id = $1`,
		id,
	).Scan(&o.ID, &o.OwnerID, &o.Number, &o.Status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find order by id: %w", err)
	}
	return &o, nil
}

func (r *PGOrders) FindByNumber(ctx context.Context, number string, ownerID int64) (*Order, error) {
	var o Order
	err := r.db.QueryRow(ctx,
		`SELECT id, owner_id, order_number, status, created_at
		 FROM orders WHERE order_number = $1 AND owner_id = $2`,
		number, ownerID,
	).Scan(&o.ID, &o.OwnerID, &o.Number, &o.Status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find order by number: %w", err)
	}
	return &o, nil
}

// CreatePlaceholder inserts a minimal order carrying only the natural key,
// the owner, and the imported status. A unique index on
// (owner_id, order_number) backs the resolver's catch-and-reselect path.
func (r *PGOrders) CreatePlaceholder(ctx context.Context, number string, ownerID int64) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO orders (owner_id, order_number, status, created_at)
		 VALUES ($1, $2, $3, now()) RETURNING id`,
		ownerID, number, StatusImported,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create placeholder order: %w", err)
	}
	return id, nil
}

func (r *PGOrders) ListByStatus(ctx context.Context, ownerID int64, status string) ([]Order, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, owner_id, order_number, status, created_at
		 FROM orders WHERE owner_id = $1 AND status = $2 ORDER BY id`,
		ownerID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.OwnerID, &o.Number, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
