package store

import (
	"context"
	"fmt"
)

// PGQuotes implements Quotes against PostgreSQL.
type PGQuotes struct {
	db DBTX
}

func NewQuotes(db DBTX) *PGQuotes {
	return &PGQuotes{db: db}
}

func (r *PGQuotes) Insert(ctx context.Context, p QuoteParams) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO quotes (owner_id, order_id, description, quoted_price, valid_until, valid_until_raw, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now()) RETURNING id`,
		p.OwnerID, p.OrderID, p.Description, p.QuotedPrice, p.ValidUntil, p.ValidUntilRaw, p.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert quote: %w", err)
	}
	return id, nil
}

// PGOrderItems implements OrderItems against PostgreSQL.
type PGOrderItems struct {
	db DBTX
}

func NewOrderItems(db DBTX) *PGOrderItems {
	return &PGOrderItems{db: db}
}

func (r *PGOrderItems) Insert(ctx context.Context, p OrderItemParams) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO order_items (owner_id, order_id, description, quantity, sell_price, cost_price, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now()) RETURNING id`,
		p.OwnerID, p.OrderID, p.Description, p.Quantity, p.SellPrice, p.CostPrice,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert order item: %w", err)
	}
	return id, nil
}

// PGExpenses implements Expenses against PostgreSQL.
type PGExpenses struct {
	db DBTX
}

func NewExpenses(db DBTX) *PGExpenses {
	return &PGExpenses{db: db}
}

func (r *PGExpenses) Insert(ctx context.Context, p ExpenseParams) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO expenses (owner_id, supplier, description, amount, expense_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, now()) RETURNING id`,
		p.OwnerID, p.Supplier, p.Description, p.Amount, p.ExpenseDate,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	return id, nil
}
