// Package store is the single persistence layer for the back office. Each
// entity gets one repository interface implemented once against PostgreSQL;
// the import pipeline depends only on these interfaces.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// StatusImported marks orders synthesized during import to preserve a
// reference from the predecessor system. They are visibly flagged for
// operator review rather than silently dropped.
const StatusImported = "imported"

// Order is a customer order. Imported line-items and quotes reference it by
// its human-facing Number when the internal id is unknown to the source file.
type Order struct {
	ID        int64
	OwnerID   int64
	Number    string
	Status    string
	CreatedAt time.Time
}

// Orders looks up and creates orders. Find methods return (nil, nil) when no
// matching row exists.
type Orders interface {
	FindByID(ctx context.Context, id int64) (*Order, error)
	FindByNumber(ctx context.Context, number string, ownerID int64) (*Order, error)
	CreatePlaceholder(ctx context.Context, number string, ownerID int64) (int64, error)
	ListByStatus(ctx context.Context, ownerID int64, status string) ([]Order, error)
}

// QuoteParams is the insertable form of a quote. ValidUntilRaw keeps the
// source text when the date could not be parsed, for manual correction.
type QuoteParams struct {
	OwnerID       int64
	OrderID       int64
	Description   pgtype.Text
	QuotedPrice   pgtype.Numeric
	ValidUntil    pgtype.Date
	ValidUntilRaw pgtype.Text
	Notes         pgtype.Text
}

// Quotes persists quotes.
type Quotes interface {
	Insert(ctx context.Context, p QuoteParams) (int64, error)
}

// OrderItemParams is the insertable form of an order line item.
type OrderItemParams struct {
	OwnerID     int64
	OrderID     int64
	Description pgtype.Text
	Quantity    pgtype.Numeric
	SellPrice   pgtype.Numeric
	CostPrice   pgtype.Numeric
}

// OrderItems persists order line items.
type OrderItems interface {
	Insert(ctx context.Context, p OrderItemParams) (int64, error)
}

// ExpenseParams is the insertable form of an expense.
type ExpenseParams struct {
	OwnerID     int64
	Supplier    pgtype.Text
	Description pgtype.Text
	Amount      pgtype.Numeric
	ExpenseDate pgtype.Date
}

// Expenses persists expenses.
type Expenses interface {
	Insert(ctx context.Context, p ExpenseParams) (int64, error)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
