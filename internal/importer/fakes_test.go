package importer

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ledoux/bakehouse/internal/store"
)

// In-memory repositories standing in for the PostgreSQL layer. They honor
// the same contracts the live implementations do, including the unique
// violation on (owner_id, order_number).

type fakeOrders struct {
	mu     sync.Mutex
	nextID int64
	orders []store.Order
}

func (f *fakeOrders) add(o store.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, o)
	if o.ID > f.nextID {
		f.nextID = o.ID
	}
}

func (f *fakeOrders) FindByID(_ context.Context, id int64) (*store.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.orders {
		if f.orders[i].ID == id {
			o := f.orders[i]
			return &o, nil
		}
	}
	return nil, nil
}

func (f *fakeOrders) FindByNumber(_ context.Context, number string, ownerID int64) (*store.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.orders {
		if f.orders[i].Number == number && f.orders[i].OwnerID == ownerID {
			o := f.orders[i]
			return &o, nil
		}
	}
	return nil, nil
}

func (f *fakeOrders) CreatePlaceholder(_ context.Context, number string, ownerID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.orders {
		if f.orders[i].Number == number && f.orders[i].OwnerID == ownerID {
			return 0, &pgconn.PgError{Code: "23505", ConstraintName: "orders_owner_number_key"}
		}
	}
	f.nextID++
	f.orders = append(f.orders, store.Order{
		ID:      f.nextID,
		OwnerID: ownerID,
		Number:  number,
		Status:  store.StatusImported,
	})
	return f.nextID, nil
}

func (f *fakeOrders) ListByStatus(_ context.Context, ownerID int64, status string) ([]store.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Order
	for _, o := range f.orders {
		if o.OwnerID == ownerID && o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakeQuotes struct {
	mu     sync.Mutex
	nextID int64
	rows   []store.QuoteParams
}

func (f *fakeQuotes) Insert(_ context.Context, p store.QuoteParams) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.rows = append(f.rows, p)
	return f.nextID, nil
}

type fakeOrderItems struct {
	mu     sync.Mutex
	nextID int64
	rows   []store.OrderItemParams

	// beforeInsert, when set, runs outside the lock so tests can inject
	// failures or block a commit mid-flight.
	beforeInsert func(store.OrderItemParams) error
}

func (f *fakeOrderItems) Insert(_ context.Context, p store.OrderItemParams) (int64, error) {
	if f.beforeInsert != nil {
		if err := f.beforeInsert(p); err != nil {
			return 0, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.rows = append(f.rows, p)
	return f.nextID, nil
}

type fakeExpenses struct {
	mu     sync.Mutex
	nextID int64
	rows   []store.ExpenseParams
}

func (f *fakeExpenses) Insert(_ context.Context, p store.ExpenseParams) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.rows = append(f.rows, p)
	return f.nextID, nil
}

type testEnv struct {
	orders   *fakeOrders
	quotes   *fakeQuotes
	items    *fakeOrderItems
	expenses *fakeExpenses
	svc      *Service
}

func newTestEnv(cfg Config) *testEnv {
	env := &testEnv{
		orders:   &fakeOrders{},
		quotes:   &fakeQuotes{},
		items:    &fakeOrderItems{},
		expenses: &fakeExpenses{},
	}
	env.svc = NewService(Stores{
		Orders:     env.orders,
		Quotes:     env.quotes,
		OrderItems: env.items,
		Expenses:   env.expenses,
	}, cfg)
	return env
}
