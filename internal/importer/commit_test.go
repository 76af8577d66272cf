package importer

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ledoux/bakehouse/internal/mapping"
	"github.com/ledoux/bakehouse/internal/store"
	"github.com/ledoux/bakehouse/internal/tabular"
)

func mustParse(t *testing.T, raw string) *tabular.Table {
	t.Helper()
	table, err := tabular.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return table
}

func mustLookup(t *testing.T, kind string) Definition {
	t.Helper()
	def, ok := Lookup(kind)
	if !ok {
		t.Fatalf("kind %q not registered", kind)
	}
	return def
}

func TestRunBatchPartialSuccess(t *testing.T) {
	env := newTestEnv(Config{CommitWorkers: 2})
	env.orders.add(store.Order{ID: 1001, OwnerID: 7, Number: "SO-1001", Status: "active"})

	table := mustParse(t, "order_id,description,sell_price\n1001,Choc cake,45.00\nABC,,bad")
	m := mapping.Mapping{
		"order_number": "order_id",
		"description":  "description",
		"quantity":     "",
		"sell_price":   "sell_price",
		"cost_price":   "",
	}
	def := mustLookup(t, "order-items")
	def.CreatePlaceholders = false

	out := env.svc.runBatch(context.Background(), def, table, m, 7)

	if out.SuccessCount != 1 || out.FailureCount != 1 {
		t.Fatalf("got %d/%d success/failure, want 1/1", out.SuccessCount, out.FailureCount)
	}
	if len(out.Failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(out.Failures))
	}
	f := out.Failures[0]
	if f.RowIndex != 2 {
		t.Errorf("failure row = %d, want 2", f.RowIndex)
	}
	if !strings.Contains(f.Message, "not found") {
		t.Errorf("failure message = %q, want order-not-found", f.Message)
	}
	if f.Raw["order_id"] != "ABC" {
		t.Errorf("failure raw order_id = %q, want ABC", f.Raw["order_id"])
	}

	if len(env.items.rows) != 1 {
		t.Fatalf("got %d inserted items, want 1", len(env.items.rows))
	}
	item := env.items.rows[0]
	if item.OrderID != 1001 {
		t.Errorf("item order id = %d, want 1001", item.OrderID)
	}
	if item.Description.String != "Choc cake" {
		t.Errorf("item description = %q, want Choc cake", item.Description.String)
	}
	price, err := item.SellPrice.Float64Value()
	if err != nil || price.Float64 != 45 {
		t.Errorf("item sell price = %v (err %v), want 45", price.Float64, err)
	}
	if len(out.CreatedIDs) != 1 {
		t.Errorf("got %d created ids, want 1", len(out.CreatedIDs))
	}
}

func TestRunBatchOrdersFailuresByRow(t *testing.T) {
	env := newTestEnv(Config{CommitWorkers: 5})

	var b strings.Builder
	b.WriteString("Order Number,Description\n")
	var wantFailed []int
	for i := 1; i <= 20; i++ {
		if i%3 == 0 {
			// Empty required description fails the row in transformation.
			fmt.Fprintf(&b, "B-%d,\n", i)
			wantFailed = append(wantFailed, i)
		} else {
			fmt.Fprintf(&b, "B-%d,Item %d\n", i, i)
		}
	}

	table := mustParse(t, b.String())
	m := mapping.Mapping{
		"order_number": "Order Number",
		"description":  "Description",
		"quantity":     "",
		"sell_price":   "",
		"cost_price":   "",
	}

	out := env.svc.runBatch(context.Background(), mustLookup(t, "order-items"), table, m, 3)

	if out.SuccessCount+out.FailureCount != 20 {
		t.Fatalf("success+failure = %d, want 20", out.SuccessCount+out.FailureCount)
	}
	if out.FailureCount != len(wantFailed) {
		t.Fatalf("got %d failures, want %d", out.FailureCount, len(wantFailed))
	}
	for i, f := range out.Failures {
		if f.RowIndex != wantFailed[i] {
			t.Fatalf("failures[%d].RowIndex = %d, want %d (order must follow the file, not the workers)",
				i, f.RowIndex, wantFailed[i])
		}
	}

	// Every row resolved its order number before transformation, so failed
	// rows still leave their placeholder behind.
	if len(env.orders.orders) != 20 {
		t.Errorf("got %d placeholder orders, want 20", len(env.orders.orders))
	}
}

func TestRunBatchCapturesInsertFailure(t *testing.T) {
	env := newTestEnv(Config{})
	env.items.beforeInsert = func(p store.OrderItemParams) error {
		if p.Description.String == "Bad" {
			return fmt.Errorf("connection reset")
		}
		return nil
	}

	table := mustParse(t, "Order Number,Description\nB-1,Good\nB-2,Bad")
	m := mapping.Mapping{
		"order_number": "Order Number",
		"description":  "Description",
		"quantity":     "",
		"sell_price":   "",
		"cost_price":   "",
	}

	out := env.svc.runBatch(context.Background(), mustLookup(t, "order-items"), table, m, 3)

	if out.SuccessCount != 1 || out.FailureCount != 1 {
		t.Fatalf("got %d/%d success/failure, want 1/1", out.SuccessCount, out.FailureCount)
	}
	f := out.Failures[0]
	if f.RowIndex != 2 {
		t.Errorf("failure row = %d, want 2", f.RowIndex)
	}
	if !strings.HasPrefix(f.Message, "insert:") {
		t.Errorf("failure message = %q, want insert prefix", f.Message)
	}
}

func TestRunBatchExpensesSkipResolver(t *testing.T) {
	env := newTestEnv(Config{})

	table := mustParse(t, "Supplier,Description,Amount,Date\nMill & Co,Flour,£450.00,15/04/2025")
	m := mapping.Mapping{
		"supplier":     "Supplier",
		"description":  "Description",
		"amount":       "Amount",
		"expense_date": "Date",
	}

	out := env.svc.runBatch(context.Background(), mustLookup(t, "expenses"), table, m, 3)

	if out.SuccessCount != 1 || out.FailureCount != 0 {
		t.Fatalf("got %d/%d success/failure, want 1/0", out.SuccessCount, out.FailureCount)
	}
	if len(env.orders.orders) != 0 {
		t.Errorf("expense import touched the orders store")
	}

	p := env.expenses.rows[0]
	if p.Supplier.String != "Mill & Co" {
		t.Errorf("supplier = %q, want Mill & Co", p.Supplier.String)
	}
	amount, err := p.Amount.Float64Value()
	if err != nil || amount.Float64 != 450 {
		t.Errorf("amount = %v (err %v), want 450", amount.Float64, err)
	}
	want := time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC)
	if !p.ExpenseDate.Valid || !p.ExpenseDate.Time.Equal(want) {
		t.Errorf("expense date = %v (valid %v), want %v", p.ExpenseDate.Time, p.ExpenseDate.Valid, want)
	}
}

func TestRunBatchExpenseBadDateFailsRow(t *testing.T) {
	env := newTestEnv(Config{})

	table := mustParse(t, "Supplier,Description,Amount,Date\nMill & Co,Flour,450,sometime soon")
	m := mapping.Mapping{
		"supplier":     "Supplier",
		"description":  "Description",
		"amount":       "Amount",
		"expense_date": "Date",
	}

	out := env.svc.runBatch(context.Background(), mustLookup(t, "expenses"), table, m, 3)

	if out.SuccessCount != 0 || out.FailureCount != 1 {
		t.Fatalf("got %d/%d success/failure, want 0/1", out.SuccessCount, out.FailureCount)
	}
	if !strings.Contains(out.Failures[0].Message, "unparsable date") {
		t.Errorf("failure message = %q, want unparsable date", out.Failures[0].Message)
	}
}

func TestRunBatchQuoteKeepsRawDate(t *testing.T) {
	env := newTestEnv(Config{})

	table := mustParse(t, "Order Number,Quoted Price,Valid Until\nQ-1,120.00,01/12/2025\nQ-2,80.00,soonish")
	m := mapping.Mapping{
		"order_number": "Order Number",
		"description":  "",
		"quoted_price": "Quoted Price",
		"valid_until":  "Valid Until",
		"notes":        "",
	}

	out := env.svc.runBatch(context.Background(), mustLookup(t, "quotes"), table, m, 3)

	if out.SuccessCount != 2 {
		t.Fatalf("got %d successes, want 2 (failures: %+v)", out.SuccessCount, out.Failures)
	}

	parsed, raw := env.quotes.rows[0], env.quotes.rows[1]
	if parsed.OrderID == raw.OrderID {
		// Row order in the fake may vary with worker scheduling; identify
		// by which quote carries a parsed date.
		t.Fatalf("quotes resolved to the same order")
	}
	if parsed.ValidUntil.Valid == raw.ValidUntil.Valid {
		t.Fatalf("exactly one quote should carry a parsed date")
	}
	if !parsed.ValidUntil.Valid {
		parsed, raw = raw, parsed
	}

	want := time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)
	if !parsed.ValidUntil.Time.Equal(want) {
		t.Errorf("parsed valid_until = %v, want %v", parsed.ValidUntil.Time, want)
	}
	if parsed.ValidUntilRaw.Valid {
		t.Errorf("parsed quote should not keep raw date text")
	}
	if !raw.ValidUntilRaw.Valid || raw.ValidUntilRaw.String != "soonish" {
		t.Errorf("raw valid_until = %q (valid %v), want soonish kept for correction",
			raw.ValidUntilRaw.String, raw.ValidUntilRaw.Valid)
	}
	if raw.ValidUntil.Valid {
		t.Errorf("unparsable date must insert as NULL, got %v", raw.ValidUntil.Time)
	}
}
