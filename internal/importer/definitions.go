package importer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ledoux/bakehouse/internal/mapping"
	"github.com/ledoux/bakehouse/internal/schema"
	"github.com/ledoux/bakehouse/internal/store"
	"github.com/ledoux/bakehouse/internal/transform"
)

// Stores bundles the repositories a commit writes through.
type Stores struct {
	Orders     store.Orders
	Quotes     store.Quotes
	OrderItems store.OrderItems
	Expenses   store.Expenses
}

// Definition is everything the generic pipeline needs to import one kind of
// record. The pipeline itself is kind-agnostic; a Definition instantiates it.
type Definition struct {
	Key   string
	Label string

	Fields []schema.FieldSpec

	// NaturalKeyField names the field whose value is resolved against
	// orders before transformation. Empty means the kind has no
	// cross-reference and the resolver never runs.
	NaturalKeyField string

	// CreatePlaceholders allows the resolver to synthesize an order for an
	// unknown natural key instead of failing the row.
	CreatePlaceholders bool

	Insert func(ctx context.Context, st Stores, ownerID int64, rec *transform.Record) (int64, error)
}

// MapFields converts the definition's field specs to the mapper's view.
func (d Definition) MapFields() []mapping.Field {
	out := make([]mapping.Field, len(d.Fields))
	for i, f := range d.Fields {
		out[i] = mapping.Field{DBField: f.DBField, DisplayName: f.DisplayName, Required: f.Required}
	}
	return out
}

var (
	registry   = make(map[string]Definition)
	registryMu sync.RWMutex
)

// Register adds a definition to the registry. Panics if the key is taken or
// a dbField repeats within the set.
func Register(def Definition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Key]; exists {
		panic(fmt.Sprintf("import kind already registered: %s", def.Key))
	}
	seen := make(map[string]bool, len(def.Fields))
	for _, f := range def.Fields {
		if seen[f.DBField] {
			panic(fmt.Sprintf("duplicate dbField %q in kind %s", f.DBField, def.Key))
		}
		seen[f.DBField] = true
	}

	registry[def.Key] = def
}

// Lookup returns a definition by key.
func Lookup(key string) (Definition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	def, ok := registry[key]
	return def, ok
}

// Kinds returns the registered kind keys, sorted.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	Register(Definition{
		Key:                "quotes",
		Label:              "Quotes",
		Fields:             schema.QuoteFields,
		NaturalKeyField:    "order_number",
		CreatePlaceholders: true,
		Insert:             insertQuote,
	})
	Register(Definition{
		Key:                "order-items",
		Label:              "Order Items",
		Fields:             schema.OrderItemFields,
		NaturalKeyField:    "order_number",
		CreatePlaceholders: true,
		Insert:             insertOrderItem,
	})
	Register(Definition{
		Key:    "expenses",
		Label:  "Expenses",
		Fields: schema.ExpenseFields,
		Insert: insertExpense,
	})
}

func insertQuote(ctx context.Context, st Stores, ownerID int64, rec *transform.Record) (int64, error) {
	p := store.QuoteParams{
		OwnerID:     ownerID,
		OrderID:     rec.EntityID,
		Description: store.ToPgText(rec.Fields["description"].Text),
		QuotedPrice: store.ToPgNumeric(rec.Fields["quoted_price"].Number),
		Notes:       store.ToPgText(rec.Fields["notes"].Text),
	}
	if v := rec.Fields["valid_until"]; v.DateValid {
		p.ValidUntil = store.ToPgDate(v.Date)
	} else {
		p.ValidUntilRaw = store.ToPgText(v.Text)
	}
	return st.Quotes.Insert(ctx, p)
}

func insertOrderItem(ctx context.Context, st Stores, ownerID int64, rec *transform.Record) (int64, error) {
	return st.OrderItems.Insert(ctx, store.OrderItemParams{
		OwnerID:     ownerID,
		OrderID:     rec.EntityID,
		Description: store.ToPgText(rec.Fields["description"].Text),
		Quantity:    store.ToPgNumeric(rec.Fields["quantity"].Number),
		SellPrice:   store.ToPgNumeric(rec.Fields["sell_price"].Number),
		CostPrice:   store.ToPgNumeric(rec.Fields["cost_price"].Number),
	})
}

func insertExpense(ctx context.Context, st Stores, ownerID int64, rec *transform.Record) (int64, error) {
	return st.Expenses.Insert(ctx, store.ExpenseParams{
		OwnerID:     ownerID,
		Supplier:    store.ToPgText(rec.Fields["supplier"].Text),
		Description: store.ToPgText(rec.Fields["description"].Text),
		Amount:      store.ToPgNumeric(rec.Fields["amount"].Number),
		ExpenseDate: store.ToPgDate(rec.Fields["expense_date"].Date),
	})
}
