// Package resolve turns natural-key values from imported rows into internal
// entity ids, synthesizing placeholder entities when the reference would
// otherwise be lost.
package resolve

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/ledoux/bakehouse/internal/store"
)

// Status classifies a resolution outcome.
type Status int

const (
	// Matched means an existing entity was found.
	Matched Status = iota
	// Created means a placeholder entity was synthesized for the key.
	Created
	// Failed means no entity was found and none could be created.
	Failed
)

// Resolution is the per-row outcome. A Failed resolution stops the row
// before transformation; Matched and Created supply the foreign key.
type Resolution struct {
	Status   Status
	EntityID int64
	Reason   string
}

// Resolver resolves order references for one import batch. The batch-scoped
// cache serializes resolve-or-create per natural key, so two rows sharing an
// unresolved key get the same placeholder instead of two.
//
// Resolution is additive-only: entities are never deleted or merged here.
type Resolver struct {
	orders store.Orders
	create bool

	mu    sync.Mutex
	cache map[string]int64
}

// NewResolver returns a Resolver for a single batch. When createPlaceholders
// is false, unknown keys resolve to Failed instead of synthesizing an order.
func NewResolver(orders store.Orders, createPlaceholders bool) *Resolver {
	return &Resolver{
		orders: orders,
		create: createPlaceholders,
		cache:  make(map[string]int64),
	}
}

// Resolve finds the order referenced by key, scoped to ownerID. Lookup order:
// internal numeric id, then order number, then placeholder creation when
// enabled. The whole check-then-act runs under the batch lock.
func (r *Resolver) Resolve(ctx context.Context, key string, ownerID int64) Resolution {
	key = strings.TrimSpace(key)
	if key == "" {
		return Resolution{Status: Failed, Reason: "order reference is empty"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.cache[key]; ok {
		return Resolution{Status: Matched, EntityID: id}
	}

	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		order, err := r.orders.FindByID(ctx, id)
		if err != nil {
			return Resolution{Status: Failed, Reason: err.Error()}
		}
		if order != nil {
			r.cache[key] = order.ID
			return Resolution{Status: Matched, EntityID: order.ID}
		}
	}

	order, err := r.orders.FindByNumber(ctx, key, ownerID)
	if err != nil {
		return Resolution{Status: Failed, Reason: err.Error()}
	}
	if order != nil {
		r.cache[key] = order.ID
		return Resolution{Status: Matched, EntityID: order.ID}
	}

	if !r.create {
		return Resolution{Status: Failed, Reason: fmt.Sprintf("order %q not found", key)}
	}

	id, err := r.orders.CreatePlaceholder(ctx, key, ownerID)
	if err != nil {
		// Another batch may have created the same order concurrently; the
		// unique index on (owner_id, order_number) turns that race into a
		// reselect.
		if store.IsUniqueViolation(err) {
			order, ferr := r.orders.FindByNumber(ctx, key, ownerID)
			if ferr == nil && order != nil {
				r.cache[key] = order.ID
				return Resolution{Status: Matched, EntityID: order.ID}
			}
		}
		return Resolution{Status: Failed, Reason: fmt.Sprintf("create placeholder for %q: %v", key, err)}
	}

	r.cache[key] = id
	return Resolution{Status: Created, EntityID: id}
}
