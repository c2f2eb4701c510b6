// Package numbering produces the human-readable document numbers used by
// orders, delivery notes and invoices (CMD-20250115-0004, BL-20250115-0002,
// FACT2025010007).
package numbering

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Scope keys. Orders and delivery notes share one running count each across
// all dates; invoices are numbered within their calendar month.
const (
	ScopeOrder    = "commande"
	ScopeDelivery = "bon_livraison"
)

// InvoiceScope returns the per-month counter scope for invoices.
func InvoiceScope(date time.Time) string {
	return "facture:" + date.Format("200601")
}

// CountFunc reports how many documents already exist in a scope. It backs
// the non-Redis path and seeds the Redis counter on first use.
type CountFunc func(context.Context) (int64, error)

// Generator hands out 1-based sequence numbers per scope. With Redis
// configured the sequence comes from an atomic INCR, which makes concurrent
// creations race-free. Without Redis (or when Redis is down) it falls back
// to count+1; the store's unique constraint then backstops duplicates and
// the caller retries with a fresh count.
type Generator struct {
	rdb *redis.Client
}

// New builds a Generator. rdb may be nil.
func New(rdb *redis.Client) *Generator {
	return &Generator{rdb: rdb}
}

// Next returns the next sequence number for scope.
func (g *Generator) Next(ctx context.Context, scope string, count CountFunc) (int64, error) {
	if g.rdb != nil {
		if seq, err := g.nextRedis(ctx, scope, count); err == nil {
			return seq, nil
		}
		// Redis unavailable: degrade to the count-based path.
	}
	c, err := count(ctx)
	if err != nil {
		return 0, fmt.Errorf("numbering: count scope %s: %w", scope, err)
	}
	return c + 1, nil
}

func (g *Generator) nextRedis(ctx context.Context, scope string, count CountFunc) (int64, error) {
	key := "bestileo:seq:" + scope

	exists, err := g.rdb.Exists(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		c, err := count(ctx)
		if err != nil {
			return 0, err
		}
		// SetNX so two racing seeders cannot clobber each other.
		if err := g.rdb.SetNX(ctx, key, c, 0).Err(); err != nil {
			return 0, err
		}
	}

	return g.rdb.Incr(ctx, key).Result()
}

// OrderNumber formats an order number, e.g. CMD-20250115-0004.
func OrderNumber(date time.Time, seq int64) string {
	return fmt.Sprintf("CMD-%s-%04d", date.Format("20060102"), seq)
}

// DeliveryNumber formats a delivery note number, e.g. BL-20250115-0002.
func DeliveryNumber(date time.Time, seq int64) string {
	return fmt.Sprintf("BL-%s-%04d", date.Format("20060102"), seq)
}

// InvoiceNumber formats an invoice number, e.g. FACT2025010007. The running
// count restarts every calendar month.
func InvoiceNumber(date time.Time, seq int64) string {
	return fmt.Sprintf("FACT%s%04d", date.Format("200601"), seq)
}
