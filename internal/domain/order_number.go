package domain

import (
	"fmt"
	"math/rand"
	"time"
)

// OrderNumberGenerator produces human-readable order numbers of the form
// ORD-<millisSinceEpoch>-<3-digit random suffix>. The result is effectively
// unique under normal request rates; true uniqueness is enforced by the
// unique index on orders.order_number, and the creation path retries once
// with a fresh number on a collision.
type OrderNumberGenerator struct {
	now  func() time.Time
	intn func(n int) int
}

// NewOrderNumberGenerator returns a generator backed by the system clock and
// the shared math/rand source.
func NewOrderNumberGenerator() *OrderNumberGenerator {
	return &OrderNumberGenerator{now: time.Now, intn: rand.Intn}
}

// NewOrderNumberGeneratorWith allows the clock and random source to be
// injected for deterministic tests.
func NewOrderNumberGeneratorWith(now func() time.Time, intn func(n int) int) *OrderNumberGenerator {
	return &OrderNumberGenerator{now: now, intn: intn}
}

// Generate returns a new order number.
func (g *OrderNumberGenerator) Generate() string {
	return fmt.Sprintf("ORD-%d-%03d", g.now().UnixMilli(), g.intn(1000))
}
