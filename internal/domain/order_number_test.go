package domain

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderNumberGenerator_Format(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	gen := NewOrderNumberGeneratorWith(
		func() time.Time { return at },
		func(n int) int { return 7 },
	)

	assert.Equal(t, fmt.Sprintf("ORD-%d-007", at.UnixMilli()), gen.Generate())
}

func TestOrderNumberGenerator_MatchesPattern(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-\d{13,}-\d{3}$`)
	gen := NewOrderNumberGenerator()

	for i := 0; i < 100; i++ {
		assert.Regexp(t, pattern, gen.Generate())
	}
}

func TestOrderNumberGenerator_Uniqueness(t *testing.T) {
	// Distinct millisecond buckets plus the random suffix: 10k generations
	// across an advancing clock must never collide.
	base := time.Now()
	tick := 0
	gen := NewOrderNumberGeneratorWith(
		func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Millisecond)
		},
		NewOrderNumberGenerator().intn,
	)

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		n := gen.Generate()
		_, dup := seen[n]
		assert.False(t, dup, "duplicate order number %s", n)
		seen[n] = struct{}{}
	}
	assert.Len(t, seen, 10000)
}
