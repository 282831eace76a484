package cache

import (
	"context"
	"time"

	"github.com/bwise1/snapguide_api/internal/logging"
	"github.com/bwise1/snapguide_api/internal/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
)

type lookup struct {
	value []byte
	found bool
}

// BreakerBackend stops calling a failing backend for a while, so an outage
// costs one fast error per request instead of one timeout.
type BreakerBackend struct {
	next Backend
	cb   *gobreaker.CircuitBreaker[lookup]
}

type BreakerSettings struct {
	Name string
	// Failures is the number of consecutive errors that opens the breaker.
	Failures uint32
	// Cooldown is how long the breaker stays open.
	Cooldown time.Duration
}

func NewBreakerBackend(next Backend, s BreakerSettings) *BreakerBackend {
	if s.Name == "" {
		s.Name = "cache"
	}
	if s.Failures == 0 {
		s.Failures = 5
	}
	if s.Cooldown <= 0 {
		s.Cooldown = 30 * time.Second
	}
	metrics.CacheBreakerState.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[lookup](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     s.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.Failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("cache breaker state change")
			metrics.CacheBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	return &BreakerBackend{next: next, cb: cb}
}

func (b *BreakerBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := b.cb.Execute(func() (lookup, error) {
		v, found, err := b.next.Get(ctx, key)
		return lookup{value: v, found: found}, err
	})
	if err != nil {
		return nil, false, unavailable("get", err)
	}
	return res.value, res.found, nil
}

func (b *BreakerBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := b.cb.Execute(func() (lookup, error) {
		return lookup{}, b.next.Set(ctx, key, value, ttl)
	})
	if err != nil {
		return unavailable("set", err)
	}
	return nil
}

func (b *BreakerBackend) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerBackend) Close() error {
	return b.next.Close()
}
