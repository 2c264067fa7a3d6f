package loader

import (
	"context"
	"time"

	"webstore/internal/models"
)

// DefaultMockDelay is the artificial latency of MockSource.
const DefaultMockDelay = 500 * time.Millisecond

// MockSource serves a bundled product list after a fixed delay. It never
// fails; a cancelled context only stops the wait.
type MockSource struct {
	products []models.Product
	delay    time.Duration
}

// NewMockSource creates a MockSource. A nil products slice means
// models.SampleProducts(); a negative delay is treated as zero.
func NewMockSource(products []models.Product, delay time.Duration) *MockSource {
	if products == nil {
		products = models.SampleProducts()
	}
	if delay < 0 {
		delay = 0
	}
	cp := make([]models.Product, len(products))
	copy(cp, products)
	return &MockSource{products: cp, delay: delay}
}

func (s *MockSource) Name() string { return "mock" }

// Fetch waits for the configured delay and returns a copy of the products.
func (s *MockSource) Fetch(ctx context.Context) ([]models.Product, error) {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}
