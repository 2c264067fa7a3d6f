package loader

import (
	"context"
	"errors"

	"webstore/internal/models"
)

// ErrFetchFailed wraps every source failure.
var ErrFetchFailed = errors.New("fetch failed")

// Source produces the product collection for one page activation.
type Source interface {
	// Name labels the source in logs and metrics.
	Name() string
	Fetch(ctx context.Context) ([]models.Product, error)
}
