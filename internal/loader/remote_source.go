package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"webstore/internal/models"

	"github.com/go-playground/validator/v10"
)

// maxResponseBytes caps how much of a catalog response is read.
const maxResponseBytes = 8 << 20

// RemoteConfig configures a RemoteSource.
type RemoteConfig struct {
	// BaseURL is the catalog API root; "/products" is appended to it.
	BaseURL string
}

// productRecord is the wire shape of one catalog entry. Pointer fields let
// validation tell a missing field apart from a zero value; "", 0 and
// negative prices are all present values.
type productRecord struct {
	ID    *models.ProductID `json:"id" validate:"required"`
	Name  *string           `json:"name" validate:"required"`
	Price *float64          `json:"price" validate:"required"`
}

// RemoteSource loads products with a single GET against the catalog API.
type RemoteSource struct {
	endpoint string
	client   *http.Client
	validate *validator.Validate
}

// NewRemoteSource creates a RemoteSource. A nil client means
// http.DefaultClient, so only the transport's own timeouts apply.
func NewRemoteSource(cfg RemoteConfig, client *http.Client) *RemoteSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteSource{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/products",
		client:   client,
		validate: validator.New(),
	}
}

func (s *RemoteSource) Name() string { return "remote" }

// Endpoint returns the URL requested by Fetch.
func (s *RemoteSource) Endpoint() string { return s.endpoint }

// Fetch issues one GET request and decodes the response. Any failure is
// wrapped in ErrFetchFailed; a partially valid body is a total failure.
func (s *RemoteSource) Fetch(ctx context.Context) ([]models.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request for %s: %w", ErrFetchFailed, s.endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrFetchFailed, s.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("%w: GET %s: unexpected status %d", ErrFetchFailed, s.endpoint, resp.StatusCode)
	}

	products, err := s.decode(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrFetchFailed, s.endpoint, err)
	}
	return products, nil
}

func (s *RemoteSource) decode(r io.Reader) ([]models.Product, error) {
	var records []productRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding products: %w", err)
	}
	if records == nil {
		return nil, fmt.Errorf("decoding products: expected a JSON array")
	}

	products := make([]models.Product, 0, len(records))
	seen := make(map[models.ProductID]struct{}, len(records))
	for i, rec := range records {
		if err := s.validate.Struct(rec); err != nil {
			return nil, fmt.Errorf("product at index %d: %w", i, err)
		}
		if _, dup := seen[*rec.ID]; dup {
			return nil, fmt.Errorf("product at index %d: duplicate id %q", i, *rec.ID)
		}
		seen[*rec.ID] = struct{}{}
		products = append(products, models.Product{
			ID:    *rec.ID,
			Name:  *rec.Name,
			Price: *rec.Price,
		})
	}
	return products, nil
}
