package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"webstore/internal/loader"
)

// EventPublisher publishes raw message bodies.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// ListingEvent is the message published for every settled listing load.
type ListingEvent struct {
	ActivationID string    `json:"activation_id"`
	Source       string    `json:"source"`
	Status       string    `json:"status"`
	ProductCount int       `json:"product_count"`
	DurationMs   int64     `json:"duration_ms"`
	Error        string    `json:"error,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// ListingService runs listing page activations against one product source.
type ListingService struct {
	source        loader.Source
	settleTimeout time.Duration
	observers     []loader.Observer
	publisher     EventPublisher
	routingKey    string

	pending sync.WaitGroup
}

// NewListingService creates a ListingService. publisher may be nil, in which
// case no events are published.
func NewListingService(source loader.Source, settleTimeout time.Duration, publisher EventPublisher, routingKey string, observers ...loader.Observer) *ListingService {
	return &ListingService{
		source:        source,
		settleTimeout: settleTimeout,
		observers:     observers,
		publisher:     publisher,
		routingKey:    routingKey,
	}
}

// SourceName reports which source the service loads from.
func (s *ListingService) SourceName() string {
	return s.source.Name()
}

// Activate creates the loader of a new page activation. The caller owns it
// and must Dispose it.
func (s *ListingService) Activate() *loader.Loader {
	opts := make([]loader.Option, 0, len(s.observers)+1)
	for _, o := range s.observers {
		opts = append(opts, loader.WithObserver(o))
	}
	opts = append(opts, loader.WithObserver(s.publishOutcome))
	return loader.New(s.source, opts...)
}

// LoadListing activates a page, waits until it settles, ctx is done or the
// settle timeout passes, then disposes it. An unsettled page yields Loading.
func (s *ListingService) LoadListing(ctx context.Context) loader.LoadState {
	page := s.Activate()
	defer page.Dispose()

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		<-page.Notified()
	}()

	if s.settleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.settleTimeout)
		defer cancel()
	}

	state := page.Load(ctx)
	if !state.Settled() {
		log.Printf("Page %s still loading from %s source after %s; rendering placeholder", page.ID(), s.source.Name(), s.settleTimeout)
	}
	return state
}

// Wait blocks until the observers of every page loaded so far have run,
// including pending event publishes.
func (s *ListingService) Wait() {
	s.pending.Wait()
}

func (s *ListingService) publishOutcome(o loader.Outcome) {
	if s.publisher == nil {
		return
	}

	event := ListingEvent{
		ActivationID: o.ActivationID,
		Source:       o.Source,
		Status:       o.Status.String(),
		ProductCount: o.Count,
		DurationMs:   o.Duration.Milliseconds(),
		OccurredAt:   time.Now().UTC(),
	}
	if o.Err != nil {
		event.Error = o.Err.Error()
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal listing event for page %s: %v", o.ActivationID, err)
		return
	}
	if err := s.publisher.Publish("", s.routingKey, body); err != nil {
		log.Printf("Warning: Failed to publish listing event for page %s: %v", o.ActivationID, err)
	}
}
