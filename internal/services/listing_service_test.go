package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"webstore/internal/loader"
	"webstore/internal/models"
	"webstore/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEventPublisher is a mock implementation of services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(exchange, routingKey string, body []byte) error {
	args := m.Called(exchange, routingKey, body)
	return args.Error(0)
}

// failingSource always fails.
type failingSource struct{}

func (failingSource) Name() string { return "failing" }

func (failingSource) Fetch(context.Context) ([]models.Product, error) {
	return nil, errors.New("catalog unreachable")
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestListingService_LoadListingSuccess(t *testing.T) {
	products := []models.Product{{ID: "1", Name: "Widget", Price: 9.99}}
	service := services.NewListingService(loader.NewMockSource(products, 0), time.Second, nil, "")

	state := service.LoadListing(context.Background())
	assert.Equal(t, loader.Success(products), state)
	assert.Equal(t, "mock", service.SourceName())
}

func TestListingService_LoadListingFailure(t *testing.T) {
	service := services.NewListingService(failingSource{}, time.Second, nil, "")

	state := service.LoadListing(context.Background())
	assert.Equal(t, loader.Failure("Failed to fetch products."), state)
}

func TestListingService_LoadListingTimesOutToLoading(t *testing.T) {
	service := services.NewListingService(loader.NewMockSource(nil, time.Hour), 20*time.Millisecond, nil, "")

	state := service.LoadListing(context.Background())
	assert.Equal(t, loader.StatusLoading, state.Status())
	service.Wait()
}

func TestListingService_SlowPublisherDoesNotDelayPage(t *testing.T) {
	release := make(chan struct{})
	publisher := new(MockEventPublisher)
	publisher.On("Publish", "", "events", mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(nil).Once()

	service := services.NewListingService(loader.NewMockSource(nil, 0), time.Second, publisher, "events")

	loaded := make(chan loader.LoadState, 1)
	go func() { loaded <- service.LoadListing(context.Background()) }()

	select {
	case state := <-loaded:
		assert.Equal(t, loader.StatusSuccess, state.Status())
	case <-time.After(5 * time.Second):
		t.Fatal("page waited for the event publish")
	}

	close(release)
	service.Wait()
	publisher.AssertExpectations(t)
}

func TestListingService_EachActivationIsIndependent(t *testing.T) {
	service := services.NewListingService(loader.NewMockSource(nil, 0), time.Second, nil, "")

	first := service.Activate()
	second := service.Activate()
	defer first.Dispose()
	defer second.Dispose()

	assert.NotEqual(t, first.ID(), second.ID())
}

func TestListingService_PublishesOutcome(t *testing.T) {
	publisher := new(MockEventPublisher)
	var published []byte
	publisher.On("Publish", "", "storefront_events", mock.AnythingOfType("[]uint8")).
		Run(func(args mock.Arguments) { published = args.Get(2).([]byte) }).
		Return(nil).Once()

	var observed loader.Outcome
	service := services.NewListingService(loader.NewMockSource(models.SampleProducts(), 0), time.Second,
		publisher, "storefront_events", func(o loader.Outcome) { observed = o })

	state := service.LoadListing(context.Background())
	require.Equal(t, loader.StatusSuccess, state.Status())
	service.Wait()
	publisher.AssertExpectations(t)

	var event services.ListingEvent
	require.NoError(t, json.Unmarshal(published, &event))
	assert.Equal(t, observed.ActivationID, event.ActivationID)
	assert.Equal(t, "mock", event.Source)
	assert.Equal(t, "success", event.Status)
	assert.Equal(t, len(models.SampleProducts()), event.ProductCount)
	assert.Empty(t, event.Error)
}

func TestListingService_PublishesFailureCause(t *testing.T) {
	publisher := new(MockEventPublisher)
	var published []byte
	publisher.On("Publish", "", "events", mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(2).([]byte) }).
		Return(nil).Once()

	service := services.NewListingService(failingSource{}, time.Second, publisher, "events")
	service.LoadListing(context.Background())
	service.Wait()
	publisher.AssertExpectations(t)

	var event services.ListingEvent
	require.NoError(t, json.Unmarshal(published, &event))
	assert.Equal(t, "error", event.Status)
	assert.Contains(t, event.Error, "catalog unreachable")
}

func TestListingService_PublishErrorDoesNotAffectState(t *testing.T) {
	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("channel closed")).Once()

	service := services.NewListingService(loader.NewMockSource(nil, 0), time.Second, publisher, "events")
	state := service.LoadListing(context.Background())

	assert.Equal(t, loader.StatusSuccess, state.Status())
	service.Wait()
	publisher.AssertExpectations(t)
}
