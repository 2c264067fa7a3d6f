package loader

import "webstore/internal/models"

// FetchFailedMessage is the only user-visible failure text. Every source
// failure collapses into it.
const FetchFailedMessage = "Failed to fetch products."

// Status identifies which variant a LoadState holds.
type Status int

const (
	StatusLoading Status = iota
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// LoadState is the tri-state result of a product load. The zero value is
// Loading.
type LoadState struct {
	status   Status
	products []models.Product
	message  string
}

// Loading returns the initial state.
func Loading() LoadState {
	return LoadState{status: StatusLoading}
}

// Success returns a terminal state holding a copy of products.
func Success(products []models.Product) LoadState {
	cp := make([]models.Product, len(products))
	copy(cp, products)
	return LoadState{status: StatusSuccess, products: cp}
}

// Failure returns a terminal error state carrying message.
func Failure(message string) LoadState {
	return LoadState{status: StatusError, message: message}
}

func (s LoadState) Status() Status { return s.status }

// Settled reports whether the state is terminal.
func (s LoadState) Settled() bool { return s.status != StatusLoading }

// Products returns a copy of the loaded collection; nil unless Success.
func (s LoadState) Products() []models.Product {
	if s.status != StatusSuccess {
		return nil
	}
	cp := make([]models.Product, len(s.products))
	copy(cp, s.products)
	return cp
}

// Message returns the error message; empty unless Error.
func (s LoadState) Message() string { return s.message }
