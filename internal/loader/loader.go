package loader

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Outcome describes a load that settled while its page was still active.
type Outcome struct {
	ActivationID string
	Source       string
	Status       Status
	Count        int
	Duration     time.Duration
	Err          error
}

// Observer is notified once per settled load. Observers run on the loader's
// goroutine after Done is closed, so a slow observer never delays Load.
type Observer func(Outcome)

// Option configures a Loader.
type Option func(*Loader)

// WithObserver registers an observer for the settled outcome.
func WithObserver(o Observer) Option {
	return func(l *Loader) {
		if o != nil {
			l.observers = append(l.observers, o)
		}
	}
}

// WithActivationID overrides the generated activation ID.
func WithActivationID(id string) Option {
	return func(l *Loader) {
		if id != "" {
			l.id = id
		}
	}
}

// Loader owns the LoadState of one listing page activation. It fetches at
// most once and commits at most one terminal state. After Dispose, a late
// completion is dropped and the in-flight fetch is cancelled.
type Loader struct {
	id        string
	source    Source
	observers []Observer

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    LoadState
	started  bool
	disposed bool

	done     chan struct{}
	doneOnce sync.Once

	notified     chan struct{}
	notifiedOnce sync.Once
}

// New creates a Loader in the Loading state. Nothing is fetched until Start
// or Load is called.
func New(source Source, opts ...Option) *Loader {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loader{
		id:     uuid.New().String(),
		source: source,
		ctx:    ctx,
		cancel: cancel,
		state:    Loading(),
		done:     make(chan struct{}),
		notified: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ID returns the activation ID used in logs and events.
func (l *Loader) ID() string { return l.id }

// State returns the current state.
func (l *Loader) State() LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Done is closed once the load settles or the loader is disposed.
func (l *Loader) Done() <-chan struct{} { return l.done }

// Notified is closed once every observer has seen the outcome, or once it
// is certain that none will: the result was dropped or the fetch never ran.
// It may close after Done.
func (l *Loader) Notified() <-chan struct{} { return l.notified }

// Start fires the fetch in the background. Only the first call on a live
// loader has any effect.
func (l *Loader) Start() {
	l.mu.Lock()
	if l.started || l.disposed {
		l.mu.Unlock()
		return
	}
	l.started = true
	l.mu.Unlock()

	go l.run()
}

// Load starts the fetch if needed and blocks until the state settles, the
// loader is disposed, or ctx is done. It returns the state at that moment,
// which is Loading when ctx expired first.
func (l *Loader) Load(ctx context.Context) LoadState {
	l.Start()
	select {
	case <-l.done:
	case <-ctx.Done():
	}
	return l.State()
}

// Dispose deactivates the page. A pending fetch is cancelled and its result
// ignored; a settled state is kept.
func (l *Loader) Dispose() {
	l.mu.Lock()
	if l.disposed {
		l.mu.Unlock()
		return
	}
	l.disposed = true
	started := l.started
	l.mu.Unlock()

	l.cancel()
	l.finish()
	if !started {
		l.finishNotify()
	}
}

func (l *Loader) run() {
	defer l.finishNotify()
	defer l.cancel()

	start := time.Now()
	products, err := l.source.Fetch(l.ctx)

	next := Success(products)
	if err != nil {
		next = Failure(FetchFailedMessage)
	}
	if !l.commit(next) {
		log.Printf("Page %s disposed before %s source settled; result dropped", l.id, l.source.Name())
		return
	}
	l.finish()
	if err != nil {
		log.Printf("Error fetching products from %s source (page %s): %v", l.source.Name(), l.id, err)
	}

	outcome := Outcome{
		ActivationID: l.id,
		Source:       l.source.Name(),
		Status:       next.Status(),
		Count:        len(products),
		Duration:     time.Since(start),
		Err:          err,
	}
	if err != nil {
		outcome.Count = 0
	}
	for _, observe := range l.observers {
		observe(outcome)
	}
}

// commit stores next if the loader is still live and unsettled.
func (l *Loader) commit(next LoadState) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.disposed || l.state.Settled() {
		return false
	}
	l.state = next
	return true
}

func (l *Loader) finish() {
	l.doneOnce.Do(func() { close(l.done) })
}

func (l *Loader) finishNotify() {
	l.notifiedOnce.Do(func() { close(l.notified) })
}
