package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Publisher fans audit events out to a store, either synchronously or through
// a buffered channel drained by a background goroutine. Emit never blocks the
// request path when async mode is on; a full buffer drops the event and logs
// the drop instead.
type Publisher struct {
	store  Store
	logger *slog.Logger
	clock  func() time.Time

	events chan Event
	wg     sync.WaitGroup
	once   sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with the given
// channel capacity.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.events = make(chan Event, size)
	}
}

// WithLogger sets the logger used for drop/store failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithPublisherClock sets the clock function for testability.
func WithPublisherClock(clock func() time.Time) Option {
	return func(p *Publisher) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// NewPublisher wires a publisher to a store.
func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.events != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records one event, stamping ID and time if unset.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = p.clock()
	}

	if p.events == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.events <- event:
	default:
		p.logger.Warn("audit buffer full, dropping event", "action", string(event.Action))
	}
	return nil
}

// List returns the stored events for a user.
func (p *Publisher) List(ctx context.Context, userID string) ([]Event, error) {
	return p.store.ListByUser(ctx, userID)
}

// Close drains any buffered events and stops the background worker.
func (p *Publisher) Close() {
	if p.events == nil {
		return
	}
	p.once.Do(func() {
		close(p.events)
	})
	p.wg.Wait()
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.events {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("audit store append failed",
				"action", string(event.Action),
				"error", err,
			)
		}
	}
}
