package attribution

import (
	"context"
	"errors"
	"sync"
	"time"

	"privacy-checkout/internal/client"
	"privacy-checkout/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/sony/gobreaker/v2"
)

// Forwarder hands attribution events to the background. Send never blocks and
// never reports failure to the caller.
type Forwarder interface {
	Send(event *model.AttributionEvent)
}

type Options struct {
	QueueSize       int
	DeliveryTimeout time.Duration
	// Consecutive failures before the breaker opens, and how long it stays open.
	TripAfter   uint32
	OpenTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.DeliveryTimeout <= 0 {
		o.DeliveryTimeout = 10 * time.Second
	}
	if o.TripAfter == 0 {
		o.TripAfter = 5
	}
	if o.OpenTimeout <= 0 {
		o.OpenTimeout = 30 * time.Second
	}
	return o
}

type AsyncForwarder struct {
	client  client.AttributionClient
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  echo.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan *model.AttributionEvent
	done   chan struct{}
	start  sync.Once
}

func NewAsyncForwarder(c client.AttributionClient, logger echo.Logger, opts Options) *AsyncForwarder {
	opts = opts.withDefaults()

	f := &AsyncForwarder{
		client:  c,
		logger:  logger,
		timeout: opts.DeliveryTimeout,
		queue:   make(chan *model.AttributionEvent, opts.QueueSize),
		done:    make(chan struct{}),
	}

	f.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "attribution",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.TripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("[attribution] breaker %s: %s -> %s", name, from, to)
		},
	})

	return f
}

// Start launches the delivery worker. Calling it more than once is a no-op.
func (f *AsyncForwarder) Start() {
	f.start.Do(func() {
		go f.run()
	})
}

func (f *AsyncForwarder) Send(event *model.AttributionEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		f.logger.Warnf("[attribution] forwarder closed, dropping order %s", event.OrderID)
		return
	}

	select {
	case f.queue <- event:
	default:
		f.logger.Warnf("[attribution] queue full, dropping order %s", event.OrderID)
	}
}

// Close stops accepting events and waits for queued ones to be delivered
// or for ctx to expire.
func (f *AsyncForwarder) Close(ctx context.Context) error {
	f.mu.Lock()
	if !f.closed {
		f.closed = true
		close(f.queue)
	}
	f.mu.Unlock()

	f.Start()

	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *AsyncForwarder) run() {
	defer close(f.done)
	for event := range f.queue {
		f.deliver(event)
	}
}

func (f *AsyncForwarder) deliver(event *model.AttributionEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	_, err := f.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, f.client.SendOrder(ctx, event)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			f.logger.Warnf("[attribution] breaker open, skipped order %s", event.OrderID)
			return
		}
		f.logger.Errorf("[attribution] delivery failed for order %s: %v", event.OrderID, err)
		return
	}

	f.logger.Infof("[attribution] delivered order %s (external %s)", event.OrderID, event.ExternalID)
}
