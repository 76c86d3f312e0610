package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/metrics"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type Type string

const (
	AppointmentBooked        Type = "appointment_booked"
	AppointmentRescheduled   Type = "appointment_rescheduled"
	AppointmentStatusChanged Type = "appointment_status_changed"
	AppointmentDeleted       Type = "appointment_deleted"
)

// Event describes a change that has already been committed.
type Event struct {
	Type       Type
	ActorID    uuid.UUID
	ActorRole  string
	From       string
	To         string
	OccurredAt time.Time

	// Appointment is a copy of the row as committed.
	Appointment models.Appointment
}

type Handler interface {
	Name() string
	Handle(ctx context.Context, ev Event) error
}

// Publisher is what use cases depend on. Publish never blocks and reports
// whether the event was queued.
type Publisher interface {
	Publish(ev Event) bool
}

type Options struct {
	Buffer         int
	Workers        int
	HandlerTimeout time.Duration
}

// Dispatcher fans committed events out to handlers on a bounded queue.
// A full queue drops the event; handler errors are logged and never reach
// the request that produced the event.
type Dispatcher struct {
	log      *zap.Logger
	metrics  *metrics.Collector
	handlers []Handler
	timeout  time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	wg     sync.WaitGroup
}

func NewDispatcher(log *zap.Logger, m *metrics.Collector, opts Options, handlers ...Handler) *Dispatcher {
	if opts.Buffer <= 0 {
		opts.Buffer = 100
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = 5 * time.Second
	}

	d := &Dispatcher{
		log:      log,
		metrics:  m,
		handlers: handlers,
		timeout:  opts.HandlerTimeout,
		queue:    make(chan Event, opts.Buffer),
	}

	for i := 0; i < opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for ev := range d.queue {
		d.deliver(ev)
	}
}

func (d *Dispatcher) deliver(ev Event) {
	for _, h := range d.handlers {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := safeHandle(ctx, h, ev)
		cancel()

		if err != nil {
			d.log.Warn("event handler failed",
				zap.String("handler", h.Name()),
				zap.String("event", string(ev.Type)),
				zap.String("appointment_id", ev.Appointment.ID.String()),
				zap.Error(err),
			)
		}
	}
}

func (d *Dispatcher) Publish(ev Event) bool {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(ev, "dispatcher closed")
		return false
	}

	select {
	case d.queue <- ev:
		return true
	default:
		d.drop(ev, "queue full")
		return false
	}
}

func (d *Dispatcher) drop(ev Event, reason string) {
	if d.metrics != nil {
		d.metrics.EventsDroppedTotal.Inc()
	}
	d.log.Warn("dropping event",
		zap.String("reason", reason),
		zap.String("event", string(ev.Type)),
		zap.String("appointment_id", ev.Appointment.ID.String()),
	)
}

// Close stops accepting events and waits for queued ones to be delivered,
// or for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// safeHandle keeps a panicking handler from killing the worker.
func safeHandle(ctx context.Context, h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	return h.Handle(ctx, ev)
}

type panicError struct{ value any }

func (p *panicError) Error() string {
	return fmt.Sprintf("handler panicked: %v", p.value)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc struct {
	Label string
	Fn    func(ctx context.Context, ev Event) error
}

func (f HandlerFunc) Name() string { return f.Label }

func (f HandlerFunc) Handle(ctx context.Context, ev Event) error { return f.Fn(ctx, ev) }

var _ Publisher = (*Dispatcher)(nil)
