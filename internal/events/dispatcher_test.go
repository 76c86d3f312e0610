package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/metrics"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type collector struct {
	mu  sync.Mutex
	got []Event
}

func (c *collector) handler() Handler {
	return HandlerFunc{Label: "collector", Fn: func(_ context.Context, ev Event) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.got = append(c.got, ev)
		return nil
	}}
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.got)
}

func booked() Event {
	return Event{Type: AppointmentBooked, Appointment: models.Appointment{ID: uuid.New()}}
}

func TestDispatcherDeliversToEveryHandler(t *testing.T) {
	a, b := &collector{}, &collector{}
	d := NewDispatcher(zap.NewNop(), nil, Options{Buffer: 10, Workers: 2}, a.handler(), b.handler())

	for i := 0; i < 5; i++ {
		if !d.Publish(booked()) {
			t.Fatal("publish rejected with room in the queue")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	if a.count() != 5 || b.count() != 5 {
		t.Fatalf("delivered %d/%d, want 5/5", a.count(), b.count())
	}
	if a.got[0].OccurredAt.IsZero() {
		t.Fatal("OccurredAt should be stamped on publish")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	m := metrics.NewCollector(prometheus.NewRegistry(), "test")

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	blocking := HandlerFunc{Label: "blocking", Fn: func(context.Context, Event) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	}}

	d := NewDispatcher(zap.NewNop(), m, Options{Buffer: 1, Workers: 1}, blocking)

	if !d.Publish(booked()) {
		t.Fatal("first publish should be accepted")
	}
	<-started

	if !d.Publish(booked()) {
		t.Fatal("second publish should fill the buffer")
	}
	if d.Publish(booked()) {
		t.Fatal("third publish should be dropped")
	}
	if got := testutil.ToFloat64(m.EventsDroppedTotal); got != 1 {
		t.Fatalf("dropped counter = %v", got)
	}

	close(release)
	if err := d.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if d.Publish(booked()) {
		t.Fatal("publish after close should be rejected")
	}
}

func TestDispatcherSurvivesFailingHandlers(t *testing.T) {
	c := &collector{}
	panicky := HandlerFunc{Label: "panicky", Fn: func(context.Context, Event) error { panic("boom") }}
	failing := HandlerFunc{Label: "failing", Fn: func(context.Context, Event) error { return errors.New("nope") }}

	d := NewDispatcher(zap.NewNop(), nil, Options{Buffer: 4, Workers: 1}, panicky, failing, c.handler())
	d.Publish(booked())
	d.Publish(booked())

	if err := d.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.count() != 2 {
		t.Fatalf("later handlers should still run, got %d", c.count())
	}
}

func TestDispatcherCloseHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	stuck := HandlerFunc{Label: "stuck", Fn: func(context.Context, Event) error {
		<-release
		return nil
	}}
	d := NewDispatcher(zap.NewNop(), nil, Options{Buffer: 1, Workers: 1}, stuck)
	d.Publish(booked())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestSafeHandleReportsPanicValue(t *testing.T) {
	err := safeHandle(context.Background(), HandlerFunc{Label: "p", Fn: func(context.Context, Event) error {
		panic("kaboom")
	}}, booked())
	if err == nil || err.Error() != "handler panicked: kaboom" {
		t.Fatalf("unexpected error %v", err)
	}
}
