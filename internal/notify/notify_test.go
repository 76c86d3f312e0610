package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/events"
	"github.com/BruksfildServices01/clinic-scheduler/internal/metrics"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type fakePusher struct {
	mu     sync.Mutex
	err    error
	calls  int
	keys   []string
	values [][]byte
}

func (p *fakePusher) RPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	if p.err != nil {
		return redis.NewIntResult(0, p.err)
	}
	p.keys = append(p.keys, key)
	for _, v := range values {
		p.values = append(p.values, v.([]byte))
	}
	return redis.NewIntResult(int64(len(p.values)), nil)
}

type recordingNotifier struct {
	err   error
	kinds []events.Type
	calls []models.Appointment
}

func (n *recordingNotifier) Notify(_ context.Context, kind events.Type, _ uuid.UUID, ap models.Appointment, _ PatientSnapshot) error {
	n.kinds = append(n.kinds, kind)
	n.calls = append(n.calls, ap)
	return n.err
}

func sampleAppointment() models.Appointment {
	return models.Appointment{
		ID:         uuid.New(),
		DoctorID:   uuid.New(),
		Date:       time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		Time:       "14:00",
		Department: "cardiology",
		Status:     "pending",
		FullName:   "Ana Lima",
		Email:      "ana@mail.test",
		Phone:      "+5511987654321",
	}
}

func TestRedisNotifierPushesJSON(t *testing.T) {
	p := &fakePusher{}
	n := NewRedisNotifier(p, "clinic:notifications", DefaultBreakerSettings(), zap.NewNop())

	ap := sampleAppointment()
	if err := n.Notify(context.Background(), events.AppointmentBooked, ap.DoctorID, ap, SnapshotOf(ap)); err != nil {
		t.Fatal(err)
	}

	if len(p.keys) != 1 || p.keys[0] != "clinic:notifications" {
		t.Fatalf("pushed to %v", p.keys)
	}

	var msg Message
	if err := json.Unmarshal(p.values[0], &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Event != string(events.AppointmentBooked) || msg.Date != "2025-06-12" || msg.Patient.Email != "ana@mail.test" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestMessageUsesEventType(t *testing.T) {
	// A booking of a previously edited row is still a booking.
	ap := sampleAppointment()
	ap.IsEdited = true
	if msg := messageFor(events.AppointmentBooked, ap.DoctorID, ap, SnapshotOf(ap)); msg.Event != string(events.AppointmentBooked) {
		t.Fatalf("event = %s", msg.Event)
	}
	if msg := messageFor(events.AppointmentRescheduled, ap.DoctorID, sampleAppointment(), SnapshotOf(ap)); msg.Event != string(events.AppointmentRescheduled) {
		t.Fatalf("event = %s", msg.Event)
	}
}

func TestRedisNotifierBreakerOpens(t *testing.T) {
	p := &fakePusher{err: errors.New("connection refused")}
	n := NewRedisNotifier(p, "k", BreakerSettings{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, zap.NewNop())

	ap := sampleAppointment()
	for i := 0; i < 2; i++ {
		if err := n.Notify(context.Background(), events.AppointmentBooked, ap.DoctorID, ap, SnapshotOf(ap)); err == nil {
			t.Fatal("expected push error")
		}
	}
	if n.State() != gobreaker.StateOpen {
		t.Fatalf("breaker state = %s", n.State())
	}

	err := n.Notify(context.Background(), events.AppointmentBooked, ap.DoctorID, ap, SnapshotOf(ap))
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected fail-fast, got %v", err)
	}
	if p.calls != 2 {
		t.Fatalf("open breaker must not reach redis, calls = %d", p.calls)
	}
}

func TestEventHandlerFiltersAndCounts(t *testing.T) {
	m := metrics.NewCollector(prometheus.NewRegistry(), "test")
	rec := &recordingNotifier{}
	h := NewEventHandler(rec, m)
	ctx := context.Background()

	ap := sampleAppointment()
	for _, typ := range []events.Type{events.AppointmentBooked, events.AppointmentRescheduled, events.AppointmentStatusChanged, events.AppointmentDeleted} {
		if err := h.Handle(ctx, events.Event{Type: typ, Appointment: ap}); err != nil {
			t.Fatal(err)
		}
	}
	if len(rec.calls) != 2 {
		t.Fatalf("only booking and reschedule notify, got %d", len(rec.calls))
	}
	if rec.kinds[0] != events.AppointmentBooked || rec.kinds[1] != events.AppointmentRescheduled {
		t.Fatalf("event types not passed through: %v", rec.kinds)
	}

	rec.err = errors.New("down")
	if err := h.Handle(ctx, events.Event{Type: events.AppointmentBooked, Appointment: ap}); err == nil {
		t.Fatal("notifier error should surface to the dispatcher")
	}

	if got := testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("sent")); got != 2 {
		t.Fatalf("sent = %v", got)
	}
	if got := testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("failed")); got != 1 {
		t.Fatalf("failed = %v", got)
	}
}
