package appointment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/events"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

func TestTransitionRoleBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		actor func(f *fixture) domain.Actor
		from  domain.Status
		to    string
		kind  httperr.Kind
	}{
		{"admin approves pending", func(f *fixture) domain.Actor { return actorOf(f.admin) }, domain.StatusPending, "approved", ""},
		{"admin approves updated", func(f *fixture) domain.Actor { return actorOf(f.admin) }, domain.StatusUpdated, "Approved", ""},
		{"admin cancels", func(f *fixture) domain.Actor { return actorOf(f.admin) }, domain.StatusPending, "cancelled", ""},
		{"admin cannot complete", func(f *fixture) domain.Actor { return actorOf(f.admin) }, domain.StatusApproved, "completed", httperr.KindInvalidTransition},
		{"doctor completes", func(f *fixture) domain.Actor { return actorOf(f.doctor) }, domain.StatusApproved, "completed", ""},
		{"doctor cancels pending", func(f *fixture) domain.Actor { return actorOf(f.doctor) }, domain.StatusPending, "cancelled", ""},
		{"doctor cannot complete pending", func(f *fixture) domain.Actor { return actorOf(f.doctor) }, domain.StatusPending, "completed", httperr.KindInvalidTransition},
		{"doctor cannot approve", func(f *fixture) domain.Actor { return actorOf(f.doctor) }, domain.StatusPending, "approved", httperr.KindInvalidTransition},
		{"other doctor forbidden", func(f *fixture) domain.Actor { return actorOf(f.otherDoctor) }, domain.StatusApproved, "completed", httperr.KindForbidden},
		{"owner patient cannot transition", func(f *fixture) domain.Actor { return actorOf(f.patient) }, domain.StatusPending, "cancelled", httperr.KindInvalidTransition},
		{"other patient forbidden", func(f *fixture) domain.Actor { return actorOf(f.otherPatient) }, domain.StatusPending, "cancelled", httperr.KindForbidden},
		{"completed is terminal", func(f *fixture) domain.Actor { return actorOf(f.admin) }, domain.StatusCompleted, "approved", httperr.KindInvalidTransition},
		{"cancelled is terminal", func(f *fixture) domain.Actor { return actorOf(f.doctor) }, domain.StatusCancelled, "completed", httperr.KindInvalidTransition},
		{"same status", func(f *fixture) domain.Actor { return actorOf(f.admin) }, domain.StatusPending, "pending", httperr.KindInvalidTransition},
		{"unknown status", func(f *fixture) domain.Actor { return actorOf(f.admin) }, domain.StatusPending, "archived", httperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, june10)
			ap := f.seed(t, "2025-06-12", "14:00", tt.from)

			out, err := f.transition().Execute(context.Background(), TransitionInput{
				AppointmentID: ap.ID,
				Actor:         tt.actor(f),
				Status:        tt.to,
			})

			if tt.kind == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				want, _ := domain.ParseStatus(tt.to)
				if out.Appointment.Status != string(want) {
					t.Fatalf("status = %s, want %s", out.Appointment.Status, want)
				}
				return
			}

			if !httperr.Is(err, tt.kind) {
				t.Fatalf("expected %s, got %v", tt.kind, err)
			}
			stored, _ := f.store.GetAppointment(context.Background(), ap.ID)
			if stored.Status != string(tt.from) {
				t.Fatalf("rejected transition changed status to %s", stored.Status)
			}
		})
	}
}

func TestTransitionStampsAndPublishes(t *testing.T) {
	f := newFixture(t, june10)
	ctx := context.Background()

	ap := f.seed(t, "2025-06-12", "14:00", domain.StatusApproved)
	res, err := f.transition().Execute(ctx, TransitionInput{
		AppointmentID: ap.ID,
		Actor:         actorOf(f.doctor),
		Status:        "completed",
	})
	if err != nil {
		t.Fatal(err)
	}
	done := res.Appointment
	if done.CompletedAt == nil || !done.CompletedAt.Equal(june10) || done.CancelledAt != nil {
		t.Fatalf("completed_at not stamped: %+v", done)
	}

	evs := f.pub.published()
	if len(evs) != 1 {
		t.Fatalf("expected one event, got %d", len(evs))
	}
	ev := evs[0]
	if ev.Type != events.AppointmentStatusChanged || ev.From != "approved" || ev.To != "completed" || ev.ActorID != f.doctor.ID {
		t.Fatalf("unexpected event %+v", ev)
	}

	if got := testutil.ToFloat64(f.metrics.TransitionsTotal.WithLabelValues("approved", "completed")); got != 1 {
		t.Fatalf("transition counter = %v", got)
	}
}

func TestTransitionNotFound(t *testing.T) {
	f := newFixture(t, june10)

	_, err := f.transition().Execute(context.Background(), TransitionInput{
		AppointmentID: uuid.New(),
		Actor:         actorOf(f.admin),
		Status:        "approved",
	})
	if !httperr.Is(err, httperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// racingRepo cancels the row behind the caller's back right after it is
// read, the way a concurrent writer would between read and write.
type racingRepo struct {
	domain.Repository
}

func (r racingRepo) Transaction(ctx context.Context, fn func(tx domain.Repository) error) error {
	return r.Repository.Transaction(ctx, func(tx domain.Repository) error {
		return fn(racingTx{tx})
	})
}

type racingTx struct {
	domain.Repository
}

func (tx racingTx) GetAppointmentForUpdate(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	ap, err := tx.Repository.GetAppointmentForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	other := *ap
	other.Status = string(domain.StatusCancelled)
	if err := tx.Repository.SaveAppointment(ctx, &other, domain.Status(ap.Status)); err != nil {
		return nil, err
	}
	return ap, nil
}

func TestTransitionStaleStatus(t *testing.T) {
	f := newFixture(t, june10)
	ap := f.seed(t, "2025-06-12", "14:00", domain.StatusPending)

	uc := NewTransitionStatus(racingRepo{f.store}, f.pub, f.clock, zap.NewNop(), f.metrics, 0)
	_, err := uc.Execute(context.Background(), TransitionInput{
		AppointmentID: ap.ID,
		Actor:         actorOf(f.admin),
		Status:        "approved",
	})

	be, ok := httperr.As(err)
	if !ok || be.Kind != httperr.KindInvalidTransition || be.Code != "stale_status" {
		t.Fatalf("expected stale status, got %v", err)
	}
	if len(f.pub.published()) != 0 {
		t.Fatal("failed transition must not publish")
	}
}

func TestTransitionWarnsWhenNotificationDropped(t *testing.T) {
	f := newFixture(t, june10)
	f.pub.full = true
	ap := f.seed(t, "2025-06-12", "14:00", domain.StatusPending)

	res, err := f.transition().Execute(context.Background(), TransitionInput{
		AppointmentID: ap.ID,
		Actor:         actorOf(f.admin),
		Status:        "approved",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Warnings) != 1 || res.Warnings[0] != WarningNotificationNotQueued {
		t.Fatalf("warnings = %v", res.Warnings)
	}
}
