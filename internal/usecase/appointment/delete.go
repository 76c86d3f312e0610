package appointment

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/events"
)

// DeleteAppointment is the administrative hard delete. It sits outside the
// status lifecycle.
type DeleteAppointment struct {
	repo   domain.Repository
	events events.Publisher
	log    *zap.Logger
}

func NewDeleteAppointment(
	repo domain.Repository,
	publisher events.Publisher,
	log *zap.Logger,
) *DeleteAppointment {
	return &DeleteAppointment{
		repo:   repo,
		events: publisher,
		log:    log,
	}
}

func (uc *DeleteAppointment) Execute(
	ctx context.Context,
	actor domain.Actor,
	appointmentID uuid.UUID,
) (err error) {

	ctx, span := startSpan(ctx, "appointment.DeleteAppointment",
		attribute.String("appointment_id", appointmentID.String()),
	)
	defer func() { endSpan(span, err) }()

	if !actor.IsAdmin() {
		return domain.ErrForbidden("admin_only")
	}

	ap, err := uc.repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}

	if err := uc.repo.DeleteAppointment(ctx, appointmentID); err != nil {
		return err
	}

	uc.events.Publish(events.Event{
		Type:        events.AppointmentDeleted,
		ActorID:     actor.ID,
		ActorRole:   string(actor.Role),
		From:        ap.Status,
		Appointment: *ap,
	})

	uc.log.Info("appointment deleted",
		zap.String("appointment_id", appointmentID.String()),
		zap.String("admin_id", actor.ID.String()),
	)
	return nil
}
