package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/events"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/metrics"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

type TransitionInput struct {
	AppointmentID uuid.UUID
	Actor         domain.Actor
	Status        string
}

type TransitionStatus struct {
	repo      domain.Repository
	events    events.Publisher
	clock     timezone.Clock
	log       *zap.Logger
	metrics   *metrics.Collector
	txTimeout time.Duration
}

func NewTransitionStatus(
	repo domain.Repository,
	publisher events.Publisher,
	clock timezone.Clock,
	log *zap.Logger,
	m *metrics.Collector,
	txTimeout time.Duration,
) *TransitionStatus {
	return &TransitionStatus{
		repo:      repo,
		events:    publisher,
		clock:     clock,
		log:       log,
		metrics:   m,
		txTimeout: txTimeout,
	}
}

func (uc *TransitionStatus) Execute(
	ctx context.Context,
	in TransitionInput,
) (res *BookingResult, err error) {

	ctx, span := startSpan(ctx, "appointment.TransitionStatus",
		attribute.String("appointment_id", in.AppointmentID.String()),
		attribute.String("role", string(in.Actor.Role)),
		attribute.String("status", in.Status),
	)
	defer func() { endSpan(span, err) }()

	to, ok := domain.ParseStatus(in.Status)
	if !ok {
		return nil, domain.ErrValidation("invalid_status", "status")
	}

	var (
		from domain.Status
		ap   *models.Appointment
	)

	txCtx, cancel := withTxTimeout(ctx, uc.txTimeout)
	defer cancel()

	err = uc.repo.Transaction(txCtx, func(tx domain.Repository) error {
		current, err := tx.GetAppointmentForUpdate(txCtx, in.AppointmentID)
		if err != nil {
			return err
		}

		if err := domain.AuthorizeTransition(in.Actor, current, to); err != nil {
			return err
		}

		from = domain.Status(current.Status)
		domain.Transition(current, to, uc.clock.Now())

		if err := tx.SaveAppointment(txCtx, current, from); err != nil {
			return err
		}

		ap = current
		return nil
	})
	if httperr.IsBusiness(err, "stale_status") {
		uc.log.Warn("status transition lost a concurrent update",
			zap.String("appointment_id", in.AppointmentID.String()),
			zap.String("to", string(to)),
		)
		return nil, err
	}
	if err != nil {
		uc.log.Info("status transition rejected",
			zap.String("appointment_id", in.AppointmentID.String()),
			zap.String("role", string(in.Actor.Role)),
			zap.String("to", string(to)),
			zap.String("code", errCode(err)),
			zap.Error(err),
		)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	}

	res = &BookingResult{Appointment: ap}

	queued := uc.events.Publish(events.Event{
		Type:        events.AppointmentStatusChanged,
		ActorID:     in.Actor.ID,
		ActorRole:   string(in.Actor.Role),
		From:        string(from),
		To:          string(to),
		Appointment: *ap,
	})
	if !queued {
		res.Warnings = append(res.Warnings, WarningNotificationNotQueued)
	}

	return res, nil
}
