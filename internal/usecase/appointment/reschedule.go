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

type RescheduleInput struct {
	AppointmentID uuid.UUID
	Requester     domain.Actor
	Date          string
	Time          string
}

type RescheduleBooking struct {
	repo      domain.Repository
	events    events.Publisher
	clock     timezone.Clock
	policy    domain.Policy
	log       *zap.Logger
	metrics   *metrics.Collector
	txTimeout time.Duration
}

func NewRescheduleBooking(
	repo domain.Repository,
	publisher events.Publisher,
	clock timezone.Clock,
	policy domain.Policy,
	log *zap.Logger,
	m *metrics.Collector,
	txTimeout time.Duration,
) *RescheduleBooking {
	return &RescheduleBooking{
		repo:      repo,
		events:    publisher,
		clock:     clock,
		policy:    policy,
		log:       log,
		metrics:   m,
		txTimeout: txTimeout,
	}
}

// Execute moves a patient's appointment to a new slot. The row is locked
// for the whole check-and-write so two reschedules of the same appointment
// serialize.
func (uc *RescheduleBooking) Execute(
	ctx context.Context,
	in RescheduleInput,
) (res *BookingResult, err error) {

	ctx, span := startSpan(ctx, "appointment.RescheduleBooking",
		attribute.String("appointment_id", in.AppointmentID.String()),
		attribute.String("date", in.Date),
		attribute.String("time", in.Time),
	)
	defer func() {
		endSpan(span, err)
		if uc.metrics != nil {
			uc.metrics.ReschedulesTotal.WithLabelValues(outcome(err)).Inc()
		}
	}()

	day, err := domain.ParseDate(in.Date)
	if err != nil {
		return nil, domain.ErrValidation("invalid_reschedule_request", "date")
	}
	if !uc.policy.IsSlot(in.Time) {
		return nil, domain.ErrValidation("invalid_reschedule_request", "time")
	}

	target, err := uc.clock.At(day, in.Time)
	if err != nil {
		return nil, domain.ErrValidation("invalid_reschedule_request", "time")
	}

	var (
		previous domain.Status
		ap       *models.Appointment
	)

	txCtx, cancel := withTxTimeout(ctx, uc.txTimeout)
	defer cancel()

	err = uc.repo.Transaction(txCtx, func(tx domain.Repository) error {
		current, err := tx.GetAppointmentForUpdate(txCtx, in.AppointmentID)
		if err != nil {
			return err
		}

		if in.Requester.Role != domain.RolePatient || current.PatientID != in.Requester.ID {
			return domain.ErrForbidden("not_appointment_owner")
		}

		previous = domain.Status(current.Status)
		if err := domain.CanReschedule(previous); err != nil {
			return err
		}

		if err := uc.checkTiming(current, target); err != nil {
			return err
		}

		domain.Reschedule(current, day, in.Time)

		if err := tx.AssertNoSlotConflict(txCtx, domain.SlotClaim{
			DoctorID:  current.DoctorID,
			PatientID: current.PatientID,
			Date:      current.Date,
			Time:      current.Time,
			ExcludeID: current.ID,
		}); err != nil {
			return err
		}

		if err := tx.SaveAppointment(txCtx, current, previous); err != nil {
			return err
		}

		ap = current
		return nil
	})
	if err != nil {
		uc.logFailure(in, err)
		return nil, err
	}

	res = &BookingResult{Appointment: ap}

	queued := uc.events.Publish(events.Event{
		Type:        events.AppointmentRescheduled,
		ActorID:     in.Requester.ID,
		ActorRole:   string(in.Requester.Role),
		From:        string(previous),
		To:          ap.Status,
		Appointment: *ap,
	})
	if !queued {
		res.Warnings = append(res.Warnings, WarningNotificationNotQueued)
	}

	uc.log.Info("appointment rescheduled",
		zap.String("appointment_id", ap.ID.String()),
		zap.String("date", domain.FormatDate(ap.Date)),
		zap.String("time", ap.Time),
	)

	return res, nil
}

// checkTiming applies the cutoff to the current slot, then the past-date
// and cutoff rules to the requested one.
func (uc *RescheduleBooking) checkTiming(current *models.Appointment, target time.Time) error {
	now := uc.clock.Now()

	currentAt, err := uc.clock.At(current.Date, current.Time)
	if err != nil {
		return domain.ErrUnavailable(err)
	}

	if err := domain.CheckLeadTime("current", now, currentAt, uc.policy.Cutoff); err != nil {
		return err
	}

	if target.Before(now) {
		return domain.ErrPastDate(domain.FormatDate(timezone.DayOf(target)))
	}

	return domain.CheckLeadTime("requested", now, target, uc.policy.Cutoff)
}

func (uc *RescheduleBooking) logFailure(in RescheduleInput, err error) {
	fields := []zap.Field{
		zap.String("appointment_id", in.AppointmentID.String()),
		zap.String("date", in.Date),
		zap.String("time", in.Time),
	}

	switch httperr.KindOf(err) {
	case httperr.KindConflict:
		countConflict(uc.metrics, err, "reschedule")
		uc.log.Info("reschedule rejected: slot taken", fields...)
	case httperr.KindUnavailable, httperr.KindTimeout, "":
		uc.log.Error("reschedule transaction failed", append(fields, zap.Error(err))...)
	default:
		uc.log.Info("reschedule rejected", append(fields, zap.String("code", errCode(err)))...)
	}
}
