package appointment

import (
	"context"
	"strings"
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
	"github.com/BruksfildServices01/clinic-scheduler/internal/validators"
)

const WarningNotificationNotQueued = "notification_not_queued"

// ======================================================
// INPUT
// ======================================================

// CreateBookingInput carries the request body plus the authenticated
// patient. Name and email are never taken from the body.
type CreateBookingInput struct {
	PatientID uuid.UUID

	DoctorID   string
	Date       string
	Time       string
	Department string

	Phone       string
	Gender      string
	DateOfBirth string
	Address     string
}

// BookingResult is returned by every write that notifies after commit.
// Warnings are non-fatal: the change itself is committed.
type BookingResult struct {
	Appointment *models.Appointment
	Warnings    []string
}

// ======================================================
// USE CASE
// ======================================================

type CreateBooking struct {
	repo      domain.Repository
	users     domain.UserDirectory
	events    events.Publisher
	clock     timezone.Clock
	policy    domain.Policy
	log       *zap.Logger
	metrics   *metrics.Collector
	txTimeout time.Duration
}

func NewCreateBooking(
	repo domain.Repository,
	users domain.UserDirectory,
	publisher events.Publisher,
	clock timezone.Clock,
	policy domain.Policy,
	log *zap.Logger,
	m *metrics.Collector,
	txTimeout time.Duration,
) *CreateBooking {
	return &CreateBooking{
		repo:      repo,
		users:     users,
		events:    publisher,
		clock:     clock,
		policy:    policy,
		log:       log,
		metrics:   m,
		txTimeout: txTimeout,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateBooking) Execute(
	ctx context.Context,
	in CreateBookingInput,
) (res *BookingResult, err error) {

	ctx, span := startSpan(ctx, "appointment.CreateBooking",
		attribute.String("doctor_id", in.DoctorID),
		attribute.String("date", in.Date),
		attribute.String("time", in.Time),
	)
	defer func() {
		endSpan(span, err)
		if uc.metrics != nil {
			uc.metrics.BookingsTotal.WithLabelValues(outcome(err)).Inc()
		}
	}()

	// --------------------------------------------------
	// 1. Input, before any store access
	// --------------------------------------------------
	doctorID, day, err := uc.validate(in)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 2. No booking on a past day
	// --------------------------------------------------
	if err := domain.CheckNotPastDay(day, uc.clock.Today()); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 3. Doctor and patient from the directory
	// --------------------------------------------------
	doctor, err := uc.users.GetUser(ctx, doctorID)
	if err != nil && !httperr.Is(err, httperr.KindNotFound) {
		return nil, err
	}
	if err != nil || domain.Role(doctor.Role) != domain.RoleDoctor {
		return nil, domain.ErrValidation("doctor_not_found", "doctor_id")
	}

	patient, err := uc.users.GetUser(ctx, in.PatientID)
	if err != nil && !httperr.Is(err, httperr.KindNotFound) {
		return nil, err
	}
	if err != nil || domain.Role(patient.Role) != domain.RolePatient {
		return nil, domain.ErrForbidden("patients_only")
	}

	department := strings.TrimSpace(in.Department)
	if department == "" {
		department = doctor.Department
	}

	ap := &models.Appointment{
		PatientID:   patient.ID,
		DoctorID:    doctor.ID,
		Date:        day,
		Time:        in.Time,
		Department:  department,
		Status:      string(domain.InitialStatus()),
		FullName:    patient.FullName,
		Email:       patient.Email,
		Phone:       strings.TrimSpace(in.Phone),
		Address:     strings.TrimSpace(in.Address),
		DateOfBirth: strings.TrimSpace(in.DateOfBirth),
		Gender:      strings.ToLower(strings.TrimSpace(in.Gender)),
	}

	// --------------------------------------------------
	// 4. Conflict pre-check + insert in one transaction
	// --------------------------------------------------
	txCtx, cancel := withTxTimeout(ctx, uc.txTimeout)
	defer cancel()

	err = uc.repo.Transaction(txCtx, func(tx domain.Repository) error {
		if err := tx.AssertNoSlotConflict(txCtx, domain.SlotClaim{
			DoctorID:  ap.DoctorID,
			PatientID: ap.PatientID,
			Date:      ap.Date,
			Time:      ap.Time,
		}); err != nil {
			return err
		}
		return tx.CreateAppointment(txCtx, ap)
	})
	if err != nil {
		uc.logFailure(err, ap)
		return nil, err
	}

	// --------------------------------------------------
	// 5. Post-commit notification, best effort
	// --------------------------------------------------
	res = &BookingResult{Appointment: ap}

	queued := uc.events.Publish(events.Event{
		Type:        events.AppointmentBooked,
		ActorID:     patient.ID,
		ActorRole:   string(domain.RolePatient),
		To:          ap.Status,
		Appointment: *ap,
	})
	if !queued {
		res.Warnings = append(res.Warnings, WarningNotificationNotQueued)
	}

	uc.log.Info("appointment booked",
		zap.String("appointment_id", ap.ID.String()),
		zap.String("doctor_id", ap.DoctorID.String()),
		zap.String("date", domain.FormatDate(ap.Date)),
		zap.String("time", ap.Time),
	)

	return res, nil
}

func (uc *CreateBooking) validate(in CreateBookingInput) (uuid.UUID, time.Time, error) {
	invalid := validators.Required(
		validators.Field{Name: "phone", Value: in.Phone},
		validators.Field{Name: "gender", Value: in.Gender},
		validators.Field{Name: "date_of_birth", Value: in.DateOfBirth},
		validators.Field{Name: "address", Value: in.Address},
	)

	doctorID, err := uuid.Parse(strings.TrimSpace(in.DoctorID))
	if err != nil {
		invalid = append(invalid, "doctor_id")
	}

	day, err := domain.ParseDate(in.Date)
	if err != nil {
		invalid = append(invalid, "date")
	}

	if !uc.policy.IsSlot(in.Time) {
		invalid = append(invalid, "time")
	}

	if strings.TrimSpace(in.Phone) != "" && !validators.IsPhoneValid(in.Phone) {
		invalid = append(invalid, "phone")
	}
	if strings.TrimSpace(in.DateOfBirth) != "" && !validators.IsDateOfBirthValid(in.DateOfBirth, uc.clock.Today()) {
		invalid = append(invalid, "date_of_birth")
	}

	if len(invalid) > 0 {
		return uuid.Nil, time.Time{}, domain.ErrValidation("invalid_booking_request", invalid...)
	}
	return doctorID, day, nil
}

func (uc *CreateBooking) logFailure(err error, ap *models.Appointment) {
	fields := []zap.Field{
		zap.String("doctor_id", ap.DoctorID.String()),
		zap.String("patient_id", ap.PatientID.String()),
		zap.String("date", domain.FormatDate(ap.Date)),
		zap.String("time", ap.Time),
	}

	switch httperr.KindOf(err) {
	case httperr.KindConflict:
		countConflict(uc.metrics, err, "booking")
		uc.log.Info("booking rejected: slot taken", fields...)
	case httperr.KindUnavailable, httperr.KindTimeout, "":
		uc.log.Error("booking transaction failed", append(fields, zap.Error(err))...)
	default:
		uc.log.Info("booking rejected", append(fields, zap.String("code", errCode(err)))...)
	}
}

func errCode(err error) string {
	if be, ok := httperr.As(err); ok {
		return be.Code
	}
	return ""
}
