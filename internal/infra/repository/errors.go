package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

const (
	uniqueViolation = "23505"

	DoctorSlotIndex  = "ux_appointments_doctor_slot"
	PatientSlotIndex = "ux_appointments_patient_slot"
)

// translateError maps driver errors onto the domain taxonomy. ap, when
// given, supplies the slot reported on a uniqueness violation. Raw driver
// text only survives as the wrapped cause.
func translateError(err error, ap *models.Appointment) error {
	if err == nil {
		return nil
	}
	if _, ok := httperr.As(err); ok {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound("appointment_not_found")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		date, slot := "", ""
		if ap != nil {
			date, slot = domain.FormatDate(ap.Date), ap.Time
		}
		return domain.ErrSlotConflict(scopeOf(pgErr.ConstraintName), date, slot)
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return domain.ErrTimeout(err)
	}

	return domain.ErrUnavailable(err)
}

func scopeOf(constraint string) string {
	if strings.Contains(constraint, "patient") {
		return "patient"
	}
	return "doctor"
}

// conflictFromHolders reports the first holder of the claimed slot. A
// doctor collision wins over a patient one.
func conflictFromHolders(claim domain.SlotClaim, holders []models.Appointment) error {
	if len(holders) == 0 {
		return nil
	}

	scope := "patient"
	for _, h := range holders {
		if h.DoctorID == claim.DoctorID {
			scope = "doctor"
			break
		}
	}
	return domain.ErrSlotConflict(scope, domain.FormatDate(claim.Date), claim.Time)
}
