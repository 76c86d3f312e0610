package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

func TestTranslateUniqueViolation(t *testing.T) {
	ap := &models.Appointment{Date: day, Time: "13:00"}

	cases := map[string]string{
		DoctorSlotIndex:  "doctor",
		PatientSlotIndex: "patient",
	}
	for constraint, scope := range cases {
		raw := fmt.Errorf("insert: %w", &pgconn.PgError{
			Code:           "23505",
			ConstraintName: constraint,
			Message:        "duplicate key value violates unique constraint",
		})

		err := translateError(raw, ap)
		be, ok := httperr.As(err)
		if !ok || be.Kind != httperr.KindConflict {
			t.Fatalf("%s: expected conflict, got %v", constraint, err)
		}
		if be.Details["scope"] != scope || be.Details["time"] != "13:00" || be.Details["date"] != "2025-06-10" {
			t.Errorf("%s: unexpected details %v", constraint, be.Details)
		}
		if strings.Contains(be.Message, "duplicate key") {
			t.Errorf("driver text leaked into message: %q", be.Message)
		}
	}
}

func TestTranslateInfrastructureErrors(t *testing.T) {
	if err := translateError(gorm.ErrRecordNotFound, nil); !httperr.Is(err, httperr.KindNotFound) {
		t.Errorf("record not found: got %v", err)
	}
	if err := translateError(context.DeadlineExceeded, nil); !httperr.Is(err, httperr.KindTimeout) {
		t.Errorf("deadline: got %v", err)
	}

	raw := &pgconn.PgError{Code: "08006", Message: "connection failure"}
	err := translateError(raw, nil)
	if !httperr.Is(err, httperr.KindUnavailable) {
		t.Fatalf("connection failure: got %v", err)
	}
	if !errors.Is(err, raw) {
		t.Error("cause must stay reachable for logging")
	}

	if err := translateError(nil, nil); err != nil {
		t.Errorf("nil should stay nil, got %v", err)
	}

	already := domain.ErrForbidden("x")
	if err := translateError(already, nil); err != already {
		t.Errorf("typed errors must pass through unchanged")
	}
}

func TestConflictFromHoldersPrefersDoctorScope(t *testing.T) {
	claim := domain.SlotClaim{DoctorID: uuid.New(), PatientID: uuid.New(), Date: day, Time: "19:00"}

	err := conflictFromHolders(claim, []models.Appointment{
		{PatientID: claim.PatientID},
		{DoctorID: claim.DoctorID},
	})
	assertConflict(t, err, "doctor")

	if err := conflictFromHolders(claim, nil); err != nil {
		t.Fatalf("no holders means no conflict, got %v", err)
	}
}
