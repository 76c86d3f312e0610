package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// SlotClaim is a (doctor, patient, day, time) tuple that must not collide
// with any non-cancelled appointment. ExcludeID skips the appointment being
// moved.
type SlotClaim struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Date      time.Time
	Time      string
	ExcludeID uuid.UUID
}

// AppointmentFilter selects appointments whose date falls in [From, To).
// Nil ids mean "any".
type AppointmentFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	From      time.Time
	To        time.Time
}

// Repository is the appointment store. Implementations translate store
// failures into the typed errors of this package: NotFound, SlotConflict,
// Unavailable and Timeout.
type Repository interface {
	// Transaction runs fn in one atomic unit. fn receives a repository bound
	// to the transaction; returning an error rolls everything back.
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	// -------- Booking --------
	AssertNoSlotConflict(ctx context.Context, claim SlotClaim) error
	CreateAppointment(ctx context.Context, ap *models.Appointment) error

	// -------- State change --------
	GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	// GetAppointmentForUpdate also locks the row until the transaction ends.
	GetAppointmentForUpdate(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	// SaveAppointment writes ap only if the stored status still equals
	// expected.
	SaveAppointment(ctx context.Context, ap *models.Appointment, expected Status) error
	DeleteAppointment(ctx context.Context, id uuid.UUID) error

	// -------- Availability --------
	ListBookedTimes(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]string, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]models.Appointment, error)
}

// UserDirectory is read-only access to accounts managed elsewhere.
type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}
