package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

// --------------------------------------------------
// Transaction
// --------------------------------------------------

func (r *AppointmentGormRepository) Transaction(
	ctx context.Context,
	fn func(tx domain.Repository) error,
) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&AppointmentGormRepository{db: tx})
	})
	return translateError(err, nil)
}

// --------------------------------------------------
// Booking
// --------------------------------------------------

// AssertNoSlotConflict is the fast pre-check. The partial unique indexes
// remain the real guarantee; see translateError.
func (r *AppointmentGormRepository) AssertNoSlotConflict(
	ctx context.Context,
	claim domain.SlotClaim,
) error {

	q := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Select("id", "doctor_id", "patient_id").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(
			"appointment_date = ? AND appointment_time = ? AND status <> ?",
			domain.FormatDate(claim.Date), claim.Time, string(domain.StatusCancelled),
		).
		Where("doctor_id = ? OR patient_id = ?", claim.DoctorID, claim.PatientID)

	if claim.ExcludeID != uuid.Nil {
		q = q.Where("id <> ?", claim.ExcludeID)
	}

	var holders []models.Appointment
	if err := q.Limit(2).Find(&holders).Error; err != nil {
		return translateError(err, nil)
	}

	return conflictFromHolders(claim, holders)
}

func (r *AppointmentGormRepository) CreateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return translateError(r.db.WithContext(ctx).Create(ap).Error, ap)
}

// --------------------------------------------------
// State change
// --------------------------------------------------

func (r *AppointmentGormRepository) GetAppointment(
	ctx context.Context,
	id uuid.UUID,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&ap).Error; err != nil {
		return nil, translateError(err, nil)
	}
	return &ap, nil
}

func (r *AppointmentGormRepository) GetAppointmentForUpdate(
	ctx context.Context,
	id uuid.UUID,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&ap).Error; err != nil {
		return nil, translateError(err, nil)
	}
	return &ap, nil
}

// SaveAppointment is a compare-and-swap on status: zero affected rows means
// someone else changed the appointment after it was read.
func (r *AppointmentGormRepository) SaveAppointment(
	ctx context.Context,
	ap *models.Appointment,
	expected domain.Status,
) error {

	ap.UpdatedAt = time.Now()

	res := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND status = ?", ap.ID, string(expected)).
		Updates(map[string]any{
			"appointment_date": domain.FormatDate(ap.Date),
			"appointment_time": ap.Time,
			"status":           ap.Status,
			"is_edited":        ap.IsEdited,
			"cancelled_at":     ap.CancelledAt,
			"completed_at":     ap.CompletedAt,
			"updated_at":       ap.UpdatedAt,
		})
	if res.Error != nil {
		return translateError(res.Error, ap)
	}
	if res.RowsAffected == 0 {
		return domain.ErrStaleStatus(expected)
	}
	return nil
}

func (r *AppointmentGormRepository) DeleteAppointment(
	ctx context.Context,
	id uuid.UUID,
) error {

	res := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Appointment{})
	if res.Error != nil {
		return translateError(res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound("appointment_not_found")
	}
	return nil
}

// --------------------------------------------------
// Availability
// --------------------------------------------------

func (r *AppointmentGormRepository) ListBookedTimes(
	ctx context.Context,
	doctorID uuid.UUID,
	day time.Time,
) ([]string, error) {

	var times []string
	if err := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where(
			"doctor_id = ? AND appointment_date = ? AND status IN ?",
			doctorID, domain.FormatDate(day), statusStrings(domain.OccupyingStatuses()),
		).
		Pluck("appointment_time", &times).Error; err != nil {
		return nil, translateError(err, nil)
	}

	return times, nil
}

func (r *AppointmentGormRepository) ListAppointments(
	ctx context.Context,
	filter domain.AppointmentFilter,
) ([]models.Appointment, error) {

	q := r.db.WithContext(ctx).
		Where(
			"appointment_date >= ? AND appointment_date < ?",
			domain.FormatDate(filter.From), domain.FormatDate(filter.To),
		)

	if filter.PatientID != nil {
		q = q.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.DoctorID != nil {
		q = q.Where("doctor_id = ?", *filter.DoctorID)
	}

	var apps []models.Appointment
	if err := q.
		Order("appointment_date ASC").
		Order("appointment_time ASC").
		Find(&apps).Error; err != nil {
		return nil, translateError(err, nil)
	}

	return apps, nil
}

func statusStrings(statuses []domain.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// Compile-time check
var _ domain.Repository = (*AppointmentGormRepository)(nil)
