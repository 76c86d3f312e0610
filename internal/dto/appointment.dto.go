package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type AppointmentListDTO struct {
	ID          uuid.UUID `json:"id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	PatientID   uuid.UUID `json:"patient_id"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Department  string    `json:"department"`
	Status      string    `json:"status"`
	IsEdited    bool      `json:"is_edited"`
	PatientName string    `json:"patient_name"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewAppointmentListDTO(ap models.Appointment) AppointmentListDTO {
	return AppointmentListDTO{
		ID:          ap.ID,
		DoctorID:    ap.DoctorID,
		PatientID:   ap.PatientID,
		Date:        ap.Date.Format("2006-01-02"),
		Time:        ap.Time,
		Department:  ap.Department,
		Status:      ap.Status,
		IsEdited:    ap.IsEdited,
		PatientName: ap.FullName,
		UpdatedAt:   ap.UpdatedAt,
	}
}

// AppointmentDTO is the full view returned to the appointment's own
// participants and to admins.
type AppointmentDTO struct {
	AppointmentListDTO

	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
	DateOfBirth string     `json:"date_of_birth"`
	Gender      string     `json:"gender"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func NewAppointmentDTO(ap models.Appointment) AppointmentDTO {
	return AppointmentDTO{
		AppointmentListDTO: NewAppointmentListDTO(ap),
		Email:              ap.Email,
		Phone:              ap.Phone,
		Address:            ap.Address,
		DateOfBirth:        ap.DateOfBirth,
		Gender:             ap.Gender,
		CancelledAt:        ap.CancelledAt,
		CompletedAt:        ap.CompletedAt,
		CreatedAt:          ap.CreatedAt,
	}
}
