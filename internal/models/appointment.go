package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Appointment struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	PatientID uuid.UUID `gorm:"type:uuid;not null;index" json:"patient_id"`
	Patient   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`

	DoctorID uuid.UUID `gorm:"type:uuid;not null;index" json:"doctor_id"`
	Doctor   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`

	// Date is a calendar day, stored without time of day.
	Date       time.Time `gorm:"column:appointment_date;type:date;not null" json:"date"`
	Time       string    `gorm:"column:appointment_time;size:5;not null" json:"time"`
	Department string    `gorm:"size:100" json:"department"`

	Status   string `gorm:"size:20;not null;default:'pending';index" json:"status"`
	IsEdited bool   `gorm:"not null;default:false" json:"is_edited"`

	// Snapshot of the patient taken at booking time.
	FullName    string `gorm:"size:150" json:"full_name"`
	Email       string `gorm:"size:150" json:"email"`
	Phone       string `gorm:"size:30" json:"phone"`
	Address     string `gorm:"size:255" json:"address"`
	DateOfBirth string `gorm:"size:10" json:"date_of_birth"`
	Gender      string `gorm:"size:20" json:"gender"`

	CancelledAt *time.Time `json:"cancelled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
