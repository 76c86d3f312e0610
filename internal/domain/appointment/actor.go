package appointment

import (
	"strings"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return r, true
	}
	return "", false
}

// Actor is the authenticated requester as supplied by the identity provider.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Involved reports whether the actor is the appointment's patient or doctor.
func (a Actor) Involved(ap *models.Appointment) bool {
	switch a.Role {
	case RolePatient:
		return ap.PatientID == a.ID
	case RoleDoctor:
		return ap.DoctorID == a.ID
	}
	return false
}

// CanView is true for admins and for the appointment's own patient or doctor.
func (a Actor) CanView(ap *models.Appointment) bool {
	return a.IsAdmin() || a.Involved(ap)
}
