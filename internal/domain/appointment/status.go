package appointment

import (
	"strings"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusUpdated   Status = "updated"
)

// ParseStatus accepts any casing and returns the canonical lowercase value.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusCompleted, StatusCancelled, StatusUpdated:
		return st, true
	}
	return "", false
}

func InitialStatus() Status {
	return StatusPending
}

// OccupiesSlot lists the statuses that hide a slot from availability.
func (s Status) OccupiesSlot() bool {
	return s == StatusPending || s == StatusApproved
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// OccupyingStatuses returns the statuses for which OccupiesSlot is true.
func OccupyingStatuses() []Status {
	return []Status{StatusPending, StatusApproved}
}

// lifecycle is the status graph independent of who performs the change.
var lifecycle = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusCancelled, StatusUpdated},
	StatusApproved: {StatusCompleted, StatusCancelled},
	StatusUpdated:  {StatusApproved, StatusCancelled},
}

// roleTransitions is what each role may do through a status change. Patients
// have no entry: their only move is a reschedule.
var roleTransitions = map[Role]map[Status][]Status{
	RoleAdmin: {
		StatusPending: {StatusApproved, StatusCancelled},
		StatusUpdated: {StatusApproved, StatusCancelled},
	},
	RoleDoctor: {
		StatusPending:  {StatusCancelled},
		StatusApproved: {StatusCompleted, StatusCancelled},
	},
}

func CanTransition(from, to Status) bool {
	return contains(lifecycle[from], to)
}

func RoleCanTransition(role Role, from, to Status) bool {
	return contains(roleTransitions[role][from], to)
}

// AuthorizeTransition decides whether actor may move ap to the target status.
// Ownership is checked before the status tables so that a doctor touching a
// colleague's appointment gets Forbidden regardless of its status. A move
// must be both in the lifecycle graph and granted to the role.
func AuthorizeTransition(actor Actor, ap *models.Appointment, to Status) error {
	from := Status(ap.Status)

	switch actor.Role {
	case RoleAdmin:
	case RoleDoctor, RolePatient:
		if !actor.Involved(ap) {
			return ErrForbidden("not_appointment_owner")
		}
	default:
		return ErrForbidden("unknown_role")
	}

	if !CanTransition(from, to) || !RoleCanTransition(actor.Role, from, to) {
		return ErrInvalidTransition(from, to)
	}
	return nil
}

// CanReschedule is the patient-side check: anything not yet finished may move.
func CanReschedule(current Status) error {
	if current.Terminal() {
		return ErrInvalidTransition(current, StatusUpdated)
	}
	return nil
}

func contains(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
