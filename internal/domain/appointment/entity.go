package appointment

import (
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// ===============================
// Domain Actions
// ===============================

// Transition moves ap to the target status and stamps the matching
// timestamp. Authorization happens in AuthorizeTransition.
func Transition(ap *models.Appointment, to Status, now time.Time) {
	ap.Status = string(to)

	switch to {
	case StatusCancelled:
		ap.CancelledAt = &now
	case StatusCompleted:
		ap.CompletedAt = &now
	}
}

// Reschedule moves ap to a new slot and flags it for admin review.
func Reschedule(ap *models.Appointment, day time.Time, slot string) {
	ap.Date = day
	ap.Time = slot
	ap.Status = string(StatusUpdated)
	ap.IsEdited = true
}
