package appointment

import (
	"fmt"
	"strings"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
)

func ErrInvalidArgument(code, message string) error {
	return httperr.New(httperr.KindInvalidArgument, code, message)
}

// ErrValidation names the offending fields so the client can highlight them.
func ErrValidation(code string, fields ...string) error {
	err := httperr.New(httperr.KindValidation, code, "invalid or missing fields")
	if len(fields) > 0 {
		err = err.With("fields", strings.Join(fields, ","))
	}
	return err
}

func ErrPastDate(date string) error {
	return httperr.New(httperr.KindPastDate, "past_date", "date is in the past").
		With("date", date)
}

// ErrCutoff reports which side of a reschedule was too close: "current" or
// "requested".
func ErrCutoff(side string, lead fmt.Stringer) error {
	return httperr.New(httperr.KindCutoff, "cutoff_violation",
		fmt.Sprintf("appointments cannot be changed less than %s ahead", lead)).
		With("side", side)
}

// ErrSlotConflict carries the contested slot and whether the doctor or the
// patient already holds it.
func ErrSlotConflict(scope, date, time string) error {
	return httperr.New(httperr.KindConflict, "slot_conflict",
		fmt.Sprintf("%s already has an appointment on %s at %s", scope, date, time)).
		With("scope", scope).
		With("date", date).
		With("time", time)
}

func ErrForbidden(code string) error {
	return httperr.New(httperr.KindForbidden, code, "not allowed for this appointment")
}

func ErrInvalidTransition(from, to Status) error {
	return httperr.New(httperr.KindInvalidTransition, "invalid_transition",
		fmt.Sprintf("cannot change status from %s to %s", from, to)).
		With("from", string(from)).
		With("to", string(to))
}

// ErrStaleStatus is returned when the row changed status between read and
// write.
func ErrStaleStatus(expected Status) error {
	return httperr.New(httperr.KindInvalidTransition, "stale_status",
		"appointment was modified concurrently").
		With("expected", string(expected))
}

func ErrNotFound(code string) error {
	return httperr.New(httperr.KindNotFound, code, "not found")
}

func ErrUnavailable(cause error) error {
	return httperr.Wrap(httperr.KindUnavailable, "store_unavailable", "appointment store unavailable", cause)
}

func ErrTimeout(cause error) error {
	return httperr.Wrap(httperr.KindTimeout, "store_timeout", "appointment store timed out", cause)
}
