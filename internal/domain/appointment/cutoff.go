package appointment

import "time"

// HoursUntil is the signed number of hours from now to at.
func HoursUntil(now, at time.Time) float64 {
	return at.Sub(now).Hours()
}

// CheckNotPastDay rejects a calendar day strictly before today. Both values
// are day-normalized.
func CheckNotPastDay(day, today time.Time) error {
	if day.Before(today) {
		return ErrPastDate(FormatDate(day))
	}
	return nil
}

// CheckLeadTime enforces the cutoff for one side of a reschedule.
func CheckLeadTime(side string, now, at time.Time, cutoff time.Duration) error {
	if at.Sub(now) < cutoff {
		return ErrCutoff(side, cutoff)
	}
	return nil
}
