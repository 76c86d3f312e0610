package appointment

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

type AvailabilityInput struct {
	DoctorID uuid.UUID
	Date     time.Time
}

type Availability struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"date"`
	Slots    []string  `json:"slots"`
}

// NewAvailabilityInput parses raw request values. Both failures are
// InvalidArgument so they are reported before the store is touched.
func NewAvailabilityInput(doctorID, date string) (AvailabilityInput, error) {
	id, err := uuid.Parse(strings.TrimSpace(doctorID))
	if err != nil {
		return AvailabilityInput{}, ErrInvalidArgument("invalid_doctor_id", "doctor id must be a uuid")
	}

	day, err := ParseDate(date)
	if err != nil {
		return AvailabilityInput{}, ErrInvalidArgument("invalid_date", "date must be YYYY-MM-DD")
	}

	return AvailabilityInput{DoctorID: id, Date: day}, nil
}

// ParseDate accepts a plain calendar date or an RFC 3339 timestamp and
// returns the calendar day at midnight UTC, the form stored in the database.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return timezone.DayOf(t), nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return timezone.DayOf(t), nil
}

func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// Subtract returns slots minus booked, keeping the order of slots.
func Subtract(slots, booked []string) []string {
	taken := make(map[string]struct{}, len(booked))
	for _, t := range booked {
		taken[t] = struct{}{}
	}

	free := make([]string, 0, len(slots))
	for _, s := range slots {
		if _, ok := taken[s]; !ok {
			free = append(free, s)
		}
	}
	return free
}
