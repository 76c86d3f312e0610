package timezone

import "time"

const DefaultTimezone = "America/Sao_Paulo"

func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

func Location(tz string) *time.Location {
	if IsValid(tz) {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}

	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Clock is the clinic's notion of "now". All calendar days and slot labels
// are interpreted in Loc.
type Clock struct {
	Loc *time.Location
	now func() time.Time
}

func NewClock(tz string) Clock {
	return Clock{Loc: Location(tz), now: time.Now}
}

// FixedClock always reports t. Used by tests and replay tooling.
func FixedClock(t time.Time, loc *time.Location) Clock {
	return Clock{Loc: loc, now: func() time.Time { return t }}
}

func (c Clock) Now() time.Time {
	if c.now == nil {
		return time.Now().In(c.location())
	}
	return c.now().In(c.location())
}

// Today returns the current clinic calendar day as a UTC midnight value,
// the same representation used for stored appointment dates.
func (c Clock) Today() time.Time {
	return DayOf(c.Now())
}

// At places a calendar day and an HH:MM label on the clinic's timeline.
func (c Clock) At(day time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, c.location()), nil
}

func (c Clock) location() *time.Location {
	if c.Loc == nil {
		return time.UTC
	}
	return c.Loc
}

// DayOf strips the time of day, keeping t's calendar date.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
