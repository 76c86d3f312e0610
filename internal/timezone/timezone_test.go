package timezone

import (
	"testing"
	"time"
)

func TestIsValid(t *testing.T) {
	if !IsValid("America/Sao_Paulo") || !IsValid("UTC") {
		t.Fatal("known zones should be valid")
	}
	if IsValid("") || IsValid("Mars/Olympus") {
		t.Fatal("unknown zones should be invalid")
	}
}

func TestLocationFallsBack(t *testing.T) {
	if got := Location("Mars/Olympus").String(); got != DefaultTimezone && got != "UTC" {
		t.Fatalf("fallback location = %s", got)
	}
}

func TestClockTodayUsesClinicCalendar(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skip("tzdata not available")
	}

	// 01:30 UTC on the 11th is still the 10th in Sao Paulo.
	c := FixedClock(time.Date(2025, 6, 11, 1, 30, 0, 0, time.UTC), loc)

	want := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	if got := c.Today(); !got.Equal(want) {
		t.Fatalf("Today = %s, want %s", got, want)
	}
}

func TestClockAt(t *testing.T) {
	loc := time.FixedZone("clinic", -3*60*60)
	c := FixedClock(time.Time{}, loc)

	at, err := c.At(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), "13:30")
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2025, 6, 10, 16, 30, 0, 0, time.UTC); !at.Equal(want) {
		t.Fatalf("At = %s, want %s", at.UTC(), want)
	}

	if _, err := c.At(time.Now(), "1pm"); err == nil {
		t.Fatal("malformed label should fail")
	}
}

func TestZeroClockUsesUTC(t *testing.T) {
	var c Clock
	if c.Now().Location() != time.UTC {
		t.Fatal("zero clock should report UTC")
	}
}
