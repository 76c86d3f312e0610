package appointment

import (
	"fmt"
	"time"
)

const slotLayout = "15:04"

// Policy is the clinic's booking window. The zero value is not usable; start
// from DefaultPolicy.
type Policy struct {
	OpenAt  string        `json:"open_at"`
	CloseAt string        `json:"close_at"`
	Step    time.Duration `json:"-"`
	Cutoff  time.Duration `json:"-"`
}

func DefaultPolicy() Policy {
	return Policy{
		OpenAt:  "13:00",
		CloseAt: "22:00",
		Step:    30 * time.Minute,
		Cutoff:  2 * time.Hour,
	}
}

func (p Policy) Validate() error {
	open, err := parseLabel(p.OpenAt)
	if err != nil {
		return fmt.Errorf("invalid open time %q: %w", p.OpenAt, err)
	}
	closeAt, err := parseLabel(p.CloseAt)
	if err != nil {
		return fmt.Errorf("invalid close time %q: %w", p.CloseAt, err)
	}
	if !open.Before(closeAt) {
		return fmt.Errorf("open time %s must be before close time %s", p.OpenAt, p.CloseAt)
	}
	if p.Step <= 0 {
		return fmt.Errorf("slot step must be positive, got %s", p.Step)
	}
	if p.Cutoff < 0 {
		return fmt.Errorf("cutoff must not be negative, got %s", p.Cutoff)
	}
	return nil
}

// Slots returns the ordered slot ladder for one working day. The closing
// label is always the last entry, even when the step does not land on it.
// A fresh slice is built on every call.
func (p Policy) Slots() []string {
	open, err := time.Parse(slotLayout, p.OpenAt)
	if err != nil {
		return nil
	}
	closeAt, err := time.Parse(slotLayout, p.CloseAt)
	if err != nil || p.Step <= 0 {
		return nil
	}

	slots := make([]string, 0, int(closeAt.Sub(open)/p.Step)+1)
	for cur := open; cur.Before(closeAt); cur = cur.Add(p.Step) {
		slots = append(slots, cur.Format(slotLayout))
	}
	return append(slots, closeAt.Format(slotLayout))
}

// parseLabel accepts only zero-padded HH:MM. time.Parse alone would let
// "9:00" through.
func parseLabel(label string) (time.Time, error) {
	t, err := time.Parse(slotLayout, label)
	if err != nil {
		return time.Time{}, err
	}
	if t.Format(slotLayout) != label {
		return time.Time{}, fmt.Errorf("expected HH:MM")
	}
	return t, nil
}

func (p Policy) IsSlot(label string) bool {
	for _, s := range p.Slots() {
		if s == label {
			return true
		}
	}
	return false
}

// GenerateSlots is the ladder of the default policy: 13:00 through 22:00.
func GenerateSlots() []string {
	return DefaultPolicy().Slots()
}
