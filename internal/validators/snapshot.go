package validators

import (
	"strings"
	"time"
	"unicode"
)

// IsPhoneValid accepts digits with the usual separators and an optional
// leading +, and between 8 and 15 digits.
func IsPhoneValid(phone string) bool {
	phone = strings.TrimSpace(phone)
	digits := 0
	for i, r := range phone {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	return digits >= 8 && digits <= 15
}

// IsDateOfBirthValid requires YYYY-MM-DD strictly before today.
func IsDateOfBirthValid(dob string, today time.Time) bool {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(dob))
	if err != nil {
		return false
	}
	return t.Before(today) && t.Year() >= 1900
}

type Field struct {
	Name  string
	Value string
}

// Required returns the names of the blank fields, in the order given.
func Required(fields ...Field) []string {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			missing = append(missing, f.Name)
		}
	}
	return missing
}
