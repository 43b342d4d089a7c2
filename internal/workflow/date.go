package workflow

import (
	"strings"
	"time"
)

// DateLayout is the ISO calendar date layout used on the wire.
const DateLayout = "2006-01-02"

// DateOnly strips the clock from t, keeping its calendar date at UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts an ISO date or the masked entry form (DD/MM/YYYY or its 8 digits).
func ParseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == len(DateLayout) && trimmed[4] == '-' {
		parsed, err := time.Parse(DateLayout, trimmed)
		if err != nil {
			return time.Time{}, invalid("date", "not a calendar date")
		}
		return parsed, nil
	}
	return ParseMaskedDate(trimmed)
}

// ParseMaskedDate turns masked day-first input into a calendar date. All three components
// are checked; incomplete or impossible dates are rejected rather than normalized.
func ParseMaskedDate(value string) (time.Time, error) {
	digits := make([]byte, 0, 8)
	for i := 0; i < len(value); i++ {
		switch c := value[i]; {
		case c >= '0' && c <= '9':
			digits = append(digits, c)
		case c == '/' || c == '-' || c == '.' || c == ' ':
		default:
			return time.Time{}, invalid("date", "only digits and separators are accepted")
		}
	}
	if len(digits) != 8 {
		return time.Time{}, invalid("date", "expected DD/MM/YYYY")
	}

	day := atoi(digits[0:2])
	month := atoi(digits[2:4])
	year := atoi(digits[4:8])

	if year < 1000 {
		return time.Time{}, invalid("date", "year must have four digits")
	}
	if month < 1 || month > 12 {
		return time.Time{}, invalid("date", "month must be between 1 and 12")
	}
	if day < 1 || day > daysIn(time.Month(month), year) {
		return time.Time{}, invalid("date", "day does not exist in that month")
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// MaskDate applies the progressive DD/MM/YYYY entry mask to raw keystrokes.
func MaskDate(raw string) string {
	digits := make([]byte, 0, 8)
	for i := 0; i < len(raw) && len(digits) < 8; i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}

	var b strings.Builder
	for i, c := range digits {
		if i == 2 || i == 4 {
			b.WriteByte('/')
		}
		b.WriteByte(c)
	}
	return b.String()
}

// ValidateAdjustmentEnd rejects end dates before today; today itself is accepted.
func ValidateAdjustmentEnd(end, now time.Time) error {
	if DateOnly(end).Before(DateOnly(now)) {
		return invalid("adjustment_end_date", "must not be in the past")
	}
	return nil
}

func atoi(digits []byte) int {
	n := 0
	for _, c := range digits {
		n = n*10 + int(c-'0')
	}
	return n
}

func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
