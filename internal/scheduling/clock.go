package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay bounds every Clock value; 24:00 is accepted as an end-of-day marker.
const MinutesPerDay = 24 * 60

// Clock is a time of day expressed in minutes since midnight.
type Clock int

// NewClock builds a Clock from an hour and minute pair.
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock parses "HH:MM" (seconds are tolerated and ignored).
func ParseClock(value string) (Clock, error) {
	trimmed := strings.TrimSpace(value)
	parts := strings.Split(trimmed, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", value)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 24 {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	if len(parts) == 3 {
		if second, err := strconv.Atoi(parts[2]); err != nil || second < 0 || second > 59 {
			return 0, fmt.Errorf("invalid second in %q", value)
		}
	}

	clock := NewClock(hour, minute)
	if clock > MinutesPerDay {
		return 0, fmt.Errorf("time of day %q is past midnight", value)
	}
	return clock, nil
}

// MustParseClock is ParseClock for literals known to be valid.
func MustParseClock(value string) Clock {
	clock, err := ParseClock(value)
	if err != nil {
		panic(err)
	}
	return clock
}

// Hour returns the hour component.
func (c Clock) Hour() int { return int(c) / 60 }

// Minute returns the minute component.
func (c Clock) Minute() int { return int(c) % 60 }

// Add shifts the clock by d, truncated to whole minutes.
func (c Clock) Add(d time.Duration) Clock {
	return c + Clock(d/time.Minute)
}

// On anchors the clock to the calendar date of day, in day's location.
func (c Clock) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, day.Location())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// MarshalText renders the clock as "HH:MM".
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses "HH:MM".
func (c *Clock) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
