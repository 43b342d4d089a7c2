// Package scheduling computes free appointment start times for a professional's calendar day.
package scheduling

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	// Granularity is the step between two candidate start times.
	Granularity = 30 * time.Minute
	// AppointmentDuration is the length reserved by every retention session.
	AppointmentDuration = 60 * time.Minute
)

// Variant selects how candidate start times are generated for a call site.
type Variant string

const (
	// VariantSession only offers candidates whose full appointment fits before closing.
	VariantSession Variant = "session"
	// VariantFollowUp browses the whole day on the 30 minute grid without trimming for duration.
	VariantFollowUp Variant = "follow_up"
)

// ParseVariant resolves a variant name; an empty string means VariantSession.
func ParseVariant(value string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(value))) {
	case "", VariantSession:
		return VariantSession, nil
	case VariantFollowUp:
		return VariantFollowUp, nil
	default:
		return "", fmt.Errorf("unknown scheduler variant %q", value)
	}
}

// Policy describes candidate generation for a variant.
type Policy struct {
	Step     time.Duration
	Duration time.Duration
	// TrimForDuration stops candidates once start+Duration would pass closing time.
	TrimForDuration bool
}

// Policy returns the generation rules for the variant.
func (v Variant) Policy() Policy {
	if v == VariantFollowUp {
		return Policy{Step: Granularity, Duration: AppointmentDuration, TrimForDuration: false}
	}
	return Policy{Step: Granularity, Duration: AppointmentDuration, TrimForDuration: true}
}

// BusinessHours is a professional's opening window for one weekday.
type BusinessHours struct {
	Open  bool
	Start Clock
	End   Clock
}

// Commitment is an existing calendar entry. Exactly one of Date or Weekday is set:
// Date for a one-off entry, Weekday for an entry repeating every week.
type Commitment struct {
	ProfessionalID uint
	Date           *time.Time
	Weekday        *time.Weekday
	Start          Clock
	End            Clock
}

// AppliesOn reports whether the commitment occupies the given calendar date.
func (c Commitment) AppliesOn(day time.Time) bool {
	if c.Date != nil {
		return SameDate(*c.Date, day)
	}
	if c.Weekday != nil {
		return *c.Weekday == day.Weekday()
	}
	return false
}

// SameDate compares the calendar dates of a and b, ignoring clock and location offsets.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Overlaps is the half-open interval test shared by every scheduler call site.
// Intervals that merely touch do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd Clock) bool {
	return aStart < bEnd && aEnd > bStart
}

// Candidates enumerates start times within the business hours according to policy.
func Candidates(hours BusinessHours, policy Policy) []Clock {
	if !hours.Open || policy.Step <= 0 {
		return []Clock{}
	}

	candidates := make([]Clock, 0)
	for candidate := hours.Start; ; candidate = candidate.Add(policy.Step) {
		if policy.TrimForDuration {
			if candidate.Add(policy.Duration) > hours.End {
				break
			}
		} else if candidate >= hours.End {
			break
		}
		candidates = append(candidates, candidate)
	}
	return candidates
}

// Applicable keeps the professional's commitments that occupy the given date.
func Applicable(professionalID uint, day time.Time, commitments []Commitment) []Commitment {
	applicable := make([]Commitment, 0, len(commitments))
	for _, commitment := range commitments {
		if commitment.ProfessionalID != professionalID {
			continue
		}
		if commitment.AppliesOn(day) {
			applicable = append(applicable, commitment)
		}
	}
	return applicable
}

// AvailableSlots returns the free start times for the professional on day, ascending.
func AvailableSlots(professionalID uint, day time.Time, hours BusinessHours, commitments []Commitment, variant Variant) []Clock {
	policy := variant.Policy()
	busy := Applicable(professionalID, day, commitments)

	slots := make([]Clock, 0)
	for _, candidate := range Candidates(hours, policy) {
		end := candidate.Add(policy.Duration)
		free := true
		for _, commitment := range busy {
			if Overlaps(candidate, end, commitment.Start, commitment.End) {
				free = false
				break
			}
		}
		if free {
			slots = append(slots, candidate)
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}

// Contains reports whether slot is among slots.
func Contains(slots []Clock, slot Clock) bool {
	for _, candidate := range slots {
		if candidate == slot {
			return true
		}
	}
	return false
}
