package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/retention-api/internal/scheduling"
)

// ErrValidation marks every rejection raised before the activity store is touched.
var ErrValidation = errors.New("validation failed")

// ValidationError names the offending field and why it was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap lets callers match ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Schedule carries the optional scheduling fields of a completion.
type Schedule struct {
	Date           *time.Time        `json:"date,omitempty"`
	Time           *scheduling.Clock `json:"time,omitempty"`
	ProfessionalID *uint             `json:"professional_id,omitempty"`
}

// IsZero reports whether no scheduling field was supplied.
func (s Schedule) IsZero() bool {
	return s.Date == nil && s.Time == nil && s.ProfessionalID == nil
}

// Bookable reports whether the schedule names a concrete slot in a professional's calendar.
func (s Schedule) Bookable() bool {
	return s.Date != nil && s.Time != nil && s.ProfessionalID != nil
}

// Completion is everything staff supply when completing the pending activity.
type Completion struct {
	Notes         string
	Decision      Decision
	Schedule      Schedule
	AdjustmentEnd *time.Time
	DocumentID    *uint
}

// Plan is a validated completion ready to be applied to the store.
type Plan struct {
	Current    ActivityType
	Completion Completion
	// Transition is nil for administrative tasks, which never advance.
	Transition *Transition
}

// Validate checks a completion of an activity of type current. now is the caller's
// local wall clock, used for the "not before today" guard.
func Validate(current ActivityType, completion Completion, now time.Time) (Plan, error) {
	rule, ok := RuleFor(current)
	if !ok {
		return Plan{}, invalid("activity_type", fmt.Sprintf("unknown activity type %q", current))
	}
	if current.IsTerminal() {
		return Plan{}, invalid("activity_type", "terminal activities cannot be completed")
	}

	completion.Notes = strings.TrimSpace(completion.Notes)
	if rule.NotesRequired && completion.Notes == "" {
		return Plan{}, invalid("notes", "required")
	}

	if current.IsTask() {
		if err := validateTask(rule, completion); err != nil {
			return Plan{}, err
		}
		return Plan{Current: current, Completion: completion}, nil
	}

	transition, err := Resolve(current, completion.Decision)
	if err != nil {
		return Plan{}, err
	}
	if err := ValidateSchedule(transition, completion.Schedule); err != nil {
		return Plan{}, err
	}

	switch {
	case transition.RequiresEndDate && completion.AdjustmentEnd == nil:
		return Plan{}, invalid("adjustment_end_date", "required for a temporary adjustment")
	case transition.RequiresEndDate:
		if err := ValidateAdjustmentEnd(*completion.AdjustmentEnd, now); err != nil {
			return Plan{}, err
		}
	case completion.AdjustmentEnd != nil:
		return Plan{}, invalid("adjustment_end_date", "only accepted for a temporary adjustment")
	}

	if completion.DocumentID != nil {
		return Plan{}, invalid("document_id", "only accepted by administrative tasks")
	}

	return Plan{Current: current, Completion: completion, Transition: &transition}, nil
}

func validateTask(rule Rule, completion Completion) error {
	if completion.Decision != "" {
		return invalid("decision", "administrative tasks do not advance")
	}
	if !completion.Schedule.IsZero() {
		return invalid("schedule", "administrative tasks are not scheduled")
	}
	if completion.AdjustmentEnd != nil {
		return invalid("adjustment_end_date", "only accepted for a temporary adjustment")
	}
	if rule.RequiresDocument && completion.DocumentID == nil {
		return invalid("document_id", "a scanned document must be attached")
	}
	return nil
}

// ValidateSchedule checks the scheduling fields against the transition's rule.
func ValidateSchedule(transition Transition, schedule Schedule) error {
	switch transition.Scheduling {
	case ScheduleNone:
		if !schedule.IsZero() {
			return invalid("schedule", fmt.Sprintf("%s is not scheduled", transition.Next))
		}
	case ScheduleDateOnly:
		if schedule.Time != nil || schedule.ProfessionalID != nil {
			return invalid("schedule", "only a follow-up date is accepted")
		}
	case ScheduleSession:
		if schedule.Time != nil && schedule.Date == nil {
			return invalid("scheduled_date", "required when a time is given")
		}
		if schedule.ProfessionalID != nil && schedule.Time == nil {
			return invalid("scheduled_time", "required when a professional is assigned")
		}
		if schedule.ProfessionalID != nil && *schedule.ProfessionalID == 0 {
			return invalid("professional_id", "must reference a professional")
		}
	}
	return nil
}
