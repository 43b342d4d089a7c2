package workflow

import (
	"fmt"
	"strings"
	"time"
)

// Stage is the tag of the single form state a driver renders. Only one panel can be
// active at a time because the form holds exactly one stage.
type Stage string

const (
	StageIdle               Stage = "idle"
	StageAwaitingNotes      Stage = "awaiting_notes"
	StageAwaitingDecision   Stage = "awaiting_decision"
	StageAwaitingScheduling Stage = "awaiting_scheduling"
	StageAwaitingEndDate    Stage = "awaiting_end_date"
	StageAwaitingDocument   Stage = "awaiting_document"
	StageReady              Stage = "ready"
)

// Form accumulates a completion while staff walk through the panels.
type Form struct {
	Stage         Stage        `json:"stage"`
	ActivityID    uint         `json:"activity_id,omitempty"`
	ActivityType  ActivityType `json:"activity_type,omitempty"`
	Notes         string       `json:"notes,omitempty"`
	Decision      Decision     `json:"decision,omitempty"`
	Schedule      Schedule     `json:"schedule"`
	AdjustmentEnd *time.Time   `json:"adjustment_end,omitempty"`
	DocumentID    *uint        `json:"document_id,omitempty"`
}

// EventKind names a staff action on the form.
type EventKind string

const (
	EventOpen           EventKind = "open"
	EventNotes          EventKind = "notes"
	EventDecide         EventKind = "decide"
	EventSchedule       EventKind = "schedule"
	EventSkipScheduling EventKind = "skip_scheduling"
	EventEndDate        EventKind = "end_date"
	EventDocument       EventKind = "document"
	EventCancel         EventKind = "cancel"
)

// Event is one staff action; only the fields relevant to Kind are read.
type Event struct {
	Kind         EventKind
	ActivityID   uint
	ActivityType ActivityType
	Notes        string
	Decision     Decision
	Schedule     Schedule
	EndDate      *time.Time
	DocumentID   *uint
}

// NewForm returns the idle form.
func NewForm() Form {
	return Form{Stage: StageIdle}
}

// Apply advances the form by one event. The input form is never modified; on error the
// caller keeps showing the previous state.
func Apply(form Form, event Event, now time.Time) (Form, error) {
	if event.Kind == EventCancel {
		return NewForm(), nil
	}
	if form.Stage == "" {
		form.Stage = StageIdle
	}

	switch form.Stage {
	case StageIdle:
		if event.Kind != EventOpen {
			break
		}
		if !event.ActivityType.Valid() || event.ActivityType.IsTerminal() {
			return form, invalid("activity_type", fmt.Sprintf("%q cannot be completed", event.ActivityType))
		}
		return Form{Stage: StageAwaitingNotes, ActivityID: event.ActivityID, ActivityType: event.ActivityType}, nil

	case StageAwaitingNotes:
		if event.Kind != EventNotes {
			break
		}
		rule, _ := RuleFor(form.ActivityType)
		notes := strings.TrimSpace(event.Notes)
		if rule.NotesRequired && notes == "" {
			return form, invalid("notes", "required")
		}
		next := form
		next.Notes = notes
		switch {
		case !rule.Leaf():
			next.Stage = StageAwaitingDecision
		case rule.RequiresDocument:
			next.Stage = StageAwaitingDocument
		default:
			next.Stage = StageReady
		}
		return next, nil

	case StageAwaitingDecision:
		if event.Kind != EventDecide {
			break
		}
		transition, err := Resolve(form.ActivityType, event.Decision)
		if err != nil {
			return form, err
		}
		next := form
		next.Decision = transition.Decision
		switch {
		case transition.Scheduling != ScheduleNone:
			next.Stage = StageAwaitingScheduling
		case transition.RequiresEndDate:
			next.Stage = StageAwaitingEndDate
		default:
			next.Stage = StageReady
		}
		return next, nil

	case StageAwaitingScheduling:
		transition, err := Resolve(form.ActivityType, form.Decision)
		if err != nil {
			return form, err
		}
		switch event.Kind {
		case EventSchedule:
			if err := ValidateSchedule(transition, event.Schedule); err != nil {
				return form, err
			}
			next := form
			next.Schedule = event.Schedule
			next.Stage = StageReady
			return next, nil
		case EventSkipScheduling:
			next := form
			next.Schedule = Schedule{}
			next.Stage = StageReady
			return next, nil
		}

	case StageAwaitingEndDate:
		if event.Kind != EventEndDate {
			break
		}
		if event.EndDate == nil {
			return form, invalid("adjustment_end_date", "required for a temporary adjustment")
		}
		if err := ValidateAdjustmentEnd(*event.EndDate, now); err != nil {
			return form, err
		}
		next := form
		end := DateOnly(*event.EndDate)
		next.AdjustmentEnd = &end
		next.Stage = StageReady
		return next, nil

	case StageAwaitingDocument:
		if event.Kind != EventDocument {
			break
		}
		if event.DocumentID == nil || *event.DocumentID == 0 {
			return form, invalid("document_id", "a scanned document must be attached")
		}
		next := form
		id := *event.DocumentID
		next.DocumentID = &id
		next.Stage = StageReady
		return next, nil
	}

	return form, invalid("event", fmt.Sprintf("%s is not accepted while %s", event.Kind, form.Stage))
}

// Completion converts a ready form into the completion it collected.
func (f Form) Completion() (Completion, error) {
	if f.Stage != StageReady {
		return Completion{}, invalid("form", fmt.Sprintf("form is %s, not ready", f.Stage))
	}
	return Completion{
		Notes:         f.Notes,
		Decision:      f.Decision,
		Schedule:      f.Schedule,
		AdjustmentEnd: f.AdjustmentEnd,
		DocumentID:    f.DocumentID,
	}, nil
}
