package dto

import (
	"time"

	"github.com/noah-isme/retention-api/internal/workflow"
)

// DraftEventRequest is one staff action on the completion form of an alert.
type DraftEventRequest struct {
	Kind           string `json:"kind" validate:"required,oneof=open notes decide schedule skip_scheduling end_date document cancel"`
	ActivityID     uint   `json:"activity_id"`
	Notes          string `json:"notes" validate:"max=4000"`
	NextType       string `json:"next_type" validate:"omitempty,max=40"`
	Outcome        string `json:"outcome" validate:"omitempty,max=40"`
	ScheduledDate  string `json:"scheduled_date" validate:"omitempty,max=10"`
	ScheduledTime  string `json:"scheduled_time" validate:"omitempty,max=8"`
	ProfessionalID *uint  `json:"professional_id"`
	EndDate        string `json:"adjustment_end_date" validate:"omitempty,max=10"`
	DocumentID     *uint  `json:"document_id"`
}

// Event converts the request into a form event. Open events leave the activity type to
// the caller, which resolves it from the store.
func (r DraftEventRequest) Event() (workflow.Event, error) {
	event := workflow.Event{
		Kind:       workflow.EventKind(r.Kind),
		ActivityID: r.ActivityID,
		Notes:      r.Notes,
		DocumentID: r.DocumentID,
	}

	switch event.Kind {
	case workflow.EventDecide:
		decision, err := workflow.DecisionFrom(r.NextType, r.Outcome)
		if err != nil {
			return workflow.Event{}, err
		}
		event.Decision = decision
	case workflow.EventSchedule:
		schedule, err := ParseSchedule(r.ScheduledDate, r.ScheduledTime, r.ProfessionalID)
		if err != nil {
			return workflow.Event{}, err
		}
		event.Schedule = schedule
	case workflow.EventEndDate:
		end, err := parseOptionalDate("adjustment_end_date", r.EndDate)
		if err != nil {
			return workflow.Event{}, err
		}
		event.EndDate = end
	}
	return event, nil
}

// DraftResponse exposes the persisted form state.
type DraftResponse struct {
	AlertID        uint          `json:"alert_id"`
	Form           workflow.Form `json:"form"`
	LegalDecisions []string      `json:"legal_decisions,omitempty"`
	ExpiresAt      *time.Time    `json:"expires_at,omitempty"`
}
