package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func applyAll(t *testing.T, events ...Event) Form {
	t.Helper()
	form := NewForm()
	for _, event := range events {
		next, err := Apply(form, event, today)
		require.NoError(t, err, "event %s", event.Kind)
		form = next
	}
	return form
}

func TestFormWalksIntakeToScheduledSession(t *testing.T) {
	form := applyAll(t,
		Event{Kind: EventOpen, ActivityID: 4, ActivityType: TypeIntake},
		Event{Kind: EventNotes, Notes: "spoke with parent"},
		Event{Kind: EventDecide, Decision: DecisionPedagogicalSession},
	)
	require.Equal(t, StageAwaitingScheduling, form.Stage)

	form, err := Apply(form, Event{Kind: EventSchedule, Schedule: Schedule{Date: datePtr(2025, time.July, 1), Time: clockPtr("10:00"), ProfessionalID: uintPtr(3)}}, today)
	require.NoError(t, err)
	require.Equal(t, StageReady, form.Stage)

	completion, err := form.Completion()
	require.NoError(t, err)
	require.Equal(t, DecisionPedagogicalSession, completion.Decision)
	require.True(t, completion.Schedule.Bookable())
	require.Equal(t, "spoke with parent", completion.Notes)
}

func TestFormTemporaryAdjustmentNeedsValidEndDate(t *testing.T) {
	form := applyAll(t,
		Event{Kind: EventOpen, ActivityID: 9, ActivityType: TypeFinancialSession},
		Event{Kind: EventNotes, Notes: "negotiated"},
		Event{Kind: EventDecide, Decision: DecisionTemporaryAdjustment},
	)
	require.Equal(t, StageAwaitingEndDate, form.Stage)

	unchanged, err := Apply(form, Event{Kind: EventEndDate, EndDate: datePtr(2025, time.June, 9)}, today)
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, form, unchanged)

	form, err = Apply(form, Event{Kind: EventEndDate, EndDate: datePtr(2025, time.June, 10)}, today)
	require.NoError(t, err)
	require.Equal(t, StageReady, form.Stage)
}

func TestFormRejectsEventsForOtherPanels(t *testing.T) {
	form := applyAll(t, Event{Kind: EventOpen, ActivityType: TypeIntake})

	_, err := Apply(form, Event{Kind: EventDecide, Decision: DecisionRetention}, today)
	requireField(t, err, "event")

	_, err = Apply(NewForm(), Event{Kind: EventNotes, Notes: "x"}, today)
	requireField(t, err, "event")

	_, err = Apply(NewForm(), Event{Kind: EventOpen, ActivityType: TypeChurn}, today)
	requireField(t, err, "activity_type")

	_, err = form.Completion()
	requireField(t, err, "form")
}

func TestFormDocumentTaskAndCancel(t *testing.T) {
	form := applyAll(t,
		Event{Kind: EventOpen, ActivityID: 12, ActivityType: TypeContractCancelation},
		Event{Kind: EventNotes},
	)
	require.Equal(t, StageAwaitingDocument, form.Stage)

	_, err := Apply(form, Event{Kind: EventDocument}, today)
	requireField(t, err, "document_id")

	ready, err := Apply(form, Event{Kind: EventDocument, DocumentID: uintPtr(5)}, today)
	require.NoError(t, err)
	require.Equal(t, StageReady, ready.Stage)

	cancelled, err := Apply(ready, Event{Kind: EventCancel}, today)
	require.NoError(t, err)
	require.Equal(t, NewForm(), cancelled)
}

func TestFormSkipSchedulingAndLeafTask(t *testing.T) {
	form := applyAll(t,
		Event{Kind: EventOpen, ActivityType: TypePedagogicalSession},
		Event{Kind: EventNotes, Notes: "needs financial follow-up"},
		Event{Kind: EventDecide, Decision: DecisionFinancialSession},
		Event{Kind: EventSkipScheduling},
	)
	require.Equal(t, StageReady, form.Stage)
	require.True(t, form.Schedule.IsZero())

	task := applyAll(t,
		Event{Kind: EventOpen, ActivityType: TypeMaterialReturn},
		Event{Kind: EventNotes},
	)
	require.Equal(t, StageReady, task.Stage)
}
