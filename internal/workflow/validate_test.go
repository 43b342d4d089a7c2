package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/retention-api/internal/scheduling"
)

var today = time.Date(2025, time.June, 10, 15, 30, 0, 0, time.UTC)

func datePtr(year int, month time.Month, day int) *time.Time {
	value := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &value
}

func clockPtr(value string) *scheduling.Clock {
	clock := scheduling.MustParseClock(value)
	return &clock
}

func uintPtr(value uint) *uint {
	return &value
}

func requireField(t *testing.T, err error, field string) {
	t.Helper()
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr), "expected validation error, got %v", err)
	require.Equal(t, field, validationErr.Field)
	require.ErrorIs(t, err, ErrValidation)
}

func TestValidateRequiresNotesForChainActivities(t *testing.T) {
	_, err := Validate(TypeIntake, Completion{Notes: "   ", Decision: DecisionFinancialSession}, today)
	requireField(t, err, "notes")
}

func TestValidateRequiresDecision(t *testing.T) {
	_, err := Validate(TypeFinancialSession, Completion{Notes: "met the family"}, today)
	requireField(t, err, "decision")
}

func TestValidateIntakeToFinancialWithFollowUpDate(t *testing.T) {
	plan, err := Validate(TypeIntake, Completion{
		Notes:    " spoke with parent ",
		Decision: DecisionFinancialSession,
		Schedule: Schedule{Date: datePtr(2025, time.July, 1)},
	}, today)
	require.NoError(t, err)
	require.NotNil(t, plan.Transition)
	require.Equal(t, TypeFinancialSession, plan.Transition.Next)
	require.Equal(t, "spoke with parent", plan.Completion.Notes)
}

func TestValidateSchedulingFieldCombinations(t *testing.T) {
	_, err := Validate(TypeIntake, Completion{
		Notes:    "notes",
		Decision: DecisionPedagogicalSession,
		Schedule: Schedule{Time: clockPtr("10:00")},
	}, today)
	requireField(t, err, "scheduled_date")

	_, err = Validate(TypeIntake, Completion{
		Notes:    "notes",
		Decision: DecisionPedagogicalSession,
		Schedule: Schedule{Date: datePtr(2025, time.July, 1), ProfessionalID: uintPtr(3)},
	}, today)
	requireField(t, err, "scheduled_time")

	_, err = Validate(TypeIntake, Completion{
		Notes:    "notes",
		Decision: DecisionIntake,
		Schedule: Schedule{Date: datePtr(2025, time.July, 1), Time: clockPtr("10:00")},
	}, today)
	requireField(t, err, "schedule")

	_, err = Validate(TypeIntake, Completion{
		Notes:    "notes",
		Decision: DecisionRetention,
		Schedule: Schedule{Date: datePtr(2025, time.July, 1)},
	}, today)
	requireField(t, err, "schedule")

	plan, err := Validate(TypePedagogicalSession, Completion{
		Notes:    "notes",
		Decision: DecisionFinancialSession,
		Schedule: Schedule{Date: datePtr(2025, time.July, 1), Time: clockPtr("17:30"), ProfessionalID: uintPtr(2)},
	}, today)
	require.NoError(t, err)
	require.True(t, plan.Completion.Schedule.Bookable())
}

func TestValidateTemporaryAdjustmentDateGuard(t *testing.T) {
	base := Completion{Notes: "agreed a discount", Decision: DecisionTemporaryAdjustment}

	_, err := Validate(TypeFinancialSession, base, today)
	requireField(t, err, "adjustment_end_date")

	past := base
	past.AdjustmentEnd = datePtr(2025, time.June, 9)
	_, err = Validate(TypeFinancialSession, past, today)
	requireField(t, err, "adjustment_end_date")

	for _, day := range []int{10, 11} {
		accepted := base
		accepted.AdjustmentEnd = datePtr(2025, time.June, day)
		_, err = Validate(TypeFinancialSession, accepted, today)
		require.NoError(t, err, "day %d", day)
	}

	permanent := Completion{Notes: "agreed", Decision: DecisionPermanentAdjustment, AdjustmentEnd: datePtr(2025, time.June, 20)}
	_, err = Validate(TypeFinancialSession, permanent, today)
	requireField(t, err, "adjustment_end_date")
}

func TestValidateAdministrativeTasks(t *testing.T) {
	plan, err := Validate(TypeMaterialReturn, Completion{}, today)
	require.NoError(t, err)
	require.Nil(t, plan.Transition)

	_, err = Validate(TypeContractCancelation, Completion{Notes: "signed"}, today)
	requireField(t, err, "document_id")

	_, err = Validate(TypeContractCancelation, Completion{DocumentID: uintPtr(8)}, today)
	require.NoError(t, err)

	_, err = Validate(TypeSystemRemoval, Completion{Decision: DecisionRetention}, today)
	requireField(t, err, "decision")

	_, err = Validate(TypeFinancialSession, Completion{Notes: "n", Decision: DecisionChurn, DocumentID: uintPtr(1)}, today)
	requireField(t, err, "document_id")
}

func TestValidateRejectsTerminalActivities(t *testing.T) {
	_, err := Validate(TypeChurn, Completion{Notes: "again"}, today)
	requireField(t, err, "activity_type")
}
