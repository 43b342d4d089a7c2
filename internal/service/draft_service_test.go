package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/retention-api/internal/dto"
	"github.com/noah-isme/retention-api/internal/workflow"
)

func newDraftFixture(t *testing.T) (*retentionFixture, *draftService) {
	t.Helper()
	f := newRetentionFixture(t)
	drafts := NewDraftService(f.svc, f.redis, time.Hour, time.UTC, validator.New(), testLogger()).(*draftService)
	drafts.now = func() time.Time { return fixtureNow }
	return f, drafts
}

func TestDraftServiceWalksFormAndSubmits(t *testing.T) {
	f, drafts := newDraftFixture(t)
	alert := f.openAlert(t)
	ctx := context.Background()

	draft, err := drafts.Apply(ctx, f.staff, alert.ID, dto.DraftEventRequest{Kind: "open"})
	require.NoError(t, err)
	require.Equal(t, workflow.StageAwaitingNotes, draft.Form.Stage)
	require.Equal(t, alert.PendingActivity.ID, draft.Form.ActivityID)

	_, err = drafts.Apply(ctx, f.staff, alert.ID, dto.DraftEventRequest{Kind: "notes", Notes: "   "})
	require.ErrorIs(t, err, workflow.ErrValidation)

	draft, err = drafts.Apply(ctx, f.staff, alert.ID, dto.DraftEventRequest{Kind: "notes", Notes: "talked to guardian"})
	require.NoError(t, err)
	require.Equal(t, workflow.StageAwaitingDecision, draft.Form.Stage)
	require.Contains(t, draft.LegalDecisions, "atendimento_pedagogico")

	draft, err = drafts.Apply(ctx, f.staff, alert.ID, dto.DraftEventRequest{Kind: "decide", NextType: "atendimento_pedagogico"})
	require.NoError(t, err)
	require.Equal(t, workflow.StageAwaitingScheduling, draft.Form.Stage)

	_, err = drafts.Submit(ctx, f.staff, alert.ID)
	require.ErrorIs(t, err, workflow.ErrValidation)

	draft, err = drafts.Apply(ctx, f.staff, alert.ID, dto.DraftEventRequest{
		Kind:           "schedule",
		ScheduledDate:  "12062024",
		ScheduledTime:  "14:30",
		ProfessionalID: ptrUint(9),
	})
	require.NoError(t, err)
	require.Equal(t, workflow.StageReady, draft.Form.Stage)
	require.NotNil(t, draft.ExpiresAt)

	persisted, err := drafts.Get(ctx, f.staff, alert.ID)
	require.NoError(t, err)
	require.Equal(t, workflow.StageReady, persisted.Form.Stage)
	require.Equal(t, "14:30", persisted.Form.Schedule.Time.String())

	other, err := drafts.Get(ctx, Actor{ID: 99}, alert.ID)
	require.NoError(t, err)
	require.Equal(t, workflow.StageIdle, other.Form.Stage)

	resp, err := drafts.Submit(ctx, f.staff, alert.ID)
	require.NoError(t, err)
	require.Equal(t, string(workflow.TypePedagogicalSession), resp.Successor.Type)
	require.Equal(t, "2024-06-12", *resp.Successor.ScheduledDate)

	cleared, err := drafts.Get(ctx, f.staff, alert.ID)
	require.NoError(t, err)
	require.Equal(t, workflow.StageIdle, cleared.Form.Stage)
}

func TestDraftServiceCancelLeavesChainUntouched(t *testing.T) {
	f, drafts := newDraftFixture(t)
	alert := f.openAlert(t)
	ctx := context.Background()

	_, err := drafts.Apply(ctx, f.staff, alert.ID, dto.DraftEventRequest{Kind: "open"})
	require.NoError(t, err)
	_, err = drafts.Apply(ctx, f.staff, alert.ID, dto.DraftEventRequest{Kind: "notes", Notes: "left early"})
	require.NoError(t, err)

	draft, err := drafts.Apply(ctx, f.staff, alert.ID, dto.DraftEventRequest{Kind: "cancel"})
	require.NoError(t, err)
	require.Equal(t, workflow.StageIdle, draft.Form.Stage)

	detail, err := f.svc.GetAlert(ctx, alert.ID)
	require.NoError(t, err)
	require.Len(t, detail.Chain, 1)
	require.Equal(t, "pending", detail.PendingActivity.Status)
}

func TestDraftServiceTaskForm(t *testing.T) {
	f, drafts := newDraftFixture(t)
	alert := f.openAlert(t)
	ctx := context.Background()

	task, err := f.svc.CreateTask(ctx, f.staff, alert.ID, dto.TaskCreateRequest{Type: "devolucao_material"})
	require.NoError(t, err)

	_, err = drafts.Apply(ctx, f.staff, alert.ID, dto.DraftEventRequest{Kind: "open", ActivityID: task.ID})
	require.NoError(t, err)
	draft, err := drafts.Apply(ctx, f.staff, alert.ID, dto.DraftEventRequest{Kind: "notes", Notes: "books returned"})
	require.NoError(t, err)
	require.Equal(t, workflow.StageReady, draft.Form.Stage)

	resp, err := drafts.Submit(ctx, f.staff, alert.ID)
	require.NoError(t, err)
	require.Nil(t, resp.Successor)
	require.Equal(t, "completed", resp.Completed.Status)

	_, err = drafts.Apply(ctx, f.staff, alert.ID, dto.DraftEventRequest{Kind: "open", ActivityID: task.ID})
	require.ErrorIs(t, err, ErrActivityConflict)
}

func TestDraftServiceRequiresRedis(t *testing.T) {
	drafts := NewDraftService(nil, nil, time.Hour, time.UTC, validator.New(), testLogger())
	_, err := drafts.Get(context.Background(), Actor{ID: 1}, 1)
	require.ErrorIs(t, err, ErrDraftUnavailable)
}
