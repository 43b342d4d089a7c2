package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/retention-api/internal/models"
)

func TestCalendarRepositoryUpsertBusinessHours(t *testing.T) {
	db := setupTestDB(t, &models.BusinessHours{})
	repo := NewCalendarRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertBusinessHours(ctx, []models.BusinessHours{
		{ProfessionalID: 1, Weekday: int(time.Monday), Open: true, StartTime: "09:00", EndTime: "13:00"},
		{ProfessionalID: 1, Weekday: int(time.Sunday), Open: false},
	}))
	require.NoError(t, repo.UpsertBusinessHours(ctx, []models.BusinessHours{
		{ProfessionalID: 1, Weekday: int(time.Monday), Open: true, StartTime: "08:00", EndTime: "12:00"},
	}))

	rows, err := repo.ListBusinessHours(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	monday, err := repo.BusinessHoursFor(ctx, 1, time.Monday)
	require.NoError(t, err)
	require.Equal(t, "08:00", monday.StartTime)
	require.Equal(t, "12:00", monday.EndTime)

	_, err = repo.BusinessHoursFor(ctx, 1, time.Tuesday)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCalendarRepositoryFetchCommitmentsIncludesWeekly(t *testing.T) {
	db := setupTestDB(t, &models.Commitment{})
	repo := NewCalendarRepository(db)
	ctx := context.Background()

	day := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	other := day.AddDate(0, 0, 7)
	monday := int(time.Monday)

	require.NoError(t, repo.CreateCommitment(ctx, &models.Commitment{ProfessionalID: 1, Date: models.DatePointer(&day), StartTime: "10:00", EndTime: "11:00"}))
	require.NoError(t, repo.CreateCommitment(ctx, &models.Commitment{ProfessionalID: 1, Date: models.DatePointer(&other), StartTime: "09:00", EndTime: "10:00"}))
	require.NoError(t, repo.CreateCommitment(ctx, &models.Commitment{ProfessionalID: 1, Weekday: &monday, StartTime: "12:00", EndTime: "12:30"}))
	require.NoError(t, repo.CreateCommitment(ctx, &models.Commitment{ProfessionalID: 2, Date: models.DatePointer(&day), StartTime: "09:00", EndTime: "10:00"}))

	rows, err := repo.FetchCommitments(ctx, 1, day, day)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "10:00", rows[0].StartTime)
	require.Equal(t, "12:00", rows[1].StartTime)
}

func TestCalendarRepositoryDeleteCommitmentScopedToProfessional(t *testing.T) {
	db := setupTestDB(t, &models.Commitment{})
	repo := NewCalendarRepository(db)
	ctx := context.Background()

	day := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	commitment := models.Commitment{ProfessionalID: 1, Date: models.DatePointer(&day), StartTime: "10:00", EndTime: "11:00"}
	require.NoError(t, repo.CreateCommitment(ctx, &commitment))

	require.ErrorIs(t, repo.DeleteCommitment(ctx, 2, commitment.ID), gorm.ErrRecordNotFound)
	require.NoError(t, repo.DeleteCommitment(ctx, 1, commitment.ID))
}
