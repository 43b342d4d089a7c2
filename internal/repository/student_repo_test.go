package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/retention-api/internal/models"
)

func TestStudentRepositoryListFiltersAndPages(t *testing.T) {
	db := setupTestDB(t, &models.Student{})
	repo := NewStudentRepository(db)
	ctx := context.Background()

	for _, student := range []models.Student{
		{Name: "Bruna Lima", GuardianName: "Carla Lima", Unit: "centro"},
		{Name: "Alice Souza", GuardianName: "Marcos Souza", Unit: "centro"},
		{Name: "Diego Alves", GuardianName: "Ana Alves", Unit: "norte"},
	} {
		student := student
		require.NoError(t, repo.Create(ctx, &student))
	}

	students, total, err := repo.List(ctx, StudentFilter{Unit: "centro", PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, "Alice Souza", students[0].Name)

	students, total, err = repo.List(ctx, StudentFilter{Search: "ana"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Diego Alves", students[0].Name)

	students, total, err = repo.List(ctx, StudentFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, students, 1)
}

func TestStudentRepositoryUpdate(t *testing.T) {
	db := setupTestDB(t, &models.Student{})
	repo := NewStudentRepository(db)
	ctx := context.Background()

	student := models.Student{Name: "Alice", Unit: "centro"}
	require.NoError(t, repo.Create(ctx, &student))

	updated, err := repo.Update(ctx, student.ID, map[string]interface{}{"phone": "11999990000"})
	require.NoError(t, err)
	require.Equal(t, "11999990000", updated.Phone)

	_, err = repo.Update(ctx, 999, map[string]interface{}{"phone": "1"})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestStudentRepositoryUpsertBatch(t *testing.T) {
	db := setupTestDB(t, &models.Student{})
	repo := NewStudentRepository(db)
	ctx := context.Background()

	affected, err := repo.UpsertBatch(ctx, []models.Student{{ID: 1, Name: "Alice", Unit: "centro"}, {ID: 2, Name: "Bruno", Unit: "norte"}})
	require.NoError(t, err)
	require.Equal(t, int64(2), affected)

	_, err = repo.UpsertBatch(ctx, []models.Student{{ID: 1, Name: "Alice Souza", Unit: "centro"}})
	require.NoError(t, err)

	loaded, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Alice Souza", loaded.Name)

	_, total, err := repo.List(ctx, StudentFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
}
