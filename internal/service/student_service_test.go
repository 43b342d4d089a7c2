package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/retention-api/internal/dto"
	"github.com/noah-isme/retention-api/internal/models"
	"github.com/noah-isme/retention-api/internal/repository"
)

func newStudentService(t *testing.T) (StudentService, *memoryAuditRepo) {
	t.Helper()
	db := setupServiceDB(t, &models.Student{})
	audits := &memoryAuditRepo{}
	audit := NewAuditService(audits, validator.New(), testLogger())
	return NewStudentService(repository.NewStudentRepository(db), audit, validator.New(), testLogger()), audits
}

func TestStudentServiceRegisterSanitizesAndAudits(t *testing.T) {
	svc, audits := newStudentService(t)
	actor := Actor{ID: 3, Role: "secretary"}

	created, err := svc.Register(context.Background(), actor, dto.StudentCreateRequest{
		ID:           99,
		Name:         " <b>Alice</b> Souza ",
		GuardianName: "Marcos",
		Email:        "Alice@Example.com",
		Unit:         "centro",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.NotEqual(t, uint(99), created.ID)
	require.Equal(t, "Alice Souza", created.Name)
	require.Equal(t, "alice@example.com", created.Email)

	require.Len(t, audits.entries, 1)
	require.Equal(t, "student.registered", audits.entries[0].Action)
	require.Equal(t, uint(3), audits.entries[0].ActorID)
}

func TestStudentServiceRegisterValidates(t *testing.T) {
	svc, _ := newStudentService(t)

	_, err := svc.Register(context.Background(), Actor{ID: 1}, dto.StudentCreateRequest{Email: "not-an-email"})
	require.Error(t, err)
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
}

func TestStudentServiceUpdateAndGet(t *testing.T) {
	svc, audits := newStudentService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, Actor{ID: 1}, dto.StudentCreateRequest{Name: "Bruno", Unit: "norte"})
	require.NoError(t, err)

	phone := "11988887777"
	updated, err := svc.Update(ctx, Actor{ID: 1}, created.ID, dto.StudentUpdateRequest{Phone: &phone})
	require.NoError(t, err)
	require.Equal(t, phone, updated.Phone)
	require.Equal(t, "Bruno", updated.Name)
	require.Equal(t, "student.updated", audits.entries[len(audits.entries)-1].Action)

	unchanged, err := svc.Update(ctx, Actor{ID: 1}, created.ID, dto.StudentUpdateRequest{})
	require.NoError(t, err)
	require.Equal(t, phone, unchanged.Phone)

	_, err = svc.Update(ctx, Actor{ID: 1}, 404, dto.StudentUpdateRequest{Phone: &phone})
	require.ErrorIs(t, err, ErrStudentNotFound)

	_, err = svc.Get(ctx, 404)
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestStudentServiceList(t *testing.T) {
	svc, _ := newStudentService(t)
	ctx := context.Background()

	for _, name := range []string{"Carla", "Ana", "Bia"} {
		_, err := svc.Register(ctx, Actor{ID: 1}, dto.StudentCreateRequest{Name: name, Unit: "centro"})
		require.NoError(t, err)
	}

	result, err := svc.List(ctx, dto.StudentListRequest{Page: 1, PageSize: 2, Unit: "centro"})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	require.Equal(t, "Ana", result.Items[0].Name)
	require.Equal(t, int64(3), result.Pagination.TotalItems)
	require.Equal(t, 2, result.Pagination.TotalPages)
}

func TestMaskEmailAddress(t *testing.T) {
	require.Equal(t, "a***e@example.com", maskEmailAddress("Alice@example.com"))
	require.Equal(t, "b***@x.io", maskEmailAddress("bo@x.io"))
	require.Equal(t, "***", maskEmailAddress("invalid"))
	require.Equal(t, "", maskEmailAddress(" "))
}
