package dto

import (
	"time"

	"github.com/noah-isme/retention-api/internal/models"
)

// StudentCreateRequest registers a student.
type StudentCreateRequest struct {
	ID           uint   `json:"id"`
	Name         string `json:"name" validate:"required,max=255"`
	GuardianName string `json:"guardian_name" validate:"omitempty,max=255"`
	Email        string `json:"email" validate:"omitempty,email,max=255"`
	Phone        string `json:"phone" validate:"omitempty,max=32"`
	Unit         string `json:"unit" validate:"omitempty,max=64"`
}

// StudentUpdateRequest changes the provided student fields only.
type StudentUpdateRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=255"`
	GuardianName *string `json:"guardian_name" validate:"omitempty,max=255"`
	Email        *string `json:"email" validate:"omitempty,email,max=255"`
	Phone        *string `json:"phone" validate:"omitempty,max=32"`
	Unit         *string `json:"unit" validate:"omitempty,max=64"`
}

// StudentListRequest defines filters for listing students.
type StudentListRequest struct {
	Page     int
	PageSize int
	Search   string
	Unit     string
}

// StudentResponse serializes a student.
type StudentResponse struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	GuardianName string    `json:"guardian_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Unit         string    `json:"unit"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewStudentResponse converts a student model to DTO.
func NewStudentResponse(model models.Student) StudentResponse {
	return StudentResponse{
		ID:           model.ID,
		Name:         model.Name,
		GuardianName: model.GuardianName,
		Email:        model.Email,
		Phone:        model.Phone,
		Unit:         model.Unit,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// StudentListResponse wraps a paginated student listing.
type StudentListResponse struct {
	Items      []StudentResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// ProfessionalHoursSeed configures the business hours of one professional.
type ProfessionalHoursSeed struct {
	ProfessionalID uint               `json:"professional_id" validate:"required,gt=0"`
	Days           []BusinessHoursDay `json:"days" validate:"required,min=1,max=7,dive"`
}

// SeedRequest bulk loads reference data for a unit.
type SeedRequest struct {
	Students      []StudentCreateRequest  `json:"students" validate:"dive"`
	Professionals []ProfessionalHoursSeed `json:"professionals" validate:"dive"`
}

// SeedResponse reports how many rows a seed touched.
type SeedResponse struct {
	Students      int64 `json:"students"`
	Professionals int   `json:"professionals"`
}
