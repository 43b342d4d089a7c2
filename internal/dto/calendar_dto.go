package dto

import (
	"time"

	"github.com/noah-isme/retention-api/internal/models"
)

// BusinessHoursDay configures one weekday; Sunday is 0.
type BusinessHoursDay struct {
	Weekday int    `json:"weekday" validate:"min=0,max=6"`
	Open    bool   `json:"open"`
	Start   string `json:"start" validate:"max=5"`
	End     string `json:"end" validate:"max=5"`
}

// BusinessHoursRequest replaces the configured days of a professional.
type BusinessHoursRequest struct {
	Days []BusinessHoursDay `json:"days" validate:"required,min=1,max=7,dive"`
}

// BusinessHoursResponse lists a professional's configured days.
type BusinessHoursResponse struct {
	ProfessionalID uint               `json:"professional_id"`
	Days           []BusinessHoursDay `json:"days"`
}

// NewBusinessHoursResponse converts stored rows into the response.
func NewBusinessHoursResponse(professionalID uint, rows []models.BusinessHours) BusinessHoursResponse {
	days := make([]BusinessHoursDay, 0, len(rows))
	for _, row := range rows {
		days = append(days, BusinessHoursDay{Weekday: row.Weekday, Open: row.Open, Start: row.StartTime, End: row.EndTime})
	}
	return BusinessHoursResponse{ProfessionalID: professionalID, Days: days}
}

// CommitmentCreateRequest adds an entry to a professional's calendar. Exactly one of Date
// and Weekday must be set.
type CommitmentCreateRequest struct {
	Title   string `json:"title" validate:"omitempty,max=255"`
	Date    string `json:"date" validate:"max=10"`
	Weekday *int   `json:"weekday" validate:"omitempty,min=0,max=6"`
	Start   string `json:"start" validate:"required,max=5"`
	End     string `json:"end" validate:"required,max=5"`
}

// CommitmentResponse serializes a commitment.
type CommitmentResponse struct {
	ID             uint      `json:"id"`
	ProfessionalID uint      `json:"professional_id"`
	Title          string    `json:"title"`
	Date           *string   `json:"date,omitempty"`
	Weekday        *int      `json:"weekday,omitempty"`
	Start          string    `json:"start"`
	End            string    `json:"end"`
	ActivityID     *uint     `json:"activity_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewCommitmentResponse converts a commitment model to DTO.
func NewCommitmentResponse(model models.Commitment) CommitmentResponse {
	return CommitmentResponse{
		ID:             model.ID,
		ProfessionalID: model.ProfessionalID,
		Title:          model.Title,
		Date:           formatDate(model.Date),
		Weekday:        model.Weekday,
		Start:          model.StartTime,
		End:            model.EndTime,
		ActivityID:     model.ActivityID,
		CreatedAt:      model.CreatedAt,
	}
}

// SlotsResponse lists the start times offered for a professional on a date.
type SlotsResponse struct {
	ProfessionalID uint     `json:"professional_id"`
	Date           string   `json:"date"`
	Variant        string   `json:"variant"`
	Slots          []string `json:"slots"`
}
