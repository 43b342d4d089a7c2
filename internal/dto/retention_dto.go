package dto

import (
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/retention-api/internal/models"
	"github.com/noah-isme/retention-api/internal/scheduling"
	"github.com/noah-isme/retention-api/internal/workflow"
)

// OpenAlertRequest opens a retention alert for a student.
type OpenAlertRequest struct {
	StudentID   uint   `json:"student_id" validate:"required,gt=0"`
	OriginCode  string `json:"origin_code" validate:"required,oneof=faltas inadimplencia solicitacao_cancelamento baixo_desempenho outro"`
	Description string `json:"description" validate:"omitempty,max=4000"`
}

// AlertListRequest defines filters for listing alerts.
type AlertListRequest struct {
	Page      int
	PageSize  int
	Status    string `validate:"omitempty,oneof=pending retained churned"`
	StudentID uint
}

// AdvanceRequest completes the pending activity of an alert. ActivityID must name the
// activity the caller saw as pending.
type AdvanceRequest struct {
	ActivityID       uint   `json:"activity_id" validate:"required,gt=0"`
	Notes            string `json:"notes" validate:"max=4000"`
	NextType         string `json:"next_type" validate:"omitempty,max=40"`
	Outcome          string `json:"outcome" validate:"omitempty,max=40"`
	ScheduledDate    string `json:"scheduled_date" validate:"omitempty,max=10"`
	ScheduledTime    string `json:"scheduled_time" validate:"omitempty,max=8"`
	ProfessionalID   *uint  `json:"professional_id"`
	AdjustmentEndsAt string `json:"adjustment_end_date" validate:"omitempty,max=10"`
}

// Completion converts the request into the workflow's completion, parsing dates and times.
func (r AdvanceRequest) Completion() (workflow.Completion, error) {
	decision, err := workflow.DecisionFrom(r.NextType, r.Outcome)
	if err != nil {
		return workflow.Completion{}, err
	}

	schedule, err := ParseSchedule(r.ScheduledDate, r.ScheduledTime, r.ProfessionalID)
	if err != nil {
		return workflow.Completion{}, err
	}

	end, err := parseOptionalDate("adjustment_end_date", r.AdjustmentEndsAt)
	if err != nil {
		return workflow.Completion{}, err
	}

	return workflow.Completion{
		Notes:         r.Notes,
		Decision:      decision,
		Schedule:      schedule,
		AdjustmentEnd: end,
	}, nil
}

// TaskCreateRequest attaches an administrative task to an alert.
type TaskCreateRequest struct {
	Type        string `json:"activity_type" validate:"required,oneof=cancelamento_contrato devolucao_material baixa_sistema atualizacao_cadastro"`
	Description string `json:"description" validate:"omitempty,max=4000"`
}

// TaskCompleteRequest completes an administrative task.
type TaskCompleteRequest struct {
	Notes      string `json:"notes" validate:"max=4000"`
	DocumentID *uint  `json:"document_id"`
}

// Completion converts the request into the workflow's completion.
func (r TaskCompleteRequest) Completion() workflow.Completion {
	return workflow.Completion{Notes: r.Notes, DocumentID: r.DocumentID}
}

// ParseSchedule parses the optional scheduling fields submitted by a driver. Dates accept
// ISO or the masked DD/MM/YYYY entry form.
func ParseSchedule(date, clock string, professionalID *uint) (workflow.Schedule, error) {
	parsedDate, err := parseOptionalDate("scheduled_date", date)
	if err != nil {
		return workflow.Schedule{}, err
	}

	var parsedClock *scheduling.Clock
	if value := strings.TrimSpace(clock); value != "" {
		c, err := scheduling.ParseClock(value)
		if err != nil {
			return workflow.Schedule{}, &workflow.ValidationError{Field: "scheduled_time", Reason: err.Error()}
		}
		parsedClock = &c
	}

	return workflow.Schedule{Date: parsedDate, Time: parsedClock, ProfessionalID: professionalID}, nil
}

func parseOptionalDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := workflow.ParseDate(value)
	if err != nil {
		return nil, &workflow.ValidationError{Field: field, Reason: err.Error()}
	}
	return &parsed, nil
}

// ActivityResponse serializes one activity.
type ActivityResponse struct {
	ID                     uint       `json:"id"`
	AlertID                uint       `json:"alert_id"`
	Type                   string     `json:"activity_type"`
	Category               string     `json:"category"`
	Status                 string     `json:"status"`
	Description            string     `json:"description"`
	ScheduledDate          *string    `json:"scheduled_date,omitempty"`
	ScheduledTime          *string    `json:"scheduled_time,omitempty"`
	AssignedProfessionalID *uint      `json:"assigned_professional_id,omitempty"`
	PredecessorActivityID  *uint      `json:"predecessor_activity_id,omitempty"`
	RetentionKind          string     `json:"retention_kind,omitempty"`
	AdjustmentEndsAt       *string    `json:"adjustment_end_date,omitempty"`
	DocumentID             *uint      `json:"document_id,omitempty"`
	CompletionNotes        string     `json:"completion_notes,omitempty"`
	CompletedBy            *uint      `json:"completed_by,omitempty"`
	CompletedAt            *time.Time `json:"completed_at,omitempty"`
	CreatedBy              uint       `json:"created_by"`
	CreatedAt              time.Time  `json:"created_at"`
}

// NewActivityResponse converts an activity model to DTO.
func NewActivityResponse(model models.RetentionActivity) ActivityResponse {
	return ActivityResponse{
		ID:                     model.ID,
		AlertID:                model.AlertID,
		Type:                   string(model.Type),
		Category:               model.Type.Category().String(),
		Status:                 string(model.Status),
		Description:            model.Description,
		ScheduledDate:          formatDate(model.ScheduledDate),
		ScheduledTime:          model.ScheduledTime,
		AssignedProfessionalID: model.AssignedProfessionalID,
		PredecessorActivityID:  model.PredecessorActivityID,
		RetentionKind:          string(model.RetentionKind),
		AdjustmentEndsAt:       formatDate(model.AdjustmentEndsAt),
		DocumentID:             model.DocumentID,
		CompletionNotes:        model.CompletionNotes,
		CompletedBy:            model.CompletedBy,
		CompletedAt:            model.CompletedAt,
		CreatedBy:              model.CreatedBy,
		CreatedAt:              model.CreatedAt,
	}
}

// AlertResponse serializes an alert, optionally with its chain and tasks.
type AlertResponse struct {
	ID               uint               `json:"id"`
	StudentID        uint               `json:"student_id"`
	OriginCode       string             `json:"origin_code"`
	Status           string             `json:"status"`
	RetentionKind    string             `json:"retention_kind,omitempty"`
	AdjustmentEndsAt *string            `json:"adjustment_end_date,omitempty"`
	OpenedBy         uint               `json:"opened_by"`
	ResolvedAt       *time.Time         `json:"resolved_at,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	Chain            []ActivityResponse `json:"chain,omitempty"`
	Tasks            []ActivityResponse `json:"tasks,omitempty"`
	PendingActivity  *ActivityResponse  `json:"pending_activity,omitempty"`
	LegalDecisions   []string           `json:"legal_decisions,omitempty"`
}

// NewAlertResponse converts an alert model to its summary DTO.
func NewAlertResponse(model models.RetentionAlert) AlertResponse {
	return AlertResponse{
		ID:               model.ID,
		StudentID:        model.StudentID,
		OriginCode:       string(model.OriginCode),
		Status:           string(model.Status),
		RetentionKind:    string(model.RetentionKind),
		AdjustmentEndsAt: formatDate(model.AdjustmentEndsAt),
		OpenedBy:         model.OpenedBy,
		ResolvedAt:       model.ResolvedAt,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

// NewAlertDetailResponse splits the alert's activities, ordered by id, into the chain and
// the administrative tasks, and exposes the pending chain activity with its legal decisions.
func NewAlertDetailResponse(model models.RetentionAlert, activities []models.RetentionActivity) AlertResponse {
	response := NewAlertResponse(model)
	response.Chain = make([]ActivityResponse, 0, len(activities))
	response.Tasks = make([]ActivityResponse, 0)

	for _, activity := range activities {
		item := NewActivityResponse(activity)
		if activity.Type.IsTask() {
			response.Tasks = append(response.Tasks, item)
			continue
		}
		response.Chain = append(response.Chain, item)
		if activity.IsPending() && !activity.Type.IsTerminal() && response.PendingActivity == nil {
			pending := item
			response.PendingActivity = &pending
			for _, decision := range workflow.LegalDecisions(activity.Type) {
				response.LegalDecisions = append(response.LegalDecisions, string(decision))
			}
		}
	}
	return response
}

// AlertListResponse wraps a paginated alert response.
type AlertListResponse struct {
	Items      []AlertResponse `json:"items"`
	Pagination PaginationMeta  `json:"pagination"`
}

// AdvanceResponse reports the outcome of a completion. Administrative tasks have no successor.
type AdvanceResponse struct {
	Completed ActivityResponse  `json:"completed"`
	Successor *ActivityResponse `json:"successor,omitempty"`
	Alert     AlertResponse     `json:"alert"`
	// Replayed is set when the advance had already been applied by an identical request.
	Replayed bool `json:"replayed"`
}

func formatDate(value *datatypes.Date) *string {
	if value == nil {
		return nil
	}
	formatted := time.Time(*value).Format(workflow.DateLayout)
	return &formatted
}
