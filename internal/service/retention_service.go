package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/retention-api/internal/dto"
	"github.com/noah-isme/retention-api/internal/models"
	"github.com/noah-isme/retention-api/internal/observability"
	"github.com/noah-isme/retention-api/internal/repository"
	"github.com/noah-isme/retention-api/internal/scheduling"
	"github.com/noah-isme/retention-api/internal/workflow"
)

var (
	// ErrAlertNotFound indicates the retention alert does not exist.
	ErrAlertNotFound = errors.New("retention alert not found")
	// ErrActivityNotFound indicates the activity does not exist or belongs to another alert.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrStudentNotFound indicates the student does not exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrActivityConflict indicates a concurrent modification; the caller should reload.
	ErrActivityConflict = errors.New("activity was modified concurrently")
	// ErrStoreFailure indicates the store could not be reached; the operation can be retried.
	ErrStoreFailure = errors.New("activity store unavailable")
)

// Notifier delivers staff notifications.
type Notifier interface {
	Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error)
}

// RetentionService drives retention alerts through their activity chain.
type RetentionService interface {
	OpenAlert(ctx context.Context, actor Actor, req dto.OpenAlertRequest) (dto.AlertResponse, error)
	GetAlert(ctx context.Context, id uint) (dto.AlertResponse, error)
	ListAlerts(ctx context.Context, req dto.AlertListRequest) (dto.AlertListResponse, error)
	Advance(ctx context.Context, actor Actor, alertID uint, req dto.AdvanceRequest) (dto.AdvanceResponse, error)
	CreateTask(ctx context.Context, actor Actor, alertID uint, req dto.TaskCreateRequest) (dto.ActivityResponse, error)
	CompleteTask(ctx context.Context, actor Actor, taskID uint, req dto.TaskCompleteRequest) (dto.AdvanceResponse, error)
	// Complete applies a completion to either the pending chain activity or a task.
	Complete(ctx context.Context, actor Actor, alertID, activityID uint, completion workflow.Completion) (dto.AdvanceResponse, error)
	// ActivityForCompletion resolves the activity a form is opened for; zero means the
	// alert's pending chain activity.
	ActivityForCompletion(ctx context.Context, alertID, activityID uint) (models.RetentionActivity, error)
}

type retentionService struct {
	repo      repository.RetentionRepository
	students  repository.StudentRepository
	documents repository.DocumentRepository
	slots     SlotService
	locker    AlertLocker
	audit     AuditRecorder
	notifier  Notifier
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	location  *time.Location
	now       func() time.Time
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewRetentionService constructs the retention workflow service. audit and notifier may be nil.
func NewRetentionService(
	repo repository.RetentionRepository,
	students repository.StudentRepository,
	documents repository.DocumentRepository,
	slots SlotService,
	locker AlertLocker,
	audit AuditRecorder,
	notifier Notifier,
	validate *validator.Validate,
	location *time.Location,
	logger zerolog.Logger,
) RetentionService {
	if location == nil {
		location = time.UTC
	}
	return &retentionService{
		repo:      repo,
		students:  students,
		documents: documents,
		slots:     slots,
		locker:    locker,
		audit:     audit,
		notifier:  notifier,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		location:  location,
		now:       time.Now,
		logger:    logger.With().Str("component", "retention_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/retention-api/internal/service/retention"),
	}
}

func (s *retentionService) OpenAlert(ctx context.Context, actor Actor, req dto.OpenAlertRequest) (dto.AlertResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AlertResponse{}, err
	}

	origin, err := workflow.ParseOriginCode(req.OriginCode)
	if err != nil {
		return dto.AlertResponse{}, &workflow.ValidationError{Field: "origin_code", Reason: err.Error()}
	}

	if _, err := s.students.GetByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AlertResponse{}, ErrStudentNotFound
		}
		return dto.AlertResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	alert := models.RetentionAlert{
		StudentID:  req.StudentID,
		OriginCode: origin,
		Status:     workflow.AlertPending,
		OpenedBy:   actor.ID,
	}
	head := models.RetentionActivity{
		Type:        workflow.TypeIntake,
		Status:      workflow.ActivityPending,
		Description: s.sanitize(req.Description),
		CreatedBy:   actor.ID,
	}

	if err := s.repo.OpenAlert(ctx, &alert, &head); err != nil {
		if errors.Is(err, repository.ErrOpenAlertExists) {
			return dto.AlertResponse{}, fmt.Errorf("%w: student %d already has an open alert", ErrActivityConflict, req.StudentID)
		}
		return dto.AlertResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	s.logger.Info().Uint("alert_id", alert.ID).Uint("student_id", alert.StudentID).Str("origin", string(origin)).Msg("retention alert opened")
	s.recordAudit(ctx, AuditRecord{
		Actor:      actor,
		Action:     "alert.opened",
		EntityType: "retention_alert",
		EntityID:   &alert.ID,
		AlertID:    &alert.ID,
		Metadata:   map[string]interface{}{"student_id": alert.StudentID, "origin_code": string(origin)},
	})

	return dto.NewAlertDetailResponse(alert, []models.RetentionActivity{head}), nil
}

func (s *retentionService) GetAlert(ctx context.Context, id uint) (dto.AlertResponse, error) {
	alert, err := s.loadAlert(ctx, id)
	if err != nil {
		return dto.AlertResponse{}, err
	}
	return dto.NewAlertDetailResponse(alert, alert.Activities), nil
}

func (s *retentionService) ListAlerts(ctx context.Context, req dto.AlertListRequest) (dto.AlertListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AlertListResponse{}, err
	}

	filter := repository.AlertFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
		Status:   workflow.AlertStatus(req.Status),
	}
	if req.StudentID > 0 {
		filter.StudentID = &req.StudentID
	}

	alerts, total, err := s.repo.ListAlerts(ctx, filter)
	if err != nil {
		return dto.AlertListResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	items := make([]dto.AlertResponse, 0, len(alerts))
	for _, alert := range alerts {
		items = append(items, dto.NewAlertResponse(alert))
	}

	return dto.AlertListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *retentionService) Advance(ctx context.Context, actor Actor, alertID uint, req dto.AdvanceRequest) (dto.AdvanceResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AdvanceResponse{}, err
	}

	completion, err := req.Completion()
	if err != nil {
		return dto.AdvanceResponse{}, err
	}

	return s.advance(ctx, actor, alertID, req.ActivityID, completion)
}

func (s *retentionService) Complete(ctx context.Context, actor Actor, alertID, activityID uint, completion workflow.Completion) (dto.AdvanceResponse, error) {
	activity, err := s.ActivityForCompletion(ctx, alertID, activityID)
	if err != nil {
		return dto.AdvanceResponse{}, err
	}
	if activity.Type.IsTask() {
		return s.completeTask(ctx, actor, activity, completion)
	}
	return s.advance(ctx, actor, alertID, activity.ID, completion)
}

func (s *retentionService) ActivityForCompletion(ctx context.Context, alertID, activityID uint) (models.RetentionActivity, error) {
	if activityID == 0 {
		if _, err := s.loadAlert(ctx, alertID); err != nil {
			return models.RetentionActivity{}, err
		}
		activity, err := s.repo.FindPendingActivity(ctx, alertID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.RetentionActivity{}, fmt.Errorf("%w: alert %d has no pending activity", ErrActivityConflict, alertID)
			}
			return models.RetentionActivity{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
		}
		return activity, nil
	}

	activity, err := s.loadActivity(ctx, activityID)
	if err != nil {
		return models.RetentionActivity{}, err
	}
	if activity.AlertID != alertID {
		return models.RetentionActivity{}, ErrActivityNotFound
	}
	return activity, nil
}

func (s *retentionService) advance(ctx context.Context, actor Actor, alertID, activityID uint, completion workflow.Completion) (dto.AdvanceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "retention.advance", trace.WithAttributes(
		attribute.Int("alert.id", int(alertID)),
		attribute.Int("activity.id", int(activityID)),
		attribute.Int("staff.id", int(actor.ID)),
	))
	defer span.End()

	response, err := s.advanceLocked(ctx, actor, alertID, activityID, completion)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "advance failed")
		return dto.AdvanceResponse{}, err
	}

	span.SetAttributes(attribute.Bool("advance.replayed", response.Replayed))
	return response, nil
}

func (s *retentionService) advanceLocked(ctx context.Context, actor Actor, alertID, activityID uint, completion workflow.Completion) (dto.AdvanceResponse, error) {
	completion.Notes = s.sanitize(completion.Notes)

	unlock, err := s.lock(ctx, alertID)
	if err != nil {
		return dto.AdvanceResponse{}, err
	}
	defer unlock()

	alert, err := s.loadAlert(ctx, alertID)
	if err != nil {
		return dto.AdvanceResponse{}, err
	}

	activity, err := s.loadActivity(ctx, activityID)
	if err != nil {
		return dto.AdvanceResponse{}, err
	}
	if activity.AlertID != alertID {
		return dto.AdvanceResponse{}, ErrActivityNotFound
	}
	if activity.Type.IsTask() {
		return dto.AdvanceResponse{}, &workflow.ValidationError{Field: "activity_id", Reason: "administrative tasks do not advance the chain"}
	}

	if activity.Type.IsTerminal() || (alert.IsTerminal() && activity.IsPending()) {
		observability.Conflicts().WithLabelValues("resolved").Inc()
		return dto.AdvanceResponse{}, fmt.Errorf("%w: alert %d is already %s", ErrActivityConflict, alertID, alert.Status)
	}

	plan, err := workflow.Validate(activity.Type, completion, s.localNow())
	if !activity.IsPending() {
		if err != nil {
			observability.Conflicts().WithLabelValues("stale").Inc()
			return dto.AdvanceResponse{}, fmt.Errorf("%w: activity %d was already completed", ErrActivityConflict, activity.ID)
		}
		return s.replay(ctx, actor, alertID, activity.ID, plan)
	}
	if err != nil {
		return dto.AdvanceResponse{}, err
	}

	transition := *plan.Transition
	schedule := plan.Completion.Schedule
	if schedule.Bookable() {
		if err := s.ensureSlotAvailable(ctx, transition, schedule); err != nil {
			return dto.AdvanceResponse{}, err
		}
	}

	cmd := s.buildAdvance(actor, alertID, activity.ID, plan)
	result, err := s.repo.Advance(ctx, cmd)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleActivity):
			return s.replay(ctx, actor, alertID, activity.ID, plan)
		case errors.Is(err, repository.ErrAlertResolved):
			observability.Conflicts().WithLabelValues("resolved").Inc()
			return dto.AdvanceResponse{}, fmt.Errorf("%w: alert %d was resolved concurrently", ErrActivityConflict, alertID)
		case errors.Is(err, repository.ErrSlotTaken):
			return dto.AdvanceResponse{}, &workflow.ValidationError{Field: "scheduled_time", Reason: "slot unavailable"}
		default:
			s.logger.Error().Err(err).Uint("alert_id", alertID).Uint("activity_id", activity.ID).Msg("advance transaction failed")
			return dto.AdvanceResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
		}
	}

	observability.Transitions().WithLabelValues(string(activity.Type), string(transition.Decision)).Inc()
	if transition.Terminal() {
		observability.AlertsResolved().WithLabelValues(string(result.Alert.Status), string(result.Alert.RetentionKind)).Inc()
	}

	s.logger.Info().
		Uint("alert_id", alertID).
		Uint("completed_activity_id", result.Completed.ID).
		Uint("successor_activity_id", result.Successor.ID).
		Str("decision", string(transition.Decision)).
		Str("successor_type", string(result.Successor.Type)).
		Msg("activity advanced")

	metadata := map[string]interface{}{
		"from":         string(activity.Type),
		"decision":     string(transition.Decision),
		"successor_id": result.Successor.ID,
	}
	if cmd.Booking != nil {
		metadata["professional_id"] = cmd.Booking.ProfessionalID
		metadata["slot"] = cmd.Booking.StartTime
	}
	s.recordAudit(ctx, AuditRecord{
		Actor:      actor,
		Action:     "activity.advanced",
		EntityType: "retention_activity",
		EntityID:   &result.Completed.ID,
		AlertID:    &alertID,
		Metadata:   metadata,
	})
	s.notifyAdvance(ctx, result, transition)

	successor := dto.NewActivityResponse(result.Successor)
	return dto.AdvanceResponse{
		Completed: dto.NewActivityResponse(result.Completed),
		Successor: &successor,
		Alert:     dto.NewAlertResponse(result.Alert),
	}, nil
}

func (s *retentionService) buildAdvance(actor Actor, alertID, activityID uint, plan workflow.Plan) repository.AdvanceCommand {
	transition := *plan.Transition
	schedule := plan.Completion.Schedule
	now := s.now().UTC()

	successor := models.RetentionActivity{
		Type:                   transition.Next,
		Status:                 workflow.ActivityPending,
		Description:            plan.Completion.Notes,
		ScheduledDate:          models.DatePointer(schedule.Date),
		AssignedProfessionalID: schedule.ProfessionalID,
		RetentionKind:          transition.RetentionKind,
		AdjustmentEndsAt:       models.DatePointer(plan.Completion.AdjustmentEnd),
		CreatedBy:              actor.ID,
	}
	if schedule.Time != nil {
		value := schedule.Time.String()
		successor.ScheduledTime = &value
	}
	if transition.Terminal() {
		completedBy := actor.ID
		completedAt := now
		successor.Status = workflow.ActivityCompleted
		successor.CompletedBy = &completedBy
		successor.CompletedAt = &completedAt
	}

	cmd := repository.AdvanceCommand{
		AlertID:         alertID,
		ActivityID:      activityID,
		CompletedBy:     actor.ID,
		CompletedAt:     now,
		CompletionNotes: plan.Completion.Notes,
		Successor:       successor,
		AlertStatus:     transition.AlertStatus(),
	}

	if schedule.Bookable() {
		cmd.Booking = &models.Commitment{
			ProfessionalID: *schedule.ProfessionalID,
			Title:          fmt.Sprintf("%s - alert #%d", transition.Next, alertID),
			Date:           models.DatePointer(schedule.Date),
			StartTime:      schedule.Time.String(),
			EndTime:        schedule.Time.Add(scheduling.AppointmentDuration).String(),
		}
	}
	return cmd
}

// replay answers a completion of an activity that is no longer pending. An identical
// completion by the same staff member returns the committed result; anything else conflicts.
func (s *retentionService) replay(ctx context.Context, actor Actor, alertID, activityID uint, plan workflow.Plan) (dto.AdvanceResponse, error) {
	completed, err := s.repo.GetActivity(ctx, activityID)
	if err != nil {
		return dto.AdvanceResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	successor, err := s.repo.FindSuccessor(ctx, activityID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AdvanceResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	if err != nil || !sameCompletion(completed, successor, actor, plan) {
		observability.Conflicts().WithLabelValues("stale").Inc()
		return dto.AdvanceResponse{}, fmt.Errorf("%w: activity %d is no longer pending", ErrActivityConflict, activityID)
	}

	alert, err := s.loadAlert(ctx, alertID)
	if err != nil {
		return dto.AdvanceResponse{}, err
	}

	s.logger.Info().Uint("alert_id", alertID).Uint("activity_id", activityID).Msg("advance replayed")

	successorResponse := dto.NewActivityResponse(successor)
	return dto.AdvanceResponse{
		Completed: dto.NewActivityResponse(completed),
		Successor: &successorResponse,
		Alert:     dto.NewAlertResponse(alert),
		Replayed:  true,
	}, nil
}

func sameCompletion(completed, successor models.RetentionActivity, actor Actor, plan workflow.Plan) bool {
	if plan.Transition == nil || completed.CompletedBy == nil || *completed.CompletedBy != actor.ID {
		return false
	}
	if completed.CompletionNotes != plan.Completion.Notes {
		return false
	}
	return successor.Type == plan.Transition.Next && successor.RetentionKind == plan.Transition.RetentionKind
}

func (s *retentionService) ensureSlotAvailable(ctx context.Context, transition workflow.Transition, schedule workflow.Schedule) error {
	slots, err := s.slots.AvailableSlots(ctx, *schedule.ProfessionalID, *schedule.Date, transition.Variant)
	if err != nil {
		return err
	}
	if !scheduling.Contains(slots, *schedule.Time) {
		return &workflow.ValidationError{Field: "scheduled_time", Reason: "slot unavailable"}
	}
	return nil
}

func (s *retentionService) CreateTask(ctx context.Context, actor Actor, alertID uint, req dto.TaskCreateRequest) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityResponse{}, err
	}

	taskType, err := workflow.ParseActivityType(req.Type)
	if err != nil || !taskType.IsTask() {
		return dto.ActivityResponse{}, &workflow.ValidationError{Field: "activity_type", Reason: "must be an administrative task type"}
	}

	if _, err := s.loadAlert(ctx, alertID); err != nil {
		return dto.ActivityResponse{}, err
	}

	task := models.RetentionActivity{
		AlertID:     alertID,
		Type:        taskType,
		Status:      workflow.ActivityPending,
		Description: s.sanitize(req.Description),
		CreatedBy:   actor.ID,
	}
	if err := s.repo.CreateActivity(ctx, &task); err != nil {
		return dto.ActivityResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	s.recordAudit(ctx, AuditRecord{
		Actor:      actor,
		Action:     "task.created",
		EntityType: "retention_activity",
		EntityID:   &task.ID,
		AlertID:    &alertID,
		Metadata:   map[string]interface{}{"activity_type": string(taskType)},
	})

	return dto.NewActivityResponse(task), nil
}

func (s *retentionService) CompleteTask(ctx context.Context, actor Actor, taskID uint, req dto.TaskCompleteRequest) (dto.AdvanceResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AdvanceResponse{}, err
	}

	task, err := s.loadActivity(ctx, taskID)
	if err != nil {
		return dto.AdvanceResponse{}, err
	}
	if !task.Type.IsTask() {
		return dto.AdvanceResponse{}, &workflow.ValidationError{Field: "activity_id", Reason: "chain activities are completed by advancing the alert"}
	}

	return s.completeTask(ctx, actor, task, req.Completion())
}

func (s *retentionService) completeTask(ctx context.Context, actor Actor, task models.RetentionActivity, completion workflow.Completion) (dto.AdvanceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "retention.complete_task", trace.WithAttributes(
		attribute.Int("alert.id", int(task.AlertID)),
		attribute.Int("activity.id", int(task.ID)),
		attribute.String("activity.type", string(task.Type)),
	))
	defer span.End()

	completion.Notes = s.sanitize(completion.Notes)
	plan, err := workflow.Validate(task.Type, completion, s.localNow())
	if err != nil {
		span.RecordError(err)
		return dto.AdvanceResponse{}, err
	}

	if plan.Completion.DocumentID != nil {
		if _, err := s.documents.FindByID(ctx, *plan.Completion.DocumentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.AdvanceResponse{}, ErrDocumentNotFound
			}
			return dto.AdvanceResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
		}
	}

	unlock, err := s.lock(ctx, task.AlertID)
	if err != nil {
		return dto.AdvanceResponse{}, err
	}
	defer unlock()

	completed, err := s.repo.CompleteActivity(ctx, task.ID, actor.ID, plan.Completion.Notes, plan.Completion.DocumentID, s.now().UTC())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "complete failed")
		return dto.AdvanceResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	alert, err := s.loadAlert(ctx, task.AlertID)
	if err != nil {
		return dto.AdvanceResponse{}, err
	}

	replayed := !task.IsPending()
	if !replayed {
		s.recordAudit(ctx, AuditRecord{
			Actor:      actor,
			Action:     "task.completed",
			EntityType: "retention_activity",
			EntityID:   &completed.ID,
			AlertID:    &completed.AlertID,
			Metadata:   map[string]interface{}{"activity_type": string(completed.Type)},
		})
	}

	return dto.AdvanceResponse{
		Completed: dto.NewActivityResponse(completed),
		Alert:     dto.NewAlertResponse(alert),
		Replayed:  replayed,
	}, nil
}

func (s *retentionService) lock(ctx context.Context, alertID uint) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	unlock, err := s.locker.Lock(ctx, alertID)
	if err != nil {
		if errors.Is(err, ErrLockUnavailable) {
			observability.Conflicts().WithLabelValues("lock").Inc()
			return nil, fmt.Errorf("%w: %v", ErrActivityConflict, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return unlock, nil
}

func (s *retentionService) loadAlert(ctx context.Context, id uint) (models.RetentionAlert, error) {
	alert, err := s.repo.GetAlert(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RetentionAlert{}, ErrAlertNotFound
		}
		return models.RetentionAlert{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return alert, nil
}

func (s *retentionService) loadActivity(ctx context.Context, id uint) (models.RetentionActivity, error) {
	activity, err := s.repo.GetActivity(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RetentionActivity{}, ErrActivityNotFound
		}
		return models.RetentionActivity{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return activity, nil
}

func (s *retentionService) localNow() time.Time {
	return s.now().In(s.location)
}

func (s *retentionService) sanitize(value string) string {
	return plainText(s.sanitizer, value)
}

func (s *retentionService) recordAudit(ctx context.Context, record AuditRecord) {
	if s.audit == nil {
		return
	}
	if _, err := s.audit.Record(ctx, record); err != nil {
		s.logger.Warn().Err(err).Str("action", record.Action).Msg("failed to record audit entry")
	}
}

func (s *retentionService) notifyAdvance(ctx context.Context, result repository.AdvanceResult, transition workflow.Transition) {
	if s.notifier == nil {
		return
	}

	alertID := result.Alert.ID
	successor := result.Successor
	if successor.AssignedProfessionalID != nil && successor.ScheduledDate != nil && successor.ScheduledTime != nil {
		message := fmt.Sprintf("%s scheduled on %s at %s for alert #%d",
			successor.Type,
			time.Time(*successor.ScheduledDate).Format(workflow.DateLayout),
			*successor.ScheduledTime,
			alertID,
		)
		s.publish(ctx, dto.NotificationCreateRequest{
			StaffID: *successor.AssignedProfessionalID,
			AlertID: &alertID,
			Type:    dto.NotificationSessionScheduled,
			Message: message,
		})
	}

	if transition.Terminal() && result.Alert.OpenedBy > 0 {
		s.publish(ctx, dto.NotificationCreateRequest{
			StaffID: result.Alert.OpenedBy,
			AlertID: &alertID,
			Type:    dto.NotificationAlertResolved,
			Message: fmt.Sprintf("Alert #%d resolved as %s", alertID, result.Alert.Status),
		})
	}
}

func (s *retentionService) publish(ctx context.Context, payload dto.NotificationCreateRequest) {
	if _, err := s.notifier.Publish(ctx, payload); err != nil {
		s.logger.Warn().Err(err).Str("type", payload.Type).Msg("failed to publish notification")
	}
}
