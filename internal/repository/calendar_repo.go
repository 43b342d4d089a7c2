package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/retention-api/internal/models"
)

// CalendarRepository persists professional business hours and commitments.
type CalendarRepository interface {
	BusinessHoursFor(ctx context.Context, professionalID uint, weekday time.Weekday) (models.BusinessHours, error)
	ListBusinessHours(ctx context.Context, professionalID uint) ([]models.BusinessHours, error)
	UpsertBusinessHours(ctx context.Context, rows []models.BusinessHours) error
	CreateCommitment(ctx context.Context, commitment *models.Commitment) error
	DeleteCommitment(ctx context.Context, professionalID, id uint) error
	FetchCommitments(ctx context.Context, professionalID uint, from, to time.Time) ([]models.Commitment, error)
}

type calendarRepository struct {
	db *gorm.DB
}

// NewCalendarRepository constructs the calendar repository.
func NewCalendarRepository(db *gorm.DB) CalendarRepository {
	return &calendarRepository{db: db}
}

func (r *calendarRepository) BusinessHoursFor(ctx context.Context, professionalID uint, weekday time.Weekday) (models.BusinessHours, error) {
	var hours models.BusinessHours
	if err := r.db.WithContext(ctx).
		Where("professional_id = ? AND weekday = ?", professionalID, int(weekday)).
		First(&hours).Error; err != nil {
		return models.BusinessHours{}, err
	}
	return hours, nil
}

func (r *calendarRepository) ListBusinessHours(ctx context.Context, professionalID uint) ([]models.BusinessHours, error) {
	var rows []models.BusinessHours
	if err := r.db.WithContext(ctx).
		Where("professional_id = ?", professionalID).
		Order("weekday ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *calendarRepository) UpsertBusinessHours(ctx context.Context, rows []models.BusinessHours) error {
	if len(rows) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "professional_id"}, {Name: "weekday"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "start_time", "end_time", "updated_at"}),
	}).Create(&rows).Error
}

func (r *calendarRepository) CreateCommitment(ctx context.Context, commitment *models.Commitment) error {
	return r.db.WithContext(ctx).Create(commitment).Error
}

func (r *calendarRepository) DeleteCommitment(ctx context.Context, professionalID, id uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND professional_id = ?", id, professionalID).
		Delete(&models.Commitment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FetchCommitments returns the professional's weekly commitments plus the dated ones
// falling within [from, to].
func (r *calendarRepository) FetchCommitments(ctx context.Context, professionalID uint, from, to time.Time) ([]models.Commitment, error) {
	var rows []models.Commitment
	if err := r.db.WithContext(ctx).
		Where("professional_id = ?", professionalID).
		Where("weekday IS NOT NULL OR (date >= ? AND date <= ?)", datatypes.Date(from), datatypes.Date(to)).
		Order("start_time ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
