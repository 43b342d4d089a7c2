package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/retention-api/internal/scheduling"
)

// BusinessHours stores a professional's opening window for one weekday.
type BusinessHours struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ProfessionalID uint      `gorm:"not null;uniqueIndex:idx_business_hours_professional_weekday" json:"professional_id"`
	Weekday        int       `gorm:"not null;uniqueIndex:idx_business_hours_professional_weekday" json:"weekday"`
	Open           bool      `gorm:"not null;default:false" json:"open"`
	StartTime      string    `gorm:"size:5" json:"start_time"`
	EndTime        string    `gorm:"size:5" json:"end_time"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName pins the table name; the type name is already plural.
func (BusinessHours) TableName() string {
	return "business_hours"
}

// ToSchedule converts the row into the scheduler's representation.
func (b BusinessHours) ToSchedule() (scheduling.BusinessHours, error) {
	if !b.Open {
		return scheduling.BusinessHours{Open: false}, nil
	}
	start, err := scheduling.ParseClock(b.StartTime)
	if err != nil {
		return scheduling.BusinessHours{}, err
	}
	end, err := scheduling.ParseClock(b.EndTime)
	if err != nil {
		return scheduling.BusinessHours{}, err
	}
	return scheduling.BusinessHours{Open: true, Start: start, End: end}, nil
}

// Commitment is an entry in a professional's calendar. One-off entries carry Date;
// weekly entries carry Weekday instead.
type Commitment struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	ProfessionalID uint            `gorm:"not null;index" json:"professional_id"`
	Title          string          `gorm:"size:255" json:"title"`
	Date           *datatypes.Date `gorm:"index" json:"date"`
	Weekday        *int            `json:"weekday"`
	StartTime      string          `gorm:"size:5;not null" json:"start_time"`
	EndTime        string          `gorm:"size:5;not null" json:"end_time"`
	ActivityID     *uint           `gorm:"index" json:"activity_id"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToSchedule converts the row into the scheduler's representation.
func (c Commitment) ToSchedule() (scheduling.Commitment, error) {
	start, err := scheduling.ParseClock(c.StartTime)
	if err != nil {
		return scheduling.Commitment{}, err
	}
	end, err := scheduling.ParseClock(c.EndTime)
	if err != nil {
		return scheduling.Commitment{}, err
	}

	commitment := scheduling.Commitment{ProfessionalID: c.ProfessionalID, Start: start, End: end}
	switch {
	case c.Date != nil:
		date := time.Time(*c.Date)
		commitment.Date = &date
	case c.Weekday != nil:
		weekday := time.Weekday(*c.Weekday)
		commitment.Weekday = &weekday
	default:
		return scheduling.Commitment{}, fmt.Errorf("commitment %d has neither date nor weekday", c.ID)
	}
	return commitment, nil
}
