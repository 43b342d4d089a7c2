package models

import "time"

// Student represents a learner enrolled in a franchise unit.
type Student struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	GuardianName string    `gorm:"size:255" json:"guardian_name"`
	Email        string    `gorm:"size:255;index" json:"email"`
	Phone        string    `gorm:"size:32" json:"phone"`
	Unit         string    `gorm:"size:64;index" json:"unit"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
