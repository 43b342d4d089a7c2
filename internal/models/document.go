package models

import "time"

// Document stores metadata about a scanned document attached to retention tasks.
type Document struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UploadedBy *uint     `gorm:"index" json:"uploaded_by"`
	FileName   string    `gorm:"size:255;not null" json:"file_name"`
	URL        string    `gorm:"size:512;not null" json:"url"`
	MimeType   string    `gorm:"size:128;not null" json:"mime_type"`
	SizeBytes  int64     `gorm:"not null" json:"size_bytes"`
	Checksum   string    `gorm:"size:128;index" json:"checksum"`
	CreatedAt  time.Time `json:"created_at"`
}
