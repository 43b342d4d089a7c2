package dto

import (
	"time"

	"github.com/noah-isme/retention-api/internal/models"
)

// DocumentResponse describes a stored scanned document.
type DocumentResponse struct {
	ID        uint      `json:"id"`
	URL       string    `json:"url"`
	SizeBytes int64     `json:"size_bytes"`
	MimeType  string    `json:"mime_type"`
	Checksum  string    `json:"checksum"`
	FileName  string    `json:"file_name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewDocumentResponse converts a document model to DTO.
func NewDocumentResponse(model models.Document) DocumentResponse {
	return DocumentResponse{
		ID:        model.ID,
		URL:       model.URL,
		SizeBytes: model.SizeBytes,
		MimeType:  model.MimeType,
		Checksum:  model.Checksum,
		FileName:  model.FileName,
		CreatedAt: model.CreatedAt,
	}
}
