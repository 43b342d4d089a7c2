package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
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
)

// Document upload failures. Each maps to its own HTTP status.
var (
	ErrUploadTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrUploadTypeNotAllowed = errors.New("only PDF and image scans are accepted")
	ErrUploadMissing        = errors.New("file is required")
	ErrStorageUnavailable   = errors.New("document storage is not configured")
	ErrDocumentNotFound     = errors.New("document not found")
)

const defaultMaxDocumentBytes = 10 << 20

// FileStorage puts a named blob somewhere durable and returns its public URL.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// DocumentService validates and stores scanned documents attached to administrative tasks.
type DocumentService interface {
	Upload(ctx context.Context, file *multipart.FileHeader, uploadedBy *uint) (dto.DocumentResponse, error)
	Get(ctx context.Context, id uint) (dto.DocumentResponse, error)
}

type documentService struct {
	storage  FileStorage
	repo     repository.DocumentRepository
	maxBytes int64
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// scannedFile is an upload that passed size and type checks.
type scannedFile struct {
	name     string
	mime     string
	content  []byte
	checksum string
}

// NewDocumentService constructs a document service. A nil storage disables uploads.
func NewDocumentService(storage FileStorage, repo repository.DocumentRepository, maxBytes int64, logger zerolog.Logger) DocumentService {
	if maxBytes <= 0 {
		maxBytes = defaultMaxDocumentBytes
	}
	return &documentService{
		storage:  storage,
		repo:     repo,
		maxBytes: maxBytes,
		logger:   logger.With().Str("component", "document_service").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/retention-api/internal/service/documents"),
	}
}

func (s *documentService) Upload(ctx context.Context, file *multipart.FileHeader, uploadedBy *uint) (resp dto.DocumentResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "documents.upload", trace.WithAttributes(attribute.Int64("document.max_bytes", s.maxBytes)))
	started := time.Now()
	outcome := "rejected"
	defer func() {
		observability.UploadLatency().WithLabelValues(outcome).Observe(time.Since(started).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
	}()

	switch {
	case s.storage == nil:
		return resp, ErrStorageUnavailable
	case file == nil:
		return resp, ErrUploadMissing
	}

	scan, err := s.inspect(file)
	if err != nil {
		return resp, err
	}
	span.SetAttributes(
		attribute.String("document.mime", scan.mime),
		attribute.Int("document.bytes", len(scan.content)),
	)

	url, err := s.storage.Upload(ctx, scan.name, bytes.NewReader(scan.content))
	if err != nil {
		outcome = "storage_error"
		return resp, fmt.Errorf("%w: upload: %v", ErrStoreFailure, err)
	}

	record := models.Document{
		UploadedBy: uploadedBy,
		FileName:   scan.name,
		URL:        url,
		MimeType:   scan.mime,
		SizeBytes:  int64(len(scan.content)),
		Checksum:   scan.checksum,
	}
	if err := s.repo.Create(ctx, &record); err != nil {
		outcome = "storage_error"
		return resp, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	outcome = "stored"
	span.SetStatus(codes.Ok, outcome)
	s.logger.Info().Uint("document_id", record.ID).Str("mime", scan.mime).Int64("bytes", record.SizeBytes).Msg("scanned document stored")
	return dto.NewDocumentResponse(record), nil
}

// inspect reads at most maxBytes+1 bytes so oversized bodies are caught even when the
// multipart header understates the size.
func (s *documentService) inspect(file *multipart.FileHeader) (scannedFile, error) {
	if file.Size > s.maxBytes {
		return scannedFile{}, ErrUploadTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		return scannedFile{}, fmt.Errorf("open upload: %w", err)
	}
	defer handle.Close()

	content, err := io.ReadAll(io.LimitReader(handle, s.maxBytes+1))
	if err != nil {
		return scannedFile{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(content)) > s.maxBytes {
		return scannedFile{}, ErrUploadTooLarge
	}

	detected := mimetype.Detect(content)
	if !isScannedDocument(detected) {
		return scannedFile{}, ErrUploadTypeNotAllowed
	}

	sum := sha256.Sum256(content)
	return scannedFile{
		name:     storedFileName(file.Filename, detected.Extension()),
		mime:     strings.ToLower(detected.String()),
		content:  content,
		checksum: hex.EncodeToString(sum[:]),
	}, nil
}

func (s *documentService) Get(ctx context.Context, id uint) (dto.DocumentResponse, error) {
	record, err := s.repo.FindByID(ctx, id)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return dto.DocumentResponse{}, ErrDocumentNotFound
	case err != nil:
		return dto.DocumentResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return dto.NewDocumentResponse(record), nil
}

// isScannedDocument accepts PDFs and raster images, the formats scanners produce.
func isScannedDocument(detected *mimetype.MIME) bool {
	for m := detected; m != nil; m = m.Parent() {
		value := strings.ToLower(m.String())
		if value == "application/pdf" || (strings.HasPrefix(value, "image/") && value != "image/svg+xml") {
			return true
		}
	}
	return false
}

// storedFileName lowercases the original stem, collapses anything outside [a-z0-9_] into
// single dashes and appends the detected extension.
func storedFileName(original, detectedExt string) string {
	stem := strings.ToLower(strings.TrimSuffix(original, filepath.Ext(original)))

	var b strings.Builder
	pendingDash := false
	for _, r := range stem {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	name := b.String()
	if name == "" {
		name = fmt.Sprintf("document-%d", time.Now().Unix())
	}

	ext := strings.ToLower(detectedExt)
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(original))
	}
	if ext == "" {
		ext = ".bin"
	}
	return name + ext
}
