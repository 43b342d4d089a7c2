package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Configured reports whether every credential is present.
func (c Config) Configured() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Service stores scanned documents in Cloudinary. Assets are uploaded as authenticated
// resources because they carry student contract data.
type Service struct {
	client *cloudinary.Cloudinary
	folder string
	now    func() time.Time
	logger zerolog.Logger
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		now:    time.Now,
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Upload sends the document to Cloudinary and returns its secure URL.
func (s *Service) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	publicID := buildPublicID(name, s.now())

	params := uploader.UploadParams{
		Folder:         s.datedFolder(),
		PublicID:       publicID,
		ResourceType:   "auto",
		Type:           api.Authenticated,
		Tags:           []string{"retention", "scanned-document"},
		UniqueFilename: api.Bool(false),
		Overwrite:      api.Bool(false),
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload document: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("failed to upload document: %s", result.Error.Message)
	}

	s.logger.Info().Str("public_id", result.PublicID).Int("bytes", result.Bytes).Msg("document uploaded to cloudinary")

	return result.SecureURL, nil
}

// datedFolder groups documents by month so the media library stays browsable.
func (s *Service) datedFolder() string {
	month := s.now().UTC().Format("2006-01")
	if s.folder == "" {
		return month
	}
	return s.folder + "/" + month
}

// buildPublicID suffixes the stem with a timestamp so repeated uploads of the same file
// never collide while Overwrite is disabled.
func buildPublicID(name string, at time.Time) string {
	stem := strings.Map(func(r rune) rune {
		if r < utf8.RuneSelf && (r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return '_'
	}, strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	stem = strings.Trim(stem, "_-")
	if stem == "" {
		stem = "document"
	}
	return stem + "-" + strconv.FormatInt(at.UnixMilli(), 36)
}
