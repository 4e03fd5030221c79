package cloudinary

import (
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
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

// Service resolves pitch video references stored as Cloudinary public ids.
type Service struct {
	client *cloudinary.Cloudinary
	folder string
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
	cld.Config.URL.Secure = true

	return &Service{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// VideoURL returns a delivery URL for ref. Absolute http(s) URLs are returned unchanged;
// anything else is treated as a public id, relative to the configured folder when it has no path.
func (s *Service) VideoURL(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}
	if IsAbsoluteURL(ref) {
		return ref, nil
	}

	publicID := strings.TrimPrefix(ref, "/")
	if s.folder != "" && !strings.Contains(publicID, "/") {
		publicID = s.folder + "/" + publicID
	}

	video, err := s.client.Video(publicID)
	if err != nil {
		return "", fmt.Errorf("failed to build video asset: %w", err)
	}

	url, err := video.String()
	if err != nil {
		return "", fmt.Errorf("failed to render video url: %w", err)
	}

	s.logger.Debug().Str("public_id", publicID).Msg("resolved pitch video url")

	return url, nil
}

// IsAbsoluteURL reports whether ref already points at a web location.
func IsAbsoluteURL(ref string) bool {
	lower := strings.ToLower(strings.TrimSpace(ref))
	return strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://")
}
