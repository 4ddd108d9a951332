package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/domain/valueobjects"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/errors"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/services/media"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/utils"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/validation"
	"github.com/vuongmanhnghia/discord-soundboard-bot/pkg/logger"
)

// IngestionConfig holds the limits and locations used by ingestion
type IngestionConfig struct {
	SoundsDir        string
	TempDir          string
	MaxUploadBytes   int64
	MaxVideoDuration time.Duration
}

// UploadRequest is one submitted clip
type UploadRequest struct {
	Name         string
	FilenameHint string
	Body         io.Reader
	RequestedBy  string
	Source       string // discord or web
}

// IngestionService turns uploads into catalog entries backed by canonical MP3 files
type IngestionService struct {
	fs       afero.Fs
	catalog  *CatalogService
	tool     media.Tool
	verifier media.Verifier
	config   IngestionConfig
	logger   *logger.Logger

	// Held per slug from the uniqueness check until the catalog append.
	locks *utils.KeyedMutex
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	fs afero.Fs,
	catalog *CatalogService,
	tool media.Tool,
	verifier media.Verifier,
	cfg IngestionConfig,
	log *logger.Logger,
) *IngestionService {
	return &IngestionService{
		fs:       fs,
		catalog:  catalog,
		tool:     tool,
		verifier: verifier,
		config:   cfg,
		logger:   log,
		locks:    utils.NewKeyedMutex(),
	}
}

// Ingest accepts any supported audio or video upload
func (s *IngestionService) Ingest(ctx context.Context, req UploadRequest) (entities.SoundEntry, error) {
	return s.ingest(ctx, req, false)
}

// IngestCanonical accepts MP3 uploads only
func (s *IngestionService) IngestCanonical(ctx context.Context, req UploadRequest) (entities.SoundEntry, error) {
	return s.ingest(ctx, req, true)
}

// CanonicalPath returns where the audio for entry is stored
func (s *IngestionService) CanonicalPath(entry entities.SoundEntry) string {
	return filepath.Join(s.config.SoundsDir, entry.AudioFile())
}

func (s *IngestionService) ingest(ctx context.Context, req UploadRequest, canonicalOnly bool) (entities.SoundEntry, error) {
	if err := ctx.Err(); err != nil {
		return entities.SoundEntry{}, err
	}

	name, slug, err := validation.ValidateSoundName(req.Name)
	if err != nil {
		return entities.SoundEntry{}, err
	}

	log := s.logger.WithFields(map[string]interface{}{
		"sound":  name,
		"slug":   slug,
		"source": req.Source,
		"user":   req.RequestedBy,
	})

	unlock := s.locks.Lock(slug)
	defer unlock()

	if err := s.checkUnique(name, slug); err != nil {
		log.WithError(err).Info("Rejected duplicate upload")
		return entities.SoundEntry{}, err
	}

	format, ok := valueobjects.DetectFormat(req.FilenameHint)
	if !ok || (canonicalOnly && format.Kind != valueobjects.MediaKindCanonical) {
		return entities.SoundEntry{}, fmt.Errorf("%w: %q", errors.ErrUnsupportedFormat, format.Extension)
	}

	pending := entities.NewPendingUpload(name, slug, format)
	defer s.cleanup(pending)

	if err := s.saveRaw(pending, req.Body); err != nil {
		log.WithError(err).Warn("Failed to store upload")
		return entities.SoundEntry{}, err
	}

	if format.NeedsDurationCheck() {
		duration, err := s.tool.Probe(ctx, pending.RawTempPath)
		if err != nil {
			return entities.SoundEntry{}, fmt.Errorf("%w: %v", errors.ErrTranscodeFailed, err)
		}
		pending.Duration = duration
		if duration > s.config.MaxVideoDuration {
			log.WithField("duration", duration).Info("Rejected long video")
			return entities.SoundEntry{}, fmt.Errorf("%w: %s > %s", errors.ErrDurationExceeded, duration, s.config.MaxVideoDuration)
		}
	}

	if err := s.convert(ctx, pending); err != nil {
		log.WithError(err).Warn("Failed to convert upload")
		return entities.SoundEntry{}, err
	}

	entry, err := s.finalize(pending)
	if err != nil {
		log.WithError(err).Warn("Failed to finalize upload")
		return entities.SoundEntry{}, err
	}

	log.WithFields(map[string]interface{}{
		"format":   format.Extension,
		"duration": pending.Duration,
		"bytes":    pending.Size,
	}).Info("✅ Sound uploaded")
	return entry, nil
}

func (s *IngestionService) checkUnique(name, slug string) error {
	if _, exists := s.catalog.FindByName(name); exists {
		return fmt.Errorf("%w: %q", errors.ErrDuplicateName, name)
	}
	if s.catalog.HasFilename(slug) {
		return fmt.Errorf("%w: filename %q in use", errors.ErrDuplicateName, slug)
	}
	exists, err := afero.Exists(s.fs, filepath.Join(s.config.SoundsDir, slug+"."+valueobjects.CanonicalExtension))
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	if exists {
		return fmt.Errorf("%w: file %q exists", errors.ErrDuplicateName, slug)
	}
	return nil
}

// saveRaw copies the payload to a scoped temp file, enforcing the size limit.
func (s *IngestionService) saveRaw(p *entities.PendingUpload, body io.Reader) error {
	if body == nil {
		return fmt.Errorf("%w: empty upload", errors.ErrTranscodeFailed)
	}
	if err := s.fs.MkdirAll(s.config.TempDir, 0755); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}

	file, err := afero.TempFile(s.fs, s.config.TempDir, "upload-"+p.ID+"-*."+p.Format.Extension)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	p.RawTempPath = file.Name()

	reader := body
	if s.config.MaxUploadBytes > 0 {
		reader = io.LimitReader(body, s.config.MaxUploadBytes+1)
	}
	n, copyErr := io.Copy(file, reader)
	closeErr := file.Close()
	p.Size = n

	switch {
	case copyErr != nil:
		return fmt.Errorf("%w: read upload: %v", errors.ErrTranscodeFailed, copyErr)
	case closeErr != nil:
		return fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, closeErr)
	case s.config.MaxUploadBytes > 0 && n > s.config.MaxUploadBytes:
		return fmt.Errorf("%w: limit is %d bytes", errors.ErrFileTooLarge, s.config.MaxUploadBytes)
	case n == 0:
		return fmt.Errorf("%w: empty upload", errors.ErrTranscodeFailed)
	}
	return nil
}

// convert produces a verified MP3 at p.OutputPath.
func (s *IngestionService) convert(ctx context.Context, p *entities.PendingUpload) error {
	if p.Format.NeedsTranscode() {
		p.OutputPath = filepath.Join(s.config.TempDir, "out-"+p.ID+"."+valueobjects.CanonicalExtension)
		if err := s.tool.Transcode(ctx, p.RawTempPath, p.OutputPath); err != nil {
			return fmt.Errorf("%w: %v", errors.ErrTranscodeFailed, err)
		}
	} else {
		p.OutputPath = p.RawTempPath
	}

	duration, err := s.verifier.Verify(p.OutputPath)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrTranscodeFailed, err)
	}
	if p.Duration == 0 {
		p.Duration = duration
	}
	return nil
}

// finalize moves the verified output into place and records it in the catalog.
func (s *IngestionService) finalize(p *entities.PendingUpload) (entities.SoundEntry, error) {
	entry := p.Entry()
	canonical := s.CanonicalPath(entry)

	if err := s.fs.MkdirAll(s.config.SoundsDir, 0755); err != nil {
		return entities.SoundEntry{}, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	if err := s.fs.Rename(p.OutputPath, canonical); err != nil {
		return entities.SoundEntry{}, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	if p.OutputPath == p.RawTempPath {
		p.RawTempPath = ""
	}
	p.OutputPath = ""

	if err := s.catalog.Append(entry); err != nil {
		if rmErr := s.fs.Remove(canonical); rmErr != nil {
			s.logger.WithError(rmErr).WithField("path", canonical).Warn("Failed to remove orphaned sound file")
		}
		if stderrors.Is(err, errors.ErrNameConflict) {
			return entities.SoundEntry{}, fmt.Errorf("%w: %v", errors.ErrDuplicateName, err)
		}
		return entities.SoundEntry{}, err
	}

	return entry, nil
}

func (s *IngestionService) cleanup(p *entities.PendingUpload) {
	for _, path := range []string{p.RawTempPath, p.OutputPath} {
		if path == "" {
			continue
		}
		if err := s.fs.Remove(path); err != nil {
			if exists, _ := afero.Exists(s.fs, path); exists {
				s.logger.WithError(err).WithField("path", path).Warn("Failed to remove temp file")
			}
		}
	}
}
