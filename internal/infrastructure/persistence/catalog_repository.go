package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/validation"
	"github.com/vuongmanhnghia/discord-soundboard-bot/pkg/logger"
)

// CatalogRepository persists the sound catalog as a single JSON document
type CatalogRepository struct {
	fs     afero.Fs
	path   string
	logger *logger.Logger
	mu     sync.RWMutex
}

// documentOnDisk accepts both the current entry objects and the legacy list
// of bare names.
type documentOnDisk struct {
	Sounds []json.RawMessage `json:"sounds"`
}

// NewCatalogRepository creates a repository for the document at path
func NewCatalogRepository(fs afero.Fs, path string, log *logger.Logger) (*CatalogRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	return &CatalogRepository{
		fs:     fs,
		path:   path,
		logger: log,
	}, nil
}

// Path returns the document location
func (r *CatalogRepository) Path() string {
	return r.path
}

// Load reads the catalog document. A missing or blank document yields an
// empty catalog.
func (r *CatalogRepository) Load() (*entities.Catalog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	catalog, _, err := r.loadLocked()
	return catalog, err
}

// IsLegacy reports whether the document still uses the list-of-names format
func (r *CatalogRepository) IsLegacy() (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, legacy, err := r.loadLocked()
	return legacy, err
}

func (r *CatalogRepository) loadLocked() (*entities.Catalog, bool, error) {
	data, err := afero.ReadFile(r.fs, r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &entities.Catalog{Sounds: []entities.SoundEntry{}}, false, nil
		}
		return nil, false, fmt.Errorf("failed to read catalog file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return &entities.Catalog{Sounds: []entities.SoundEntry{}}, false, nil
	}

	var doc documentOnDisk
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, fmt.Errorf("failed to decode catalog: %w", err)
	}

	catalog := &entities.Catalog{Sounds: make([]entities.SoundEntry, 0, len(doc.Sounds))}
	legacy := false
	for i, raw := range doc.Sounds {
		var entry entities.SoundEntry
		if err := json.Unmarshal(raw, &entry); err == nil {
			if entry.Name == "" || entry.Filename == "" {
				r.logger.WithField("index", i).Warn("Skipping incomplete catalog entry")
				continue
			}
			catalog.Sounds = append(catalog.Sounds, entry)
			continue
		}

		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return nil, false, fmt.Errorf("failed to decode catalog entry %d: %w", i, err)
		}
		legacy = true
		catalog.Sounds = append(catalog.Sounds, entities.SoundEntry{
			Name:     name,
			Filename: validation.SecureFilename(name),
		})
	}

	return catalog, legacy, nil
}

// Save replaces the catalog document with an atomic write
func (r *CatalogRepository) Save(catalog *entities.Catalog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if catalog.Sounds == nil {
		catalog = &entities.Catalog{Sounds: []entities.SoundEntry{}}
	}

	// Create backup if file exists
	if _, err := r.fs.Stat(r.path); err == nil {
		if err := r.copyFile(r.path, r.path+".backup"); err != nil {
			r.logger.WithError(err).Warn("Could not create catalog backup")
		}
	}

	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	// Atomic write using temp file
	tempPath := r.path + ".tmp"
	if err := afero.WriteFile(r.fs, tempPath, append(data, '\n'), 0644); err != nil {
		r.fs.Remove(tempPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := r.fs.Rename(tempPath, r.path); err != nil {
		r.fs.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// copyFile copies a file from src to dst
func (r *CatalogRepository) copyFile(src, dst string) error {
	data, err := afero.ReadFile(r.fs, src)
	if err != nil {
		return err
	}
	return afero.WriteFile(r.fs, dst, data, 0644)
}
