package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"

	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/domain/repositories"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/errors"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/utils"
	"github.com/vuongmanhnghia/discord-soundboard-bot/pkg/logger"
)

const (
	// MaxAutocompleteResults is the Discord cap on autocomplete choices.
	MaxAutocompleteResults = 25

	suggestionCacheSize = 256
	suggestionCacheTTL  = 5 * time.Minute
	watchDebounce       = 100 * time.Millisecond
)

// CatalogService owns the in-memory view of the sound catalog. Every write
// goes through the repository before the view changes.
type CatalogService struct {
	repo   repositories.CatalogRepository
	logger *logger.Logger

	mu     sync.RWMutex
	sounds []entities.SoundEntry

	suggestions *utils.SmartCache[[]string]
}

// NewCatalogService creates a catalog service and loads the current document
func NewCatalogService(repo repositories.CatalogRepository, log *logger.Logger) (*CatalogService, error) {
	catalog, err := repo.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}

	return &CatalogService{
		repo:        repo,
		logger:      log,
		sounds:      catalog.Sounds,
		suggestions: utils.NewSmartCache[[]string](suggestionCacheSize, suggestionCacheTTL),
	}, nil
}

// List returns every entry in insertion order
func (s *CatalogService) List() []entities.SoundEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.SoundEntry, len(s.sounds))
	copy(out, s.sounds)
	return out
}

// Count returns the number of sounds
func (s *CatalogService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sounds)
}

// FindByName looks up an entry by its exact, case-sensitive name
func (s *CatalogService) FindByName(name string) (entities.SoundEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.Find(s.sounds, func(e entities.SoundEntry) bool {
		return e.Name == name
	})
}

// HasFilename reports whether any entry already uses filename
func (s *CatalogService) HasFilename(filename string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.ContainsBy(s.sounds, func(e entities.SoundEntry) bool {
		return e.Filename == filename
	})
}

// Append adds entry to the catalog. The document is re-read, checked and
// rewritten under the write lock so concurrent appends never lose updates.
func (s *CatalogService) Append(entry entities.SoundEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.repo.Load()
	if err != nil {
		s.logger.WithError(err).Error("Failed to read catalog before append")
		return fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}

	conflict := lo.ContainsBy(current.Sounds, func(e entities.SoundEntry) bool {
		return e.Name == entry.Name || e.Filename == entry.Filename
	})
	if conflict {
		return fmt.Errorf("%w: %q", errors.ErrNameConflict, entry.Name)
	}

	next := current.Clone()
	next.Sounds = append(next.Sounds, entry)
	if err := s.repo.Save(next); err != nil {
		s.logger.WithError(err).WithField("sound", entry.Name).Error("Failed to persist catalog")
		return fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}

	s.sounds = next.Sounds
	s.suggestions.Purge()

	s.logger.WithFields(map[string]interface{}{
		"sound":    entry.Name,
		"filename": entry.Filename,
		"total":    len(next.Sounds),
	}).Info("Sound added to catalog")
	return nil
}

// Autocomplete returns up to MaxAutocompleteResults names containing query,
// compared case-insensitively, in catalog order.
func (s *CatalogService) Autocomplete(query string) []string {
	key := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	if cached, ok := s.suggestions.Get(key); ok {
		return cloneNames(cached)
	}

	matches := lo.Filter(s.sounds, func(e entities.SoundEntry, _ int) bool {
		return strings.Contains(strings.ToLower(e.Name), key)
	})
	if len(matches) > MaxAutocompleteResults {
		matches = matches[:MaxAutocompleteResults]
	}
	names := lo.Map(matches, func(e entities.SoundEntry, _ int) string {
		return e.Name
	})

	s.suggestions.Set(key, names)
	return cloneNames(names)
}

func cloneNames(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Reload replaces the in-memory view with the document on disk
func (s *CatalogService) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	catalog, err := s.repo.Load()
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}

	s.sounds = catalog.Sounds
	s.suggestions.Purge()
	return nil
}

// Watch reloads the catalog whenever the document changes on disk, until ctx
// is cancelled.
func (s *CatalogService) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	defer watcher.Close()

	// The document is replaced by rename, so watch its directory.
	docPath := filepath.Clean(s.repo.Path())
	if err := watcher.Add(filepath.Dir(docPath)); err != nil {
		return fmt.Errorf("failed to watch catalog directory: %w", err)
	}

	s.logger.WithField("path", docPath).Info("Watching catalog for changes")

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != docPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			debounce = time.After(watchDebounce)

		case <-debounce:
			debounce = nil
			if err := s.Reload(); err != nil {
				s.logger.WithError(err).Warn("Failed to reload catalog, keeping previous view")
				continue
			}
			s.logger.WithField("sounds", s.Count()).Debug("Catalog reloaded")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.WithError(err).Warn("Catalog watcher error")
		}
	}
}
