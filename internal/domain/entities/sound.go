package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/domain/valueobjects"
)

// SoundEntry is one playable sound in the catalog
type SoundEntry struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
}

// AudioFile returns the canonical file name of the sound inside the sounds directory
func (e SoundEntry) AudioFile() string {
	return e.Filename + "." + valueobjects.CanonicalExtension
}

// Catalog is the on-disk document listing every sound in insertion order
type Catalog struct {
	Sounds []SoundEntry `json:"sounds"`
}

// Clone returns a deep copy of the catalog
func (c *Catalog) Clone() *Catalog {
	sounds := make([]SoundEntry, len(c.Sounds))
	copy(sounds, c.Sounds)
	return &Catalog{Sounds: sounds}
}

// PendingUpload tracks one submission while it moves through ingestion
type PendingUpload struct {
	ID           string
	DeclaredName string
	Slug         string
	Format       valueobjects.MediaFormat
	RawTempPath  string
	OutputPath   string
	Duration     time.Duration
	Size         int64
	CreatedAt    time.Time
}

// NewPendingUpload creates a pending upload for a validated name
func NewPendingUpload(name, slug string, format valueobjects.MediaFormat) *PendingUpload {
	return &PendingUpload{
		ID:           uuid.New().String(),
		DeclaredName: name,
		Slug:         slug,
		Format:       format,
		CreatedAt:    time.Now(),
	}
}

// Entry returns the catalog entry this upload will become
func (p *PendingUpload) Entry() SoundEntry {
	return SoundEntry{Name: p.DeclaredName, Filename: p.Slug}
}
