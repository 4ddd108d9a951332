package repositories

import "github.com/vuongmanhnghia/discord-soundboard-bot/internal/domain/entities"

// CatalogRepository defines the contract for catalog document storage
type CatalogRepository interface {
	// Load reads the whole document. A missing document is an empty catalog.
	Load() (*entities.Catalog, error)

	// Save atomically replaces the whole document.
	Save(catalog *entities.Catalog) error

	// Path returns the location of the document, for watchers.
	Path() string
}
