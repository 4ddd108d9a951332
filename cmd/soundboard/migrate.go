package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/config"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/infrastructure/persistence"
)

var flagDryRun bool

var migrateCatalogCmd = &cobra.Command{
	Use:   "migrate-catalog",
	Short: "Rewrite a legacy sound list as a name-to-file catalog",
	Long: `Older catalogs store a plain JSON list of sound names. This command
rewrites such a file in the current format, keeping a backup of the original.
Catalogs already in the current format are left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadStorage()
		return migrateCatalog(cmd, afero.NewOsFs(), cfg.SoundFilesJSON)
	},
}

func init() {
	migrateCatalogCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "report what would change without writing")
	rootCmd.AddCommand(migrateCatalogCmd)
}

func migrateCatalog(cmd *cobra.Command, fs afero.Fs, path string) error {
	cfg := &config.Config{LogLevel: "warn", LogFormat: "text"}
	repo, err := persistence.NewCatalogRepository(fs, path, newLogger(cfg))
	if err != nil {
		return err
	}

	legacy, err := repo.IsLegacy()
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	if !legacy {
		fmt.Fprintf(out, "%s is already in the current format\n", path)
		return nil
	}

	catalog, err := repo.Load()
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	if flagDryRun {
		fmt.Fprintf(out, "would migrate %d sounds in %s\n", len(catalog.Sounds), path)
		return nil
	}

	if err := repo.Save(catalog); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	fmt.Fprintf(out, "migrated %d sounds in %s\n", len(catalog.Sounds), path)
	return nil
}
