package main

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	return cmd, &out
}

func TestMigrateCatalogLegacy(t *testing.T) {
	fs := afero.NewMemMapFs()
	legacy := `{"sounds": ["Air Horn", "Bruh"]}`
	require.NoError(t, afero.WriteFile(fs, "sound_files.json", []byte(legacy), 0644))

	cmd, out := newTestCommand()
	require.NoError(t, migrateCatalog(cmd, fs, "sound_files.json"))
	assert.Contains(t, out.String(), "migrated 2 sounds")

	data, err := afero.ReadFile(fs, "sound_files.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"sounds": [
		{"name": "Air Horn", "filename": "Air_Horn"},
		{"name": "Bruh", "filename": "Bruh"}
	]}`, string(data))

	backup, err := afero.ReadFile(fs, "sound_files.json.backup")
	require.NoError(t, err)
	assert.Equal(t, legacy, string(backup))
}

func TestMigrateCatalogCurrentFormatUntouched(t *testing.T) {
	fs := afero.NewMemMapFs()
	current := `{"sounds": [{"name": "Bruh", "filename": "Bruh"}]}`
	require.NoError(t, afero.WriteFile(fs, "sound_files.json", []byte(current), 0644))

	cmd, out := newTestCommand()
	require.NoError(t, migrateCatalog(cmd, fs, "sound_files.json"))
	assert.Contains(t, out.String(), "already in the current format")

	exists, err := afero.Exists(fs, "sound_files.json.backup")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMigrateCatalogDryRun(t *testing.T) {
	flagDryRun = true
	t.Cleanup(func() { flagDryRun = false })

	fs := afero.NewMemMapFs()
	legacy := `{"sounds": ["Air Horn"]}`
	require.NoError(t, afero.WriteFile(fs, "sound_files.json", []byte(legacy), 0644))

	cmd, out := newTestCommand()
	require.NoError(t, migrateCatalog(cmd, fs, "sound_files.json"))
	assert.Contains(t, out.String(), "would migrate 1 sounds")

	data, err := afero.ReadFile(fs, "sound_files.json")
	require.NoError(t, err)
	assert.Equal(t, legacy, string(data))
}

func TestMigrateCatalogCorrupt(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "sound_files.json", []byte("{not json"), 0644))

	cmd, _ := newTestCommand()
	assert.Error(t, migrateCatalog(cmd, fs, "sound_files.json"))
}
