package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"add tickets table":  "add_tickets_table",
		"Add-Field-Mappings": "add_field_mappings",
		"  spaced  ":         "spaced",
		"special!@#chars":    "special_chars",
		"":                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, slugify(in), in)
	}
}

func TestCreate_Sequential(t *testing.T) {
	dir := t.TempDir()

	first, err := Create(dir, "create issuers")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_issuers.up.sql"), first.UpPath)
	assert.FileExists(t, first.UpPath)
	assert.FileExists(t, first.DownPath)

	second, err := Create(dir, "add index")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)
}

func TestCreate_InvalidName(t *testing.T) {
	_, err := Create(t.TempDir(), "!!!")
	assert.Error(t, err)
}

func TestLatestVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000003_a.up.sql", "000003_a.down.sql", "000010_b.up.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	v, err := LatestVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, uint(10), v)

	v, err = LatestVersion(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)
}

func TestLatestVersion_RepositoryMigrations(t *testing.T) {
	v, err := LatestVersion("../../../migrations")
	require.NoError(t, err)
	assert.Equal(t, uint(3), v)
}
