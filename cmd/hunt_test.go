package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domainhound/domainhound/internal/config"
	"github.com/domainhound/domainhound/internal/model"
)

func TestReadDomainList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "domains.txt")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nexample.com\nbad domain\nEXAMPLE.COM\n"), 0o644))

	domains, err := readDomainList(path, true)
	require.NoError(t, err)
	assert.Equal(t, []model.Domain{"example.com"}, domains)

	domains, err = readDomainList(path, false)
	require.NoError(t, err)
	assert.Equal(t, []model.Domain{"example.com", "example.com"}, domains)
}

func TestReadDomainList_MissingFile(t *testing.T) {
	_, err := readDomainList(filepath.Join(t.TempDir(), "nope.txt"), true)
	require.Error(t, err)
}

func TestJournalDSN(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })

	cfg = &config.Config{}
	assert.Equal(t, filepath.Join("out", "journal.db"), journalDSN("out"))

	cfg.Journal.DatabaseURL = "postgres://localhost/hound"
	assert.Equal(t, "postgres://localhost/hound", journalDSN("out"))
}
