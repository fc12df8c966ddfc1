package patcher

import (
	"os"
	"path/filepath"
	"testing"

	"locafix/core/backup"
	"locafix/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func replacements() reconcile.ReplacementMap {
	return reconcile.ReplacementMap{
		"h100": {OldID: "h100", NewID: "h100", Version: "1"},
		"h300": {OldID: "h300", NewID: "h300", Version: "5"},
	}
}

func newPatcher(t *testing.T, mutate func(*Config), opts Options) *Patcher {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	p, err := New(cfg, opts)
	require.NoError(t, err)
	return p
}

func write(t *testing.T, dir, rel string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestPatch_RewritesMarkup(t *testing.T) {
	dir := t.TempDir()
	original := `<node id="Item"><attribute id="Name" handle="h100" version="2"/><attribute id="Desc" handle="h200" version="2"/></node>`
	path := write(t, dir, "Stats/Items.lsx", []byte(original))

	ledger := backup.NewLedger()
	p := newPatcher(t, nil, Options{Ledger: ledger})

	res := p.Patch(path, replacements())
	require.NoError(t, res.Err)
	assert.True(t, res.Modified)
	assert.Equal(t, []string{"h100"}, res.MatchedIDs)
	assert.Equal(t, []string{"generic/quoted-id:h100", "markup/handle-version-attr:h100"}, res.FiredPatterns)
	assert.Equal(t, "utf-8", res.Encoding)
	assert.Equal(t, backup.PathFor(path), res.BackupPath)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `<node id="Item"><attribute id="Name" handle="h100" version="1"/><attribute id="Desc" handle="h200" version="2"/></node>`, string(data))

	backupData, err := os.ReadFile(res.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, original, string(backupData))
}

func TestPatch_RewritesStructured(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "Items.lsj", []byte(`{"handle": "h300", "version": 9}`))

	p := newPatcher(t, nil, Options{})
	res := p.Patch(path, replacements())
	require.NoError(t, res.Err)
	assert.True(t, res.Modified)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"handle": "h300", "version": 5}`, string(data))
}

func TestPatch_Skips(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`<content contentuid="h100" version="2"/>`)

	tests := []struct {
		name string
		rel  string
		data []byte
		want SkipReason
	}{
		{"vcs directory", ".git/objects/a.xml", content, SkipVCS},
		{"binary extension", "Textures/icon.DDS", content, SkipBinary},
		{"reserved name", "Localization/English/English.XML", content, SkipReserved},
		{"backup artifact", "Stats/a.lsx.backup", content, SkipBackup},
		{"undecodable", "Stats/bad.lsx", []byte{0xff, 0xfe, 'h', '1', '0', '0'}, SkipEncoding},
	}

	p := newPatcher(t, func(c *Config) { c.Encodings = []string{"utf-8"} }, Options{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := write(t, dir, tt.rel, tt.data)
			res := p.Patch(path, replacements())
			assert.Equal(t, tt.want, res.Skipped)
			assert.False(t, res.Modified)
			assert.NoError(t, res.Err)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.data, data)
			assert.NoFileExists(t, backup.PathFor(path))
		})
	}
}

func TestPatch_NoMatchShortCircuits(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "a.lsx", []byte(`<content contentuid="h999" version="2"/>`))

	p := newPatcher(t, nil, Options{})
	res := p.Patch(path, replacements())

	assert.Empty(t, res.Skipped)
	assert.Empty(t, res.MatchedIDs)
	assert.Empty(t, res.FiredPatterns)
	assert.False(t, res.Modified)
	assert.NoFileExists(t, backup.PathFor(path))
}

func TestPatch_MatchWithoutChange(t *testing.T) {
	dir := t.TempDir()
	original := `{"ref": "h100"}`
	path := write(t, dir, "refs.json", []byte(original))

	p := newPatcher(t, nil, Options{})
	res := p.Patch(path, replacements())

	assert.False(t, res.Modified)
	assert.Equal(t, []string{"h100"}, res.MatchedIDs)
	assert.Equal(t, []string{"generic/quoted-id:h100"}, res.FiredPatterns)
	assert.NoFileExists(t, backup.PathFor(path))
}

func TestPatch_Latin1RoundTrip(t *testing.T) {
	dir := t.TempDir()
	// "café" in ISO-8859-1 is not valid UTF-8
	original := append([]byte(`<content contentuid="h100" version="7">caf`), 0xe9, '<', '/', 'c', 'o', 'n', 't', 'e', 'n', 't', '>')
	path := write(t, dir, "fr.xml", original)

	p := newPatcher(t, nil, Options{})
	res := p.Patch(path, replacements())
	require.NoError(t, res.Err)
	assert.True(t, res.Modified)
	assert.Equal(t, "iso-8859-1", res.Encoding)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := append([]byte(`<content contentuid="h100" version="1">caf`), 0xe9, '<', '/', 'c', 'o', 'n', 't', 'e', 'n', 't', '>')
	assert.Equal(t, want, data)
}

func TestPatch_DryRun(t *testing.T) {
	dir := t.TempDir()
	original := []byte(`<content contentuid="h100" version="2"/>`)
	path := write(t, dir, "a.lsx", original)

	p := newPatcher(t, nil, Options{DryRun: true})
	res := p.Patch(path, replacements())
	assert.True(t, res.Modified)
	assert.Empty(t, res.BackupPath)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, data)
	assert.NoFileExists(t, backup.PathFor(path))
}

func TestPatch_BackupDisabled(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "a.lsx", []byte(`<content contentuid="h100" version="2"/>`))

	p := newPatcher(t, func(c *Config) { c.Backup = false }, Options{})
	res := p.Patch(path, replacements())
	assert.True(t, res.Modified)
	assert.NoFileExists(t, backup.PathFor(path))
}

func TestPatch_BackupWrittenOncePerRun(t *testing.T) {
	dir := t.TempDir()
	original := `<content contentuid="h100" version="2"/><content contentuid="h300" version="2"/>`
	path := write(t, dir, "a.lsx", []byte(original))

	ledger := backup.NewLedger()
	p := newPatcher(t, nil, Options{Ledger: ledger})

	first := p.Patch(path, reconcile.ReplacementMap{"h100": {OldID: "h100", NewID: "h100", Version: "1"}})
	require.True(t, first.Modified)
	second := p.Patch(path, reconcile.ReplacementMap{"h300": {OldID: "h300", NewID: "h300", Version: "1"}})
	require.True(t, second.Modified)

	backupData, err := os.ReadFile(backup.PathFor(path))
	require.NoError(t, err)
	assert.Equal(t, original, string(backupData))
	assert.Equal(t, 1, ledger.Len())
}

func TestPatch_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "a.lsx", []byte(`<content contentuid="h100" version="2"/>`))

	p := newPatcher(t, func(c *Config) { c.Backup = false }, Options{})
	first := p.Patch(path, replacements())
	assert.True(t, first.Modified)

	second := p.Patch(path, replacements())
	assert.False(t, second.Modified)
	assert.NoError(t, second.Err)
}

func TestPatch_MissingFile(t *testing.T) {
	p := newPatcher(t, nil, Options{})
	res := p.Patch(filepath.Join(t.TempDir(), "gone.lsx"), replacements())
	assert.Error(t, res.Err)
	assert.False(t, res.Modified)
}

func TestNew_UnknownEncoding(t *testing.T) {
	_, err := New(Config{Encodings: []string{"klingon-8"}}, Options{})
	assert.Error(t, err)
}
