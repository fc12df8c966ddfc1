package catalog

import (
	"os"
	"strings"
	"testing"

	"locafix/core/backup"
	"locafix/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func revertsFor(cat *Catalog, ids ...string) []reconcile.Revert {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []reconcile.Revert
	for pos, e := range cat.Entries {
		if want[e.ID] {
			out = append(out, reconcile.Revert{ID: e.ID, Position: pos})
		}
	}
	return out
}

func TestApply_RemovesNodes(t *testing.T) {
	path := writeFile(t, "modified.xml", sampleCatalog)
	cat, err := Load(path, Config{})
	require.NoError(t, err)

	ledger := backup.NewLedger()
	deleted, err := Apply(cat, revertsFor(cat, "h100", "h600"), ApplyOptions{Backup: true, Ledger: ledger})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(written)
	assert.NotContains(t, out, `contentuid="h100"`)
	assert.NotContains(t, out, `contentuid="h600"`)
	assert.Contains(t, out, `<content contentuid="h200" version="2">Hi &amp; bye</content>`)
	assert.Contains(t, out, `<group>`)
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="utf-8"?>`))

	backupData, err := os.ReadFile(backup.PathFor(path))
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog, string(backupData))
	assert.Equal(t, 1, ledger.Len())

	// Re-reading yields exactly the surviving entries
	again, err := Load(path, Config{})
	require.NoError(t, err)
	assert.Equal(t, cat.Entries, again.Entries)
	assert.Equal(t, 4, again.Len())
}

func TestApply_NothingToDelete(t *testing.T) {
	path := writeFile(t, "modified.xml", sampleCatalog)
	before, err := os.Stat(path)
	require.NoError(t, err)

	cat, err := Load(path, Config{})
	require.NoError(t, err)

	deleted, err := Apply(cat, nil, ApplyOptions{Backup: true})
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
	assert.NoFileExists(t, backup.PathFor(path))
}

func TestApply_NoBackup(t *testing.T) {
	path := writeFile(t, "modified.xml", sampleCatalog)
	cat, err := Load(path, Config{})
	require.NoError(t, err)

	deleted, err := Apply(cat, revertsFor(cat, "h200"), ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.NoFileExists(t, backup.PathFor(path))
}

func TestApply_DryRun(t *testing.T) {
	path := writeFile(t, "modified.xml", sampleCatalog)
	cat, err := Load(path, Config{})
	require.NoError(t, err)

	deleted, err := Apply(cat, revertsFor(cat, "h100", "h200"), ApplyOptions{Backup: true, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog, string(data))
	assert.NoFileExists(t, backup.PathFor(path))
	assert.Equal(t, 6, cat.Len())
}

func TestApply_StaleRevert(t *testing.T) {
	path := writeFile(t, "modified.xml", sampleCatalog)
	cat, err := Load(path, Config{})
	require.NoError(t, err)

	_, err = Apply(cat, []reconcile.Revert{{ID: "h999", Position: 0}}, ApplyOptions{})
	assert.ErrorIs(t, err, ErrStaleRevert)

	_, err = Apply(cat, []reconcile.Revert{{ID: "h100", Position: 42}}, ApplyOptions{})
	assert.ErrorIs(t, err, ErrStaleRevert)
}

func TestApply_AddsDeclaration(t *testing.T) {
	path := writeFile(t, "modified.xml", `<root><content contentuid="a">x</content><content contentuid="b">y</content></root>`)
	cat, err := Load(path, Config{})
	require.NoError(t, err)

	_, err = Apply(cat, revertsFor(cat, "a"), ApplyOptions{})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<root><content contentuid=\"b\">y</content></root>", string(data))
}

func TestApply_KeepsDeclaredCharset(t *testing.T) {
	content := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n<contentList>\n" +
		"    <content contentuid=\"h1\" version=\"1\">Caf\xe9</content>\n" +
		"    <content contentuid=\"h2\" version=\"1\">Cr\xe8me</content>\n" +
		"</contentList>\n"
	path := writeFile(t, "french.xml", content)
	cat, err := Load(path, Config{})
	require.NoError(t, err)

	deleted, err := Apply(cat, revertsFor(cat, "h2"), ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Caf\xe9")
	assert.NotContains(t, string(data), "Cr\xe8me")
	assert.True(t, strings.HasPrefix(string(data), `<?xml version="1.0" encoding="ISO-8859-1"?>`))

	again, err := Load(path, Config{})
	require.NoError(t, err)
	require.Equal(t, 1, again.Len())
	assert.Equal(t, "Café", *again.Entries[0].Text)
}
