package zipper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestPackAndUnpackRoundTrip(t *testing.T) {
	srcDir := t.TempDir()
	writeFile(t, filepath.Join(srcDir, "checkpoint.bin"), "weights")
	writeFile(t, filepath.Join(srcDir, "meta", "info.json"), `{"epoch":1}`)

	archive := filepath.Join(t.TempDir(), "transfer.zip")
	require.NoError(t, PackDirectory(srcDir, archive))

	destDir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, UnpackArchive(archive, destDir))

	got, err := os.ReadFile(filepath.Join(destDir, "checkpoint.bin"))
	require.NoError(t, err)
	assert.Equal(t, "weights", string(got))

	got, err = os.ReadFile(filepath.Join(destDir, "meta", "info.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"epoch":1}`, string(got))
}

func TestPackDirectoryFiltered(t *testing.T) {
	srcDir := t.TempDir()
	writeFile(t, filepath.Join(srcDir, "model", "weights.bin"), "w")
	writeFile(t, filepath.Join(srcDir, "logs", "run.log"), "l")

	archive := filepath.Join(t.TempDir(), "transfer.zip")
	require.NoError(t, PackDirectoryFiltered(srcDir, archive, []string{"model"}))

	destDir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, UnpackArchive(archive, destDir))

	_, err := os.Stat(filepath.Join(destDir, "model", "weights.bin"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(destDir, "logs", "run.log"))
	assert.True(t, os.IsNotExist(err))
}

func TestUnpackArchive_RejectsZipSlip(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "evil.zip")
	require.NoError(t, writeEvilZip(archive))

	err := UnpackArchive(archive, filepath.Join(t.TempDir(), "out"))
	assert.Error(t, err)
}
