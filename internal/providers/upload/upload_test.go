package upload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chantierflow/chantierflow/internal/config"
	"github.com/stretchr/testify/require"
)

func TestSaveKeepsExtensionAndRandomizesName(t *testing.T) {
	dir := t.TempDir()
	store := New(config.Config{UploadDir: dir})

	path, err := store.Save("Logo Chantier.PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.Equal(t, ".png", filepath.Ext(path))
	require.NotContains(t, filepath.Base(path), "Logo")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(content))
}

func TestSaveRejectsDisallowedExtension(t *testing.T) {
	store := New(config.Config{UploadDir: t.TempDir()})

	_, err := store.Save("payload.exe", strings.NewReader("x"))
	require.ErrorIs(t, err, ErrDisallowedExtension)

	_, err = store.Save("noextension", strings.NewReader("x"))
	require.ErrorIs(t, err, ErrDisallowedExtension)
}
