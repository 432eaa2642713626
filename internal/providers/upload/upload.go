package upload

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chantierflow/chantierflow/internal/config"
	"github.com/google/uuid"
)

var ErrDisallowedExtension = errors.New("disallowed_extension")

// Extensions accepted for company logos and site assets.
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".svg":  true,
	".webp": true,
}

type Store struct {
	dir string
}

func New(cfg config.Config) *Store {
	return &Store{dir: cfg.UploadDir}
}

// Save validates the extension allow-list and stores the file under a
// random name so uploads can never collide or traverse paths.
func (s *Store) Save(originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", ErrDisallowedExtension
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, uuid.NewString()+ext)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
