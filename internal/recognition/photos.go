package recognition

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kozaktomas/face-verify/internal/embedding"
)

// PhotoStore keeps enrollment photos on disk. Every save gets a fresh file
// name, so a replaced photo stays intact until the new record is committed.
type PhotoStore struct {
	dir string
	now func() time.Time
}

// NewPhotoStore creates a photo store rooted at dir. An empty dir disables storage.
func NewPhotoStore(dir string) *PhotoStore {
	return &PhotoStore{dir: dir, now: time.Now}
}

// Save writes the photo for identityKey and returns its path.
func (p *PhotoStore) Save(identityKey string, data []byte) (string, error) {
	if p.dir == "" {
		return "", nil
	}
	if err := os.MkdirAll(p.dir, 0o750); err != nil {
		return "", fmt.Errorf("creating photos directory: %w", err)
	}

	name := identityKey + "-" + strconv.FormatInt(p.now().UnixNano(), 36) + embedding.ExtensionFor(embedding.DetectMIMEType(data))
	final := filepath.Join(p.dir, name)

	tmp, err := os.CreateTemp(p.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating temp photo: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing photo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing photo: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", fmt.Errorf("storing photo: %w", err)
	}
	return final, nil
}

// Remove deletes a stored photo. Missing files and empty paths are ignored.
func (p *PhotoStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing photo: %w", err)
	}
	return nil
}
