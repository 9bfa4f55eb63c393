package store

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
)

// imageExts are the template formats the probe can decode.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".gif":  true,
}

// TemplateStore is a directory of template images addressed by file name.
type TemplateStore struct {
	dir string
}

// NewTemplateStore ensures the directory exists and returns the store.
func NewTemplateStore(dir string) (*TemplateStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create template dir: %w", err)
	}
	return &TemplateStore{dir: dir}, nil
}

// Resolve maps a template name to its file path. Names must be plain file
// names; anything that escapes the directory is rejected.
func (s *TemplateStore) Resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("template name is empty")
	}
	if filepath.Base(name) != name {
		return "", fmt.Errorf("invalid template name: %s", name)
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("template not found: %s", name)
	}
	return path, nil
}

// List returns all template file names, sorted.
func (s *TemplateStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Save stores uploaded image bytes, validating that they decode as an image.
// Name collisions get a numeric suffix; the stored name is returned.
func (s *TemplateStore) Save(name string, data []byte) (string, error) {
	if filepath.Base(name) != name {
		return "", fmt.Errorf("invalid template name: %s", name)
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !imageExts[ext] {
		return "", fmt.Errorf("unsupported image format: %s", ext)
	}
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("not a valid image: %w", err)
	}

	path := filepath.Join(s.dir, name)
	base := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = filepath.Join(s.dir, fmt.Sprintf("%s_%d%s", base, n, ext))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return filepath.Base(path), nil
}

// Delete removes a template image.
func (s *TemplateStore) Delete(name string) error {
	path, err := s.Resolve(name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}
