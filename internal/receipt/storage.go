package receipt

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zombor/fuel-station/internal/station"
)

// Storage keeps uploaded receipt images
type Storage interface {
	// Save stores data under name and returns the name to record on the receipt
	Save(ctx context.Context, name string, data []byte) (string, error)

	// Get retrieves a stored image. Missing images wrap station.ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)

	// Delete removes a stored image. Missing images wrap station.ErrNotFound.
	Delete(ctx context.Context, name string) error
}

// LocalStorage implements Storage on the local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates the uploads directory if needed
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{basePath: basePath}, nil
}

// path resolves name inside the base directory, refusing anything that would escape it
func (l *LocalStorage) path(name string) (string, error) {
	if name == "" || !filepath.IsLocal(name) {
		return "", fmt.Errorf("invalid image name %q", name)
	}
	return filepath.Join(l.basePath, name), nil
}

// Save writes the file into the uploads directory
func (l *LocalStorage) Save(ctx context.Context, name string, data []byte) (string, error) {
	path, err := l.path(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return name, nil
}

// Get reads a file from the uploads directory
func (l *LocalStorage) Get(ctx context.Context, name string) ([]byte, error) {
	path, err := l.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("image %s: %w", name, station.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a file from the uploads directory
func (l *LocalStorage) Delete(ctx context.Context, name string) error {
	path, err := l.path(name)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("image %s: %w", name, station.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
