package filestore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

type DiskStore struct {
	root string
}

func NewDiskStore(root string) (DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return DiskStore{}, fmt.Errorf("error creating directory '%s': %w", root, err)
	}

	return DiskStore{
		root: root,
	}, nil
}

func (s DiskStore) Root() string {
	return s.root
}

/*
Put writes to a temporary file in the same directory and renames it over the
destination, so an existing file with the same name is replaced whole.
*/
func (s DiskStore) Put(name string, r io.Reader) error {
	var (
		err  error
		tmp  *os.File
		dest string
	)

	if dest, err = s.path(name); err != nil {
		return err
	}

	if tmp, err = os.CreateTemp(s.root, ".tmp-*"); err != nil {
		return fmt.Errorf("error creating temp file for '%s': %w", name, err)
	}

	if _, err = io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("error writing '%s': %w", name, err)
	}

	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("error closing '%s': %w", name, err)
	}

	if err = os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("error moving '%s' into place: %w", name, err)
	}

	return nil
}

func (s DiskStore) Open(name string) (io.ReadCloser, error) {
	var (
		err  error
		f    *os.File
		path string
	)

	if path, err = s.path(name); err != nil {
		return nil, err
	}

	if f, err = os.Open(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}

		return nil, fmt.Errorf("error opening '%s': %w", name, err)
	}

	return f, nil
}

func (s DiskStore) Exists(name string) (bool, error) {
	var (
		err  error
		path string
		info os.FileInfo
	)

	if path, err = s.path(name); err != nil {
		return false, err
	}

	if info, err = os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("error checking '%s': %w", name, err)
	}

	return !info.IsDir(), nil
}

func (s DiskStore) Remove(name string) error {
	var (
		err  error
		path string
	)

	if path, err = s.path(name); err != nil {
		return err
	}

	if err = os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error removing '%s': %w", name, err)
	}

	return nil
}

func (s DiskStore) List() ([]FileInfo, error) {
	var (
		err     error
		entries []os.DirEntry
		info    os.FileInfo
	)

	result := []FileInfo{}

	if entries, err = os.ReadDir(s.root); err != nil {
		return result, fmt.Errorf("error listing '%s': %w", s.root, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}

		if info, err = entry.Info(); err != nil {
			continue
		}

		result = append(result, FileInfo{
			Name:         entry.Name(),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
	}

	return result, nil
}

// path keeps every name inside the root; the store is flat.
func (s DiskStore) path(name string) (string, error) {
	base := filepath.Base(name)

	if base != name || base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid file name '%s'", name)
	}

	return filepath.Join(s.root, base), nil
}
