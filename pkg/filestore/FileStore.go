// Package filestore holds the flat file stores behind uploads, thumbnails and exports.
package filestore

import (
	"fmt"
	"io"
	"time"
)

var (
	ErrFileNotFound = fmt.Errorf("file not found")
)

type FileInfo struct {
	Name         string
	Size         int64
	LastModified time.Time
}

/*
FileStore is a flat namespace of files addressed by name. Remove is
idempotent: removing a name that does not exist is not an error.
*/
type FileStore interface {
	Put(name string, r io.Reader) error
	Open(name string) (io.ReadCloser, error)
	Exists(name string) (bool, error)
	Remove(name string) error
	List() ([]FileInfo, error)
}
