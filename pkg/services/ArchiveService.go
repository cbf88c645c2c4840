package services

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/adampresley/darkroom/pkg/filestore"
	"github.com/google/uuid"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
)

type ArchiveServicer interface {
	Bundle(storedNames []string, destinationName string) (BundleResult, error)
	Delete(storedName string) error
	ExportURL(name string) string
	HasThumbnail(storedName string) bool
	OpenExport(name string) (io.ReadCloser, error)
	OpenThumbnail(storedName string) (io.ReadCloser, error)
	OpenUpload(storedName string) (io.ReadCloser, error)
	PutThumbnail(storedName string, r io.Reader) error
	Store(originalName string, r io.Reader) (string, error)
	SweepExports(olderThan time.Time) (int, error)
	ThumbnailURL(storedName string) string
	UploadURL(storedName string) string
}

type ArchiveServiceConfig struct {
	BaseURL    string
	Exports    filestore.FileStore
	Thumbnails filestore.FileStore
	Uploads    filestore.FileStore
}

type ArchiveService struct {
	baseURL    string
	exports    filestore.FileStore
	thumbnails filestore.FileStore
	uploads    filestore.FileStore
}

type BundleResult struct {
	Name    string
	Entries int
	Skipped []string
}

func NewArchiveService(config ArchiveServiceConfig) ArchiveService {
	return ArchiveService{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		exports:    config.Exports,
		thumbnails: config.Thumbnails,
		uploads:    config.Uploads,
	}
}

/*
Bundle zips the named uploads into the exports store under destinationName.
Uploads missing from the store are skipped and reported. Writing the same
destination twice replaces the earlier archive.
*/
func (s ArchiveService) Bundle(storedNames []string, destinationName string) (BundleResult, error) {
	type zipOutcome struct {
		result BundleResult
		err    error
	}

	l := slog.With("bundle", destinationName)

	pr, pw := io.Pipe()
	done := make(chan zipOutcome, 1)

	addFile := func(zipWriter *zip.Writer, name string) error {
		src, err := s.uploads.Open(name)

		if err != nil {
			return err
		}

		defer src.Close()

		dest, err := zipWriter.Create(name)

		if err != nil {
			return fmt.Errorf("failed to create file '%s' in zip: %w", name, err)
		}

		if _, err = io.Copy(dest, src); err != nil {
			return fmt.Errorf("failed to copy file '%s' to zip: %w", name, err)
		}

		return nil
	}

	go func() {
		outcome := zipOutcome{
			result: BundleResult{Name: destinationName, Skipped: []string{}},
		}

		zipWriter := zip.NewWriter(pw)

		for _, name := range storedNames {
			if err := addFile(zipWriter, name); err != nil {
				if errors.Is(err, filestore.ErrFileNotFound) {
					l.Warn("selected file missing from archive, skipping", "filename", name)
					outcome.result.Skipped = append(outcome.result.Skipped, name)
					continue
				}

				outcome.err = err
				_ = pw.CloseWithError(err)
				done <- outcome
				return
			}

			outcome.result.Entries++
		}

		if err := zipWriter.Close(); err != nil {
			outcome.err = fmt.Errorf("failed to close zip writer: %w", err)
			_ = pw.CloseWithError(outcome.err)
			done <- outcome
			return
		}

		_ = pw.Close()
		done <- outcome
	}()

	putErr := s.exports.Put(destinationName, pr)

	if putErr != nil {
		_ = pr.CloseWithError(putErr)
	}

	outcome := <-done

	if outcome.err != nil {
		return outcome.result, outcome.err
	}

	if putErr != nil {
		return outcome.result, fmt.Errorf("error writing bundle '%s': %w", destinationName, putErr)
	}

	l.Info("bundle written", "entries", outcome.result.Entries, "skipped", len(outcome.result.Skipped))
	return outcome.result, nil
}

/*
Delete removes an upload and its thumbnail. Names that are already gone are
not an error.
*/
func (s ArchiveService) Delete(storedName string) error {
	if err := s.uploads.Remove(storedName); err != nil {
		return err
	}

	if err := s.thumbnails.Remove(storedName); err != nil {
		slog.Error("error removing thumbnail", "filename", storedName, "error", err)
	}

	return nil
}

func (s ArchiveService) ExportURL(name string) string {
	return s.publicURL("exports", name)
}

func (s ArchiveService) HasThumbnail(storedName string) bool {
	exists, err := s.thumbnails.Exists(storedName)

	if err != nil {
		slog.Error("error checking thumbnail", "filename", storedName, "error", err)
		return false
	}

	return exists
}

func (s ArchiveService) OpenExport(name string) (io.ReadCloser, error) {
	return s.exports.Open(name)
}

func (s ArchiveService) OpenThumbnail(storedName string) (io.ReadCloser, error) {
	return s.thumbnails.Open(storedName)
}

func (s ArchiveService) OpenUpload(storedName string) (io.ReadCloser, error) {
	return s.uploads.Open(storedName)
}

func (s ArchiveService) PutThumbnail(storedName string, r io.Reader) error {
	return s.thumbnails.Put(storedName, r)
}

/*
Store saves an upload under a name that cannot collide: a random 32 character
token, an underscore, then the sanitized original name.
*/
func (s ArchiveService) Store(originalName string, r io.Reader) (string, error) {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	storedName := token + "_" + SanitizeFilename(originalName)

	if err := s.uploads.Put(storedName, r); err != nil {
		return "", fmt.Errorf("error storing upload '%s': %w", originalName, err)
	}

	return storedName, nil
}

// SweepExports removes zip bundles last written before olderThan.
func (s ArchiveService) SweepExports(olderThan time.Time) (int, error) {
	var (
		err          error
		files        []filestore.FileInfo
		removedCount int
	)

	if files, err = s.exports.List(); err != nil {
		return 0, err
	}

	for _, file := range files {
		if !strings.HasSuffix(strings.ToLower(file.Name), ".zip") {
			continue
		}

		if file.LastModified.Before(olderThan) {
			slog.Info("removing expired bundle", "name", file.Name, "modTime", file.LastModified)

			if err = s.exports.Remove(file.Name); err != nil {
				slog.Error("failed to remove expired bundle", "name", file.Name, "error", err)
				continue
			}

			removedCount++
		}
	}

	return removedCount, nil
}

func (s ArchiveService) ThumbnailURL(storedName string) string {
	return s.publicURL("thumbnails", storedName)
}

func (s ArchiveService) UploadURL(storedName string) string {
	return s.publicURL("display", storedName)
}

func (s ArchiveService) publicURL(folder, name string) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, folder, url.PathEscape(name))
}

/*
SanitizeFilename reduces a client supplied file name to its last path
element made only of letters, digits, '_', '.' and '-'. Whitespace becomes
underscores. An empty result becomes "upload".
*/
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")

	if name == "" {
		return "upload"
	}

	return name
}
