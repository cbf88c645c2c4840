package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/adampresley/adamgokit/slices"
	"github.com/alitto/pond/v2"
	"github.com/nfnt/resize"
)

var (
	thumbnailExtensions = []string{".jpg", ".jpeg", ".png"}
)

type ThumbnailServicer interface {
	CanThumbnail(storedName string) bool
	CreateThumbnail(storedName string) error
	CreateThumbnails(storedNames []string)
}

type ThumbnailServiceConfig struct {
	ArchiveService ArchiveServicer
	MaxSize        uint
	MaxWorkers     int
	ShutdownCtx    context.Context
}

type ThumbnailService struct {
	archiveService ArchiveServicer
	maxSize        uint
	maxWorkers     int
	shutdownCtx    context.Context
}

func NewThumbnailService(config ThumbnailServiceConfig) ThumbnailService {
	if config.MaxSize == 0 {
		config.MaxSize = 400
	}

	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 4
	}

	if config.ShutdownCtx == nil {
		config.ShutdownCtx = context.Background()
	}

	return ThumbnailService{
		archiveService: config.ArchiveService,
		maxSize:        config.MaxSize,
		maxWorkers:     config.MaxWorkers,
		shutdownCtx:    config.ShutdownCtx,
	}
}

func (s ThumbnailService) CanThumbnail(storedName string) bool {
	ext := strings.ToLower(filepath.Ext(storedName))
	return slices.IsInSlice(ext, thumbnailExtensions)
}

func (s ThumbnailService) CreateThumbnail(storedName string) error {
	var (
		err      error
		img      image.Image
		original io.ReadCloser
		buf      bytes.Buffer
	)

	if !s.CanThumbnail(storedName) {
		return nil
	}

	if original, err = s.archiveService.OpenUpload(storedName); err != nil {
		return fmt.Errorf("error opening original image %s: %w", storedName, err)
	}

	defer original.Close()

	if img, err = s.resizeReader(original, s.maxSize); err != nil {
		return fmt.Errorf("error resizing image %s: %w", storedName, err)
	}

	if err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("error encoding image for thumbnail: %w", err)
	}

	if err = s.archiveService.PutThumbnail(storedName, &buf); err != nil {
		return fmt.Errorf("error saving thumbnail %s: %w", storedName, err)
	}

	return nil
}

/*
CreateThumbnails resizes a batch on a bounded worker pool and waits for it.
Failures are logged; the original stays usable without a thumbnail.
*/
func (s ThumbnailService) CreateThumbnails(storedNames []string) {
	pool := pond.NewPool(s.maxWorkers, pond.WithContext(s.shutdownCtx))

	for _, name := range storedNames {
		if !s.CanThumbnail(name) {
			continue
		}

		pool.Submit(func() {
			if err := s.CreateThumbnail(name); err != nil {
				slog.Error("error creating thumbnail", "filename", name, "error", err)
			}
		})
	}

	_ = pool.Stop().Wait()
}

func (s ThumbnailService) resizeReader(r io.Reader, maxSize uint) (image.Image, error) {
	var (
		err error
		img image.Image
	)

	if img, _, err = image.Decode(r); err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}

	return s.resize(img, maxSize), nil
}

func (s ThumbnailService) resize(img image.Image, maxSize uint) image.Image {
	bounds := img.Bounds()
	width := uint(bounds.Dx())
	height := uint(bounds.Dy())

	if width <= maxSize && height <= maxSize {
		return img
	}

	/*
	 * Scale on the longest edge
	 */
	var newWidth, newHeight uint
	if width > height {
		newWidth = maxSize
		newHeight = uint(float64(height) * (float64(maxSize) / float64(width)))
	} else {
		newHeight = maxSize
		newWidth = uint(float64(width) * (float64(maxSize) / float64(height)))
	}

	return resize.Resize(newWidth, newHeight, img, resize.Lanczos3)
}
