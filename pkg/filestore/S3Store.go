package filestore

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"

	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/adamgokit/s3/createbucketoptions"
	"github.com/adampresley/adamgokit/s3/listoptions"
	"github.com/adampresley/adamgokit/s3/putoptions"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3StoreConfig struct {
	Bucket   string
	Prefix   string
	S3Client s3.S3Client
}

/*
S3Store keeps files under a key prefix in a bucket. Names map to
"<prefix>/<name>".
*/
type S3Store struct {
	bucket   string
	prefix   string
	s3Client s3.S3Client
}

func NewS3Store(config S3StoreConfig) S3Store {
	return S3Store{
		bucket:   config.Bucket,
		prefix:   strings.Trim(config.Prefix, "/"),
		s3Client: config.S3Client,
	}
}

// EnsureBucket creates the store's bucket when it does not exist yet.
func (s S3Store) EnsureBucket(region string) error {
	var (
		err    error
		exists bool
	)

	if exists, err = s.s3Client.BucketExists(s.bucket); err != nil {
		return fmt.Errorf("error ensuring bucket '%s' exists: %w", s.bucket, err)
	}

	if exists {
		return nil
	}

	slog.Info("creating bucket", "bucketName", s.bucket)

	if err = s.s3Client.CreateBucket(s.bucket, createbucketoptions.WithRegion(region)); err != nil {
		return fmt.Errorf("error creating bucket '%s': %w", s.bucket, err)
	}

	return nil
}

/*
Put streams r into the bucket through a multipart upload, so readers of
unknown length (zip bundles written through a pipe, large photos) have no
deadline. A failed read removes the partial object.
*/
func (s S3Store) Put(name string, r io.Reader) error {
	key := s.key(name)

	stream, err := s.s3Client.PutStream(s.bucket, key, putoptions.WithContentType(contentType(name)))

	if err != nil {
		return fmt.Errorf("error setting up S3 stream for '%s': %w", name, err)
	}

	copyErr := copyAndClose(stream.Writer, r)
	_, waitErr := stream.Wait()

	if copyErr != nil {
		if rmErr := s.Remove(name); rmErr != nil {
			slog.Error("error removing partial upload", "key", key, "error", rmErr)
		}

		return fmt.Errorf("error uploading '%s' to S3: %w", name, copyErr)
	}

	if waitErr != nil {
		return fmt.Errorf("error finishing upload of '%s' to S3: %w", name, waitErr)
	}

	return nil
}

func (s S3Store) Open(name string) (io.ReadCloser, error) {
	var (
		err    error
		exists bool
		object s3.GetObjectResponse
	)

	if exists, err = s.Exists(name); err != nil {
		return nil, err
	}

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}

	if object, err = s.s3Client.Get(s.bucket, s.key(name)); err != nil {
		return nil, fmt.Errorf("error getting '%s' from S3: %w", name, err)
	}

	return object.Body, nil
}

func (s S3Store) Exists(name string) (bool, error) {
	var (
		err  error
		stat *s3.ObjectMetadata
	)

	if stat, err = s.s3Client.StatObject(s.bucket, s.key(name)); err != nil {
		return false, fmt.Errorf("error retrieving metadata for '%s': %w", name, err)
	}

	return stat != nil, nil
}

func (s S3Store) Remove(name string) error {
	if _, err := s.s3Client.Delete(s.bucket, []string{s.key(name)}); err != nil {
		return fmt.Errorf("error removing '%s' from S3: %w", name, err)
	}

	return nil
}

func (s S3Store) List() ([]FileInfo, error) {
	var (
		err      error
		response s3.ListResponse
	)

	result := []FileInfo{}
	prefix := s.prefix + "/"

	response, err = s.s3Client.List(
		s.bucket,
		prefix,
		listoptions.WithGetAll(),
		listoptions.WithFilter(func(obj types.Object) bool {
			// Only direct children; the store is flat.
			rest := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			return rest != "" && !strings.Contains(rest, "/")
		}),
	)

	if err != nil {
		return result, fmt.Errorf("error listing '%s': %w", prefix, err)
	}

	for _, obj := range response.Objects {
		result = append(result, FileInfo{
			Name:         path.Base(obj.Key),
			LastModified: obj.LastModified,
		})
	}

	return result, nil
}

// copyAndClose always closes w so the uploader on the other end finishes.
func copyAndClose(w io.WriteCloser, r io.Reader) error {
	_, copyErr := io.Copy(w, r)
	closeErr := w.Close()

	if copyErr != nil {
		return copyErr
	}

	return closeErr
}

func contentType(name string) string {
	ext := strings.ToLower(path.Ext(name))

	if ext == ".zip" {
		return "application/zip"
	}

	if result := mime.TypeByExtension(ext); result != "" {
		return result
	}

	return "application/octet-stream"
}

func (s S3Store) key(name string) string {
	return path.Join(s.prefix, path.Base(name))
}
