package filestore

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	bytes.Buffer
	closed bool
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("disk went away")
}

func TestCopyAndCloseDrainsSlowPipe(t *testing.T) {
	pr, pw := io.Pipe()

	go func() {
		for i := 0; i < 5; i++ {
			time.Sleep(20 * time.Millisecond)
			_, _ = pw.Write([]byte("chunk;"))
		}

		_ = pw.Close()
	}()

	w := &recordingWriter{}

	require.NoError(t, copyAndClose(w, pr))
	assert.Equal(t, strings.Repeat("chunk;", 5), w.String())
	assert.True(t, w.closed)
}

func TestCopyAndCloseClosesOnReadError(t *testing.T) {
	w := &recordingWriter{}

	err := copyAndClose(w, failingReader{})
	assert.EqualError(t, err, "disk went away")
	assert.True(t, w.closed, "the uploader must always be released")
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/zip", contentType("Selections_Jane_abc.zip"))
	assert.Equal(t, "image/jpeg", contentType("abc_photo.jpg"))
	assert.Equal(t, "application/octet-stream", contentType("abc_notes.darkroomtmp"))
}
