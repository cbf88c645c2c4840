package services

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipEntries(t *testing.T, path string) []string {
	t.Helper()

	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	result := []string{}

	for _, f := range r.File {
		result = append(result, f.Name)
	}

	sort.Strings(result)
	return result
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "photo.jpg", want: "photo.jpg"},
		{input: "My Wedding Photo.JPG", want: "My_Wedding_Photo.JPG"},
		{input: "../../etc/passwd", want: "passwd"},
		{input: `C:\Users\kim\shot 1.png`, want: "shot_1.png"},
		{input: "héllo wörld?.jpg", want: "hllo_wrld.jpg"},
		{input: "..", want: "upload"},
		{input: "", want: "upload"},
		{input: ".hidden", want: "hidden"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.input))
		})
	}
}

func TestArchiveStoreGeneratesUniqueNames(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.archiveService.Store("photo.jpg", strings.NewReader("one"))
	require.NoError(t, err)
	second, err := env.archiveService.Store("photo.jpg", strings.NewReader("two"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, strings.SplitN(first, "_", 2)[0], 32)

	b, err := os.ReadFile(filepath.Join(env.uploadsDir, first))
	require.NoError(t, err)
	assert.Equal(t, "one", string(b))
}

func TestArchiveDeleteIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	name, err := env.archiveService.Store("photo.jpg", strings.NewReader("one"))
	require.NoError(t, err)

	require.NoError(t, env.archiveService.Delete(name))
	require.NoError(t, env.archiveService.Delete(name))
	assert.NoFileExists(t, filepath.Join(env.uploadsDir, name))
}

func TestArchiveBundleSkipsMissingFiles(t *testing.T) {
	env := newTestEnv(t)

	a, err := env.archiveService.Store("a.jpg", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := env.archiveService.Store("b.jpg", strings.NewReader("b"))
	require.NoError(t, err)

	result, err := env.archiveService.Bundle([]string{a, "ghost.jpg", b}, "bundle.zip")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Entries)
	assert.Equal(t, []string{"ghost.jpg"}, result.Skipped)

	want := []string{a, b}
	sort.Strings(want)
	assert.Equal(t, want, zipEntries(t, filepath.Join(env.exportsDir, "bundle.zip")))
}

func TestArchiveBundleOverwrites(t *testing.T) {
	env := newTestEnv(t)

	a, err := env.archiveService.Store("a.jpg", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := env.archiveService.Store("b.jpg", strings.NewReader("b"))
	require.NoError(t, err)

	_, err = env.archiveService.Bundle([]string{a, b}, "bundle.zip")
	require.NoError(t, err)
	_, err = env.archiveService.Bundle([]string{a}, "bundle.zip")
	require.NoError(t, err)

	assert.Equal(t, []string{a}, zipEntries(t, filepath.Join(env.exportsDir, "bundle.zip")))

	entries, err := os.ReadDir(env.exportsDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestArchiveBundleRejectsBadDestination(t *testing.T) {
	env := newTestEnv(t)

	a, err := env.archiveService.Store("a.jpg", strings.NewReader("a"))
	require.NoError(t, err)

	_, err = env.archiveService.Bundle([]string{a}, "../escape.zip")
	assert.Error(t, err)
}

func TestArchiveSweepExports(t *testing.T) {
	env := newTestEnv(t)

	a, err := env.archiveService.Store("a.jpg", strings.NewReader("a"))
	require.NoError(t, err)

	_, err = env.archiveService.Bundle([]string{a}, "old.zip")
	require.NoError(t, err)
	_, err = env.archiveService.Bundle([]string{a}, "new.zip")
	require.NoError(t, err)

	old := time.Now().AddDate(0, 0, -40)
	require.NoError(t, os.Chtimes(filepath.Join(env.exportsDir, "old.zip"), old, old))

	removed, err := env.archiveService.SweepExports(time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.NoFileExists(t, filepath.Join(env.exportsDir, "old.zip"))
	assert.FileExists(t, filepath.Join(env.exportsDir, "new.zip"))
}

func TestArchiveURLs(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, "http://studio.test/exports/Selections_Jane_Doe_abc.zip", env.archiveService.ExportURL("Selections_Jane_Doe_abc.zip"))
	assert.Equal(t, "http://studio.test/display/a%20b.jpg", env.archiveService.UploadURL("a b.jpg"))
	assert.Equal(t, "http://studio.test/thumbnails/x.jpg", env.archiveService.ThumbnailURL("x.jpg"))
}
