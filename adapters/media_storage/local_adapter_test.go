package media_storage

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/pkg/logger"
)

func newLocal(t *testing.T) (*localAdapter, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "uploads")
	a := NewLocalAdapter(root, "/uploads", logger.NewNop()).(*localAdapter)
	a.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return a, root
}

func TestLocalAdapter_SaveCreatesRootAndNamesAsset(t *testing.T) {
	a, root := newLocal(t)
	ctx := context.Background()

	ref, err := a.Save(ctx, service.Asset{Category: service.AssetCV, Filename: "resume.PDF", Body: strings.NewReader("%PDF")})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^/uploads/cv-1700000000000-[0-9a-f]{8}\.pdf$`), ref)

	b, err := os.ReadFile(filepath.Join(root, strings.TrimPrefix(ref, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(b))

	ref, err = a.Save(ctx, service.Asset{Category: service.AssetProjectImage, Filename: "shot.PNG", Index: 2, Body: strings.NewReader("img")})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^/uploads/project-1700000000000-2-[0-9a-f]{8}\.png$`), ref)

	ref, err = a.Save(ctx, service.Asset{Category: service.AssetProjectImage, Filename: "noext", Body: strings.NewReader("img")})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".jpg"))
}

func TestLocalAdapter_SameMillisecondNamesDiffer(t *testing.T) {
	a, _ := newLocal(t)
	ctx := context.Background()

	first, err := a.Save(ctx, service.Asset{Category: service.AssetCV, Body: strings.NewReader("a")})
	require.NoError(t, err)
	second, err := a.Save(ctx, service.Asset{Category: service.AssetCV, Body: strings.NewReader("b")})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestLocalAdapter_ExistsDeleteOwns(t *testing.T) {
	a, _ := newLocal(t)
	ctx := context.Background()

	ref, err := a.Save(ctx, service.Asset{Category: service.AssetCV, Body: strings.NewReader("a")})
	require.NoError(t, err)

	assert.True(t, a.Owns(ref))
	ok, err := a.Exists(ctx, ref)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, a.Delete(ctx, ref))
	ok, err = a.Exists(ctx, ref)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, a.Delete(ctx, ref), "deleting twice is not an error")
}

func TestLocalAdapter_ForeignRefs(t *testing.T) {
	a, _ := newLocal(t)

	for _, ref := range []string{
		"https://cdn.example.com/x.jpg",
		"/uploads/../data.json",
		"/uploads/",
		"/uploads/a/b.jpg",
		"/other/x.jpg",
	} {
		assert.False(t, a.Owns(ref), ref)
		ok, err := a.Exists(context.Background(), ref)
		assert.NoError(t, err)
		assert.False(t, ok, ref)
	}
	assert.Error(t, a.Delete(context.Background(), "/uploads/../data.json"))
}

func TestLocalAdapter_WriteErrorLeavesNoFile(t *testing.T) {
	a, root := newLocal(t)

	_, err := a.Save(context.Background(), service.Asset{Category: service.AssetCV, Body: failingReader{}})
	require.Error(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, os.ErrClosed }
