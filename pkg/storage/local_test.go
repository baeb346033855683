package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) *Local {
	t.Helper()
	d, err := NewLocal(filepath.Join(t.TempDir(), "uploads"), "http://localhost:8080/uploads")
	require.NoError(t, err)
	return d
}

func TestLocalPutGetDelete(t *testing.T) {
	ctx := context.Background()
	d := newLocal(t)

	require.NoError(t, d.Put(ctx, "u1/p9/image_abc.jpg", []byte("jpeg")))
	assert.True(t, d.Exists(ctx, "u1/p9/image_abc.jpg"))

	rc, err := d.GetStream(ctx, "u1/p9/image_abc.jpg")
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "jpeg", string(b))
	assert.Equal(t, "http://localhost:8080/uploads/u1/p9/image_abc.jpg", d.URL("u1/p9/image_abc.jpg"))

	require.NoError(t, d.DeleteDirectory(ctx, "u1/p9"))
	assert.False(t, d.Exists(ctx, "u1/p9/image_abc.jpg"))
	assert.NoError(t, d.Delete(ctx, "u1/p9/image_abc.jpg"), "deleting a missing file is not an error")
}

func TestLocalRejectsEscapes(t *testing.T) {
	ctx := context.Background()
	d := newLocal(t)

	for _, p := range []string{"../secret", "u1/../../secret", "/etc/passwd", "a\x00b"} {
		_, err := d.Resolve(p)
		assert.ErrorIs(t, err, ErrOutsideRoot, p)
		assert.ErrorIs(t, d.Put(ctx, p, []byte("x")), ErrOutsideRoot, p)
	}
	assert.ErrorIs(t, d.DeleteDirectory(ctx, "."), ErrOutsideRoot, "root itself cannot be removed")
}

func TestLocalRejectsSymlinkOutOfRoot(t *testing.T) {
	d := newLocal(t)
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "passwd"), []byte("root:x"), 0o644))
	if err := os.Symlink(outside, filepath.Join(d.Root(), "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	_, err := d.Resolve("link/passwd")
	assert.ErrorIs(t, err, ErrOutsideRoot)
	_, err = d.Resolve("link/new/file.jpg")
	assert.ErrorIs(t, err, ErrOutsideRoot)
	assert.False(t, d.Exists(context.Background(), "link/passwd"))
}

func TestLocalResolveInsideRoot(t *testing.T) {
	d := newLocal(t)
	full, err := d.Resolve("u2/profile/image_x.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(d.Root(), "u2", "profile", "image_x.png"), full)
}
