package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local is the local-filesystem driver. Paths are relative to Root and
// may not leave it, through ".." or through symlinks.
type Local struct {
	root    string
	baseURL string
}

// NewLocal creates root if needed and resolves it to an absolute,
// symlink-free path.
func NewLocal(root, baseURL string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage/local: abs %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage/local: mkdir root: %w", err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("storage/local: resolve root: %w", err)
	}
	return &Local{root: real, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (d *Local) Name() string { return "local" }

// Root is the resolved root directory.
func (d *Local) Root() string { return d.root }

// Resolve maps a disk-relative path to an absolute file path, rejecting
// anything that would end up outside the root once symlinks on the
// deepest existing ancestor are followed.
func (d *Local) Resolve(path string) (string, error) {
	if strings.Contains(path, "\x00") || filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return "", ErrOutsideRoot
	}
	full := filepath.Join(d.root, filepath.FromSlash(path))
	if !within(d.root, full) {
		return "", ErrOutsideRoot
	}

	existing, rest := full, ""
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return "", ErrOutsideRoot
		}
		rest = filepath.Join(filepath.Base(existing), rest)
		existing = parent
	}
	real, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return "", fmt.Errorf("storage/local: resolve %s: %w", path, err)
	}
	resolved := filepath.Join(real, rest)
	if !within(d.root, resolved) {
		return "", ErrOutsideRoot
	}
	return resolved, nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func (d *Local) Put(ctx context.Context, path string, content []byte) error {
	return d.PutStream(ctx, path, bytes.NewReader(content))
}

func (d *Local) PutStream(_ context.Context, path string, r io.Reader) error {
	full, err := d.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("storage/local: mkdir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("storage/local: create %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("storage/local: write %s: %w", path, err)
	}
	return f.Close()
}

func (d *Local) GetStream(_ context.Context, path string) (io.ReadCloser, error) {
	full, err := d.Resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("storage/local: open %s: %w", path, err)
	}
	return f, nil
}

func (d *Local) Exists(_ context.Context, path string) bool {
	full, err := d.Resolve(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && !info.IsDir()
}

func (d *Local) URL(path string) string {
	return d.baseURL + "/" + strings.TrimLeft(filepath.ToSlash(path), "/")
}

func (d *Local) Delete(_ context.Context, path string) error {
	full, err := d.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage/local: delete %s: %w", path, err)
	}
	return nil
}

func (d *Local) DeleteDirectory(_ context.Context, path string) error {
	full, err := d.Resolve(path)
	if err != nil {
		return err
	}
	if full == d.root {
		return ErrOutsideRoot
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("storage/local: rmdir %s: %w", path, err)
	}
	return nil
}
