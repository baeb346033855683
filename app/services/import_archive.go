package services

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ScratchPattern names the temporary extraction directories.
const ScratchPattern = "wellness-import-*"

var errZipSlip = errors.New("archive entry escapes extraction directory")

// extractZip unpacks z into dir. Entries that would land outside dir,
// symlinks and macOS resource forks are refused or skipped; the total
// uncompressed size is capped at limit bytes.
func extractZip(z *zip.Reader, dir string, limit int64) error {
	var written int64
	for _, f := range z.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if name == "" || strings.HasPrefix(name, "__MACOSX/") || strings.HasPrefix(path.Base(name), "._") {
			continue
		}
		if path.IsAbs(name) || strings.Contains(name, "\x00") {
			return fmt.Errorf("%w: %s", errZipSlip, f.Name)
		}
		target := filepath.Join(dir, filepath.FromSlash(name))
		if !inside(dir, target) {
			return fmt.Errorf("%w: %s", errZipSlip, f.Name)
		}
		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		case mode&fs.ModeSymlink != 0, !mode.IsRegular():
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		n, err := extractFile(f, target, limit-written)
		if err != nil {
			return err
		}
		written += n
	}
	return nil
}

func extractFile(f *zip.File, target string, budget int64) (int64, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, io.LimitReader(rc, budget+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("extract %s: %w", f.Name, err)
	}
	if n > budget {
		return n, errors.New("archive is too large once extracted")
	}
	return n, nil
}

func inside(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// imageIndex resolves image references from the sheet against the
// extracted archive.
type imageIndex struct {
	root  string
	files []string
}

func newImageIndex(root string) (*imageIndex, error) {
	ix := &imageIndex{root: root}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && IsImageName(d.Name()) && !strings.HasPrefix(d.Name(), "._") {
			ix.files = append(ix.files, p)
		}
		return nil
	})
	sort.Strings(ix.files)
	return ix, err
}

// resolve tries, in order: the path relative to the sheet's folder, the
// path relative to the archive root, a case-insensitive basename match
// anywhere, and finally a case-insensitive name-stem substring match.
func (ix *imageIndex) resolve(sheetDir, ref string) (string, bool) {
	ref = strings.TrimSpace(strings.ReplaceAll(ref, "\\", "/"))
	if ref == "" {
		return "", false
	}
	for _, base := range []string{sheetDir, ix.root} {
		if p, ok := ix.exact(base, ref); ok {
			return p, true
		}
	}

	want := strings.ToLower(path.Base(ref))
	for _, p := range ix.files {
		if strings.ToLower(filepath.Base(p)) == want {
			return p, true
		}
	}

	stem := strings.TrimSuffix(want, path.Ext(want))
	if stem == "" {
		return "", false
	}
	for _, p := range ix.files {
		name := strings.ToLower(filepath.Base(p))
		if strings.Contains(strings.TrimSuffix(name, filepath.Ext(name)), stem) {
			return p, true
		}
	}
	return "", false
}

func (ix *imageIndex) exact(base, ref string) (string, bool) {
	p := filepath.Join(base, filepath.FromSlash(ref))
	if !inside(ix.root, p) || !IsImageName(p) {
		return "", false
	}
	info, err := os.Lstat(p)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return p, true
}
