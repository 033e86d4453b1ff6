// Package assets locates prize images. Every prize has a visible image and,
// once stocked, an obscured teaser with the same file name in a second
// directory.
package assets

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

var (
	// ErrInvalidRef is returned for refs that are not a plain file name
	ErrInvalidRef = errors.New("assets: invalid image reference")
	// ErrMissing is returned when neither variant of a ref exists
	ErrMissing = errors.New("assets: image not found")
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// Store resolves image refs against the visible and obscured directories
type Store struct {
	fs       afero.Fs
	visible  string
	obscured string
}

// NewStore creates a Store rooted on fs
func NewStore(fs afero.Fs, visibleDir, obscuredDir string) *Store {
	return &Store{fs: fs, visible: visibleDir, obscured: obscuredDir}
}

// Fs returns the backing filesystem
func (s *Store) Fs() afero.Fs { return s.fs }

// VisiblePath returns the path of the visible variant of ref
func (s *Store) VisiblePath(ref string) (string, error) {
	if err := checkRef(ref); err != nil {
		return "", err
	}
	return filepath.Join(s.visible, ref), nil
}

// ObscuredPath returns the path of the teaser variant of ref
func (s *Store) ObscuredPath(ref string) (string, error) {
	if err := checkRef(ref); err != nil {
		return "", err
	}
	return filepath.Join(s.obscured, ref), nil
}

// Resolve returns the visible path of ref if it exists, else the obscured one
func (s *Store) Resolve(ref string) (string, error) {
	return s.first(ref, s.VisiblePath, s.ObscuredPath)
}

// ResolveTeaser prefers the obscured variant, for images shown before a claim
func (s *Store) ResolveTeaser(ref string) (string, error) {
	return s.first(ref, s.ObscuredPath, s.VisiblePath)
}

// Candidates lists the files that exist for ref, visible variant first
func (s *Store) Candidates(ref string) ([]string, error) {
	return s.existing(ref, s.VisiblePath, s.ObscuredPath)
}

func (s *Store) first(ref string, candidates ...func(string) (string, error)) (string, error) {
	paths, err := s.existing(ref, candidates...)
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

func (s *Store) existing(ref string, candidates ...func(string) (string, error)) ([]string, error) {
	var paths []string
	for _, candidate := range candidates {
		p, err := candidate(ref)
		if err != nil {
			return nil, err
		}
		ok, err := afero.Exists(s.fs, p)
		if err != nil {
			return nil, err
		}
		if ok {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissing, ref)
	}
	return paths, nil
}

// ListVisible returns the image file names of the visible directory, sorted
func (s *Store) ListVisible() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.visible)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// WriteObscured creates the teaser file for ref and hands it to write
func (s *Store) WriteObscured(ref string, write func(io.Writer) error) error {
	p, err := s.ObscuredPath(ref)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.obscured, 0o755); err != nil {
		return err
	}
	f, err := s.fs.Create(p)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write teaser %s: %w", ref, err)
	}
	return f.Close()
}

func checkRef(ref string) error {
	if ref == "" || ref == "." || ref == ".." || strings.ContainsAny(ref, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return nil
}
