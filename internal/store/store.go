package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrNotFound covers every way a name can fail to resolve: absent,
// a directory, or an attempted escape from the store directory.
var ErrNotFound = errors.New("store: file not found")

var allowedExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".gif":  true,
	".tiff": true,
	".webp": true,
}

// Store manages one flat directory of image files with sequential names.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.dir, 0755)
}

func (s *Store) Dir() string {
	return s.dir
}

// SanitizeExt lowercases an extension and falls back to ".png" for anything
// outside the allowed image set. A missing leading dot is tolerated.
func SanitizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if !allowedExts[ext] {
		return ".png"
	}
	return ext
}

// Allocate returns the next free sequential name image<N> with the given
// extension. Numbering continues from the highest existing image stem,
// regardless of which extension that file carries.
func (s *Store) Allocate(ext string) (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", err
	}

	max := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		digits := strings.TrimPrefix(stem, "image")
		if digits == stem || digits == "" {
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil || n < 0 {
			continue
		}
		if n > max {
			max = n
		}
	}

	return fmt.Sprintf("image%d%s", max+1, SanitizeExt(ext)), nil
}

// Resolve maps a user-supplied name onto a path inside the store directory.
// The name is stripped to its base component first, so "../../etc/passwd"
// resolves (at most) to a file named passwd inside the store.
func (s *Store) Resolve(name string) (string, error) {
	base := filepath.Base(name)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", ErrNotFound
	}

	path := filepath.Join(s.dir, base)
	if filepath.Dir(path) != filepath.Clean(s.dir) {
		return "", ErrNotFound
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}

// List returns the stored filenames, sorted. A store whose directory does
// not exist yet lists empty rather than failing.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Remove(name string) error {
	path, err := s.Resolve(name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// SaveFrom streams r into the next allocated name and returns that name.
// A failed copy removes the partial file.
func (s *Store) SaveFrom(r io.Reader, ext string) (string, error) {
	name, err := s.Allocate(ext)
	if err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	return name, f.Close()
}
