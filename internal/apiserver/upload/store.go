package upload

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrInvalidPath is returned for folder or file names that could escape the base dir
var ErrInvalidPath = errors.New("invalid path segment")

// Store keeps uploaded audio on local disk under <dir>/songs
type Store struct {
	logger  *zap.Logger
	baseDir string
}

// NewStore creates the songs directory when missing
func NewStore(logger *zap.Logger, dir string) (*Store, error) {
	baseDir := filepath.Join(dir, "songs")
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &Store{
		logger:  logger,
		baseDir: baseDir,
	}, nil
}

// BaseDir is the directory folders are created in
func (s *Store) BaseDir() string {
	return s.baseDir
}

func validSegment(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}

// Path joins a folder and an optional file name below the base dir
func (s *Store) Path(folder string, name ...string) (string, error) {
	parts := append([]string{folder}, name...)
	for _, p := range parts {
		if !validSegment(p) {
			return "", ErrInvalidPath
		}
	}
	return filepath.Join(append([]string{s.baseDir}, parts...)...), nil
}

// CreateFolder creates a new folder and fails with os.ErrExist when it is taken
func (s *Store) CreateFolder(ctx context.Context, folder string) error {
	dir, err := s.Path(folder)
	if err != nil {
		return err
	}
	return os.Mkdir(dir, 0755)
}

// Save writes content to folder/name and returns the bytes written
func (s *Store) Save(ctx context.Context, folder, name string, content io.Reader) (int64, error) {
	filePath, err := s.Path(folder, name)
	if err != nil {
		return 0, err
	}
	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(file, content)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(filePath)
		return 0, err
	}
	return n, nil
}

// Move renames a stored file, possibly into another folder. It refuses to overwrite.
func (s *Store) Move(ctx context.Context, fromFolder, fromName, toFolder, toName string) error {
	from, err := s.Path(fromFolder, fromName)
	if err != nil {
		return err
	}
	to, err := s.Path(toFolder, toName)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	if _, err := os.Stat(to); err == nil {
		return os.ErrExist
	}
	return os.Rename(from, to)
}

// Open opens a stored file for reading
func (s *Store) Open(ctx context.Context, folder, name string) (*os.File, os.FileInfo, error) {
	filePath, err := s.Path(folder, name)
	if err != nil {
		return nil, nil, err
	}
	file, err := os.Open(filePath)
	if err != nil {
		return nil, nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, nil, os.ErrNotExist
	}
	return file, info, nil
}

// RemoveFile deletes one stored file. A missing file is not an error.
func (s *Store) RemoveFile(ctx context.Context, folder, name string) error {
	filePath, err := s.Path(folder, name)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveFolder deletes a folder and everything in it
func (s *Store) RemoveFolder(ctx context.Context, folder string) error {
	dir, err := s.Path(folder)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

// RemoveIfEmpty deletes a folder only when nothing is left in it
func (s *Store) RemoveIfEmpty(ctx context.Context, folder string) bool {
	dir, err := s.Path(folder)
	if err != nil {
		return false
	}
	return os.Remove(dir) == nil
}

// ModTime is the last modification time of a folder
func (s *Store) ModTime(ctx context.Context, folder string) (time.Time, error) {
	dir, err := s.Path(folder)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// ListFolders lists the song folders, sorted by name
func (s *Store) ListFolders(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
