// Package reportstore keeps coverage reports on the local filesystem.
package reportstore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/felixgeelhaar/covermon/internal/application"
	"github.com/felixgeelhaar/covermon/internal/pathutil"
)

// FileStore reads and writes reports by path. Keys are file paths, relative
// ones resolved against Root when it is set.
type FileStore struct {
	Root string
}

// Note: fileLock and lockPath are defined in platform-specific files:
// - lock_unix.go for Unix systems (Linux, macOS, BSD)
// - lock_windows.go for Windows

func (s *FileStore) resolve(key string) (string, error) {
	p := key
	if s.Root != "" && !filepath.IsAbs(key) {
		p = filepath.Join(s.Root, key)
	}
	return pathutil.ValidatePath(p)
}

// Load returns the report at key, or application.ErrReportNotFound.
func (s *FileStore) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.resolve(key)
	if err != nil {
		return nil, errors.Wrapf(err, "report path %q", key)
	}
	data, err := os.ReadFile(p) // #nosec G304 - path is validated above
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(application.ErrReportNotFound, "%s", p)
		}
		return nil, errors.Wrapf(err, "read %s", p)
	}
	return data, nil
}

// Save replaces the report at key. Concurrent writers are serialised with an
// exclusive lock next to the target and the file is swapped in by rename.
func (s *FileStore) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.resolve(key)
	if err != nil {
		return errors.Wrapf(err, "report path %q", key)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return errors.Wrapf(err, "create directory for %s", p)
	}

	lock, err := acquireLock(p)
	if err != nil {
		return errors.Wrapf(err, "lock %s", p)
	}
	defer func() { _ = lock.release() }()

	tmp, err := os.CreateTemp(filepath.Dir(p), filepath.Base(p)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "write %s", p)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "write %s", p)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "write %s", p)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return errors.Wrapf(err, "replace %s", p)
	}
	return nil
}

// Location returns the resolved path for key.
func (s *FileStore) Location(key string) string {
	if s.Root != "" && !filepath.IsAbs(key) {
		return filepath.Join(s.Root, key)
	}
	return key
}
