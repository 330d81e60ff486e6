package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// localStorage keeps objects as plain files in a single directory. All file
// access goes through an os.Root, so no key can resolve outside dir.
type localStorage struct {
	dir  string
	root *os.Root
}

// NewLocal creates dir if needed and returns a Storage rooted there.
func NewLocal(dir string) (Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open upload directory: %w", err)
	}
	return &localStorage{dir: dir, root: root}, nil
}

// Put writes to a temporary file and renames it over key, so readers see
// either the old or the new content.
func (l *localStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	if err := validateKey(key); err != nil {
		return ObjectInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}

	tmp := ".upload-" + uuid.NewString() + ".tmp"
	f, err := l.root.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { _ = l.root.Remove(tmp) }

	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		cleanup()
		return ObjectInfo{}, fmt.Errorf("write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return ObjectInfo{}, fmt.Errorf("close %s: %w", key, err)
	}
	if err := l.root.Rename(tmp, key); err != nil {
		cleanup()
		return ObjectInfo{}, fmt.Errorf("rename %s: %w", key, err)
	}

	st, err := l.root.Stat(key)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat %s: %w", key, err)
	}
	return ObjectInfo{
		Key:          key,
		Location:     filepath.Join(l.dir, key),
		Size:         n,
		ContentType:  opt.ContentType,
		LastModified: st.ModTime(),
		Metadata:     opt.Metadata,
	}, nil
}

func (l *localStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	if err := validateKey(key); err != nil {
		return nil, ObjectInfo{}, err
	}
	f, err := l.root.Open(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ObjectInfo{}, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, ObjectInfo{}, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, ObjectInfo{}, err
	}
	if !st.Mode().IsRegular() {
		_ = f.Close()
		return nil, ObjectInfo{}, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return f, ObjectInfo{
		Key:          key,
		Location:     filepath.Join(l.dir, key),
		Size:         st.Size(),
		LastModified: st.ModTime(),
	}, nil
}

// Delete is a no-op for keys that do not exist.
func (l *localStorage) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := l.root.Remove(key); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
