package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local stores objects as files under a media root directory and serves them
// under a URL path prefix (the surrounding server mounts a file server there).
type Local struct {
	root     string
	mediaURL string
}

// NewLocal creates a local-filesystem target rooted at root. mediaURL is the
// URL path prefix returned for stored objects, ending in a slash.
func NewLocal(root, mediaURL string) *Local {
	return &Local{root: root, mediaURL: mediaURL}
}

// Root returns the media root directory, for mounting a file server.
func (l *Local) Root() string {
	return l.root
}

func (l *Local) path(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(l.root, cleaned), nil
}

// Put writes the contents of r to a file under the media root, creating
// parent directories as needed, and returns the object's URL path.
func (l *Local) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	name, err := l.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(name)
	if err != nil {
		return "", err
	}
	_, err = io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(name)
		return "", err
	}
	return l.mediaURL + key, nil
}

// Delete removes the file stored under key, returning ErrNotFound if no such
// file exists.
func (l *Local) Delete(ctx context.Context, key string) error {
	name, err := l.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(name)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
