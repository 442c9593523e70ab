// Package blob stores uploaded creative assets.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a key has no object.
var ErrNotFound = errors.New("blob not found")

// Object is an opened blob. The caller closes Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Store saves and serves binary objects.
type Store interface {
	// Put stores r under key and returns the URL clients fetch it from.
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
	Open(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
}

// Key builds a collision-free object key under folder, keeping the
// original file extension.
func Key(folder, fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, `\`, "/"))
	ext := path.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if name == "" || name == "." || name == "/" {
		name = "asset"
	}
	return path.Join(folder, fmt.Sprintf("%s_%s%s", name, uuid.NewString()[:8], ext))
}
