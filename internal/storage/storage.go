// Package storage holds uploaded document files
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("object not found")
	ErrExists      = errors.New("object already exists")
	ErrInvalidPath = errors.New("invalid object path")
)

// Store is an object store keyed by slash separated paths
type Store interface {
	// Put writes a new object. It never overwrites; an existing path
	// returns ErrExists.
	Put(ctx context.Context, objectPath string, r io.Reader, contentType string) error
	Open(ctx context.Context, objectPath string) (io.ReadCloser, error)
	Delete(ctx context.Context, objectPath string) error
}

// ObjectPath builds a unique path for an upload under its case
func ObjectPath(caseID, fileName string, now time.Time) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("%s/%d-%s%s", caseID, now.UnixMilli(), uuid.New().String()[:8], ext)
}

// cleanPath rejects absolute paths and parent traversal
func cleanPath(objectPath string) (string, error) {
	if objectPath == "" || strings.HasPrefix(objectPath, "/") || strings.Contains(objectPath, "\\") {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(objectPath)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}
