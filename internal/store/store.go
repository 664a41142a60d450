// Package store persists corpus documents by name in a flat namespace.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read and Delete for names that do not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the corpus storage collaborator. Names are flat (no directories)
// and List returns them in lexicographic order.
type Store interface {
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
}
