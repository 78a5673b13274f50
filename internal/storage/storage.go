// Package storage persists uploaded images and returns their public URLs.
package storage

import (
	"context"
	"io"
)

// Object describes an image to store.
type Object struct {
	// Name is a unique object name without extension.
	Name string
	// Ext is the lowercase file extension including the dot.
	Ext    string
	Folder string
	Body   io.Reader
}

// Store saves objects and returns a URL they can be fetched from.
type Store interface {
	Save(ctx context.Context, obj Object) (string, error)
}
