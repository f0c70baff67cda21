// Package core holds the contract every blob driver implements. The snapshot
// medium keeps one object per key and overwrites it on each persist.
package core

import (
	"context"
	"errors"
	"io"
	"maps"
	"time"
)

// Driver names a blob backend.
type Driver string

// Known drivers.
const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// ErrNotExist is matched (errors.Is) by Get and Head failures for absent keys.
var ErrNotExist = errors.New("blob: not found")

// PutOptions carries the optional object attributes written with Put.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info is the metadata of a stored object.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store is a flat key/object namespace.
type Store interface {
	// Put writes r to key, replacing any previous object.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	// Delete reports whether an object was removed.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns objects under prefix ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// CloneMetadata returns a copy of in; nil stays nil.
func CloneMetadata(in map[string]string) map[string]string {
	return maps.Clone(in)
}
