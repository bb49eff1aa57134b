// Package store persists resolution records across runs so repeated channel
// builds can skip packages whose metadata is already known. Two backends are
// provided: a single-file JSON store for local use and a MongoDB store for
// shared build infrastructure.
package store

import (
	"context"
	"strings"
	"time"
)

// Record is one persisted resolution outcome, keyed by wheel URL.
type Record struct {
	URL        string    `json:"url" bson:"url"`
	Name       string    `json:"name" bson:"name"`
	Version    string    `json:"version" bson:"version"`
	Depends    []string  `json:"depends" bson:"depends"`
	ResolvedAt time.Time `json:"resolved_at" bson:"resolved_at"`
}

// Store is the persistence contract. Put overwrites any record with the same
// URL; Get reports found=false for unknown URLs without error.
type Store interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, url string) (Record, bool, error)
	List(ctx context.Context) ([]Record, error)
	Close(ctx context.Context) error
}

// Open dispatches on the DSN: mongodb:// and mongodb+srv:// select the
// MongoDB backend, anything else is treated as a file path.
func Open(ctx context.Context, dsn string) (Store, error) {
	if strings.HasPrefix(dsn, "mongodb://") || strings.HasPrefix(dsn, "mongodb+srv://") {
		return NewMongoStore(ctx, dsn)
	}
	return NewFileStore(dsn)
}
