// Package gcs provides a Google Cloud Storage implementation of the snapshot store.
package gcs

import (
	"context"
	"io"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/tigerroll/mooring/pkg/conn/snapshot"
	"github.com/tigerroll/mooring/pkg/support/util/exception"
	"github.com/tigerroll/mooring/pkg/support/util/logger"
)

const (
	// StoreType defines the type identifier for this store.
	StoreType = "gcs"

	moduleName = "snapshot"

	stateObjectExt = ".state"
)

// Store persists state captures as objects in a GCS bucket.
type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewStore creates a Store writing into the given bucket. The client is owned
// by the store and closed by Close.
func NewStore(ctx context.Context, bucket, prefix string) (*Store, error) {
	if bucket == "" {
		return nil, exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "bucket must be specified for the GCS snapshot store")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "failed to create GCS client", err)
	}
	return &Store{client: client, bucket: bucket, prefix: prefix}, nil
}

// objectName maps a capture name to its object name.
func (s *Store) objectName(name string) string {
	return s.prefix + name + stateObjectExt
}

// Save persists state under name, replacing any previous capture.
func (s *Store) Save(ctx context.Context, name string, state []byte) error {
	w := s.client.Bucket(s.bucket).Object(s.objectName(name)).NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if _, err := w.Write(state); err != nil {
		_ = w.Close()
		return exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "failed to write snapshot '%s'", name, err)
	}
	if err := w.Close(); err != nil {
		return exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "failed to finalize snapshot '%s'", name, err)
	}
	logger.Debugf("Wrote snapshot '%s' (%d bytes) to gs://%s/%s.", name, len(state), s.bucket, s.objectName(name))
	return nil
}

// Load retrieves the capture persisted under name.
func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(s.objectName(name)).NewReader(ctx)
	if err != nil {
		return nil, exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "failed to read snapshot '%s'", name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "failed to read snapshot '%s'", name, err)
	}
	return data, nil
}

// Delete removes the capture persisted under name, if present.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.Bucket(s.bucket).Object(s.objectName(name)).Delete(ctx)
	if err != nil && err != storage.ErrObjectNotExist {
		return exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "failed to delete snapshot '%s'", name, err)
	}
	return nil
}

// List returns the names of all persisted captures in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: s.prefix})
	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "failed to list snapshots", err)
		}
		objectName := attrs.Name
		if !strings.HasSuffix(objectName, stateObjectExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(strings.TrimPrefix(objectName, s.prefix), stateObjectExt))
	}
	sort.Strings(names)
	return names, nil
}

// Close releases the underlying GCS client.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ snapshot.Store = (*Store)(nil)
