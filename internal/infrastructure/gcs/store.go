// Package gcs stores baseline reports in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/cockroachdb/errors"
	"google.golang.org/api/option"

	"github.com/felixgeelhaar/covermon/internal/application"
	"github.com/felixgeelhaar/covermon/internal/domain"
)

const contentType = "application/xml"

// bucketHandle and objectHandle narrow the storage client so tests can fake it.
type bucketHandle interface {
	Object(name string) objectHandle
}

type objectHandle interface {
	NewReader(ctx context.Context) (io.ReadCloser, error)
	NewWriter(ctx context.Context) io.WriteCloser
}

type bucketImpl struct {
	bucket *storage.BucketHandle
}

func (b bucketImpl) Object(name string) objectHandle {
	return objectImpl{object: b.bucket.Object(name)}
}

type objectImpl struct {
	object *storage.ObjectHandle
}

func (o objectImpl) NewReader(ctx context.Context) (io.ReadCloser, error) {
	return o.object.NewReader(ctx)
}

func (o objectImpl) NewWriter(ctx context.Context) io.WriteCloser {
	w := o.object.NewWriter(ctx)
	w.ContentType = contentType
	return w
}

// Store implements application.ReportStore on one bucket.
type Store struct {
	name   string
	bucket bucketHandle
}

// NewStore opens bucket with application default credentials unless opts
// say otherwise.
func NewStore(ctx context.Context, bucket string, opts ...option.ClientOption) (*Store, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create storage client")
	}
	return &Store{name: bucket, bucket: bucketImpl{bucket: client.Bucket(bucket)}}, nil
}

// Factory returns an application.RemoteStoreFactory using opts for every client.
func Factory(opts ...option.ClientOption) application.RemoteStoreFactory {
	return func(ctx context.Context, bucket string) (application.ReportStore, error) {
		return NewStore(ctx, bucket, opts...)
	}
}

// Load reads the object at key. A missing object is application.ErrReportNotFound.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, errors.Wrapf(application.ErrReportNotFound, "%s", s.Location(key))
		}
		return nil, errors.Mark(errors.Wrapf(err, "open %s", s.Location(key)), domain.ErrCollaborator)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "read %s", s.Location(key)), domain.ErrCollaborator)
	}
	return data, nil
}

// Save uploads data to key. The object only becomes visible once Close succeeds.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	w := s.bucket.Object(key).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return errors.Mark(errors.Wrapf(err, "upload %s", s.Location(key)), domain.ErrCollaborator)
	}
	if err := w.Close(); err != nil {
		return errors.Mark(errors.Wrapf(err, "upload %s", s.Location(key)), domain.ErrCollaborator)
	}
	return nil
}

// Location renders key as a gs:// URL.
func (s *Store) Location(key string) string {
	return "gs://" + s.name + "/" + key
}
