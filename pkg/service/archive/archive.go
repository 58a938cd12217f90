// Package archive uploads exported register files to Cloud Storage
package archive

import (
	"context"
	"path"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/domain/interfaces"
)

type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.Archiver = &GCS{}

// NewGCS creates an archiver writing to gs://bucket/prefix/
func NewGCS(ctx context.Context, bucket, prefix string) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("archive bucket is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &GCS{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func (a *GCS) Archive(ctx context.Context, name string, data []byte) (string, error) {
	objectName := path.Join(a.prefix, name)

	w := a.client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "text/csv"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to write archive object",
			goerr.V("bucket", a.bucket),
			goerr.V("object", objectName))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize archive object",
			goerr.V("bucket", a.bucket),
			goerr.V("object", objectName))
	}

	return "gs://" + a.bucket + "/" + objectName, nil
}

func (a *GCS) Close() error {
	return a.client.Close()
}
