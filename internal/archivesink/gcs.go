// Package archivesink provides urlfetcher.ArchiveSink implementations.
package archivesink

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCS implements urlfetcher.ArchiveSink by uploading response bodies
// to a configured bucket, keyed by content hash so repeated fetches of
// byte-identical bodies dedupe for free.
type GCS struct {
	client *storage.Client
	bucket string
}

// New constructs a GCS archive sink against an already-authenticated
// client. Callers typically build client once via storage.NewClient
// and share it with any other component needing GCS access.
func New(client *storage.Client, bucket string) (*GCS, error) {
	if client == nil {
		return nil, fmt.Errorf("archivesink: storage client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("archivesink: bucket name is required")
	}
	return &GCS{client: client, bucket: bucket}, nil
}

// Archive uploads body under a path derived from hash and returns the
// resulting gs:// URI. Uploading the same hash twice simply overwrites
// the existing object with identical bytes.
func (s *GCS) Archive(ctx context.Context, hash string, body []byte) (string, error) {
	if hash == "" {
		return "", fmt.Errorf("archivesink: hash is required")
	}
	path := fmt.Sprintf("bodies/%s/%s", hash[:2], hash)
	writer := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	if _, err := io.Copy(writer, bytes.NewReader(body)); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return "", fmt.Errorf("archivesink: copy object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("archivesink: copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("archivesink: close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, path), nil
}
