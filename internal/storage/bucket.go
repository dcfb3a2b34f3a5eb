package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

var ErrObjectNotFound = errors.New("object not found in storage")

// Bucket is the object-storage collaborator. Documents are stored under
// {user_id}/{document_id}/{filename}.
type Bucket interface {
	Upload(ctx context.Context, key string, r io.Reader) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type gcsBucket struct {
	client     *gcs.Client
	bucketName string
}

func NewBucket(ctx context.Context, bucketName, credentialsFile string) (Bucket, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	var client *gcs.Client
	var err error
	if credentialsFile != "" {
		client, err = gcs.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	} else {
		client, err = gcs.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &gcsBucket{client: client, bucketName: bucketName}, nil
}

func ObjectKey(userID, documentID, filename string) string {
	return fmt.Sprintf("%s/%s/%s", userID, documentID, filename)
}

func (b *gcsBucket) Upload(ctx context.Context, key string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := b.client.Bucket(b.bucketName).Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish upload of %q: %w", key, err)
	}
	return nil
}

func (b *gcsBucket) Download(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	r, err := b.client.Bucket(b.bucketName).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to open object %q: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %q: %w", key, err)
	}
	return data, nil
}

func (b *gcsBucket) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := b.client.Bucket(b.bucketName).Object(key).Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete object %q: %w", key, err)
	}
	return nil
}
