package domain

import "context"

type PutOptions struct {
	ContentType          string
	StorageClass         string
	ServerSideEncryption string
}

type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, opts PutOptions) error
	List(ctx context.Context, prefix string) ([]Object, error)
	DeleteObjects(ctx context.Context, keys []string) error
}
