package domain

import "context"

type Archiver interface {
	Archive(ctx context.Context, dir string) ([]byte, error)
	Extension() string
	ContentType() string
}
