package objectstore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("object not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
}
