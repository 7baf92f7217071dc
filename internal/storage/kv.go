package storage

import "context"

//go:generate mockgen -source=$GOFILE -destination=kv_mocks_test.go -package=storage_test

// KV is the durable key-value store the workout data lives in.
// Get returns ErrKeyNotFound when the key is absent.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}
