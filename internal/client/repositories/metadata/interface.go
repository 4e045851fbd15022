// Package metadata persists small key/value facts on the client, such as the
// saved login session.
package metadata

import "context"

// Repository is a string key/value store. Get returns common.ErrorNotFound
// for absent keys.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
	Clear(ctx context.Context) error
}
