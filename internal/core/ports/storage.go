package ports

import "context"

// KeyValueStore is the durable local storage behind credentials and proxy
// preferences. Values survive process restarts for every backend except the
// in-memory one.
type KeyValueStore interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
