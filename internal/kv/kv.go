// Package kv provides the flat string key/value slots that player state is
// persisted in. Reads never fail: a missing or unreadable slot simply reports
// ok=false and callers fall back to defaults.
package kv

// Store is a string key/value store with last-write-wins semantics per key.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Keys() []string
}

// Refresher is implemented by stores that can be modified by other
// processes. Refresh returns the keys whose values changed since the last
// call, sorted.
type Refresher interface {
	Refresh() []string
}
