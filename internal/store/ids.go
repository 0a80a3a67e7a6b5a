package store

import "github.com/google/uuid"

// NewID returns prefix-<uuid>. IDs are opaque; callers must not parse them.
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
