// Package photostore stores uploaded meal photos and exposes the operations
// the waste pipeline needs: save, delete, read back, and byte size.
package photostore

import "context"

// Store is the photo blob storage contract. Save returns an opaque locator
// that is persisted on the meal and accepted by the other operations.
type Store interface {
	Save(ctx context.Context, data []byte, ext string) (string, error)
	Delete(ctx context.Context, locator string) error
	Read(ctx context.Context, locator string) ([]byte, error)
	Size(ctx context.Context, locator string) (int64, error)
}
