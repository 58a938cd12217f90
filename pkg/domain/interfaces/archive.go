package interfaces

import "context"

// Archiver keeps a copy of exported register files before they are cleared
type Archiver interface {
	// Archive stores data under name and returns a location for the stored copy
	Archive(ctx context.Context, name string, data []byte) (string, error)
}
