package port

import "context"

// PhotoStore keeps uploaded proof photos. Keys are relative, slash-separated
// paths built by the store itself.
type PhotoStore interface {
	Key(userID, kind, ref, mimeType string) string
	Save(ctx context.Context, key string, content []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
