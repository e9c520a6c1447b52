package storage

import (
	"context"
	"iter"
	"time"
)

// S3 service limits shared by every backend.
const (
	// MaxListKeys is the largest page a single list call returns.
	MaxListKeys int32 = 1000
	// MaxDeleteBatch is the largest key count accepted by DeleteBatch.
	MaxDeleteBatch = 1000
)

// Object is a single listed object.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string
}

// Attributes are the user-editable headers and metadata of an object.
type Attributes struct {
	ContentType        string
	CacheControl       string
	ContentDisposition string
	Metadata           map[string]string
	// Expires is nil when the object carries no Expires header.
	Expires *time.Time
}

// ObjectInfo is the result of a head request.
type ObjectInfo struct {
	Object
	Attributes
}

// ListInput describes one page of a prefix listing.
type ListInput struct {
	Prefix string
	// Delimiter groups keys into CommonPrefixes when non-empty.
	Delimiter string
	Cursor    string
	MaxKeys   int32
}

// ListPage is a single page of list results.
type ListPage struct {
	Objects        []Object
	CommonPrefixes []string
	// NextCursor is only set when Truncated is true.
	NextCursor string
	Truncated  bool
}

// PutInput writes a small object in one request.
type PutInput struct {
	Key  string
	Body []byte
	Attributes
	// IfNoneMatch set to "*" makes the write fail with ErrPreconditionFailed
	// when the key already exists.
	IfNoneMatch string
}

// CopyInput copies one object server side.
type CopyInput struct {
	SourceKey string
	DestKey   string
	// IfMatch pins the source ETag.
	IfMatch string
	// Replace, when set, replaces the destination attributes instead of
	// copying them from the source.
	Replace *Attributes
}

// DeleteInput removes a single object, optionally conditioned on its ETag.
type DeleteInput struct {
	Key     string
	IfMatch string
}

// PresignPutInput describes a presigned upload URL.
type PresignPutInput struct {
	Key string
	Attributes
	IfNoneMatch string
	TTL         time.Duration
}

// PresignGetInput describes a presigned download URL.
type PresignGetInput struct {
	Key                        string
	ResponseContentDisposition string
	TTL                        time.Duration
}

// ObjectStore is the object storage contract the file manager is built on.
// Keys are raw bucket keys; callers own any prefix scoping.
//
// Missing objects are reported as ErrNotFound and failed conditions as
// ErrPreconditionFailed, wrapped with context.
type ObjectStore interface {
	Bucket() string

	ListPage(ctx context.Context, in ListInput) (*ListPage, error)
	Head(ctx context.Context, key string) (*ObjectInfo, error)
	// Get reads a whole object. Only meant for small documents.
	Get(ctx context.Context, key string) ([]byte, *ObjectInfo, error)
	// Put returns the ETag of the written object.
	Put(ctx context.Context, in PutInput) (string, error)
	Copy(ctx context.Context, in CopyInput) error
	Delete(ctx context.Context, in DeleteInput) error
	// DeleteBatch removes up to MaxDeleteBatch keys in one request. Missing
	// keys are not an error.
	DeleteBatch(ctx context.Context, keys []string) error

	PresignPut(ctx context.Context, in PresignPutInput) (string, error)
	PresignGet(ctx context.Context, in PresignGetInput) (string, error)
}

// Walk lazily enumerates every object under prefix, fetching pages of
// MaxListKeys on demand. Iteration stops after the first error.
func Walk(ctx context.Context, s ObjectStore, prefix string) iter.Seq2[Object, error] {
	return func(yield func(Object, error) bool) {
		cursor := ""
		for {
			page, err := s.ListPage(ctx, ListInput{Prefix: prefix, Cursor: cursor, MaxKeys: MaxListKeys})
			if err != nil {
				yield(Object{}, err)
				return
			}
			for _, obj := range page.Objects {
				if !yield(obj, nil) {
					return
				}
			}
			if !page.Truncated || page.NextCursor == "" {
				return
			}
			cursor = page.NextCursor
		}
	}
}

// DeleteKeys removes keys in batches of MaxDeleteBatch.
func DeleteKeys(ctx context.Context, s ObjectStore, keys []string) error {
	for start := 0; start < len(keys); start += MaxDeleteBatch {
		end := min(start+MaxDeleteBatch, len(keys))
		if err := s.DeleteBatch(ctx, keys[start:end]); err != nil {
			return err
		}
	}
	return nil
}
