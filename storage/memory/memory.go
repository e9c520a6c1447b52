// Package memory provides an in-process storage.ObjectStore with S3 listing,
// conditional write and copy semantics. It backs unit tests and local
// development without a bucket.
package memory

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/s3fm/component"
	"github.com/kbukum/s3fm/logger"
	"github.com/kbukum/s3fm/storage"
	"github.com/kbukum/s3fm/testutil"
)

func init() {
	storage.RegisterFactory(storage.ProviderMemory, func(_ context.Context, cfg storage.Config, _ any, _ *logger.Logger) (storage.ObjectStore, error) {
		return New(cfg.Bucket), nil
	})
}

// Op names a store operation for fault injection and call counting.
type Op string

const (
	OpList        Op = "list"
	OpHead        Op = "head"
	OpGet         Op = "get"
	OpPut         Op = "put"
	OpCopy        Op = "copy"
	OpDelete      Op = "delete"
	OpDeleteBatch Op = "delete_batch"
	OpPresign     Op = "presign"
)

type object struct {
	data    []byte
	etag    string
	modTime time.Time
	attrs   storage.Attributes
}

func (o *object) clone() *object {
	cp := *o
	cp.data = append([]byte(nil), o.data...)
	cp.attrs.Metadata = maps.Clone(o.attrs.Metadata)
	return &cp
}

type fault struct {
	key string
	err error
}

// Store is an in-memory object store. It implements storage.ObjectStore,
// component.Component and testutil.TestComponent.
type Store struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]*object
	faults  map[Op]fault
	calls   map[Op]int
	now     func() time.Time
}

var (
	_ storage.ObjectStore    = (*Store)(nil)
	_ component.Component    = (*Store)(nil)
	_ testutil.TestComponent = (*Store)(nil)
)

// New returns an empty, ready to use store.
func New(bucket string) *Store {
	return &Store{
		bucket:  bucket,
		objects: make(map[string]*object),
		faults:  make(map[Op]fault),
		calls:   make(map[Op]int),
		now:     time.Now,
	}
}

// InjectError makes op fail with err. A non-empty key limits the fault to
// that key. Passing a nil err clears the fault.
func (s *Store) InjectError(op Op, key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = fault{key: key, err: err}
}

// Calls reports how many times op was invoked.
func (s *Store) Calls(op Op) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[op]
}

// Keys returns every stored key in order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.objects))
}

// Seed writes data under key without conditions.
func (s *Store) Seed(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = s.newObject(data, storage.Attributes{})
}

// must be called with mu held.
func (s *Store) enter(op Op, key string) error {
	s.calls[op]++
	if f, ok := s.faults[op]; ok && (f.key == "" || f.key == key) {
		return f.err
	}
	return nil
}

func (s *Store) newObject(data []byte, attrs storage.Attributes) *object {
	sum := md5.Sum(data)
	attrs.Metadata = maps.Clone(attrs.Metadata)
	return &object{
		data:    append([]byte(nil), data...),
		etag:    `"` + hex.EncodeToString(sum[:]) + `"`,
		modTime: s.now().UTC(),
		attrs:   attrs,
	}
}

func (s *Store) info(key string, o *object) *storage.ObjectInfo {
	attrs := o.attrs
	attrs.Metadata = maps.Clone(o.attrs.Metadata)
	return &storage.ObjectInfo{
		Object: storage.Object{
			Key:          key,
			Size:         int64(len(o.data)),
			LastModified: o.modTime,
			ETag:         o.etag,
		},
		Attributes: attrs,
	}
}

func notFound(key string) error {
	return fmt.Errorf("memory: %q: %w", key, storage.ErrNotFound)
}

func preconditionFailed(key string) error {
	return fmt.Errorf("memory: %q: %w", key, storage.ErrPreconditionFailed)
}

// --- storage.ObjectStore ---

// Bucket returns the configured bucket name.
func (s *Store) Bucket() string { return s.bucket }

// ListPage lists keys in lexical order. Cursors are the last returned key or
// common prefix, so a page resumes strictly after it.
func (s *Store) ListPage(_ context.Context, in storage.ListInput) (*storage.ListPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpList, in.Prefix); err != nil {
		return nil, err
	}

	maxKeys := int(in.MaxKeys)
	if maxKeys <= 0 || maxKeys > int(storage.MaxListKeys) {
		maxKeys = int(storage.MaxListKeys)
	}

	page := &storage.ListPage{Objects: []storage.Object{}, CommonPrefixes: []string{}}
	last := ""
	count := 0
	for _, key := range slices.Sorted(maps.Keys(s.objects)) {
		if !strings.HasPrefix(key, in.Prefix) || key <= in.Cursor {
			continue
		}
		if in.Delimiter != "" && strings.HasSuffix(in.Cursor, in.Delimiter) && strings.HasPrefix(key, in.Cursor) {
			continue
		}

		entry := key
		isPrefix := false
		if in.Delimiter != "" {
			rest := key[len(in.Prefix):]
			if i := strings.Index(rest, in.Delimiter); i >= 0 {
				entry = in.Prefix + rest[:i+len(in.Delimiter)]
				isPrefix = true
			}
		}
		if isPrefix && entry == last {
			continue
		}

		if count == maxKeys {
			page.Truncated = true
			page.NextCursor = last
			break
		}
		count++
		last = entry
		if isPrefix {
			page.CommonPrefixes = append(page.CommonPrefixes, entry)
			continue
		}
		o := s.objects[key]
		page.Objects = append(page.Objects, storage.Object{
			Key:          key,
			Size:         int64(len(o.data)),
			LastModified: o.modTime,
			ETag:         o.etag,
		})
	}
	return page, nil
}

// Head returns metadata for key.
func (s *Store) Head(_ context.Context, key string) (*storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpHead, key); err != nil {
		return nil, err
	}
	o, ok := s.objects[key]
	if !ok {
		return nil, notFound(key)
	}
	return s.info(key, o), nil
}

// Get returns a copy of the stored bytes.
func (s *Store) Get(_ context.Context, key string) ([]byte, *storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpGet, key); err != nil {
		return nil, nil, err
	}
	o, ok := s.objects[key]
	if !ok {
		return nil, nil, notFound(key)
	}
	return append([]byte(nil), o.data...), s.info(key, o), nil
}

// Put stores the object, honouring If-None-Match.
func (s *Store) Put(_ context.Context, in storage.PutInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpPut, in.Key); err != nil {
		return "", err
	}
	if existing, ok := s.objects[in.Key]; ok && matches(in.IfNoneMatch, existing.etag) {
		return "", preconditionFailed(in.Key)
	}
	o := s.newObject(in.Body, in.Attributes)
	s.objects[in.Key] = o
	return o.etag, nil
}

// Copy duplicates the source object, optionally replacing its attributes.
func (s *Store) Copy(_ context.Context, in storage.CopyInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpCopy, in.SourceKey); err != nil {
		return err
	}
	src, ok := s.objects[in.SourceKey]
	if !ok {
		return notFound(in.SourceKey)
	}
	if in.IfMatch != "" && !matches(in.IfMatch, src.etag) {
		return preconditionFailed(in.SourceKey)
	}
	attrs := src.attrs
	if in.Replace != nil {
		attrs = *in.Replace
	}
	s.objects[in.DestKey] = s.newObject(src.data, attrs)
	return nil
}

// Delete removes key. Without IfMatch a missing key is not an error.
func (s *Store) Delete(_ context.Context, in storage.DeleteInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpDelete, in.Key); err != nil {
		return err
	}
	if in.IfMatch != "" {
		o, ok := s.objects[in.Key]
		if !ok {
			return notFound(in.Key)
		}
		if !matches(in.IfMatch, o.etag) {
			return preconditionFailed(in.Key)
		}
	}
	delete(s.objects, in.Key)
	return nil
}

// DeleteBatch removes up to storage.MaxDeleteBatch keys.
func (s *Store) DeleteBatch(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(keys) > storage.MaxDeleteBatch {
		return fmt.Errorf("memory: delete batch of %d exceeds %d", len(keys), storage.MaxDeleteBatch)
	}
	for _, k := range keys {
		if err := s.enter(OpDeleteBatch, k); err != nil {
			return err
		}
	}
	for _, k := range keys {
		delete(s.objects, k)
	}
	return nil
}

// PresignPut returns a memory:// URL describing the signed request.
func (s *Store) PresignPut(_ context.Context, in storage.PresignPutInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpPresign, in.Key); err != nil {
		return "", err
	}
	return s.presignURL("PUT", in.Key, in.TTL, nil), nil
}

// PresignGet returns a memory:// URL describing the signed request.
func (s *Store) PresignGet(_ context.Context, in storage.PresignGetInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpPresign, in.Key); err != nil {
		return "", err
	}
	extra := url.Values{}
	if in.ResponseContentDisposition != "" {
		extra.Set("response-content-disposition", in.ResponseContentDisposition)
	}
	return s.presignURL("GET", in.Key, in.TTL, extra), nil
}

func (s *Store) presignURL(method, key string, ttl time.Duration, extra url.Values) string {
	q := url.Values{}
	for k, v := range extra {
		q[k] = v
	}
	q.Set("method", method)
	q.Set("expires", fmt.Sprintf("%d", int64(ttl.Seconds())))
	u := url.URL{Scheme: "memory", Host: s.bucket, Path: "/" + key, RawQuery: q.Encode()}
	return u.String()
}

// matches reports whether an If-Match or If-None-Match value applies to etag.
func matches(cond, etag string) bool {
	switch cond {
	case "":
		return false
	case "*":
		return true
	default:
		return strings.Trim(cond, `"`) == strings.Trim(etag, `"`)
	}
}

// --- component.Component ---

// Name returns the component name.
func (s *Store) Name() string { return "storage-memory" }

// Start is a no-op; the store is ready after New.
func (s *Store) Start(_ context.Context) error { return nil }

// Stop drops every object.
func (s *Store) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = make(map[string]*object)
	return nil
}

// Health is always healthy.
func (s *Store) Health(_ context.Context) component.Health {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return component.Health{
		Name:    s.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d objects", len(s.objects)),
	}
}

// --- testutil.TestComponent ---

// Reset drops all objects, faults and call counters.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = make(map[string]*object)
	s.faults = make(map[Op]fault)
	s.calls = make(map[Op]int)
	return nil
}

// Snapshot captures a deep copy of the stored objects.
func (s *Store) Snapshot(_ context.Context) (interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[string]*object, len(s.objects))
	for k, v := range s.objects {
		snap[k] = v.clone()
	}
	return snap, nil
}

// Restore replaces the stored objects with a snapshot.
func (s *Store) Restore(_ context.Context, snap interface{}) error {
	objs, ok := snap.(map[string]*object)
	if !ok {
		return fmt.Errorf("invalid snapshot type: expected map[string]*object, got %T", snap)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = make(map[string]*object, len(objs))
	for k, v := range objs {
		s.objects[k] = v.clone()
	}
	return nil
}
