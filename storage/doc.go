// Package storage is the bucket abstraction under the file manager.
//
// ObjectStore speaks raw keys with S3 semantics: delimiter listing with
// continuation tokens, ETag preconditions on writes, copies and deletes,
// and presigned GET/PUT URLs. Backends register a Factory under a provider
// name and are built with New:
//
//	store, err := storage.New(ctx, cfg, &s3cfg, log) // provider "s3"
//
// storage/memory registers "memory", which keeps objects in a map and is
// what the tests run against.
package storage
