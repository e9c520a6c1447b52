// Package redis wraps go-redis with the component lifecycle and a generic
// JSON TypedStore. s3fm uses it to cache presigned preview URLs:
//
//	c := redis.NewComponent(cfg.Redis, log)
//	store := redis.NewTypedStore[filemanager.PreviewURL](c.Client(), "preview")
//
// The component is optional. When disabled it starts as a no-op and Client
// returns nil.
package redis
