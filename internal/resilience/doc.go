// Package resilience groups the fault-tolerance building blocks of the ops
// service.
//
// Two independent mechanisms live here:
//
//   - upload: failure classification, bounded retries with exponential
//     backoff and jitter, per-attempt timeouts, and a consecutive-failure
//     circuit breaker for the object-storage provider. Consumed directly by
//     upload and email call sites.
//   - circuitbreaker: gobreaker-based protection for the Redis health store
//     and HTTP probe targets.
//
// Usage:
//
//	err := upload.WithRetry(ctx, upload.StorageConfig(), doPut, nil)
//
//	cb := circuitbreaker.New(circuitbreaker.KVStoreConfig())
//	_, err := cb.Execute(func() (interface{}, error) { return nil, store.Ping(ctx) })
package resilience
