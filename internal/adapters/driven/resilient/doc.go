// Package resilient wraps driven adapters with per-attempt timeouts,
// bounded exponential-backoff retries and, for the embedder, client-side
// rate limiting.
//
// Only idempotent operations are retried. Document inserts and deletes run
// once with a timeout: a retried insert could collide with its own earlier
// commit, and a retried delete could report a row it already removed as
// missing.
package resilient
