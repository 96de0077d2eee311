package ports

// Lock is an exclusive claim over a shared resource, used to pick one
// active instance among several processes sharing a filesystem location.
//
// Acquire is non-blocking and must be re-invoked periodically; it is not
// a one-shot blocking acquire. While the lock is held, repeated Acquire
// calls return true without side effects. Cross-process exclusion is
// entirely the implementation's concern.
type Lock interface {
	// Acquire attempts to claim the resource. Returns whether the caller
	// now holds the lock. Backend failures are returned as errors and
	// treated by callers as "not held".
	Acquire() (bool, error)

	// IsAlive reports whether the caller still holds the lock. It may
	// detect external invalidation, such as the resource being deleted
	// or claimed by another owner.
	IsAlive() (bool, error)

	// Release gives up the claim. Idempotent and best-effort: failures
	// are logged by the implementation, never propagated.
	Release()
}
