// ledger/errors.go
package ledger

import "errors"

// Error taxonomy shared by the ledger and the progression core. Callers
// classify with errors.Is.
var (
	// ErrValidation marks writes rejected locally, e.g. a click total lower
	// than the stored one. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrAuthentication marks a rejected credential. The click aggregator
	// refreshes its token once and retries the same flush exactly once.
	ErrAuthentication = errors.New("authentication failed")

	// ErrConflict marks an optimistic precondition that no longer holds on a
	// power transition. Treated as a benign "transition not valid" result.
	ErrConflict = errors.New("conflicting update")

	// ErrTransient marks a store or network failure worth retrying on the
	// next natural cycle.
	ErrTransient = errors.New("store unavailable")

	// ErrNotFound marks an operation on a grant or power the user does not
	// hold.
	ErrNotFound = errors.New("not found")
)
