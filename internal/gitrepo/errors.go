package gitrepo

import "errors"

var (
	// ErrFetch means the remote was unreachable or an object transfer
	// failed. Transient: re-running is the retry path; nothing is retried
	// internally.
	ErrFetch = errors.New("git fetch failed")

	// ErrRefNotFound means the named ref does not exist on the remote and
	// no local fallback exists.
	ErrRefNotFound = errors.New("ref not found")

	// ErrTagMoved means a tag resolves to a different commit than the one
	// pinned on a previous run. Tags are immutable by contract; a moved tag
	// is a consistency violation and is never followed silently.
	ErrTagMoved = errors.New("tag target changed since it was pinned")

	// ErrCorruptCache means the local clone or ref ledger is unreadable or
	// in an unexpected state. Recovery is manual and explicit: delete the
	// cache directory and re-run. The launcher never deletes it itself.
	ErrCorruptCache = errors.New("local repository cache is corrupt")
)

// RecoveryHint is appended to ErrCorruptCache messages so the manual
// recovery path is always in front of the user.
const RecoveryHint = "delete the launcher cache directory and re-run"
