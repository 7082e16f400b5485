// Package lockfile serializes cache provisioning across launcher
// processes. Two scheduled runs on one host may race to provision the same
// version; an exclusive lock file per cache key makes ensure() safe under
// concurrent invocation.
package lockfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// retryInterval is how often a blocked process re-attempts the lock.
const retryInterval = 250 * time.Millisecond

// WithLock runs fn while holding an exclusive lock on <root>/locks/<key>.lock.
// It blocks until the lock is acquired or ctx is done.
func WithLock(ctx context.Context, root, key string, fn func() error) error {
	dir := filepath.Join(root, "locks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}

	fl := flock.New(filepath.Join(dir, key+".lock"))
	ok, err := fl.TryLockContext(ctx, retryInterval)
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("acquire lock %s: not acquired", key)
	}
	defer fl.Unlock()

	return fn()
}
