package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockSuffix     = ".lock"
	lockRetryDelay = 100 * time.Millisecond
)

// Unlocker releases a lock taken with Store.Lock.
type Unlocker interface {
	Unlock() error
}

// Lock blocks until it holds <path>.lock exclusively or ctx is done. The lock
// file lives next to the guarded directory rather than inside it, so the
// directory itself may be removed and recreated while the lock is held.
func (s *store) Lock(ctx context.Context, segments ...string) (Unlocker, error) {
	return s.lock(ctx, (*flock.Flock).TryLockContext, segments)
}

// RLock is Lock in shared mode. Any number of readers may hold it at once,
// but never alongside an exclusive holder.
func (s *store) RLock(ctx context.Context, segments ...string) (Unlocker, error) {
	return s.lock(ctx, (*flock.Flock).TryRLockContext, segments)
}

type tryLockFunc func(*flock.Flock, context.Context, time.Duration) (bool, error)

func (s *store) lock(ctx context.Context, try tryLockFunc, segments []string) (Unlocker, error) {
	path := s.Path(segments...) + lockSuffix
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}

	fl := flock.New(path)
	locked, err := try(fl, ctx, lockRetryDelay)
	if err != nil {
		fl.Close()
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	if !locked {
		fl.Close()
		return nil, fmt.Errorf("locking %s: lock not acquired", path)
	}
	return fl, nil
}
