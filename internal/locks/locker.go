package locks

import (
	"context"
	"errors"
	"time"
)

// Locker layers bounded retry on top of the lock repository. Contention is
// expected to be brief, so a handful of short waits resolves most of it;
// callers translate ErrHeld after the last attempt into a busy response.
type Locker struct {
	repo     Repository
	ttl      time.Duration
	attempts int
	backoff  time.Duration
}

func NewLocker(repo Repository, ttl time.Duration, attempts int, backoff time.Duration) *Locker {
	return &Locker{
		repo:     repo,
		ttl:      ttl,
		attempts: attempts,
		backoff:  backoff,
	}
}

func (l *Locker) Lock(ctx context.Context, lockID, owner string) error {
	var err error
	for attempt := 0; attempt < l.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(l.backoff):
			}
		}
		err = l.repo.Acquire(ctx, lockID, owner, l.ttl)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrHeld) {
			return err
		}
	}
	return err
}

// TryLock makes a single attempt with no retries. Background tasks use it
// so a contended entity is skipped rather than waited on.
func (l *Locker) TryLock(ctx context.Context, lockID, owner string) error {
	return l.repo.Acquire(ctx, lockID, owner, l.ttl)
}

func (l *Locker) Unlock(ctx context.Context, lockID, owner string) error {
	return l.repo.Release(ctx, lockID, owner)
}

// LockAll acquires the given locks in the order passed. Callers must pass
// item locks before patron locks so concurrent operations cannot deadlock.
// On failure every lock acquired so far is released.
func (l *Locker) LockAll(ctx context.Context, owner string, lockIDs ...string) (func(), error) {
	acquired := make([]string, 0, len(lockIDs))
	release := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			_ = l.repo.Release(context.WithoutCancel(ctx), acquired[i], owner)
		}
	}

	for _, lockID := range lockIDs {
		if err := l.Lock(ctx, lockID, owner); err != nil {
			release()
			return nil, err
		}
		acquired = append(acquired, lockID)
	}
	return release, nil
}
