package locks

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mockRepository struct {
	acquireFunc func(ctx context.Context, lockID, owner string, ttl time.Duration) error
	releaseFunc func(ctx context.Context, lockID, owner string) error
}

func (m *mockRepository) Acquire(ctx context.Context, lockID, owner string, ttl time.Duration) error {
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx, lockID, owner, ttl)
	}
	return nil
}

func (m *mockRepository) Release(ctx context.Context, lockID, owner string) error {
	if m.releaseFunc != nil {
		return m.releaseFunc(ctx, lockID, owner)
	}
	return nil
}

func TestLockRetriesUntilAcquired(t *testing.T) {
	calls := 0
	repo := &mockRepository{
		acquireFunc: func(ctx context.Context, lockID, owner string, ttl time.Duration) error {
			calls++
			if calls < 3 {
				return ErrHeld
			}
			return nil
		},
	}

	locker := NewLocker(repo, time.Second, 5, time.Millisecond)
	if err := locker.Lock(context.Background(), "item:1", "op"); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("acquire attempts = %d, want 3", calls)
	}
}

func TestLockGivesUpAfterAttempts(t *testing.T) {
	calls := 0
	repo := &mockRepository{
		acquireFunc: func(ctx context.Context, lockID, owner string, ttl time.Duration) error {
			calls++
			return ErrHeld
		},
	}

	locker := NewLocker(repo, time.Second, 4, time.Millisecond)
	err := locker.Lock(context.Background(), "item:1", "op")
	if !errors.Is(err, ErrHeld) {
		t.Fatalf("Lock() error = %v, want ErrHeld", err)
	}
	if calls != 4 {
		t.Errorf("acquire attempts = %d, want 4", calls)
	}
}

func TestLockStopsOnNonContentionError(t *testing.T) {
	boom := errors.New("connection reset")
	calls := 0
	repo := &mockRepository{
		acquireFunc: func(ctx context.Context, lockID, owner string, ttl time.Duration) error {
			calls++
			return boom
		},
	}

	locker := NewLocker(repo, time.Second, 5, time.Millisecond)
	if err := locker.Lock(context.Background(), "item:1", "op"); !errors.Is(err, boom) {
		t.Fatalf("Lock() error = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("acquire attempts = %d, want 1", calls)
	}
}

func TestLockHonorsContextCancellation(t *testing.T) {
	repo := &mockRepository{
		acquireFunc: func(ctx context.Context, lockID, owner string, ttl time.Duration) error {
			return ErrHeld
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	locker := NewLocker(repo, time.Second, 5, time.Hour)
	if err := locker.Lock(ctx, "item:1", "op"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Lock() error = %v, want context.Canceled", err)
	}
}

func TestTryLockNeverRetries(t *testing.T) {
	calls := 0
	repo := &mockRepository{
		acquireFunc: func(ctx context.Context, lockID, owner string, ttl time.Duration) error {
			calls++
			return ErrHeld
		},
	}

	locker := NewLocker(repo, time.Second, 5, time.Millisecond)
	if err := locker.TryLock(context.Background(), "item:1", "op"); !errors.Is(err, ErrHeld) {
		t.Fatalf("TryLock() error = %v, want ErrHeld", err)
	}
	if calls != 1 {
		t.Errorf("acquire attempts = %d, want 1", calls)
	}
}

func TestLockAllReleasesOnPartialFailure(t *testing.T) {
	var released []string
	repo := &mockRepository{
		acquireFunc: func(ctx context.Context, lockID, owner string, ttl time.Duration) error {
			if lockID == "patron:2" {
				return ErrHeld
			}
			return nil
		},
		releaseFunc: func(ctx context.Context, lockID, owner string) error {
			released = append(released, lockID)
			return nil
		},
	}

	locker := NewLocker(repo, time.Second, 1, time.Millisecond)
	_, err := locker.LockAll(context.Background(), "op", "item:1", "patron:2")
	if !errors.Is(err, ErrHeld) {
		t.Fatalf("LockAll() error = %v, want ErrHeld", err)
	}
	if len(released) != 1 || released[0] != "item:1" {
		t.Errorf("released = %v, want [item:1]", released)
	}
}

func TestLockAllReleaseUnwindsInReverse(t *testing.T) {
	var released []string
	repo := &mockRepository{
		releaseFunc: func(ctx context.Context, lockID, owner string) error {
			released = append(released, lockID)
			return nil
		},
	}

	locker := NewLocker(repo, time.Second, 1, time.Millisecond)
	release, err := locker.LockAll(context.Background(), "op", "item:1", "patron:2")
	if err != nil {
		t.Fatalf("LockAll() error = %v", err)
	}

	release()
	if len(released) != 2 || released[0] != "patron:2" || released[1] != "item:1" {
		t.Errorf("released = %v, want [patron:2 item:1]", released)
	}
}
