// Package dirlock serializes processes working on the same persist directory.
package dirlock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// FileName is the lock file created in the locked directory.
const FileName = ".vecboot.lock"

const defaultPoll = 50 * time.Millisecond

var (
	// ErrLocked indicates the directory is held by another process.
	ErrLocked = errors.New("dirlock: directory locked by another process")
	// ErrLockTimeout indicates lock acquisition timed out.
	ErrLockTimeout = errors.New("dirlock: lock timeout")

	errWouldBlock = errors.New("would block")
)

// Lock is a held directory lock.
type Lock struct {
	file *os.File
}

// Options controls acquisition.
// If Blocking is true and Timeout <= 0, Acquire waits until ctx is done.
// If Blocking is true and Timeout > 0, Acquire retries until Timeout, then errors.
// If Blocking is false, Acquire fails immediately with ErrLocked when busy.
type Options struct {
	Blocking bool
	Timeout  time.Duration
	Poll     time.Duration
}

// Acquire takes an exclusive lock on dir/.vecboot.lock.
func Acquire(ctx context.Context, dir string, opts Options) (*Lock, error) {
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("dirlock: open %s: %w", path, err)
	}
	if err := acquire(ctx, f, opts); err != nil {
		_ = f.Close()
		return nil, err
	}
	writeOwner(f)
	return &Lock{file: f}, nil
}

// writeOwner records the holding process id for diagnostics.
func writeOwner(f *os.File) {
	_ = f.Truncate(0)
	_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
}

func acquire(ctx context.Context, f *os.File, opts Options) error {
	err := lockFile(f, false)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errWouldBlock) {
		return err
	}
	if !opts.Blocking {
		return ErrLocked
	}
	poll := opts.Poll
	if poll <= 0 {
		poll = defaultPoll
	}
	var deadline <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return ErrLockTimeout
		case <-ticker.C:
			err := lockFile(f, false)
			if err == nil {
				return nil
			}
			if !errors.Is(err, errWouldBlock) {
				return err
			}
		}
	}
}

// Release unlocks and closes the lock file. The file itself is left in place.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := unlockFile(l.file)
	if cErr := l.file.Close(); err == nil {
		err = cErr
	}
	l.file = nil
	return err
}

// Wait blocks until the lock is free, without a timeout.
func Wait(ctx context.Context, dir string) (*Lock, error) {
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("dirlock: open %s: %w", path, err)
	}
	done := make(chan error, 1)
	go func() { done <- lockFile(f, true) }()
	select {
	case err := <-done:
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		writeOwner(f)
		return &Lock{file: f}, nil
	case <-ctx.Done():
		// Closing the descriptor releases a lock acquired after cancellation.
		go func() {
			if err := <-done; err == nil {
				_ = unlockFile(f)
			}
			_ = f.Close()
		}()
		return nil, ctx.Err()
	}
}
