package pager

import (
	"fmt"
	"os"
	"runtime"
	"syscall"

	"github.com/linhash/mahrel/errs"
)

// exclusiveLock is a cross-process advisory lock enforcing spec §5's "a
// relation is opened exclusively by one process" rule. Unlike the teacher
// lock this is descended from, there is no reader/writer split and no
// in-process RWMutex: a relation has no concurrent access at all, so the
// only thing to guard against is a second process opening the same files.
type exclusiveLock interface {
	Lock() error
	Unlock() error
}

// memoryLock is used when a relation has no backing file to lock.
type memoryLock struct{}

func (memoryLock) Lock() error   { return nil }
func (memoryLock) Unlock() error { return nil }

// newPlatformLock returns an exclusiveLock implementation for the detected
// platform.
func newPlatformLock(fd uintptr) exclusiveLock {
	if !(runtime.GOOS == "linux" || runtime.GOOS == "darwin") {
		panic(fmt.Sprintf("file lock does not support %s", runtime.GOOS))
	}
	return &flockExclusive{fd: int(fd)}
}

// flockExclusive wraps flock(2). It is advisory: only processes that also
// flock this file are kept out. LOCK_NB makes a second opener fail fast
// instead of blocking, since there is nothing to wait for — the relation is
// meant for exactly one opener at a time.
type flockExclusive struct {
	fd int
}

func (l *flockExclusive) Lock() error {
	if err := syscall.Flock(l.fd, syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		return errs.New(errs.IO, "lockRelation", err)
	}
	return nil
}

func (l *flockExclusive) Unlock() error {
	if err := syscall.Flock(l.fd, syscall.LOCK_UN); err != nil {
		return errs.New(errs.IO, "unlockRelation", err)
	}
	return nil
}

// RelationLock is the handle a relation holds on its own .info file for as
// long as it is open. Closing it unlocks and releases the underlying file
// descriptor.
type RelationLock struct {
	file *os.File
	lock exclusiveLock
}

// LockRelationFile acquires an exclusive, non-blocking lock on path,
// enforcing that at most one process has the relation open at a time. When
// useMemory is true the lock is a no-op, since an in-memory relation has
// nothing another process could contend for.
func LockRelationFile(path string, useMemory bool) (*RelationLock, error) {
	if useMemory {
		return &RelationLock{lock: memoryLock{}}, nil
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errs.New(errs.IO, "lockRelationFile", err)
	}
	lock := newPlatformLock(f.Fd())
	if err := lock.Lock(); err != nil {
		f.Close()
		return nil, err
	}
	return &RelationLock{file: f, lock: lock}, nil
}

// Close unlocks and releases the lock's file descriptor, if any.
func (rl *RelationLock) Close() error {
	unlockErr := rl.lock.Unlock()
	if rl.file == nil {
		return unlockErr
	}
	closeErr := rl.file.Close()
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
