//go:build windows

package db

import "golang.org/x/sys/windows"

// tryLock locks the first byte of the lock file without blocking.
func (l *writeLocker) tryLock() error {
	ol := new(windows.Overlapped)
	return windows.LockFileEx(
		windows.Handle(l.lockFile.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0, 1, 0, ol,
	)
}

func (l *writeLocker) unlock() {
	if l.lockFile == nil {
		return
	}
	ol := new(windows.Overlapped)
	windows.UnlockFileEx(windows.Handle(l.lockFile.Fd()), 0, 1, 0, ol)
}
