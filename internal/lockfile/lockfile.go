package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileName is the name of the lock file inside a working directory.
// External tooling relies on this name, treat it as a compatibility contract.
const FileName = "lock"

// HeldError reports that another process holds the working directory.
// PID is the holder recorded in the lock file, or 0 when the holder
// hadn't written it yet.
type HeldError struct {
	// Path is the lock file path.
	Path string

	// PID is the process id of the current holder, if known.
	PID int
}

// Error implements the error interface.
func (e *HeldError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("another crawler (pid %d) is already running in this working directory (%s)", e.PID, e.Path)
	}
	return fmt.Sprintf("another crawler is already running in this working directory (%s)", e.Path)
}

// Lock is an acquired working directory lock.
// Release it on every exit path; the kernel also releases it if the
// process dies first.
type Lock struct {
	path string
	file *os.File
}

// Acquire takes the working directory's process lock without blocking.
// If another live process holds it, Acquire fails immediately with a
// *HeldError naming the holder.
//
// The directory is created if it doesn't exist, the lock file is
// created if absent, and the caller's PID is written into it once the
// lock is held.
func Acquire(workdir string) (*Lock, error) {
	if err := os.MkdirAll(workdir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}

	path := filepath.Join(workdir, FileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := flockFile(file); err != nil {
		_ = file.Close()
		if isLockHeld(err) {
			return nil, &HeldError{Path: path, PID: holderPID(path)}
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	// Record the holder for diagnostics. The kernel lock is the guard;
	// a failed write must not fail the acquisition.
	if err := file.Truncate(0); err == nil {
		if _, err := file.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0); err == nil {
			_ = file.Sync()
		}
	}

	return &Lock{path: path, file: file}, nil
}

// Release unlocks and closes the lock file. The file itself is left in
// place: its content is only diagnostic and the next Acquire reuses it.
// Release is idempotent.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}

	unlockErr := funlockFile(l.file)
	closeErr := l.file.Close()
	l.file = nil

	if unlockErr != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.path, unlockErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close lock file: %w", closeErr)
	}
	return nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// holderPID reads the holder PID recorded in the lock file.
// Returns 0 when the file is unreadable or the holder hadn't written yet.
func holderPID(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0
	}
	return pid
}
