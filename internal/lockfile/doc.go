// Package lockfile guards a working directory against concurrent crawler
// processes.
//
// The guard is an OS advisory lock on a well-known file inside the
// directory, taken non-blocking: a second process fails immediately
// instead of waiting, because two crawlers interleaving writes to the
// same frontier would corrupt the resume guarantees.
//
// Design decision: We use flock (LockFileEx on Windows) rather than an
// existence check because:
// 1. The kernel releases the lock when the holder dies, however it dies,
//    so a crashed crawler never leaves a directory permanently locked
// 2. Existence checks race between check and create
// 3. The lock file doubles as a holder record: the owning PID is written
//    into it for diagnostics only, the kernel lock is the actual guard
package lockfile
