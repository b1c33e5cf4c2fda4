// Package flock provides cross-platform file locking utilities.
//
// Export and import runs take an exclusive lock on their bundle directory
// so two phxport processes never write the same bundle concurrently. Locks
// are exclusive and non-blocking and work on both Unix and Windows systems.
//
// Usage:
//
//	file, _ := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
//	if err := flock.Exclusive(file.Fd()); err != nil {
//	    // Lock not acquired - bundle is in use
//	}
//	defer flock.Unlock(file.Fd())
package flock
