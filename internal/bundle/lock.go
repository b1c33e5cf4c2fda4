package bundle

import (
	"os"
	"path/filepath"

	"github.com/phxport/phxport/internal/errors"
	"github.com/phxport/phxport/internal/flock"
)

// lockFileName is the lock file created inside a bundle directory while a
// run is writing to or reading from it.
const lockFileName = ".phxport.lock"

// Lock takes an exclusive non-blocking lock on the bundle directory,
// creating it if needed. Returns ErrBundleLocked when another process holds
// the lock. The returned release function removes the lock.
func (b *Bundle) Lock() (func(), error) {
	if err := os.MkdirAll(b.root, 0o750); err != nil {
		return nil, errors.Wrap(err, "failed to create bundle directory")
	}

	path := filepath.Join(b.root, lockFileName)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600) //nolint:gosec // Lock file inside the bundle
	if err != nil {
		return nil, errors.Wrap(err, "failed to open lock file")
	}

	if err := flock.Exclusive(f.Fd()); err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(errors.ErrBundleLocked, "%s", b.root)
	}

	release := func() {
		_ = flock.Unlock(f.Fd())
		_ = f.Close()
		_ = os.Remove(path)
	}
	return release, nil
}
