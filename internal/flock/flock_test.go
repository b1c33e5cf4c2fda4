//go:build unix

package flock_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phxport/phxport/internal/flock"
)

func TestExclusiveLock(t *testing.T) {
	t.Parallel()

	t.Run("acquires and releases lock", func(t *testing.T) {
		t.Parallel()

		f, err := os.OpenFile(filepath.Join(t.TempDir(), "test.lock"), os.O_RDWR|os.O_CREATE, 0o600)
		require.NoError(t, err)
		t.Cleanup(func() { _ = f.Close() })

		require.NoError(t, flock.Exclusive(f.Fd()))
		require.NoError(t, flock.Unlock(f.Fd()))
	})

	t.Run("second descriptor cannot lock a held file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "test.lock")

		f1, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
		require.NoError(t, err)
		t.Cleanup(func() { _ = f1.Close() })
		require.NoError(t, flock.Exclusive(f1.Fd()))

		f2, err := os.OpenFile(path, os.O_RDWR, 0o600)
		require.NoError(t, err)
		t.Cleanup(func() { _ = f2.Close() })
		assert.Error(t, flock.Exclusive(f2.Fd()))

		require.NoError(t, flock.Unlock(f1.Fd()))
		assert.NoError(t, flock.Exclusive(f2.Fd()))
		require.NoError(t, flock.Unlock(f2.Fd()))
	})
}
