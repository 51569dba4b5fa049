package testkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	now    = time.Now
	leases = 3
)

func TestSwap_RestoresAfterSubtest(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	t.Run("swapped", func(t *testing.T) {
		Swap(t, &now, func() time.Time { return fixed })
		Swap(t, &leases, 0)
		require.Equal(t, fixed, now())
		require.Zero(t, leases)
	})
	require.NotEqual(t, fixed, now())
	require.Equal(t, 3, leases)
}

func TestSerial_ReleasesOnCleanup(t *testing.T) {
	for i := 0; i < 3; i++ {
		t.Run("serial", func(t *testing.T) { Serial(t) })
	}
	// a leaked lock would block here
	seamMu.Lock()
	seamMu.Unlock()
}
