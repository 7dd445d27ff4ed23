package sluice

import (
	"context"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/require"
)

func TestDoorbellCountsRings(t *testing.T) {
	d := newDoorbell()

	d.Ring()
	d.Ring()
	d.Ring()

	// Every ring is delivered, not coalesced into one wake-up.
	for range 3 {
		rung, err := d.Wait(t.Context())
		require.NoError(t, err)
		require.True(t, rung)
	}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := d.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDoorbellClose(t *testing.T) {
	d := newDoorbell()

	d.Ring()
	d.Close()

	// Rings registered before the close still come through.
	rung, err := d.Wait(t.Context())
	require.NoError(t, err)
	require.True(t, rung)

	for range 2 {
		rung, err = d.Wait(t.Context())
		require.NoError(t, err)
		require.False(t, rung)
	}
}

func TestDoorbellWakesWaiter(t *testing.T) {
	run(t, func(t *testing.T) {
		d := newDoorbell()
		rung := make(chan bool, 1)

		go func() {
			ok, _ := d.Wait(t.Context())
			rung <- ok
		}()

		// Let the waiter block before ringing.
		synctest.Wait()
		d.Ring()

		require.True(t, <-rung)
	})
}
