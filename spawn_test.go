package sluice

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestGoSpawner(t *testing.T) {
	done := make(chan struct{})

	GoSpawner{}.Spawn(func() {
		close(done)
	})

	<-done
}

func TestGroupSpawner(t *testing.T) {
	var (
		group errgroup.Group
		ran   atomic.Int64
	)

	spawner := NewGroupSpawner(&group)
	for range 5 {
		spawner.Spawn(func() {
			ran.Add(1)
		})
	}

	require.NoError(t, group.Wait())
	require.Equal(t, int64(5), ran.Load())
}
