package sluice

import "golang.org/x/sync/errgroup"

// Spawner schedules a background task. The engine uses it for the drain flow
// and for in-flight shifts instead of hard-wiring an execution model.
type Spawner interface {
	Spawn(task func())
}

// GoSpawner runs every task on its own detached goroutine. This is the
// default.
type GoSpawner struct{}

var _ Spawner = GoSpawner{}

func (GoSpawner) Spawn(task func()) {
	go task()
}

// GroupSpawner runs tasks on a caller-supplied [errgroup.Group], letting the
// caller wait for all background flows of one or more streams to finish.
type GroupSpawner struct {
	group *errgroup.Group
}

var _ Spawner = (*GroupSpawner)(nil)

func NewGroupSpawner(group *errgroup.Group) *GroupSpawner {
	if group == nil {
		panic("group can't be nil")
	}
	return &GroupSpawner{group: group}
}

func (s *GroupSpawner) Spawn(task func()) {
	s.group.Go(func() error {
		task()
		return nil
	})
}
