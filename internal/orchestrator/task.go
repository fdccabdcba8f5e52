package orchestrator

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// task is a retained handle on one goroutine started in an errgroup. The
// outcome lives on the handle so the joiner can await tasks in a fixed
// order; the group itself only tracks completion.
type task[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func spawn[T any](g *errgroup.Group, name string, fn func() (T, error)) *task[T] {
	t := &task[T]{done: make(chan struct{})}
	g.Go(func() error {
		defer close(t.done)
		defer func() {
			if r := recover(); r != nil {
				t.err = fmt.Errorf("orchestrator: %s panicked: %v", name, r)
			}
		}()
		t.val, t.err = fn()
		return nil
	})
	return t
}

// await blocks until the task has settled.
func (t *task[T]) await() (T, error) {
	<-t.done
	return t.val, t.err
}
