package live

import (
	"context"

	"github.com/warp/taproom/pos"
)

// Watch emits compute's result once, then again after every batch of
// changes to the given collections. Changes that arrive while a snapshot
// is being computed are folded into the next one. Returns nil when ctx
// ends, or the first error from compute or emit.
func Watch[T any](
	ctx context.Context,
	hub *Hub,
	compute func(context.Context) (T, error),
	emit func(T) error,
	collections ...pos.Collection,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	changes := hub.Subscribe(ctx, collections...)

	refresh := func() error {
		v, err := compute(ctx)
		if err != nil {
			return err
		}
		return emit(v)
	}

	if err := refresh(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			drain(changes)
			if err := refresh(); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

func drain(ch <-chan pos.Change) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
