package plink

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Executor runs chunk decoding tasks. Execute returns the first error, and
// stops scheduling further tasks once one has failed or ctx is done.
type Executor interface {
	Execute(ctx context.Context, tasks []func(context.Context) error) error
}

// Synchronous runs tasks one after another on the calling goroutine.
type Synchronous struct{}

func (Synchronous) Execute(ctx context.Context, tasks []func(context.Context) error) error {
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := task(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ThreadPool runs up to Workers tasks concurrently. Workers <= 0 means no
// limit.
type ThreadPool struct {
	Workers int
}

func (p ThreadPool) Execute(ctx context.Context, tasks []func(context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)
	if p.Workers > 0 {
		g.SetLimit(p.Workers)
	}

	for _, task := range tasks {
		task := task
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return task(ctx)
		})
	}

	return g.Wait()
}
