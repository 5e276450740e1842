package captcha

import (
	"context"
	"math/rand"
	"runtime"

	"github.com/leeforge/captcha/concurrency"
)

// BatchOptions 批量渲染参数
type BatchOptions struct {
	Profile string
	Count   int
	// Seed 第 i 张图使用 Seed+i 作为随机种子，结果与调度顺序无关
	Seed    int64
	Workers int
}

// BatchFunc renders opts.Count captchas on a worker pool and hands each one to fn.
// fn is called from several goroutines. The first error stops the batch.
func (e *Engine) BatchFunc(ctx context.Context, opts BatchOptions, fn func(index int, res Result) error) error {
	if opts.Count <= 0 {
		return nil
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	pool := concurrency.NewWorkerPool(ctx, workers, workers*2)
	pool.Start()

	for i := 0; i < opts.Count; i++ {
		index := i
		job := concurrency.JobFunc(func(ctx context.Context) error {
			r := rand.New(rand.NewSource(opts.Seed + int64(index)))
			res, err := e.RenderProfile(opts.Profile, WithRand(r))
			if err != nil {
				return err
			}
			return fn(index, res)
		})
		if err := pool.Submit(job); err != nil {
			break
		}
	}

	return pool.Stop()
}

// Batch renders opts.Count captchas and returns them in index order.
func (e *Engine) Batch(ctx context.Context, opts BatchOptions) ([]Result, error) {
	if opts.Count <= 0 {
		return nil, nil
	}

	results := make([]Result, opts.Count)
	err := e.BatchFunc(ctx, opts, func(index int, res Result) error {
		results[index] = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
