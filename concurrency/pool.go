package concurrency

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/leeforge/captcha/errors"
)

// Job 任务接口
type Job interface {
	Execute(ctx context.Context) error
}

// JobFunc 函数式任务
type JobFunc func(ctx context.Context) error

// Execute 执行函数
func (f JobFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// WorkerPool Worker 池。第一个失败的任务会取消池内剩余任务。
type WorkerPool struct {
	size     int
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc

	mu       sync.Mutex
	err      error
	stopOnce sync.Once
}

// NewWorkerPool 创建 Worker 池
func NewWorkerPool(ctx context.Context, size, queueSize int) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	ctx, cancel := context.WithCancel(ctx)
	return &WorkerPool{
		size:     size,
		jobQueue: make(chan Job, queueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start 启动 Worker 池
func (p *WorkerPool) Start() {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Submit 提交任务，队列满时阻塞，池被取消时返回错误
func (p *WorkerPool) Submit(job Job) error {
	if err := p.ctx.Err(); err != nil {
		return p.cause(err)
	}
	select {
	case p.jobQueue <- job:
		return nil
	case <-p.ctx.Done():
		return p.cause(p.ctx.Err())
	}
}

// TrySubmit 非阻塞提交
func (p *WorkerPool) TrySubmit(job Job) error {
	select {
	case p.jobQueue <- job:
		return nil
	case <-p.ctx.Done():
		return p.cause(p.ctx.Err())
	default:
		return fmt.Errorf("job queue is full")
	}
}

// Stop 停止接收任务，等待已提交的任务完成，返回第一个任务错误
func (p *WorkerPool) Stop() error {
	p.stopOnce.Do(func() {
		close(p.jobQueue)
	})
	p.wg.Wait()

	ctxErr := p.ctx.Err()
	p.cancel()
	return p.cause(ctxErr)
}

// Cancel 取消所有未执行的任务
func (p *WorkerPool) Cancel() {
	p.cancel()
}

// cause prefers the first job error over the context error it triggered.
func (p *WorkerPool) cause(ctxErr error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	return ctxErr
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for job := range p.jobQueue {
		// 已取消时只消费队列，不再执行
		if p.ctx.Err() != nil {
			continue
		}
		if err := p.execute(job); err != nil {
			p.fail(err)
		}
	}
}

func (p *WorkerPool) execute(job Job) (err error) {
	defer func() {
		err = apperrors.ErrorRecover(recover(), err)
	}()
	return job.Execute(p.ctx)
}

func (p *WorkerPool) fail(err error) {
	p.mu.Lock()
	if p.err == nil {
		p.err = err
	}
	p.mu.Unlock()
	p.cancel()
}
