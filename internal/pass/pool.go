package pass

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
)

// maxWorkers 工作协程数上限
const maxWorkers = 256

// Pool 有界工作协程池
//
// 每个任务按下标写入自己的结果槽，输出顺序与调度顺序无关。
type Pool struct {
	workers int

	executed atomic.Int64
	failed   atomic.Int64
}

// NewPool 创建协程池；workers <= 0 时使用 CPU 核心数
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	return &Pool{workers: workers}
}

// NumWorkers 工作协程数量
func (p *Pool) NumWorkers() int { return p.workers }

// Executed 已执行的任务数
func (p *Pool) Executed() int64 { return p.executed.Load() }

// Failed 返回错误的任务数
func (p *Pool) Failed() int64 { return p.failed.Load() }

// Run 以下标 0..n-1 执行 job，等待全部完成
//
// 返回的错误按下标顺序聚合。ctx 被取消后不再分发新任务。
func (p *Pool) Run(ctx context.Context, n int, job func(i int) error) error {
	if n == 0 {
		return nil
	}
	workers := p.workers
	if workers > n {
		workers = n
	}

	errs := make([]error, n)
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				p.executed.Inc()
				if err := job(i); err != nil {
					p.failed.Inc()
					errs[i] = err
				}
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return multierr.Append(ctx.Err(), multierr.Combine(errs...))
}
