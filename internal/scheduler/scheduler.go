package scheduler

import (
	"context"
	"time"
)

// AlignedScheduler drives one task per kline interval, waking right after
// each candle closes so decisions always see freshly closed market data.
type AlignedScheduler struct {
	Interval time.Duration
	Offset   time.Duration
	// Floor 最短休眠时长，贴近边界时避免空转（缺省 10s）。
	Floor time.Duration

	ctx   context.Context
	nowFn func() time.Time
}

const DefaultFloor = 10 * time.Second

func New(ctx context.Context, interval, offset time.Duration) *AlignedScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &AlignedScheduler{
		Interval: interval,
		Offset:   offset,
		Floor:    DefaultFloor,
		ctx:      ctx,
		nowFn:    time.Now,
	}
}

// NextWake 计算下一个对齐唤醒时刻：下一根K线的起点（UTC 截断 + 周期）。
func NextWake(now time.Time, interval time.Duration) time.Time {
	return now.UTC().Truncate(interval).Add(interval)
}

// WaitDuration 距下一次唤醒的休眠时长，下限为 floor。
func WaitDuration(now time.Time, interval, offset, floor time.Duration) time.Duration {
	wait := NextWake(now, interval).Add(offset).Sub(now.UTC())
	if wait < floor {
		wait = floor
	}
	return wait
}

// Run 阻塞执行：每个对齐边界调用一次 task，ctx 取消时在休眠边界退出。
// task 的错误由调用方内部消化，这里不中断循环。
func (s *AlignedScheduler) Run(task func()) {
	if s == nil || task == nil || s.Interval <= 0 {
		return
	}
	if s.Offset < 0 {
		s.Offset = 0
	}
	if s.Floor <= 0 {
		s.Floor = DefaultFloor
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}
	for {
		task()

		wait := WaitDuration(s.nowFn(), s.Interval, s.Offset, s.Floor)
		timer := time.NewTimer(wait)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
