package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"skiff/internal/agent"
	"skiff/internal/config"
	"skiff/internal/logger"
	"skiff/internal/prompt"
	"skiff/internal/scheduler"
	"skiff/internal/store"
	livehttp "skiff/internal/transport/http/live"
)

// App 负责应用级编排：配置→依赖→决策循环与监控面板的启停。
type App struct {
	cfg     *config.Config
	log     *logger.Logger
	store   store.Store
	system  *prompt.SystemLoader
	service *agent.Service
	panel   *livehttp.Server

	interval time.Duration
	offset   time.Duration
}

// Run 启动决策循环与面板，阻塞到 ctx 取消或组件出错。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.Close()

	a.printStartup()

	// 启动前校验凭据可用，认证失败早退而不是在首轮循环里反复报错。
	if err := a.service.CheckBalance(ctx); err != nil {
		return fmt.Errorf("启动自检失败: %w", err)
	}

	group, ctx := errgroup.WithContext(ctx)

	if a.panel != nil {
		group.Go(func() error {
			if err := a.panel.Start(ctx); err != nil {
				return fmt.Errorf("panel server error: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		a.runLoop(ctx)
		return nil
	})

	err := group.Wait()
	a.service.LogStatistics(context.Background())
	return err
}

// runLoop 按K线边界驱动决策周期。RunImmediately 时先跑一轮再对齐。
func (a *App) runLoop(ctx context.Context) {
	if !a.cfg.Schedule.RunImmediately {
		wait := scheduler.WaitDuration(time.Now(), a.interval, a.offset, scheduler.DefaultFloor)
		a.log.Infof("等待下一个K线边界: %s", wait.Round(time.Second))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
	sched := scheduler.New(ctx, a.interval, a.offset)
	sched.Run(func() {
		a.service.RunCycle(ctx)
	})
}

// Close 释放持有资源。可重复调用。
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.system != nil {
		_ = a.system.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

func (a *App) printStartup() {
	mode := "实盘"
	if a.cfg.Exchange.Simulated {
		mode = "模拟盘"
	}
	a.log.Infof("========================================")
	a.log.Infof("Skiff 启动 [%s]", mode)
	a.log.Infof("交易对: %s | 周期: %s/%s | 模型: %s", a.cfg.Trading.InstID(), a.cfg.Schedule.Interval, a.cfg.Schedule.SlowInterval, a.cfg.AI.Model)
	a.log.Infof("最低置信度: %d | 最小交易单位: %g", a.cfg.AI.MinConfidence, a.cfg.Trading.MinTradeUnit)
	if a.panel != nil {
		a.log.Infof("监控面板: %s", a.panel.Addr())
	}
	a.log.Infof("========================================")
}
