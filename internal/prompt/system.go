package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"skiff/internal/logger"
)

// DefaultSystem 是内置系统提示词，磁盘模板缺失时使用。
const DefaultSystem = `你是BTC短线交易AI。基于K线数据（OHLCV）直接分析价格走势和成交量变化。

核心任务：分析K线形态，判断趋势，决定BUY/SELL/HOLD。

关键约束：
- 手续费：每边0.09%，买卖共0.18%
- 最小交易：0.00001 BTC
- 无需计算技术指标，直接从K线形态判断

直接输出JSON：
{"action": "BUY/SELL/HOLD", "confidence": 0-100, "reason": "中文简短理由", "risk_level": "LOW/MEDIUM/HIGH", "suggested_usdt": 金额(BUY时), "suggested_amount": 数量(SELL时)}`

// SystemLoader 从磁盘加载系统提示词模板，并可监听文件热更新。
type SystemLoader struct {
	path string
	log  *logger.Logger

	mu      sync.RWMutex
	current string

	watcher *fsnotify.Watcher
}

// NewSystemLoader 读取模板文件；文件不存在时回落到内置模板。
func NewSystemLoader(dir, name string, log *logger.Logger) *SystemLoader {
	l := &SystemLoader{
		path:    filepath.Join(dir, name),
		log:     log,
		current: DefaultSystem,
	}
	if data, err := os.ReadFile(l.path); err == nil {
		if text := strings.TrimSpace(string(data)); text != "" {
			l.current = text
		}
	}
	return l
}

// System 返回当前系统提示词。
func (l *SystemLoader) System() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Watch 开始监听模板文件变更，写入事件触发重载。
func (l *SystemLoader) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建模板监听失败: %w", err)
	}
	// 监听目录而非文件：编辑器保存往往是 rename+create。
	if err := watcher.Add(filepath.Dir(l.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("监听模板目录失败: %w", err)
	}
	l.watcher = watcher
	go l.watchLoop()
	return nil
}

// Close 停止监听。
func (l *SystemLoader) Close() error {
	if l.watcher == nil {
		return nil
	}
	return l.watcher.Close()
}

func (l *SystemLoader) watchLoop() {
	for {
		select {
		case evt, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != filepath.Clean(l.path) {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			l.reload()
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.log.Warnf("模板监听错误: %v", err)
		}
	}
}

func (l *SystemLoader) reload() {
	data, err := os.ReadFile(l.path)
	if err != nil {
		l.log.Warnf("重载系统提示词失败 (%s): %v", l.path, err)
		return
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		l.log.Warnf("系统提示词模板为空，保留当前版本: %s", l.path)
		return
	}
	l.mu.Lock()
	l.current = text
	l.mu.Unlock()
	l.log.Infof("系统提示词已重载: %s", filepath.Base(l.path))
}
