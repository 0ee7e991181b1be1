package agent

import "sync"

// Memory 保存进程内的最后买入记录，成交记录不可用时作为成本兜底。
// 重启后丢失，这正是成本链路还需要数据库兜底的原因。
type Memory struct {
	mu           sync.Mutex
	lastBuyPrice float64
	lastBuySize  float64
}

func (m *Memory) SetPosition(price, size float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastBuyPrice = price
	m.lastBuySize = size
}

func (m *Memory) ClearPosition() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastBuyPrice = 0
	m.lastBuySize = 0
}

func (m *Memory) LastBuyPrice() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastBuyPrice
}
