// Package position reconstructs the FIFO cost basis of a spot position
// from the exchange fill ledger.
package position

// 中文说明：
// 用成交记录回放持仓：BUY 追加批次到队尾，SELL 从队头按先进先出扣减。
// 回放后幸存批次的加权均价即当前持仓成本。纯函数，不做任何 I/O。

const (
	// Epsilon 数值比较阈值，与最小可交易单位同量级。
	Epsilon = 1e-8
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Fill 一笔不可变成交，交易所按从新到旧返回。
type Fill struct {
	Side  Side
	Size  float64
	Price float64
	Time  int64
}

// Lot 幸存的买入批次（未卖出或部分卖出）。
type Lot struct {
	Size  float64
	Price float64
}

// Result FIFO 回放结果。每个周期从成交账本重算，不持久化。
type Result struct {
	HasPosition   bool
	Amount        float64 // 交易所实际余额
	AvgPrice      float64 // 幸存批次加权均价
	AccountedSize float64 // 幸存批次合计数量
	LotCount      int     // 幸存批次数
	FillCount     int     // 参与回放的 BUY 笔数
}

// Compute 按当前余额与成交记录（从新到旧）计算 FIFO 成本。
// 余额低于尘埃阈值→无持仓；幸存队列为空但余额为正→同样报告无持仓，
// 由调用方走其余成本来源，绝不在这里猜测。
func Compute(balance float64, newestFirst []Fill) Result {
	if balance <= Epsilon {
		return Result{}
	}
	if len(newestFirst) == 0 {
		return Result{Amount: balance}
	}

	queue := replay(newestFirst)

	var totalCost, totalSize float64
	for _, lot := range queue {
		totalCost += lot.Size * lot.Price
		totalSize += lot.Size
	}
	if totalSize <= Epsilon {
		return Result{Amount: balance}
	}

	buys := 0
	for _, f := range newestFirst {
		if f.Side == SideBuy {
			buys++
		}
	}
	return Result{
		HasPosition:   true,
		Amount:        balance,
		AvgPrice:      totalCost / totalSize,
		AccountedSize: totalSize,
		LotCount:      len(queue),
		FillCount:     buys,
	}
}

// replay 从旧到新回放成交，返回幸存批次队列（队头最旧）。
func replay(newestFirst []Fill) []Lot {
	var queue []Lot
	for i := len(newestFirst) - 1; i >= 0; i-- {
		f := newestFirst[i]
		switch f.Side {
		case SideBuy:
			if f.Size > 0 && f.Price > 0 {
				queue = append(queue, Lot{Size: f.Size, Price: f.Price})
			}
		case SideSell:
			queue = consume(queue, f.Size)
		}
	}
	return queue
}

// consume 从队头扣减卖出数量。部分覆盖时缩小队头批次；
// 剩余待卖 ≤ Epsilon 视为完全覆盖，吸收浮点漂移，批次数量不会为负。
func consume(queue []Lot, sellSize float64) []Lot {
	remaining := sellSize
	for remaining > Epsilon && len(queue) > 0 {
		head := &queue[0]
		if head.Size <= remaining+Epsilon {
			remaining -= head.Size
			queue = queue[1:]
			continue
		}
		head.Size -= remaining
		remaining = 0
	}
	return queue
}
