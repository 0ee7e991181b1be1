package livehttp

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"skiff/internal/logger"
	"skiff/internal/position"
	"skiff/internal/store"
)

// Router 暴露机器人运行态的查询接口。
type Router struct {
	Store    store.Store
	Exchange BalanceSource
	Config   ConfigView
	Symbol   string
	Base     string
	Quote    string
	log      *logger.Logger
}

// ConfigView 是 /api/config 返回的脱敏配置快照。
// 密钥在构造时就已截断，handler 拿不到原文。
type ConfigView struct {
	Symbol        string  `json:"symbol"`
	BaseAsset     string  `json:"base_asset"`
	QuoteAsset    string  `json:"quote_asset"`
	Interval      string  `json:"interval"`
	SlowInterval  string  `json:"slow_interval"`
	Model         string  `json:"model"`
	MinConfidence int     `json:"min_confidence"`
	MinTradeUnit  float64 `json:"min_trade_unit"`
	Simulated     bool    `json:"simulated"`
	APIKeyMasked  string  `json:"api_key"`
	AIKeyMasked   string  `json:"ai_api_key"`
}

// MaskSecret 保留前 4 位，其余以 **** 替代；过短的直接全遮。
func MaskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}

// Register 将查询路由挂载到给定分组下。
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/balance", r.handleBalance)
	group.GET("/trades", r.handleTrades)
	group.GET("/statistics", r.handleStatistics)
	group.GET("/status", r.handleStatus)
	group.GET("/config", r.handleConfig)
}

func (r *Router) handleBalance(c *gin.Context) {
	if r.Exchange == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "交易所接口未启用"})
		return
	}
	reqCtx := c.Request.Context()
	callCtx, cancel := context.WithTimeout(reqCtx, 5*time.Second)
	defer cancel()
	bal, err := r.Exchange.GetBalance(callCtx, r.Base, r.Quote)
	if err != nil {
		r.log.Errorf("[api] balance failed ip=%s err=%v", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	resp := gin.H{
		"usdt":  bal.AvailableUSDT,
		"asset": bal.AvailableAsset,
	}
	var price float64
	if ticker, err := r.Exchange.GetTicker(callCtx, r.Symbol); err == nil {
		price = ticker.Last
		resp["price"] = price
		resp["total_value"] = bal.AvailableUSDT + bal.AvailableAsset*price
	}
	// 持仓成本走成交记录 FIFO 回放，算不出就不展示，不猜。
	if pos := r.costBasis(callCtx, bal.AvailableAsset); pos != nil {
		resp["avg_cost"] = pos.AvgPrice
		if price > 0 {
			resp["unrealized_pnl"] = (price - pos.AvgPrice) * bal.AvailableAsset
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (r *Router) costBasis(ctx context.Context, balance float64) *position.Result {
	raw, err := r.Exchange.GetFillHistory(ctx, r.Symbol, 100)
	if err != nil {
		r.log.Warnf("[api] fill history failed: %v", err)
		return nil
	}
	fills := make([]position.Fill, 0, len(raw))
	for _, f := range raw {
		side := position.SideBuy
		if f.Side == "sell" {
			side = position.SideSell
		}
		fills = append(fills, position.Fill{Side: side, Size: f.Size, Price: f.Price, Time: f.Ts.UnixMilli()})
	}
	res := position.Compute(balance, fills)
	if !res.HasPosition || res.AvgPrice <= 0 {
		return nil
	}
	return &res
}

func (r *Router) handleTrades(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	trades, err := r.Store.RecentTrades(c.Request.Context(), limit)
	if err != nil {
		r.log.Errorf("[api] trades failed ip=%s err=%v", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades, "count": len(trades)})
}

func (r *Router) handleStatistics(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := r.Store.Statistics(ctx)
	if err != nil {
		r.log.Errorf("[api] statistics failed ip=%s err=%v", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	perf, err := r.Store.Performance(ctx, 10)
	if err != nil {
		r.log.Warnf("[api] performance failed ip=%s err=%v", c.ClientIP(), err)
	}
	c.JSON(http.StatusOK, gin.H{
		"total_trades": stats.TotalTrades,
		"buy_count":    stats.BuyCount,
		"sell_count":   stats.SellCount,
		"total_profit": stats.TotalProfit,
		"avg_profit":   stats.AvgProfit,
		"best_profit":  stats.BestProfit,
		"worst_profit": stats.WorstProfit,
		"win_rate":     perf.WinRate,
	})
}

func (r *Router) handleStatus(c *gin.Context) {
	st, err := r.Store.LatestStatus(c.Request.Context())
	if err != nil {
		r.log.Errorf("[api] status failed ip=%s err=%v", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if st == nil {
		c.JSON(http.StatusOK, gin.H{"status": nil})
		return
	}
	var decision any
	if len(st.Decision) > 0 {
		if err := json.Unmarshal(st.Decision, &decision); err != nil {
			decision = string(st.Decision)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"timestamp":     st.Timestamp,
		"price":         st.Price,
		"balance_usdt":  st.BalanceUSDT,
		"balance_asset": st.BalanceAsset,
		"total_value":   st.TotalValue,
		"decision":      decision,
		"trace_id":      st.TraceID,
	})
}

func (r *Router) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, r.Config)
}
