package okx

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"skiff/internal/market"
	"skiff/internal/pkg/convert"
)

const maxCandleLimit = 300

// GetTicker 查询最新成交价。
func (c *Client) GetTicker(ctx context.Context, instID string) (Ticker, error) {
	instID = strings.TrimSpace(instID)
	if instID == "" {
		return Ticker{}, fmt.Errorf("instId is required")
	}
	var rows []struct {
		InstID string `json:"instId"`
		Last   string `json:"last"`
		Ts     string `json:"ts"`
	}
	path := "/api/v5/market/ticker?instId=" + url.QueryEscape(instID)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return Ticker{}, err
	}
	if len(rows) == 0 {
		return Ticker{}, fmt.Errorf("okx ticker 返回为空: %s", instID)
	}
	last, err := convert.ParseFloat(rows[0].Last)
	if err != nil || last <= 0 {
		return Ticker{}, fmt.Errorf("okx ticker 价格无效: %q", rows[0].Last)
	}
	return Ticker{
		InstID: rows[0].InstID,
		Last:   last,
		Ts:     parseMillis(rows[0].Ts),
	}, nil
}

// GetCandles 获取K线。OKX 按从新到旧返回，这里翻转为从旧到新。
func (c *Client) GetCandles(ctx context.Context, instID, interval string, limit int) (market.Candles, error) {
	instID = strings.TrimSpace(instID)
	if instID == "" {
		return nil, fmt.Errorf("instId is required")
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > maxCandleLimit {
		limit = maxCandleLimit
	}
	var rows [][]string
	path := fmt.Sprintf("/api/v5/market/candles?instId=%s&bar=%s&limit=%d",
		url.QueryEscape(instID), url.QueryEscape(toBar(interval)), limit)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}
	out := make(market.Candles, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if len(row) < 6 {
			continue
		}
		open, err1 := convert.ParseFloat(row[1])
		high, err2 := convert.ParseFloat(row[2])
		low, err3 := convert.ParseFloat(row[3])
		closeP, err4 := convert.ParseFloat(row[4])
		vol, err5 := convert.ParseFloat(row[5])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			continue
		}
		ts, _ := convert.ParseFloat(row[0])
		out = append(out, market.Candle{
			Timestamp: int64(ts),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closeP,
			Volume:    vol,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("okx candles 返回为空: %s %s", instID, interval)
	}
	return out, nil
}

// GetInstrument 查询现货产品规格（最小下单数量等）。
func (c *Client) GetInstrument(ctx context.Context, instID string) (Instrument, error) {
	var rows []struct {
		InstID string `json:"instId"`
		MinSz  string `json:"minSz"`
		LotSz  string `json:"lotSz"`
		TickSz string `json:"tickSz"`
	}
	path := "/api/v5/public/instruments?instType=SPOT&instId=" + url.QueryEscape(instID)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return Instrument{}, err
	}
	if len(rows) == 0 {
		return Instrument{}, fmt.Errorf("okx instrument 不存在: %s", instID)
	}
	minSz, _ := convert.ParseFloat(rows[0].MinSz)
	lotSz, _ := convert.ParseFloat(rows[0].LotSz)
	tickSz, _ := convert.ParseFloat(rows[0].TickSz)
	return Instrument{
		InstID:   rows[0].InstID,
		MinSize:  minSz,
		LotSize:  lotSz,
		TickSize: tickSz,
	}, nil
}

func parseMillis(ts string) time.Time {
	ms, err := convert.ParseFloat(ts)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms)).UTC()
}
