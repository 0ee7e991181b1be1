package okx

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"skiff/internal/pkg/convert"
)

// GetBalance 查询交易账户中计价币与基础币的可用余额。
func (c *Client) GetBalance(ctx context.Context, baseAsset, quoteAsset string) (Balance, error) {
	var rows []struct {
		Details []struct {
			Ccy      string `json:"ccy"`
			AvailBal string `json:"availBal"`
		} `json:"details"`
	}
	ccy := url.QueryEscape(quoteAsset + "," + baseAsset)
	if err := c.doRequest(ctx, http.MethodGet, "/api/v5/account/balance?ccy="+ccy, nil, &rows); err != nil {
		return Balance{}, err
	}
	if len(rows) == 0 {
		return Balance{}, fmt.Errorf("okx balance 返回为空")
	}
	b := Balance{UpdatedAt: time.Now()}
	for _, d := range rows[0].Details {
		avail, err := convert.ParseFloat(d.AvailBal)
		if err != nil {
			continue
		}
		switch strings.ToUpper(d.Ccy) {
		case strings.ToUpper(quoteAsset):
			b.AvailableUSDT = avail
		case strings.ToUpper(baseAsset):
			b.AvailableAsset = avail
		}
	}
	return b, nil
}

// GetFillHistory 查询现货成交明细，按交易所顺序返回（从新到旧）。
func (c *Client) GetFillHistory(ctx context.Context, instID string, limit int) ([]Fill, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []struct {
		InstID  string `json:"instId"`
		Side    string `json:"side"`
		FillSz  string `json:"fillSz"`
		FillPx  string `json:"fillPx"`
		FillTme string `json:"ts"`
	}
	path := fmt.Sprintf("/api/v5/trade/fills?instType=SPOT&instId=%s&limit=%d", url.QueryEscape(instID), limit)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}
	out := make([]Fill, 0, len(rows))
	for _, r := range rows {
		size, err1 := convert.ParseFloat(r.FillSz)
		price, err2 := convert.ParseFloat(r.FillPx)
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, Fill{
			InstID: r.InstID,
			Side:   strings.ToLower(r.Side),
			Size:   size,
			Price:  price,
			Ts:     parseMillis(r.FillTme),
		})
	}
	return out, nil
}
