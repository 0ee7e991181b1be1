package okx

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"skiff/internal/pkg/convert"
)

// BUY 市价单以计价币指定规模（花多少 USDT），
// SELL 市价单以基础币指定规模（卖多少 BTC）。
const (
	TgtQuote = "quote_ccy"
	TgtBase  = "base_ccy"
)

type placeOrderRequest struct {
	InstID  string `json:"instId"`
	TdMode  string `json:"tdMode"`
	Side    string `json:"side"`
	OrdType string `json:"ordType"`
	Sz      string `json:"sz"`
	TgtCcy  string `json:"tgtCcy,omitempty"`
}

// PlaceMarketOrder 提交现货市价单。size 的含义由 tgtCcy 决定。
func (c *Client) PlaceMarketOrder(ctx context.Context, instID, side, size, tgtCcy string) (OrderResult, error) {
	side = strings.ToLower(strings.TrimSpace(side))
	if side != "buy" && side != "sell" {
		return OrderResult{}, fmt.Errorf("不支持的订单方向: %s", side)
	}
	req := placeOrderRequest{
		InstID:  instID,
		TdMode:  "cash",
		Side:    side,
		OrdType: "market",
		Sz:      size,
		TgtCcy:  tgtCcy,
	}
	var rows []struct {
		OrdID string `json:"ordId"`
		SCode string `json:"sCode"`
		SMsg  string `json:"sMsg"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v5/trade/order", req, &rows); err != nil {
		return OrderResult{}, err
	}
	if len(rows) == 0 {
		return OrderResult{}, fmt.Errorf("okx 下单无回执")
	}
	if rows[0].SCode != "" && rows[0].SCode != "0" {
		return OrderResult{}, fmt.Errorf("okx 下单失败(sCode=%s): %s", rows[0].SCode, rows[0].SMsg)
	}
	if rows[0].OrdID == "" {
		return OrderResult{}, fmt.Errorf("okx 未返回订单号")
	}
	return OrderResult{OrderID: rows[0].OrdID}, nil
}

// GetOrder 查询订单成交情况。
func (c *Client) GetOrder(ctx context.Context, instID, orderID string) (Order, error) {
	var rows []struct {
		OrdID     string `json:"ordId"`
		State     string `json:"state"`
		AvgPx     string `json:"avgPx"`
		AccFillSz string `json:"accFillSz"`
		FillNotl  string `json:"fillNotionalUsd"`
		Fee       string `json:"fee"`
	}
	path := fmt.Sprintf("/api/v5/trade/order?instId=%s&ordId=%s", url.QueryEscape(instID), url.QueryEscape(orderID))
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return Order{}, err
	}
	if len(rows) == 0 {
		return Order{}, fmt.Errorf("okx 订单不存在: %s", orderID)
	}
	avgPx, _ := convert.ParseFloat(rows[0].AvgPx)
	fillSz, _ := convert.ParseFloat(rows[0].AccFillSz)
	notional, _ := convert.ParseFloat(rows[0].FillNotl)
	fee, _ := convert.ParseFloat(rows[0].Fee)
	return Order{
		OrderID:        rows[0].OrdID,
		State:          rows[0].State,
		AvgPrice:       avgPx,
		FilledSize:     fillSz,
		FilledNotional: notional,
		Fee:            fee,
	}, nil
}
