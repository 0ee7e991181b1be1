package agent

import (
	"context"

	"skiff/internal/gateway/okx"
	"skiff/internal/gateway/provider"
	"skiff/internal/market"
)

// Exchange 是编排层需要的交易所能力，由 okx.Client 实现。
type Exchange interface {
	GetBalance(ctx context.Context, baseAsset, quoteAsset string) (okx.Balance, error)
	GetTicker(ctx context.Context, instID string) (okx.Ticker, error)
	GetCandles(ctx context.Context, instID, interval string, limit int) (market.Candles, error)
	GetFillHistory(ctx context.Context, instID string, limit int) ([]okx.Fill, error)
	PlaceMarketOrder(ctx context.Context, instID, side, size, tgtCcy string) (okx.OrderResult, error)
	GetOrder(ctx context.Context, instID, orderID string) (okx.Order, error)
}

// ModelClient 是编排层需要的模型能力，由 provider.ChatClient 实现。
type ModelClient interface {
	CallWithMessages(ctx context.Context, messages []provider.Message) (provider.Reply, error)
}
