package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"skiff/internal/analysis/indicator"
	"skiff/internal/config"
	"skiff/internal/gateway/okx"
	livehttp "skiff/internal/transport/http/live"
)

// skiffdiag 是上线前的连通性自检工具：
// 依次验证配置、OKX 凭据、行情接口与指标计算，
// 加 -test-buy 时再用最小金额走一遍真实下单链路。

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	testBuy := flag.Bool("test-buy", false, "执行一笔最小金额的真实买入以验证交易链路")
	buyUSDT := flag.Float64("buy-usdt", 5, "测试买入金额（USDT）")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}

	fmt.Println("=== 配置 ===")
	fmt.Printf("交易对: %s  周期: %s/%s\n", cfg.Trading.InstID(), cfg.Schedule.Interval, cfg.Schedule.SlowInterval)
	fmt.Printf("模型: %s  最低置信度: %d\n", cfg.AI.Model, cfg.AI.MinConfidence)
	fmt.Printf("OKX key: %s  模拟盘: %v\n", livehttp.MaskSecret(cfg.Exchange.APIKey), cfg.Exchange.Simulated)
	fmt.Printf("AI key: %s\n", livehttp.MaskSecret(cfg.AI.APIKey))

	client, err := okx.NewClient(okx.Config{
		APIKey:     cfg.Exchange.APIKey,
		SecretKey:  cfg.Exchange.SecretKey,
		Passphrase: cfg.Exchange.Passphrase,
		BaseURL:    cfg.Exchange.BaseURL,
		Simulated:  cfg.Exchange.Simulated,
		Timeout:    time.Duration(cfg.Exchange.TimeoutSeconds) * time.Second,
		Proxy:      cfg.Exchange.Proxy,
	})
	if err != nil {
		log.Fatalf("初始化 OKX 客户端失败: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	instID := cfg.Trading.InstID()
	failed := 0

	fmt.Println("\n=== 账户 ===")
	bal, err := client.GetBalance(ctx, cfg.Trading.BaseAsset, cfg.Trading.QuoteAsset)
	if err != nil {
		failed++
		fmt.Printf("✗ 余额查询失败: %v\n", err)
	} else {
		fmt.Printf("✓ USDT: %.2f  %s: %.8f\n", bal.AvailableUSDT, cfg.Trading.BaseAsset, bal.AvailableAsset)
	}

	fmt.Println("\n=== 行情 ===")
	ticker, err := client.GetTicker(ctx, instID)
	if err != nil {
		failed++
		fmt.Printf("✗ 价格查询失败: %v\n", err)
	} else {
		fmt.Printf("✓ %s 最新价: %.2f\n", instID, ticker.Last)
	}

	inst, err := client.GetInstrument(ctx, instID)
	if err != nil {
		fmt.Printf("✗ 合约规格查询失败: %v\n", err)
	} else {
		fmt.Printf("✓ 最小下单量: %.8f  数量步长: %.8f\n", inst.MinSize, inst.LotSize)
		if ticker.Last > 0 && inst.MinSize > 0 {
			minValue := decimal.NewFromFloat(inst.MinSize).Mul(decimal.NewFromFloat(ticker.Last))
			fmt.Printf("  按现价折算最小下单金额 ≈ %s USDT\n", minValue.Round(2))
		}
	}

	fmt.Println("\n=== 指标 ===")
	candles, err := client.GetCandles(ctx, instID, cfg.Schedule.Interval, cfg.Schedule.CandleLimit)
	if err != nil {
		failed++
		fmt.Printf("✗ K线查询失败: %v\n", err)
	} else {
		rep, err := indicator.ComputeAll(candles, indicator.Settings{Symbol: instID, Interval: cfg.Schedule.Interval})
		if err != nil {
			fmt.Printf("✗ 指标计算失败: %v\n", err)
		} else {
			fmt.Println(rep.Summary())
		}
	}

	if *testBuy {
		fmt.Println("\n=== 测试买入 ===")
		if !confirm(fmt.Sprintf("将以市价买入 %.2f USDT 的 %s，确认? [y/N] ", *buyUSDT, instID)) {
			fmt.Println("已取消")
		} else {
			sz := decimal.NewFromFloat(*buyUSDT).Round(2).String()
			result, err := client.PlaceMarketOrder(ctx, instID, "buy", sz, okx.TgtQuote)
			if err != nil {
				failed++
				fmt.Printf("✗ 下单失败: %v\n", err)
			} else {
				fmt.Printf("✓ 已提交订单: %s\n", result.OrderID)
				time.Sleep(time.Second)
				if order, err := client.GetOrder(ctx, instID, result.OrderID); err == nil {
					fmt.Printf("  状态: %s  均价: %.2f  成交量: %.8f\n", order.State, order.AvgPrice, order.FilledSize)
				}
			}
		}
	}

	if failed > 0 {
		fmt.Printf("\n自检未通过，失败项: %d\n", failed)
		os.Exit(1)
	}
	fmt.Println("\n自检通过")
}

func confirm(tip string) bool {
	fmt.Print(tip)
	var answer string
	if _, err := fmt.Scanln(&answer); err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}
