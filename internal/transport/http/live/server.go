package livehttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"skiff/internal/gateway/okx"
	"skiff/internal/logger"
	"skiff/internal/store"
)

// Server 提供只读监控面板（余额/交易记录/统计/最新状态）。
// 不暴露任何下单入口，面板被攻破也动不了仓位。
type Server struct {
	addr   string
	router *gin.Engine
}

// BalanceSource 面板读取实时余额、价格与成交记录的最小接口。
type BalanceSource interface {
	GetBalance(ctx context.Context, base, quote string) (okx.Balance, error)
	GetTicker(ctx context.Context, instID string) (okx.Ticker, error)
	GetFillHistory(ctx context.Context, instID string, limit int) ([]okx.Fill, error)
}

// ServerConfig 描述面板服务依赖。
type ServerConfig struct {
	Addr     string
	Token    string
	Store    store.Store
	Exchange BalanceSource
	Config   ConfigView
	Log      *logger.Logger
}

// NewServer 构建面板 HTTP server。
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("panel server requires a store")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(cfg.Log))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r := &Router{
		Store:    cfg.Store,
		Exchange: cfg.Exchange,
		Config:   cfg.Config,
		Symbol:   cfg.Config.Symbol,
		Base:     cfg.Config.BaseAsset,
		Quote:    cfg.Config.QuoteAsset,
		log:      cfg.Log,
	}
	api := router.Group("/api")
	if cfg.Token != "" {
		api.Use(tokenAuth(cfg.Token))
	}
	r.Register(api)

	return &Server{addr: cfg.Addr, router: router}, nil
}

// Addr 返回监听地址。
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Handler 返回底层 http.Handler，供测试直接挂 httptest。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 启动 HTTP 服务，直到 ctx 取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

// tokenAuth 校验 X-Panel-Token 请求头。token 为空时不注册本中间件。
func tokenAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-Panel-Token") != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
			return
		}
		c.Next()
	}
}

// requestLogger 记录面板访问，便于追踪刷新与调用。
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		client := c.ClientIP()
		c.Next()
		log.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, path, c.Writer.Status(), client, time.Since(start))
	}
}
