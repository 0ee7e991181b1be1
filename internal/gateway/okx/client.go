package okx

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client 封装 OKX v5 REST 接口的签名访问。
type Client struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	secretKey  string
	passphrase string
	simulated  bool
	nowFn      func() time.Time
}

// Config 描述构造 Client 所需的账户与接入参数。
type Config struct {
	APIKey     string
	SecretKey  string
	Passphrase string
	BaseURL    string
	Simulated  bool
	Timeout    time.Duration
	Proxy      string
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" || strings.TrimSpace(cfg.Passphrase) == "" {
		return nil, fmt.Errorf("okx 凭据不完整")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = "https://www.okx.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	if proxy := strings.TrimSpace(cfg.Proxy); proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("解析代理地址失败: %w", err)
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		secretKey:  strings.TrimSpace(cfg.SecretKey),
		passphrase: strings.TrimSpace(cfg.Passphrase),
		simulated:  cfg.Simulated,
		nowFn:      time.Now,
	}, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// SetBaseURL overrides the API host for testing.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = strings.TrimRight(base, "/")
}

// Simulated 返回是否为模拟盘。
func (c *Client) Simulated() bool {
	return c.simulated
}

// envelope 是 OKX v5 所有响应的统一外层。
type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// sign 按 OKX 规范生成请求签名：base64(HMAC-SHA256(ts+method+path+body))。
func (c *Client) sign(timestamp, method, requestPath, body string) string {
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(timestamp + method + requestPath + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload any, out any) error {
	if c == nil || c.httpClient == nil {
		return fmt.Errorf("okx client 未初始化")
	}
	var bodyStr string
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("序列化请求失败: %w", err)
		}
		bodyStr = string(buf)
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("构造请求失败: %w", err)
	}
	// 时间戳使用带毫秒的 ISO8601，签名串包含查询参数。
	timestamp := c.nowFn().UTC().Format("2006-01-02T15:04:05.000Z")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OK-ACCESS-KEY", c.apiKey)
	req.Header.Set("OK-ACCESS-SIGN", c.sign(timestamp, method, path, bodyStr))
	req.Header.Set("OK-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("OK-ACCESS-PASSPHRASE", c.passphrase)
	if c.simulated {
		req.Header.Set("x-simulated-trading", "1")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("调用 okx 失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if len(data) == 0 {
			return fmt.Errorf("okx 返回错误: %s", resp.Status)
		}
		return fmt.Errorf("okx 返回错误(%s): %s", resp.Status, strings.TrimSpace(string(data)))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("解析 okx 响应失败: %w", err)
	}
	if env.Code != "0" {
		return fmt.Errorf("okx 业务错误(code=%s): %s", env.Code, env.Msg)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("解析 okx data 失败: %w", err)
	}
	return nil
}

// toBar 将通用周期字符串转换为 OKX bar 标识（小时/天为大写）。
func toBar(interval string) string {
	s := strings.TrimSpace(interval)
	if strings.HasSuffix(s, "h") || strings.HasSuffix(s, "d") || strings.HasSuffix(s, "w") {
		return strings.ToUpper(s)
	}
	return s
}
