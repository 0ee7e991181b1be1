package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// 中文说明：
// ChatClient：兼容 OpenAI / DeepSeek 的聊天补全接口（/v1/chat/completions）。
// 对 reasoner 类模型额外提取 reasoning_content（思维链）。

// Message 是聊天补全协议中的一条消息。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Reply 是模型回复的归一化结果。
type Reply struct {
	Content   string
	Reasoning string
}

// ChatClient 通过 HTTP 调用聊天补全接口。
type ChatClient struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration

	httpClient *http.Client
}

func NewChatClient(baseURL, apiKey, model string, temperature float64, timeout time.Duration) *ChatClient {
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &ChatClient{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		Model:       model,
		Temperature: temperature,
		Timeout:     timeout,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// SetHTTPClient sets the HTTP client for testing.
func (c *ChatClient) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// endpoint 规范化 BaseURL，避免配置里已带 /chat/completions 导致路径重复。
func (c *ChatClient) endpoint() string {
	url := strings.TrimRight(c.BaseURL, "/")
	if url == "" {
		url = "https://api.openai.com/v1"
	}
	url = strings.TrimSuffix(url, "/chat/completions")
	return url + "/chat/completions"
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// CallWithMessages 发送完整消息序列并返回模型回复。
// reasoner 模型不接受 response_format=json_object，这里按模型名判断。
func (c *ChatClient) CallWithMessages(ctx context.Context, messages []Message) (Reply, error) {
	if len(messages) == 0 {
		return Reply{}, fmt.Errorf("messages 不能为空")
	}
	body := chatRequest{
		Model:       c.Model,
		Messages:    messages,
		Temperature: c.Temperature,
	}
	if !strings.Contains(strings.ToLower(c.Model), "reasoner") {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return Reply{}, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(buf))
	if err != nil {
		return Reply{}, fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	client := c.httpClient
	if client == nil {
		client = &http.Client{Timeout: c.Timeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("调用模型失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var eresp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&eresp)
		msg := strings.TrimSpace(eresp.Error.Message)
		if msg == "" {
			msg = resp.Status
		}
		return Reply{}, fmt.Errorf("模型返回错误(status=%d): %s", resp.StatusCode, msg)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content          string `json:"content"`
				ReasoningContent string `json:"reasoning_content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return Reply{}, fmt.Errorf("解析模型响应失败: %w", err)
	}
	if len(r.Choices) == 0 {
		return Reply{}, fmt.Errorf("模型响应 choices 为空")
	}
	return Reply{
		Content:   r.Choices[0].Message.Content,
		Reasoning: r.Choices[0].Message.ReasoningContent,
	}, nil
}
