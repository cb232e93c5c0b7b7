package openai

import (
	"context"
	"fmt"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/llm"
	dm "github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
)

// Config OpenAI 兼容接口配置；Anthropic 通过其 OpenAI 兼容地址接入
type Config struct {
	Name    string
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client 基于 eino ChatModel 的生成后端
type Client struct {
	name   string
	cm     model.BaseChatModel
	caller llm.Caller
}

var _ llm.Backend = (*Client)(nil)

// NewClient 创建客户端
func NewClient(ctx context.Context, cfg Config, limiter *rate.Limiter) (*Client, error) {
	cm, err := einoopenai.NewChatModel(ctx, &einoopenai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}
	return NewWithModel(cfg.Name, cm, limiter, cfg.Timeout), nil
}

// NewWithModel 使用已有的 ChatModel 创建客户端
func NewWithModel(name string, cm model.BaseChatModel, limiter *rate.Limiter, timeout time.Duration) *Client {
	return &Client{
		name: name,
		cm:   cm,
		caller: llm.Caller{
			Limiter: limiter,
			Timeout: timeout,
		},
	}
}

// Name 实现 llm.Backend
func (c *Client) Name() string {
	return c.name
}

// GenerateSections 实现 llm.Backend
func (c *Client) GenerateSections(ctx context.Context, in *llm.Input) (*dm.GeneratedSections, error) {
	messages := []*schema.Message{
		{Role: schema.System, Content: llm.SystemPrompt},
		{Role: schema.User, Content: llm.BuildPrompt(in)},
	}

	text, err := c.caller.Do(ctx, func(ctx context.Context) (string, error) {
		resp, err := c.cm.Generate(ctx, messages)
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}

	sec, err := llm.ParseSections(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}
	return sec, nil
}
