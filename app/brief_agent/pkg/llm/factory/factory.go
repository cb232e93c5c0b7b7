package factory

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/time/rate"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/config"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/llm"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/llm/gemini"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/llm/openai"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
)

// minKeyLength 比任何真实 provider 的 key 都短
const minKeyLength = 16

// Selection 后端选择结果
type Selection struct {
	Backend llm.Backend
	// Fallback 非空时表示请求的外部后端不可用，值为原因
	Fallback string
}

// Select 根据模式与凭据选择后端；从不返回错误，无法满足时回退到确定性后端
func Select(ctx context.Context, mode model.Mode, creds config.Credentials, cfg *config.Config, limiter *rate.Limiter) Selection {
	det := llm.NewDeterministic()
	if mode == model.ModeDemo {
		return Selection{Backend: det}
	}
	if !mode.Known() {
		return Selection{Backend: det, Fallback: fmt.Sprintf("unknown mode %q", mode)}
	}

	key := creds.For(string(mode))
	if !WellFormed(key) {
		reason := "credential missing"
		if key != "" {
			reason = "credential malformed"
		}
		return Selection{Backend: det, Fallback: fmt.Sprintf("%s: %s", mode, reason)}
	}

	b, err := newExternal(ctx, mode, key, cfg, limiter)
	if err != nil {
		return Selection{Backend: det, Fallback: fmt.Sprintf("%s: %v", mode, err)}
	}
	return Selection{Backend: b}
}

func newExternal(ctx context.Context, mode model.Mode, key string, cfg *config.Config, limiter *rate.Limiter) (llm.Backend, error) {
	timeout := time.Duration(cfg.LLM.Timeout) * time.Second
	switch mode {
	case model.ModeOpenAI:
		return openai.NewClient(ctx, openai.Config{
			Name:    string(model.ModeOpenAI),
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  key,
			Model:   cfg.LLM.Model(string(model.ModeOpenAI)),
			Timeout: timeout,
		}, limiter)

	case model.ModeAnthropic:
		return openai.NewClient(ctx, openai.Config{
			Name:    string(model.ModeAnthropic),
			BaseURL: cfg.LLM.AnthropicBaseURL,
			APIKey:  key,
			Model:   cfg.LLM.Model(string(model.ModeAnthropic)),
			Timeout: timeout,
		}, limiter)

	case model.ModeGemini:
		return gemini.NewClient(ctx, key, cfg.LLM.Model(string(model.ModeGemini)), timeout, limiter)

	default:
		return nil, fmt.Errorf("unknown llm provider: %s", mode)
	}
}

// WellFormed 判断凭据格式：非空、不含空白、长度不少于 16
func WellFormed(key string) bool {
	if len(key) < minKeyLength {
		return false
	}
	return !strings.ContainsFunc(key, unicode.IsSpace)
}

// NewLimiter 按配置创建共享限流器
func NewLimiter(cfg config.ConcurrencyConfig) *rate.Limiter {
	limit := rate.Limit(float64(cfg.RPM) / 60.0)
	burst := cfg.QPS
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(limit, burst)
}
