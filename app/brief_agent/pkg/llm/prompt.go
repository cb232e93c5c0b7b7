package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
)

// SystemPrompt 外部后端的系统提示
const SystemPrompt = "You are a JSON generator for equity research briefs. Output a single JSON object and nothing else."

// BuildPrompt 构造用户提示
func BuildPrompt(in *Input) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a financial analyst writing a short company brief for %s as of %s.\n", in.Request.Ticker, in.Request.Date)
	if in.Profile != nil {
		fmt.Fprintf(&sb, "Company: %s (%s).\n", in.Profile.Name, in.Profile.Market)
	}
	if in.Language == model.LangFI {
		sb.WriteString("Write every text value in Finnish.\n")
	} else {
		sb.WriteString("Write every text value in English.\n")
	}

	sb.WriteString("\nIR releases:\n")
	writeItems(&sb, in.IR)
	sb.WriteString("\nNews:\n")
	writeItems(&sb, in.News)

	sb.WriteString(`
Return JSON with exactly these keys:
{
  "summary_bullets": ["3 to 6 key takeaways"],
  "drivers": ["3 growth drivers"],
  "risks": ["3 key risks"],
  "limitations": ["caveats about this analysis"]
}
Each entry must be a single line of plain text without Markdown.
`)

	if len(in.Guidance) > 0 {
		sb.WriteString("\nThe previous answer was rejected for these reasons; fix all of them:\n")
		for _, g := range in.Guidance {
			fmt.Fprintf(&sb, "- %s\n", g)
		}
	}
	return sb.String()
}

func writeItems(sb *strings.Builder, items []model.RawItem) {
	if len(items) == 0 {
		sb.WriteString("No items available.\n")
		return
	}
	for _, it := range items {
		detail := it.Summary
		if detail == "" {
			detail = it.Source
		}
		date := it.Date
		if date == "" {
			date = "undated"
		}
		fmt.Fprintf(sb, "- [%s] %s: %s\n", date, it.Title, detail)
	}
}

// ParseSections 从模型输出中提取 JSON 并校验基本形状
func ParseSections(text string) (*model.GeneratedSections, error) {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")

	// 模型可能在 JSON 前后附带说明文字
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in response", model.ErrBackendMalformedResponse)
	}

	var sec model.GeneratedSections
	if err := json.Unmarshal([]byte(clean[start:end+1]), &sec); err != nil {
		return nil, fmt.Errorf("%w: json unmarshal: %v", model.ErrBackendMalformedResponse, err)
	}

	sec.SummaryBullets = trimAll(sec.SummaryBullets)
	sec.Drivers = trimAll(sec.Drivers)
	sec.Risks = trimAll(sec.Risks)
	sec.Limitations = trimAll(sec.Limitations)

	if len(sec.SummaryBullets) > 6 {
		sec.SummaryBullets = sec.SummaryBullets[:6]
	}
	switch {
	case len(sec.SummaryBullets) < 3:
		return nil, fmt.Errorf("%w: %d summary bullets", model.ErrBackendMalformedResponse, len(sec.SummaryBullets))
	case len(sec.Drivers) == 0:
		return nil, fmt.Errorf("%w: no drivers", model.ErrBackendMalformedResponse)
	case len(sec.Risks) == 0:
		return nil, fmt.Errorf("%w: no risks", model.ErrBackendMalformedResponse)
	case len(sec.Limitations) == 0:
		return nil, fmt.Errorf("%w: no limitations", model.ErrBackendMalformedResponse)
	}
	return &sec, nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Caller 外部调用的限流与超时；每次 Do 只调用一次，失败不重试，由引擎回退
type Caller struct {
	Limiter *rate.Limiter
	Timeout time.Duration
}

// Do 执行一次外部调用；所有失败都归类为 ErrBackendUnavailable
func (c Caller) Do(ctx context.Context, call func(ctx context.Context) (string, error)) (string, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: rate limiter: %v", model.ErrBackendUnavailable, err)
		}
	}
	text, err := c.once(ctx, call)
	if err != nil {
		if isRateLimited(err) {
			return "", fmt.Errorf("%w: rate limited: %v", model.ErrBackendUnavailable, err)
		}
		return "", fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}
	return text, nil
}

func (c Caller) once(ctx context.Context, call func(ctx context.Context) (string, error)) (string, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	return call(ctx)
}

func isRateLimited(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests") || strings.Contains(msg, "resource_exhausted")
}
