package openai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/llm"
	dm "github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
)

// fakeChatModel 模拟 ChatModel
type fakeChatModel struct {
	reply string
	err   error
	got   []*schema.Message
	calls int
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.got = input
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.reply}, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func input() *llm.Input {
	return &llm.Input{
		Request:  dm.BriefRequest{Ticker: "ACME", Date: "2025-06-01", Mode: dm.ModeOpenAI},
		IR:       []dm.RawItem{{Title: "Q1", Source: "Acme IR", Date: "2025-05-30"}},
		News:     []dm.RawItem{{Title: "Rally", Source: "Reuters"}},
		Guidance: []string{"heading missing: ## Risks"},
	}
}

func TestClient_GenerateSections(t *testing.T) {
	fake := &fakeChatModel{reply: `Here you go: {"summary_bullets":["a","b","c"],"drivers":["d"],"risks":["r"],"limitations":["l"]}`}
	c := NewWithModel("openai", fake, nil, time.Second)

	sec, err := c.GenerateSections(context.Background(), input())
	if err != nil {
		t.Fatalf("GenerateSections() error = %v", err)
	}
	if len(sec.SummaryBullets) != 3 || sec.Drivers[0] != "d" {
		t.Errorf("sections = %+v", sec)
	}
	if len(fake.got) != 2 || fake.got[0].Role != schema.System {
		t.Fatalf("messages = %+v", fake.got)
	}
	if !strings.Contains(fake.got[1].Content, "heading missing: ## Risks") {
		t.Error("guidance not forwarded to the prompt")
	}
	if c.Name() != "openai" {
		t.Errorf("Name() = %q", c.Name())
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeChatModel
		want error
	}{
		{name: "transport", fake: &fakeChatModel{err: errors.New("dial tcp: connection refused")}, want: dm.ErrBackendUnavailable},
		{name: "malformed", fake: &fakeChatModel{reply: "I am not JSON"}, want: dm.ErrBackendMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewWithModel("anthropic", tt.fake, nil, time.Second)
			_, err := c.GenerateSections(context.Background(), input())
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClient_RateLimitedMakesOneCall(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("error, status code: 429, message: Too Many Requests")}
	c := NewWithModel("openai", fake, nil, time.Second)

	_, err := c.GenerateSections(context.Background(), input())
	if !errors.Is(err, dm.ErrBackendUnavailable) {
		t.Errorf("error = %v, want ErrBackendUnavailable", err)
	}
	if fake.calls != 1 {
		t.Errorf("Generate calls = %d, want 1", fake.calls)
	}
}
