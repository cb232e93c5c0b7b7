package gemini

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/llm"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
)

// contentGenerator genai.Models 的最小子集
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client Gemini 生成后端
type Client struct {
	models    contentGenerator
	modelName string
	caller    llm.Caller
}

var _ llm.Backend = (*Client)(nil)

// NewClient 创建 Gemini 客户端
func NewClient(ctx context.Context, apiKey, modelName string, timeout time.Duration, limiter *rate.Limiter) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newWithModels(client.Models, modelName, timeout, limiter), nil
}

func newWithModels(models contentGenerator, modelName string, timeout time.Duration, limiter *rate.Limiter) *Client {
	return &Client{
		models:    models,
		modelName: modelName,
		caller: llm.Caller{
			Limiter: limiter,
			Timeout: timeout,
		},
	}
}

// Name 实现 llm.Backend
func (c *Client) Name() string {
	return string(model.ModeGemini)
}

// GenerateSections 实现 llm.Backend
func (c *Client) GenerateSections(ctx context.Context, in *llm.Input) (*model.GeneratedSections, error) {
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: llm.BuildPrompt(in)}}},
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: llm.SystemPrompt}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema(),
	}

	text, err := c.caller.Do(ctx, func(ctx context.Context) (string, error) {
		resp, err := c.models.GenerateContent(ctx, c.modelName, contents, cfg)
		if err != nil {
			return "", fmt.Errorf("gemini API call failed: %w", err)
		}
		return resp.Text(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	sec, err := llm.ParseSections(text)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return sec, nil
}

func responseSchema() *genai.Schema {
	list := func(desc string) *genai.Schema {
		return &genai.Schema{
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: desc,
		}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary_bullets": list("3 to 6 key takeaways, one line each."),
			"drivers":         list("Growth drivers."),
			"risks":           list("Key risks."),
			"limitations":     list("Caveats about this analysis."),
		},
		Required: []string{"summary_bullets", "drivers", "risks", "limitations"},
	}
}
