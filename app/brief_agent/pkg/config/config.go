package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Credentials Credentials       `yaml:"credentials"`
	Brief       BriefConfig       `yaml:"brief"`
	Cache       CacheConfig       `yaml:"cache"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Notify      NotifyConfig      `yaml:"notify"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	Models           map[string]string `yaml:"provider_models"`
	BaseURL          string            `yaml:"base_url"`
	AnthropicBaseURL string            `yaml:"anthropic_base_url"`
	Timeout          int               `yaml:"timeout"` // 秒
	Language         string            `yaml:"language"`
}

// Model 返回指定 provider 的模型名
func (c LLMConfig) Model(provider string) string {
	if m := c.Models[provider]; m != "" {
		return m
	}
	return defaultModels[provider]
}

// Credentials 外部后端的 API Key
type Credentials struct {
	OpenAI    string `yaml:"openai_api_key"`
	Gemini    string `yaml:"gemini_api_key"`
	Anthropic string `yaml:"anthropic_api_key"`
}

// BriefConfig 简报生成相关配置
type BriefConfig struct {
	MaxIR        int    `yaml:"max_ir"`
	MaxNews      int    `yaml:"max_news"`
	DataDir      string `yaml:"data_dir"`
	OutputDir    string `yaml:"output_dir"`
	ParallelLoad bool   `yaml:"parallel_load"`
}

// CacheConfig 生成结果缓存配置
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Dir      string `yaml:"dir"`
	TTLHours int    `yaml:"ttl_hours"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	RunLog string `yaml:"run_log"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// NotifyConfig 通知配置
type NotifyConfig struct {
	Email EmailConfig `yaml:"email"`
}

// EmailConfig SMTP 配置
type EmailConfig struct {
	Enabled    bool   `yaml:"enabled"`
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	SMTPUser   string `yaml:"smtp_user"`
	SMTPPass   string `yaml:"smtp_pass"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

var defaultModels = map[string]string{
	"openai":    "gpt-4o-mini",
	"gemini":    "gemini-2.0-flash",
	"anthropic": "claude-3-5-haiku-latest",
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Models:           map[string]string{},
			AnthropicBaseURL: "https://api.anthropic.com/v1/",
			Timeout:          30,
			Language:         "en",
		},
		Brief: BriefConfig{
			MaxIR:        3,
			MaxNews:      5,
			DataDir:      "data",
			OutputDir:    "output",
			ParallelLoad: true,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Dir:      ".cache",
			TTLHours: 24,
		},
		Log: LogConfig{
			Level:  "info",
			File:   "logs/brief_agent.log",
			RunLog: "logs/runs.jsonl",
		},
		Concurrency: ConcurrencyConfig{QPS: 1, RPM: 60},
		Notify: NotifyConfig{
			Email: EmailConfig{SMTPPort: 587},
		},
	}
}

// LoadConfig 从指定路径加载配置，文件不存在时使用默认配置
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

// fillDefaults 补齐 YAML 中缺省或非法的数值
func (c *Config) fillDefaults() {
	d := Default()
	if c.LLM.Models == nil {
		c.LLM.Models = map[string]string{}
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = d.LLM.Timeout
	}
	if c.LLM.AnthropicBaseURL == "" {
		c.LLM.AnthropicBaseURL = d.LLM.AnthropicBaseURL
	}
	if c.Brief.MaxIR <= 0 {
		c.Brief.MaxIR = d.Brief.MaxIR
	}
	if c.Brief.MaxNews <= 0 {
		c.Brief.MaxNews = d.Brief.MaxNews
	}
	if c.Brief.DataDir == "" {
		c.Brief.DataDir = d.Brief.DataDir
	}
	if c.Brief.OutputDir == "" {
		c.Brief.OutputDir = d.Brief.OutputDir
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = d.Cache.Dir
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = d.Cache.TTLHours
	}
	if c.Concurrency.QPS <= 0 {
		c.Concurrency.QPS = d.Concurrency.QPS
	}
	if c.Concurrency.RPM <= 0 {
		c.Concurrency.RPM = d.Concurrency.RPM
	}
}

// ResolveCredentials 读取一次凭据：配置文件优先级低于环境变量
func ResolveCredentials(cfg *Config) Credentials {
	creds := cfg.Credentials
	if v, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
		creds.OpenAI = v
	}
	if v, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
		creds.Gemini = v
	}
	if v, ok := os.LookupEnv("ANTHROPIC_API_KEY"); ok {
		creds.Anthropic = v
	}
	creds.OpenAI = strings.TrimSpace(creds.OpenAI)
	creds.Gemini = strings.TrimSpace(creds.Gemini)
	creds.Anthropic = strings.TrimSpace(creds.Anthropic)
	return creds
}

// For 返回指定 provider 的凭据
func (c Credentials) For(provider string) string {
	switch provider {
	case "openai":
		return c.OpenAI
	case "gemini":
		return c.Gemini
	case "anthropic":
		return c.Anthropic
	}
	return ""
}
