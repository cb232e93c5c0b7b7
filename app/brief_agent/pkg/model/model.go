package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateLayout 简报日期格式
const DateLayout = time.DateOnly

// Mode 请求的生成模式
type Mode string

const (
	ModeDemo      Mode = "demo"
	ModeOpenAI    Mode = "openai"
	ModeGemini    Mode = "gemini"
	ModeAnthropic Mode = "anthropic"
)

// ModeDeterministic 是确定性后端在运行日志中的名字
const ModeDeterministic = "deterministic"

// Known 判断模式是否受支持
func (m Mode) Known() bool {
	switch m {
	case ModeDemo, ModeOpenAI, ModeGemini, ModeAnthropic:
		return true
	}
	return false
}

// Language 输出语言
type Language string

const (
	LangEN Language = "en"
	LangFI Language = "fi"
)

// ParseLanguage 解析语言配置，未知值回退为英文
func ParseLanguage(s string) Language {
	if Language(strings.ToLower(strings.TrimSpace(s))) == LangFI {
		return LangFI
	}
	return LangEN
}

var tickerPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,31}$`)

// BriefRequest 一次简报生成请求
type BriefRequest struct {
	Ticker string
	Date   string
	Mode   Mode
}

// NewBriefRequest 规范化并校验请求
func NewBriefRequest(ticker, date string, mode Mode) (BriefRequest, error) {
	req := BriefRequest{
		Ticker: strings.ToUpper(strings.TrimSpace(ticker)),
		Date:   strings.TrimSpace(date),
		Mode:   Mode(strings.ToLower(strings.TrimSpace(string(mode)))),
	}
	if err := req.Validate(); err != nil {
		return BriefRequest{}, err
	}
	return req, nil
}

// Validate 校验 ticker 与日期；未知模式不在此处报错，由后端选择回退
func (r BriefRequest) Validate() error {
	if !tickerPattern.MatchString(r.Ticker) {
		return fmt.Errorf("%w: ticker %q is empty or not filename-safe", ErrInvalidRequest, r.Ticker)
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidRequest, r.Date)
	}
	return nil
}

// RawItem IR 发布或新闻条目
type RawItem struct {
	Title   string `json:"title"`
	Source  string `json:"source"`
	URL     string `json:"url,omitempty"`
	Date    string `json:"date,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// Published 返回发布日期，无日期或格式错误时 ok 为 false
func (i RawItem) Published() (time.Time, bool) {
	return ParseDate(i.Date)
}

// ParseDate 解析 YYYY-MM-DD 或 RFC3339 日期
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Truncate(24 * time.Hour), true
	}
	return time.Time{}, false
}

// GeneratedSections 后端生成的文本段落
type GeneratedSections struct {
	SummaryBullets []string `json:"summary_bullets"`
	Drivers        []string `json:"drivers"`
	Risks          []string `json:"risks"`
	Limitations    []string `json:"limitations"`
}

// BriefDocument 最终简报文档
type BriefDocument struct {
	Date           string    `json:"date"`
	Ticker         string    `json:"ticker"`
	SummaryBullets []string  `json:"summary_bullets"`
	IRReleases     []RawItem `json:"ir_releases"`
	News           []RawItem `json:"news"`
	Drivers        []string  `json:"drivers"`
	Risks          []string  `json:"risks"`
	Limitations    []string  `json:"limitations"`
}

// NewBriefDocument 组装简报文档
func NewBriefDocument(req BriefRequest, ir, news []RawItem, sec *GeneratedSections) *BriefDocument {
	return &BriefDocument{
		Date:           req.Date,
		Ticker:         req.Ticker,
		SummaryBullets: sec.SummaryBullets,
		IRReleases:     ir,
		News:           news,
		Drivers:        sec.Drivers,
		Risks:          sec.Risks,
		Limitations:    sec.Limitations,
	}
}

// CompanyProfile 公司基础信息
type CompanyProfile struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Market string `json:"market"`
}

// Verdict 校验结论
type Verdict struct {
	Valid   bool     `json:"valid"`
	Reasons []string `json:"reasons,omitempty"`
}

// RunResult 一次运行的结果
type RunResult struct {
	RunID        string
	MarkdownPath string
	JSONPath     string
	ModeUsed     string
	Attempts     int
	Revised      bool
	Verdict      Verdict
	Duration     time.Duration
}
