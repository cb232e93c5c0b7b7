package validator

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/render"
)

const (
	minSummary = 3
	maxSummary = 6
)

// Validator 检查简报结构以及 Markdown 与 JSON 的一致性
type Validator struct {
	maxIR    int
	maxNews  int
	headings render.Headings
}

// New 创建校验器
func New(maxIR, maxNews int, lang model.Language) *Validator {
	return &Validator{maxIR: maxIR, maxNews: maxNews, headings: render.HeadingsFor(lang)}
}

// Validate 执行全部检查并汇总原因；不会因第一个错误提前返回
func (v *Validator) Validate(doc *model.BriefDocument, markdown string) model.Verdict {
	var reasons []string
	if doc == nil {
		return model.Verdict{Valid: false, Reasons: []string{"document is nil"}}
	}

	reasons = append(reasons, v.checkShape(doc)...)

	decoded, schemaReasons := checkSchema(doc)
	reasons = append(reasons, schemaReasons...)

	sections := parseMarkdown(markdown)
	reasons = append(reasons, v.checkHeadings(sections)...)
	if decoded != nil {
		reasons = append(reasons, v.checkCongruence(decoded, sections)...)
	}

	return model.Verdict{Valid: len(reasons) == 0, Reasons: reasons}
}

func (v *Validator) checkShape(doc *model.BriefDocument) []string {
	var r []string
	if strings.TrimSpace(doc.Ticker) == "" {
		r = append(r, "ticker is empty")
	}
	if _, err := time.Parse(model.DateLayout, doc.Date); err != nil {
		r = append(r, fmt.Sprintf("date %q is not YYYY-MM-DD", doc.Date))
	}

	if n := len(doc.SummaryBullets); n < minSummary || n > maxSummary {
		r = append(r, fmt.Sprintf("summary_bullets has %d items, want %d-%d", n, minSummary, maxSummary))
	}
	r = append(r, blankEntries("summary_bullets", doc.SummaryBullets)...)

	switch n := len(doc.IRReleases); {
	case n == 0:
		r = append(r, "ir_releases is empty")
	case v.maxIR > 0 && n > v.maxIR:
		r = append(r, fmt.Sprintf("ir_releases has %d items, max %d", n, v.maxIR))
	}
	for i, it := range doc.IRReleases {
		if strings.TrimSpace(it.Title) == "" || strings.TrimSpace(it.Source) == "" {
			r = append(r, fmt.Sprintf("ir_releases[%d] needs title and source", i))
		}
		if _, ok := model.ParseDate(it.Date); !ok {
			r = append(r, fmt.Sprintf("ir_releases[%d] has no valid date", i))
		}
	}

	switch n := len(doc.News); {
	case n == 0:
		r = append(r, "news is empty")
	case v.maxNews > 0 && n > v.maxNews:
		r = append(r, fmt.Sprintf("news has %d items, max %d", n, v.maxNews))
	}
	for i, it := range doc.News {
		if strings.TrimSpace(it.Title) == "" || strings.TrimSpace(it.Source) == "" {
			r = append(r, fmt.Sprintf("news[%d] needs title and source", i))
		}
	}

	for _, l := range []struct {
		name  string
		items []string
	}{
		{"drivers", doc.Drivers},
		{"risks", doc.Risks},
		{"limitations", doc.Limitations},
	} {
		if len(l.items) == 0 {
			r = append(r, l.name+" is empty")
		}
		r = append(r, blankEntries(l.name, l.items)...)
	}
	return r
}

func blankEntries(name string, items []string) []string {
	var r []string
	for i, s := range items {
		if strings.TrimSpace(s) == "" {
			r = append(r, fmt.Sprintf("%s[%d] is blank", name, i))
		}
	}
	return r
}

// checkSchema 把文档编码后再解码，检查必填键及其 JSON 类型
func checkSchema(doc *model.BriefDocument) (map[string]any, []string) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, []string{fmt.Sprintf("document does not encode as JSON: %v", err)}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, []string{fmt.Sprintf("document JSON does not decode: %v", err)}
	}

	var r []string
	for _, key := range []string{"date", "ticker"} {
		if _, ok := m[key].(string); !ok {
			r = append(r, fmt.Sprintf("json: %s must be a string", key))
		}
	}
	for _, key := range []string{"summary_bullets", "drivers", "risks", "limitations"} {
		r = append(r, stringArray(m, key)...)
	}
	r = append(r, itemArray(m, "ir_releases", "title", "source", "date")...)
	r = append(r, itemArray(m, "news", "title", "source")...)
	return m, r
}

func stringArray(m map[string]any, key string) []string {
	arr, ok := m[key].([]any)
	if !ok {
		return []string{fmt.Sprintf("json: %s must be an array", key)}
	}
	for i, v := range arr {
		if _, ok := v.(string); !ok {
			return []string{fmt.Sprintf("json: %s[%d] must be a string", key, i)}
		}
	}
	return nil
}

func itemArray(m map[string]any, key string, required ...string) []string {
	arr, ok := m[key].([]any)
	if !ok {
		return []string{fmt.Sprintf("json: %s must be an array", key)}
	}
	var r []string
	for i, v := range arr {
		obj, ok := v.(map[string]any)
		if !ok {
			r = append(r, fmt.Sprintf("json: %s[%d] must be an object", key, i))
			continue
		}
		for _, f := range required {
			if _, ok := obj[f].(string); !ok {
				r = append(r, fmt.Sprintf("json: %s[%d].%s is required", key, i, f))
			}
		}
	}
	return r
}

func (v *Validator) checkHeadings(sections map[string]*section) []string {
	var r []string
	for _, h := range v.headings.List() {
		if _, ok := sections[h]; !ok {
			r = append(r, fmt.Sprintf("missing heading: ## %s", h))
		}
	}
	return r
}

// checkCongruence 以解码后的 JSON 为准比较 Markdown 中的列表与条目标题
func (v *Validator) checkCongruence(m map[string]any, sections map[string]*section) []string {
	var r []string
	lists := []struct {
		key     string
		heading string
	}{
		{"summary_bullets", v.headings.Summary},
		{"drivers", v.headings.Drivers},
		{"risks", v.headings.Risks},
		{"limitations", v.headings.Limitations},
	}
	for _, l := range lists {
		s, ok := sections[l.heading]
		if !ok {
			continue
		}
		r = append(r, compare(l.key, stringList(m[l.key]), s.bullets)...)
	}

	items := []struct {
		key     string
		heading string
	}{
		{"ir_releases", v.headings.IR},
		{"news", v.headings.News},
	}
	for _, it := range items {
		s, ok := sections[it.heading]
		if !ok {
			continue
		}
		r = append(r, compare(it.key, titles(m[it.key]), s.titles)...)
	}
	return r
}

// compare 报告 JSON 有而 Markdown 缺失、Markdown 多出以及顺序不一致
func compare(name string, want, got []string) []string {
	var r []string
	remaining := map[string]int{}
	for _, s := range got {
		remaining[s]++
	}
	for _, s := range want {
		if remaining[s] > 0 {
			remaining[s]--
			continue
		}
		r = append(r, fmt.Sprintf("%s: %q is in JSON but not in Markdown", name, s))
	}
	extra := map[string]int{}
	for _, s := range want {
		extra[s]++
	}
	for _, s := range got {
		if extra[s] > 0 {
			extra[s]--
			continue
		}
		r = append(r, fmt.Sprintf("%s: %q is in Markdown but not in JSON", name, s))
	}
	if len(r) == 0 {
		for i := range want {
			if want[i] != got[i] {
				r = append(r, fmt.Sprintf("%s: Markdown order differs from JSON", name))
				break
			}
		}
	}
	return r
}

func stringList(v any) []string {
	arr, _ := v.([]any)
	out := make([]string, 0, len(arr))
	for _, x := range arr {
		if s, ok := x.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func titles(v any) []string {
	arr, _ := v.([]any)
	out := make([]string, 0, len(arr))
	for _, x := range arr {
		if obj, ok := x.(map[string]any); ok {
			t, _ := obj["title"].(string)
			out = append(out, t)
		}
	}
	return out
}
