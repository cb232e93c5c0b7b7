package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
)

// templates 确定性后端的文案模板
type templates struct {
	news        string // %s 标题
	newsCount   string // %d 数量, %s ticker
	sources     string // %s 来源列表
	irCount     string // %d 数量
	topRelease  string // %s 标题
	padSummary  string // %s ticker
	driver      string // %s 标题
	padDriver   string
	risks       []string
	limitations []string
}

var templatesByLang = map[model.Language]templates{
	model.LangEN: {
		news:       "News: %s",
		newsCount:  "Found %d news items about %s.",
		sources:    "Sources: %s",
		irCount:    "IR releases: %d in the review period.",
		topRelease: "Top release: %s",
		padSummary: "Analysis is based on public news about %s.",
		driver:     "News analysis: %s",
		padDriver:  "More information is available on the company's investor relations pages.",
		risks: []string{
			"Market conditions may affect the share price.",
			"General risks related to the industry.",
			"Currency and interest rate effects on earnings.",
		},
		limitations: []string{
			"The brief is based on an automated news collection.",
			"This analysis is not investment advice.",
			"Verify the information from the company's official sources.",
		},
	},
	model.LangFI: {
		news:       "Uutinen: %s",
		newsCount:  "Löydettiin %d uutista yrityksestä %s.",
		sources:    "Lähteet: %s",
		irCount:    "IR-tiedotteita: %d kpl tarkastelujaksolla.",
		topRelease: "Tärkein tiedote: %s",
		padSummary: "Analyysi perustuu julkisiin uutisiin yrityksestä %s.",
		driver:     "Uutisanalyysi: %s",
		padDriver:  "Lisätietoja saatavilla yhtiön sijoittajasivuilta.",
		risks: []string{
			"Markkinatilanne voi vaikuttaa osakekurssiin",
			"Toimialaan liittyvät yleiset riskit",
			"Valuuttakurssien ja korkojen vaikutus tulokseen",
		},
		limitations: []string{
			"Tiivistelmä perustuu automaattiseen uutishakuun.",
			"Analyysi ei ole sijoitussuositus.",
			"Tarkista tiedot yhtiön virallisista lähteistä.",
		},
	},
}

// Deterministic 离线模板后端，同样的输入总是得到同样的输出
type Deterministic struct{}

var _ Backend = Deterministic{}

// NewDeterministic 创建确定性后端
func NewDeterministic() Deterministic {
	return Deterministic{}
}

// Name 实现 Backend
func (Deterministic) Name() string {
	return model.ModeDeterministic
}

// GenerateSections 实现 Backend；修订指引对模板输出没有影响
func (Deterministic) GenerateSections(_ context.Context, in *Input) (*model.GeneratedSections, error) {
	tpl, ok := templatesByLang[in.Language]
	if !ok {
		tpl = templatesByLang[model.LangEN]
	}
	ticker := in.Request.Ticker

	var summary []string
	if len(in.News) > 0 {
		if t := strings.TrimSpace(in.News[0].Title); t != "" {
			summary = append(summary, fmt.Sprintf(tpl.news, truncate(t, 100)))
		}
		summary = append(summary, fmt.Sprintf(tpl.newsCount, len(in.News), ticker))
		if src := distinctSources(in.News, 3); src != "" {
			summary = append(summary, fmt.Sprintf(tpl.sources, src))
		}
	}
	if len(in.IR) > 0 {
		summary = append(summary, fmt.Sprintf(tpl.irCount, len(in.IR)))
		if t := strings.TrimSpace(in.IR[0].Title); t != "" {
			summary = append(summary, fmt.Sprintf(tpl.topRelease, truncate(t, 80)))
		}
	}
	for len(summary) < 3 {
		summary = append(summary, fmt.Sprintf(tpl.padSummary, ticker))
	}
	if len(summary) > 6 {
		summary = summary[:6]
	}

	var drivers []string
	for _, it := range in.News {
		if len(drivers) == 3 {
			break
		}
		if t := strings.TrimSpace(it.Title); t != "" {
			drivers = append(drivers, fmt.Sprintf(tpl.driver, truncate(t, 80)))
		}
	}
	for len(drivers) < 3 {
		drivers = append(drivers, tpl.padDriver)
	}

	return &model.GeneratedSections{
		SummaryBullets: summary,
		Drivers:        drivers,
		Risks:          append([]string(nil), tpl.risks...),
		Limitations:    append([]string(nil), tpl.limitations...),
	}, nil
}

// distinctSources 前 n 条中出现的来源，按首次出现的顺序
func distinctSources(items []model.RawItem, n int) string {
	seen := map[string]bool{}
	var out []string
	for i, it := range items {
		if i == n {
			break
		}
		s := strings.TrimSpace(it.Source)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return strings.Join(out, ", ")
}

// truncate 按字符截断，超长时补省略号
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
