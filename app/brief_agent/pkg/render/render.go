package render

import (
	"fmt"
	"strings"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
)

// Headings 简报的二级标题
type Headings struct {
	Summary     string
	Profile     string
	IR          string
	News        string
	Drivers     string
	Risks       string
	Limitations string
}

// labels 正文中的固定文案
type labels struct {
	title   string
	date    string
	source  string
	link    string
	ticker  string
	name    string
	market  string
	noIR    string
	noNews  string
	undated string
	footer  string
}

var headingsByLang = map[model.Language]Headings{
	model.LangEN: {
		Summary:     "Summary",
		Profile:     "Company Profile",
		IR:          "IR Releases",
		News:        "News",
		Drivers:     "Drivers",
		Risks:       "Risks",
		Limitations: "Limitations",
	},
	model.LangFI: {
		Summary:     "Yhteenveto",
		Profile:     "Yritysprofiili",
		IR:          "IR-tiedotteet",
		News:        "Uutiset",
		Drivers:     "Kasvuajurit",
		Risks:       "Riskit",
		Limitations: "Huomiot ja rajoitukset",
	},
}

var labelsByLang = map[model.Language]labels{
	model.LangEN: {
		title: "Company Brief", date: "Date", source: "Source", link: "Link",
		ticker: "Ticker", name: "Name", market: "Market",
		noIR: "No IR releases available.", noNews: "No news available.", undated: "undated",
		footer: "Generated by the IR & News Brief Agent",
	},
	model.LangFI: {
		title: "Yritystiivistelmä", date: "Päivämäärä", source: "Lähde", link: "Linkki",
		ticker: "Ticker", name: "Nimi", market: "Markkina",
		noIR: "Ei IR-tiedotteita saatavilla.", noNews: "Ei uutisia saatavilla.", undated: "ei päivämäärää",
		footer: "Luotu IR & Uutis Tiivistelmä Agentilla",
	},
}

// HeadingsFor 返回指定语言的标题，未知语言使用英文
func HeadingsFor(lang model.Language) Headings {
	if h, ok := headingsByLang[lang]; ok {
		return h
	}
	return headingsByLang[model.LangEN]
}

// List 按文档顺序返回全部标题
func (h Headings) List() []string {
	return []string{h.Summary, h.Profile, h.IR, h.News, h.Drivers, h.Risks, h.Limitations}
}

// Options 渲染选项
type Options struct {
	Language model.Language
	Profile  *model.CompanyProfile
}

// Render 把简报渲染为 Markdown；同样的输入总是得到同样的字节
func Render(doc *model.BriefDocument, opts Options) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("render: nil document")
	}
	h := HeadingsFor(opts.Language)
	lb, ok := labelsByLang[opts.Language]
	if !ok {
		lb = labelsByLang[model.LangEN]
	}

	var sb strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&sb, format, args...)
		sb.WriteByte('\n')
	}
	bullets := func(heading string, items []string) {
		line("## %s", heading)
		for _, it := range items {
			line("- %s", it)
		}
		line("")
	}

	line("# %s: %s", lb.title, doc.Ticker)
	line("**%s:** %s", lb.date, doc.Date)
	line("")

	bullets(h.Summary, doc.SummaryBullets)

	line("## %s", h.Profile)
	line("- **%s:** %s", lb.ticker, doc.Ticker)
	if p := opts.Profile; p != nil {
		line("- **%s:** %s", lb.name, p.Name)
		line("- **%s:** %s", lb.market, p.Market)
	}
	line("- **%s:** %s", lb.date, doc.Date)
	line("")

	line("## %s", h.IR)
	if len(doc.IRReleases) == 0 {
		line("*%s*", lb.noIR)
		line("")
	}
	for _, it := range doc.IRReleases {
		item(line, lb, it, true)
	}

	line("## %s", h.News)
	if len(doc.News) == 0 {
		line("*%s*", lb.noNews)
		line("")
	}
	for _, it := range doc.News {
		item(line, lb, it, false)
	}

	bullets(h.Drivers, doc.Drivers)
	bullets(h.Risks, doc.Risks)
	bullets(h.Limitations, doc.Limitations)

	line("---")
	line("*%s*", lb.footer)
	return sb.String(), nil
}

func item(line func(string, ...any), lb labels, it model.RawItem, withDate bool) {
	line("### %s", it.Title)
	switch {
	case it.Date != "":
		line("- **%s:** %s", lb.date, it.Date)
	case withDate:
		line("- **%s:** %s", lb.date, lb.undated)
	}
	line("- **%s:** %s", lb.source, it.Source)
	if it.Summary != "" {
		line("- %s", it.Summary)
	}
	if it.URL != "" {
		line("- [%s](%s)", lb.link, it.URL)
	}
	line("")
}
