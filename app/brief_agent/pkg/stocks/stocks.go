package stocks

import (
	"sort"
	"strings"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
)

// catalog 常用美股与北欧股票
var catalog = []model.CompanyProfile{
	{Ticker: "ACME", Name: "Acme Corporation", Market: "Demo"},
	{Ticker: "AAPL", Name: "Apple Inc.", Market: "NASDAQ"},
	{Ticker: "MSFT", Name: "Microsoft Corporation", Market: "NASDAQ"},
	{Ticker: "GOOGL", Name: "Alphabet Inc.", Market: "NASDAQ"},
	{Ticker: "AMZN", Name: "Amazon.com Inc.", Market: "NASDAQ"},
	{Ticker: "NVDA", Name: "NVIDIA Corporation", Market: "NASDAQ"},
	{Ticker: "META", Name: "Meta Platforms Inc.", Market: "NASDAQ"},
	{Ticker: "TSLA", Name: "Tesla Inc.", Market: "NASDAQ"},
	{Ticker: "BRK-B", Name: "Berkshire Hathaway", Market: "NYSE"},
	{Ticker: "JPM", Name: "JPMorgan Chase & Co.", Market: "NYSE"},
	{Ticker: "V", Name: "Visa Inc.", Market: "NYSE"},
	{Ticker: "JNJ", Name: "Johnson & Johnson", Market: "NYSE"},
	{Ticker: "WMT", Name: "Walmart Inc.", Market: "NYSE"},
	{Ticker: "MA", Name: "Mastercard Inc.", Market: "NYSE"},
	{Ticker: "PG", Name: "Procter & Gamble Co.", Market: "NYSE"},
	{Ticker: "KO", Name: "Coca-Cola Co.", Market: "NYSE"},
	{Ticker: "NFLX", Name: "Netflix Inc.", Market: "NASDAQ"},
	{Ticker: "INTC", Name: "Intel Corporation", Market: "NASDAQ"},
	{Ticker: "AMD", Name: "Advanced Micro Devices", Market: "NASDAQ"},
	{Ticker: "ADBE", Name: "Adobe Inc.", Market: "NASDAQ"},
	{Ticker: "NOKIA.HE", Name: "Nokia Oyj", Market: "Helsinki"},
	{Ticker: "NDA-FI.HE", Name: "Nordea Bank Abp", Market: "Helsinki"},
	{Ticker: "FORTUM.HE", Name: "Fortum Oyj", Market: "Helsinki"},
	{Ticker: "SAMPO.HE", Name: "Sampo Oyj", Market: "Helsinki"},
	{Ticker: "NESTE.HE", Name: "Neste Oyj", Market: "Helsinki"},
	{Ticker: "UPM.HE", Name: "UPM-Kymmene Oyj", Market: "Helsinki"},
	{Ticker: "KNEBV.HE", Name: "Kone Oyj", Market: "Helsinki"},
	{Ticker: "ELISA.HE", Name: "Elisa Oyj", Market: "Helsinki"},
	{Ticker: "WRT1V.HE", Name: "Wärtsilä Oyj", Market: "Helsinki"},
	{Ticker: "QTCOM.HE", Name: "Qt Group Oyj", Market: "Helsinki"},
	{Ticker: "VOLV-B.ST", Name: "Volvo AB", Market: "Stockholm"},
	{Ticker: "ERIC-B.ST", Name: "Ericsson", Market: "Stockholm"},
	{Ticker: "ATCO-A.ST", Name: "Atlas Copco AB", Market: "Stockholm"},
	{Ticker: "EQNR.OL", Name: "Equinor ASA", Market: "Oslo"},
	{Ticker: "DNB.OL", Name: "DNB Bank ASA", Market: "Oslo"},
	{Ticker: "NOVO-B.CO", Name: "Novo Nordisk", Market: "Copenhagen"},
	{Ticker: "ORSTED.CO", Name: "Ørsted A/S", Market: "Copenhagen"},
}

// Lookup 按 ticker 精确查找公司信息
func Lookup(ticker string) (model.CompanyProfile, bool) {
	for _, s := range catalog {
		if strings.EqualFold(s.Ticker, ticker) {
			return s, true
		}
	}
	return model.CompanyProfile{}, false
}

// Search 按 ticker 或公司名模糊搜索；ticker 前缀匹配优先，其次 ticker 包含，最后名称包含
func Search(query string, limit int) []model.CompanyProfile {
	if limit <= 0 {
		limit = 10
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		n := min(limit, len(catalog))
		out := make([]model.CompanyProfile, n)
		copy(out, catalog[:n])
		return out
	}

	type match struct {
		score int
		stock model.CompanyProfile
	}
	var matches []match
	for _, s := range catalog {
		t := strings.ToLower(s.Ticker)
		tickerMatch := strings.Contains(t, q)
		if !tickerMatch && !strings.Contains(strings.ToLower(s.Name), q) {
			continue
		}
		score := 0
		switch {
		case strings.HasPrefix(t, q):
			score = 2
		case tickerMatch:
			score = 1
		}
		matches = append(matches, match{score, s})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].stock.Ticker < matches[j].stock.Ticker
	})

	out := make([]model.CompanyProfile, 0, min(limit, len(matches)))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, m.stock)
	}
	return out
}
