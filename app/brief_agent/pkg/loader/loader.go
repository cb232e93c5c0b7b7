package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/logger"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
)

// Kind 数据源类型
type Kind string

const (
	KindIR   Kind = "ir"
	KindNews Kind = "news"
)

// Loader 从本地样例数据读取 IR 与新闻
type Loader struct {
	dataDir string
}

// New 创建加载器
func New(dataDir string) *Loader {
	return &Loader{dataDir: dataDir}
}

// LoadIR 读取 IR 发布
func (l *Loader) LoadIR(ctx context.Context, req model.BriefRequest) ([]model.RawItem, error) {
	return l.load(ctx, KindIR, req)
}

// LoadNews 读取新闻
func (l *Loader) LoadNews(ctx context.Context, req model.BriefRequest) ([]model.RawItem, error) {
	return l.load(ctx, KindNews, req)
}

// candidates 先查找 <data>/<TICKER>/<kind>.json，再回退到 <data>/sample_<kind>.json
func (l *Loader) candidates(kind Kind, ticker string) []string {
	return []string{
		filepath.Join(l.dataDir, ticker, string(kind)+".json"),
		filepath.Join(l.dataDir, "sample_"+string(kind)+".json"),
	}
}

func (l *Loader) load(ctx context.Context, kind Kind, req model.BriefRequest) ([]model.RawItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	var path string
	for _, p := range l.candidates(kind, req.Ticker) {
		b, err := os.ReadFile(p)
		if err == nil {
			data, path = b, p
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: read %s: %v", model.ErrDataUnavailable, p, err)
		}
	}
	if path == "" {
		return nil, fmt.Errorf("%w: no %s data for %s in %s", model.ErrDataUnavailable, kind, req.Ticker, l.dataDir)
	}

	var raw []model.RawItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", model.ErrDataUnavailable, path, err)
	}

	asOf, _ := model.ParseDate(req.Date)
	items := make([]model.RawItem, 0, len(raw))
	for _, it := range raw {
		it = normalize(it)
		if it.Title == "" || it.Source == "" {
			continue
		}
		if d, ok := model.ParseDate(it.Date); ok {
			if d.After(asOf) {
				continue
			}
			it.Date = d.Format(model.DateLayout)
		} else {
			if kind == KindIR {
				logger.Log.Warnf("跳过缺少日期的 IR 条目: %s", it.Title)
				continue
			}
			it.Date = ""
		}
		items = append(items, it)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s has no usable %s items as of %s", model.ErrDataUnavailable, path, kind, req.Date)
	}
	logger.Log.Infof("从 %s 加载 %d 条 %s 数据", path, len(items), kind)
	return items, nil
}

func normalize(it model.RawItem) model.RawItem {
	return model.RawItem{
		Title:   PlainText(it.Title),
		Source:  PlainText(it.Source),
		URL:     strings.TrimSpace(it.URL),
		Date:    strings.TrimSpace(it.Date),
		Summary: PlainText(it.Summary),
	}
}
