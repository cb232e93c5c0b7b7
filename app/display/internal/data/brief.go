package data

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
	"github.com/iWorld-y/ir_brief/app/display/internal/domain"
	"github.com/iWorld-y/ir_brief/app/display/internal/repo"
)

var contentTypes = map[string]string{
	".md":   "text/markdown; charset=utf-8",
	".json": "application/json",
}

type briefRepo struct {
	data *Data
	log  *log.Helper
}

func NewBriefRepo(data *Data, logger log.Logger) repo.BriefRepo {
	return &briefRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// splitName 解析 <TICKER>_<YYYY-MM-DD>.<ext>
func splitName(name string) (ticker, date, ext string, ok bool) {
	ext = filepath.Ext(name)
	if _, known := contentTypes[ext]; !known {
		return "", "", "", false
	}
	base := strings.TrimSuffix(name, ext)
	i := strings.LastIndex(base, "_")
	if i <= 0 {
		return "", "", "", false
	}
	ticker, date = base[:i], base[i+1:]
	if _, valid := model.ParseDate(date); !valid || len(date) != len(model.DateLayout) {
		return "", "", "", false
	}
	return ticker, date, ext, true
}

func (r *briefRepo) ListBriefs(ctx context.Context) ([]*domain.BriefSummary, error) {
	entries, err := os.ReadDir(r.data.dir)
	if err != nil {
		return nil, err
	}

	byBase := make(map[string]*domain.BriefSummary)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ticker, date, ext, ok := splitName(e.Name())
		if !ok {
			continue
		}
		base := strings.TrimSuffix(e.Name(), ext)
		s, exists := byBase[base]
		if !exists {
			s = &domain.BriefSummary{Name: base, Ticker: ticker, Date: date}
			byBase[base] = s
		}
		if ext == ".json" {
			s.HasJSON = true
		} else {
			s.HasMD = true
		}
		if info, err := e.Info(); err == nil && info.ModTime().After(s.ModifiedAt) {
			s.ModifiedAt = info.ModTime()
		}
	}

	summaries := make([]*domain.BriefSummary, 0, len(byBase))
	for _, s := range byBase {
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Date != summaries[j].Date {
			return summaries[i].Date > summaries[j].Date
		}
		return summaries[i].Ticker < summaries[j].Ticker
	})
	return summaries, nil
}

func (r *briefRepo) GetBrief(ctx context.Context, name string) (*domain.BriefFile, error) {
	if name != filepath.Base(name) {
		return nil, errors.BadRequest("INVALID_BRIEF_NAME", "invalid brief name")
	}
	_, _, ext, ok := splitName(name)
	if !ok {
		return nil, errors.BadRequest("INVALID_BRIEF_NAME", "brief name must be <TICKER>_<YYYY-MM-DD>.md or .json")
	}

	content, err := os.ReadFile(filepath.Join(r.data.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("BRIEF_NOT_FOUND", "brief not found")
		}
		r.log.Errorf("读取简报失败 %s: %v", name, err)
		return nil, err
	}
	return &domain.BriefFile{Name: name, ContentType: contentTypes[ext], Content: content}, nil
}
