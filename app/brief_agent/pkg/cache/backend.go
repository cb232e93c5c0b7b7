package cache

import (
	"context"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/llm"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/logger"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
)

// Backend 带缓存的生成后端；可以按次运行创建，合并状态保存在 FileCache 上
type Backend struct {
	inner llm.Backend
	cache *FileCache
}

var _ llm.Backend = (*Backend)(nil)

// WrapBackend 为外部后端加上缓存；修订请求总是穿透缓存
func WrapBackend(inner llm.Backend, c *FileCache) *Backend {
	return &Backend{inner: inner, cache: c}
}

// Name 实现 llm.Backend
func (b *Backend) Name() string {
	return b.inner.Name()
}

// GenerateSections 实现 llm.Backend；同一个键的并发未命中只调用一次后端
func (b *Backend) GenerateSections(ctx context.Context, in *llm.Input) (*model.GeneratedSections, error) {
	key := Key{Ticker: in.Request.Ticker, Date: in.Request.Date, Mode: b.inner.Name() + "/" + string(in.Language)}

	if len(in.Guidance) > 0 {
		sec, err := b.inner.GenerateSections(ctx, in)
		if err == nil {
			b.store(key, sec)
		}
		return sec, err
	}

	if sec, ok := b.cache.Get(key); ok {
		logger.Log.Debugf("缓存命中: %s %s %s", key.Ticker, key.Date, key.Mode)
		return sec, nil
	}

	v, err, _ := b.cache.group.Do(key.hash(), func() (interface{}, error) {
		if sec, ok := b.cache.Get(key); ok {
			return sec, nil
		}
		sec, err := b.inner.GenerateSections(ctx, in)
		if err != nil {
			return nil, err
		}
		b.store(key, sec)
		return sec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.GeneratedSections), nil
}

func (b *Backend) store(key Key, sec *model.GeneratedSections) {
	if err := b.cache.Set(key, sec); err != nil {
		logger.Log.Warnf("写入缓存失败: %v", err)
	}
}
