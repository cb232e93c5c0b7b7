package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/cache"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/config"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/llm"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/llm/factory"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/loader"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/logger"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/notify"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/planner"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/render"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/selector"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/stocks"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/storage"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/validator"
)

// Loader 数据加载
type Loader interface {
	LoadIR(ctx context.Context, req model.BriefRequest) ([]model.RawItem, error)
	LoadNews(ctx context.Context, req model.BriefRequest) ([]model.RawItem, error)
}

// Persister 输出写入
type Persister interface {
	Persist(ctx context.Context, doc *model.BriefDocument, markdown string) (storage.Paths, error)
}

// Ledger 运行日志
type Ledger interface {
	Record(rec logger.RunRecord)
}

// Notifier 简报完成通知
type Notifier interface {
	Notify(ctx context.Context, doc *model.BriefDocument, markdown string, jsonPath string) error
}

// BackendSelector 按模式选择后端
type BackendSelector func(ctx context.Context, mode model.Mode) factory.Selection

// Engine 简报编排引擎，可被多个请求并发使用
type Engine struct {
	cfg       *config.Config
	lang      model.Language
	loader    Loader
	writer    Persister
	validator *validator.Validator
	ledger    Ledger
	notifier  Notifier
	cache     *cache.FileCache
	selectFn  BackendSelector
	fallback  llm.Backend
	newRunID  func() string
}

// Option 引擎选项
type Option func(*Engine)

// WithLoader 替换数据加载器
func WithLoader(l Loader) Option { return func(e *Engine) { e.loader = l } }

// WithPersister 替换输出写入器
func WithPersister(p Persister) Option { return func(e *Engine) { e.writer = p } }

// WithLedger 替换运行日志
func WithLedger(l Ledger) Option { return func(e *Engine) { e.ledger = l } }

// WithNotifier 设置完成通知
func WithNotifier(n Notifier) Option { return func(e *Engine) { e.notifier = n } }

// WithBackendSelector 替换后端选择逻辑
func WithBackendSelector(s BackendSelector) Option { return func(e *Engine) { e.selectFn = s } }

// WithCache 启用生成结果缓存
func WithCache(c *cache.FileCache) Option { return func(e *Engine) { e.cache = c } }

// NewEngine 创建引擎实例；凭据在此处一次性注入
func NewEngine(cfg *config.Config, creds config.Credentials, opts ...Option) (*Engine, error) {
	limiter := factory.NewLimiter(cfg.Concurrency)
	logger.Log.Infof("限流器已配置: Limit=%.2f req/s, Burst=%d", limiter.Limit(), limiter.Burst())

	e := &Engine{
		cfg:       cfg,
		lang:      model.ParseLanguage(cfg.LLM.Language),
		loader:    loader.New(cfg.Brief.DataDir),
		writer:    storage.NewWriter(cfg.Brief.OutputDir),
		validator: validator.New(cfg.Brief.MaxIR, cfg.Brief.MaxNews, model.ParseLanguage(cfg.LLM.Language)),
		fallback:  llm.NewDeterministic(),
		newRunID:  func() string { return uuid.NewString() },
	}
	e.selectFn = defaultSelector(cfg, creds, limiter)

	if email := notify.NewEmailSender(cfg.Notify.Email); email.Enabled() {
		e.notifier = email
	}
	if cfg.Cache.Enabled {
		c, err := cache.New(cfg.Cache.Dir, time.Duration(cfg.Cache.TTLHours)*time.Hour)
		if err != nil {
			return nil, fmt.Errorf("缓存初始化失败: %w", err)
		}
		e.cache = c
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.ledger == nil {
		l, err := logger.NewRunLedger(cfg.Log.RunLog)
		if err != nil {
			return nil, fmt.Errorf("运行日志初始化失败: %w", err)
		}
		e.ledger = l
	}
	return e, nil
}

func defaultSelector(cfg *config.Config, creds config.Credentials, limiter *rate.Limiter) BackendSelector {
	return func(ctx context.Context, mode model.Mode) factory.Selection {
		return factory.Select(ctx, mode, creds, cfg, limiter)
	}
}

// Language 输出语言
func (e *Engine) Language() model.Language {
	return e.lang
}

// Close 释放运行日志文件
func (e *Engine) Close() error {
	if c, ok := e.ledger.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// RunOptions 运行选项
type RunOptions struct {
	ProgressCallback func(status string, progress int)
}

// run 一次运行的私有上下文
type run struct {
	id       string
	req      model.BriefRequest
	opts     RunOptions
	state    State
	steps    []planner.Step
	backend  llm.Backend
	modeUsed string
	profile  *model.CompanyProfile

	ir, news       []model.RawItem
	selIR, selNews []model.RawItem
	sections       *model.GeneratedSections
	doc            *model.BriefDocument
	markdown       string
	verdict        model.Verdict

	attempts int
	revised  bool
	paths    storage.Paths
	err      error
}

func (r *run) progress(status string, pct int) {
	if r.opts.ProgressCallback != nil {
		r.opts.ProgressCallback(status, pct)
	}
}

// Run 执行一次简报生成：Planning → Acting → Reflecting → {Done, Revising, Failed}
func (e *Engine) Run(ctx context.Context, req model.BriefRequest, opts RunOptions) (*model.RunResult, error) {
	start := time.Now()
	r := &run{id: e.newRunID(), req: req, opts: opts, state: Planning}

	if err := req.Validate(); err != nil {
		r.err = err
		r.state = Failed
		r.modeUsed = model.ModeDeterministic
		return e.finish(ctx, r, start)
	}

	sel := e.selectFn(ctx, req.Mode)
	if sel.Fallback != "" {
		logger.Log.Warnf("[%s] 请求的后端不可用，回退到确定性后端: %s", r.id, sel.Fallback)
	}
	r.backend = sel.Backend
	if e.cache != nil && r.backend.Name() != model.ModeDeterministic {
		r.backend = cache.WrapBackend(r.backend, e.cache)
	}
	if p, ok := stocks.Lookup(req.Ticker); ok {
		r.profile = &p
	}
	logger.Log.Infof("[%s] 开始生成简报 %s %s，请求模式 %s，使用后端 %s", r.id, req.Ticker, req.Date, req.Mode, r.backend.Name())
	r.progress("starting", 0)

	for !r.state.Terminal() {
		if err := ctx.Err(); err != nil {
			r.err = err
			r.state = Failed
			break
		}
		logger.Log.Debugf("[%s] 状态: %s", r.id, r.state)

		switch r.state {
		case Planning:
			r.steps = planner.Plan(req)
			r.state = Acting

		case Acting:
			if err := e.act(ctx, r); err != nil {
				r.err = err
				r.state = Failed
				continue
			}
			r.state = Reflecting

		case Reflecting:
			r.progress("validating", 80)
			r.verdict = e.validator.Validate(r.doc, r.markdown)
			switch {
			case r.verdict.Valid:
				r.progress("persisting", 90)
				paths, err := e.writer.Persist(ctx, r.doc, r.markdown)
				if err != nil {
					r.err = err
					r.state = Failed
					continue
				}
				r.paths = paths
				r.state = Done
			case r.attempts < maxGenerations:
				logger.Log.Warnf("[%s] 校验未通过，准备修订: %v", r.id, r.verdict.Reasons)
				r.state = Revising
			default:
				r.err = fmt.Errorf("%w after revision", model.ErrValidationFailed)
				r.state = Failed
			}

		case Revising:
			r.revised = true
			r.progress("revising", 60)
			if err := e.generate(ctx, r, r.verdict.Reasons); err != nil {
				r.err = err
				r.state = Failed
				continue
			}
			if err := e.render(r); err != nil {
				r.err = err
				r.state = Failed
				continue
			}
			r.state = Reflecting
		}
	}

	return e.finish(ctx, r, start)
}

// act 按计划执行步骤，直到 validate 交给 Reflecting
func (e *Engine) act(ctx context.Context, r *run) error {
	parallel := e.parallelLoads()
	loaded := false
	for _, step := range r.steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Log.Debugf("[%s] 执行步骤 %s: %s", r.id, step.Name, step.Description)

		switch step.Name {
		case planner.LoadIR, planner.LoadNews:
			if loaded {
				continue
			}
			if err := e.load(ctx, r, step.Name, parallel); err != nil {
				return err
			}
			loaded = parallel
			r.progress(fmt.Sprintf("loaded %s", step.Name), 20)

		case planner.SelectTop:
			r.selIR = selector.Select(r.ir, e.cfg.Brief.MaxIR, selector.ByRecency)
			r.selNews = selector.Select(r.news, e.cfg.Brief.MaxNews, selector.ByRecency)
			logger.Log.Infof("[%s] 选出 %d/%d 条 IR，%d/%d 条新闻", r.id, len(r.selIR), len(r.ir), len(r.selNews), len(r.news))

		case planner.GenerateSections:
			r.progress("generating sections", 40)
			if err := e.generate(ctx, r, nil); err != nil {
				return err
			}

		case planner.Render:
			if err := e.render(r); err != nil {
				return err
			}

		case planner.Validate:
			return nil
		}
	}
	return nil
}

// parallelLoads 配置允许且两个加载步骤互不依赖时并发加载
func (e *Engine) parallelLoads() bool {
	return e.cfg.Brief.ParallelLoad && planner.Independent(planner.LoadIR, planner.LoadNews)
}

// load 并发模式下一次加载 IR 与新闻，否则只加载当前步骤
func (e *Engine) load(ctx context.Context, r *run, name planner.StepName, parallel bool) error {
	if !parallel {
		var err error
		if name == planner.LoadIR {
			r.ir, err = e.loader.LoadIR(ctx, r.req)
		} else {
			r.news, err = e.loader.LoadNews(ctx, r.req)
		}
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := e.loader.LoadIR(gctx, r.req)
		r.ir = items
		return err
	})
	g.Go(func() error {
		items, err := e.loader.LoadNews(gctx, r.req)
		r.news = items
		return err
	})
	return g.Wait()
}

// generate 调用后端；外部后端失败时本次生成回退到确定性后端，并在本次运行余下部分继续使用它
func (e *Engine) generate(ctx context.Context, r *run, guidance []string) error {
	if r.attempts >= maxGenerations {
		return fmt.Errorf("generation limit of %d reached", maxGenerations)
	}
	r.attempts++

	in := &llm.Input{
		Request:  r.req,
		IR:       r.selIR,
		News:     r.selNews,
		Profile:  r.profile,
		Language: e.lang,
		Guidance: guidance,
	}
	sec, err := r.backend.GenerateSections(ctx, in)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		kind := "error"
		switch {
		case errors.Is(err, model.ErrBackendUnavailable):
			kind = "unavailable"
		case errors.Is(err, model.ErrBackendMalformedResponse):
			kind = "malformed response"
		}
		logger.Log.Warnf("[%s] 后端 %s %s，本次生成回退到确定性后端: %v", r.id, r.backend.Name(), kind, err)
		r.backend = e.fallback
		sec, err = r.backend.GenerateSections(ctx, in)
		if err != nil {
			return err
		}
	}
	r.sections = sec
	r.modeUsed = r.backend.Name()
	r.doc = model.NewBriefDocument(r.req, r.selIR, r.selNews, sec)
	return nil
}

func (e *Engine) render(r *run) error {
	md, err := render.Render(r.doc, render.Options{Language: e.lang, Profile: r.profile})
	if err != nil {
		return err
	}
	r.markdown = md
	return nil
}

// finish 写运行日志、发送通知并组装结果
func (e *Engine) finish(ctx context.Context, r *run, start time.Time) (*model.RunResult, error) {
	elapsed := time.Since(start)
	if r.modeUsed == "" && r.backend != nil {
		r.modeUsed = r.backend.Name()
	}

	result := &model.RunResult{
		RunID:        r.id,
		MarkdownPath: r.paths.Markdown,
		JSONPath:     r.paths.JSON,
		ModeUsed:     r.modeUsed,
		Attempts:     r.attempts,
		Revised:      r.revised,
		Verdict:      r.verdict,
		Duration:     elapsed,
	}

	rec := logger.RunRecord{
		RunID:         r.id,
		Ticker:        r.req.Ticker,
		Date:          r.req.Date,
		ModeRequested: string(r.req.Mode),
		ModeUsed:      r.modeUsed,
		Attempts:      r.attempts,
		Revised:       r.revised,
		Verdict:       r.state.String(),
		Reasons:       r.verdict.Reasons,
		DurationMS:    elapsed.Milliseconds(),
	}

	var runErr *RunError
	if r.state == Failed {
		reasons := []string(nil)
		if errors.Is(r.err, model.ErrValidationFailed) {
			reasons = r.verdict.Reasons
		}
		runErr = newRunError(r.err, reasons)
		rec.Error = runErr.Error()
		if errors.Is(r.err, model.ErrWriteFailed) {
			rec.Markdown = r.markdown
		}
		logger.Log.Errorf("[%s] 简报生成失败: %v", r.id, runErr)
	} else {
		rec.Outputs = []string{r.paths.Markdown, r.paths.JSON}
		logger.Log.Infof("[%s] 简报已生成: %s, %s (后端 %s, 生成 %d 次, 耗时 %s)", r.id, r.paths.Markdown, r.paths.JSON, r.modeUsed, r.attempts, elapsed.Round(time.Millisecond))
	}
	e.ledger.Record(rec)

	if runErr != nil {
		r.progress("failed", 100)
		return result, runErr
	}

	if e.notifier != nil {
		if err := e.notifier.Notify(ctx, r.doc, r.markdown, r.paths.JSON); err != nil {
			logger.Log.Warnf("[%s] 通知发送失败: %v", r.id, err)
		}
	}
	r.progress("completed", 100)
	return result, nil
}
