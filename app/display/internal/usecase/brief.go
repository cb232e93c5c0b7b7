package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/engine"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/stocks"
	"github.com/iWorld-y/ir_brief/app/display/internal/domain"
	"github.com/iWorld-y/ir_brief/app/display/internal/repo"
)

// Generator 简报生成引擎
type Generator interface {
	Run(ctx context.Context, req model.BriefRequest, opts engine.RunOptions) (*model.RunResult, error)
}

// BriefUseCase 简报业务逻辑
type BriefUseCase struct {
	repo       repo.BriefRepo
	gen        Generator
	jobTimeout time.Duration
	maxJobs    int
	log        *log.Helper

	mu   sync.Mutex
	jobs map[string]*domain.Job
	wg   sync.WaitGroup
}

// NewBriefUseCase 创建简报业务逻辑实例；maxJobs 为同时运行的任务上限，0 表示不限
func NewBriefUseCase(repo repo.BriefRepo, gen Generator, jobTimeout time.Duration, maxJobs int, logger log.Logger) *BriefUseCase {
	return &BriefUseCase{
		repo:       repo,
		gen:        gen,
		jobTimeout: jobTimeout,
		maxJobs:    maxJobs,
		log:        log.NewHelper(logger),
		jobs:       make(map[string]*domain.Job),
	}
}

// List 列出已生成的简报
func (uc *BriefUseCase) List(ctx context.Context) ([]*domain.BriefSummary, error) {
	return uc.repo.ListBriefs(ctx)
}

// Get 读取简报文件
func (uc *BriefUseCase) Get(ctx context.Context, name string) (*domain.BriefFile, error) {
	return uc.repo.GetBrief(ctx, name)
}

// Tickers 搜索股票代码
func (uc *BriefUseCase) Tickers(query string, limit int) []model.CompanyProfile {
	if limit <= 0 {
		limit = 20
	}
	return stocks.Search(query, limit)
}

// Generate 校验请求并在后台启动生成任务，立即返回任务快照
func (uc *BriefUseCase) Generate(ctx context.Context, ticker, date, mode string) (*domain.Job, error) {
	if date == "" {
		date = time.Now().Format(model.DateLayout)
	}
	if mode == "" {
		mode = string(model.ModeDemo)
	}
	req, err := model.NewBriefRequest(ticker, date, model.Mode(mode))
	if err != nil {
		return nil, kerrors.BadRequest("INVALID_REQUEST", err.Error())
	}

	now := time.Now()
	job := &domain.Job{
		ID:        uuid.NewString(),
		Ticker:    req.Ticker,
		Date:      req.Date,
		Mode:      string(req.Mode),
		Status:    domain.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	uc.mu.Lock()
	if uc.maxJobs > 0 && uc.activeLocked() >= uc.maxJobs {
		uc.mu.Unlock()
		return nil, kerrors.New(429, "TOO_MANY_JOBS", "too many running jobs")
	}
	uc.jobs[job.ID] = job
	snapshot := *job
	uc.mu.Unlock()

	uc.log.Infof("创建生成任务 %s: %s %s (%s)", job.ID, req.Ticker, req.Date, req.Mode)
	uc.wg.Add(1)
	go uc.run(job.ID, req)
	return &snapshot, nil
}

func (uc *BriefUseCase) activeLocked() int {
	n := 0
	for _, j := range uc.jobs {
		if j.Status == domain.JobPending || j.Status == domain.JobRunning {
			n++
		}
	}
	return n
}

func (uc *BriefUseCase) run(id string, req model.BriefRequest) {
	defer uc.wg.Done()

	ctx := context.Background()
	if uc.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.jobTimeout)
		defer cancel()
	}

	uc.update(id, func(j *domain.Job) { j.Status = domain.JobRunning })
	res, err := uc.gen.Run(ctx, req, engine.RunOptions{
		ProgressCallback: func(status string, progress int) {
			uc.update(id, func(j *domain.Job) {
				j.Step = status
				j.Progress = progress
			})
		},
	})

	uc.update(id, func(j *domain.Job) {
		if res != nil {
			j.ModeUsed = res.ModeUsed
			j.MarkdownPath = res.MarkdownPath
			j.JSONPath = res.JSONPath
		}
		if err != nil {
			j.Status = domain.JobFailed
			j.Error = err.Error()
			var re *engine.RunError
			if errors.As(err, &re) {
				j.Reasons = re.Reasons
			}
			return
		}
		j.Status = domain.JobCompleted
		j.Progress = 100
	})
	if err != nil {
		uc.log.Errorf("生成任务 %s 失败: %v", id, err)
		return
	}
	uc.log.Infof("生成任务 %s 完成: %s", id, res.MarkdownPath)
}

func (uc *BriefUseCase) update(id string, fn func(*domain.Job)) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if j, ok := uc.jobs[id]; ok {
		fn(j)
		j.UpdatedAt = time.Now()
	}
}

// Job 查询任务状态
func (uc *BriefUseCase) Job(ctx context.Context, id string) (*domain.Job, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	j, ok := uc.jobs[id]
	if !ok {
		return nil, kerrors.NotFound("JOB_NOT_FOUND", "job not found")
	}
	snapshot := *j
	return &snapshot, nil
}

// Wait 等待所有后台任务结束
func (uc *BriefUseCase) Wait() {
	uc.wg.Wait()
}
