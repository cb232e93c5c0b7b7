package service

import (
	"strconv"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
	"github.com/iWorld-y/ir_brief/app/display/internal/domain"
	"github.com/iWorld-y/ir_brief/app/display/internal/usecase"
)

type BriefService struct {
	uc  *usecase.BriefUseCase
	log *log.Helper
}

func NewBriefService(uc *usecase.BriefUseCase, logger log.Logger) *BriefService {
	return &BriefService{
		uc:  uc,
		log: log.NewHelper(logger),
	}
}

// GenerateReq 生成请求；date 缺省为今天，mode 缺省为 demo
type GenerateReq struct {
	Ticker string `json:"ticker"`
	Date   string `json:"date"`
	Mode   string `json:"mode"`
}

type ListBriefsReply struct {
	Briefs []*domain.BriefSummary `json:"briefs"`
	Total  int                    `json:"total"`
}

type TickersReply struct {
	Tickers []model.CompanyProfile `json:"tickers"`
}

// RegisterRoutes 在 kratos HTTP server 上注册 /api 路由
func (s *BriefService) RegisterRoutes(srv *http.Server) {
	r := srv.Route("/api")
	r.GET("/briefs", s.ListBriefs)
	r.GET("/briefs/{name}", s.GetBrief)
	r.POST("/generate", s.Generate)
	r.GET("/jobs/{id}", s.GetJob)
	r.GET("/tickers", s.SearchTickers)
}

func (s *BriefService) ListBriefs(ctx http.Context) error {
	briefs, err := s.uc.List(ctx)
	if err != nil {
		return err
	}
	return ctx.Result(200, &ListBriefsReply{Briefs: briefs, Total: len(briefs)})
}

func (s *BriefService) GetBrief(ctx http.Context) error {
	f, err := s.uc.Get(ctx, ctx.Vars().Get("name"))
	if err != nil {
		return err
	}
	return ctx.Blob(200, f.ContentType, f.Content)
}

func (s *BriefService) Generate(ctx http.Context) error {
	var req GenerateReq
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	job, err := s.uc.Generate(ctx, req.Ticker, req.Date, req.Mode)
	if err != nil {
		return err
	}
	return ctx.Result(202, job)
}

func (s *BriefService) GetJob(ctx http.Context) error {
	job, err := s.uc.Job(ctx, ctx.Vars().Get("id"))
	if err != nil {
		return err
	}
	return ctx.Result(200, job)
}

func (s *BriefService) SearchTickers(ctx http.Context) error {
	q := ctx.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	return ctx.Result(200, &TickersReply{Tickers: s.uc.Tickers(q.Get("q"), limit)})
}
