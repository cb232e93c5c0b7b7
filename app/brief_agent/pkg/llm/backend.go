package llm

import (
	"context"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
)

// Backend 文本生成后端
type Backend interface {
	// Name 后端名称，写入运行日志的 mode_used
	Name() string
	// GenerateSections 根据选中的条目生成简报段落
	GenerateSections(ctx context.Context, in *Input) (*model.GeneratedSections, error)
}

// Input 生成所需的全部上下文
type Input struct {
	Request  model.BriefRequest
	IR       []model.RawItem
	News     []model.RawItem
	Profile  *model.CompanyProfile
	Language model.Language
	// Guidance 上一轮校验失败的原因，仅在修订时非空
	Guidance []string
}
