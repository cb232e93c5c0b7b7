package repo

import (
	"context"

	"github.com/iWorld-y/ir_brief/app/display/internal/domain"
)

// BriefRepo 简报仓库接口
type BriefRepo interface {
	// ListBriefs 按日期倒序列出已生成的简报
	ListBriefs(ctx context.Context) ([]*domain.BriefSummary, error)
	// GetBrief 按文件名读取简报（.md 或 .json）
	GetBrief(ctx context.Context, name string) (*domain.BriefFile, error)
}
