package planner

import (
	"fmt"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
)

// StepName 步骤标识
type StepName string

const (
	LoadIR           StepName = "load-ir"
	LoadNews         StepName = "load-news"
	SelectTop        StepName = "select-top"
	GenerateSections StepName = "generate-sections"
	Render           StepName = "render"
	Validate         StepName = "validate"
	Persist          StepName = "persist"
)

// Step 计划中的一个步骤
type Step struct {
	Name        StepName
	Description string
}

// Plan 返回固定顺序的执行计划
func Plan(req model.BriefRequest) []Step {
	return []Step{
		{LoadIR, fmt.Sprintf("Load IR releases for %s", req.Ticker)},
		{LoadNews, fmt.Sprintf("Load news for %s", req.Ticker)},
		{SelectTop, "Select the most recent IR releases and news"},
		{GenerateSections, "Generate summary, drivers, risks and limitations"},
		{Render, "Render the Markdown brief"},
		{Validate, "Validate structure and Markdown/JSON congruence"},
		{Persist, fmt.Sprintf("Write %s_%s.md and .json", req.Ticker, req.Date)},
	}
}

// Independent 两个加载步骤互不依赖，可以并发执行
func Independent(a, b StepName) bool {
	return (a == LoadIR && b == LoadNews) || (a == LoadNews && b == LoadIR)
}
