package domain

import "time"

// BriefSummary 输出目录中一份简报的摘要
type BriefSummary struct {
	Name       string    `json:"name"`
	Ticker     string    `json:"ticker"`
	Date       string    `json:"date"`
	HasJSON    bool      `json:"has_json"`
	HasMD      bool      `json:"has_markdown"`
	ModifiedAt time.Time `json:"modified_at"`
}

// BriefFile 简报文件内容
type BriefFile struct {
	Name        string
	ContentType string
	Content     []byte
}

// JobStatus 生成任务状态
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job 后台生成任务
type Job struct {
	ID           string    `json:"id"`
	Ticker       string    `json:"ticker"`
	Date         string    `json:"date"`
	Mode         string    `json:"mode"`
	Status       JobStatus `json:"status"`
	Step         string    `json:"step,omitempty"`
	Progress     int       `json:"progress"`
	Error        string    `json:"error,omitempty"`
	Reasons      []string  `json:"reasons,omitempty"`
	ModeUsed     string    `json:"mode_used,omitempty"`
	MarkdownPath string    `json:"markdown_path,omitempty"`
	JSONPath     string    `json:"json_path,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
