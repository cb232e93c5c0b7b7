package logger

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// RunRecord 运行日志中的一条记录
type RunRecord struct {
	RunID         string
	Ticker        string
	Date          string
	ModeRequested string
	ModeUsed      string
	Attempts      int
	Revised       bool
	Verdict       string // done | failed
	Reasons       []string
	Error         string
	DurationMS    int64
	Outputs       []string
	Markdown      string // 仅在写入失败时记录
}

// RunLedger 追加写入的 JSON Lines 运行日志
type RunLedger struct {
	mu     sync.Mutex
	log    *logrus.Logger
	closer io.Closer
}

// NewRunLedger 打开运行日志文件；path 为空时丢弃记录
func NewRunLedger(path string) (*RunLedger, error) {
	if path == "" {
		return NewRunLedgerWriter(io.Discard), nil
	}
	f, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	l := NewRunLedgerWriter(f)
	l.closer = f
	return l, nil
}

// NewRunLedgerWriter 写入任意 io.Writer，测试中使用
func NewRunLedgerWriter(w io.Writer) *RunLedger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap:        logrus.FieldMap{logrus.FieldKeyMsg: "event"},
	})
	l.SetLevel(logrus.InfoLevel)
	return &RunLedger{log: l}
}

// Record 写入一条运行记录
func (r *RunLedger) Record(rec RunRecord) {
	fields := logrus.Fields{
		"run_id":         rec.RunID,
		"ticker":         rec.Ticker,
		"date":           rec.Date,
		"mode_requested": rec.ModeRequested,
		"mode_used":      rec.ModeUsed,
		"attempts":       rec.Attempts,
		"revised":        rec.Revised,
		"verdict":        rec.Verdict,
		"reasons":        nonNil(rec.Reasons),
		"duration_ms":    rec.DurationMS,
		"outputs":        nonNil(rec.Outputs),
	}
	if rec.Error != "" {
		fields["error"] = rec.Error
	}
	if rec.Markdown != "" {
		fields["markdown"] = rec.Markdown
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.WithFields(fields).Info("run")
}

// Close 关闭底层文件
func (r *RunLedger) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
