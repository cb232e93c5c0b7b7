package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
)

// RunError 运行失败时返回的错误；Kind 为 model 包中的哨兵错误
type RunError struct {
	Kind    error
	Reasons []string
	Err     error
}

func (e *RunError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Err != nil && e.Err != e.Kind {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	if len(e.Reasons) > 0 {
		fmt.Fprintf(&sb, " (%s)", strings.Join(e.Reasons, "; "))
	}
	return sb.String()
}

// Unwrap 同时暴露 Kind 与底层错误，errors.Is 对两者都成立
func (e *RunError) Unwrap() []error {
	if e.Err == nil || e.Err == e.Kind {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

var kinds = []error{
	model.ErrInvalidRequest,
	model.ErrDataUnavailable,
	model.ErrValidationFailed,
	model.ErrWriteFailed,
	context.Canceled,
	context.DeadlineExceeded,
}

func newRunError(err error, reasons []string) *RunError {
	var re *RunError
	if errors.As(err, &re) {
		return re
	}
	kind := err
	for _, k := range kinds {
		if errors.Is(err, k) {
			kind = k
			break
		}
	}
	return &RunError{Kind: kind, Reasons: reasons, Err: err}
}
