package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
)

// Paths 一次运行的输出文件
type Paths struct {
	Markdown string
	JSON     string
}

// Writer 把简报原子地写入输出目录
type Writer struct {
	dir string
	// rename 便于测试注入失败
	rename func(oldpath, newpath string) error
}

// NewWriter 创建写入器
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, rename: os.Rename}
}

// PathsFor 返回 <dir>/<ticker>_<date>.md 与 .json
func (w *Writer) PathsFor(ticker, date string) Paths {
	base := filepath.Join(w.dir, fmt.Sprintf("%s_%s", ticker, date))
	return Paths{Markdown: base + ".md", JSON: base + ".json"}
}

// Persist 写临时文件、fsync、回读校验，再 rename 到正式路径。
// 任一步失败都会清理临时文件；JSON rename 失败时恢复上一次的 .md，正式路径上保持原来的一对文件。
func (w *Writer) Persist(ctx context.Context, doc *model.BriefDocument, markdown string) (Paths, error) {
	paths := w.PathsFor(doc.Ticker, doc.Date)

	jsonData, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Paths{}, fmt.Errorf("%w: encode json: %v", model.ErrWriteFailed, err)
	}
	jsonData = append(jsonData, '\n')

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("%w: create output dir: %v", model.ErrWriteFailed, err)
	}

	mdTmp, err := w.writeVerified([]byte(markdown))
	if err != nil {
		return Paths{}, err
	}
	jsonTmp, err := w.writeVerified(jsonData)
	if err != nil {
		os.Remove(mdTmp)
		return Paths{}, err
	}

	if err := ctx.Err(); err != nil {
		os.Remove(mdTmp)
		os.Remove(jsonTmp)
		return Paths{}, err
	}

	backup, err := w.backup(paths.Markdown)
	if err != nil {
		os.Remove(mdTmp)
		os.Remove(jsonTmp)
		return Paths{}, err
	}

	if err := w.rename(mdTmp, paths.Markdown); err != nil {
		os.Remove(mdTmp)
		os.Remove(jsonTmp)
		removeIfSet(backup)
		return Paths{}, fmt.Errorf("%w: rename %s: %v", model.ErrWriteFailed, paths.Markdown, err)
	}
	if err := w.rename(jsonTmp, paths.JSON); err != nil {
		os.Remove(jsonTmp)
		restore(backup, paths.Markdown)
		return Paths{}, fmt.Errorf("%w: rename %s: %v", model.ErrWriteFailed, paths.JSON, err)
	}
	removeIfSet(backup)
	return paths, nil
}

// backup 把已有的正式 .md 复制到临时文件，没有旧文件时返回空串
func (w *Writer) backup(path string) (string, error) {
	old, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("%w: read %s: %v", model.ErrWriteFailed, path, err)
	}
	return w.writeVerified(old)
}

// restore 用备份覆盖正式路径；没有备份时删除正式路径上的新文件
func restore(backup, path string) {
	if backup == "" {
		os.Remove(path)
		return
	}
	if err := os.Rename(backup, path); err != nil {
		os.Remove(backup)
		os.Remove(path)
	}
}

func removeIfSet(path string) {
	if path != "" {
		os.Remove(path)
	}
}

// writeVerified 写入临时文件并回读比较，返回临时文件路径
func (w *Writer) writeVerified(data []byte) (string, error) {
	f, err := os.CreateTemp(w.dir, ".brief-*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: create temp: %v", model.ErrWriteFailed, err)
	}
	name := f.Name()

	fail := func(step string, err error) (string, error) {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("%w: %s %s: %v", model.ErrWriteFailed, step, name, err)
	}

	if _, err := f.Write(data); err != nil {
		return fail("write", err)
	}
	if err := f.Sync(); err != nil {
		return fail("fsync", err)
	}
	if err := f.Close(); err != nil {
		return fail("close", err)
	}

	back, err := os.ReadFile(name)
	if err != nil {
		os.Remove(name)
		return "", fmt.Errorf("%w: read back %s: %v", model.ErrWriteFailed, name, err)
	}
	if !bytes.Equal(back, data) {
		os.Remove(name)
		return "", fmt.Errorf("%w: verify %s: content mismatch", model.ErrWriteFailed, name)
	}
	return name, nil
}
