package data

import (
	"fmt"
	"os"

	"github.com/go-kratos/kratos/v2/log"
)

// Data 简报输出目录
type Data struct {
	dir string
}

func NewData(dir string, logger log.Logger) (*Data, func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	cleanup := func() {
		log.NewHelper(logger).Info("closing the data resources")
	}
	return &Data{dir: dir}, cleanup, nil
}
