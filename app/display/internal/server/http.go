package server

import (
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/ir_brief/app/display/internal/conf"
	"github.com/iWorld-y/ir_brief/app/display/internal/service"
)

func NewHTTPServer(c *conf.Server, s *service.BriefService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
	}
	if c != nil && c.Http != nil {
		if c.Http.Addr != "" {
			opts = append(opts, http.Address(c.Http.Addr))
		}
		if c.Http.Timeout != "" {
			if d, err := time.ParseDuration(c.Http.Timeout); err == nil {
				opts = append(opts, http.Timeout(d))
			} else {
				log.NewHelper(logger).Warnf("忽略无效的 timeout 配置 %q: %v", c.Http.Timeout, err)
			}
		}
	}

	srv := http.NewServer(opts...)
	s.RegisterRoutes(srv)
	return srv
}
