package main

import (
	"flag"
	"os"
	"time"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"

	briefconfig "github.com/iWorld-y/ir_brief/app/brief_agent/pkg/config"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/engine"
	brieflogger "github.com/iWorld-y/ir_brief/app/brief_agent/pkg/logger"
	"github.com/iWorld-y/ir_brief/app/display/internal/conf"
	"github.com/iWorld-y/ir_brief/app/display/internal/data"
	"github.com/iWorld-y/ir_brief/app/display/internal/server"
	"github.com/iWorld-y/ir_brief/app/display/internal/service"
	"github.com/iWorld-y/ir_brief/app/display/internal/usecase"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name 是服务的名称
	Name string = "display"
	// Version 是服务的版本号
	Version string
	// flagconf 是配置文件的路径命令行参数
	flagconf string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "app/display/configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()
	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)

	c := config.New(
		config.WithSource(
			file.NewSource(flagconf),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		panic(err)
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		panic(err)
	}

	app, cleanup, err := initApp(bc.Server, bc.Brief, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	if err := app.Run(); err != nil {
		panic(err)
	}
}

// initApp 手动组装依赖：引擎 → 仓库 → 业务逻辑 → 服务 → HTTP server
func initApp(sc *conf.Server, b *conf.Brief, logger log.Logger) (*kratos.App, func(), error) {
	helper := log.NewHelper(logger)
	if b == nil {
		b = &conf.Brief{}
	}
	if b.Config == "" {
		b.Config = "configs/config.yaml"
	}

	cfg, err := briefconfig.LoadConfig(b.Config)
	if err != nil {
		return nil, nil, err
	}
	if err := brieflogger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		helper.Errorf("简报引擎日志初始化失败: %v", err)
		_ = brieflogger.InitLogger("info", "")
	}

	eng, err := engine.NewEngine(cfg, briefconfig.ResolveCredentials(cfg))
	if err != nil {
		return nil, nil, err
	}

	d, dataCleanup, err := data.NewData(cfg.Brief.OutputDir, logger)
	if err != nil {
		eng.Close()
		return nil, nil, err
	}

	var jobTimeout time.Duration
	if b.JobTimeout != "" {
		if jobTimeout, err = time.ParseDuration(b.JobTimeout); err != nil {
			helper.Warnf("忽略无效的 job_timeout 配置 %q: %v", b.JobTimeout, err)
			jobTimeout = 0
		}
	}

	uc := usecase.NewBriefUseCase(data.NewBriefRepo(d, logger), eng, jobTimeout, int(b.MaxJobs), logger)
	srv := server.NewHTTPServer(sc, service.NewBriefService(uc, logger), logger)

	app := kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Logger(logger),
		kratos.Server(srv),
	)
	cleanup := func() {
		uc.Wait()
		dataCleanup()
		if err := eng.Close(); err != nil {
			helper.Errorf("关闭简报引擎失败: %v", err)
		}
	}
	return app, cleanup, nil
}
