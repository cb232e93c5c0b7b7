package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/cache"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/config"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/engine"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/logger"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/stocks"
)

var Version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "brief_agent",
		Short:         "Generate IR & news company briefs",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to config file")

	rootCmd.AddCommand(runCmd(&configPath))
	rootCmd.AddCommand(tickersCmd())
	rootCmd.AddCommand(cacheCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode 请求错误返回 2，其余失败返回 1
func exitCode(err error) int {
	if errors.Is(err, model.ErrInvalidRequest) {
		return 2
	}
	return 1
}

// loadConfig 加载配置并初始化日志
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("无法加载配置文件: %w", err)
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, fmt.Errorf("无法初始化日志: %w", err)
	}
	return cfg, nil
}

func runCmd(configPath *string) *cobra.Command {
	var (
		ticker    string
		date      string
		mode      string
		outputDir string
		language  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a brief for one ticker and date",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := model.NewBriefRequest(ticker, date, model.Mode(mode))
			if err != nil {
				return err
			}

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if outputDir != "" {
				cfg.Brief.OutputDir = outputDir
			}
			if language != "" {
				cfg.LLM.Language = language
			}

			eng, err := engine.NewEngine(cfg, config.ResolveCredentials(cfg))
			if err != nil {
				return err
			}
			defer eng.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Log.Infof("启动简报代理: %s %s (%s)", req.Ticker, req.Date, req.Mode)
			res, err := eng.Run(ctx, req, engine.RunOptions{})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Markdown: %s\nJSON:     %s\nBackend:  %s (attempts %d, revised %t)\n",
				res.MarkdownPath, res.JSONPath, res.ModeUsed, res.Attempts, res.Revised)
			return nil
		},
	}

	cmd.Flags().StringVarP(&ticker, "ticker", "t", "", "Ticker symbol, e.g. ACME")
	cmd.Flags().StringVarP(&date, "date", "d", time.Now().Format(model.DateLayout), "As-of date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&mode, "mode", "m", string(model.ModeDemo), "Backend mode: demo, openai, gemini, anthropic")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Override output directory")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Output language: en, fi")
	_ = cmd.MarkFlagRequired("ticker")

	return cmd
}

func tickersCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "tickers [query]",
		Short: "Search the ticker catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			out := cmd.OutOrStdout()
			for _, p := range stocks.Search(query, limit) {
				fmt.Fprintf(out, "%-12s %-32s %s\n", p.Ticker, p.Name, p.Market)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum results")
	return cmd
}

func cacheCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the generated-sections cache",
	}

	var expired bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			c, err := cache.New(cfg.Cache.Dir, time.Duration(cfg.Cache.TTLHours)*time.Hour)
			if err != nil {
				return err
			}

			var n int
			if expired {
				n, err = c.ClearExpired()
			} else {
				n, err = c.Clear()
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cache entries from %s\n", n, cfg.Cache.Dir)
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&expired, "expired", false, "Only remove expired entries")

	cmd.AddCommand(clearCmd)
	return cmd
}
