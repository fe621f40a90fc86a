package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/user/cinema/internal/logger"
	"github.com/user/cinema/internal/repository"
	"github.com/user/cinema/internal/service"
	"github.com/user/cinema/internal/utils"
)

type options struct {
	zipPath      string
	user         string
	output       string
	batch        string
	fetchPosters bool
	posterLimit  int
	posterRate   float64
	logLevel     string
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}

// validate 校验海报抓取参数，与服务端 PosterRate/PosterLimit 的约束一致
func (o *options) validate() error {
	if !o.fetchPosters {
		return nil
	}
	v := validator.New()
	if err := v.Var(o.posterRate, "gt=0"); err != nil {
		return fmt.Errorf("--poster-rate 必须大于 0: %w", err)
	}
	if err := v.Var(o.posterLimit, "gte=0"); err != nil {
		return fmt.Errorf("--poster-limit 不能为负数: %w", err)
	}
	return nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "snapshot",
		Short:         "将 Letterboxd 导出压缩包预处理为 data.json",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.zipPath, "zip", "", "单个导出压缩包路径")
	f.StringVar(&opts.user, "user", "", "用户名（默认从文件名推导）")
	f.StringVar(&opts.output, "output", "web/data.json", "输出 JSON 路径")
	f.StringVar(&opts.batch, "batch", "", "批量处理目录下所有 zip")
	f.BoolVar(&opts.fetchPosters, "fetch-posters", false, "抓取缺失的海报")
	f.IntVar(&opts.posterLimit, "poster-limit", 10, "每次最多抓取的海报数")
	f.Float64Var(&opts.posterRate, "poster-rate", 2, "每秒海报请求数")
	f.StringVar(&opts.logLevel, "log-level", "info", "日志级别")
	cmd.MarkFlagsOneRequired("zip", "batch")
	cmd.MarkFlagsMutuallyExclusive("zip", "batch")

	return cmd
}

func run(ctx context.Context, opts *options) error {
	logger.Init(opts.logLevel, false)
	log := logger.Get()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var posters *service.PosterFetcher
	if opts.fetchPosters {
		posters = service.NewPosterFetcher(utils.NewHTTPClient(10*time.Second), opts.posterRate, opts.posterLimit)
	}

	builder := service.NewSnapshotBuilder(repository.NewSnapshotRepository(opts.output), service.NewIngestor(), posters)

	if opts.batch != "" {
		ok, failed, err := builder.ProcessDir(ctx, opts.batch)
		if err != nil {
			return err
		}
		log.Infof("批量处理完成: 成功 %d, 失败 %d", ok, failed)
	} else {
		if err := builder.ProcessZip(ctx, opts.zipPath, opts.user); err != nil {
			return err
		}
	}

	s := builder.Summary()
	fmt.Printf("用户: %d\n电影: %d\n有海报: %d\n更新时间: %s\n", s.Users, s.Movies, s.WithPoster, s.LastUpdated)
	return nil
}
