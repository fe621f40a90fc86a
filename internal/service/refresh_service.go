package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/user/cinema/internal/logger"
)

// PosterRefresher 定时为缺少海报的电影补全海报
type PosterRefresher struct {
	library  *Library
	posters  *PosterFetcher
	interval time.Duration
	log      *logrus.Entry
}

// NewPosterRefresher 创建海报补全任务，interval <= 0 时只支持手动触发
func NewPosterRefresher(library *Library, posters *PosterFetcher, interval time.Duration) *PosterRefresher {
	return &PosterRefresher{
		library:  library,
		posters:  posters,
		interval: interval,
		log:      logger.Component("refresher"),
	}
}

// Start 启动定时任务，ctx 取消时退出
func (s *PosterRefresher) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		// 启动时先运行一次
		s.Run(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Run(ctx)
			}
		}
	}()
}

// Run 执行一次补全，返回缺少海报的电影数和新写入的海报数
func (s *PosterRefresher) Run(ctx context.Context) (int, int) {
	targets := s.library.PosterTargets()
	if len(targets) == 0 {
		return 0, 0
	}

	found := s.posters.FetchMissing(ctx, targets)
	merged := s.library.MergePosters(found)
	s.log.WithFields(logrus.Fields{"missing": len(targets), "merged": merged}).Info("海报补全完成")
	return len(targets), merged
}
