package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/user/cinema/internal/logger"
	"github.com/user/cinema/internal/model"
	"github.com/user/cinema/internal/utils"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// errNoPoster 页面上没有 og:image
var errNoPoster = errors.New("no og:image on page")

// errHostNotAllowed URI 不是 Letterboxd 电影页
var errHostNotAllowed = errors.New("film page host not allowed")

// PosterTarget 待补全海报的电影
type PosterTarget struct {
	Identity model.FilmIdentity
	URI      string
}

// PosterFetcher 从 Letterboxd 电影页抓取海报地址
type PosterFetcher struct {
	client      *utils.HTTPClient
	limiter     *rate.Limiter
	cache       *utils.SearchCache[string]
	sf          singleflight.Group // 防止并发重复抓取同一页面
	hosts       []string
	limit       int
	concurrency int
	log         *logrus.Entry
}

// NewPosterFetcher 创建海报抓取器。limit 为单次补全的最大电影数
func NewPosterFetcher(client *utils.HTTPClient, perSecond float64, limit int) *PosterFetcher {
	return &PosterFetcher{
		client:      client,
		limiter:     rate.NewLimiter(rate.Limit(perSecond), 1),
		cache:       utils.NewSearchCache[string](2000, 24*time.Hour),
		hosts:       utils.FilmPageHosts,
		limit:       limit,
		concurrency: 4,
		log:         logger.Component("poster"),
	}
}

// Fetch 抓取单个页面的海报地址。未找到时缓存空结果，避免反复请求
func (f *PosterFetcher) Fetch(ctx context.Context, uri string) (string, error) {
	if uri == "" {
		return "", fmt.Errorf("%w: 缺少 Letterboxd URI", errNoPoster)
	}
	if u, err := url.Parse(uri); err != nil || !utils.AllowedURL(u, f.hosts) {
		return "", fmt.Errorf("%w: %s", errHostNotAllowed, uri)
	}
	if poster, ok := f.cache.Get(uri); ok {
		if poster == "" {
			return "", errNoPoster
		}
		return poster, nil
	}

	val, err, _ := f.sf.Do(uri, func() (interface{}, error) {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", err
		}
		poster, err := f.scrape(ctx, uri)
		if err != nil && !errors.Is(err, errNoPoster) {
			return "", err
		}
		f.cache.Set(uri, poster)
		return poster, err
	})
	if err != nil {
		return "", err
	}
	return val.(string), nil
}

func (f *PosterFetcher) scrape(ctx context.Context, uri string) (string, error) {
	body, err := f.client.Open(ctx, uri)
	if err != nil {
		return "", fmt.Errorf("请求失败: %w", err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", fmt.Errorf("解析 HTML 失败: %w", err)
	}

	poster, exists := doc.Find(`meta[property="og:image"]`).First().Attr("content")
	poster = strings.TrimSpace(poster)
	if !exists || poster == "" {
		return "", errNoPoster
	}
	return poster, nil
}

// FetchMissing 为最多 limit 部电影抓取海报，返回 "Name|Year" -> 海报地址
// 单部失败只记录日志
func (f *PosterFetcher) FetchMissing(ctx context.Context, targets []PosterTarget) map[string]string {
	found := make(map[string]string)
	if len(targets) == 0 || f.limit == 0 {
		return found
	}
	if len(targets) > f.limit {
		targets = targets[:f.limit]
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for _, t := range targets {
		g.Go(func() error {
			poster, err := f.Fetch(gctx, t.URI)
			if err != nil {
				f.log.WithError(err).WithField("film", t.Identity.Key()).Debug("未找到海报")
				return nil
			}
			mu.Lock()
			found[t.Identity.Key()] = poster
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	f.log.WithFields(logrus.Fields{"requested": len(targets), "found": len(found)}).Info("海报补全完成")
	return found
}
