package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/user/cinema/internal/logger"
	"github.com/user/cinema/internal/model"
	"github.com/user/cinema/internal/repository"
)

// ErrNoArchives 目录中没有 zip 文件
var ErrNoArchives = errors.New("no zip archives found")

// SnapshotSummary 快照统计
type SnapshotSummary struct {
	Users       int
	Movies      int
	WithPoster  int
	LastUpdated string
}

// SnapshotBuilder 将导出压缩包增量写入 data.json
type SnapshotBuilder struct {
	repo     *repository.SnapshotRepository
	ingestor *Ingestor
	posters  *PosterFetcher
	snap     *model.Snapshot
	now      func() time.Time
	log      *logrus.Entry
}

// NewSnapshotBuilder 创建构建器并读取已有快照。posters 为 nil 时不抓取海报
func NewSnapshotBuilder(repo *repository.SnapshotRepository, ingestor *Ingestor, posters *PosterFetcher) *SnapshotBuilder {
	b := &SnapshotBuilder{
		repo:     repo,
		ingestor: ingestor,
		posters:  posters,
		now:      time.Now,
		log:      logger.Component("snapshot"),
	}

	snap, err := repo.Load()
	switch {
	case err == nil:
		b.snap = snap
	case errors.Is(err, fs.ErrNotExist):
		b.snap = emptySnapshot()
	default:
		b.log.WithError(err).Warnf("无法读取已有的 %s，重新开始", repo.Path())
		b.snap = emptySnapshot()
	}
	return b
}

func emptySnapshot() *model.Snapshot {
	return &model.Snapshot{
		Users:  []model.SnapshotUser{},
		Movies: make(map[string]model.SnapshotMovie),
	}
}

// Snapshot 当前快照
func (b *SnapshotBuilder) Snapshot() *model.Snapshot {
	return b.snap
}

// ProcessZip 处理单个压缩包并保存。username 为空时从文件名推导
func (b *SnapshotBuilder) ProcessZip(ctx context.Context, path, username string) error {
	u, err := b.ingestor.IngestFile(path)
	if err != nil {
		return err
	}
	if username != "" {
		u.Name = username
	}
	u.UpdatedAt = b.now()

	b.upsertUser(u)
	added := b.registerMovies(u)
	b.log.WithFields(logrus.Fields{"user": u.Name, "new_movies": added}).Info("用户处理完成")

	if b.posters != nil {
		b.fetchPosters(ctx)
	}

	updated := b.now().Format(time.RFC3339)
	b.snap.LastUpdated = &updated
	if err := b.repo.Save(b.snap); err != nil {
		return err
	}
	return nil
}

// ProcessDir 处理目录下所有 zip，单个失败继续处理其他
func (b *SnapshotBuilder) ProcessDir(ctx context.Context, dir string) (int, int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.zip"))
	if err != nil {
		return 0, 0, fmt.Errorf("扫描目录失败: %w", err)
	}
	if len(paths) == 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrNoArchives, dir)
	}

	var ok, failed int
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return ok, failed, err
		}
		if err := b.ProcessZip(ctx, p, ""); err != nil {
			b.log.WithError(err).WithField("archive", p).Error("处理压缩包失败")
			failed++
			continue
		}
		ok++
	}
	return ok, failed, nil
}

// upsertUser 同名用户整体替换五类记录并重新启用，否则追加
func (b *SnapshotBuilder) upsertUser(u *model.User) {
	next := model.SnapshotUserFrom(u)
	for i := range b.snap.Users {
		if b.snap.Users[i].Name == u.Name {
			b.snap.Users[i] = next
			return
		}
	}
	b.snap.Users = append(b.snap.Users, next)
}

// registerMovies 登记看过和片单中的电影，返回新增数量
func (b *SnapshotBuilder) registerMovies(u *model.User) int {
	added := 0
	ensure := func(ref model.FilmRef) (string, model.SnapshotMovie) {
		key := ref.Identity().Key()
		m, ok := b.snap.Movies[key]
		if !ok {
			m = model.SnapshotMovie{Name: ref.Name, Year: ref.Year, URI: ref.URI, Users: []model.SnapshotMovieUser{}}
			added++
		}
		return key, m
	}

	for _, w := range u.Watched {
		key, m := ensure(w.FilmRef)
		if !hasMovieUser(m, u.Name) {
			var rating *string
			if r, ok := model.FindFirst(u.Ratings, w.Identity()); ok {
				value := r.Rating
				rating = &value
			}
			m.Users = append(m.Users, model.SnapshotMovieUser{Name: u.Name, Rating: rating, Watched: true})
		}
		b.snap.Movies[key] = m
	}

	for _, w := range u.Watchlist {
		key, m := ensure(w.FilmRef)
		b.snap.Movies[key] = m
	}

	return added
}

func hasMovieUser(m model.SnapshotMovie, name string) bool {
	for _, mu := range m.Users {
		if mu.Name == name {
			return true
		}
	}
	return false
}

func (b *SnapshotBuilder) fetchPosters(ctx context.Context) {
	keys := make([]string, 0)
	for key, m := range b.snap.Movies {
		if m.Poster == nil || *m.Poster == "" {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		b.log.Info("所有电影都已有海报")
		return
	}
	sort.Strings(keys)

	targets := make([]PosterTarget, 0, len(keys))
	for _, key := range keys {
		m := b.snap.Movies[key]
		targets = append(targets, PosterTarget{Identity: model.ParseIdentityKey(key), URI: m.URI})
	}

	for key, poster := range b.posters.FetchMissing(ctx, targets) {
		m := b.snap.Movies[key]
		p := poster
		m.Poster = &p
		b.snap.Movies[key] = m
	}
}

// Summary 快照统计
func (b *SnapshotBuilder) Summary() SnapshotSummary {
	s := SnapshotSummary{
		Users:  len(b.snap.Users),
		Movies: len(b.snap.Movies),
	}
	for _, m := range b.snap.Movies {
		if m.Poster != nil && *m.Poster != "" {
			s.WithPoster++
		}
	}
	if b.snap.LastUpdated != nil {
		s.LastUpdated = *b.snap.LastUpdated
	}
	return s
}
