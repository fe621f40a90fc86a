package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/user/cinema/internal/logger"
	"github.com/user/cinema/internal/model"
	"github.com/user/cinema/internal/utils"
)

const (
	suggestLimit    = 10
	suggestCacheTTL = 10 * time.Minute
)

// View 每次数据变化后重建的只读视图
type View struct {
	Generation uint64           `json:"generation"`
	Cards      []model.UserCard `json:"users"`
	Comparison *Comparison      `json:"comparison"`
	Index      *Index           `json:"index"`
}

// Upload 待导入的压缩包
type Upload struct {
	Name   string
	Reader io.ReaderAt
	Size   int64
}

// ImportResult 单个压缩包的导入结果
type ImportResult struct {
	File  string          `json:"file"`
	User  *model.UserCard `json:"user,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Library 应用状态的唯一持有者
// 所有写操作串行执行，并在返回前重建视图
type Library struct {
	mu    sync.RWMutex
	users []*model.User
	meta  model.MovieMetadata
	view  *View
	gen   uint64

	// importMu 保证批量导入逐个完成，两个批次之间不会交错
	importMu sync.Mutex
	ingestor *Ingestor
	intn     func(int) int
	log      *logrus.Entry
}

// NewLibrary 创建空的应用状态
func NewLibrary(ingestor *Ingestor) *Library {
	l := &Library{
		users:    make([]*model.User, 0),
		meta:     make(model.MovieMetadata),
		ingestor: ingestor,
		intn:     rand.IntN,
		log:      logger.Component("library"),
	}
	l.rebuildLocked()
	return l
}

// SetRandom 替换随机数来源
func (l *Library) SetRandom(intn func(int) int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intn = intn
}

// ==================== 写操作 ====================

// LoadSnapshot 读取预计算快照。快照不可用时保持空状态，只记录日志
func (l *Library) LoadSnapshot(ctx context.Context, loader *SnapshotLoader) int {
	snap, err := loader.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrSnapshotUnavailable) {
			l.log.WithError(err).Info("未加载预计算快照，使用空状态")
		} else {
			l.log.WithError(err).Warn("读取预计算快照失败，使用空状态")
		}
		return 0
	}
	return l.Hydrate(snap)
}

// Hydrate 合并快照数据。与内存中同名的用户被跳过（先加载者优先）
func (l *Library) Hydrate(snap *model.Snapshot) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, meta := range snap.Metadata() {
		if _, exists := l.meta[key]; !exists {
			l.meta[key] = meta
		}
	}

	added := 0
	for _, su := range snap.Users {
		if l.hasNameLocked(su.Name) {
			l.log.WithField("user", su.Name).Debug("同名用户已存在，跳过快照用户")
			continue
		}
		l.users = append(l.users, su.ToUser())
		added++
	}

	l.rebuildLocked()
	l.log.WithFields(logrus.Fields{"users": added, "movies": len(l.meta)}).Info("快照加载完成")
	return added
}

// Add 追加用户
func (l *Library) Add(u *model.User) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.users = append(l.users, u)
	l.rebuildLocked()
}

// Import 解析单个压缩包并追加用户
func (l *Library) Import(up Upload) (*model.User, error) {
	l.importMu.Lock()
	defer l.importMu.Unlock()
	return l.importLocked(up)
}

// ImportBatch 逐个导入压缩包，单个失败不影响其他
func (l *Library) ImportBatch(uploads []Upload) []ImportResult {
	l.importMu.Lock()
	defer l.importMu.Unlock()

	results := make([]ImportResult, 0, len(uploads))
	for _, up := range uploads {
		res := ImportResult{File: up.Name}
		u, err := l.importLocked(up)
		if err != nil {
			res.Error = err.Error()
		} else {
			card := cardOf(u)
			res.User = &card
		}
		results = append(results, res)
	}
	return results
}

func (l *Library) importLocked(up Upload) (*model.User, error) {
	u, err := l.ingestor.Ingest(up.Name, up.Reader, up.Size)
	if err != nil {
		l.log.WithError(err).WithField("archive", up.Name).Warn("导入压缩包失败")
		return nil, err
	}
	l.Add(u)
	return cloneUser(u), nil
}

// SetEnabled 启用/停用用户，不删除其数据
func (l *Library) SetEnabled(id uuid.UUID, enabled bool) (*model.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	u := l.findLocked(id)
	if u == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	if u.Enabled != enabled {
		u.Enabled = enabled
		l.rebuildLocked()
	}
	return cloneUser(u), nil
}

// Remove 删除用户
func (l *Library) Remove(id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, u := range l.users {
		if u.ID == id {
			l.users = append(l.users[:i:i], l.users[i+1:]...)
			l.rebuildLocked()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUserNotFound, id)
}

// MergePosters 写入抓取到的海报，已有海报不覆盖
func (l *Library) MergePosters(posters map[string]string) int {
	if len(posters) == 0 {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	merged := 0
	for key, poster := range posters {
		if meta, ok := l.meta[key]; ok && meta.Poster != "" {
			continue
		}
		l.meta[key] = model.MovieMeta{Poster: poster}
		merged++
	}
	if merged > 0 {
		l.rebuildLocked()
	}
	return merged
}

// rebuildLocked 从头重建所有派生视图，调用方需持有写锁
func (l *Library) rebuildLocked() {
	l.gen++
	cards := make([]model.UserCard, 0, len(l.users))
	for _, u := range l.users {
		cards = append(cards, cardOf(u))
	}
	l.view = &View{
		Generation: l.gen,
		Cards:      cards,
		Comparison: Compare(l.users),
		Index:      BuildIndex(l.users, l.meta),
	}
}

// ==================== 读操作 ====================

// View 当前视图
func (l *Library) View() *View {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.view
}

// Users 所有用户的副本
func (l *Library) Users() []*model.User {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*model.User, 0, len(l.users))
	for _, u := range l.users {
		out = append(out, cloneUser(u))
	}
	return out
}

// User 按 ID 查找
func (l *Library) User(id uuid.UUID) (*model.User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	u := l.findLocked(id)
	if u == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return cloneUser(u), nil
}

// UserByName 按名称查找，同名时返回第一个
func (l *Library) UserByName(name string) (*model.User, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, u := range l.users {
		if u.Name == name {
			return cloneUser(u), true
		}
	}
	return nil, false
}

// Metadata 海报信息副本
func (l *Library) Metadata() model.MovieMetadata {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.meta.Clone()
}

// PickCommon 从共同片单随机挑选一部，列表为空时返回 ErrEmptyIntersection
func (l *Library) PickCommon() (model.WatchlistIntersectionEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return PickRandom(l.view.Index.WatchlistIntersection, l.intn)
}

// PickFromUser 从某个用户的片单随机挑选一部
func (l *Library) PickFromUser(id uuid.UUID) (model.WatchlistRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	u := l.findLocked(id)
	if u == nil {
		return model.WatchlistRecord{}, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return PickFromWatchlist(u, l.intn)
}

// Suggest 标题包含关键词（不区分大小写）的前 10 部电影
func (l *Library) Suggest(keyword string) []model.MovieIndexEntry {
	view := l.View()
	kw := strings.ToLower(strings.TrimSpace(keyword))
	cacheKey := fmt.Sprintf("suggest:%d:%s", view.Generation, kw)
	if cached, ok := utils.CacheGet(cacheKey); ok {
		return cached.([]model.MovieIndexEntry)
	}

	out := make([]model.MovieIndexEntry, 0, suggestLimit)
	for _, m := range view.Index.AllMovies {
		if strings.Contains(strings.ToLower(m.Identity.Name), kw) {
			out = append(out, m)
			if len(out) == suggestLimit {
				break
			}
		}
	}

	utils.CacheSet(cacheKey, out, suggestCacheTTL)
	return out
}

// PosterTargets 当前索引中缺少海报且有 URI 的电影
func (l *Library) PosterTargets() []PosterTarget {
	view := l.View()
	targets := make([]PosterTarget, 0)
	for _, m := range view.Index.AllMovies {
		if m.PosterURL == nil && m.URI != "" {
			targets = append(targets, PosterTarget{Identity: m.Identity, URI: m.URI})
		}
	}
	return targets
}

func (l *Library) findLocked(id uuid.UUID) *model.User {
	for _, u := range l.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (l *Library) hasNameLocked(name string) bool {
	for _, u := range l.users {
		if u.Name == name {
			return true
		}
	}
	return false
}

func cardOf(u *model.User) model.UserCard {
	return model.UserCard{
		ID:      u.ID,
		Name:    u.Name,
		Enabled: u.Enabled,
		Stats:   u.Stats(),
	}
}

// cloneUser 记录切片在创建后不再修改，复制结构体即可
func cloneUser(u *model.User) *model.User {
	c := *u
	return &c
}
