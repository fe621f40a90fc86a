package model

import (
	"time"

	"github.com/google/uuid"
)

// User 一个 Letterboxd 导出对应的用户
type User struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Watched   []WatchedRecord   `json:"watched"`
	Ratings   []RatingRecord    `json:"ratings"`
	Reviews   []ReviewRecord    `json:"reviews"`
	Watchlist []WatchlistRecord `json:"watchlist"`
	Likes     []LikeRecord      `json:"likes"`
	Enabled   bool              `json:"enabled"`
	UpdatedAt time.Time         `json:"updatedAt,omitempty"`
}

// NewUser 创建空用户，默认启用
func NewUser(name string) *User {
	return &User{
		ID:        uuid.New(),
		Name:      name,
		Watched:   []WatchedRecord{},
		Ratings:   []RatingRecord{},
		Reviews:   []ReviewRecord{},
		Watchlist: []WatchlistRecord{},
		Likes:     []LikeRecord{},
		Enabled:   true,
		UpdatedAt: time.Now(),
	}
}

// AverageRating 平均评分，无法解析的评分按 0 计，无评分返回 0
func (u *User) AverageRating() float64 {
	if len(u.Ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range u.Ratings {
		v, _ := r.Value()
		sum += v
	}
	return sum / float64(len(u.Ratings))
}

// RatingFor 该用户对某部电影的评分（第一条匹配记录）
// 没有记录或评分无法解析时返回 nil
func (u *User) RatingFor(id FilmIdentity) *float64 {
	r, ok := FindFirst(u.Ratings, id)
	if !ok {
		return nil
	}
	v, ok := r.Value()
	if !ok {
		return nil
	}
	return &v
}

// ReviewFor 该用户对某部电影的影评正文（第一条匹配记录）
func (u *User) ReviewFor(id FilmIdentity) *string {
	r, ok := FindFirst(u.Reviews, id)
	if !ok {
		return nil
	}
	text := r.Review
	return &text
}

// UserStats 用户卡片上的统计数据
type UserStats struct {
	Watched       int     `json:"watched"`
	Rated         int     `json:"rated"`
	Liked         int     `json:"liked"`
	Watchlist     int     `json:"watchlist"`
	Reviews       int     `json:"reviews"`
	AverageRating float64 `json:"avg_rating"`
}

// Stats 计算卡片统计
func (u *User) Stats() UserStats {
	return UserStats{
		Watched:       len(u.Watched),
		Rated:         len(u.Ratings),
		Liked:         len(u.Likes),
		Watchlist:     len(u.Watchlist),
		Reviews:       len(u.Reviews),
		AverageRating: u.AverageRating(),
	}
}

// UserCard 用户列表展示项
type UserCard struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Enabled bool      `json:"enabled"`
	Stats   UserStats `json:"stats"`
}
