package model

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot 预计算快照文件 data.json
type Snapshot struct {
	Users       []SnapshotUser           `json:"users"`
	Movies      map[string]SnapshotMovie `json:"movies"`
	LastUpdated *string                  `json:"lastUpdated"`
}

// SnapshotUser 快照中的用户，字段均可缺省
type SnapshotUser struct {
	Name      string            `json:"name"`
	Watched   []WatchedRecord   `json:"watched"`
	Ratings   []RatingRecord    `json:"ratings"`
	Reviews   []ReviewRecord    `json:"reviews"`
	Watchlist []WatchlistRecord `json:"watchlist"`
	Likes     []LikeRecord      `json:"likes"`
	Enabled   *bool             `json:"enabled,omitempty"`
	UpdatedAt string            `json:"updatedAt,omitempty"`
}

// SnapshotMovie 快照中的电影条目
type SnapshotMovie struct {
	Name   string              `json:"name,omitempty"`
	Year   string              `json:"year,omitempty"`
	URI    string              `json:"uri,omitempty"`
	Poster *string             `json:"poster"`
	Users  []SnapshotMovieUser `json:"users"`
}

// SnapshotMovieUser 电影条目下的用户引用
type SnapshotMovieUser struct {
	Name    string  `json:"name"`
	Rating  *string `json:"rating"`
	Watched bool    `json:"watched"`
}

// ToUser 转换为内存用户。enabled 未显式设为 false 时视为启用
func (s SnapshotUser) ToUser() *User {
	u := &User{
		ID:        uuid.New(),
		Name:      s.Name,
		Watched:   orEmpty(s.Watched),
		Ratings:   orEmpty(s.Ratings),
		Reviews:   orEmpty(s.Reviews),
		Watchlist: orEmpty(s.Watchlist),
		Likes:     orEmpty(s.Likes),
		Enabled:   s.Enabled == nil || *s.Enabled,
	}
	if t, err := time.Parse(time.RFC3339, s.UpdatedAt); err == nil {
		u.UpdatedAt = t
	}
	return u
}

// SnapshotUserFrom 内存用户转换为快照用户
func SnapshotUserFrom(u *User) SnapshotUser {
	enabled := u.Enabled
	s := SnapshotUser{
		Name:      u.Name,
		Watched:   orEmpty(u.Watched),
		Ratings:   orEmpty(u.Ratings),
		Reviews:   orEmpty(u.Reviews),
		Watchlist: orEmpty(u.Watchlist),
		Likes:     orEmpty(u.Likes),
		Enabled:   &enabled,
	}
	if !u.UpdatedAt.IsZero() {
		s.UpdatedAt = u.UpdatedAt.Format(time.RFC3339)
	}
	return s
}

// Metadata 提取海报信息
func (s *Snapshot) Metadata() MovieMetadata {
	meta := make(MovieMetadata, len(s.Movies))
	for key, m := range s.Movies {
		if m.Poster != nil && *m.Poster != "" {
			meta[key] = MovieMeta{Poster: *m.Poster}
		}
	}
	return meta
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
