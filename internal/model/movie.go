package model

// MovieMeta 快照中单部电影的附加信息
type MovieMeta struct {
	Poster string `json:"poster,omitempty"`
}

// MovieMetadata "Name|Year" -> 附加信息
type MovieMetadata map[string]MovieMeta

// Poster 查找海报地址，没有时返回 nil
func (m MovieMetadata) Poster(id FilmIdentity) *string {
	meta, ok := m[id.Key()]
	if !ok || meta.Poster == "" {
		return nil
	}
	poster := meta.Poster
	return &poster
}

// Clone 浅拷贝
func (m MovieMetadata) Clone() MovieMetadata {
	out := make(MovieMetadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// UserFilmView 某用户对某部电影的评分与影评
type UserFilmView struct {
	UserName string   `json:"user_name"`
	Rating   *float64 `json:"rating,omitempty"`
	Review   *string  `json:"review,omitempty"`
}

// MovieIndexEntry 所有启用用户看过的电影（按 identity 去重）
type MovieIndexEntry struct {
	Identity  FilmIdentity   `json:"identity"`
	URI       string         `json:"uri,omitempty"`
	PosterURL *string        `json:"poster_url,omitempty"`
	PerUser   []UserFilmView `json:"per_user"`
}

// WatchlistUserView 共同片单中某用户的视图
type WatchlistUserView struct {
	UserFilmView
	HasWatched bool `json:"has_watched"`
}

// WatchlistIntersectionEntry 所有启用用户片单中都存在的电影
type WatchlistIntersectionEntry struct {
	Identity  FilmIdentity        `json:"identity"`
	URI       string              `json:"uri,omitempty"`
	PosterURL *string             `json:"poster_url,omitempty"`
	PerUser   []WatchlistUserView `json:"per_user"`
}
