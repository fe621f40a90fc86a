package service

import (
	"sort"

	"github.com/user/cinema/internal/model"
)

// Index 跨用户电影索引，每次数据变化时整体重建
type Index struct {
	AllMovies             []model.MovieIndexEntry            `json:"all_movies"`
	WatchlistIntersection []model.WatchlistIntersectionEntry `json:"watchlist_intersection"`
}

// BuildIndex 基于启用用户构建索引
func BuildIndex(users []*model.User, meta model.MovieMetadata) *Index {
	enabled := enabledUsers(users)
	return &Index{
		AllMovies:             buildAllMovies(enabled, meta),
		WatchlistIntersection: buildWatchlistIntersection(enabled, meta),
	}
}

func enabledUsers(users []*model.User) []*model.User {
	out := make([]*model.User, 0, len(users))
	for _, u := range users {
		if u.Enabled {
			out = append(out, u)
		}
	}
	return out
}

// buildAllMovies 按 identity 汇总启用用户看过的电影
// 同一用户重复观看的每条记录都会追加一个用户视图
func buildAllMovies(users []*model.User, meta model.MovieMetadata) []model.MovieIndexEntry {
	entries := make([]model.MovieIndexEntry, 0)
	positions := make(map[model.FilmIdentity]int)

	for _, u := range users {
		for _, w := range u.Watched {
			id := w.Identity()
			pos, ok := positions[id]
			if !ok {
				pos = len(entries)
				positions[id] = pos
				entries = append(entries, model.MovieIndexEntry{
					Identity:  id,
					URI:       w.URI,
					PosterURL: meta.Poster(id),
					PerUser:   []model.UserFilmView{},
				})
			}
			entries[pos].PerUser = append(entries[pos].PerUser, userFilmView(u, id))
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return identityLess(entries[i].Identity, entries[j].Identity)
	})
	return entries
}

// buildWatchlistIntersection 所有启用用户片单的交集
func buildWatchlistIntersection(users []*model.User, meta model.MovieMetadata) []model.WatchlistIntersectionEntry {
	entries := make([]model.WatchlistIntersectionEntry, 0)
	if len(users) == 0 {
		return entries
	}

	sets := make([]map[model.FilmIdentity]struct{}, len(users))
	for i, u := range users {
		sets[i] = model.IdentitySet(u.Watchlist)
	}

	seen := make(map[model.FilmIdentity]struct{})
	for _, w := range users[0].Watchlist {
		id := w.Identity()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if !inAll(id, sets[1:]) {
			continue
		}

		entry := model.WatchlistIntersectionEntry{
			Identity:  id,
			URI:       w.URI,
			PosterURL: meta.Poster(id),
			PerUser:   make([]model.WatchlistUserView, 0, len(users)),
		}
		for _, u := range users {
			_, watched := model.FindFirst(u.Watched, id)
			entry.PerUser = append(entry.PerUser, model.WatchlistUserView{
				UserFilmView: userFilmView(u, id),
				HasWatched:   watched,
			})
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return identityLess(entries[i].Identity, entries[j].Identity)
	})
	return entries
}

func inAll(id model.FilmIdentity, sets []map[model.FilmIdentity]struct{}) bool {
	for _, set := range sets {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

func userFilmView(u *model.User, id model.FilmIdentity) model.UserFilmView {
	return model.UserFilmView{
		UserName: u.Name,
		Rating:   u.RatingFor(id),
		Review:   u.ReviewFor(id),
	}
}

// identityLess 标题按字节序（区分大小写），标题相同按年份
func identityLess(a, b model.FilmIdentity) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Year < b.Year
}

// PickRandom 从列表中均匀随机取一项，列表为空时返回 ErrEmptyIntersection
func PickRandom[T any](entries []T, intn func(int) int) (T, error) {
	var zero T
	if len(entries) == 0 {
		return zero, ErrEmptyIntersection
	}
	return entries[intn(len(entries))], nil
}
