package service

import (
	"sort"
	"time"

	"github.com/user/cinema/internal/model"
)

const (
	topYears       = 10
	recentWatched  = 20
	letterboxdDate = "2006-01-02"
)

// RatingBuckets 半星评分档位，从高到低
var RatingBuckets = []string{"5", "4.5", "4", "3.5", "3", "2.5", "2", "1.5", "1", "0.5"}

// Bucket 分布图中的一根柱子
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// RecentFilm 最近观看的电影，附带该用户的评分与影评
type RecentFilm struct {
	model.WatchedRecord
	Rating *float64 `json:"rating,omitempty"`
	Review *string  `json:"review,omitempty"`
}

// Profile 单个用户的详情视图
type Profile struct {
	User               *model.User          `json:"user"`
	Stats              model.UserStats      `json:"stats"`
	AverageDisplay     string               `json:"avg_rating_display"`
	RatingDistribution []Bucket             `json:"rating_distribution"`
	RatingMax          int                  `json:"rating_max"`
	YearDistribution   []Bucket             `json:"year_distribution"`
	YearMax            int                  `json:"year_max"`
	TopRated           []model.RatingRecord `json:"top_rated"`
	Recent             []RecentFilm         `json:"recent"`
}

// BuildProfile 计算用户详情
func BuildProfile(u *model.User) *Profile {
	p := &Profile{
		User:           u,
		Stats:          u.Stats(),
		AverageDisplay: FormatRating(u.AverageRating()),
	}
	p.RatingDistribution, p.RatingMax = ratingDistribution(u.Ratings)
	p.YearDistribution, p.YearMax = yearDistribution(u.Watched)
	p.TopRated = topRated(u.Ratings)
	p.Recent = recentlyWatched(u)
	return p
}

// ratingDistribution 按原始评分字符串计数，最大值下限为 1
func ratingDistribution(ratings []model.RatingRecord) ([]Bucket, int) {
	counts := make(map[string]int)
	for _, r := range ratings {
		counts[r.Rating]++
	}

	peak := 1
	out := make([]Bucket, 0, len(RatingBuckets))
	for _, label := range RatingBuckets {
		c := counts[label]
		if c > peak {
			peak = c
		}
		out = append(out, Bucket{Label: label, Count: c})
	}
	return out, peak
}

// yearDistribution 观看次数最多的 10 个年份，次数相同按年份升序
func yearDistribution(watched []model.WatchedRecord) ([]Bucket, int) {
	counts := make(map[string]int)
	for _, w := range watched {
		counts[w.Year]++
	}

	out := make([]Bucket, 0, len(counts))
	for year, c := range counts {
		out = append(out, Bucket{Label: year, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if len(out) > topYears {
		out = out[:topYears]
	}

	peak := 1
	for _, b := range out {
		if b.Count > peak {
			peak = b.Count
		}
	}
	return out, peak
}

// topRated 按评分从高到低，评分相同保持原顺序
func topRated(ratings []model.RatingRecord) []model.RatingRecord {
	out := make([]model.RatingRecord, len(ratings))
	copy(out, ratings)
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].Value()
		b, _ := out[j].Value()
		return a > b
	})
	return out
}

// recentlyWatched 按观看日期倒序取前 20 条，无法解析的日期排在最后
func recentlyWatched(u *model.User) []RecentFilm {
	watched := make([]model.WatchedRecord, len(u.Watched))
	copy(watched, u.Watched)
	sort.SliceStable(watched, func(i, j int) bool {
		return parseDate(watched[i].Date).After(parseDate(watched[j].Date))
	})
	if len(watched) > recentWatched {
		watched = watched[:recentWatched]
	}

	out := make([]RecentFilm, 0, len(watched))
	for _, w := range watched {
		id := w.Identity()
		out = append(out, RecentFilm{
			WatchedRecord: w,
			Rating:        u.RatingFor(id),
			Review:        u.ReviewFor(id),
		})
	}
	return out
}

func parseDate(s string) time.Time {
	t, err := time.Parse(letterboxdDate, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// PickFromWatchlist 从单个用户的片单随机挑选
func PickFromWatchlist(u *model.User, intn func(int) int) (model.WatchlistRecord, error) {
	if len(u.Watchlist) == 0 {
		return model.WatchlistRecord{}, ErrEmptyWatchlist
	}
	return u.Watchlist[intn(len(u.Watchlist))], nil
}
