package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/user/cinema/internal/model"
)

const (
	countFloor  = 1.0
	ratingFloor = 5.0
)

// Point 单个用户在某项指标上的值
type Point struct {
	UserID   uuid.UUID `json:"user_id"`
	UserName string    `json:"user_name"`
	Value    float64   `json:"value"`
	Display  string    `json:"display"`
}

// Series 一项指标的所有用户值，Max 供渲染层计算条形比例
type Series struct {
	Points []Point `json:"points"`
	Max    float64 `json:"max"`
}

// Percent 某个点相对 Max 的百分比
func (s Series) Percent(p Point) float64 {
	if s.Max <= 0 {
		return 0
	}
	return p.Value / s.Max * 100
}

// Comparison 启用用户的对比数据
type Comparison struct {
	Watched       Series `json:"watched"`
	Rated         Series `json:"rated"`
	Reviews       Series `json:"reviews"`
	Watchlist     Series `json:"watchlist"`
	AverageRating Series `json:"average_rating"`
}

// Empty 没有启用用户
func (c *Comparison) Empty() bool {
	return len(c.Watched.Points) == 0
}

// Compare 计算启用用户的对比指标，没有启用用户时所有序列为空
func Compare(users []*model.User) *Comparison {
	enabled := enabledUsers(users)
	cmp := &Comparison{
		Watched:       Series{Points: []Point{}},
		Rated:         Series{Points: []Point{}},
		Reviews:       Series{Points: []Point{}},
		Watchlist:     Series{Points: []Point{}},
		AverageRating: Series{Points: []Point{}},
	}
	if len(enabled) == 0 {
		return cmp
	}

	cmp.Watched = countSeries(enabled, func(u *model.User) int { return len(u.Watched) })
	cmp.Rated = countSeries(enabled, func(u *model.User) int { return len(u.Ratings) })
	cmp.Reviews = countSeries(enabled, func(u *model.User) int { return len(u.Reviews) })
	cmp.Watchlist = countSeries(enabled, func(u *model.User) int { return len(u.Watchlist) })

	avg := Series{Points: make([]Point, 0, len(enabled)), Max: ratingFloor}
	for _, u := range enabled {
		v := u.AverageRating()
		avg.Points = append(avg.Points, Point{
			UserID:   u.ID,
			UserName: u.Name,
			Value:    v,
			Display:  FormatRating(v),
		})
		if v > avg.Max {
			avg.Max = v
		}
	}
	cmp.AverageRating = avg

	return cmp
}

func countSeries(users []*model.User, count func(*model.User) int) Series {
	s := Series{Points: make([]Point, 0, len(users)), Max: countFloor}
	for _, u := range users {
		v := float64(count(u))
		s.Points = append(s.Points, Point{
			UserID:   u.ID,
			UserName: u.Name,
			Value:    v,
			Display:  fmt.Sprintf("%d", count(u)),
		})
		if v > s.Max {
			s.Max = v
		}
	}
	return s
}

// FormatRating 保留一位小数
func FormatRating(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
