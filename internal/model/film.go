package model

import (
	"math"
	"strconv"
	"strings"
)

// FilmRecord CSV 解析出的一行原始数据（列名 -> 值）
type FilmRecord map[string]string

// Letterboxd 导出文件中使用的列名
const (
	ColDate        = "Date"
	ColName        = "Name"
	ColYear        = "Year"
	ColURI         = "Letterboxd URI"
	ColRating      = "Rating"
	ColRewatch     = "Rewatch"
	ColReview      = "Review"
	ColTags        = "Tags"
	ColWatchedDate = "Watched Date"
)

// FilmIdentity 跨用户匹配用的 (Name, Year) 组合键
// 比较为精确字符串比较，不做大小写或空白归一化
type FilmIdentity struct {
	Name string `json:"name"`
	Year string `json:"year"`
}

// Key 序列化为 "Name|Year"，与快照文件 movies 字段的键一致
func (id FilmIdentity) Key() string {
	return id.Name + "|" + id.Year
}

// ParseIdentityKey 解析 "Name|Year"，年份取最后一个分隔符之后的部分
func ParseIdentityKey(key string) FilmIdentity {
	i := strings.LastIndex(key, "|")
	if i < 0 {
		return FilmIdentity{Name: key}
	}
	return FilmIdentity{Name: key[:i], Year: key[i+1:]}
}

// Film 所有带 (Name, Year) 的记录
type Film interface {
	Identity() FilmIdentity
}

// FilmRef 各类记录共有的字段
type FilmRef struct {
	Date string `json:"Date,omitempty"`
	Name string `json:"Name"`
	Year string `json:"Year"`
	URI  string `json:"Letterboxd URI,omitempty"`
}

// Identity 实现 Film
func (f FilmRef) Identity() FilmIdentity {
	return FilmIdentity{Name: f.Name, Year: f.Year}
}

// ParseRating 解析评分字符串，失败返回 false。NaN/Inf 不是有效评分
func ParseRating(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FindFirst 按 identity 查找第一条匹配记录（重复记录时第一条生效）
func FindFirst[T Film](records []T, id FilmIdentity) (T, bool) {
	for _, r := range records {
		if r.Identity() == id {
			return r, true
		}
	}
	var zero T
	return zero, false
}

// IdentitySet 将记录集合转换为 identity 集合
func IdentitySet[T Film](records []T) map[FilmIdentity]struct{} {
	set := make(map[FilmIdentity]struct{}, len(records))
	for _, r := range records {
		set[r.Identity()] = struct{}{}
	}
	return set
}
