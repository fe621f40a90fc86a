package model

import (
	"fmt"
	"strings"
)

// Collection 用户的五类记录集合
type Collection string

const (
	CollectionWatched   Collection = "watched"
	CollectionRatings   Collection = "ratings"
	CollectionReviews   Collection = "reviews"
	CollectionWatchlist Collection = "watchlist"
	CollectionLikes     Collection = "likes"
)

// WatchedRecord watched.csv
type WatchedRecord struct {
	FilmRef
}

// RatingRecord ratings.csv
type RatingRecord struct {
	FilmRef
	Rating string `json:"Rating"`
}

// Value 数值评分（0.5 ~ 5.0），无法解析时返回 false
func (r RatingRecord) Value() (float64, bool) {
	return ParseRating(r.Rating)
}

// ReviewRecord reviews.csv
type ReviewRecord struct {
	FilmRef
	Rating      string `json:"Rating,omitempty"`
	Rewatch     string `json:"Rewatch,omitempty"`
	Review      string `json:"Review"`
	Tags        string `json:"Tags,omitempty"`
	WatchedDate string `json:"Watched Date,omitempty"`
}

// WatchlistRecord watchlist.csv
type WatchlistRecord struct {
	FilmRef
}

// LikeRecord likes/films.csv
type LikeRecord struct {
	FilmRef
}

// SchemaMismatchError 缺少预期列。缺失列按空值处理，该错误仅用于记录日志
type SchemaMismatchError struct {
	Collection Collection
	Missing    []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s 缺少列: %s", e.Collection, strings.Join(e.Missing, ", "))
}

var requiredColumns = map[Collection][]string{
	CollectionWatched:   {ColDate, ColName, ColYear, ColURI},
	CollectionRatings:   {ColName, ColYear, ColURI, ColRating},
	CollectionReviews:   {ColName, ColYear, ColURI, ColReview, ColWatchedDate},
	CollectionWatchlist: {ColName, ColYear, ColURI},
	CollectionLikes:     {ColName, ColYear},
}

func refFrom(r FilmRecord) FilmRef {
	return FilmRef{
		Date: r[ColDate],
		Name: r[ColName],
		Year: r[ColYear],
		URI:  r[ColURI],
	}
}

// ToWatched 转换 watched.csv 行
func ToWatched(rows []FilmRecord) ([]WatchedRecord, error) {
	return convert(rows, CollectionWatched, func(r FilmRecord) WatchedRecord {
		return WatchedRecord{FilmRef: refFrom(r)}
	})
}

// ToRatings 转换 ratings.csv 行
func ToRatings(rows []FilmRecord) ([]RatingRecord, error) {
	return convert(rows, CollectionRatings, func(r FilmRecord) RatingRecord {
		return RatingRecord{FilmRef: refFrom(r), Rating: r[ColRating]}
	})
}

// ToReviews 转换 reviews.csv 行
func ToReviews(rows []FilmRecord) ([]ReviewRecord, error) {
	return convert(rows, CollectionReviews, func(r FilmRecord) ReviewRecord {
		return ReviewRecord{
			FilmRef:     refFrom(r),
			Rating:      r[ColRating],
			Rewatch:     r[ColRewatch],
			Review:      r[ColReview],
			Tags:        r[ColTags],
			WatchedDate: r[ColWatchedDate],
		}
	})
}

// ToWatchlist 转换 watchlist.csv 行
func ToWatchlist(rows []FilmRecord) ([]WatchlistRecord, error) {
	return convert(rows, CollectionWatchlist, func(r FilmRecord) WatchlistRecord {
		return WatchlistRecord{FilmRef: refFrom(r)}
	})
}

// ToLikes 转换 likes/films.csv 行
func ToLikes(rows []FilmRecord) ([]LikeRecord, error) {
	return convert(rows, CollectionLikes, func(r FilmRecord) LikeRecord {
		return LikeRecord{FilmRef: refFrom(r)}
	})
}

// convert 总是返回完整的记录列表；列缺失时额外返回 *SchemaMismatchError
func convert[T any](rows []FilmRecord, coll Collection, build func(FilmRecord) T) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		out = append(out, build(r))
	}
	if len(rows) == 0 {
		return out, nil
	}

	// 同一文件的所有行共享表头，检查第一行即可
	var missing []string
	for _, col := range requiredColumns[coll] {
		if _, ok := rows[0][col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return out, &SchemaMismatchError{Collection: coll, Missing: missing}
	}
	return out, nil
}
