package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/cinema/internal/model"
)

func TestCompare(t *testing.T) {
	alice := newTestUser("alice")
	alice.Watched = []model.WatchedRecord{watched("A", "1"), watched("B", "2"), watched("C", "3")}
	alice.Ratings = []model.RatingRecord{rated("A", "1", "4"), rated("B", "2", "3")}

	bob := newTestUser("bob")
	bob.Watched = []model.WatchedRecord{watched("A", "1")}
	bob.Watchlist = []model.WatchlistRecord{wish("Z", "9")}

	off := newTestUser("carol")
	off.Watched = make([]model.WatchedRecord, 50)
	off.Enabled = false

	cmp := Compare([]*model.User{alice, bob, off})
	require.False(t, cmp.Empty())

	require.Len(t, cmp.Watched.Points, 2, "disabled users are excluded")
	assert.Equal(t, 3.0, cmp.Watched.Max)
	assert.Equal(t, "alice", cmp.Watched.Points[0].UserName)
	assert.Equal(t, "3", cmp.Watched.Points[0].Display)
	assert.Equal(t, alice.ID, cmp.Watched.Points[0].UserID)

	assert.Equal(t, 2.0, cmp.Rated.Max)
	assert.Equal(t, 1.0, cmp.Reviews.Max, "count series floor at 1")
	assert.Equal(t, 1.0, cmp.Watchlist.Max)

	require.Len(t, cmp.AverageRating.Points, 2)
	assert.Equal(t, 3.5, cmp.AverageRating.Points[0].Value)
	assert.Equal(t, "3.5", cmp.AverageRating.Points[0].Display)
	assert.Equal(t, "0.0", cmp.AverageRating.Points[1].Display)
	assert.Equal(t, 5.0, cmp.AverageRating.Max, "rating series floor at 5")
}

func TestCompareNoEnabledUsers(t *testing.T) {
	off := newTestUser("alice")
	off.Enabled = false

	for _, users := range [][]*model.User{nil, {off}} {
		cmp := Compare(users)
		assert.True(t, cmp.Empty())
		for _, s := range []Series{cmp.Watched, cmp.Rated, cmp.Reviews, cmp.Watchlist, cmp.AverageRating} {
			assert.NotNil(t, s.Points)
			assert.Empty(t, s.Points)
			assert.Equal(t, 0.0, s.Max)
		}
	}
}

func TestCompareNonFiniteRatings(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "NaN", value: "NaN"},
		{name: "Inf", value: "Inf"},
		{name: "负无穷", value: "-Infinity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newTestUser("alice")
			u.Watched = []model.WatchedRecord{watched("A", "1"), watched("B", "2")}
			u.Ratings = []model.RatingRecord{rated("A", "1", "4"), rated("B", "2", tt.value)}

			cmp := Compare([]*model.User{u})
			require.Len(t, cmp.AverageRating.Points, 1)
			assert.Equal(t, 2.0, cmp.AverageRating.Points[0].Value, "non-finite rating counts as 0")
			assert.Equal(t, "2.0", cmp.AverageRating.Points[0].Display)
			_, err := json.Marshal(cmp)
			require.NoError(t, err)

			lib := NewLibrary(NewIngestor())
			lib.Add(u)
			_, err = json.Marshal(lib.View())
			require.NoError(t, err)
			assert.Nil(t, u.RatingFor(fid("B", "2")))
		})
	}
}

func TestSeriesPercent(t *testing.T) {
	s := Series{Max: 4}
	assert.Equal(t, 50.0, s.Percent(Point{Value: 2}))
	assert.Equal(t, 0.0, Series{}.Percent(Point{Value: 2}))
}

func TestFormatRating(t *testing.T) {
	assert.Equal(t, "3.7", FormatRating(3.6666))
	assert.Equal(t, "0.0", FormatRating(0))
	assert.Equal(t, "5.0", FormatRating(5))
}
