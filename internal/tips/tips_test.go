package tips

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayNumber(t *testing.T) {
	assert.Equal(t, int64(0), dayNumber(time.Date(1970, 1, 1, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, int64(1), dayNumber(time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(-1), dayNumber(time.Date(1969, 12, 31, 12, 0, 0, 0, time.UTC)))

	// local date, not the UTC instant
	tokyo := time.FixedZone("JST", 9*3600)
	assert.Equal(t, int64(1), dayNumber(time.Date(1970, 1, 2, 1, 0, 0, 0, tokyo)))
}

func TestForDay_StableWithinDay(t *testing.T) {
	morning := time.Date(2026, 10, 14, 0, 1, 0, 0, time.Local)
	evening := time.Date(2026, 10, 14, 23, 59, 0, 0, time.Local)
	next := morning.AddDate(0, 0, 1)

	assert.Equal(t, ForDay(morning, 3), ForDay(evening, 3))
	assert.NotEqual(t, ForDay(morning, 1), ForDay(next, 1))
	assert.Equal(t, ForDay(morning, 2)[1], ForDay(next, 1)[0])
}

func TestRotate(t *testing.T) {
	list := []Tip{{Title: "a"}, {Title: "b"}, {Title: "c"}}
	titles := func(ts []Tip) []string {
		var out []string
		for _, tip := range ts {
			out = append(out, tip.Title)
		}
		return out
	}

	tests := []struct {
		name string
		day  int64
		n    int
		want []string
	}{
		{"start", 0, 2, []string{"a", "b"}},
		{"wraps", 2, 2, []string{"c", "a"}},
		{"day beyond length", 4, 1, []string{"b"}},
		{"negative day", -1, 2, []string{"c", "a"}},
		{"capped", 1, 10, []string{"b", "c", "a"}},
		{"zero", 1, 0, nil},
		{"negative n", 1, -3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titles(rotate(list, tt.day, tt.n)))
		})
	}

	assert.Nil(t, rotate(nil, 3, 2))
}

func TestAll_ReturnsCopy(t *testing.T) {
	tips := All()
	tips[0].Title = "changed"
	assert.NotEqual(t, "changed", All()[0].Title)
	assert.Len(t, Today(len(all)+5), len(all))
}
