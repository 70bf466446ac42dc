package gameday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeason(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2023-10-01", 2023},
		{"2023-10-24", 2023},
		{"2023-12-31", 2023},
		{"2024-01-15", 2023},
		{"2024-06-17", 2023},
		{"2024-09-30", 2023},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			d, err := Parse(tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Season())
		})
	}
}

func TestRange(t *testing.T) {
	start := Of(2024, time.February, 27)
	end := Of(2024, time.March, 2)

	dates := Range(start, end)
	require.Len(t, dates, 5, "leap day included")
	assert.Equal(t, "2024-02-29", dates[2].String())
	assert.Equal(t, dates, Range(end, start))
	assert.Len(t, Range(start, start), 1)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("01/15/2024")
	assert.Error(t, err)
}

func TestSeasonWindow(t *testing.T) {
	start, end := SeasonWindow(2023)
	assert.Equal(t, "2023-10-01", start.String())
	assert.Equal(t, "2024-06-30", end.String())
}
