package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateRangeBounds(t *testing.T) {
	from, to := AllTime.Bounds()
	assert.Empty(t, from)
	assert.Empty(t, to)

	from, to = Since(NewDate(2024, 6, 1)).Bounds()
	assert.Equal(t, "2024-06-01", from)
	assert.Empty(t, to)

	from, to = Until(NewDate(2024, 6, 30)).DisplayBounds()
	assert.Empty(t, from)
	assert.Equal(t, "30.06.2024", to)

	r := Between(NewDate(2024, 6, 1), NewDate(2024, 6, 30))
	assert.True(t, r.Contains(NewDate(2024, 6, 1)))
	assert.True(t, r.Contains(NewDate(2024, 6, 30)))
	assert.False(t, r.Contains(NewDate(2024, 7, 1)))
	assert.Equal(t, "2024-06-01..2024-06-30", r.String())
}

func TestPeriodRange(t *testing.T) {
	// Wednesday.
	now := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		from, to string
	}{
		{PeriodToday, "2024-06-12", "2024-06-12"},
		{PeriodWeek, "2024-06-10", "2024-06-12"},
		{PeriodMonth, "2024-06-01", "2024-06-12"},
		{PeriodAll, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := PeriodRange(tc.name, now)
			require.NoError(t, err)
			from, to := r.Bounds()
			assert.Equal(t, tc.from, from)
			assert.Equal(t, tc.to, to)
		})
	}

	sunday := time.Date(2024, 6, 16, 9, 0, 0, 0, time.UTC)
	r, err := PeriodRange(PeriodWeek, sunday)
	require.NoError(t, err)
	from, _ := r.Bounds()
	assert.Equal(t, "2024-06-10", from)

	_, err = PeriodRange("fortnight", now)
	assert.ErrorIs(t, err, ErrValidation)
}
