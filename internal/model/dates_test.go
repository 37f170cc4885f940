package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dp(s string) *time.Time {
	t := d(s)
	return &t
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		in     string
		months int
		want   string
	}{
		{"2020-12-31", 3, "2021-03-31"},
		{"2020-11-30", 3, "2021-02-28"},
		{"2023-11-30", 3, "2024-02-29"},
		{"2025-01-31", 1, "2025-02-28"},
		{"2025-01-01", 6, "2025-07-01"},
	}
	for _, tt := range tests {
		assert.Equal(t, d(tt.want), AddMonthsClamped(d(tt.in), tt.months), tt.in)
	}
}

// A run starting on Feb 29 reaches its anniversary on Feb 28 of the
// non-leap target year.
func TestAddYearsClampedLeapDay(t *testing.T) {
	assert.Equal(t, d("2023-02-28"), AddYearsClamped(d("2020-02-29"), 3))
	assert.Equal(t, d("2024-02-29"), AddYearsClamped(d("2020-02-29"), 4))
	assert.Equal(t, d("2023-01-01"), AddYearsClamped(d("2020-01-01"), 3))
}

func TestAgeAt(t *testing.T) {
	age, ok := AgeAt(dp("1965-04-02"), d("2025-04-01"))
	require.True(t, ok)
	assert.Equal(t, 59, age)

	age, ok = AgeAt(dp("1965-04-02"), d("2025-04-02"))
	require.True(t, ok)
	assert.Equal(t, 60, age)

	_, ok = AgeAt(nil, d("2025-04-02"))
	assert.False(t, ok)
	assert.True(t, IsUnder60(nil, d("2025-04-02")))
	assert.False(t, IsUnder60(dp("1960-01-01"), d("2025-04-02")))
}

func TestPeriodIntersect(t *testing.T) {
	a := Period{Start: d("2025-01-01"), End: dp("2025-06-30")}
	b := Period{Start: d("2025-04-01")}

	got, ok := a.Intersect(b)
	require.True(t, ok)
	assert.Equal(t, d("2025-04-01"), got.Start)
	require.NotNil(t, got.End)
	assert.Equal(t, d("2025-06-30"), *got.End)

	_, ok = a.Intersect(Period{Start: d("2025-07-01"), End: dp("2025-12-31")})
	assert.False(t, ok)

	open, ok := Period{Start: d("2025-01-01")}.Intersect(b)
	require.True(t, ok)
	assert.Nil(t, open.End)
}

func TestExceedsMonths(t *testing.T) {
	assert.False(t, ExceedsMonths(d("2025-01-01"), dp("2025-06-30"), 6))
	assert.True(t, ExceedsMonths(d("2025-01-01"), dp("2025-07-01"), 6))
	assert.True(t, ExceedsMonths(d("2025-01-01"), dp("2025-08-31"), 6))
	assert.True(t, ExceedsMonths(d("2025-01-01"), nil, 6))
}
