package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	for _, in := range []string{
		"2024-01-01",
		"2024-01-01T10:00:00.000Z",
		"2024-01-01T10:00",
		"2024/1/5",
		" 2024-03-04 ",
	} {
		_, ok := ParseDate(in)
		assert.True(t, ok, in)
	}
	for _, in := range []string{"", "yesterday", "2024-13-01", "01/02/2024"} {
		_, ok := ParseDate(in)
		assert.False(t, ok, in)
	}
}

func TestSortTimeFallsBackToEpoch(t *testing.T) {
	assert.Equal(t, time.Unix(0, 0).UTC(), SortTime("not a date"))
	assert.True(t, SortTime("2024-01-02").After(SortTime("2024-01-01")))
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	assert.Equal(t, "2024-05-06T07:08:09.000Z", FormatTimestamp(ts))
	assert.Equal(t, "2024-05-06", FormatDate(ts))
}
