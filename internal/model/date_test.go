package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateBasics(t *testing.T) {
	d := MustDate("2024-06-03")
	assert.Equal(t, time.Monday, d.Weekday())
	assert.Equal(t, "2024-06-09", d.AddDays(6).String())
	assert.Equal(t, 6, d.DaysUntil(d.AddDays(6)))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.Equal(t, d, NewDate(2024, time.June, 3))
	assert.Equal(t, d, DateOf(time.Date(2024, 6, 3, 23, 59, 0, 0, time.UTC)))
}

func TestDateStartOfWeek(t *testing.T) {
	assert.Equal(t, MustDate("2024-06-03"), MustDate("2024-06-09").StartOfWeek())
	assert.Equal(t, MustDate("2024-06-03"), MustDate("2024-06-03").StartOfWeek())
	assert.Equal(t, MustDate("2024-06-03"), MustDate("2024-06-05").StartOfWeek())
}

func TestDateAsMapKey(t *testing.T) {
	m := map[Date]int{}
	m[MustDate("2024-06-03")]++
	m[NewDate(2024, time.June, 3)]++
	assert.Len(t, m, 1)
}

func TestDateJSONAndScan(t *testing.T) {
	data, err := json.Marshal(MustDate("2024-06-03"))
	require.NoError(t, err)
	assert.Equal(t, `"2024-06-03"`, string(data))

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-12-31"`), &d))
	assert.Equal(t, MustDate("2024-12-31"), d)

	require.NoError(t, d.Scan(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-01-02", d.String())

	require.NoError(t, d.Scan([]byte("2024-02-29")))
	assert.Equal(t, "2024-02-29", d.String())

	_, err = ParseDate("2024-13-01")
	assert.Error(t, err)
}
