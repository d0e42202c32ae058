package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYearsBetween(t *testing.T) {
	tests := []struct {
		name string
		born Date
		on   Date
		want int
	}{
		{"day before birthday", NewDate(2000, time.June, 15), NewDate(2025, time.June, 14), 24},
		{"on birthday", NewDate(2000, time.June, 15), NewDate(2025, time.June, 15), 25},
		{"month before birthday", NewDate(2000, time.June, 15), NewDate(2025, time.May, 30), 24},
		{"leap day reached on 28 February in common year", NewDate(2000, time.February, 29), NewDate(2023, time.February, 28), 23},
		{"leap day not reached on 27 February", NewDate(2000, time.February, 29), NewDate(2023, time.February, 27), 22},
		{"leap day in leap year", NewDate(2000, time.February, 29), NewDate(2024, time.February, 28), 23},
		{"leap day on leap day", NewDate(2000, time.February, 29), NewDate(2024, time.February, 29), 24},
		{"same day", NewDate(2000, time.January, 1), NewDate(2000, time.January, 1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, YearsBetween(tt.born, tt.on))
		})
	}
}

func TestDateOf_UsesLocation(t *testing.T) {
	gaborone := time.FixedZone("CAT", 2*60*60)

	// 23:30 UTC is already the next day in Gaborone (UTC+2).
	instant := time.Date(2025, time.June, 14, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, NewDate(2025, time.June, 14), DateOf(instant))
	assert.Equal(t, NewDate(2025, time.June, 15), DateOf(instant.In(gaborone)))
}

func TestDate_JSON(t *testing.T) {
	var payload struct {
		DOB Date `json:"dob"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"dob":"1990-05-15"}`), &payload))
	assert.Equal(t, NewDate(1990, time.May, 15), payload.DOB)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"dob":"1990-05-15"}`, string(out))

	require.Error(t, json.Unmarshal([]byte(`{"dob":"15/05/1990"}`), &payload))

	require.NoError(t, json.Unmarshal([]byte(`{"dob":null}`), &payload))
	assert.True(t, payload.DOB.IsZero())
}

func TestDate_SQL(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(1990, time.May, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1990-05-15", d.String())

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, time.May, 15, 0, 0, 0, 0, time.UTC), v)

	require.NoError(t, d.Scan(nil))
	v, err = d.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
