package primitives

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewYearsDayDistance(t *testing.T) {
	cal := NewYearsDay()

	tests := []struct {
		name string
		date time.Time
		want int
	}{
		{name: "ahead", date: time.Date(2016, 10, 1, 0, 0, 0, 0, time.UTC), want: 92},
		{name: "passed", date: time.Date(2018, 2, 12, 0, 0, 0, 0, time.UTC), want: -42},
		{name: "on holiday", date: time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), want: 0},
		{name: "time of day ignored", date: time.Date(2017, 12, 30, 18, 30, 0, 0, time.UTC), want: 2},
		// 2016-07-02 is 183 days from both 2016-01-01 and 2017-01-01
		{name: "tie goes to earlier holiday", date: time.Date(2016, 7, 2, 0, 0, 0, 0, time.UTC), want: -183},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := cal.Distance(tt.date)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUSFederalHolidays(t *testing.T) {
	cal := USFederal()

	got := cal.Holidays(2017)
	want := []string{
		"2017-01-01", "2017-01-16", "2017-02-20", "2017-05-29", "2017-07-04",
		"2017-09-04", "2017-10-09", "2017-11-11", "2017-11-23", "2017-12-25",
	}
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i], got[i].Format("2006-01-02"))
	}

	assert.Len(t, cal.Holidays(2021), 11, "juneteenth observed from 2021")

	d, ok := cal.Distance(time.Date(2017, 11, 20, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 3, d)
}

func TestNewHolidayCalendar(t *testing.T) {
	cal, err := NewHolidayCalendar("")
	require.NoError(t, err)
	assert.Equal(t, CalendarNewYearsDay, cal.Name())

	cal, err = NewHolidayCalendar("US_Federal")
	require.NoError(t, err)
	assert.Equal(t, CalendarUSFederal, cal.Name())

	_, err = NewHolidayCalendar("lunar")
	assert.ErrorContains(t, err, "unknown holiday calendar")
}
