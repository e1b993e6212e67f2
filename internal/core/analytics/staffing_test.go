package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendedStaff(t *testing.T) {
	assert.Equal(t, 9, RecommendedStaff(210, 25))
	assert.Equal(t, 3, RecommendedStaff(70, 25))
	assert.Equal(t, 1, RecommendedStaff(1, 25))
	assert.Equal(t, 0, RecommendedStaff(0, 25))
	assert.Equal(t, 5, RecommendedStaff(5, 0))
	assert.Equal(t, 5, RecommendedStaff(5, -3))
}

func TestBuildStaffingRecommendations(t *testing.T) {
	hourly := []HourBucket{{Hour: 13, Count: 70}, {Hour: 9, Count: 210}}
	daily := []DayBucket{{Day: 2, Count: 40}, {Day: 3, Count: 120}, {Day: 5, Count: 60}}

	report := BuildStaffingRecommendations(hourly, daily, StaffingOptions{LookbackDays: 30, VisitsPerStaff: 25})

	require.Len(t, report.PeakHours, 2)
	assert.Equal(t, 9, report.PeakHours[0].Hour)
	assert.Equal(t, 9, report.PeakHours[0].RecommendedStaff)
	assert.Equal(t, "09:00-10:00", report.PeakHours[0].Label)
	assert.Equal(t, 13, report.PeakHours[1].Hour)
	assert.Equal(t, 3, report.PeakHours[1].RecommendedStaff)

	require.Len(t, report.BusyDays, 3)
	assert.Equal(t, "Tuesday", report.BusyDays[0].Label)
	assert.Equal(t, 3, report.BusyDays[0].Day)
	assert.Equal(t, "Monday", report.BusyDays[2].Label)

	assert.Equal(t, 30, report.LookbackDays)
	assert.Equal(t, 25.0, report.VisitsPerStaff)
	assert.Equal(t, []string{
		"Schedule at least 9 staff for 09:00-10:00 (210 visits in the last 30 days).",
		"Keep 3 staff available during secondary peaks: 13:00-14:00.",
		"Tuesday is the busiest day with 120 visits; plan for 5 staff across the day.",
		"Monday is the quietest open day with 40 visits; use it for shelving and training.",
	}, report.Recommendations)
}

func TestBuildStaffingRecommendations_TiesAndTopN(t *testing.T) {
	hourly := []HourBucket{{Hour: 15, Count: 10}, {Hour: 11, Count: 10}, {Hour: 8, Count: 2}, {Hour: 16, Count: 10}}
	daily := []DayBucket{{Day: 6, Count: 5}, {Day: 2, Count: 5}}

	report := BuildStaffingRecommendations(hourly, daily, StaffingOptions{VisitsPerStaff: 4, TopN: 2})

	require.Len(t, report.PeakHours, 2)
	assert.Equal(t, 11, report.PeakHours[0].Hour)
	assert.Equal(t, 15, report.PeakHours[1].Hour)
	assert.Equal(t, "Monday", report.BusyDays[0].Label)
	assert.Equal(t, "Friday", report.BusyDays[1].Label)
	assert.Equal(t, DefaultLookbackDays, report.LookbackDays)
}

func TestBuildStaffingRecommendations_Empty(t *testing.T) {
	report := BuildStaffingRecommendations(nil, nil, StaffingOptions{LookbackDays: 14, VisitsPerStaff: 0})

	assert.Equal(t, []PeakHour{}, report.PeakHours)
	assert.Equal(t, []BusyDay{}, report.BusyDays)
	assert.Equal(t, []string{}, report.Recommendations)
	assert.Equal(t, 1.0, report.VisitsPerStaff)
}

func TestBuildStaffingRecommendations_Deterministic(t *testing.T) {
	hourly := []HourBucket{{Hour: 10, Count: 5}, {Hour: 14, Count: 5}, {Hour: 9, Count: 1}}
	daily := []DayBucket{{Day: 1, Count: 3}, {Day: 7, Count: 3}}
	opts := StaffingOptions{LookbackDays: 7, VisitsPerStaff: 2}

	first := BuildStaffingRecommendations(hourly, daily, opts)
	second := BuildStaffingRecommendations(hourly, daily, opts)

	assert.Equal(t, first, second)
}

func TestWeekdayLabel(t *testing.T) {
	assert.Equal(t, "Sunday", WeekdayLabel(1))
	assert.Equal(t, "Saturday", WeekdayLabel(7))
	assert.Equal(t, "Unknown", WeekdayLabel(0))
}
