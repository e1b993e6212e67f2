package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// PeakHour is an hourly bucket annotated with a staffing recommendation.
type PeakHour struct {
	Hour             int    `json:"hour"`
	Label            string `json:"label"`
	Count            int    `json:"count"`
	RecommendedStaff int    `json:"recommendedStaff"`
}

// BusyDay is a weekday bucket annotated with its name and staffing.
type BusyDay struct {
	Day              int    `json:"day"`
	Label            string `json:"label"`
	Count            int    `json:"count"`
	RecommendedStaff int    `json:"recommendedStaff"`
}

// StaffingReport is the payload of BuildStaffingRecommendations.
type StaffingReport struct {
	LookbackDays    int        `json:"lookbackDays"`
	VisitsPerStaff  float64    `json:"visitsPerStaff"`
	PeakHours       []PeakHour `json:"peakHours"`
	BusyDays        []BusyDay  `json:"busyDays"`
	Recommendations []string   `json:"recommendations"`
}

// StaffingOptions configures BuildStaffingRecommendations. VisitsPerStaff is
// the number of visits one staff member handles over the lookback window.
// TopN caps PeakHours; zero keeps every hour.
type StaffingOptions struct {
	LookbackDays   int
	VisitsPerStaff float64
	TopN           int
}

// RecommendedStaff returns ceil(count / visitsPerStaff), at least 1 for any
// positive count. Non-positive ratios are treated as 1.
func RecommendedStaff(count int, visitsPerStaff float64) int {
	if count <= 0 {
		return 0
	}
	if visitsPerStaff <= 0 || math.IsNaN(visitsPerStaff) {
		visitsPerStaff = 1
	}
	staff := int(math.Ceil(float64(count) / visitsPerStaff))
	if staff < 1 {
		staff = 1
	}
	return staff
}

// WeekdayLabel maps 1=Sunday..7=Saturday to the weekday name.
func WeekdayLabel(day int) string {
	if day < 1 || day > 7 {
		return "Unknown"
	}
	return time.Weekday(day - 1).String()
}

// HourLabel renders an hour bucket as "09:00-10:00".
func HourLabel(hour int) string {
	return fmt.Sprintf("%02d:00-%02d:00", hour, (hour+1)%24)
}

// BuildStaffingRecommendations ranks hourly and weekday buckets and derives
// staffing advice from the busiest ones.
func BuildStaffingRecommendations(hourly []HourBucket, daily []DayBucket, opts StaffingOptions) StaffingReport {
	ratio := opts.VisitsPerStaff
	if ratio <= 0 || math.IsNaN(ratio) {
		ratio = 1
	}
	report := StaffingReport{
		LookbackDays:    lookbackOrDefault(opts.LookbackDays),
		VisitsPerStaff:  ratio,
		PeakHours:       []PeakHour{},
		BusyDays:        []BusyDay{},
		Recommendations: []string{},
	}

	for _, b := range hourly {
		if b.Count <= 0 || b.Hour < 0 || b.Hour > 23 {
			continue
		}
		report.PeakHours = append(report.PeakHours, PeakHour{
			Hour:             b.Hour,
			Label:            HourLabel(b.Hour),
			Count:            b.Count,
			RecommendedStaff: RecommendedStaff(b.Count, ratio),
		})
	}
	sort.SliceStable(report.PeakHours, func(i, j int) bool {
		a, b := report.PeakHours[i], report.PeakHours[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Hour < b.Hour
	})
	if opts.TopN > 0 && len(report.PeakHours) > opts.TopN {
		report.PeakHours = report.PeakHours[:opts.TopN]
	}

	for _, b := range daily {
		if b.Count <= 0 || b.Day < 1 || b.Day > 7 {
			continue
		}
		report.BusyDays = append(report.BusyDays, BusyDay{
			Day:              b.Day,
			Label:            WeekdayLabel(b.Day),
			Count:            b.Count,
			RecommendedStaff: RecommendedStaff(b.Count, ratio),
		})
	}
	sort.SliceStable(report.BusyDays, func(i, j int) bool {
		a, b := report.BusyDays[i], report.BusyDays[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Day < b.Day
	})

	report.Recommendations = recommendationsFor(report)
	return report
}

func recommendationsFor(r StaffingReport) []string {
	out := []string{}

	if len(r.PeakHours) > 0 {
		top := r.PeakHours[0]
		out = append(out, fmt.Sprintf(
			"Schedule at least %d staff for %s (%d visits in the last %d days).",
			top.RecommendedStaff, top.Label, top.Count, r.LookbackDays,
		))
	}
	if len(r.PeakHours) > 1 {
		rest := r.PeakHours[1:]
		if len(rest) > 2 {
			rest = rest[:2]
		}
		labels := make([]string, len(rest))
		staff := 0
		for i, p := range rest {
			labels[i] = p.Label
			if p.RecommendedStaff > staff {
				staff = p.RecommendedStaff
			}
		}
		out = append(out, fmt.Sprintf(
			"Keep %d staff available during secondary peaks: %s.",
			staff, strings.Join(labels, ", "),
		))
	}

	if len(r.BusyDays) > 0 {
		top := r.BusyDays[0]
		out = append(out, fmt.Sprintf(
			"%s is the busiest day with %d visits; plan for %d staff across the day.",
			top.Label, top.Count, top.RecommendedStaff,
		))
	}
	if len(r.BusyDays) > 1 {
		quiet := r.BusyDays[len(r.BusyDays)-1]
		if quiet.Count < r.BusyDays[0].Count {
			out = append(out, fmt.Sprintf(
				"%s is the quietest open day with %d visits; use it for shelving and training.",
				quiet.Label, quiet.Count,
			))
		}
	}
	return out
}
