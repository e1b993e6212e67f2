package analytics

import (
	"strings"
	"time"
)

// HourBucket counts visits that started in a given hour of day (0-23).
type HourBucket struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// DayBucket counts visits by day of week, 1=Sunday through 7=Saturday.
type DayBucket struct {
	Day   int `json:"day"`
	Count int `json:"count"`
}

// Usage holds the sparse hourly and daily buckets, ascending by key.
type Usage struct {
	Hourly []HourBucket `json:"hourly"`
	Daily  []DayBucket  `json:"daily"`
	Total  int          `json:"total"`
}

// UsageOptions configures AggregateUsage. Location controls which wall clock
// hours and weekdays are read in; nil means UTC.
type UsageOptions struct {
	Now          time.Time
	LookbackDays int
	Branch       string
	Location     *time.Location
}

// AggregateUsage buckets visit entry times within [Now-LookbackDays, Now].
func AggregateUsage(visits []VisitRecord, opts UsageOptions) Usage {
	now := resolveNow(opts.Now)
	since := daysBefore(now, lookbackOrDefault(opts.LookbackDays))
	branch := strings.TrimSpace(opts.Branch)
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	var hours [24]int
	var days [7]int
	total := 0
	for _, v := range visits {
		if v.EnteredAt.IsZero() || v.EnteredAt.Before(since) || v.EnteredAt.After(now) {
			continue
		}
		if branch != "" && !strings.EqualFold(strings.TrimSpace(v.Branch), branch) {
			continue
		}
		t := v.EnteredAt.In(loc)
		hours[t.Hour()]++
		days[int(t.Weekday())]++
		total++
	}

	usage := Usage{
		Hourly: []HourBucket{},
		Daily:  []DayBucket{},
		Total:  total,
	}
	for h, n := range hours {
		if n > 0 {
			usage.Hourly = append(usage.Hourly, HourBucket{Hour: h, Count: n})
		}
	}
	for d, n := range days {
		if n > 0 {
			usage.Daily = append(usage.Daily, DayBucket{Day: d + 1, Count: n})
		}
	}
	return usage
}

// DenseHourly expands sparse buckets to all 24 hours. Keys outside 0-23 are
// dropped.
func DenseHourly(buckets []HourBucket) []HourBucket {
	dense := make([]HourBucket, 24)
	for h := range dense {
		dense[h].Hour = h
	}
	for _, b := range buckets {
		if b.Hour >= 0 && b.Hour < 24 {
			dense[b.Hour].Count += b.Count
		}
	}
	return dense
}

// DenseDaily expands sparse buckets to all 7 weekdays (1-7).
func DenseDaily(buckets []DayBucket) []DayBucket {
	dense := make([]DayBucket, 7)
	for i := range dense {
		dense[i].Day = i + 1
	}
	for _, b := range buckets {
		if b.Day >= 1 && b.Day <= 7 {
			dense[b.Day-1].Count += b.Count
		}
	}
	return dense
}
