package domain

import "time"

type TimeRange string

const (
	TimeRange24h TimeRange = "24h"
	TimeRange48h TimeRange = "48h"
	TimeRange7d  TimeRange = "7d"
	TimeRange14d TimeRange = "14d"
)

var timeRangeWindows = map[TimeRange]time.Duration{
	TimeRange24h: 24 * time.Hour,
	TimeRange48h: 48 * time.Hour,
	TimeRange7d:  7 * 24 * time.Hour,
	TimeRange14d: 14 * 24 * time.Hour,
}

// ParseTimeRange defaults to 14d, the upstream retention period.
func ParseTimeRange(s string) (TimeRange, error) {
	if s == "" {
		return TimeRange14d, nil
	}
	tr := TimeRange(s)
	if _, ok := timeRangeWindows[tr]; !ok {
		return "", ErrInvalidTimeRange
	}
	return tr, nil
}

func (tr TimeRange) Window() time.Duration {
	if w, ok := timeRangeWindows[tr]; ok {
		return w
	}
	return timeRangeWindows[TimeRange14d]
}

func (tr TimeRange) Cutoff(now time.Time) time.Time {
	return now.Add(-tr.Window())
}
