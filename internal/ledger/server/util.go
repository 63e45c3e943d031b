package server

import (
	"time"
)

var snapTimes = []time.Duration{
	time.Minute,
	5 * time.Minute,
	15 * time.Minute,
	30 * time.Minute,
	time.Hour,
	2 * time.Hour,
	6 * time.Hour,
	12 * time.Hour,
	24 * time.Hour,
	7 * 24 * time.Hour,
}

// snapDownDuration returns the largest snap time not above d, or the
// smallest snap time when d is below all of them
func snapDownDuration(d time.Duration) time.Duration {
	for i, snap := range snapTimes {
		if snap < d {
			continue
		}
		if snap == d || i == 0 {
			return snap
		}
		return snapTimes[i-1]
	}
	return snapTimes[len(snapTimes)-1]
}

// rangeResolution is the most buckets a series is split into
const rangeResolution = 100

// bucketSize picks the bucket width of a series over [start, end)
func bucketSize(start, end time.Time) time.Duration {
	return snapDownDuration(end.Sub(start) / rangeResolution)
}

// rangeTimes yields bucket start times from start, truncated to d, until end
func rangeTimes(start, end time.Time, d time.Duration) func(yield func(time.Time) bool) {
	return func(yield func(time.Time) bool) {
		for t := start.Truncate(d); t.Before(end); t = t.Add(d) {
			if !yield(t) {
				return
			}
		}
	}
}
