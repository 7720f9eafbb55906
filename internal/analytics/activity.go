package analytics

import (
	"time"

	"github.com/gebrielmolla19/groupify/internal/share"
)

// Bucket widths in epoch milliseconds. Buckets are aligned by integer
// division on epoch millis, not calendar boundaries, so the series is
// timezone-naive and stable across hosts.
const (
	hourMS = int64(time.Hour / time.Millisecond)
	dayMS  = 24 * hourMS
)

// bucketWidthMS returns the bucket width for a time range: hourly for
// the 24h window, daily for everything wider.
func bucketWidthMS(rng TimeRange) int64 {
	if rng == Range24h {
		return hourMS
	}
	return dayMS
}

// rangeDuration returns the lookback duration for fixed-width ranges.
// The second return value is false for RangeAll, whose start depends on
// the group's earliest share.
func rangeDuration(rng TimeRange) (time.Duration, bool) {
	switch rng {
	case Range24h:
		return 24 * time.Hour, true
	case Range30d:
		return 30 * 24 * time.Hour, true
	case Range90d:
		return 90 * 24 * time.Hour, true
	case RangeAll:
		return 0, false
	default:
		return 7 * 24 * time.Hour, true
	}
}

// clampAllStart resolves the start of the "all" range from the group's
// earliest share, never reaching further back than maxWindow before now.
// A group with no shares clamps the same way.
func clampAllStart(earliest time.Time, hasShares bool, now time.Time, maxWindow time.Duration) time.Time {
	floor := now.Add(-maxWindow)
	if !hasShares || earliest.Before(floor) {
		return floor
	}
	return earliest
}

// floorToBucket floors an instant to its bucket boundary.
func floorToBucket(t time.Time, widthMS int64) int64 {
	return t.UnixMilli() / widthMS * widthMS
}

// buildActivitySeries buckets the given shares into a dense, gap-free,
// chronologically ascending series from start to now inclusive. Buckets
// with no shares are backfilled with zeros so a sparse history still
// renders as a full series downstream.
func buildActivitySeries(shares []*share.Share, start, now time.Time, rng TimeRange, mode Mode) []ActivityBucket {
	width := bucketWidthMS(rng)

	type bucketAgg struct {
		shares  int
		likes   int
		listens int
	}
	agg := make(map[int64]*bucketAgg)
	for _, s := range shares {
		if s.CreatedAt.Before(start) {
			continue
		}
		key := floorToBucket(s.CreatedAt, width)
		b, ok := agg[key]
		if !ok {
			b = &bucketAgg{}
			agg[key] = b
		}
		b.shares++
		b.likes += s.LikeCount
		b.listens += s.ListenCount
	}

	first := floorToBucket(start, width)
	last := floorToBucket(now, width)

	series := make([]ActivityBucket, 0, (last-first)/width+1)
	for key := first; key <= last; key += width {
		bucket := ActivityBucket{Timestamp: time.UnixMilli(key).UTC()}
		if b, ok := agg[key]; ok {
			bucket.ShareCount = b.shares
			switch mode {
			case ModeEngagement:
				bucket.ActivityScore = b.shares + b.likes + b.listens
			default:
				bucket.ActivityScore = b.shares
			}
		}
		series = append(series, bucket)
	}
	return series
}
