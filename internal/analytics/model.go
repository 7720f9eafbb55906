// Package analytics computes derived behavioral views over a group's
// share history: time-bucketed activity series, normalized per-member
// vibe profiles, and winner-take-all superlatives.
//
// Everything in this package is recomputed on demand from the raw share
// log. Nothing is persisted; derived values live only for the duration
// of a request.
package analytics

import (
	"errors"
	"time"
)

// Common errors for analytics operations.
var (
	// ErrGroupNotFound is returned when the group id does not resolve.
	ErrGroupNotFound = errors.New("group not found")

	// ErrInvalidMode is returned for an unknown activity mode.
	ErrInvalidMode = errors.New("invalid activity mode")
)

// TimeRange selects how far back an aggregation looks.
type TimeRange string

// Supported time ranges.
const (
	Range24h TimeRange = "24h"
	Range7d  TimeRange = "7d"
	Range30d TimeRange = "30d"
	Range90d TimeRange = "90d"
	RangeAll TimeRange = "all"
)

// Mode selects how the activity score is computed per bucket.
type Mode string

// Supported activity modes.
const (
	// ModeShares scores a bucket by its share count alone.
	ModeShares Mode = "shares"

	// ModeEngagement scores a bucket by shares + likes + listens,
	// unweighted.
	ModeEngagement Mode = "engagement"
)

// ParseTimeRange normalizes a time range string. Unknown or empty values
// fall back to the default 7d window, matching the lenient query-param
// handling of the web client.
func ParseTimeRange(s string) TimeRange {
	switch TimeRange(s) {
	case Range24h, Range7d, Range30d, Range90d, RangeAll:
		return TimeRange(s)
	default:
		return Range7d
	}
}

// ParseMode validates an activity mode string. Empty defaults to shares.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeShares, "":
		return ModeShares, nil
	case ModeEngagement:
		return ModeEngagement, nil
	default:
		return "", ErrInvalidMode
	}
}

// ActivityBucket is one point of a dense activity series.
type ActivityBucket struct {
	Timestamp     time.Time `json:"timestamp"`
	ShareCount    int       `json:"share_count"`
	ActivityScore int       `json:"activity_score"`
}

// VibeScores holds the five normalized 0-100 behavioral axes.
type VibeScores struct {
	Activity   int `json:"activity"`
	Popularity int `json:"popularity"`
	Support    int `json:"support"`
	Variety    int `json:"variety"`
	Freshness  int `json:"freshness"`
}

// VibeRaw exposes the underlying raw metrics behind the normalized scores.
type VibeRaw struct {
	Shares           int     `json:"shares"`
	LikesGiven       int     `json:"likes_given"`
	AvgLikesReceived float64 `json:"avg_likes_received"`
}

// VibeProfile is one member's normalized behavioral profile.
type VibeProfile struct {
	UserID       string     `json:"user_id"`
	DisplayName  string     `json:"display_name"`
	ProfileImage string     `json:"profile_image,omitempty"`
	Scores       VibeScores `json:"scores"`
	Raw          VibeRaw    `json:"raw"`
}

// Superlative is one winner-take-all award.
type Superlative struct {
	Key         string `json:"key"`
	WinnerID    string `json:"winner_id"`
	WinnerName  string `json:"winner_name"`
	WinnerImage string `json:"winner_image,omitempty"`
	Value       int    `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Overview bundles the three independent analytics panels for a group.
type Overview struct {
	Activity     []ActivityBucket       `json:"activity"`
	Vibes        []VibeProfile          `json:"vibes"`
	Superlatives map[string]Superlative `json:"superlatives"`
}
