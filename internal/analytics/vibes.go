package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/gebrielmolla19/groupify/internal/share"
)

// freshnessDecayPerDay is how many freshness points a member loses for
// each day since their last share. 100/5 = 20 days to reach zero.
const freshnessDecayPerDay = 5.0

// memberRaw accumulates the raw per-member metrics behind the vibe axes.
type memberRaw struct {
	shares             int
	totalLikesReceived int
	uniqueArtists      int
	likesGiven         int
	lastSharedAt       time.Time
}

// avgLikesReceived is likes received per share, 0 for members with no shares.
func (m *memberRaw) avgLikesReceived() float64 {
	if m.shares == 0 {
		return 0
	}
	return float64(m.totalLikesReceived) / float64(m.shares)
}

// collectMemberRaw runs the two independent aggregations over the share
// set: one over shares grouped by author, one over the group-wide unwind
// of every share's likes list grouped by liker. Only ids in memberIDs are
// tracked; activity from departed members is ignored.
func collectMemberRaw(memberIDs []string, shares []*share.Share) map[string]*memberRaw {
	raw := make(map[string]*memberRaw, len(memberIDs))
	for _, id := range memberIDs {
		raw[id] = &memberRaw{}
	}

	artists := make(map[string]map[string]struct{})
	for _, s := range shares {
		if m, ok := raw[s.SharedBy]; ok {
			m.shares++
			// Counters are a trusted fast path for totals; the likes list
			// is only authoritative for per-user attribution below.
			m.totalLikesReceived += s.LikeCount
			if s.CreatedAt.After(m.lastSharedAt) {
				m.lastSharedAt = s.CreatedAt
			}
			seen, ok := artists[s.SharedBy]
			if !ok {
				seen = make(map[string]struct{})
				artists[s.SharedBy] = seen
			}
			seen[s.ArtistName] = struct{}{}
		}

		for _, like := range s.Likes {
			if m, ok := raw[like.UserID]; ok {
				m.likesGiven++
			}
		}
	}

	for id, seen := range artists {
		raw[id].uniqueArtists = len(seen)
	}
	return raw
}

// normalize scales a raw value linearly to 0-100 against the group max,
// returning 0 when the max itself is 0.
func normalize(value, max float64) int {
	if max == 0 {
		return 0
	}
	return int(math.Round(value / max * 100))
}

// freshnessScore decays linearly from 100 at the moment of the last share
// to 0 at 20 days, clamped at the floor. Members who never shared score 0.
func freshnessScore(lastSharedAt, now time.Time) int {
	if lastSharedAt.IsZero() {
		return 0
	}
	daysSince := float64(now.Sub(lastSharedAt).Milliseconds()) / float64(dayMS)
	score := int(math.Round(100 - daysSince*freshnessDecayPerDay))
	if score < 0 {
		return 0
	}
	return score
}

// profileInfo carries the display attributes joined into each profile.
type profileInfo struct {
	displayName string
	image       string
}

// computeVibes derives one normalized profile per member. Every id in
// memberIDs appears in the output; members with no activity score 0 on
// every axis. Output is ordered by activity score descending, ties by
// ascending user id.
func computeVibes(memberIDs []string, profiles map[string]profileInfo, shares []*share.Share, now time.Time) []VibeProfile {
	raw := collectMemberRaw(memberIDs, shares)

	// Group maxima, one pass per request.
	var maxShares, maxLikesGiven, maxUniqueArtists float64
	var maxAvgLikes float64
	for _, m := range raw {
		maxShares = math.Max(maxShares, float64(m.shares))
		maxLikesGiven = math.Max(maxLikesGiven, float64(m.likesGiven))
		maxUniqueArtists = math.Max(maxUniqueArtists, float64(m.uniqueArtists))
		maxAvgLikes = math.Max(maxAvgLikes, m.avgLikesReceived())
	}

	result := make([]VibeProfile, 0, len(memberIDs))
	for _, id := range memberIDs {
		m := raw[id]
		p := VibeProfile{
			UserID: id,
			Scores: VibeScores{
				Activity:   normalize(float64(m.shares), maxShares),
				Popularity: normalize(m.avgLikesReceived(), maxAvgLikes),
				Support:    normalize(float64(m.likesGiven), maxLikesGiven),
				Variety:    normalize(float64(m.uniqueArtists), maxUniqueArtists),
				Freshness:  freshnessScore(m.lastSharedAt, now),
			},
			Raw: VibeRaw{
				Shares:           m.shares,
				LikesGiven:       m.likesGiven,
				AvgLikesReceived: m.avgLikesReceived(),
			},
		}
		if info, ok := profiles[id]; ok {
			p.DisplayName = info.displayName
			p.ProfileImage = info.image
		}
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Scores.Activity == result[j].Scores.Activity {
			return result[i].UserID < result[j].UserID
		}
		return result[i].Scores.Activity > result[j].Scores.Activity
	})
	return result
}
