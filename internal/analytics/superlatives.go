package analytics

import (
	"github.com/gebrielmolla19/groupify/internal/share"
)

// Superlative rule keys.
const (
	KeyHypeMan     = "hypeMan"
	KeyTrendsetter = "trendsetter"
	KeyDJ          = "dj"
	KeyDiehard     = "diehard"
)

// superlativeRule is one winner-take-all reduction over the full share
// history. reduce returns false when the rule has no qualifying data, in
// which case the rule is omitted from the output entirely.
type superlativeRule struct {
	key         string
	label       string
	description string
	reduce      func(shares []*share.Share) (winnerID string, value int, ok bool)
}

// superlativeRules is the fixed rule set. Rules are independent and are
// evaluated concurrently by the service.
var superlativeRules = []superlativeRule{
	{
		key:         KeyHypeMan,
		label:       "Hype Man",
		description: "Gave the most likes to the group's shares",
		reduce:      reduceLikesGiven,
	},
	{
		key:         KeyTrendsetter,
		label:       "Trendsetter",
		description: "Received the most likes on their shares",
		reduce:      reduceLikesReceived,
	},
	{
		key:         KeyDJ,
		label:       "The DJ",
		description: "Shared the most tracks",
		reduce:      reduceShareCount,
	},
	{
		key:         KeyDiehard,
		label:       "Diehard",
		description: "Listened to the most shared tracks",
		reduce:      reduceListens,
	},
}

// pickWinner selects the max-valued entry from a reduction's groups.
// Ties are broken deterministically by the lowest user id; the source
// data gives no ordering guarantee worth preserving.
func pickWinner(counts map[string]int) (string, int, bool) {
	var winner string
	var best int
	found := false
	for id, v := range counts {
		if !found || v > best || (v == best && id < winner) {
			winner = id
			best = v
			found = true
		}
	}
	return winner, best, found
}

// reduceLikesGiven unwinds every share's likes list and counts likes per
// liker. The likes list is ground truth here, not the cached counter.
func reduceLikesGiven(shares []*share.Share) (string, int, bool) {
	counts := make(map[string]int)
	for _, s := range shares {
		for _, like := range s.Likes {
			counts[like.UserID]++
		}
	}
	return pickWinner(counts)
}

// reduceLikesReceived groups shares by author and sums likes received.
// The cached counter is a trusted total here since no per-user breakdown
// is needed. Authors with zero likes across all shares do not qualify,
// so a group with no likes at all omits the rule.
func reduceLikesReceived(shares []*share.Share) (string, int, bool) {
	counts := make(map[string]int)
	for _, s := range shares {
		if s.LikeCount > 0 {
			counts[s.SharedBy] += s.LikeCount
		}
	}
	return pickWinner(counts)
}

// reduceShareCount groups shares by author and counts them.
func reduceShareCount(shares []*share.Share) (string, int, bool) {
	counts := make(map[string]int)
	for _, s := range shares {
		counts[s.SharedBy]++
	}
	return pickWinner(counts)
}

// reduceListens unwinds every share's listeners list and counts listens
// per listener.
func reduceListens(shares []*share.Share) (string, int, bool) {
	counts := make(map[string]int)
	for _, s := range shares {
		for _, l := range s.Listeners {
			counts[l.UserID]++
		}
	}
	return pickWinner(counts)
}
