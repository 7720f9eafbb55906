package analytics

import (
	"context"
	"testing"
	"time"
)

func TestMemberVibes_UnknownGroup(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.MemberVibes(context.Background(), "missing", RangeAll)
	if err != ErrGroupNotFound {
		t.Fatalf("Expected ErrGroupNotFound, got %v", err)
	}
}

func TestMemberVibes_ZeroActivityMemberIncluded(t *testing.T) {
	f := newFixture(t)
	f.addGroup(t, "g1", "alice", "bob")
	f.addUser(t, "alice", "Alice")
	f.addUser(t, "bob", "Bob")

	f.addShare(t, "g1", "alice", "Artist", fixedNow.Add(-time.Hour))

	profiles, err := f.service.MemberVibes(context.Background(), "g1", RangeAll)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(profiles) != 2 {
		t.Fatalf("Expected 2 profiles, got %d", len(profiles))
	}

	var bob *VibeProfile
	for i := range profiles {
		if profiles[i].UserID == "bob" {
			bob = &profiles[i]
		}
	}
	if bob == nil {
		t.Fatal("Expected zero-activity member bob in output")
	}

	zero := VibeScores{}
	if bob.Scores != zero {
		t.Errorf("Expected all-zero scores for bob, got %+v", bob.Scores)
	}
	if bob.Raw.Shares != 0 || bob.Raw.LikesGiven != 0 || bob.Raw.AvgLikesReceived != 0 {
		t.Errorf("Expected zero raw metrics for bob, got %+v", bob.Raw)
	}
}

func TestMemberVibes_ScoresBounded(t *testing.T) {
	f := newFixture(t)
	f.addGroup(t, "g1", "alice", "bob", "carol")
	f.addUser(t, "alice", "Alice")
	f.addUser(t, "bob", "Bob")
	f.addUser(t, "carol", "Carol")

	base := fixedNow.Add(-5 * 24 * time.Hour)
	s1 := f.addShare(t, "g1", "alice", "Radiohead", base)
	s2 := f.addShare(t, "g1", "alice", "Björk", base.Add(time.Hour))
	s3 := f.addShare(t, "g1", "bob", "Radiohead", base.Add(2*time.Hour))
	f.like(t, s1, "bob", base.Add(3*time.Hour))
	f.like(t, s2, "carol", base.Add(4*time.Hour))
	f.like(t, s3, "alice", base.Add(5*time.Hour))
	f.listen(t, s1, "carol", base.Add(6*time.Hour))

	profiles, err := f.service.MemberVibes(context.Background(), "g1", RangeAll)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for _, p := range profiles {
		for name, score := range map[string]int{
			"activity":   p.Scores.Activity,
			"popularity": p.Scores.Popularity,
			"support":    p.Scores.Support,
			"variety":    p.Scores.Variety,
			"freshness":  p.Scores.Freshness,
		} {
			if score < 0 || score > 100 {
				t.Errorf("%s: %s score %d out of [0,100]", p.UserID, name, score)
			}
		}
	}
}

func TestMemberVibes_MaxAchievement(t *testing.T) {
	f := newFixture(t)
	f.addGroup(t, "g1", "alice", "bob")
	f.addUser(t, "alice", "Alice")
	f.addUser(t, "bob", "Bob")

	base := fixedNow.Add(-2 * 24 * time.Hour)
	s1 := f.addShare(t, "g1", "alice", "Radiohead", base)
	f.addShare(t, "g1", "alice", "Björk", base.Add(time.Hour))
	s3 := f.addShare(t, "g1", "bob", "Radiohead", base.Add(2*time.Hour))
	f.like(t, s1, "bob", base.Add(3*time.Hour))
	f.like(t, s3, "alice", base.Add(4*time.Hour))

	profiles, err := f.service.MemberVibes(context.Background(), "g1", RangeAll)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	byID := make(map[string]VibeProfile)
	for _, p := range profiles {
		byID[p.UserID] = p
	}

	// Alice holds the group max on shares (2) and unique artists (2).
	if byID["alice"].Scores.Activity != 100 {
		t.Errorf("Expected activity 100 for group max, got %d", byID["alice"].Scores.Activity)
	}
	if byID["alice"].Scores.Variety != 100 {
		t.Errorf("Expected variety 100 for group max, got %d", byID["alice"].Scores.Variety)
	}
	// Both gave exactly one like, so both hold the support max.
	if byID["alice"].Scores.Support != 100 || byID["bob"].Scores.Support != 100 {
		t.Errorf("Expected support 100 for tied max, got alice=%d bob=%d",
			byID["alice"].Scores.Support, byID["bob"].Scores.Support)
	}
	// Bob's avg likes received is 1.0 vs alice's 0.5.
	if byID["bob"].Scores.Popularity != 100 {
		t.Errorf("Expected popularity 100 for group max, got %d", byID["bob"].Scores.Popularity)
	}
	if byID["alice"].Scores.Popularity != 50 {
		t.Errorf("Expected popularity 50 for half the max, got %d", byID["alice"].Scores.Popularity)
	}
}

func TestMemberVibes_FreshnessBoundaries(t *testing.T) {
	tests := []struct {
		name string
		last time.Time
		want int
	}{
		{"same instant", fixedNow, 100},
		{"ten days ago", fixedNow.Add(-10 * 24 * time.Hour), 50},
		{"exactly twenty days ago", fixedNow.Add(-20 * 24 * time.Hour), 0},
		{"ancient", fixedNow.Add(-300 * 24 * time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := freshnessScore(tt.last, fixedNow)
			if got != tt.want {
				t.Errorf("freshnessScore(%v) = %d, want %d", tt.last, got, tt.want)
			}
		})
	}

	if got := freshnessScore(time.Time{}, fixedNow); got != 0 {
		t.Errorf("Expected freshness 0 for never-shared member, got %d", got)
	}
}

func TestMemberVibes_ConcreteScenario(t *testing.T) {
	// Three members: A shares 2 tracks (artists X, Y), B shares 1 track
	// (artist X), C shares nothing. A's tracks each get one like from B.
	f := newFixture(t)
	f.addGroup(t, "g1", "a", "b", "c")
	f.addUser(t, "a", "A")
	f.addUser(t, "b", "B")
	f.addUser(t, "c", "C")

	base := fixedNow.Add(-24 * time.Hour)
	s1 := f.addShare(t, "g1", "a", "X", base)
	s2 := f.addShare(t, "g1", "a", "Y", base.Add(time.Hour))
	f.addShare(t, "g1", "b", "X", base.Add(2*time.Hour))
	f.like(t, s1, "b", base.Add(3*time.Hour))
	f.like(t, s2, "b", base.Add(4*time.Hour))

	profiles, err := f.service.MemberVibes(context.Background(), "g1", RangeAll)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	byID := make(map[string]VibeProfile)
	for _, p := range profiles {
		byID[p.UserID] = p
	}

	if byID["a"].Scores.Variety != 100 {
		t.Errorf("Expected A variety 100, got %d", byID["a"].Scores.Variety)
	}
	if byID["b"].Scores.Variety != 50 {
		t.Errorf("Expected B variety 50, got %d", byID["b"].Scores.Variety)
	}
	if byID["c"].Scores.Variety != 0 {
		t.Errorf("Expected C variety 0, got %d", byID["c"].Scores.Variety)
	}
	if byID["a"].Scores.Popularity != 100 {
		t.Errorf("Expected A popularity 100, got %d", byID["a"].Scores.Popularity)
	}
	if byID["a"].Raw.AvgLikesReceived != 1.0 {
		t.Errorf("Expected A avg likes received 1.0, got %f", byID["a"].Raw.AvgLikesReceived)
	}

	sups, err := f.service.Superlatives(context.Background(), "g1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	trendsetter, ok := sups[KeyTrendsetter]
	if !ok {
		t.Fatal("Expected trendsetter superlative")
	}
	if trendsetter.WinnerID != "a" || trendsetter.Value != 2 {
		t.Errorf("Expected trendsetter winner a with value 2, got %s with %d",
			trendsetter.WinnerID, trendsetter.Value)
	}
}

func TestMemberVibes_OrderedByActivityDescending(t *testing.T) {
	f := newFixture(t)
	f.addGroup(t, "g1", "alice", "bob", "carol")
	f.addUser(t, "alice", "Alice")
	f.addUser(t, "bob", "Bob")
	f.addUser(t, "carol", "Carol")

	base := fixedNow.Add(-24 * time.Hour)
	f.addShare(t, "g1", "bob", "X", base)
	f.addShare(t, "g1", "bob", "Y", base.Add(time.Hour))
	f.addShare(t, "g1", "alice", "X", base.Add(2*time.Hour))

	profiles, err := f.service.MemberVibes(context.Background(), "g1", RangeAll)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	wantOrder := []string{"bob", "alice", "carol"}
	for i, want := range wantOrder {
		if profiles[i].UserID != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, profiles[i].UserID)
		}
	}
}

func TestMemberVibes_TimeRangeFiltersShares(t *testing.T) {
	f := newFixture(t)
	f.addGroup(t, "g1", "alice")
	f.addUser(t, "alice", "Alice")

	// One share inside the 7d window, one far outside it.
	f.addShare(t, "g1", "alice", "X", fixedNow.Add(-2*24*time.Hour))
	f.addShare(t, "g1", "alice", "Y", fixedNow.Add(-60*24*time.Hour))

	profiles, err := f.service.MemberVibes(context.Background(), "g1", Range7d)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if profiles[0].Raw.Shares != 1 {
		t.Errorf("Expected 1 share inside the 7d window, got %d", profiles[0].Raw.Shares)
	}

	all, err := f.service.MemberVibes(context.Background(), "g1", RangeAll)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if all[0].Raw.Shares != 2 {
		t.Errorf("Expected 2 shares in the all range, got %d", all[0].Raw.Shares)
	}
}

func TestMemberVibes_ProfileJoin(t *testing.T) {
	f := newFixture(t)
	f.addGroup(t, "g1", "alice", "ghost")
	f.addUser(t, "alice", "Alice")
	// "ghost" has membership but no profile row.

	profiles, err := f.service.MemberVibes(context.Background(), "g1", RangeAll)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	byID := make(map[string]VibeProfile)
	for _, p := range profiles {
		byID[p.UserID] = p
	}

	if byID["alice"].DisplayName != "Alice" {
		t.Errorf("Expected display name Alice, got %q", byID["alice"].DisplayName)
	}
	if _, ok := byID["ghost"]; !ok {
		t.Error("Expected profile-less member to still appear in output")
	}
}
