package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/gebrielmolla19/groupify/internal/group"
	"github.com/gebrielmolla19/groupify/internal/share"
	"github.com/gebrielmolla19/groupify/internal/user"
)

// fixedNow is the pinned clock for analytics tests. Midday avoids any
// ambiguity about which daily bucket "now" falls into.
var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// testFixture wires real in-memory repositories behind a service with a
// pinned clock.
type testFixture struct {
	groups  *group.InMemoryRepository
	shares  *share.InMemoryRepository
	users   *user.InMemoryRepository
	service *Service
}

func newFixture(t *testing.T, opts ...Option) *testFixture {
	t.Helper()

	f := &testFixture{
		groups: group.NewInMemoryRepository(),
		shares: share.NewInMemoryRepository(),
		users:  user.NewInMemoryRepository(),
	}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	f.service = NewService(f.shares, f.groups, f.users, opts...)
	return f
}

// addGroup creates a group with the given members.
func (f *testFixture) addGroup(t *testing.T, id string, memberIDs ...string) {
	t.Helper()

	g := &group.Group{ID: id, Name: "test group", CreatedBy: "creator", MemberIDs: memberIDs}
	if err := f.groups.Create(g); err != nil {
		t.Fatalf("failed to create group: %v", err)
	}
}

// addUser registers a profile for joining into output.
func (f *testFixture) addUser(t *testing.T, id, name string) {
	t.Helper()

	u := &user.User{ID: id, DisplayName: name}
	if err := f.users.Create(u); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
}

// addShare inserts a share and returns its id.
func (f *testFixture) addShare(t *testing.T, groupID, author, artist string, createdAt time.Time) string {
	t.Helper()

	s := &share.Share{
		GroupID:    groupID,
		SharedBy:   author,
		TrackName:  "track",
		ArtistName: artist,
		CreatedAt:  createdAt,
	}
	if err := f.shares.Create(s); err != nil {
		t.Fatalf("failed to create share: %v", err)
	}
	return s.ID
}

// like records a like and fails the test on error.
func (f *testFixture) like(t *testing.T, shareID, userID string, at time.Time) {
	t.Helper()

	if _, err := f.shares.AddLike(shareID, userID, at); err != nil {
		t.Fatalf("failed to add like: %v", err)
	}
}

// listen records a listen and fails the test on error.
func (f *testFixture) listen(t *testing.T, shareID, userID string, at time.Time) {
	t.Helper()

	if _, err := f.shares.AddListen(shareID, userID, at); err != nil {
		t.Fatalf("failed to add listen: %v", err)
	}
}

func TestGroupActivity_BackfillCompleteness(t *testing.T) {
	f := newFixture(t)
	f.addGroup(t, "g1", "alice")

	// One share three days ago in a 7-day window. The series must still
	// cover every daily boundary from range start to now inclusive.
	f.addShare(t, "g1", "alice", "Artist", fixedNow.Add(-3*24*time.Hour))

	series, err := f.service.GroupActivity(context.Background(), "g1", Range7d, ModeShares)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(series) != 8 {
		t.Fatalf("Expected 8 buckets for a 7d window, got %d", len(series))
	}

	nonZero := 0
	for i, b := range series {
		if i > 0 && !series[i-1].Timestamp.Before(b.Timestamp) {
			t.Errorf("Bucket %d timestamp %v not after previous %v", i, b.Timestamp, series[i-1].Timestamp)
		}
		if b.ShareCount > 0 {
			nonZero++
		}
	}
	if nonZero != 1 {
		t.Errorf("Expected exactly 1 non-zero bucket, got %d", nonZero)
	}
}

func TestGroupActivity_EmptyGroupFullZeroSeries(t *testing.T) {
	f := newFixture(t)
	f.addGroup(t, "g1", "alice")

	series, err := f.service.GroupActivity(context.Background(), "g1", Range7d, ModeShares)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(series) != 8 {
		t.Fatalf("Expected 8 zero buckets, got %d", len(series))
	}
	for i, b := range series {
		if b.ShareCount != 0 || b.ActivityScore != 0 {
			t.Errorf("Bucket %d should be zero-valued, got shares=%d score=%d", i, b.ShareCount, b.ActivityScore)
		}
	}
}

func TestGroupActivity_HourlyBucketsFor24h(t *testing.T) {
	f := newFixture(t)
	f.addGroup(t, "g1", "alice")
	f.addShare(t, "g1", "alice", "Artist", fixedNow.Add(-90*time.Minute))

	series, err := f.service.GroupActivity(context.Background(), "g1", Range24h, ModeShares)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// 24 hourly boundaries plus the bucket containing "now".
	if len(series) != 25 {
		t.Fatalf("Expected 25 hourly buckets, got %d", len(series))
	}

	for i := 1; i < len(series); i++ {
		gap := series[i].Timestamp.Sub(series[i-1].Timestamp)
		if gap != time.Hour {
			t.Fatalf("Expected 1h between buckets, got %v at index %d", gap, i)
		}
	}
}

func TestGroupActivity_ModeEquivalenceWithoutEngagement(t *testing.T) {
	f := newFixture(t)
	f.addGroup(t, "g1", "alice")

	// Shares with zero likes and listens: both modes must agree bucket
	// by bucket.
	f.addShare(t, "g1", "alice", "Artist", fixedNow.Add(-2*24*time.Hour))
	f.addShare(t, "g1", "alice", "Artist", fixedNow.Add(-2*24*time.Hour))

	sharesMode, err := f.service.GroupActivity(context.Background(), "g1", Range7d, ModeShares)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	engagementMode, err := f.service.GroupActivity(context.Background(), "g1", Range7d, ModeEngagement)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for i := range sharesMode {
		if sharesMode[i].ActivityScore != engagementMode[i].ActivityScore {
			t.Errorf("Bucket %d: shares mode %d != engagement mode %d",
				i, sharesMode[i].ActivityScore, engagementMode[i].ActivityScore)
		}
	}
}

func TestGroupActivity_EngagementSumsLikesAndListens(t *testing.T) {
	f := newFixture(t)
	f.addGroup(t, "g1", "alice", "bob", "carol")

	at := fixedNow.Add(-1 * 24 * time.Hour)
	shareID := f.addShare(t, "g1", "alice", "Artist", at)
	f.like(t, shareID, "bob", at.Add(time.Minute))
	f.like(t, shareID, "carol", at.Add(2*time.Minute))
	f.listen(t, shareID, "bob", at.Add(3*time.Minute))

	series, err := f.service.GroupActivity(context.Background(), "g1", Range7d, ModeEngagement)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// 1 share + 2 likes + 1 listen = 4, unweighted.
	found := false
	for _, b := range series {
		if b.ShareCount == 1 {
			found = true
			if b.ActivityScore != 4 {
				t.Errorf("Expected engagement score 4, got %d", b.ActivityScore)
			}
		}
	}
	if !found {
		t.Fatal("Expected a bucket containing the share")
	}
}

func TestGroupActivity_AllRangeStartsAtEarliestShare(t *testing.T) {
	f := newFixture(t)
	f.addGroup(t, "g1", "alice")

	earliest := fixedNow.Add(-10 * 24 * time.Hour)
	f.addShare(t, "g1", "alice", "Artist", earliest)
	f.addShare(t, "g1", "alice", "Artist", fixedNow.Add(-2*24*time.Hour))

	series, err := f.service.GroupActivity(context.Background(), "g1", RangeAll, ModeShares)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(series) != 11 {
		t.Fatalf("Expected 11 buckets from earliest share to now, got %d", len(series))
	}
	wantFirst := time.UnixMilli(earliest.UnixMilli() / dayMS * dayMS).UTC()
	if !series[0].Timestamp.Equal(wantFirst) {
		t.Errorf("Expected first bucket %v, got %v", wantFirst, series[0].Timestamp)
	}
}

func TestGroupActivity_AllRangeClampedToMaxWindow(t *testing.T) {
	f := newFixture(t, WithMaxWindow(30*24*time.Hour))
	f.addGroup(t, "g1", "alice")

	// Earliest share far older than the configured window.
	f.addShare(t, "g1", "alice", "Artist", fixedNow.Add(-400*24*time.Hour))

	series, err := f.service.GroupActivity(context.Background(), "g1", RangeAll, ModeShares)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(series) != 31 {
		t.Fatalf("Expected clamp to 31 buckets, got %d", len(series))
	}
	// The ancient share falls outside the clamped window entirely.
	for i, b := range series {
		if b.ShareCount != 0 {
			t.Errorf("Bucket %d should be empty after clamping, got %d shares", i, b.ShareCount)
		}
	}
}

func TestGroupActivity_AllRangeUnknownGroup(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.GroupActivity(context.Background(), "missing", RangeAll, ModeShares)
	if err != ErrGroupNotFound {
		t.Fatalf("Expected ErrGroupNotFound, got %v", err)
	}
}

func TestGroupActivity_UnknownRangeDefaultsTo7d(t *testing.T) {
	f := newFixture(t)
	f.addGroup(t, "g1", "alice")

	series, err := f.service.GroupActivity(context.Background(), "g1", ParseTimeRange("bogus"), ModeShares)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(series) != 8 {
		t.Fatalf("Expected 7d fallback (8 buckets), got %d", len(series))
	}
}

func TestGroupActivity_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.addGroup(t, "g1", "alice", "bob")

	at := fixedNow.Add(-2 * 24 * time.Hour)
	shareID := f.addShare(t, "g1", "alice", "Artist", at)
	f.like(t, shareID, "bob", at.Add(time.Minute))

	first, err := f.service.GroupActivity(context.Background(), "g1", Range7d, ModeEngagement)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := f.service.GroupActivity(context.Background(), "g1", Range7d, ModeEngagement)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("Expected identical series lengths, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Bucket %d differs between calls: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"shares", ModeShares, false},
		{"engagement", ModeEngagement, false},
		{"", ModeShares, false},
		{"noise", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q): expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q): unexpected error %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
