package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gebrielmolla19/groupify/internal/group"
	"github.com/gebrielmolla19/groupify/internal/share"
	"github.com/gebrielmolla19/groupify/internal/tracing"
	"github.com/gebrielmolla19/groupify/internal/user"
)

// DefaultMaxWindow caps how far back the "all" range reaches. Wider
// windows produce series too long to chart usefully.
const DefaultMaxWindow = 365 * 24 * time.Hour

// ShareReader is the read surface the engine needs from share storage.
type ShareReader interface {
	ListByGroup(groupID string, createdAfter *time.Time) ([]*share.Share, error)
	EarliestByGroup(groupID string) (time.Time, bool, error)
}

// GroupReader resolves group membership.
type GroupReader interface {
	GetByID(id string) (*group.Group, error)
}

// UserReader hydrates user ids into display attributes.
type UserReader interface {
	GetByID(id string) (*user.User, error)
	ListByIDs(ids []string) ([]*user.User, error)
}

// Service computes group analytics on demand. It holds no mutable state;
// every call fetches a fresh snapshot and derives from it.
type Service struct {
	shares    ShareReader
	groups    GroupReader
	users     UserReader
	metrics   *Metrics
	maxWindow time.Duration
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMaxWindow overrides the cap on the "all" range lookback.
func WithMaxWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.maxWindow = d
		}
	}
}

// WithMetrics attaches Prometheus instrumentation to the service.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the time source. Used by tests to pin "now".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates an analytics service over the given read models.
func NewService(shares ShareReader, groups GroupReader, users UserReader, opts ...Option) *Service {
	s := &Service{
		shares:    shares,
		groups:    groups,
		users:     users,
		maxWindow: DefaultMaxWindow,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolveStart computes the window start for a range, anchored to now.
// The "all" range needs the group's earliest share and therefore a valid
// group; a missing group surfaces as ErrGroupNotFound.
func (s *Service) resolveStart(groupID string, rng TimeRange, now time.Time) (time.Time, error) {
	if d, fixed := rangeDuration(rng); fixed {
		return now.Add(-d), nil
	}

	if _, err := s.groups.GetByID(groupID); err != nil {
		if errors.Is(err, group.ErrGroupNotFound) {
			return time.Time{}, ErrGroupNotFound
		}
		return time.Time{}, fmt.Errorf("resolve group: %w", err)
	}

	earliest, hasShares, err := s.shares.EarliestByGroup(groupID)
	if err != nil {
		return time.Time{}, fmt.Errorf("resolve earliest share: %w", err)
	}
	return clampAllStart(earliest, hasShares, now, s.maxWindow), nil
}

// GroupActivity returns a dense, chronologically ascending activity
// series for the group over the given range and mode.
func (s *Service) GroupActivity(ctx context.Context, groupID string, rng TimeRange, mode Mode) ([]ActivityBucket, error) {
	ctx, end := tracing.StartSpan(ctx, "analytics.group_activity")
	done := s.observe(opActivity)
	series, err := s.groupActivity(ctx, groupID, rng, mode)
	done(err)
	end(err)
	return series, err
}

func (s *Service) groupActivity(ctx context.Context, groupID string, rng TimeRange, mode Mode) ([]ActivityBucket, error) {
	now := s.now()
	start, err := s.resolveStart(groupID, rng, now)
	if err != nil {
		return nil, err
	}

	shares, err := s.shares.ListByGroup(groupID, &start)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return buildActivitySeries(shares, start, now, rng, mode), nil
}

// MemberVibes returns one normalized behavioral profile per current
// group member, including members with no activity in the window.
func (s *Service) MemberVibes(ctx context.Context, groupID string, rng TimeRange) ([]VibeProfile, error) {
	ctx, end := tracing.StartSpan(ctx, "analytics.member_vibes")
	done := s.observe(opVibes)
	profiles, err := s.memberVibes(ctx, groupID, rng)
	done(err)
	end(err)
	return profiles, err
}

func (s *Service) memberVibes(ctx context.Context, groupID string, rng TimeRange) ([]VibeProfile, error) {
	now := s.now()

	g, err := s.groups.GetByID(groupID)
	if err != nil {
		if errors.Is(err, group.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("resolve group: %w", err)
	}

	// The vibe window is unclamped for "all": every share the group ever
	// had participates, unlike the charted activity series.
	var createdAfter *time.Time
	if d, fixed := rangeDuration(rng); fixed {
		start := now.Add(-d)
		createdAfter = &start
	}

	shares, err := s.shares.ListByGroup(groupID, createdAfter)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}

	users, err := s.users.ListByIDs(g.MemberIDs)
	if err != nil {
		return nil, fmt.Errorf("hydrate members: %w", err)
	}
	profiles := make(map[string]profileInfo, len(users))
	for _, u := range users {
		profiles[u.ID] = profileInfo{displayName: u.DisplayName, image: u.ProfileImageURL}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return computeVibes(g.MemberIDs, profiles, shares, now), nil
}

// Superlatives evaluates the fixed rule set against the group's full
// share history. Rules with no qualifying data are omitted from the map.
// The four rules run concurrently with an all-or-nothing join: any
// failure fails the whole call rather than silently dropping a rule.
func (s *Service) Superlatives(ctx context.Context, groupID string) (map[string]Superlative, error) {
	ctx, end := tracing.StartSpan(ctx, "analytics.superlatives")
	done := s.observe(opSuperlatives)
	result, err := s.superlatives(ctx, groupID)
	done(err)
	end(err)
	return result, err
}

func (s *Service) superlatives(ctx context.Context, groupID string) (map[string]Superlative, error) {
	shares, err := s.shares.ListByGroup(groupID, nil)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}

	type ruleResult struct {
		superlative *Superlative
		err         error
	}

	results := make(chan ruleResult, len(superlativeRules))
	for _, rule := range superlativeRules {
		go func(rule superlativeRule) {
			winnerID, value, ok := rule.reduce(shares)
			if !ok {
				results <- ruleResult{}
				return
			}

			sup := Superlative{
				Key:         rule.key,
				WinnerID:    winnerID,
				Value:       value,
				Label:       rule.label,
				Description: rule.description,
			}
			if err := s.hydrateWinner(&sup); err != nil {
				results <- ruleResult{err: fmt.Errorf("hydrate %s winner: %w", rule.key, err)}
				return
			}
			results <- ruleResult{superlative: &sup}
		}(rule)
	}

	out := make(map[string]Superlative)
	for range superlativeRules {
		res := <-results
		if res.err != nil {
			err = errors.Join(err, res.err)
			continue
		}
		if res.superlative != nil {
			out[res.superlative.Key] = *res.superlative
		}
	}
	if err != nil {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return out, nil
}

// hydrateWinner joins user profile data onto a superlative. A missing
// profile row falls back to the bare id; profile storage lags membership
// and a stale winner should not fail the panel.
func (s *Service) hydrateWinner(sup *Superlative) error {
	u, err := s.users.GetByID(sup.WinnerID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			sup.WinnerName = sup.WinnerID
			return nil
		}
		return err
	}
	sup.WinnerName = u.DisplayName
	sup.WinnerImage = u.ProfileImageURL
	return nil
}

// GroupOverview computes all three analytics panels concurrently from
// the same snapshot window, with an all-or-nothing join.
func (s *Service) GroupOverview(ctx context.Context, groupID string, rng TimeRange, mode Mode) (*Overview, error) {
	ctx, end := tracing.StartSpan(ctx, "analytics.group_overview")
	done := s.observe(opOverview)
	overview, err := s.groupOverview(ctx, groupID, rng, mode)
	done(err)
	end(err)
	return overview, err
}

func (s *Service) groupOverview(ctx context.Context, groupID string, rng TimeRange, mode Mode) (*Overview, error) {
	var (
		overview Overview
		errs     = make(chan error, 3)
	)

	go func() {
		series, err := s.groupActivity(ctx, groupID, rng, mode)
		overview.Activity = series
		errs <- err
	}()
	go func() {
		vibes, err := s.memberVibes(ctx, groupID, rng)
		overview.Vibes = vibes
		errs <- err
	}()
	go func() {
		sups, err := s.superlatives(ctx, groupID)
		overview.Superlatives = sups
		errs <- err
	}()

	var err error
	for i := 0; i < 3; i++ {
		err = errors.Join(err, <-errs)
	}
	if err != nil {
		return nil, err
	}
	return &overview, nil
}
