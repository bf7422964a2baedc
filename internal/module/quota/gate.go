package quota

import (
	"context"
	"strings"
	"time"

	"github.com/styleai/server/internal/shared/logger"
)

// Gate is the admission contract used by request handlers. It is a thin
// orchestration over Store and Policy; the atomicity that keeps concurrent
// consumptions honest lives in the store, not here, so the gate stays
// correct across multiple stateless server processes.
type Gate struct {
	store  Store
	policy *Policy
	limits Limits
	logger *logger.Logger
	now    func() time.Time
}

// GateConfig holds gate dependencies.
type GateConfig struct {
	Store  Store
	Policy *Policy
	Limits Limits
	Logger *logger.Logger

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// NewGate creates a new quota gate.
func NewGate(cfg *GateConfig) *Gate {
	g := &Gate{
		store:  cfg.Store,
		policy: cfg.Policy,
		limits: cfg.Limits,
		logger: cfg.Logger,
		now:    cfg.Now,
	}
	if g.policy == nil {
		g.policy = UTCPolicy()
	}
	if g.logger == nil {
		g.logger = logger.New(nil)
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// CheckRemaining returns a usage snapshot for the current period. It is a
// pure read, safe to poll for display. Storage failures are surfaced as
// errors rather than defaulting to unlimited.
func (g *Gate) CheckRemaining(ctx context.Context, userKey, userClass string) (*Snapshot, error) {
	if err := validateUserKey(userKey); err != nil {
		return nil, err
	}

	now := g.now()
	periodKey := g.policy.PeriodKey(now)
	limit := g.limits.For(userClass)

	used, err := g.store.Get(ctx, userKey, periodKey)
	if err != nil {
		return nil, err
	}

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	return &Snapshot{
		Used:      used,
		Limit:     limit,
		Remaining: remaining,
		PeriodKey: periodKey,
		ResetsAt:  g.policy.NextReset(now),
	}, nil
}

// ConsumeOne records one consumed generation. The period key is computed
// once per call so an admission check and its increment cannot straddle a
// day rollover within the gate. On storage failure it fails closed:
// Accepted is false and the error is returned.
func (g *Gate) ConsumeOne(ctx context.Context, userKey, userClass string) (*ConsumeResult, error) {
	if err := validateUserKey(userKey); err != nil {
		return nil, err
	}

	now := g.now()
	periodKey := g.policy.PeriodKey(now)
	limit := g.limits.For(userClass)

	accepted, count, err := g.store.IncrementIfUnder(ctx, userKey, periodKey, limit, g.policy.TTL(now))
	if err != nil {
		g.logger.Error("quota increment failed, denying",
			"user_key", userKey,
			"period", periodKey,
			"error", err,
		)
		return &ConsumeResult{Accepted: false, Used: 0, Limit: limit, PeriodKey: periodKey}, err
	}

	return &ConsumeResult{
		Accepted:  accepted,
		Used:      count,
		Limit:     limit,
		PeriodKey: periodKey,
	}, nil
}

func validateUserKey(userKey string) error {
	if strings.TrimSpace(userKey) == "" {
		return ErrInvalidUserKey
	}
	return nil
}
