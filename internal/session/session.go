/*
Package session
File: session.go
Description:
    The single logical timeline of one player's game.

    A Session owns one Ledger and one Heat controller and is the only place
    where they are mutated. It restores and reconciles progress on Start,
    serves taps, purchases and resets, and (in Run) owns every cadence:
    production ticks, the one pending heat-decay timer, autosave and the
    state pulse pushed to connected clients.
*/

package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/everforgeworks/tap-the-cap/internal/config"
	"github.com/everforgeworks/tap-the-cap/internal/game"
	"github.com/everforgeworks/tap-the-cap/internal/logger"
	"github.com/everforgeworks/tap-the-cap/internal/store"
)

// Publisher receives events for connected clients.
type Publisher interface {
	Publish(eventType string, payload interface{})
}

// Options wires a Session to its collaborators.
type Options struct {
	Definition game.Definition
	Tier       game.DeviceTier
	Cadence    config.CadenceConfig
	Store      store.Store
	Clock      Clock // Defaults to the system clock
	Logger     *zap.Logger
	Rand       *rand.Rand // Drives the marker shuffle; seeded from the clock when nil
}

// Session serializes every state transition of one game.
type Session struct {
	mu sync.Mutex

	catalog *game.Catalog
	tuning  game.Tuning
	tier    game.DeviceTier
	cadence config.CadenceConfig

	ledger *game.Ledger
	heat   *game.Heat

	store store.Store
	clock Clock
	log   *zap.Logger
	rng   *rand.Rand

	capacities []int
	assignment []string
	notice     *game.OfflineNotice
	spawns     game.SpawnAccumulator // Whole particle spawns due per pulse

	rearm chan struct{} // Signals Run that the decay deadline moved
}

// New builds a session in the first-launch state. Call Start to restore progress.
func New(opts Options) (*Session, error) {
	catalog, err := opts.Definition.Catalog()
	if err != nil {
		return nil, err
	}
	if opts.Store == nil {
		return nil, errors.New("session: a store is required")
	}
	tuning := opts.Definition.Tuning.WithDefaults()

	clock := opts.Clock
	if clock == nil {
		clock = NewTimeProvider()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(clock.Now().UnixNano()))
	}
	cadence := opts.Cadence
	if cadence.ProductionTick <= 0 {
		cadence.ProductionTick = 100 * time.Millisecond
	}
	if cadence.AutosaveInterval <= 0 {
		cadence.AutosaveInterval = 30 * time.Second
	}
	if cadence.PublishInterval <= 0 {
		cadence.PublishInterval = 250 * time.Millisecond
	}

	s := &Session{
		catalog:    catalog,
		tuning:     tuning,
		tier:       opts.Tier,
		cadence:    cadence,
		ledger:     game.NewLedger(catalog, tuning),
		heat:       game.NewHeat(tuning),
		store:      opts.Store,
		clock:      clock,
		log:        logger.OrNop(opts.Logger),
		rng:        rng,
		capacities: game.ComputeCapacities(opts.Tier.MaxRings, tuning),
		spawns:     game.SpawnAccumulator{Limit: tuning.SpawnRateCap},
		rearm:      make(chan struct{}, 1),
	}
	s.recomputeLocked()
	return s, nil
}

// Start restores the saved ledger and credits offline earnings.
// Missing or corrupt progress starts a fresh game; a failing store is an error.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. Restore
	snap, err := s.store.Load(ctx)
	switch {
	case err == nil:
		if rerr := s.ledger.Restore(snap); rerr != nil {
			s.log.Warn("saved progress rejected, starting fresh", zap.Error(rerr))
		} else {
			s.log.Info("progress restored",
				zap.Float64("balance", s.ledger.Balance()),
				zap.Int("owned", s.ledger.TotalOwnedCount()),
				zap.Time("last_saved", snap.SavedAt),
			)
		}
	case errors.Is(err, store.ErrNotFound):
		s.log.Info("no saved progress, first launch")
	case errors.Is(err, game.ErrCorruptSnapshot):
		s.log.Warn("saved progress corrupt, starting fresh", zap.Error(err))
	default:
		return fmt.Errorf("session: load progress: %w", err)
	}

	// 2. Reconcile the time away
	res := game.Reconcile(s.ledger.LastPersistedAt(), s.clock.Now(), s.ledger.TotalProductionRate(), s.tuning)
	s.ledger.ApplyOffline(res)
	s.notice = res.Notice
	if res.Credited > 0 {
		s.log.Info("offline earnings credited",
			zap.Duration("away", res.Elapsed),
			zap.Float64("credited", res.Credited),
			zap.Bool("notice", res.Notice != nil),
		)
	}

	// 3. Markers follow the restored counts
	s.recomputeLocked()
	return nil
}

// Tap credits the tap yield and heats the rotation.
func (s *Session) Tap() TapResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.ledger.ApplyTap()
	level := s.heat.Tap(s.clock.Now())

	select {
	case s.rearm <- struct{}{}:
	default:
	}
	return TapResult{Balance: balance, HeatLevel: level}
}

// Purchase buys one unit. On success the markers are recomputed and progress saved;
// a failed save is logged, the purchase stands.
func (s *Session) Purchase(ctx context.Context, id string) (game.PurchaseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.ledger.Purchase(id)
	if err != nil {
		return res, err
	}
	if res != game.PurchaseOK {
		s.log.Debug("purchase rejected", zap.String("producer", id), zap.Stringer("result", res))
		return res, nil
	}

	s.recomputeLocked()
	if err := s.saveLocked(ctx); err != nil {
		s.log.Warn("save after purchase failed", zap.String("producer", id), zap.Error(err))
	}
	return res, nil
}

// Reset wipes the balance and every count, drops the saved slot and saves
// the zero state. Confirmation is the caller's job.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger.Reset()
	s.notice = nil
	s.spawns = game.SpawnAccumulator{Limit: s.tuning.SpawnRateCap}
	s.recomputeLocked()
	s.log.Info("game reset")

	// Stale keys (e.g. producers no longer in the catalog) go with the slot
	if err := s.store.Clear(ctx); err != nil {
		s.log.Warn("clear saved progress failed", zap.Error(err))
	}
	return s.saveLocked(ctx)
}

// ProductionTick credits elapsedSeconds of passive production.
func (s *Session) ProductionTick(elapsedSeconds float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.ApplyProductionTick(elapsedSeconds)
}

// DecayDue fires every heat decay due by now and returns how many fired.
func (s *Session) DecayDue() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heat.Advance(s.clock.Now())
}

// NextDecay returns the single pending heat-decay deadline.
func (s *Session) NextDecay() (time.Time, bool) {
	return s.heat.NextDecay()
}

// Save writes the current ledger to the store.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *Session) saveLocked(ctx context.Context) error {
	now := s.clock.Now()
	if err := s.store.Save(ctx, s.ledger.Snapshot(now)); err != nil {
		return fmt.Errorf("session: save progress: %w", err)
	}
	s.ledger.MarkPersisted(now)
	return nil
}

// TakeOfflineNotice returns the pending welcome-back notice once.
func (s *Session) TakeOfflineNotice() *game.OfflineNotice {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.notice
	s.notice = nil
	return n
}

// Catalog returns the shop catalog.
func (s *Session) Catalog() *game.Catalog {
	return s.catalog
}

func (s *Session) recomputeLocked() {
	s.assignment = game.FloatingAssignment(s.ledger.Counts(), game.TotalCapacity(s.capacities), s.rng)
}
