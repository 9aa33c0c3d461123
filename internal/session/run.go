package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ShutdownSaveTimeout bounds the final save once Run's context is cancelled.
const ShutdownSaveTimeout = 5 * time.Second

// Event types published by Run.
const (
	EventStatePulse = "state_pulse"
)

// Run drives the session's cadences until ctx is cancelled: production ticks,
// heat decay, autosave and the state pulse. It saves once more on the way out.
// pub may be nil.
func (s *Session) Run(ctx context.Context, pub Publisher) error {
	production := time.NewTicker(s.cadence.ProductionTick)
	defer production.Stop()
	autosave := time.NewTicker(s.cadence.AutosaveInterval)
	defer autosave.Stop()
	pulse := time.NewTicker(s.cadence.PublishInterval)
	defer pulse.Stop()

	// The one decay timer, created stopped
	decay := time.NewTimer(time.Hour)
	decay.Stop()
	defer decay.Stop()
	s.armDecay(decay)

	tickSeconds := s.cadence.ProductionTick.Seconds()
	s.log.Info("session loop started",
		zap.Duration("production_tick", s.cadence.ProductionTick),
		zap.Duration("autosave", s.cadence.AutosaveInterval),
		zap.Duration("publish", s.cadence.PublishInterval),
	)

	for {
		select {
		case <-ctx.Done():
			saveCtx, cancel := context.WithTimeout(context.Background(), ShutdownSaveTimeout)
			err := s.Save(saveCtx)
			cancel()
			if err != nil {
				s.log.Error("final save failed", zap.Error(err))
				return err
			}
			s.log.Info("session loop stopped, progress saved")
			return nil

		case <-production.C:
			s.ProductionTick(tickSeconds)

		case <-decay.C:
			s.DecayDue()
			s.armDecay(decay)

		case <-s.rearm:
			s.armDecay(decay)

		case <-autosave.C:
			if err := s.Save(ctx); err != nil {
				s.log.Warn("autosave failed", zap.Error(err))
			}

		case <-pulse.C:
			if pub != nil {
				pub.Publish(EventStatePulse, s.Pulse(s.cadence.PublishInterval))
			}
		}
	}
}

// armDecay points the timer at the pending decay deadline, or stops it.
func (s *Session) armDecay(t *time.Timer) {
	deadline, ok := s.NextDecay()
	if !ok {
		t.Stop()
		return
	}
	t.Reset(max(0, deadline.Sub(s.clock.Now())))
}
