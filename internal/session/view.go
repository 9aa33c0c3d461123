package session

import (
	"time"

	"github.com/everforgeworks/tap-the-cap/internal/game"
)

// TapResult is returned to the tapping client.
type TapResult struct {
	Balance   float64 `json:"balance"`
	HeatLevel int     `json:"heat_level"`
}

// HeatView exposes the heat level and the presentation values derived from it.
type HeatView struct {
	Level         int     `json:"level"`
	MaxLevel      int     `json:"max_level"`
	RotationSpeed float64 `json:"rotation_speed"`
	RadiusScale   float64 `json:"radius_scale"` // Multiplier applied to every ring radius
}

// State is the read-only view pushed to clients.
type State struct {
	Balance        float64              `json:"balance"`
	ProductionRate float64              `json:"production_rate"`
	SpawnRate      float64              `json:"spawn_rate"`
	Spawns         int                  `json:"spawns"` // Whole spawns due since the previous pulse
	TotalOwned     int                  `json:"total_owned"`
	Owned          []game.OwnedProducer `json:"owned"`
	Heat           HeatView             `json:"heat"`
	LastSavedAt    *time.Time           `json:"last_saved_at,omitempty"`
	NoticePending  bool                 `json:"offline_notice_pending"`
}

// ShopEntry is one row of the shop panel.
type ShopEntry struct {
	game.ProducerType
	Owned     int  `json:"owned"`
	CanAfford bool `json:"can_afford"`
}

// Layout is the marker placement for the session's device tier.
type Layout struct {
	Tier          game.DeviceTier `json:"tier"`
	Capacities    []int           `json:"capacities"`
	TotalCapacity int             `json:"total_capacity"`
	Assignment    []string        `json:"assignment"`
	Markers       []game.Marker   `json:"markers"`
}

// State builds the current view. Spawns is always zero here; see Pulse.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Pulse advances the spawn accumulator by elapsed and returns the state with
// the whole particle spawns now due. The fraction carries to the next pulse.
func (s *Session) Pulse(elapsed time.Duration) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateLocked()
	st.Spawns = s.spawns.Advance(st.ProductionRate, elapsed.Seconds())
	return st
}

func (s *Session) stateLocked() State {
	rate := s.ledger.TotalProductionRate()
	level := s.heat.Level()
	st := State{
		Balance:        s.ledger.Balance(),
		ProductionRate: rate,
		SpawnRate:      game.SpawnRate(rate, s.tuning.SpawnRateCap),
		TotalOwned:     s.ledger.TotalOwnedCount(),
		Owned:          s.ledger.Counts(),
		Heat: HeatView{
			Level:         level,
			MaxLevel:      s.heat.MaxLevel(),
			RotationSpeed: game.RotationSpeed(level, s.tuning.BaseRotationSpeed, s.tuning),
			RadiusScale:   game.Radius(level, 1, s.tuning),
		},
		NoticePending: s.notice != nil,
	}
	if saved := s.ledger.LastPersistedAt(); !saved.IsZero() {
		st.LastSavedAt = &saved
	}
	return st
}

// Shop lists the catalog in order with ownership and affordability.
func (s *Session) Shop() []ShopEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	producers := s.catalog.Producers()
	entries := make([]ShopEntry, 0, len(producers))
	for _, p := range producers {
		entries = append(entries, ShopEntry{
			ProducerType: p,
			Owned:        s.ledger.Count(p.ID),
			CanAfford:    s.ledger.CanAfford(p.ID),
		})
	}
	return entries
}

// Layout returns the cached assignment placed onto the tier's rings.
// The assignment only changes on start, purchase and reset.
func (s *Session) Layout() Layout {
	s.mu.Lock()
	defer s.mu.Unlock()

	assignment := append([]string(nil), s.assignment...)
	return Layout{
		Tier:          s.tier,
		Capacities:    append([]int(nil), s.capacities...),
		TotalCapacity: game.TotalCapacity(s.capacities),
		Assignment:    assignment,
		Markers:       game.LayoutMarkers(assignment, s.capacities, s.tier.BaseRadius, s.tuning),
	}
}
