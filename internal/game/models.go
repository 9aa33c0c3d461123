/*
Package game
File: models.go
Description:
    Defines the data structures used throughout the clicker simulation.
    This file serves as the "schema" for the application, mapping directly to
    the game definition file (YAML/TOML) and JSON API responses.

    No logic is performed here; this file is strictly for type definitions
    and the observed default tuning.
*/

package game

import "time"

// ProducerType is a purchasable passive producer listed in the shop.
// Defined at process start and never mutated.
type ProducerType struct {
	ID             string  `yaml:"id" toml:"id" json:"id"`                                        // Unique ID (e.g., "bierfles")
	DisplayName    string  `yaml:"name" toml:"name" json:"name"`                                  // Display name
	ImageKey       string  `yaml:"image" toml:"image" json:"image"`                               // Asset key used by the presentation layer
	Description    string  `yaml:"description" toml:"description" json:"description"`             // Flavor text
	BasePrice      int     `yaml:"base_price" toml:"base_price" json:"base_price"`                // Price in currency, fixed (no escalating curve)
	ProductionRate float64 `yaml:"production_rate" toml:"production_rate" json:"production_rate"` // Currency produced per second per owned unit
}

// OwnedProducer is the number of units the player owns of one ProducerType.
type OwnedProducer struct {
	ProducerTypeID string `json:"producer_id"`
	Count          int    `json:"count"`
}

// DeviceTier is the opaque screen-class input supplied by the host.
type DeviceTier struct {
	Name         string  `yaml:"name" toml:"name" json:"name"`                            // Tier key (e.g., "phone_standard")
	MaxRings     int     `yaml:"max_rings" toml:"max_rings" json:"max_rings"`             // Number of concentric marker rings
	BaseRadius   float64 `yaml:"base_radius" toml:"base_radius" json:"base_radius"`       // Radius of the innermost ring
	BierdopScale float64 `yaml:"bierdop_scale" toml:"bierdop_scale" json:"bierdop_scale"` // Scale of the tap target and its markers
	ShopScale    float64 `yaml:"shop_scale" toml:"shop_scale" json:"shop_scale"`          // Scale of the shop panel
}

// Tuning stores the global balance constants loaded from the game definition.
// Zero values are replaced by DefaultTuning() when the definition is loaded.
type Tuning struct {
	TapYield               float64       `yaml:"tap_yield" toml:"tap_yield" json:"tap_yield"`                                              // Currency credited per tap
	MaxOfflineSeconds      float64       `yaml:"max_offline_seconds" toml:"max_offline_seconds" json:"max_offline_seconds"`                // Offline earnings window cap
	OfflineNoticeThreshold float64       `yaml:"offline_notice_threshold" toml:"offline_notice_threshold" json:"offline_notice_threshold"` // Minimum earnings that produce a notice
	MaxImpulse             int           `yaml:"max_impulse" toml:"max_impulse" json:"max_impulse"`                                        // Heat level ceiling
	SpeedStep              float64       `yaml:"speed_step" toml:"speed_step" json:"speed_step"`                                           // Rotation speed gained per heat level
	SpeedCap               float64       `yaml:"speed_cap" toml:"speed_cap" json:"speed_cap"`                                              // Rotation speed ceiling as a multiple of base
	RadiusStep             float64       `yaml:"radius_step" toml:"radius_step" json:"radius_step"`                                        // Radius gained per heat level
	RadiusCap              float64       `yaml:"radius_cap" toml:"radius_cap" json:"radius_cap"`                                           // Radius ceiling as a multiple of base
	DecayInterval          time.Duration `yaml:"decay_interval" toml:"decay_interval" json:"decay_interval"`                               // Delay between heat decay steps
	BaseRingCapacity       int           `yaml:"base_ring_capacity" toml:"base_ring_capacity" json:"base_ring_capacity"`                   // Markers on the innermost ring
	RingGrowth             float64       `yaml:"ring_growth" toml:"ring_growth" json:"ring_growth"`                                        // Capacity multiplier per outer ring
	RingSpeedStep          float64       `yaml:"ring_speed_step" toml:"ring_speed_step" json:"ring_speed_step"`                            // Angular speed bonus per ring index
	RingSpacing            float64       `yaml:"ring_spacing" toml:"ring_spacing" json:"ring_spacing"`                                     // Radius added per ring index
	SpawnRateCap           float64       `yaml:"spawn_rate_cap" toml:"spawn_rate_cap" json:"spawn_rate_cap"`                               // Particle spawn rate ceiling
	BaseRotationSpeed      float64       `yaml:"base_rotation_speed" toml:"base_rotation_speed" json:"base_rotation_speed"`                // Radians per animation frame at rest
}

// Definition is the root configuration struct, mapping to the entire game definition file.
type Definition struct {
	Tuning      Tuning         `yaml:"tuning" toml:"tuning"`
	Producers   []ProducerType `yaml:"producers" toml:"producers"`
	DeviceTiers []DeviceTier   `yaml:"device_tiers" toml:"device_tiers"`
}

// Snapshot is the persisted form of a Ledger.
// Restoring a snapshot replaces the ledger state entirely.
type Snapshot struct {
	CurrencyBalance float64        `json:"currency_balance"`
	Counts          map[string]int `json:"counts"`
	SavedAt         time.Time      `json:"saved_at"` // Zero when the game was never saved
}

// OfflineResult is the outcome of reconciling the time spent away.
type OfflineResult struct {
	Elapsed  time.Duration // Uncapped wall-clock gap (zero on clock skew)
	Credited float64       // Currency earned over the capped window
	Notice   *OfflineNotice
}

// OfflineNotice is the one-time "welcome back" narrative shown after resume.
type OfflineNotice struct {
	MinutesAway  int     `json:"minutes_away"`
	AmountEarned float64 `json:"amount_earned"`
}

// Marker is one visual slot orbiting the tap target.
type Marker struct {
	ProducerTypeID  string  `json:"producer_id"`
	Ring            int     `json:"ring"`             // Ring index, 0 = innermost
	Slot            int     `json:"slot"`             // Position within the ring
	SlotsInRing     int     `json:"slots_in_ring"`    // Markers sharing this ring
	AngleOffset     float64 `json:"angle_offset"`     // Radians, evenly spaced around the ring
	RingRadius      float64 `json:"ring_radius"`      // Radius before heat scaling
	SpeedMultiplier float64 `json:"speed_multiplier"` // Applied to the shared rotation speed
}

// DefaultTuning returns the tuning observed in the shipped game.
func DefaultTuning() Tuning {
	return Tuning{
		TapYield:               1,
		MaxOfflineSeconds:      1800,
		OfflineNoticeThreshold: 1.0,
		MaxImpulse:             20,
		SpeedStep:              0.5,
		SpeedCap:               10,
		RadiusStep:             0.025,
		RadiusCap:              10,
		DecayInterval:          time.Second,
		BaseRingCapacity:       12,
		RingGrowth:             1.54,
		RingSpeedStep:          0.1,
		RingSpacing:            60,
		SpawnRateCap:           200,
		BaseRotationSpeed:      0.01,
	}
}

// WithDefaults fills every zero field with the observed default.
func (t Tuning) WithDefaults() Tuning {
	d := DefaultTuning()
	if t.TapYield == 0 {
		t.TapYield = d.TapYield
	}
	if t.MaxOfflineSeconds == 0 {
		t.MaxOfflineSeconds = d.MaxOfflineSeconds
	}
	if t.OfflineNoticeThreshold == 0 {
		t.OfflineNoticeThreshold = d.OfflineNoticeThreshold
	}
	if t.MaxImpulse == 0 {
		t.MaxImpulse = d.MaxImpulse
	}
	if t.SpeedStep == 0 {
		t.SpeedStep = d.SpeedStep
	}
	if t.SpeedCap == 0 {
		t.SpeedCap = d.SpeedCap
	}
	if t.RadiusStep == 0 {
		t.RadiusStep = d.RadiusStep
	}
	if t.RadiusCap == 0 {
		t.RadiusCap = d.RadiusCap
	}
	if t.DecayInterval == 0 {
		t.DecayInterval = d.DecayInterval
	}
	if t.BaseRingCapacity == 0 {
		t.BaseRingCapacity = d.BaseRingCapacity
	}
	if t.RingGrowth == 0 {
		t.RingGrowth = d.RingGrowth
	}
	if t.RingSpeedStep == 0 {
		t.RingSpeedStep = d.RingSpeedStep
	}
	if t.RingSpacing == 0 {
		t.RingSpacing = d.RingSpacing
	}
	if t.SpawnRateCap == 0 {
		t.SpawnRateCap = d.SpawnRateCap
	}
	if t.BaseRotationSpeed == 0 {
		t.BaseRotationSpeed = d.BaseRotationSpeed
	}
	return t
}
