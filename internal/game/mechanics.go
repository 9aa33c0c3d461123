/*
Package game
File: mechanics.go
Description:
    Contains the pure formula helpers consumed by the presentation layer.
    This includes the heat-derived rotation speed and radius, and the
    ambient particle spawn rate derived from production.
*/

package game

import "math"

// RotationSpeed is min(base × (1 + level × SpeedStep), base × SpeedCap).
func RotationSpeed(level int, base float64, tuning Tuning) float64 {
	tuning = tuning.WithDefaults()
	return math.Min(base*(1+float64(level)*tuning.SpeedStep), base*tuning.SpeedCap)
}

// Radius is min(base × (1 + level × RadiusStep), base × RadiusCap).
func Radius(level int, base float64, tuning Tuning) float64 {
	tuning = tuning.WithDefaults()
	return math.Min(base*(1+float64(level)*tuning.RadiusStep), base*tuning.RadiusCap)
}

// SpawnRate clamps the production rate into [0, limit] for the particle effect.
func SpawnRate(productionRate, limit float64) float64 {
	if productionRate <= 0 || math.IsNaN(productionRate) {
		return 0
	}
	return math.Min(productionRate, limit)
}

// SpawnAccumulator turns a fractional spawn rate into whole spawns per frame.
// The fractional remainder carries over to the next frame.
type SpawnAccumulator struct {
	Limit   float64 // Rate ceiling; zero means no ceiling
	pending float64
}

// Advance accumulates rate × dtSeconds and returns the whole spawns now due.
func (a *SpawnAccumulator) Advance(rate, dtSeconds float64) int {
	if rate <= 0 || dtSeconds <= 0 {
		return 0
	}
	if a.Limit > 0 {
		rate = math.Min(rate, a.Limit)
	}
	a.pending += rate * dtSeconds
	spawns := math.Floor(a.pending)
	a.pending -= spawns
	return int(spawns)
}

// Pending returns the carried fractional spawn.
func (a *SpawnAccumulator) Pending() float64 {
	return a.pending
}
