/*
Package game
File: rings.go
Description:
    The Ring Capacity Allocator.
    This includes:
    1. Graduated per-ring capacities derived from the device tier's ring count.
    2. Proportional apportionment of owned units into a bounded, shuffled
       sequence of visual slots (the floating assignment).
    3. Ring-by-ring placement of that sequence as orbiting markers.
*/

package game

import (
	"math"
	"math/rand"
	"sort"
)

// ComputeCapacities returns one capacity per ring: BaseRingCapacity for ring 0,
// then floor(previous × RingGrowth). A ring count below 1 yields no rings.
func ComputeCapacities(ringCount int, tuning Tuning) []int {
	if ringCount <= 0 {
		return nil
	}
	tuning = tuning.WithDefaults()

	caps := make([]int, ringCount)
	caps[0] = tuning.BaseRingCapacity
	for i := 1; i < ringCount; i++ {
		caps[i] = int(math.Floor(float64(caps[i-1]) * tuning.RingGrowth))
	}
	return caps
}

// TotalCapacity sums the ring capacities.
func TotalCapacity(capacities []int) int {
	total := 0
	for _, c := range capacities {
		if c > 0 {
			total += c
		}
	}
	return total
}

// FloatingAssignment apportions up to totalCapacity visual slots among the
// owned producers and returns their ids in random order.
//
// Every owned type gets at least one slot while capacity allows. When the
// rounded shares overshoot, surplus slots come off the largest allocations
// (never below one) before the shuffle, so no type is dropped for being
// declared late. This departs from truncating the flattened list to capacity,
// which would silently drop the last types in catalog order. When capacity is
// below the number of owned types, the types with the most units win, catalog
// order breaking ties. A nil rng uses the shared source.
func FloatingAssignment(owned []OwnedProducer, totalCapacity int, rng *rand.Rand) []string {
	// 1. Collect owned types in catalog order
	type share struct {
		id    string
		count int
		slots int
	}
	shares := make([]share, 0, len(owned))
	totalItems := 0
	for _, o := range owned {
		if o.Count <= 0 {
			continue
		}
		shares = append(shares, share{id: o.ProducerTypeID, count: o.Count})
		totalItems += o.Count
	}
	if totalItems == 0 || totalCapacity <= 0 {
		return []string{}
	}

	// 2. Never show more markers than units owned
	effective := min(totalItems, totalCapacity)

	if effective < len(shares) {
		// 3a. Not even one slot each: the biggest holdings get one slot
		sort.SliceStable(shares, func(i, j int) bool { return shares[i].count > shares[j].count })
		shares = shares[:effective]
		for i := range shares {
			shares[i].slots = 1
		}
	} else {
		// 3b. Proportional share, at least one, at most the units owned
		assigned := 0
		for i := range shares {
			ideal := float64(shares[i].count) / float64(totalItems) * float64(effective)
			shares[i].slots = min(shares[i].count, max(1, int(math.Round(ideal))))
			assigned += shares[i].slots
		}

		// 4. Trim overshoot from the largest allocations
		for overflow := assigned - effective; overflow > 0; overflow-- {
			largest := -1
			for i := range shares {
				if shares[i].slots > 1 && (largest < 0 || shares[i].slots > shares[largest].slots) {
					largest = i
				}
			}
			if largest < 0 {
				break
			}
			shares[largest].slots--
		}
	}

	// 5. Flatten and shuffle the whole sequence
	order := make([]string, 0, effective)
	for _, s := range shares {
		for n := 0; n < s.slots; n++ {
			order = append(order, s.id)
		}
	}
	swap := func(i, j int) { order[i], order[j] = order[j], order[i] }
	if rng != nil {
		rng.Shuffle(len(order), swap)
	} else {
		rand.Shuffle(len(order), swap)
	}
	return order
}

// LayoutMarkers places the assignment ring by ring, filling each ring's
// capacity before spilling into the next. Entries beyond the last ring are dropped.
func LayoutMarkers(order []string, capacities []int, baseRadius float64, tuning Tuning) []Marker {
	tuning = tuning.WithDefaults()
	markers := make([]Marker, 0, min(len(order), TotalCapacity(capacities)))

	next := 0
	for ring, capacity := range capacities {
		inRing := min(len(order)-next, capacity)
		if inRing <= 0 {
			break
		}
		radius := baseRadius + float64(ring)*tuning.RingSpacing
		speed := 1 + float64(ring)*tuning.RingSpeedStep
		for slot := 0; slot < inRing; slot++ {
			markers = append(markers, Marker{
				ProducerTypeID:  order[next+slot],
				Ring:            ring,
				Slot:            slot,
				SlotsInRing:     inRing,
				AngleOffset:     float64(slot) * 2 * math.Pi / float64(inRing),
				RingRadius:      radius,
				SpeedMultiplier: speed,
			})
		}
		next += inRing
	}
	return markers
}
