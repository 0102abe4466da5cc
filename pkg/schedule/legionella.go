package schedule

import (
	"time"

	"github.com/nergy-se/waterheater/pkg/heater"
)

// reserveLegionella moves the cheapest contiguous block of LegionellaHours
// slots starting at or after notBefore to the legionella level. When no block
// fits after notBefore any block in slots is used. Equal cost picks the
// earliest block.
func (b *Builder) reserveLegionella(slots []Slot, notBefore time.Time) (reserved int) {
	n := b.config.LegionellaHours
	if n <= 0 || len(slots) == 0 {
		return 0
	}
	if n > len(slots) {
		n = len(slots)
	}

	start := bestWindow(slots, n, notBefore.Truncate(time.Hour))
	if start < 0 {
		start = bestWindow(slots, n, time.Time{})
	}
	if start < 0 {
		return 0
	}
	for i := start; i < start+n; i++ {
		slots[i].Level = heater.LevelLegionella
	}
	return n
}

func bestWindow(slots []Slot, n int, notBefore time.Time) int {
	best := -1
	bestCost := 0.0
	for i := 0; i+n <= len(slots); i++ {
		if slots[i].Start.Before(notBefore) || !contiguous(slots[i:i+n]) {
			continue
		}
		cost := 0.0
		for _, s := range slots[i : i+n] {
			cost += effectiveCost(s.Price, heater.LevelLegionella)
		}
		if best < 0 || cost < bestCost {
			best, bestCost = i, cost
		}
	}
	return best
}

func contiguous(slots []Slot) bool {
	for i := 1; i < len(slots); i++ {
		if !slots[i].Start.Equal(slots[i-1].Start.Add(time.Hour)) {
			return false
		}
	}
	return true
}
