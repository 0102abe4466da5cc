package schedule

import (
	"github.com/nergy-se/waterheater/pkg/heater"
	"github.com/nergy-se/waterheater/pkg/modes"
	"github.com/nergy-se/waterheater/pkg/price"
)

// Strategy selects how the hours of a day are split between heating levels.
type Strategy int

const (
	// SimplePriceBased gives the cheapest hours to highest, the next ones to
	// medium and disables heating for the rest.
	SimplePriceBased Strategy = iota
	// EnergyBased ranks like SimplePriceBased but splits the medium band
	// between the 1300 W and 700 W modes by what an hour costs to run.
	EnergyBased
)

func (s Strategy) String() string {
	if s == EnergyBased {
		return "energy based"
	}
	return "simple price based"
}

// allocate assigns a level to each point of one day. The result is indexed
// like points.
func (b *Builder) allocate(points []price.Point) []heater.Level {
	levels := make([]heater.Level, len(points))
	index := make(map[int64]int, len(points))
	for i, p := range points {
		index[p.Start.Unix()] = i
		levels[i] = heater.LevelDisabled
	}

	ranked := price.Cheapest(points)
	highest := min(b.config.MaxPowerHours, len(ranked))
	medium := min(b.config.MediumPowerHours, len(ranked)-highest)

	for _, p := range ranked[:highest] {
		levels[index[p.Start.Unix()]] = heater.LevelHighest
	}

	band := ranked[highest : highest+medium]
	switch b.strategy {
	case EnergyBased:
		for _, p := range band {
			levels[index[p.Start.Unix()]] = mediumTier(p.Price, marginalPrice(ranked, highest))
		}
	default:
		for _, p := range band {
			levels[index[p.Start.Unix()]] = heater.LevelMedium
		}
	}
	return levels
}

// marginalPrice is the price of the most expensive highest hour, or of the
// cheapest hour after them when no hour runs at highest.
func marginalPrice(ranked []price.Point, highest int) float64 {
	if highest > 0 {
		return ranked[highest-1].Price
	}
	return ranked[0].Price
}

// mediumTier runs 1300 W when an hour at that power costs no more than the
// marginal highest hour at full power, and 700 W otherwise.
func mediumTier(p, marginal float64) heater.Level {
	if p <= 0 {
		return heater.LevelMedium1300W
	}
	if effectiveCost(p, heater.LevelMedium1300W) <= effectiveCost(marginal, heater.LevelHighest) {
		return heater.LevelMedium1300W
	}
	return heater.LevelMedium
}

func effectiveCost(p float64, level heater.Level) float64 {
	return p * modes.KWh(level)
}
