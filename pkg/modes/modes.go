// Package modes maps the operating modes a water heater reports to the
// heating levels the scheduler plans with, and corrects mode settings that
// drifted from what the levels expect.
//
// The device exposes its modes by display name:
//
//	M6 highest temperature, 2000 W
//	M5 medium temperature, 700 W
//	M4 heating disabled
//	M3 medium temperature, 1300 W (energy based cost saving only)
//	M2 legionella program, 2000 W (only when a dedicated mode is required)
package modes

import (
	"errors"

	"github.com/nergy-se/waterheater/pkg/heater"
)

var (
	ErrConfigurationMismatch = errors.New("heater modes do not match configuration")
	ErrMissingMapping        = errors.New("missing mode mapping")
)

type Config struct {
	EnergyBasedCostSaving          bool
	RequireDedicatedLegionellaMode bool

	HighPowerTargetTemperature   float64
	MediumPowerTargetTemperature float64
	LegionellaTargetTemperature  float64
}

// Expectation is what a mode mapped to Level must be configured as.
type Expectation struct {
	Level       heater.Level
	Prefix      string
	PowerWatt   float64
	Temperature float64
}

var powerWatt = map[heater.Level]float64{
	heater.LevelHighest:     2000,
	heater.LevelMedium:      700,
	heater.LevelDisabled:    0,
	heater.LevelMedium1300W: 1300,
	heater.LevelLegionella:  2000,
}

func PowerWatt(level heater.Level) float64 {
	return powerWatt[level]
}

// KWh is the energy drawn by running one hour at level.
func KWh(level heater.Level) float64 {
	return powerWatt[level] / 1000.0
}

func (c Config) Expectations() []Expectation {
	exp := []Expectation{
		{Level: heater.LevelHighest, Prefix: "M6", PowerWatt: PowerWatt(heater.LevelHighest), Temperature: c.HighPowerTargetTemperature},
		{Level: heater.LevelMedium, Prefix: "M5", PowerWatt: PowerWatt(heater.LevelMedium), Temperature: c.MediumPowerTargetTemperature},
		{Level: heater.LevelDisabled, Prefix: "M4", PowerWatt: PowerWatt(heater.LevelDisabled), Temperature: c.MediumPowerTargetTemperature},
	}
	if c.EnergyBasedCostSaving {
		exp = append(exp, Expectation{Level: heater.LevelMedium1300W, Prefix: "M3", PowerWatt: PowerWatt(heater.LevelMedium1300W), Temperature: c.MediumPowerTargetTemperature})
	}
	if c.RequireDedicatedLegionellaMode {
		exp = append(exp, Expectation{Level: heater.LevelLegionella, Prefix: "M2", PowerWatt: PowerWatt(heater.LevelLegionella), Temperature: c.LegionellaTargetTemperature})
	}
	return exp
}

// RequiredLevels are the levels a schedule built with this config may use.
func (c Config) RequiredLevels() []heater.Level {
	levels := []heater.Level{heater.LevelHighest, heater.LevelMedium, heater.LevelDisabled}
	if c.EnergyBasedCostSaving {
		levels = append(levels, heater.LevelMedium1300W)
	}
	return append(levels, heater.LevelLegionella)
}
