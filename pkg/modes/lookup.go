package modes

import (
	"fmt"

	"github.com/nergy-se/waterheater/pkg/heater"
	"github.com/sirupsen/logrus"
)

// Lookup is built from the modes of one device poll and never outlives the run.
type Lookup struct {
	ids       map[heater.Level]int
	corrected map[int]bool
	modes     []heater.Mode
}

// Build maps modes to levels. Settings that differ from the expectation of
// their level are overwritten in modes; allCorrect is false if any was.
func Build(modes []heater.Mode, cfg Config) (lookup *Lookup, allCorrect bool, err error) {
	lookup = &Lookup{
		ids:       make(map[heater.Level]int),
		corrected: make(map[int]bool),
		modes:     modes,
	}
	allCorrect = true

	expectations := cfg.Expectations()
	for i := range modes {
		mode := &modes[i]
		if mode.Name == "" {
			return nil, false, fmt.Errorf("%w: mode %d has no name", ErrConfigurationMismatch, mode.ID)
		}
		for _, exp := range expectations {
			if !mode.HasPrefix(exp.Prefix) {
				continue
			}
			if len(mode.Settings) == 0 {
				return nil, false, fmt.Errorf("%w: mode %s has no settings", ErrConfigurationMismatch, mode.Name)
			}
			if id, ok := lookup.ids[exp.Level]; ok {
				return nil, false, fmt.Errorf("%w: modes %d and %d both map to %s", ErrConfigurationMismatch, id, mode.ID, exp.Level)
			}
			lookup.ids[exp.Level] = mode.ID
			if !verify(mode, exp) {
				lookup.corrected[mode.ID] = true
				allCorrect = false
			}
		}
	}

	if !cfg.RequireDedicatedLegionellaMode {
		// M6 runs hot enough for the legionella program.
		if id, ok := lookup.ids[heater.LevelHighest]; ok {
			lookup.ids[heater.LevelLegionella] = id
		}
	}

	for _, level := range cfg.RequiredLevels() {
		if _, ok := lookup.ids[level]; !ok {
			return nil, false, fmt.Errorf("%w: no mode found for %s", ErrConfigurationMismatch, level)
		}
	}
	return lookup, allCorrect, nil
}

func verify(mode *heater.Mode, exp Expectation) bool {
	good := true
	for i := range mode.Settings {
		setting := &mode.Settings[i]
		switch setting.Kind {
		case heater.SettingTargetPower:
			if setting.Value != exp.PowerWatt {
				logrus.WithFields(logrus.Fields{"mode": mode.Name, "from": setting.Value, "to": exp.PowerWatt}).Warn("modes: heater power is incorrect, changing")
				setting.Value = exp.PowerWatt
				good = false
			}
		case heater.SettingTargetTemperature:
			if setting.Value != exp.Temperature {
				logrus.WithFields(logrus.Fields{"mode": mode.Name, "from": setting.Value, "to": exp.Temperature}).Warn("modes: target temperature is incorrect, changing")
				setting.Value = exp.Temperature
				good = false
			}
		}
	}
	return good
}

func (l *Lookup) ID(level heater.Level) (int, error) {
	id, ok := l.ids[level]
	if !ok {
		return 0, fmt.Errorf("%w: level %s", ErrMissingMapping, level)
	}
	return id, nil
}

var levelOrder = []heater.Level{
	heater.LevelHighest,
	heater.LevelMedium,
	heater.LevelDisabled,
	heater.LevelMedium1300W,
	heater.LevelLegionella,
}

// Level returns the level of a mode id. When legionella shares the id of
// highest, highest is returned.
func (l *Lookup) Level(id int) (heater.Level, error) {
	for _, level := range levelOrder {
		if lid, ok := l.ids[level]; ok && lid == id {
			return level, nil
		}
	}
	return heater.LevelUnknown, fmt.Errorf("%w: mode id %d", ErrMissingMapping, id)
}

func (l *Lookup) Corrected(id int) bool {
	return l.corrected[id]
}

// Modes returns the device modes with corrections applied.
func (l *Lookup) Modes() []heater.Mode {
	return l.modes
}
