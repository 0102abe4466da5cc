// Package heater holds the device side model of a scheduled water heater: the
// configurable operating modes, the weekly schedule of mode changes and the
// contract a device integration has to fulfil.
package heater

import (
	"context"
	"strings"
)

type Device struct {
	ID   string
	Name string
}

type SettingKind int

const (
	SettingTargetPower       SettingKind = iota + 1 // watt
	SettingTargetTemperature                        // celsius
)

type Setting struct {
	Kind  SettingKind `json:"kind"`
	Value float64     `json:"value"`
}

// Mode is one of the operating modes the device lets us configure. The name
// starts with the mode prefix shown on the device display (M1..M6).
type Mode struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	Settings []Setting `json:"settings"`
}

func (m Mode) HasPrefix(prefix string) bool {
	return strings.HasPrefix(m.Name, prefix)
}

// Setting returns the first setting of the given kind.
func (m Mode) Setting(kind SettingKind) (float64, bool) {
	for _, s := range m.Settings {
		if s.Kind == kind {
			return s.Value, true
		}
	}
	return 0, false
}

func CloneModes(modes []Mode) []Mode {
	out := make([]Mode, len(modes))
	for i, m := range modes {
		out[i] = m
		out[i].Settings = append([]Setting(nil), m.Settings...)
	}
	return out
}

// API is implemented by every device integration.
type API interface {
	Modes(ctx context.Context, device Device) ([]Mode, error)
	SetModes(ctx context.Context, device Device, modes []Mode) error

	WeeklySchedule(ctx context.Context, device Device) (WeeklySchedule, error)
	SetWeeklySchedule(ctx context.Context, device Device, schedule WeeklySchedule) error

	// LegionellaCountdown returns hours left until the device requires a
	// legionella prevention run. ok is false when the device does not report it.
	LegionellaCountdown(ctx context.Context, device Device) (hours float64, ok bool, err error)
}

type EventKind string

const EventLastScheduleChange EventKind = "lastScheduleChange"

// Notifier is a best effort sink for change notifications.
type Notifier interface {
	Notify(deviceName string, kind EventKind, value int) error
}
