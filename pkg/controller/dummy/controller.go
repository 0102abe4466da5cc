// Package dummy is an in-memory water heater used when no real device is
// configured and in tests.
package dummy

import (
	"context"
	"fmt"
	"sync"

	"github.com/nergy-se/waterheater/pkg/heater"
	"github.com/sirupsen/logrus"
)

type Dummy struct {
	modes          []heater.Mode
	schedule       heater.WeeklySchedule
	countdown      *float64
	modeWrites     int
	scheduleWrites int

	// Errors returned by the next calls, nil means success.
	ModesErr       error
	SetModesErr    error
	ScheduleErr    error
	SetScheduleErr error
	CountdownErr   error

	sync.Mutex
}

// New returns a heater with the five standard modes configured for the
// given temperatures.
func New(highTemp, mediumTemp, legionellaTemp float64) *Dummy {
	mode := func(id int, name string, watt, temp float64) heater.Mode {
		return heater.Mode{ID: id, Name: name, Settings: []heater.Setting{
			{Kind: heater.SettingTargetPower, Value: watt},
			{Kind: heater.SettingTargetTemperature, Value: temp},
		}}
	}
	return &Dummy{
		modes: []heater.Mode{
			mode(1, "M1 Normal", 2000, highTemp),
			mode(2, "M2 Legionella", 2000, legionellaTemp),
			mode(3, "M3 Medium 1300W", 1300, mediumTemp),
			mode(4, "M4 Off", 0, mediumTemp),
			mode(5, "M5 Medium", 700, mediumTemp),
			mode(6, "M6 High", 2000, highTemp),
		},
	}
}

func Pointer[K any](val K) *K {
	return &val
}

func (d *Dummy) Modes(ctx context.Context, device heater.Device) ([]heater.Mode, error) {
	d.Lock()
	defer d.Unlock()
	if d.ModesErr != nil {
		return nil, d.ModesErr
	}
	return heater.CloneModes(d.modes), nil
}

func (d *Dummy) SetModes(ctx context.Context, device heater.Device, modes []heater.Mode) error {
	d.Lock()
	defer d.Unlock()
	if d.SetModesErr != nil {
		return d.SetModesErr
	}
	logrus.Info("dummy: SetModes: ", len(modes))
	d.modes = heater.CloneModes(modes)
	d.modeWrites++
	return nil
}

func (d *Dummy) WeeklySchedule(ctx context.Context, device heater.Device) (heater.WeeklySchedule, error) {
	d.Lock()
	defer d.Unlock()
	if d.ScheduleErr != nil {
		return heater.WeeklySchedule{}, d.ScheduleErr
	}
	return d.schedule.Clone(), nil
}

func (d *Dummy) SetWeeklySchedule(ctx context.Context, device heater.Device, schedule heater.WeeklySchedule) error {
	d.Lock()
	defer d.Unlock()
	if d.SetScheduleErr != nil {
		return d.SetScheduleErr
	}
	logrus.Info("dummy: SetWeeklySchedule: ", len(schedule.Events), " events")
	d.schedule = schedule.Clone()
	d.scheduleWrites++
	return nil
}

func (d *Dummy) LegionellaCountdown(ctx context.Context, device heater.Device) (float64, bool, error) {
	d.Lock()
	defer d.Unlock()
	if d.CountdownErr != nil {
		return 0, false, d.CountdownErr
	}
	if d.countdown == nil {
		return 0, false, nil
	}
	return *d.countdown, true, nil
}

func (d *Dummy) SetLegionellaCountdown(hours *float64) {
	d.Lock()
	d.countdown = hours
	d.Unlock()
}

// SetMode overwrites one setting of a mode, simulating a user changing it on the device.
func (d *Dummy) SetMode(id int, kind heater.SettingKind, value float64) error {
	d.Lock()
	defer d.Unlock()
	for i := range d.modes {
		if d.modes[i].ID != id {
			continue
		}
		for j := range d.modes[i].Settings {
			if d.modes[i].Settings[j].Kind == kind {
				d.modes[i].Settings[j].Value = value
				return nil
			}
		}
	}
	return fmt.Errorf("dummy: no setting %d on mode %d", kind, id)
}

func (d *Dummy) Schedule() heater.WeeklySchedule {
	d.Lock()
	defer d.Unlock()
	return d.schedule.Clone()
}

// Writes returns how many times modes and schedule were written.
func (d *Dummy) Writes() (modes, schedules int) {
	d.Lock()
	defer d.Unlock()
	return d.modeWrites, d.scheduleWrites
}
