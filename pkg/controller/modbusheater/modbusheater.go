// Package modbusheater controls a water heater through a Modbus TCP gateway.
//
// Register map (holding registers unless noted):
//
//	1000 + (id-1)*10     mode id power in W
//	1000 + (id-1)*10 + 1 mode id target temperature in 0.1 °C
//	2000..2167           mode id per hour of the week, monday 00:00 first
//	3000 (input)         hours until legionella prevention is required, 0xFFFF when unknown
package modbusheater

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/nergy-se/waterheater/pkg/heater"
	"github.com/nergy-se/waterheater/pkg/modbusclient"
)

const (
	RegModeBase          uint16 = 1000
	RegModeStride        uint16 = 10
	RegScheduleBase      uint16 = 2000
	RegLegionellaHours   uint16 = 3000
	hoursPerWeek                = 7 * 24
	modeCount                   = 6
	temperatureScale            = 10.0
	legionellaNotPresent        = -1
)

// ModeNames are the fixed names the firmware shows for mode 1..6.
var ModeNames = []string{"M1 Normal", "M2 Legionella", "M3 Medium 1300W", "M4 Off", "M5 Medium", "M6 High"}

type Heater struct {
	client modbusclient.Client
}

func New(client modbusclient.Client) *Heater {
	return &Heater{client: client}
}

func modeAddress(id int) uint16 {
	return RegModeBase + uint16(id-1)*RegModeStride
}

func (h *Heater) Modes(ctx context.Context, device heater.Device) ([]heater.Mode, error) {
	words, err := h.client.ReadHoldingRegisters(RegModeBase, modeCount*RegModeStride)
	if err != nil {
		return nil, err
	}
	modes := make([]heater.Mode, 0, modeCount)
	for id := 1; id <= modeCount; id++ {
		i := (id - 1) * int(RegModeStride)
		modes = append(modes, heater.Mode{
			ID:   id,
			Name: ModeNames[id-1],
			Settings: []heater.Setting{
				{Kind: heater.SettingTargetPower, Value: float64(words[i])},
				{Kind: heater.SettingTargetTemperature, Value: float64(words[i+1]) / temperatureScale},
			},
		})
	}
	return modes, nil
}

func (h *Heater) SetModes(ctx context.Context, device heater.Device, modes []heater.Mode) error {
	for _, m := range modes {
		if m.ID < 1 || m.ID > modeCount {
			return fmt.Errorf("modbusheater: mode id %d out of range", m.ID)
		}
		power, ok := m.Setting(heater.SettingTargetPower)
		if !ok {
			return fmt.Errorf("modbusheater: mode %s has no power setting", m.Name)
		}
		temp, ok := m.Setting(heater.SettingTargetTemperature)
		if !ok {
			return fmt.Errorf("modbusheater: mode %s has no temperature setting", m.Name)
		}
		values := []uint16{uint16(power), uint16(math.Round(temp * temperatureScale))}
		if err := h.client.WriteRegisters(modeAddress(m.ID), values); err != nil {
			return err
		}
	}
	return nil
}

// WeeklySchedule reads the hour grid and collapses it into events. Every day
// starts with an event at hour 0.
func (h *Heater) WeeklySchedule(ctx context.Context, device heater.Device) (heater.WeeklySchedule, error) {
	words, err := h.client.ReadHoldingRegisters(RegScheduleBase, hoursPerWeek)
	if err != nil {
		return heater.WeeklySchedule{}, err
	}
	var ws heater.WeeklySchedule
	for d, day := range heater.DefaultDayOrder {
		last := -1
		for hour := 0; hour < 24; hour++ {
			id := int(words[d*24+hour])
			if id == last {
				continue
			}
			last = id
			ws.Events = append(ws.Events, heater.Event{Day: day, Hour: hour, ModeID: id})
		}
	}
	return ws, nil
}

func (h *Heater) SetWeeklySchedule(ctx context.Context, device heater.Device, schedule heater.WeeklySchedule) error {
	values := make([]uint16, 0, hoursPerWeek)
	for _, day := range heater.DefaultDayOrder {
		for _, id := range schedule.Hourly(day) {
			values = append(values, uint16(id))
		}
	}
	return h.client.WriteRegisters(RegScheduleBase, values)
}

func (h *Heater) LegionellaCountdown(ctx context.Context, device heater.Device) (float64, bool, error) {
	v, err := h.client.ReadInputRegister(RegLegionellaHours)
	if err != nil {
		return 0, false, err
	}
	if v == legionellaNotPresent {
		return 0, false, nil
	}
	return float64(v), true, nil
}

// Current returns the mode id the grid holds for the hour of t.
func (h *Heater) Current(t time.Time) (int, error) {
	day := (int(t.Weekday()) + 6) % 7
	return h.client.ReadHoldingRegister16(RegScheduleBase + uint16(day*24+t.Hour()))
}
