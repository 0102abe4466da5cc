package modbusheater

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nergy-se/waterheater/pkg/heater"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	holding map[uint16]uint16
	input   map[uint16]int
	err     error
	writes  int
}

func newFake() *fakeClient {
	return &fakeClient{holding: map[uint16]uint16{}, input: map[uint16]int{}}
}

func (f *fakeClient) ReadInputRegister(address uint16) (int, error) {
	return f.input[address], f.err
}

func (f *fakeClient) ReadHoldingRegister16(address uint16) (int, error) {
	return int(f.holding[address]), f.err
}

func (f *fakeClient) ReadHoldingRegisters(address, quantity uint16) ([]uint16, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]uint16, quantity)
	for i := range out {
		out[i] = f.holding[address+uint16(i)]
	}
	return out, nil
}

func (f *fakeClient) WriteSingleRegister(address, value uint16) error {
	return f.WriteRegisters(address, []uint16{value})
}

func (f *fakeClient) WriteRegisters(address uint16, values []uint16) error {
	if f.err != nil {
		return f.err
	}
	f.writes++
	for i, v := range values {
		f.holding[address+uint16(i)] = v
	}
	return nil
}

var device = heater.Device{ID: "1"}

func TestModesRoundTrip(t *testing.T) {
	fake := newFake()
	h := New(fake)

	fake.holding[1050] = 2000
	fake.holding[1051] = 700

	modes, err := h.Modes(context.TODO(), device)
	require.NoError(t, err)
	require.Len(t, modes, 6)
	assert.Equal(t, "M6 High", modes[5].Name)
	power, _ := modes[5].Setting(heater.SettingTargetPower)
	temp, _ := modes[5].Setting(heater.SettingTargetTemperature)
	assert.Equal(t, 2000.0, power)
	assert.Equal(t, 70.0, temp)

	modes[4].Settings = []heater.Setting{
		{Kind: heater.SettingTargetPower, Value: 700},
		{Kind: heater.SettingTargetTemperature, Value: 50.5},
	}
	require.NoError(t, h.SetModes(context.TODO(), device, modes[4:5]))
	assert.Equal(t, uint16(700), fake.holding[1040])
	assert.Equal(t, uint16(505), fake.holding[1041])
}

func TestSetModesErrors(t *testing.T) {
	h := New(newFake())
	err := h.SetModes(context.TODO(), device, []heater.Mode{{ID: 7, Name: "M7"}})
	assert.Error(t, err)
	err = h.SetModes(context.TODO(), device, []heater.Mode{{ID: 6, Name: "M6", Settings: []heater.Setting{{Kind: heater.SettingTargetPower, Value: 1}}}})
	assert.EqualError(t, err, "modbusheater: mode M6 has no temperature setting")
}

func TestWeeklyScheduleRoundTrip(t *testing.T) {
	fake := newFake()
	h := New(fake)

	in := heater.WeeklySchedule{Events: []heater.Event{
		{Day: time.Monday, Hour: 0, ModeID: 4},
		{Day: time.Tuesday, Hour: 0, ModeID: 4},
		{Day: time.Tuesday, Hour: 2, ModeID: 6},
		{Day: time.Tuesday, Hour: 5, ModeID: 4},
	}}
	require.NoError(t, h.SetWeeklySchedule(context.TODO(), device, in))
	assert.Equal(t, uint16(4), fake.holding[RegScheduleBase+24+1])
	assert.Equal(t, uint16(6), fake.holding[RegScheduleBase+24+2])
	assert.Equal(t, uint16(4), fake.holding[RegScheduleBase+167])

	out, err := h.WeeklySchedule(context.TODO(), device)
	require.NoError(t, err)
	assert.Equal(t, []heater.Event{
		{Day: time.Tuesday, Hour: 2, ModeID: 6},
		{Day: time.Tuesday, Hour: 5, ModeID: 4},
	}, out.EventsFor(time.Tuesday)[1:])
	assert.Equal(t, []int{4, 4, 6, 6, 6, 4}, out.Hourly(time.Tuesday)[:6])
	assert.Len(t, out.EventsFor(time.Sunday), 1)

	mode, err := h.Current(time.Date(2024, 3, 12, 3, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 6, mode)
}

func TestLegionellaCountdown(t *testing.T) {
	fake := newFake()
	h := New(fake)

	fake.input[RegLegionellaHours] = 30
	hours, ok, err := h.LegionellaCountdown(context.TODO(), device)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 30.0, hours)

	fake.input[RegLegionellaHours] = -1
	_, ok, err = h.LegionellaCountdown(context.TODO(), device)
	require.NoError(t, err)
	assert.False(t, ok)

	fake.err = errors.New("timeout")
	_, _, err = h.LegionellaCountdown(context.TODO(), device)
	assert.Error(t, err)
}
