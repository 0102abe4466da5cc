package myuplink

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nergy-se/waterheater/pkg/heater"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var device = heater.Device{ID: "emmy-r-123", Name: "emmy"}

type request struct {
	method string
	path   string
	auth   string
	body   string
}

func testServer(t *testing.T, responses map[string]string) (*httptest.Server, *[]request) {
	t.Helper()
	var requests []request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		requests = append(requests, request{r.Method, r.URL.RequestURI(), r.Header.Get("Authorization"), string(b)})
		resp, ok := responses[r.Method+" "+r.URL.RequestURI()]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(resp))
	}))
	t.Cleanup(ts.Close)
	return ts, &requests
}

func token() string { return "secret" }

func TestModes(t *testing.T) {
	ts, requests := testServer(t, map[string]string{
		"GET /v2/devices/emmy-r-123/schedule-modes": `[
			{"modeId":6,"name":"M6 High","settings":[{"settingId":1,"value":2000},{"settingId":2,"value":70},{"settingId":9,"value":1}]},
			{"modeId":4,"name":"M4 Off","settings":[{"settingId":1,"value":0},{"settingId":2,"value":50}]}
		]`,
	})
	c := New(ts.URL, token, nil, Options{})

	modes, err := c.Modes(context.TODO(), device)
	require.NoError(t, err)
	assert.Equal(t, []heater.Mode{
		{ID: 6, Name: "M6 High", Settings: []heater.Setting{
			{Kind: heater.SettingTargetPower, Value: 2000},
			{Kind: heater.SettingTargetTemperature, Value: 70},
		}},
		{ID: 4, Name: "M4 Off", Settings: []heater.Setting{
			{Kind: heater.SettingTargetPower, Value: 0},
			{Kind: heater.SettingTargetTemperature, Value: 50},
		}},
	}, modes)
	assert.Equal(t, "Bearer secret", (*requests)[0].auth)
}

func TestSetModes(t *testing.T) {
	ts, requests := testServer(t, map[string]string{
		"GET /v2/devices/emmy-r-123/schedule-modes": `[]`,
		"PUT /v2/devices/emmy-r-123/schedule-modes": ``,
	})
	c := New(ts.URL, token, nil, Options{PowerSettingID: 10, TemperatureSettingID: 11})

	err := c.SetModes(context.TODO(), device, []heater.Mode{
		{ID: 5, Name: "M5 Medium", Settings: []heater.Setting{
			{Kind: heater.SettingTargetPower, Value: 700},
			{Kind: heater.SettingTargetTemperature, Value: 50},
		}},
	})
	require.NoError(t, err)
	require.Len(t, *requests, 2)
	assert.Equal(t, http.MethodGet, (*requests)[0].method)
	assert.JSONEq(t, `[{"modeId":5,"name":"M5 Medium","settings":[{"settingId":10,"value":700},{"settingId":11,"value":50}]}]`, (*requests)[1].body)
}

func TestModesRoundTrip(t *testing.T) {
	ts, requests := testServer(t, map[string]string{
		"GET /v2/devices/emmy-r-123/schedule-modes": `[
			{"modeId":6,"name":"M6 High","settings":[{"settingId":1,"value":2000},{"settingId":2,"value":70},{"settingId":9,"value":1}]},
			{"modeId":7,"name":"Vacation","settings":[{"settingId":9,"value":3}]}
		]`,
		"PUT /v2/devices/emmy-r-123/schedule-modes": ``,
	})
	c := New(ts.URL, token, nil, Options{})

	modes, err := c.Modes(context.TODO(), device)
	require.NoError(t, err)
	modes[0].Settings[1].Value = 75

	require.NoError(t, c.SetModes(context.TODO(), device, modes[:1]))
	require.Len(t, *requests, 2)
	assert.Equal(t, http.MethodPut, (*requests)[1].method)
	assert.JSONEq(t, `[
		{"modeId":6,"name":"M6 High","settings":[{"settingId":1,"value":2000},{"settingId":2,"value":75},{"settingId":9,"value":1}]},
		{"modeId":7,"name":"Vacation","settings":[{"settingId":9,"value":3}]}
	]`, (*requests)[1].body)

	// a second write merges into what was last written
	modes[0].Settings[0].Value = 700
	require.NoError(t, c.SetModes(context.TODO(), device, modes[:1]))
	require.Len(t, *requests, 3)
	assert.JSONEq(t, `[
		{"modeId":6,"name":"M6 High","settings":[{"settingId":1,"value":700},{"settingId":2,"value":75},{"settingId":9,"value":1}]},
		{"modeId":7,"name":"Vacation","settings":[{"settingId":9,"value":3}]}
	]`, (*requests)[2].body)
}

func TestWeeklySchedule(t *testing.T) {
	ts, _ := testServer(t, map[string]string{
		"GET /v2/devices/emmy-r-123/weekly-schedules": `[{"weeklyScheduleId":0,"weekFormat":"mon,tue,wed,thu,fri,sat,sun","events":[
			{"enabled":true,"modeId":6,"startDay":"Tuesday","startTime":"02:00:00"},
			{"enabled":true,"modeId":4,"startDay":"Tuesday","startTime":"00:00:00"},
			{"enabled":false,"modeId":5,"startDay":"Tuesday","startTime":"10:00:00"},
			{"enabled":true,"modeId":4,"startDay":"Monday","startTime":"05:00:00"}
		]}]`,
	})
	c := New(ts.URL, token, nil, Options{})

	ws, err := c.WeeklySchedule(context.TODO(), device)
	require.NoError(t, err)
	assert.Equal(t, heater.DefaultDayOrder, ws.Order())
	assert.Equal(t, []heater.Event{
		{Day: time.Monday, Hour: 5, ModeID: 4},
		{Day: time.Tuesday, Hour: 0, ModeID: 4},
		{Day: time.Tuesday, Hour: 2, ModeID: 6},
	}, ws.Events)
}

func TestWeeklyScheduleErrors(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "bad day", response: `[{"events":[{"enabled":true,"modeId":6,"startDay":"Someday","startTime":"02:00:00"}]}]`},
		{name: "bad time", response: `[{"events":[{"enabled":true,"modeId":6,"startDay":"Monday","startTime":"25:00:00"}]}]`},
		{name: "bad json", response: `{`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := testServer(t, map[string]string{
				"GET /v2/devices/emmy-r-123/weekly-schedules": tt.response,
			})
			c := New(ts.URL, token, nil, Options{})
			_, err := c.WeeklySchedule(context.TODO(), device)
			assert.Error(t, err)
		})
	}
}

func TestSetWeeklySchedule(t *testing.T) {
	ts, requests := testServer(t, map[string]string{
		"GET /v2/devices/emmy-r-123/weekly-schedules": `[]`,
		"PUT /v2/devices/emmy-r-123/weekly-schedules": ``,
	})
	c := New(ts.URL, token, nil, Options{})

	err := c.SetWeeklySchedule(context.TODO(), device, heater.WeeklySchedule{
		DayOrder: []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday},
		Events: []heater.Event{
			{Day: time.Tuesday, Hour: 2, ModeID: 6},
			{Day: time.Tuesday, Hour: 0, ModeID: 4},
		},
	})
	require.NoError(t, err)

	require.Len(t, *requests, 2)
	var body []weeklySchedule
	require.NoError(t, json.Unmarshal([]byte((*requests)[1].body), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "sun,mon,tue,wed,thu,fri,sat", body[0].WeekFormat)
	assert.Equal(t, []event{
		{Enabled: true, ModeID: 4, StartDay: "Tuesday", StartTime: "00:00:00"},
		{Enabled: true, ModeID: 6, StartDay: "Tuesday", StartTime: "02:00:00"},
	}, body[0].Events)
}

func TestWeeklyScheduleRoundTrip(t *testing.T) {
	ts, requests := testServer(t, map[string]string{
		"GET /v2/devices/emmy-r-123/weekly-schedules": `[
			{"weeklyScheduleId":77,"weekFormat":"mon,tue,wed,thu,fri,sat,sun","events":[
				{"enabled":true,"modeId":4,"startDay":"Monday","startTime":"00:00:00"},
				{"enabled":false,"modeId":5,"startDay":"Tuesday","startTime":"10:00:00","stopDay":"Tuesday","stopTime":"12:00:00","value":3}
			]},
			{"weeklyScheduleId":78,"weekFormat":"mon,tue,wed,thu,fri,sat,sun","events":[
				{"enabled":true,"modeId":1,"startDay":"Friday","startTime":"06:00:00"}
			]}
		]`,
		"PUT /v2/devices/emmy-r-123/weekly-schedules": ``,
	})
	c := New(ts.URL, token, nil, Options{})

	ws, err := c.WeeklySchedule(context.TODO(), device)
	require.NoError(t, err)
	ws.Replace(time.Monday, []heater.Event{{Day: time.Monday, Hour: 3, ModeID: 6}})

	require.NoError(t, c.SetWeeklySchedule(context.TODO(), device, ws))
	require.Len(t, *requests, 2)
	assert.Equal(t, http.MethodPut, (*requests)[1].method)
	assert.JSONEq(t, `[
		{"weeklyScheduleId":77,"weekFormat":"mon,tue,wed,thu,fri,sat,sun","events":[
			{"enabled":false,"modeId":5,"startDay":"Tuesday","startTime":"10:00:00","stopDay":"Tuesday","stopTime":"12:00:00","value":3},
			{"enabled":true,"modeId":6,"startDay":"Monday","startTime":"03:00:00"}
		]},
		{"weeklyScheduleId":78,"weekFormat":"mon,tue,wed,thu,fri,sat,sun","events":[
			{"enabled":true,"modeId":1,"startDay":"Friday","startTime":"06:00:00"}
		]}
	]`, (*requests)[1].body)
}

func TestLegionellaCountdown(t *testing.T) {
	tests := []struct {
		name     string
		response string
		hours    float64
		ok       bool
	}{
		{name: "reported", response: `[{"parameterId":"500","value":36}]`, hours: 36, ok: true},
		{name: "other parameter", response: `[{"parameterId":"501","value":36}]`},
		{name: "empty", response: `[]`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := testServer(t, map[string]string{
				"GET /v2/devices/emmy-r-123/points?parameters=500": tt.response,
			})
			c := New(ts.URL, token, nil, Options{})
			hours, ok, err := c.LegionellaCountdown(context.TODO(), device)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.hours, hours)
		})
	}
}

func TestStatusCode(t *testing.T) {
	ts, _ := testServer(t, map[string]string{})
	c := New(ts.URL, token, nil, Options{})
	_, err := c.Modes(context.TODO(), device)
	assert.EqualError(t, err, "myuplink: GET /v2/devices/emmy-r-123/schedule-modes failed with StatusCode: 404")
}
