// Package myuplink talks to water heaters through the myUplink cloud API.
package myuplink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nergy-se/waterheater/pkg/heater"
	"github.com/sirupsen/logrus"
)

const DefaultServer = "https://api.myuplink.com"

// Setting and parameter ids used by the water heater firmware.
const (
	DefaultPowerSettingID        = 1
	DefaultTemperatureSettingID  = 2
	DefaultLegionellaParameterID = "500"
)

type Options struct {
	PowerSettingID        int
	TemperatureSettingID  int
	LegionellaParameterID string
}

type Client struct {
	server     string
	token      func() string
	httpClient *http.Client
	options    Options

	// raw documents from the last read, per device id. Writes merge into
	// them so settings, events and ids we do not model survive.
	modes     map[string][]mode
	schedules map[string][]weeklySchedule
	mutex     sync.Mutex
}

// New returns a client. token is called for every request so a refreshed
// token file is picked up without restart.
func New(server string, token func() string, httpClient *http.Client, options Options) *Client {
	if server == "" {
		server = DefaultServer
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Second * 30}
	}
	if options.PowerSettingID == 0 {
		options.PowerSettingID = DefaultPowerSettingID
	}
	if options.TemperatureSettingID == 0 {
		options.TemperatureSettingID = DefaultTemperatureSettingID
	}
	if options.LegionellaParameterID == "" {
		options.LegionellaParameterID = DefaultLegionellaParameterID
	}
	return &Client{
		server:     strings.TrimSuffix(server, "/"),
		token:      token,
		httpClient: httpClient,
		options:    options,
		modes:      make(map[string][]mode),
		schedules:  make(map[string][]weeklySchedule),
	}
}

type modeSetting struct {
	SettingID int     `json:"settingId"`
	Value     float64 `json:"value"`
}

type mode struct {
	ModeID   int           `json:"modeId"`
	Name     string        `json:"name"`
	Settings []modeSetting `json:"settings"`
}

type event struct {
	Enabled   bool     `json:"enabled"`
	ModeID    int      `json:"modeId"`
	StartDay  string   `json:"startDay"`
	StartTime string   `json:"startTime"`
	StopDay   *string  `json:"stopDay,omitempty"`
	StopTime  *string  `json:"stopTime,omitempty"`
	Value     *float64 `json:"value,omitempty"`
}

type weeklySchedule struct {
	WeeklyScheduleID int     `json:"weeklyScheduleId"`
	WeekFormat       string  `json:"weekFormat"`
	Events           []event `json:"events"`
}

type point struct {
	ParameterID string  `json:"parameterId"`
	Value       float64 `json:"value"`
}

func (c *Client) Modes(ctx context.Context, device heater.Device) ([]heater.Mode, error) {
	response, err := c.fetchModes(ctx, device)
	if err != nil {
		return nil, err
	}

	modes := make([]heater.Mode, 0, len(response))
	for _, m := range response {
		hm := heater.Mode{ID: m.ModeID, Name: m.Name}
		for _, s := range m.Settings {
			kind, ok := c.settingKind(s.SettingID)
			if !ok {
				continue
			}
			hm.Settings = append(hm.Settings, heater.Setting{Kind: kind, Value: s.Value})
		}
		modes = append(modes, hm)
	}
	return modes, nil
}

// SetModes writes the power and temperature of modes into the modes last
// read from the device. Other settings and modes are sent back unchanged.
func (c *Client) SetModes(ctx context.Context, device heater.Device, modes []heater.Mode) error {
	body, err := c.cachedModes(ctx, device)
	if err != nil {
		return err
	}
	for _, m := range modes {
		i := indexOfMode(body, m.ID)
		if i < 0 {
			body = append(body, mode{ModeID: m.ID})
			i = len(body) - 1
		}
		body[i].Name = m.Name
		for _, s := range m.Settings {
			body[i].Settings = setSetting(body[i].Settings, c.settingID(s.Kind), s.Value)
		}
	}

	err = c.do(ctx, http.MethodPut, c.devicePath(device, "schedule-modes"), body, nil)
	if err != nil {
		return err
	}
	c.mutex.Lock()
	c.modes[device.ID] = body
	c.mutex.Unlock()
	return nil
}

func (c *Client) fetchModes(ctx context.Context, device heater.Device) ([]mode, error) {
	var response []mode
	err := c.do(ctx, http.MethodGet, c.devicePath(device, "schedule-modes"), nil, &response)
	if err != nil {
		return nil, err
	}
	c.mutex.Lock()
	c.modes[device.ID] = cloneModes(response)
	c.mutex.Unlock()
	return response, nil
}

// cachedModes returns a copy of the last read modes, reading them if needed.
func (c *Client) cachedModes(ctx context.Context, device heater.Device) ([]mode, error) {
	c.mutex.Lock()
	cached, ok := c.modes[device.ID]
	c.mutex.Unlock()
	if ok {
		return cloneModes(cached), nil
	}
	return c.fetchModes(ctx, device)
}

func indexOfMode(modes []mode, id int) int {
	for i, m := range modes {
		if m.ModeID == id {
			return i
		}
	}
	return -1
}

func setSetting(settings []modeSetting, id int, value float64) []modeSetting {
	for i := range settings {
		if settings[i].SettingID == id {
			settings[i].Value = value
			return settings
		}
	}
	return append(settings, modeSetting{SettingID: id, Value: value})
}

func cloneModes(modes []mode) []mode {
	out := make([]mode, len(modes))
	for i, m := range modes {
		out[i] = m
		out[i].Settings = append([]modeSetting(nil), m.Settings...)
	}
	return out
}

func (c *Client) WeeklySchedule(ctx context.Context, device heater.Device) (heater.WeeklySchedule, error) {
	response, err := c.fetchSchedules(ctx, device)
	if err != nil {
		return heater.WeeklySchedule{}, err
	}
	if len(response) == 0 {
		return heater.WeeklySchedule{}, nil
	}
	if len(response) > 1 {
		logrus.Warnf("myuplink: device %s has %d weekly schedules, using the first", device.ID, len(response))
	}

	ws := response[0]
	out := heater.WeeklySchedule{DayOrder: parseWeekFormat(ws.WeekFormat)}
	for _, e := range ws.Events {
		if !e.Enabled {
			continue
		}
		day, err := parseDay(e.StartDay)
		if err != nil {
			return heater.WeeklySchedule{}, err
		}
		hour, err := parseHour(e.StartTime)
		if err != nil {
			return heater.WeeklySchedule{}, err
		}
		out.Events = append(out.Events, heater.Event{Day: day, Hour: hour, ModeID: e.ModeID})
	}
	out.Sort()
	return out, nil
}

// SetWeeklySchedule replaces the enabled events of the first weekly
// schedule last read from the device. Its id, disabled events and any
// further schedules are sent back unchanged.
func (c *Client) SetWeeklySchedule(ctx context.Context, device heater.Device, schedule heater.WeeklySchedule) error {
	body, err := c.cachedSchedules(ctx, device)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		body = []weeklySchedule{{}}
	}

	schedule = schedule.Clone()
	schedule.Sort()
	ws := &body[0]
	if len(schedule.DayOrder) == 7 || ws.WeekFormat == "" {
		ws.WeekFormat = formatWeek(schedule.Order())
	}
	var events []event
	for _, e := range ws.Events {
		if !e.Enabled {
			events = append(events, e)
		}
	}
	for _, e := range schedule.Events {
		events = append(events, event{
			Enabled:   true,
			ModeID:    e.ModeID,
			StartDay:  e.Day.String(),
			StartTime: fmt.Sprintf("%02d:00:00", e.Hour),
		})
	}
	ws.Events = events

	err = c.do(ctx, http.MethodPut, c.devicePath(device, "weekly-schedules"), body, nil)
	if err != nil {
		return err
	}
	c.mutex.Lock()
	c.schedules[device.ID] = body
	c.mutex.Unlock()
	return nil
}

func (c *Client) fetchSchedules(ctx context.Context, device heater.Device) ([]weeklySchedule, error) {
	var response []weeklySchedule
	err := c.do(ctx, http.MethodGet, c.devicePath(device, "weekly-schedules"), nil, &response)
	if err != nil {
		return nil, err
	}
	c.mutex.Lock()
	c.schedules[device.ID] = cloneSchedules(response)
	c.mutex.Unlock()
	return response, nil
}

func (c *Client) cachedSchedules(ctx context.Context, device heater.Device) ([]weeklySchedule, error) {
	c.mutex.Lock()
	cached, ok := c.schedules[device.ID]
	c.mutex.Unlock()
	if ok {
		return cloneSchedules(cached), nil
	}
	return c.fetchSchedules(ctx, device)
}

func cloneSchedules(schedules []weeklySchedule) []weeklySchedule {
	out := make([]weeklySchedule, len(schedules))
	for i, ws := range schedules {
		out[i] = ws
		out[i].Events = append([]event(nil), ws.Events...)
	}
	return out
}

func (c *Client) LegionellaCountdown(ctx context.Context, device heater.Device) (float64, bool, error) {
	var response []point
	path := c.devicePath(device, "points") + "?parameters=" + c.options.LegionellaParameterID
	err := c.do(ctx, http.MethodGet, path, nil, &response)
	if err != nil {
		return 0, false, err
	}
	for _, p := range response {
		if p.ParameterID == c.options.LegionellaParameterID {
			return p.Value, true, nil
		}
	}
	return 0, false, nil
}

func (c *Client) devicePath(device heater.Device, resource string) string {
	return fmt.Sprintf("/v2/devices/%s/%s", device.ID, resource)
}

func (c *Client) settingKind(id int) (heater.SettingKind, bool) {
	switch id {
	case c.options.PowerSettingID:
		return heater.SettingTargetPower, true
	case c.options.TemperatureSettingID:
		return heater.SettingTargetTemperature, true
	}
	return 0, false
}

func (c *Client) settingID(kind heater.SettingKind) int {
	if kind == heater.SettingTargetPower {
		return c.options.PowerSettingID
	}
	return c.options.TemperatureSettingID
}

func (c *Client) do(ctx context.Context, method, path string, body, response interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.server+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Add("Authorization", "Bearer "+c.token())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("myuplink: %s %s failed with StatusCode: %d", method, path, resp.StatusCode)
	}
	if response == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return fmt.Errorf("myuplink: failed to decode %s response: %w", path, err)
	}
	return nil
}

var shortDays = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

func parseWeekFormat(format string) []time.Weekday {
	var order []time.Weekday
	for _, s := range strings.Split(format, ",") {
		if day, ok := shortDays[strings.ToLower(strings.TrimSpace(s))]; ok {
			order = append(order, day)
		}
	}
	if len(order) != 7 {
		return nil
	}
	return order
}

func formatWeek(order []time.Weekday) string {
	days := make([]string, len(order))
	for i, d := range order {
		days[i] = strings.ToLower(d.String()[:3])
	}
	return strings.Join(days, ",")
}

func parseDay(s string) (time.Weekday, error) {
	if day, ok := shortDays[strings.ToLower(s[:min(3, len(s))])]; ok {
		return day, nil
	}
	return 0, fmt.Errorf("myuplink: unknown weekday %q", s)
}

func parseHour(s string) (int, error) {
	hh, _, _ := strings.Cut(s, ":")
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("myuplink: invalid start time %q", s)
	}
	return hour, nil
}
