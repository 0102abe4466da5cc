package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/nergy-se/waterheater/pkg/api/v1/types"
	"github.com/nergy-se/waterheater/pkg/heater"
	"github.com/nergy-se/waterheater/pkg/modes"
	"github.com/nergy-se/waterheater/pkg/schedule"
)

const PriceSourceNergy = "nergy"

type CliConfig struct {
	Controller types.ControllerType `default:"myuplink"`

	Server    string `default:"https://nergy.se"`
	APIToken  string
	TokenFile string `default:"/etc/nergytoken"`

	// myUplink
	DeviceServer string `default:"https://api.myuplink.com"`
	DeviceToken  string
	DeviceID     string
	DeviceName   string

	// Modbus gateway
	Address string
	SlaveID int `default:"1"`

	PriceSources []string `default:"nergy"`

	MaxPowerHours                  int     `default:"3"`
	MediumPowerHours               int     `default:"3"`
	EnergyBasedCostSaving          bool    `default:"false"`
	RequireDedicatedLegionellaMode bool    `default:"false"`
	HighPowerTargetTemperature     float64 `default:"70"`
	MediumPowerTargetTemperature   float64 `default:"50"`
	LegionellaTargetTemperature    float64 `default:"75"`
	LegionellaHours                int     `default:"3"`
	LegionellaLeadHours            float64 `default:"48"`

	DailyRunHour   int    `default:"13"`
	MQTTAddress    string `default:":1883"`
	MetricsAddress string `default:":9090"`

	LogLevel string `default:"info"`

	mutex sync.RWMutex
}

func (c *CliConfig) Token() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.APIToken
}

func (c *CliConfig) SetToken(t string) {
	c.mutex.Lock()
	c.APIToken = strings.TrimSpace(t)
	c.mutex.Unlock()
}

func (c *CliConfig) LoadToken() error {
	if c.TokenFile == "" {
		return nil
	}
	if _, err := os.Stat(c.TokenFile); err == nil {
		b, err := os.ReadFile(c.TokenFile)
		if err != nil {
			return err
		}
		if len(b) == 0 {
			return nil // dont load empty token
		}

		c.SetToken(string(b))
	}
	return nil
}

func (c *CliConfig) DeviceAuth() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.DeviceToken
}

func (c *CliConfig) Validate() error {
	var errs []error
	if !c.Controller.Valid() {
		errs = append(errs, fmt.Errorf("unknown controller %q", c.Controller))
	}
	if c.MaxPowerHours < 0 || c.MediumPowerHours < 0 || c.LegionellaHours < 0 {
		errs = append(errs, fmt.Errorf("hour counts must not be negative"))
	}
	if c.MaxPowerHours+c.MediumPowerHours > 24 {
		errs = append(errs, fmt.Errorf("MaxPowerHours + MediumPowerHours must not exceed 24"))
	}
	if c.LegionellaHours > 24 {
		errs = append(errs, fmt.Errorf("LegionellaHours must not exceed 24"))
	}
	if c.DailyRunHour < 0 || c.DailyRunHour > 23 {
		errs = append(errs, fmt.Errorf("DailyRunHour must be between 0 and 23"))
	}
	if len(c.PriceSources) == 0 {
		errs = append(errs, fmt.Errorf("at least one price source is required"))
	}
	for _, s := range c.PriceSources {
		if err := validatePriceSource(s); err != nil {
			errs = append(errs, err)
		}
	}
	switch c.Controller {
	case types.ControllerTypeModbus:
		if c.Address == "" {
			errs = append(errs, fmt.Errorf("Address is required for controller %s", c.Controller))
		}
	case types.ControllerTypeMyUplink:
		if c.DeviceID == "" {
			errs = append(errs, fmt.Errorf("DeviceID is required for controller %s", c.Controller))
		}
	}
	return errors.Join(errs...)
}

func validatePriceSource(s string) error {
	if s == PriceSourceNergy {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("price source %q is neither %s nor an http(s) url", s, PriceSourceNergy)
	}
	return nil
}

func (c *CliConfig) Strategy() schedule.Strategy {
	if c.EnergyBasedCostSaving {
		return schedule.EnergyBased
	}
	return schedule.SimplePriceBased
}

func (c *CliConfig) ScheduleConfig() schedule.Config {
	return schedule.Config{
		MaxPowerHours:    c.MaxPowerHours,
		MediumPowerHours: c.MediumPowerHours,
		LegionellaHours:  c.LegionellaHours,
	}
}

func (c *CliConfig) ModesConfig() modes.Config {
	return modes.Config{
		EnergyBasedCostSaving:          c.EnergyBasedCostSaving,
		RequireDedicatedLegionellaMode: c.RequireDedicatedLegionellaMode,
		HighPowerTargetTemperature:     c.HighPowerTargetTemperature,
		MediumPowerTargetTemperature:   c.MediumPowerTargetTemperature,
		LegionellaTargetTemperature:    c.LegionellaTargetTemperature,
	}
}

func (c *CliConfig) Device() heater.Device {
	return heater.Device{ID: c.DeviceID, Name: c.DeviceName}
}
