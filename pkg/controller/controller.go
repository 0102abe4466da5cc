// Package controller selects the device integration from configuration.
package controller

import (
	"fmt"
	"net/http"

	"github.com/nergy-se/waterheater/pkg/api/v1/config"
	"github.com/nergy-se/waterheater/pkg/api/v1/types"
	"github.com/nergy-se/waterheater/pkg/controller/dummy"
	"github.com/nergy-se/waterheater/pkg/controller/modbusheater"
	"github.com/nergy-se/waterheater/pkg/controller/myuplink"
	"github.com/nergy-se/waterheater/pkg/heater"
	"github.com/nergy-se/waterheater/pkg/modbusclient"
)

// New returns the configured device and a function releasing its
// connection.
func New(c *config.CliConfig, httpClient *http.Client) (heater.API, func() error, error) {
	noop := func() error { return nil }
	switch c.Controller {
	case types.ControllerTypeMyUplink:
		return myuplink.New(c.DeviceServer, c.DeviceAuth, httpClient, myuplink.Options{}), noop, nil
	case types.ControllerTypeModbus:
		client, err := modbusclient.NewTCP(c.Address, byte(c.SlaveID))
		if err != nil {
			return nil, nil, err
		}
		return modbusheater.New(client), client.Close, nil
	case types.ControllerTypeDummy:
		return dummy.New(c.HighPowerTargetTemperature, c.MediumPowerTargetTemperature, c.LegionellaTargetTemperature), noop, nil
	}
	return nil, nil, fmt.Errorf("controller: unsupported controller type %q", c.Controller)
}
