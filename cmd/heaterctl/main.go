package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/koding/multiconfig"
	"github.com/nergy-se/waterheater/pkg/api/v1/config"
	"github.com/nergy-se/waterheater/pkg/controller/modbusheater"
	"github.com/nergy-se/waterheater/pkg/controller/myuplink"
	"github.com/nergy-se/waterheater/pkg/heater"
	"github.com/nergy-se/waterheater/pkg/modbusclient"
	"github.com/nergy-se/waterheater/pkg/modes"
)

var readCount = flag.Uint("read-count", 1, "how many addreses to read")

func main() {
	controller := flag.String("controller", "modbus", "modbus or myuplink")
	address := flag.String("addr", "", "tcp modbus address")
	slaveID := flag.Int("slave", 1, "modbus slave id")
	server := flag.String("server", myuplink.DefaultServer, "myuplink api server")
	token := flag.String("token", os.Getenv("DEVICETOKEN"), "myuplink bearer token")
	deviceID := flag.String("device", "", "myuplink device id")

	holdingreg := flag.Int("holdingreg", 0, "read or write a raw holding register (modbus only)")
	value := flag.Int("value", 0, "value to write. will write any value")

	defaults := &config.CliConfig{}
	if err := (&multiconfig.TagLoader{}).Load(defaults); err != nil {
		log.Fatal(err)
	}
	flag.Float64Var(&defaults.HighPowerTargetTemperature, "high-temp", defaults.HighPowerTargetTemperature, "expected target temperature of the high modes")
	flag.Float64Var(&defaults.MediumPowerTargetTemperature, "medium-temp", defaults.MediumPowerTargetTemperature, "expected target temperature of the medium and off modes")
	flag.Float64Var(&defaults.LegionellaTargetTemperature, "legionella-temp", defaults.LegionellaTargetTemperature, "expected target temperature of the legionella mode")
	flag.BoolVar(&defaults.RequireDedicatedLegionellaMode, "dedicated-legionella", defaults.RequireDedicatedLegionellaMode, "require a dedicated legionella mode")
	flag.BoolVar(&defaults.EnergyBasedCostSaving, "energy-based", defaults.EnergyBasedCostSaving, "expect the energy based mode layout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var api heater.API
	switch *controller {
	case "modbus":
		client, err := modbusclient.NewTCP(*address, byte(*slaveID))
		if err != nil {
			log.Fatal(err)
		}
		defer client.Close()
		if isFlagPassed("holdingreg") {
			raw(client, uint16(*holdingreg), *value)
			return
		}
		api = modbusheater.New(client)
	case "myuplink":
		api = myuplink.New(*server, func() string { return *token }, nil, myuplink.Options{})
	default:
		log.Fatalf("unknown controller %s", *controller)
	}

	err := dump(ctx, os.Stdout, api, heater.Device{ID: *deviceID}, defaults.ModesConfig(), time.Now())
	if err != nil {
		log.Println("error was: ", err)
	}
}

func raw(client modbusclient.Client, address uint16, value int) {
	if isFlagPassed("value") {
		err := client.WriteSingleRegister(address, uint16(value))
		if err != nil {
			log.Println("error was: ", err)
		}
		return
	}
	words, err := client.ReadHoldingRegisters(address, uint16(*readCount))
	if err != nil {
		log.Println("error was: ", err)
		return
	}
	fmt.Printf("raw response: %# x (length: %d)\n", modbusclient.Bytes(words), len(words))
	log.Println("value is: ", words)
}

// currentReader is implemented by controllers that can tell which mode
// runs right now.
type currentReader interface {
	Current(t time.Time) (int, error)
}

var _ currentReader = &modbusheater.Heater{}

func dump(ctx context.Context, w io.Writer, api heater.API, device heater.Device, cfg modes.Config, now time.Time) error {
	deviceModes, err := api.Modes(ctx, device)
	if err != nil {
		return err
	}
	for _, m := range deviceModes {
		power, _ := m.Setting(heater.SettingTargetPower)
		temp, _ := m.Setting(heater.SettingTargetTemperature)
		fmt.Fprintf(w, "mode %d %-20s %5.0f W %5.1f °C\n", m.ID, m.Name, power, temp)
	}

	lookup, allCorrect, err := modes.Build(heater.CloneModes(deviceModes), cfg)
	if err != nil {
		fmt.Fprintln(w, "modes do not match the expected layout:", err)
	} else if !allCorrect {
		fmt.Fprintln(w, "some modes differ from the default settings")
	}

	schedule, err := api.WeeklySchedule(ctx, device)
	if err != nil {
		return err
	}
	for _, day := range schedule.Order() {
		ids := schedule.Hourly(day)
		line := make([]string, len(ids))
		for i, id := range ids {
			line[i] = fmt.Sprint(id)
			if lookup == nil {
				continue
			}
			if level, err := lookup.Level(id); err == nil {
				line[i] = level.Short()
			}
		}
		fmt.Fprintf(w, "%-9s %s\n", day, strings.Join(line, ""))
	}

	if cr, ok := api.(currentReader); ok {
		id, err := cr.Current(now)
		if err != nil {
			return err
		}
		name := "unknown"
		if lookup != nil {
			if level, err := lookup.Level(id); err == nil {
				name = level.String()
			}
		}
		fmt.Fprintf(w, "current mode is %d (%s)\n", id, name)
	}

	hours, ok, err := api.LegionellaCountdown(ctx, device)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(w, "legionella program required in %.0f hours\n", hours)
	} else {
		fmt.Fprintln(w, "device does not report legionella countdown")
	}
	return nil
}

func isFlagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
