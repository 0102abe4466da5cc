package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/koding/multiconfig"
	"github.com/nergy-se/waterheater/pkg/api/v1/config"
	"github.com/nergy-se/waterheater/pkg/app"
	"github.com/nergy-se/waterheater/pkg/controller"
	"github.com/nergy-se/waterheater/pkg/heater"
	"github.com/nergy-se/waterheater/pkg/metrics"
	"github.com/nergy-se/waterheater/pkg/mqtt"
	"github.com/nergy-se/waterheater/pkg/price"
	"github.com/nergy-se/waterheater/pkg/reconcile"
	"github.com/nergy-se/waterheater/pkg/version"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var httpClient = &http.Client{
	Timeout: time.Second * 30,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGQUIT, syscall.SIGTERM)
	defer stop()
	err := Run(ctx)
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func Run(ctx context.Context) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading .env: %w", err)
	}

	config := &config.CliConfig{}
	err := multiconfig.New().Load(config)
	if err != nil {
		return err
	}
	lvl, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		return fmt.Errorf("error setting logrus loglevel: %w", err)
	}
	logrus.SetLevel(lvl)
	logrus.Infof("starting waterheater %s", version.Version)

	err = config.LoadToken()
	if err != nil {
		return err
	}
	err = config.Validate()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	device, closeDevice, err := controller.New(config, httpClient)
	if err != nil {
		return err
	}
	defer closeDevice()

	sources, err := app.PriceSources(config, httpClient)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	wg := &sync.WaitGroup{}
	var notifier heater.Notifier
	if config.MQTTAddress != "" {
		broker, err := mqtt.Start(ctx, wg, config.MQTTAddress)
		if err != nil {
			return fmt.Errorf("error starting mqtt broker: %w", err)
		}
		notifier = mqtt.NewNotifier(broker)
	}

	reconciler := reconcile.New(price.NewAggregator(sources...), device, notifier, reconcile.Config{
		Device:              config.Device(),
		Strategy:            config.Strategy(),
		Schedule:            config.ScheduleConfig(),
		Modes:               config.ModesConfig(),
		LegionellaLeadHours: config.LegionellaLeadHours,
	})
	a := app.New(reconciler, config.DailyRunHour)

	if config.MetricsAddress != "" {
		g.Go(func() error {
			return metrics.Serve(ctx, config.MetricsAddress, a.Health)
		})
	}
	g.Go(func() error {
		err := a.Start(ctx)
		if err != nil {
			return err
		}
		a.Wait()
		return nil
	})

	err = g.Wait()
	wg.Wait()
	return err
}
