package scenario

import (
	"context"
	"fmt"

	"github.com/devicelab-dev/gaiatest/pkg/gaia"
	"github.com/devicelab-dev/gaiatest/pkg/logger"
)

// connectToNetwork joins the Wi-Fi network from the test variables.
func connectToNetwork(ctx context.Context, env *gaia.Env) error {
	network, err := env.Vars.Wifi()
	if err != nil {
		return err
	}
	if err := env.Data.EnableWifi(); err != nil {
		return err
	}
	if err := env.Data.ConnectToWifi(network); err != nil {
		return err
	}
	msg := fmt.Sprintf("Wi-Fi network %s did not connect", network.SSID)
	if err := env.Poller.Until(ctx, msg, func(ctx context.Context) (bool, error) {
		return env.Data.IsWifiConnected(network)
	}); err != nil {
		return err
	}
	logger.Info("connected to %s", network.SSID)
	return nil
}

func waitForWifiEnabled(ctx context.Context, env *gaia.Env) error {
	return env.Poller.Until(ctx, "Wi-Fi was not enabled", func(ctx context.Context) (bool, error) {
		return env.Data.IsWifiEnabled()
	})
}
