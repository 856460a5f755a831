package gaia

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/devicelab-dev/gaiatest/pkg/core"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
)

const (
	turnScreenOffScript   = `window.wrappedJSObject.GaiaDevice.turnScreenOff();`
	turnScreenOnScript    = `window.wrappedJSObject.GaiaDevice.turnScreenOn();`
	isScreenEnabledScript = `return window.wrappedJSObject.GaiaDevice.isScreenEnabled();`
	touchHomeButtonScript = `window.wrappedJSObject.GaiaDevice.touchHomeButton();`

	lockScript = `var done = arguments[arguments.length - 1];
window.wrappedJSObject.GaiaLockScreen.lock(done);`

	unlockScript = `var done = arguments[arguments.length - 1];
window.wrappedJSObject.GaiaLockScreen.unlock(done);`
)

// ResourcePusher copies a host file to the device count times under
// destination (relative to the SD card). *device.Device implements it.
type ResourcePusher interface {
	PushResource(ctx context.Context, local, destination string, count int) ([]string, error)
}

// Device drives hardware-level controls: screen, home button, lock screen
// and storage.
type Device struct {
	session     driver.Session
	pusher      ResourcePusher
	resourceDir string
}

// TurnScreenOff turns the display off.
func (d *Device) TurnScreenOff() error {
	return d.run("turnScreenOff", turnScreenOffScript)
}

// TurnScreenOn turns the display on.
func (d *Device) TurnScreenOn() error {
	return d.run("turnScreenOn", turnScreenOnScript)
}

// IsScreenEnabled reports whether the display is on.
func (d *Device) IsScreenEnabled() (bool, error) {
	if err := d.session.SwitchToFrame(nil); err != nil {
		return false, err
	}
	result, err := d.session.ExecuteScript(isScreenEnabledScript)
	if err != nil {
		return false, fmt.Errorf("isScreenEnabled: %w", err)
	}
	on, ok := result.(bool)
	if !ok {
		return false, unexpected("isScreenEnabled", result)
	}
	return on, nil
}

// TouchHomeButton presses the hardware home button.
func (d *Device) TouchHomeButton() error {
	return d.run("touchHomeButton", touchHomeButtonScript)
}

// Lock engages the lock screen.
func (d *Device) Lock() error {
	return d.runAsync("lock", lockScript)
}

// Unlock dismisses the lock screen.
func (d *Device) Unlock() error {
	return d.runAsync("unlock", unlockScript)
}

// PushResource copies the resource file name to destination count times.
func (d *Device) PushResource(ctx context.Context, name, destination string, count int) ([]string, error) {
	if d.pusher == nil {
		return nil, core.ErrInvalidConfig.
			WithMessage("No device attached for pushing resources").
			WithDetails(map[string]interface{}{"resource": name})
	}
	local := name
	if d.resourceDir != "" {
		local = filepath.Join(d.resourceDir, name)
	}
	return d.pusher.PushResource(ctx, local, destination, count)
}

func (d *Device) run(op, script string) error {
	if err := d.session.SwitchToFrame(nil); err != nil {
		return err
	}
	if _, err := d.session.ExecuteScript(script); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (d *Device) runAsync(op, script string) error {
	if err := d.session.SwitchToFrame(nil); err != nil {
		return err
	}
	if _, err := d.session.ExecuteAsyncScript(script); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
