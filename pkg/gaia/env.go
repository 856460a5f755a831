// Package gaia is the glue between page objects and the phone: it launches
// apps, reads and writes the device data layer and drives hardware controls,
// all through scripts the device injects into its system frame
// (window.wrappedJSObject.GaiaApps, GaiaDataLayer, GaiaDevice, GaiaLockScreen).
//
// Every scenario gets its own Env; page objects receive it explicitly.
package gaia

import (
	"context"
	"fmt"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/driver"
	"github.com/devicelab-dev/gaiatest/pkg/logger"
	"github.com/devicelab-dev/gaiatest/pkg/wait"
)

// Options configure an Env. Zero values pick defaults.
type Options struct {
	Vars TestVars

	// Poller is used by page objects for every wait. A zero Timeout selects
	// wait.Default().
	Poller wait.Poller

	// ScriptTimeout is the session's usual async script timeout; app launches
	// raise it temporarily and restore this value.
	ScriptTimeout time.Duration
	// LaunchTimeout bounds an app launch when the caller does not pick one.
	LaunchTimeout time.Duration

	// Pusher copies test resources to the device (nil: resources unsupported).
	Pusher ResourcePusher
	// ResourceDir is the host directory resources are read from.
	ResourceDir string
}

// Defaults for Options.
const (
	DefaultScriptTimeout = 30 * time.Second
	DefaultLaunchTimeout = 30 * time.Second
)

// Env is the per-scenario context: one session and the helpers built on it.
type Env struct {
	Session driver.Session
	Apps    *Apps
	Data    *DataLayer
	Device  *Device
	Vars    TestVars
	Poller  wait.Poller
}

// NewEnv builds the helpers around session.
func NewEnv(session driver.Session, opts Options) *Env {
	poller := opts.Poller
	if poller.Timeout == 0 {
		poller = wait.Default()
	}
	if opts.ScriptTimeout <= 0 {
		opts.ScriptTimeout = DefaultScriptTimeout
	}
	if opts.LaunchTimeout <= 0 {
		opts.LaunchTimeout = DefaultLaunchTimeout
	}
	vars := opts.Vars
	if vars == nil {
		vars = TestVars{}
	}

	return &Env{
		Session: session,
		Apps: &Apps{
			session:       session,
			scriptTimeout: opts.ScriptTimeout,
			launchTimeout: opts.LaunchTimeout,
		},
		Data: &DataLayer{session: session},
		Device: &Device{
			session:     session,
			pusher:      opts.Pusher,
			resourceDir: opts.ResourceDir,
		},
		Vars:   vars,
		Poller: poller,
	}
}

// Reset puts the device in a known state before a scenario: screen on and
// unlocked, no apps running, no contacts, top frame selected.
func (e *Env) Reset(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"turn screen on", e.Device.TurnScreenOn},
		{"unlock", e.Device.Unlock},
		{"kill apps", e.Apps.KillAll},
		{"remove contacts", e.Data.RemoveAllContacts},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step.fn(); err != nil {
			return fmt.Errorf("reset: %s: %w", step.name, err)
		}
	}
	logger.Debug("device reset")
	return e.Session.SwitchToFrame(nil)
}
