package gaia

import (
	"context"
	"fmt"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/core"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
	"github.com/devicelab-dev/gaiatest/pkg/logger"
)

const (
	launchScript = `var done = arguments[arguments.length - 1];
window.wrappedJSObject.GaiaApps.launchWithName(arguments[0], done);`

	displayedAppScript = `return window.wrappedJSObject.GaiaApps.getDisplayedApp();`

	killScript = `var done = arguments[arguments.length - 1];
window.wrappedJSObject.GaiaApps.kill(arguments[0], done);`

	killAllScript = `return window.wrappedJSObject.GaiaApps.killAll();`
)

// App is a running application window.
type App struct {
	Name   string
	Origin string
	Src    string
	// Frame is the app's iframe in the system frame.
	Frame driver.Element
}

// Apps launches and tracks applications.
type Apps struct {
	session       driver.Session
	scriptTimeout time.Duration
	launchTimeout time.Duration
}

// Launch starts (or foregrounds) the app called name and switches the
// session into its frame.
func (a *Apps) Launch(ctx context.Context, name string) (*App, error) {
	return a.LaunchWithin(ctx, name, 0)
}

// LaunchWithin is Launch with an explicit launch timeout; zero uses the default.
func (a *Apps) LaunchWithin(ctx context.Context, name string, timeout time.Duration) (*App, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = a.launchTimeout
	}
	if err := a.session.SwitchToFrame(nil); err != nil {
		return nil, fmt.Errorf("launch %s: %w", name, err)
	}

	start := time.Now()
	var result interface{}
	err := driver.WithScriptTimeout(a.session, timeout, a.scriptTimeout, func() error {
		var err error
		result, err = a.session.ExecuteAsyncScript(launchScript, name)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("launch %s: %w", name, err)
	}

	app, ok := appFromResult(result)
	if !ok {
		return nil, core.ErrAppNotInstalled.
			WithMessage(fmt.Sprintf("Failed to launch app with name '%s'", name)).
			WithDetails(map[string]interface{}{"app": name})
	}
	if app.Frame == nil {
		frame, err := a.findFrame(app)
		if err != nil {
			return nil, err
		}
		app.Frame = frame
	}
	if err := a.session.SwitchToFrame(app.Frame); err != nil {
		return nil, fmt.Errorf("switch to %s: %w", name, err)
	}
	logger.Info("Launched %s (%s) in %v", app.Name, app.Origin, time.Since(start).Round(time.Millisecond))
	return app, nil
}

// findFrame locates an app iframe by origin for servers that do not return
// element references from scripts.
func (a *Apps) findFrame(app *App) (driver.Element, error) {
	el, err := a.session.FindElement(driver.CSS(fmt.Sprintf(`iframe[src*="%s"]`, app.Origin)))
	if err != nil {
		return nil, core.ErrAppNotLaunched.
			WithMessage(fmt.Sprintf("No frame found for app '%s'", app.Name)).
			WithCause(err)
	}
	return el, nil
}

// DisplayedApp returns the foreground app. The session is left in the top frame.
func (a *Apps) DisplayedApp() (*App, error) {
	if err := a.session.SwitchToFrame(nil); err != nil {
		return nil, err
	}
	result, err := a.session.ExecuteScript(displayedAppScript)
	if err != nil {
		return nil, fmt.Errorf("displayed app: %w", err)
	}
	app, ok := appFromResult(result)
	if !ok {
		return nil, core.ErrAppNotLaunched.WithMessage("No app is displayed")
	}
	if app.Frame == nil {
		frame, err := a.findFrame(app)
		if err != nil {
			return nil, err
		}
		app.Frame = frame
	}
	return app, nil
}

// SwitchToDisplayedApp enters the frame of the foreground app.
func (a *Apps) SwitchToDisplayedApp() (*App, error) {
	app, err := a.DisplayedApp()
	if err != nil {
		return nil, err
	}
	return app, a.SwitchTo(app)
}

// SwitchTo enters app's frame from the top level.
func (a *Apps) SwitchTo(app *App) error {
	if err := a.session.SwitchToFrame(nil); err != nil {
		return err
	}
	return a.session.SwitchToFrame(app.Frame)
}

// Kill closes app.
func (a *Apps) Kill(app *App) error {
	if err := a.session.SwitchToFrame(nil); err != nil {
		return err
	}
	if _, err := a.session.ExecuteAsyncScript(killScript, app.Origin); err != nil {
		return fmt.Errorf("kill %s: %w", app.Name, err)
	}
	return nil
}

// KillAll closes every app except the homescreen.
func (a *Apps) KillAll() error {
	if err := a.session.SwitchToFrame(nil); err != nil {
		return err
	}
	if _, err := a.session.ExecuteScript(killAllScript); err != nil {
		return fmt.Errorf("kill all: %w", err)
	}
	return nil
}

// appFromResult reads the launcher's app description; ok is false when the
// launcher returned false or null.
func appFromResult(v interface{}) (*App, bool) {
	info, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	app := &App{
		Name:   toString(info["name"]),
		Origin: toString(info["origin"]),
		Src:    toString(info["src"]),
	}
	if frame, ok := info["frame"].(driver.Element); ok {
		app.Frame = frame
	}
	return app, app.Origin != "" || app.Frame != nil
}
