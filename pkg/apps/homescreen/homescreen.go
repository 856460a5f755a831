// Package homescreen identifies the home screen.
package homescreen

import (
	"github.com/devicelab-dev/gaiatest/pkg/apps"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
)

// Name is the launcher name of the home screen.
const Name = "Homescreen"

type Homescreen struct {
	apps.Base
}

func New(env *gaia.Env) *Homescreen {
	return &Homescreen{Base: apps.NewBase(env, Name)}
}

// IsDisplayed reports whether the home screen is the foreground app. The
// session is left in the system frame.
func (h *Homescreen) IsDisplayed() (bool, error) {
	app, err := h.Env.Apps.DisplayedApp()
	if err != nil {
		return false, err
	}
	return app.Name == Name, nil
}
