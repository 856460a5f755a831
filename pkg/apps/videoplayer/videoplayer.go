// Package videoplayer drives the Video app.
package videoplayer

import (
	"context"

	"github.com/devicelab-dev/gaiatest/pkg/apps"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
)

const (
	Name   = "Video"
	Origin = "app://video.gaiamobile.org"
)

var (
	progressBar = driver.ID("throbber")
	thumbnails  = driver.ClassName("thumbnail")
)

type VideoPlayer struct {
	apps.Base
}

func New(env *gaia.Env) *VideoPlayer {
	return &VideoPlayer{Base: apps.NewBase(env, Name)}
}

// WaitForProgressBarComplete waits until the media scan spinner is gone.
func (v *VideoPlayer) WaitForProgressBarComplete(ctx context.Context) error {
	return v.WaitForElementNotDisplayed(ctx, progressBar)
}

// TotalVideosFound counts the thumbnails in the gallery.
func (v *VideoPlayer) TotalVideosFound() (int, error) {
	found, err := v.FindAll(thumbnails)
	if err != nil {
		return 0, err
	}
	return len(found), nil
}
