// Package lockscreen reads the system lock screen and its notifications.
// The lock screen lives in the system frame, not in an app.
package lockscreen

import (
	"context"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/apps"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
)

var (
	lockScreen    = driver.ID("lockscreen")
	notifications = driver.CSS("#notifications-lockscreen-container > div.notification")
	detail        = driver.CSS("div.detail")
)

type LockScreen struct {
	apps.Base
}

func New(env *gaia.Env) *LockScreen {
	return &LockScreen{Base: apps.NewBase(env, "LockScreen")}
}

// Lock engages the lock screen and waits for it to show.
func (l *LockScreen) Lock(ctx context.Context) error {
	if err := l.Env.Device.Lock(); err != nil {
		return err
	}
	if err := l.SwitchToTop(); err != nil {
		return err
	}
	_, err := l.WaitForElementDisplayed(ctx, lockScreen)
	return err
}

// WaitForNotification waits up to timeout for a notification to appear.
func (l *LockScreen) WaitForNotification(ctx context.Context, timeout time.Duration) error {
	if err := l.SwitchToTop(); err != nil {
		return err
	}
	_, err := l.WaitForElementDisplayedWithin(ctx, notifications, timeout)
	return err
}

// Notifications returns the notifications on the lock screen, newest first.
func (l *LockScreen) Notifications() ([]*Notification, error) {
	if err := l.SwitchToTop(); err != nil {
		return nil, err
	}
	elements, err := l.FindAll(notifications)
	if err != nil {
		return nil, err
	}
	out := make([]*Notification, len(elements))
	for i, el := range elements {
		out[i] = &Notification{el: el}
	}
	return out, nil
}

// Notification is one lock screen notification.
type Notification struct {
	el driver.Element
}

func (n *Notification) IsVisible() (bool, error) {
	return n.el.Displayed()
}

// Content is the notification body, e.g. the text of an incoming message.
func (n *Notification) Content() (string, error) {
	el, err := n.el.FindElement(detail)
	if err != nil {
		return "", err
	}
	return el.Text()
}
