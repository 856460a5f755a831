// Package apps holds the page objects for the phone's built-in applications.
// Base carries what every page object does: launch its app, wait for an
// element and act on it. App packages embed it.
package apps

import (
	"context"
	"fmt"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/core"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
	"github.com/devicelab-dev/gaiatest/pkg/wait"
)

// Locators of the system value selector that wraps <select> elements.
var (
	valueSelectorOptions = driver.CSS("#value-selector-container li")
	valueSelectorConfirm = driver.CSS("button.value-option-confirm")
)

// Base is embedded by every page object.
type Base struct {
	Env *gaia.Env

	// Name is the app's launcher name, e.g. "Contacts".
	Name string
	// LaunchTimeout overrides the default app launch timeout.
	LaunchTimeout time.Duration

	// App is set by Launch, or by page objects created inside a running app.
	App *gaia.App
}

// NewBase returns a Base for the app called name.
func NewBase(env *gaia.Env, name string) Base {
	return Base{Env: env, Name: name}
}

// Launch starts the app and leaves the session in its frame.
func (b *Base) Launch(ctx context.Context) error {
	app, err := b.Env.Apps.LaunchWithin(ctx, b.Name, b.LaunchTimeout)
	if err != nil {
		return err
	}
	b.App = app
	return nil
}

// Session returns the scenario's session.
func (b *Base) Session() driver.Session {
	return b.Env.Session
}

// Find returns the first element matching by in the current frame.
func (b *Base) Find(by driver.By) (driver.Element, error) {
	return b.Env.Session.FindElement(by)
}

// FindAll returns every element matching by in the current frame.
func (b *Base) FindAll(by driver.By) ([]driver.Element, error) {
	return b.Env.Session.FindElements(by)
}

// Tap waits for by to be displayed and taps it.
func (b *Base) Tap(ctx context.Context, by driver.By) error {
	el, err := b.WaitForElementDisplayed(ctx, by)
	if err != nil {
		return err
	}
	if err := el.Tap(); err != nil {
		return fmt.Errorf("tap %s: %w", by, err)
	}
	return nil
}

// TypeInto waits for by to be displayed and types text into it.
func (b *Base) TypeInto(ctx context.Context, by driver.By, text string) error {
	el, err := b.WaitForElementDisplayed(ctx, by)
	if err != nil {
		return err
	}
	if err := el.SendKeys(text); err != nil {
		return fmt.Errorf("type into %s: %w", by, err)
	}
	return nil
}

// TextOf returns the visible text of by.
func (b *Base) TextOf(by driver.By) (string, error) {
	el, err := b.Find(by)
	if err != nil {
		return "", err
	}
	return el.Text()
}

// AttributeOf returns attribute name of by.
func (b *Base) AttributeOf(by driver.By, name string) (string, error) {
	el, err := b.Find(by)
	if err != nil {
		return "", err
	}
	return el.Attribute(name)
}

// WaitForElementDisplayed waits until by exists and is displayed, and
// returns it.
func (b *Base) WaitForElementDisplayed(ctx context.Context, by driver.By) (driver.Element, error) {
	return b.waitForElementDisplayed(ctx, b.Env.Poller, by)
}

// WaitForElementDisplayedWithin is WaitForElementDisplayed with its own timeout.
func (b *Base) WaitForElementDisplayedWithin(ctx context.Context, by driver.By, timeout time.Duration) (driver.Element, error) {
	return b.waitForElementDisplayed(ctx, b.Env.Poller.WithTimeout(timeout), by)
}

func (b *Base) waitForElementDisplayed(ctx context.Context, poller wait.Poller, by driver.By) (driver.Element, error) {
	var found driver.Element
	err := poller.Until(ctx, fmt.Sprintf("Element %s not visible before timeout", by), func(ctx context.Context) (bool, error) {
		el, err := b.Find(by)
		if err != nil {
			return false, err
		}
		displayed, err := el.Displayed()
		if err != nil || !displayed {
			return false, err
		}
		found = el
		return true, nil
	})
	return found, err
}

// WaitForElementPresent waits until by exists, displayed or not.
func (b *Base) WaitForElementPresent(ctx context.Context, by driver.By) (driver.Element, error) {
	var found driver.Element
	err := b.Env.Poller.Until(ctx, fmt.Sprintf("Element %s not present before timeout", by), func(ctx context.Context) (bool, error) {
		el, err := b.Find(by)
		if err != nil {
			return false, err
		}
		found = el
		return true, nil
	})
	return found, err
}

// WaitForElementNotDisplayed waits until by is hidden or gone.
func (b *Base) WaitForElementNotDisplayed(ctx context.Context, by driver.By) error {
	return b.Env.Poller.Until(ctx, fmt.Sprintf("Element %s still visible after timeout", by), func(ctx context.Context) (bool, error) {
		el, err := b.Find(by)
		if core.IsLookupFailure(err) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		displayed, err := el.Displayed()
		if core.IsLookupFailure(err) {
			return true, nil
		}
		return !displayed, err
	})
}

// WaitForCondition polls cond with the scenario's poller.
func (b *Base) WaitForCondition(ctx context.Context, msg string, cond wait.Condition) error {
	return b.Env.Poller.Until(ctx, msg, cond)
}

// SwitchToApp returns the session to this page object's app frame.
func (b *Base) SwitchToApp() error {
	if b.App == nil {
		return core.ErrAppNotLaunched.WithMessage(fmt.Sprintf("%s is not launched", b.Name))
	}
	return b.Env.Apps.SwitchTo(b.App)
}

// SwitchToTop moves the session to the system frame.
func (b *Base) SwitchToTop() error {
	return b.Env.Session.SwitchToFrame(nil)
}

// SelectValue picks the option labelled text in the system value selector
// that opens over <select> elements, then returns to the app frame.
func (b *Base) SelectValue(ctx context.Context, text string) error {
	if err := b.SwitchToTop(); err != nil {
		return err
	}
	if _, err := b.WaitForElementDisplayed(ctx, valueSelectorConfirm); err != nil {
		return err
	}
	options, err := b.FindAll(valueSelectorOptions)
	if err != nil {
		return err
	}
	matched := false
	for _, option := range options {
		label, err := option.Text()
		if err != nil {
			return err
		}
		if label == text {
			if err := option.Tap(); err != nil {
				return fmt.Errorf("select %q: %w", text, err)
			}
			matched = true
			break
		}
	}
	if !matched {
		return core.ErrElementNotFound.
			WithMessage(fmt.Sprintf("No option %q in value selector", text)).
			WithDetails(map[string]interface{}{"selector": valueSelectorOptions.String()})
	}
	if err := b.Tap(ctx, valueSelectorConfirm); err != nil {
		return err
	}
	return b.SwitchToApp()
}
