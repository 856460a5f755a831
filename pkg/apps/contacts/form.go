package contacts

import (
	"context"
	"fmt"

	"github.com/devicelab-dev/gaiatest/pkg/apps"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
)

var (
	detailsView     = driver.ID("contact-detail")
	detailsPhones   = driver.CSS(`button[id^="call-or-pick-"]`)
	contactForm     = driver.ID("contact-form")
	givenNameField  = driver.ID("givenName")
	familyNameField = driver.ID("familyName")
	saveButton      = driver.ID("save-button")
)

// Details shows one contact.
type Details struct {
	apps.Base
}

// PhoneNumbers returns the contact's numbers in display order.
func (d *Details) PhoneNumbers() ([]string, error) {
	buttons, err := d.FindAll(detailsPhones)
	if err != nil {
		return nil, err
	}
	numbers := make([]string, 0, len(buttons))
	for _, button := range buttons {
		text, err := button.Text()
		if err != nil {
			return nil, err
		}
		numbers = append(numbers, text)
	}
	return numbers, nil
}

// EditContact is the contact form, for new and existing contacts.
type EditContact struct {
	apps.Base
}

func newEditContact(ctx context.Context, b apps.Base) (*EditContact, error) {
	e := &EditContact{Base: b}
	if _, err := e.WaitForElementDisplayed(ctx, contactForm); err != nil {
		return nil, err
	}
	return e, nil
}

// TypeGivenName types into the first name field.
func (e *EditContact) TypeGivenName(ctx context.Context, name string) error {
	return e.TypeInto(ctx, givenNameField, name)
}

// TypeFamilyName types into the last name field.
func (e *EditContact) TypeFamilyName(ctx context.Context, name string) error {
	return e.TypeInto(ctx, familyNameField, name)
}

// TapUpdate saves a contact opened by another app's activity. The activity
// window closes and the session follows the app shown next.
func (e *EditContact) TapUpdate(ctx context.Context) (*gaia.App, error) {
	if err := e.Tap(ctx, saveButton); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("%s activity window did not close", Name)
	err := e.WaitForCondition(ctx, msg, func(ctx context.Context) (bool, error) {
		app, err := e.Env.Apps.DisplayedApp()
		if err != nil {
			return false, err
		}
		return app.Origin != Origin, nil
	})
	if err != nil {
		return nil, err
	}
	return e.Env.Apps.SwitchToDisplayedApp()
}
