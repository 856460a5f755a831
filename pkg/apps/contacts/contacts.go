// Package contacts drives the Contacts app: the contact list, the settings
// panel with its Gmail and Outlook importers, contact details and the edit
// form.
package contacts

import (
	"context"
	"fmt"

	"github.com/devicelab-dev/gaiatest/pkg/apps"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
)

const (
	// Name is the launcher name of the app.
	Name = "Contacts"
	// Origin hosts Contacts, Dialer and their activities.
	Origin = "app://communications.gaiamobile.org"
)

var (
	settingsButton = driver.ID("settings-button")
	contactItems   = driver.CSS("li.contact-item")
	contactName    = driver.ClassName("contact-text")
)

// Contacts is the contact list, the app's start screen.
type Contacts struct {
	apps.Base
}

// New returns the Contacts page object; call Launch to start the app.
func New(env *gaia.Env) *Contacts {
	return &Contacts{Base: apps.NewBase(env, Name)}
}

// Attach returns a page object for a Contacts window that is already open,
// typically one started by another app's activity.
func Attach(env *gaia.Env, app *gaia.App) *Contacts {
	c := New(env)
	c.App = app
	return c
}

// Launch starts the app and waits for the list toolbar.
func (c *Contacts) Launch(ctx context.Context) error {
	if err := c.Base.Launch(ctx); err != nil {
		return err
	}
	_, err := c.WaitForElementDisplayed(ctx, settingsButton)
	return err
}

// TapSettings opens the settings panel.
func (c *Contacts) TapSettings(ctx context.Context) (*Settings, error) {
	if err := c.Tap(ctx, settingsButton); err != nil {
		return nil, err
	}
	s := &Settings{Base: c.Base}
	if _, err := s.WaitForElementDisplayed(ctx, settingsView); err != nil {
		return nil, err
	}
	return s, nil
}

// WaitForForm waits for the contact form, shown first when an activity asks
// Contacts to create a contact.
func (c *Contacts) WaitForForm(ctx context.Context) (*EditContact, error) {
	return newEditContact(ctx, c.Base)
}

// Contacts returns the rows of the contact list.
func (c *Contacts) Contacts() ([]*ContactItem, error) {
	elements, err := c.FindAll(contactItems)
	if err != nil {
		return nil, err
	}
	items := make([]*ContactItem, len(elements))
	for i, el := range elements {
		items[i] = &ContactItem{base: c.Base, el: el}
	}
	return items, nil
}

// WaitForContacts waits until the list shows exactly n contacts.
func (c *Contacts) WaitForContacts(ctx context.Context, n int) error {
	msg := fmt.Sprintf("Contact list did not show %d contacts before timeout", n)
	return c.WaitForCondition(ctx, msg, func(ctx context.Context) (bool, error) {
		items, err := c.FindAll(contactItems)
		if err != nil {
			return false, err
		}
		return len(items) == n, nil
	})
}

// ContactItem is one row of the contact list.
type ContactItem struct {
	base apps.Base
	el   driver.Element
}

// Name returns the name shown in the row.
func (i *ContactItem) Name() (string, error) {
	el, err := i.el.FindElement(contactName)
	if err != nil {
		return "", err
	}
	return el.Text()
}

// Tap opens the contact's details.
func (i *ContactItem) Tap(ctx context.Context) (*Details, error) {
	if err := i.el.Tap(); err != nil {
		return nil, err
	}
	d := &Details{Base: i.base}
	if _, err := d.WaitForElementDisplayed(ctx, detailsView); err != nil {
		return nil, err
	}
	return d, nil
}

// TapForEdit picks the contact when the list was opened to update a contact
// from another app; the edit form opens instead of the details.
func (i *ContactItem) TapForEdit(ctx context.Context) (*EditContact, error) {
	if err := i.el.Tap(); err != nil {
		return nil, err
	}
	return newEditContact(ctx, i.base)
}
