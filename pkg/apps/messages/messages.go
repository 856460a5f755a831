// Package messages drives the Messages app: the thread list, a conversation
// and the contact activities offered from a conversation header.
package messages

import (
	"context"
	"fmt"

	"github.com/devicelab-dev/gaiatest/pkg/apps"
	"github.com/devicelab-dev/gaiatest/pkg/apps/contacts"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
)

const (
	Name   = "Messages"
	Origin = "app://sms.gaiamobile.org"
)

var (
	threadList       = driver.ID("thread-list")
	firstThread      = driver.CSS("#threads-container li.threadlist-item")
	threadView       = driver.ID("thread-messages")
	receivedMessages = driver.CSS("li.message.received")
	headerText       = driver.ID("messages-header-text")
	activityMenu     = driver.CSS(`form[data-type="action"]`)
	createNewContact = driver.CSS(`button[data-l10n-id="createNewContact"]`)
	addToContact     = driver.CSS(`button[data-l10n-id="addToExistingContact"]`)
)

// Messages is the thread list.
type Messages struct {
	apps.Base
}

func New(env *gaia.Env) *Messages {
	return &Messages{Base: apps.NewBase(env, Name)}
}

// Launch starts the app and waits for the thread list.
func (m *Messages) Launch(ctx context.Context) error {
	if err := m.Base.Launch(ctx); err != nil {
		return err
	}
	_, err := m.WaitForElementDisplayed(ctx, threadList)
	return err
}

// TapFirstReceivedMessage opens the most recent conversation.
func (m *Messages) TapFirstReceivedMessage(ctx context.Context) (*Thread, error) {
	if err := m.Tap(ctx, firstThread); err != nil {
		return nil, err
	}
	t := &Thread{Base: m.Base}
	if _, err := t.WaitForElementDisplayed(ctx, threadView); err != nil {
		return nil, err
	}
	return t, nil
}

// Thread is one conversation.
type Thread struct {
	apps.Base
}

// WaitForReceivedMessages waits for at least one incoming message.
func (t *Thread) WaitForReceivedMessages(ctx context.Context) error {
	_, err := t.WaitForElementDisplayed(ctx, receivedMessages)
	return err
}

// HeaderText is the conversation title: the contact name when the number
// belongs to a contact, the number otherwise.
func (t *Thread) HeaderText() (string, error) {
	return t.TextOf(headerText)
}

// TapHeader opens the contact activities for the conversation's number.
func (t *Thread) TapHeader(ctx context.Context) (*Activities, error) {
	if err := t.Tap(ctx, headerText); err != nil {
		return nil, err
	}
	a := &Activities{Base: t.Base}
	if _, err := a.WaitForElementDisplayed(ctx, activityMenu); err != nil {
		return nil, err
	}
	return a, nil
}

// Activities is the action menu that hands the number to Contacts.
type Activities struct {
	apps.Base
}

// TapCreateNewContact opens a contact form prefilled with the number.
func (a *Activities) TapCreateNewContact(ctx context.Context) (*contacts.EditContact, error) {
	if err := a.Tap(ctx, createNewContact); err != nil {
		return nil, err
	}
	c, err := a.switchToContacts(ctx)
	if err != nil {
		return nil, err
	}
	return c.WaitForForm(ctx)
}

// TapAddToContact opens the contact list to pick the contact to update.
func (a *Activities) TapAddToContact(ctx context.Context) (*contacts.Contacts, error) {
	if err := a.Tap(ctx, addToContact); err != nil {
		return nil, err
	}
	return a.switchToContacts(ctx)
}

func (a *Activities) switchToContacts(ctx context.Context) (*contacts.Contacts, error) {
	var shown *gaia.App
	msg := fmt.Sprintf("%s did not open for the activity", contacts.Name)
	err := a.WaitForCondition(ctx, msg, func(ctx context.Context) (bool, error) {
		app, err := a.Env.Apps.DisplayedApp()
		if err != nil {
			return false, err
		}
		shown = app
		return app.Origin == contacts.Origin, nil
	})
	if err != nil {
		return nil, err
	}
	if err := a.Env.Apps.SwitchTo(shown); err != nil {
		return nil, err
	}
	return contacts.Attach(a.Env, shown), nil
}
