package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/apps/contacts"
	"github.com/devicelab-dev/gaiatest/pkg/apps/homescreen"
	"github.com/devicelab-dev/gaiatest/pkg/apps/lockscreen"
	"github.com/devicelab-dev/gaiatest/pkg/apps/messages"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
)

// NotificationTimeout bounds the wait for an SMS to reach the lock screen.
const NotificationTimeout = 180 * time.Second

// New contacts get this name when created from a message thread.
const (
	newContactGivenName  = "Test"
	newContactFamilyName = "Contact"
)

func init() {
	Register(Scenario{
		Name:        "sms_create_new_contact",
		Description: "Create a contact from the sender of a received message",
		Tags:        []string{"messages", "contacts", "sms"},
		Requires:    []string{"carrier.phone_number"},
		Setup:       sendSMSFrom("carrier.phone_number"),
		Run:         smsCreateNewContact,
	})
	Register(Scenario{
		Name:        "sms_add_to_existing_contact",
		Description: "Add the sender of a received message to an existing contact",
		Tags:        []string{"messages", "contacts", "sms"},
		Requires:    []string{"local_phone_numbers.0"},
		Setup:       insertContactAndSendSMS,
		Run:         smsAddToExistingContact,
	})
	Register(Scenario{
		Name:        "sms_notification",
		Description: "A message received while locked wakes the screen with a notification",
		Tags:        []string{"messages", "sms", "lockscreen"},
		Requires:    []string{"carrier.phone_number"},
		Run:         smsNotification,
	})
}

func messageText() string {
	return fmt.Sprintf("Automated Test %d", time.Now().Unix())
}

// sendSMSFrom has the device send a message to the number stored under key,
// so a thread with that number exists.
func sendSMSFrom(key string) Func {
	return func(ctx context.Context, env *gaia.Env) error {
		number, err := env.Vars.String(key)
		if err != nil {
			return err
		}
		return env.Data.SendSMS(number, messageText())
	}
}

func insertContactAndSendSMS(ctx context.Context, env *gaia.Env) error {
	if err := env.Data.InsertContact(gaia.MockContact()); err != nil {
		return err
	}
	return sendSMSFrom("local_phone_numbers.0")(ctx, env)
}

// openFirstThread launches Messages and opens its newest thread.
func openFirstThread(ctx context.Context, env *gaia.Env) (*messages.Thread, error) {
	app := messages.New(env)
	if err := app.Launch(ctx); err != nil {
		return nil, err
	}
	thread, err := app.TapFirstReceivedMessage(ctx)
	if err != nil {
		return nil, err
	}
	if err := thread.WaitForReceivedMessages(ctx); err != nil {
		return nil, err
	}
	return thread, nil
}

func waitForHeader(ctx context.Context, thread *messages.Thread, want string) error {
	msg := fmt.Sprintf("Thread header did not change to %q", want)
	return thread.WaitForCondition(ctx, msg, func(ctx context.Context) (bool, error) {
		text, err := thread.HeaderText()
		if err != nil {
			return false, err
		}
		return text == want, nil
	})
}

func smsCreateNewContact(ctx context.Context, env *gaia.Env) error {
	number, err := env.Vars.String("carrier.phone_number")
	if err != nil {
		return err
	}
	thread, err := openFirstThread(ctx, env)
	if err != nil {
		return err
	}
	activities, err := thread.TapHeader(ctx)
	if err != nil {
		return err
	}
	form, err := activities.TapCreateNewContact(ctx)
	if err != nil {
		return err
	}
	if err := form.TypeGivenName(ctx, newContactGivenName); err != nil {
		return err
	}
	if err := form.TypeFamilyName(ctx, newContactFamilyName); err != nil {
		return err
	}
	if _, err := form.TapUpdate(ctx); err != nil {
		return err
	}
	name := newContactGivenName + " " + newContactFamilyName
	if err := waitForHeader(ctx, thread, name); err != nil {
		return err
	}

	all, err := env.Data.AllContacts()
	if err != nil {
		return err
	}
	if err := Equal("contacts after creation", 1, len(all)); err != nil {
		return err
	}
	return Equal("new contact numbers", []string{number}, all[0].PhoneNumbers())
}

func smsAddToExistingContact(ctx context.Context, env *gaia.Env) error {
	number, err := env.Vars.String("local_phone_numbers.0")
	if err != nil {
		return err
	}
	existing, err := env.Data.AllContacts()
	if err != nil {
		return err
	}
	if err := Equal("contacts before the journey", 1, len(existing)); err != nil {
		return err
	}
	contact := existing[0]

	thread, err := openFirstThread(ctx, env)
	if err != nil {
		return err
	}
	header, err := thread.HeaderText()
	if err != nil {
		return err
	}
	if err := Equal("thread header", number, header); err != nil {
		return err
	}

	activities, err := thread.TapHeader(ctx)
	if err != nil {
		return err
	}
	list, err := activities.TapAddToContact(ctx)
	if err != nil {
		return err
	}
	if err := list.WaitForContacts(ctx, 1); err != nil {
		return err
	}
	items, err := list.Contacts()
	if err != nil {
		return err
	}
	form, err := items[0].TapForEdit(ctx)
	if err != nil {
		return err
	}
	if _, err := form.TapUpdate(ctx); err != nil {
		return err
	}
	if err := waitForHeader(ctx, thread, contact.Name); err != nil {
		return err
	}

	if err := env.Device.TouchHomeButton(); err != nil {
		return err
	}
	home := homescreen.New(env)
	if err := home.WaitForCondition(ctx, "Homescreen was not displayed", func(ctx context.Context) (bool, error) {
		return home.IsDisplayed()
	}); err != nil {
		return err
	}

	app := contacts.New(env)
	if err := app.Launch(ctx); err != nil {
		return err
	}
	if err := app.WaitForContacts(ctx, 1); err != nil {
		return err
	}
	items, err = app.Contacts()
	if err != nil {
		return err
	}
	shown, err := items[0].Name()
	if err != nil {
		return err
	}
	if err := Equal("contact list entry", contact.Name, shown); err != nil {
		return err
	}
	details, err := items[0].Tap(ctx)
	if err != nil {
		return err
	}
	numbers, err := details.PhoneNumbers()
	if err != nil {
		return err
	}
	if err := Greater("phone numbers on the contact", len(numbers), 1); err != nil {
		return err
	}
	return Equal("added phone number", number, numbers[1])
}

func smsNotification(ctx context.Context, env *gaia.Env) error {
	number, err := env.Vars.String("carrier.phone_number")
	if err != nil {
		return err
	}
	text := messageText()

	lock := lockscreen.New(env)
	if err := lock.Lock(ctx); err != nil {
		return err
	}
	if err := env.Device.TurnScreenOff(); err != nil {
		return err
	}
	on, err := env.Device.IsScreenEnabled()
	if err != nil {
		return err
	}
	if err := False("Screen is still on after turning it off", on); err != nil {
		return err
	}

	if err := env.Data.SendSMS(number, text); err != nil {
		return err
	}
	if err := lock.WaitForNotification(ctx, NotificationTimeout); err != nil {
		return err
	}

	on, err = env.Device.IsScreenEnabled()
	if err != nil {
		return err
	}
	if err := True("Screen was not turned on by the notification", on); err != nil {
		return err
	}
	notes, err := lock.Notifications()
	if err != nil {
		return err
	}
	if err := Greater("lock screen notifications", len(notes), 0); err != nil {
		return err
	}
	visible, err := notes[0].IsVisible()
	if err != nil {
		return err
	}
	if err := True("Notification is not visible", visible); err != nil {
		return err
	}
	content, err := notes[0].Content()
	if err != nil {
		return err
	}
	return Equal("notification content", text, content)
}
