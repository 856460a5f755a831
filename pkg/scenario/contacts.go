package scenario

import (
	"context"

	"github.com/devicelab-dev/gaiatest/pkg/apps/contacts"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
)

func init() {
	Register(Scenario{
		Name:        "import_contacts_from_gmail",
		Description: "Sign in to Gmail from Contacts settings and import every contact",
		Tags:        []string{"contacts", "online"},
		Requires:    []string{"email.gmail.email", "email.gmail.password", "wifi.ssid"},
		Setup:       connectToNetwork,
		Run:         importFromGmail,
	})
	Register(Scenario{
		Name:        "import_contacts_from_outlook",
		Description: "Sign in to Outlook from Contacts settings and import the first contact",
		Tags:        []string{"contacts", "online"},
		Requires:    []string{"email.outlook.email", "email.outlook.password", "wifi.ssid"},
		Setup:       connectToNetwork,
		Run:         importFromOutlook,
	})
}

func importFromGmail(ctx context.Context, env *gaia.Env) error {
	email, err := env.Vars.String("email.gmail.email")
	if err != nil {
		return err
	}
	password, err := env.Vars.String("email.gmail.password")
	if err != nil {
		return err
	}

	app := contacts.New(env)
	if err := app.Launch(ctx); err != nil {
		return err
	}
	settings, err := app.TapSettings(ctx)
	if err != nil {
		return err
	}
	if err := settings.TapImportContacts(ctx); err != nil {
		return err
	}
	msg, err := settings.ImportMessage()
	if err != nil {
		return err
	}
	if err := Equal("Gmail import status", "Not imported", msg); err != nil {
		return err
	}

	gmail, err := settings.TapImportFromGmail(ctx)
	if err != nil {
		return err
	}
	if err := gmail.Login(ctx, email, password); err != nil {
		return err
	}
	if err := gmail.SwitchToContactsFrame(ctx); err != nil {
		return err
	}
	if err := gmail.TapSelectAll(ctx); err != nil {
		return err
	}
	return gmail.TapImport(ctx)
}

func importFromOutlook(ctx context.Context, env *gaia.Env) error {
	email, err := env.Vars.String("email.outlook.email")
	if err != nil {
		return err
	}
	password, err := env.Vars.String("email.outlook.password")
	if err != nil {
		return err
	}

	app := contacts.New(env)
	if err := app.Launch(ctx); err != nil {
		return err
	}
	settings, err := app.TapSettings(ctx)
	if err != nil {
		return err
	}
	if err := settings.TapImportContacts(ctx); err != nil {
		return err
	}
	imported, err := settings.ImportedContacts()
	if err != nil {
		return err
	}
	if err := Equal("Outlook import status", "Not imported", imported); err != nil {
		return err
	}

	outlook, err := settings.TapImportFromOutlook(ctx)
	if err != nil {
		return err
	}
	if err := outlook.SwitchToLogin(ctx); err != nil {
		return err
	}
	picker, err := outlook.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := picker.SwitchToSelectContactsFrame(ctx); err != nil {
		return err
	}
	if err := picker.TapFirstContact(ctx); err != nil {
		return err
	}
	settings, err = picker.TapImportButton(ctx)
	if err != nil {
		return err
	}
	if err := settings.TapBackFromImportContacts(ctx); err != nil {
		return err
	}
	if err := settings.TapDone(ctx); err != nil {
		return err
	}

	items, err := app.Contacts()
	if err != nil {
		return err
	}
	return Equal("contacts after Outlook import", 1, len(items))
}
