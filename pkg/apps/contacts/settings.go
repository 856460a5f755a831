package contacts

import (
	"context"

	"github.com/devicelab-dev/gaiatest/pkg/apps"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
)

var (
	settingsView          = driver.ID("view-settings")
	settingsClose         = driver.ID("settings-close")
	importContactsButton  = driver.ID("importContacts")
	importSettingsView    = driver.ID("import-settings")
	importSettingsBack    = driver.ID("import-settings-back")
	importGmailButton     = driver.CSS("button.icon-gmail")
	importOutlookButton   = driver.CSS("button.icon-live")
	gmailImportMessage    = driver.CSS(".icon.icon-gmail > p > span")
	outlookImportMessage  = driver.CSS(".icon.icon-live > p > span")
	gmailSignInFrame      = driver.CSS("#frame-container > iframe")
	outlookSignInFrame    = driver.CSS(`iframe[data-url*="live.com"]`)
	importContactsFrame   = driver.ID("fb-extensions")
	importSelectAll       = driver.ID("select-all")
	importAction          = driver.ID("import-action")
	importFirstContactBox = driver.CSS("li.block-item label.pack-checkbox")
)

// Settings is the settings panel of the contact list.
type Settings struct {
	apps.Base
}

// TapImportContacts opens the import sources.
func (s *Settings) TapImportContacts(ctx context.Context) error {
	if err := s.Tap(ctx, importContactsButton); err != nil {
		return err
	}
	_, err := s.WaitForElementDisplayed(ctx, importSettingsView)
	return err
}

// ImportMessage is the Gmail import status, "Not imported" before any import.
func (s *Settings) ImportMessage() (string, error) {
	return s.TextOf(gmailImportMessage)
}

// ImportedContacts is the Outlook import status.
func (s *Settings) ImportedContacts() (string, error) {
	return s.TextOf(outlookImportMessage)
}

// TapImportFromGmail starts the Gmail importer.
func (s *Settings) TapImportFromGmail(ctx context.Context) (*Gmail, error) {
	if err := s.Tap(ctx, importGmailButton); err != nil {
		return nil, err
	}
	return &Gmail{Base: s.Base}, nil
}

// TapImportFromOutlook starts the Outlook importer.
func (s *Settings) TapImportFromOutlook(ctx context.Context) (*Outlook, error) {
	if err := s.Tap(ctx, importOutlookButton); err != nil {
		return nil, err
	}
	return &Outlook{Base: s.Base}, nil
}

// TapBackFromImportContacts returns from the import sources to settings.
func (s *Settings) TapBackFromImportContacts(ctx context.Context) error {
	if err := s.Tap(ctx, importSettingsBack); err != nil {
		return err
	}
	return s.WaitForElementNotDisplayed(ctx, importSettingsView)
}

// TapDone closes settings and returns to the contact list.
func (s *Settings) TapDone(ctx context.Context) error {
	if err := s.Tap(ctx, settingsClose); err != nil {
		return err
	}
	return s.WaitForElementNotDisplayed(ctx, settingsView)
}

// Gmail is the Gmail importer: a sign-in window opened by the system, then
// the contact picker inside the Contacts app.
type Gmail struct {
	apps.Base
}

var (
	gmailEmail    = driver.ID("Email")
	gmailPassword = driver.ID("Passwd")
	gmailSignIn   = driver.ID("signIn")
)

// Login signs in and returns the session to the Contacts frame.
func (g *Gmail) Login(ctx context.Context, email, password string) error {
	if err := signIn(ctx, &g.Base, gmailSignInFrame, gmailEmail, gmailPassword, gmailSignIn, email, password); err != nil {
		return err
	}
	return g.SwitchToApp()
}

// SwitchToContactsFrame enters the picker listing the account's contacts.
func (g *Gmail) SwitchToContactsFrame(ctx context.Context) error {
	return switchToPicker(ctx, &g.Base)
}

// TapSelectAll selects every contact in the picker.
func (g *Gmail) TapSelectAll(ctx context.Context) error {
	return g.Tap(ctx, importSelectAll)
}

// TapImport imports the selected contacts.
func (g *Gmail) TapImport(ctx context.Context) error {
	return g.Tap(ctx, importAction)
}

// Outlook is the Outlook (Live) importer.
type Outlook struct {
	apps.Base
}

var (
	outlookEmail    = driver.ID("i0116")
	outlookPassword = driver.ID("i0118")
	outlookSignIn   = driver.ID("idSIButton9")
)

// SwitchToLogin enters the Live sign-in window.
func (o *Outlook) SwitchToLogin(ctx context.Context) error {
	return switchToPopup(ctx, &o.Base, outlookSignInFrame)
}

// Login signs in from the sign-in window and returns the picker.
func (o *Outlook) Login(ctx context.Context, email, password string) (*Import, error) {
	if err := typeCredentials(ctx, &o.Base, outlookEmail, outlookPassword, outlookSignIn, email, password); err != nil {
		return nil, err
	}
	if err := o.SwitchToApp(); err != nil {
		return nil, err
	}
	return &Import{Base: o.Base}, nil
}

// Import is the contact picker shown after an online sign-in.
type Import struct {
	apps.Base
}

// SwitchToSelectContactsFrame enters the picker.
func (i *Import) SwitchToSelectContactsFrame(ctx context.Context) error {
	return switchToPicker(ctx, &i.Base)
}

// TapFirstContact toggles the first contact of the picker.
func (i *Import) TapFirstContact(ctx context.Context) error {
	return i.Tap(ctx, importFirstContactBox)
}

// TapImportButton imports the selection and returns to the settings panel.
func (i *Import) TapImportButton(ctx context.Context) (*Settings, error) {
	if err := i.Tap(ctx, importAction); err != nil {
		return nil, err
	}
	if err := i.SwitchToApp(); err != nil {
		return nil, err
	}
	if err := i.WaitForElementNotDisplayed(ctx, importContactsFrame); err != nil {
		return nil, err
	}
	s := &Settings{Base: i.Base}
	if _, err := s.WaitForElementDisplayed(ctx, importSettingsView); err != nil {
		return nil, err
	}
	return s, nil
}

// switchToPopup enters a sign-in window the system opened over the app.
func switchToPopup(ctx context.Context, b *apps.Base, frame driver.By) error {
	if err := b.SwitchToTop(); err != nil {
		return err
	}
	popup, err := b.WaitForElementDisplayed(ctx, frame)
	if err != nil {
		return err
	}
	return b.Session().SwitchToFrame(popup)
}

func switchToPicker(ctx context.Context, b *apps.Base) error {
	picker, err := b.WaitForElementDisplayed(ctx, importContactsFrame)
	if err != nil {
		return err
	}
	return b.Session().SwitchToFrame(picker)
}

func signIn(ctx context.Context, b *apps.Base, frame, emailField, passwordField, submit driver.By, email, password string) error {
	if err := switchToPopup(ctx, b, frame); err != nil {
		return err
	}
	return typeCredentials(ctx, b, emailField, passwordField, submit, email, password)
}

func typeCredentials(ctx context.Context, b *apps.Base, emailField, passwordField, submit driver.By, email, password string) error {
	if err := b.Tap(ctx, emailField); err != nil {
		return err
	}
	if err := b.TypeInto(ctx, emailField, email); err != nil {
		return err
	}
	if err := b.Tap(ctx, passwordField); err != nil {
		return err
	}
	if err := b.TypeInto(ctx, passwordField, password); err != nil {
		return err
	}
	return b.Tap(ctx, submit)
}
