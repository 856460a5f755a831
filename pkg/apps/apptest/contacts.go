package apptest

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/gaiatest/pkg/driver"
	"github.com/devicelab-dev/gaiatest/pkg/driver/mock"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
)

const (
	contactsName   = "Contacts"
	contactsOrigin = "app://communications.gaiamobile.org"
	messagesName   = "Messages"
)

// activity is a request from Messages to Contacts.
type activity struct {
	// update adds number to a picked contact; otherwise a contact is created.
	update bool
	number string
}

var (
	gmailStatus   = driver.CSS(".icon.icon-gmail > p > span")
	outlookStatus = driver.CSS(".icon.icon-live > p > span")
	gmailPopup    = driver.CSS("#frame-container > iframe")
	pickerRow     = driver.CSS("li.block-item label.pack-checkbox")
)

// startActivity opens Contacts in a fresh window serving a.
func (f *Fakes) startActivity(a *activity) {
	f.mu.Lock()
	f.activity = a
	f.mu.Unlock()

	f.Device.Kill(contactsName)
	f.Device.Launch(contactsName)
}

func (f *Fakes) takeActivity() *activity {
	f.mu.Lock()
	defer f.mu.Unlock()

	a := f.activity
	f.activity = nil
	return a
}

// finishActivity closes the Contacts window and returns to Messages.
func (f *Fakes) finishActivity() {
	f.Device.Kill(contactsName)
	f.Device.Launch(messagesName)
	f.refreshThreadHeader()
}

func (f *Fakes) installContacts() {
	f.Device.Install(contactsName, contactsOrigin, func(doc *mock.Frame) {
		(&contactsWindow{f: f, d: f.Device, act: f.takeActivity()}).build(doc)
	})
}

// contactsWindow is one launch of the Contacts app.
type contactsWindow struct {
	f   *Fakes
	d   *mock.Device
	doc *mock.Frame
	act *activity

	list     *mock.Element
	details  *mock.Element
	form     *mock.Element
	settings *mock.Element
	editing  *gaia.Contact
}

func (w *contactsWindow) build(doc *mock.Frame) {
	d := w.d
	w.doc = doc

	w.list = d.El("ol", "contacts-list")
	listView := d.El("section", "view-contacts-list").Append(
		d.El("header", "").Append(
			d.El("button", "settings-button").OnTap(w.openSettings),
		),
		w.list,
	)
	w.details = d.El("section", "contact-detail").Hidden()
	w.form = w.buildForm()
	w.settings = w.buildSettings()
	doc.Add(listView, w.details, w.form, w.settings)
	w.renderList()

	if w.act != nil && !w.act.update {
		w.openForm(nil, w.act.number)
	}
}

func (w *contactsWindow) renderList() {
	for _, old := range w.list.Children() {
		old.Remove()
	}
	for _, m := range w.d.Contacts() {
		c := gaia.ContactFromMap(m)
		row := w.d.El("li", "").WithClass("contact-item").
			Append(w.d.El("p", "").WithClass("contact-text").WithText(c.Name))
		row.OnTap(func() {
			if w.act != nil && w.act.update {
				w.openForm(&c, w.act.number)
				return
			}
			w.showDetails(c)
		})
		w.list.Append(row)
	}
}

func (w *contactsWindow) showDetails(c gaia.Contact) {
	for _, old := range w.details.Children() {
		old.Remove()
	}
	w.details.Append(w.d.El("h1", "contact-name-title").WithText(c.Name))
	for i, number := range c.PhoneNumbers() {
		w.details.Append(w.d.El("button", fmt.Sprintf("call-or-pick-%d", i)).WithText(number))
	}
	w.form.Hide()
	w.details.Show()
}

func (w *contactsWindow) buildForm() *mock.Element {
	d := w.d
	form := d.El("form", "contact-form").Hidden().Append(
		d.El("input", "givenName"),
		d.El("input", "familyName"),
		d.El("input", "number_0").WithAttr("type", "tel"),
		d.El("input", "email_0").WithAttr("type", "email"),
		d.El("button", "save-button").OnTap(w.save),
	)
	return form
}

// openForm shows the form for c (nil for a new contact); number is added as
// an extra phone number when not empty.
func (w *contactsWindow) openForm(c *gaia.Contact, number string) {
	doc := w.doc
	set := func(id, value string) { doc.ByID(id).SetAttr("value", value) }

	w.editing = c
	if c == nil {
		set("givenName", "")
		set("familyName", "")
		set("number_0", number)
	} else {
		set("givenName", c.GivenName)
		set("familyName", c.FamilyName)
		numbers := c.PhoneNumbers()
		if len(numbers) > 0 {
			set("number_0", numbers[0])
		}
	}
	w.details.Hide()
	w.form.Show()
}

func (w *contactsWindow) save() {
	doc := w.doc
	value := func(id string) string { return strings.TrimSpace(doc.ByID(id).Value()) }

	var c gaia.Contact
	if w.editing != nil {
		c = *w.editing
	}
	c.GivenName = value("givenName")
	c.FamilyName = value("familyName")
	c.Name = strings.TrimSpace(c.GivenName + " " + c.FamilyName)
	if number := value("number_0"); number != "" {
		if len(c.Tel) == 0 {
			c.Tel = []gaia.Phone{{Type: "Mobile", Value: number}}
		} else {
			c.Tel[0].Value = number
		}
	}
	if w.editing != nil && w.act != nil && w.act.update {
		c.Tel = append(c.Tel, gaia.Phone{Type: "Mobile", Value: w.act.number})
	}

	if w.editing != nil {
		w.d.UpdateContact(c.ToMap())
	} else {
		c.ID = w.d.AddContact(c.ToMap())
	}

	if w.act != nil {
		w.f.finishActivity()
		return
	}
	w.renderList()
	w.showDetails(c)
}

func (w *contactsWindow) openSettings() {
	w.settings.Show()
}

func (w *contactsWindow) buildSettings() *mock.Element {
	d := w.d

	importView := d.El("section", "import-settings").Hidden()
	gmailMsg := d.El("span", "").WithText("Not imported").Matching(gmailStatus)
	outlookMsg := d.El("span", "").WithText("Not imported").Matching(outlookStatus)
	importView.Append(
		d.El("button", "import-settings-back").OnTap(importView.Hide),
		d.El("button", "").WithClass("icon", "icon-gmail").Append(
			d.El("p", "").Append(d.El("span", "").WithText("Gmail")),
			d.El("p", "").Append(gmailMsg),
		).OnTap(func() { w.openGmailSignIn(gmailMsg) }),
		d.El("button", "").WithClass("icon", "icon-live").Append(
			d.El("p", "").Append(d.El("span", "").WithText("Outlook")),
			d.El("p", "").Append(outlookMsg),
		).OnTap(func() { w.openOutlookSignIn(outlookMsg) }),
	)

	settings := d.El("section", "view-settings").Hidden()
	settings.Append(
		d.El("button", "settings-close").OnTap(settings.Hide),
		d.El("button", "importContacts").OnTap(importView.Show),
		importView,
	)
	return settings
}

// openGmailSignIn opens Google's sign-in page in a system popup.
func (w *contactsWindow) openGmailSignIn(status *mock.Element) {
	d := w.d
	popup := d.El("iframe", "").
		WithAttr("data-url", "https://accounts.google.com/ServiceLogin").
		Matching(gmailPopup)
	container := d.El("div", "frame-container").Append(popup)
	d.Top().Add(container)
	popup.Document().Add(
		d.El("input", "Email").WithAttr("type", "email"),
		d.El("input", "Passwd").WithAttr("type", "password"),
		d.El("button", "signIn").OnTap(func() {
			container.Remove()
			w.openPicker(status)
		}),
	)
}

// openOutlookSignIn opens Live's sign-in page in a system popup.
func (w *contactsWindow) openOutlookSignIn(status *mock.Element) {
	d := w.d
	popup := d.El("iframe", "").
		WithAttr("data-url", "https://login.live.com/oauth20_authorize.srf")
	d.Top().Add(popup)
	popup.Document().Add(
		d.El("input", "i0116").WithAttr("type", "email"),
		d.El("input", "i0118").WithAttr("type", "password"),
		d.El("button", "idSIButton9").OnTap(func() {
			popup.Remove()
			w.openPicker(status)
		}),
	)
}

// openPicker lists the account's contacts for import.
func (w *contactsWindow) openPicker(status *mock.Element) {
	d := w.d
	remote := make([]gaia.Contact, w.f.cfg.RemoteContacts)
	selected := make([]bool, len(remote))
	for i := range remote {
		remote[i] = gaia.MockContact()
	}

	picker := d.El("iframe", "fb-extensions")
	w.doc.Add(picker)

	rows := d.El("ul", "friends-list")
	for i, c := range remote {
		i := i
		rows.Append(d.El("li", "").WithClass("block-item").Append(
			d.El("label", "").WithClass("pack-checkbox").
				Matching(pickerRow).
				OnTap(func() { selected[i] = !selected[i] }),
			d.El("p", "").WithText(c.Name),
		))
	}
	picker.Document().Add(
		d.El("button", "select-all").OnTap(func() {
			for i := range selected {
				selected[i] = true
			}
		}),
		rows,
		d.El("button", "import-action").OnTap(func() {
			imported := 0
			for i, c := range remote {
				if selected[i] {
					d.AddContact(c.ToMap())
					imported++
				}
			}
			picker.Remove()
			status.SetText(fmt.Sprintf("%d contacts imported", imported))
			w.renderList()
		}),
	)
}
