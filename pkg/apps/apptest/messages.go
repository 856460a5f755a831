package apptest

import (
	"github.com/devicelab-dev/gaiatest/pkg/driver"
	"github.com/devicelab-dev/gaiatest/pkg/driver/mock"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
)

var firstThread = driver.CSS("#threads-container li.threadlist-item")

func (f *Fakes) installMessages() {
	d := f.Device
	d.Install(messagesName, "app://sms.gaiamobile.org", func(doc *mock.Frame) {
		threads := d.El("ul", "threads-container")
		threadList := d.El("section", "thread-list").Append(threads)

		header := d.El("h1", "messages-header-text")
		messages := d.El("ul", "messages-container")
		menu := d.El("form", "").WithAttr("data-type", "action").Hidden()
		threadView := d.El("section", "thread-messages").Hidden().Append(header, messages, menu)
		header.OnTap(menu.Show)

		menu.Append(
			d.El("button", "").WithAttr("data-l10n-id", "createNewContact").OnTap(func() {
				menu.Hide()
				f.startActivity(&activity{number: header.Value()})
			}),
			d.El("button", "").WithAttr("data-l10n-id", "addToExistingContact").OnTap(func() {
				menu.Hide()
				f.startActivity(&activity{update: true, number: header.Value()})
			}),
		)

		// Messages sent to the device's own number come straight back.
		sent := d.SentSMS()
		seen := map[string]bool{}
		for i := len(sent) - 1; i >= 0; i-- {
			number := sent[i].Number
			if seen[number] {
				continue
			}
			seen[number] = true
			threads.Append(d.El("li", "").WithClass("threadlist-item").
				WithAttr("data-number", number).
				WithText(number).
				Matching(firstThread).
				OnTap(func() {
					for _, old := range messages.Children() {
						old.Remove()
					}
					for _, sms := range d.SentSMS() {
						if sms.Number == number {
							messages.Append(d.El("li", "").WithClass("message", "received").WithText(sms.Body))
						}
					}
					header.SetAttr("value", number)
					header.SetText(displayName(d, number))
					threadList.Hide()
					threadView.Show()
				}))
		}

		doc.Add(threadList, threadView)
	})
}

// refreshThreadHeader shows the contact name for the open conversation, as
// Messages does when a contact changes.
func (f *Fakes) refreshThreadHeader() {
	app := f.Device.App(messagesName)
	if app == nil {
		return
	}
	doc := app.Document()
	if doc == nil {
		return
	}
	header := doc.ByID("messages-header-text")
	if header == nil || header.Value() == "" {
		return
	}
	header.SetText(displayName(f.Device, header.Value()))
}

// displayName is the name of the contact owning number, or number itself.
func displayName(d *mock.Device, number string) string {
	for _, m := range d.Contacts() {
		c := gaia.ContactFromMap(m)
		for _, n := range c.PhoneNumbers() {
			if n == number {
				return c.Name
			}
		}
	}
	return number
}
