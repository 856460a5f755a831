// Package apptest installs fake versions of the phone's apps on a
// mock.Device. The fakes build the DOM the page objects expect and react to
// taps the way the real apps do, closely enough to run whole scenarios.
package apptest

import (
	"context"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/device"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
	"github.com/devicelab-dev/gaiatest/pkg/driver/mock"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
	"github.com/devicelab-dev/gaiatest/pkg/wait"
)

// Delay is how long the fakes take for anything asynchronous on a real
// phone: network scans, imports, media scans.
const Delay = 20 * time.Millisecond

// Network is a Wi-Fi network the FTU scan finds.
type Network struct {
	SSID     string
	Password string // empty for open networks
}

// Config shapes the fake phone.
type Config struct {
	// RemoteContacts is how many contacts the Gmail and Outlook accounts hold.
	RemoteContacts int
	// SIMContacts is how many contacts the SIM holds.
	SIMContacts int
	// Networks are found by the FTU Wi-Fi scan.
	Networks []Network
}

// Fakes is a mock device with every fake app installed.
type Fakes struct {
	Device  *mock.Device
	Storage *Storage

	cfg Config

	mu         sync.Mutex
	activity   *activity
	selector   *valueSelector
	newsletter string
}

// Newsletter returns what was typed into the FTU newsletter address field.
func (f *Fakes) Newsletter() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.newsletter
}

// New creates a device, installs the fake apps and closes the device when
// the test ends.
func New(t testing.TB, cfg Config) *Fakes {
	t.Helper()
	d := mock.NewDevice()
	d.ScriptTimeout = 2 * time.Second
	t.Cleanup(d.Close)

	f := &Fakes{Device: d, Storage: &Storage{}, cfg: cfg}
	f.installSystem()
	f.installContacts()
	f.installMessages()
	f.installFTU()
	f.installVideo()
	f.installIacPublisher()
	d.Install(mock.HomescreenName, "app://homescreen.gaiamobile.org", func(doc *mock.Frame) {
		doc.Add(d.El("div", "icongrid").WithClass("apps"))
	})
	return f
}

// Env returns a scenario environment on a new session with short timeouts.
func (f *Fakes) Env(vars gaia.TestVars) *gaia.Env {
	return gaia.NewEnv(f.Device.NewSession(), f.Options(vars))
}

// Options are the short-timeout environment options Env uses.
func (f *Fakes) Options(vars gaia.TestVars) gaia.Options {
	return gaia.Options{
		Vars:          vars,
		Poller:        wait.Default().WithTimeout(2 * time.Second).WithInterval(5 * time.Millisecond),
		ScriptTimeout: 2 * time.Second,
		LaunchTimeout: 2 * time.Second,
		Pusher:        f.Storage,
		ResourceDir:   "resources",
	}
}

// Storage is the device's SD card. It implements gaia.ResourcePusher.
type Storage struct {
	mu    sync.Mutex
	files []string
}

// PushResource records count numbered copies under destination, named the
// way an adb push names them.
func (s *Storage) PushResource(_ context.Context, local, destination string, count int) ([]string, error) {
	if count < 1 {
		count = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := path.Join(device.SDCard, destination)
	remotes := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		remote := path.Join(dir, device.NumberedName(filepath.Base(local), i))
		s.files = append(s.files, remote)
		remotes = append(remotes, remote)
	}
	return remotes, nil
}

// Files returns the stored paths with one of the given extensions, sorted.
func (s *Storage) Files(exts ...string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for _, file := range s.files {
		for _, ext := range exts {
			if strings.EqualFold(path.Ext(file), ext) {
				out = append(out, file)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// valueSelector is the system's replacement UI for <select> elements.
type valueSelector struct {
	container *mock.Element
	list      *mock.Element
	chosen    string
	onConfirm func(string)
}

// Selectors shared with the page objects.
var (
	valueSelectorOption = driver.CSS("#value-selector-container li")
	notificationItem    = driver.CSS("#notifications-lockscreen-container > div.notification")
)

// installSystem builds the system frame: the value selector and the lock screen.
func (f *Fakes) installSystem() {
	d := f.Device

	list := d.El("ul", "value-selector-container")
	confirm := d.El("button", "").WithClass("value-option-confirm").WithText("OK")
	container := d.El("div", "value-selector").Hidden().Append(list, confirm)
	f.selector = &valueSelector{container: container, list: list}
	confirm.OnTap(func() {
		f.mu.Lock()
		sel := f.selector
		chosen, fn := sel.chosen, sel.onConfirm
		sel.onConfirm = nil
		f.mu.Unlock()

		container.Hide()
		if fn != nil {
			fn(chosen)
		}
	})

	notifications := d.El("div", "notifications-lockscreen-container")
	lockscreen := d.El("div", "lockscreen").Hidden().Append(notifications)
	d.Top().Add(container, lockscreen)

	d.OnLock(lockscreen.Show)
	d.OnSMS(func(sms mock.SMS) {
		if !d.Locked() {
			return
		}
		d.SetScreen(true)
		note := d.El("div", "").WithClass("notification").
			Matching(notificationItem).
			Append(
				d.El("div", "").WithClass("title").WithText(sms.Number),
				d.El("div", "").WithClass("detail").WithText(sms.Body),
			)
		notifications.Append(note)
	})
}

// openSelector shows options over the current app; onConfirm receives the
// option tapped before the confirm button.
func (f *Fakes) openSelector(options []string, onConfirm func(string)) {
	d := f.Device

	f.mu.Lock()
	sel := f.selector
	sel.chosen = ""
	sel.onConfirm = onConfirm
	f.mu.Unlock()

	for _, old := range sel.list.Children() {
		old.Remove()
	}
	for _, option := range options {
		option := option
		sel.list.Append(d.El("li", "").WithText(option).
			Matching(valueSelectorOption).
			OnTap(func() {
				f.mu.Lock()
				sel.chosen = option
				f.mu.Unlock()
			}))
	}
	sel.container.Show()
}

// show makes exactly one of elements displayed.
func show(elements []*mock.Element, index int) {
	for i, el := range elements {
		if i == index {
			el.Show()
		} else {
			el.Hide()
		}
	}
}
