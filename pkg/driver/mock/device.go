// Package mock provides an in-memory device for testing page objects and
// scenarios without hardware: a DOM of frames and elements, a launcher, the
// data layer and device controls, all reachable through driver.Session.
package mock

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/jsengine"
	"github.com/google/uuid"
)

// HomescreenName is the app shown after the home button is pressed.
const HomescreenName = "Homescreen"

// SMS is a message sent through the data layer.
type SMS struct {
	Number string
	Body   string
}

// App is an installed application. Its document is rebuilt on every cold launch.
type App struct {
	Name   string
	Origin string

	device *Device
	build  func(doc *Frame)
	iframe *Element
}

// Running reports whether the app has a live window.
func (a *App) Running() bool {
	a.device.mu.Lock()
	defer a.device.mu.Unlock()

	return a.iframe != nil
}

// Document returns the app's document, nil when the app is not running.
func (a *App) Document() *Frame {
	a.device.mu.Lock()
	iframe := a.iframe
	a.device.mu.Unlock()

	if iframe == nil {
		return nil
	}
	return iframe.Document()
}

// Device is the in-memory device.
type Device struct {
	// ScriptTimeout bounds async scripts.
	ScriptTimeout time.Duration

	mu      sync.Mutex
	engine  *jsengine.Engine
	top     *Frame
	handles int

	apps      []*App
	displayed *App

	contacts    []map[string]interface{}
	settings    map[string]interface{}
	sent        []SMS
	screenOn    bool
	locked      bool
	wifiEnabled bool
	wifiSSID    string
	cellData    bool
	lookups     int
	taps        int
	tapLog      []string
	onSMS       []func(SMS)
	onHome      []func()
	onLock      []func()
	timers      []*time.Timer
}

// NewDevice creates a device with the screen on, Wi-Fi enabled and nothing running.
func NewDevice() *Device {
	d := &Device{
		ScriptTimeout: 5 * time.Second,
		engine:        jsengine.New(),
		settings:      make(map[string]interface{}),
		screenOn:      true,
		wifiEnabled:   true,
	}
	d.top = &Frame{Name: "system", device: d}
	d.registerHostObjects()
	return d
}

// Close stops pending timers and the script engine.
func (d *Device) Close() {
	d.mu.Lock()
	for _, t := range d.timers {
		t.Stop()
	}
	d.timers = nil
	d.mu.Unlock()

	d.engine.Close()
}

// Top returns the system (top-level) frame.
func (d *Device) Top() *Frame { return d.top }

// El creates a detached element; add it to a frame or parent to make it findable.
func (d *Device) El(tag, id string) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handles++
	return &Element{
		device: d,
		handle: fmt.Sprintf("el-%d", d.handles),
		tag:    tag,
		id:     id,
		attrs:  make(map[string]string),
	}
}

// NewSession opens a session positioned in the top frame.
func (d *Device) NewSession() *Session {
	return &Session{device: d, frame: d.top}
}

// After runs fn once delay has elapsed, unless the device is closed first.
func (d *Device) After(delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.timers = append(d.timers, time.AfterFunc(delay, fn))
}

// Install registers an app. build populates a fresh document on each cold launch.
func (d *Device) Install(name, origin string, build func(doc *Frame)) *App {
	d.mu.Lock()
	defer d.mu.Unlock()

	app := &App{Name: name, Origin: origin, device: d, build: build}
	d.apps = append(d.apps, app)
	return app
}

// App returns the installed app with name, or nil.
func (d *Device) App(name string) *App {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.appByName(name)
}

func (d *Device) appByName(name string) *App {
	for _, app := range d.apps {
		if strings.EqualFold(app.Name, name) {
			return app
		}
	}
	return nil
}

// Launch starts or foregrounds an app and returns it, nil when not installed.
func (d *Device) Launch(name string) *App {
	d.mu.Lock()
	app := d.appByName(name)
	if app == nil {
		d.mu.Unlock()
		return nil
	}
	cold := app.iframe == nil
	d.mu.Unlock()

	if cold {
		iframe := d.El("iframe", "").
			WithClass("appWindow").
			WithAttr("src", app.Origin+"/index.html").
			WithAttr("data-url", app.Origin)
		doc := iframe.Document()
		d.top.Add(iframe)
		if app.build != nil {
			app.build(doc)
		}

		d.mu.Lock()
		app.iframe = iframe
		d.mu.Unlock()
	}

	d.foreground(app)
	return app
}

func (d *Device) foreground(app *App) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, other := range d.apps {
		if other.iframe != nil {
			other.iframe.hidden = other != app
		}
	}
	d.displayed = app
}

// Kill closes an app; its window and elements are detached.
func (d *Device) Kill(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	app := d.appByName(name)
	if app == nil || app.iframe == nil {
		return
	}
	app.iframe.remove()
	app.iframe = nil
	if d.displayed == app {
		d.displayed = nil
	}
}

// KillAll closes every running app except the homescreen.
func (d *Device) KillAll() {
	d.mu.Lock()
	var names []string
	for _, app := range d.apps {
		if app.iframe != nil && app.Name != HomescreenName {
			names = append(names, app.Name)
		}
	}
	d.mu.Unlock()

	for _, name := range names {
		d.Kill(name)
	}
}

// Displayed returns the foreground app, or nil.
func (d *Device) Displayed() *App {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.displayed
}

// PressHome shows the homescreen (when installed) and runs home handlers.
func (d *Device) PressHome() {
	d.mu.Lock()
	handlers := append([]func(){}, d.onHome...)
	d.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
	if d.App(HomescreenName) != nil {
		d.Launch(HomescreenName)
	}
}

// OnHome registers a home button handler.
func (d *Device) OnHome(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.onHome = append(d.onHome, fn)
}

// Screen

// ScreenEnabled reports whether the screen is on.
func (d *Device) ScreenEnabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.screenOn
}

// SetScreen turns the screen on or off.
func (d *Device) SetScreen(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.screenOn = on
}

// Lock engages the lock screen and runs lock handlers.
func (d *Device) Lock() {
	d.mu.Lock()
	d.locked = true
	handlers := append([]func(){}, d.onLock...)
	d.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

// Locked reports whether the lock screen is engaged.
func (d *Device) Locked() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.locked
}

// OnLock registers a lock handler.
func (d *Device) OnLock(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.onLock = append(d.onLock, fn)
}

// Data

// Contacts returns a snapshot of the contacts database.
func (d *Device) Contacts() []map[string]interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]map[string]interface{}, len(d.contacts))
	for i, c := range d.contacts {
		out[i] = copyMap(c)
	}
	return out
}

// AddContact stores a contact and returns its id.
func (d *Device) AddContact(contact map[string]interface{}) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := copyMap(contact)
	id, _ := c["id"].(string)
	if id == "" {
		id = uuid.NewString()
		c["id"] = id
	}
	d.contacts = append(d.contacts, c)
	return id
}

// UpdateContact replaces the stored contact with the same id.
func (d *Device) UpdateContact(contact map[string]interface{}) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	id, _ := contact["id"].(string)
	for i, c := range d.contacts {
		if c["id"] == id {
			d.contacts[i] = copyMap(contact)
			return true
		}
	}
	return false
}

// RemoveAllContacts empties the contacts database.
func (d *Device) RemoveAllContacts() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.contacts = nil
}

// Setting returns a setting value.
func (d *Device) Setting(name string) interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.settings[name]
}

// SetSetting stores a setting value.
func (d *Device) SetSetting(name string, value interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.settings[name] = value
}

// SendSMS records a message and delivers it to SMS handlers asynchronously.
func (d *Device) SendSMS(number, body string) {
	msg := SMS{Number: number, Body: body}

	d.mu.Lock()
	d.sent = append(d.sent, msg)
	handlers := append([]func(SMS){}, d.onSMS...)
	d.mu.Unlock()

	for _, fn := range handlers {
		fn := fn
		d.After(10*time.Millisecond, func() { fn(msg) })
	}
}

// SentSMS returns the messages sent so far.
func (d *Device) SentSMS() []SMS {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]SMS(nil), d.sent...)
}

// OnSMS registers a handler for incoming messages.
func (d *Device) OnSMS(fn func(SMS)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.onSMS = append(d.onSMS, fn)
}

// Connectivity

// SetWifiEnabled toggles the Wi-Fi radio; disabling drops the connection.
func (d *Device) SetWifiEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.wifiEnabled = enabled
	if !enabled {
		d.wifiSSID = ""
	}
}

// ConnectWifi joins the network ssid.
func (d *Device) ConnectWifi(ssid string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.wifiEnabled = true
	d.wifiSSID = ssid
}

// WifiSSID returns the connected network, empty when disconnected.
func (d *Device) WifiSSID() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.wifiSSID
}

// SetCellData sets the mobile data connection state.
func (d *Device) SetCellData(connected bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cellData = connected
}

// Counters

// Lookups returns the number of element lookups performed.
func (d *Device) Lookups() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.lookups
}

// Taps returns the number of successful taps.
func (d *Device) Taps() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.taps
}

// TapLog describes every tapped element in order, e.g. "button#forward".
func (d *Device) TapLog() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]string(nil), d.tapLog...)
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
