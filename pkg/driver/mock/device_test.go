package mock

import (
	"strings"
	"testing"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/core"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDevice(t *testing.T) *Device {
	t.Helper()
	d := NewDevice()
	d.ScriptTimeout = time.Second
	t.Cleanup(d.Close)
	return d
}

func TestSession_FindElementByIDAndCSS(t *testing.T) {
	d := newDevice(t)
	d.Top().Add(
		d.El("div", "lockscreen").Append(
			d.El("button", "unlock").WithClass("icon", "unlock").WithAttr("data-action", "unlock"),
		),
	)
	s := d.NewSession()

	tests := []struct {
		name string
		by   driver.By
	}{
		{"id", driver.ID("unlock")},
		{"css id", driver.CSS("#unlock")},
		{"css attr id", driver.CSS(`[id="unlock"]`)},
		{"class", driver.ClassName("unlock")},
		{"compound", driver.CSS("button.icon.unlock")},
		{"attr equals", driver.CSS("button[data-action='unlock']")},
		{"attr prefix", driver.CSS("[data-action^=un]")},
		{"tag", driver.TagName("button")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el, err := s.FindElement(tt.by)
			require.NoError(t, err)
			assert.Equal(t, "unlock", el.(*Element).ID())
		})
	}
}

func TestSession_FindElementMiss(t *testing.T) {
	d := newDevice(t)
	s := d.NewSession()

	_, err := s.FindElement(driver.ID("nothing"))
	require.Error(t, err)
	assert.True(t, core.IsLookupFailure(err))

	elements, err := s.FindElements(driver.ID("nothing"))
	require.NoError(t, err)
	assert.Empty(t, elements)
	assert.Equal(t, 2, d.Lookups())
}

func TestSession_RegisteredSelector(t *testing.T) {
	d := newDevice(t)
	li := d.El("li", "")
	d.Top().Add(d.El("ul", "contacts-list").Append(li))
	s := d.NewSession()

	el, err := s.FindElement(driver.CSS("#contacts-list li"))
	require.NoError(t, err, "combinators resolve against the document structure")
	assert.Equal(t, li.Handle(), el.Handle())

	_, err = s.FindElement(driver.XPath("//ul/li[1]"))
	assert.True(t, core.IsLookupFailure(err))

	li.Matching(driver.XPath("//ul/li[1]"), driver.CSS("#favorites li"))
	el, err = s.FindElement(driver.XPath("//ul/li[1]"))
	require.NoError(t, err)
	assert.Equal(t, li.Handle(), el.Handle())

	el, err = s.FindElement(driver.CSS("#favorites li"))
	require.NoError(t, err)
	assert.Equal(t, li.Handle(), el.Handle())
}

func TestElement_HiddenAndTap(t *testing.T) {
	d := newDevice(t)
	tapped := 0
	btn := d.El("button", "forward").WithText("Next").Hidden().OnTap(func() { tapped++ })
	d.Top().Add(btn)
	s := d.NewSession()

	el, err := s.FindElement(driver.ID("forward"))
	require.NoError(t, err)

	displayed, err := el.Displayed()
	require.NoError(t, err)
	assert.False(t, displayed)
	text, err := el.Text()
	require.NoError(t, err)
	assert.Empty(t, text, "hidden elements render no text")

	err = el.Tap()
	execErr, ok := core.AsExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, core.ErrElementNotVisible.Code, execErr.Code)

	btn.Show()
	require.NoError(t, el.Tap())
	assert.Equal(t, 1, tapped)
	assert.Equal(t, 1, d.Taps())
	assert.Equal(t, []string{"button#forward"}, d.TapLog())
}

func TestElement_StaleAfterRemove(t *testing.T) {
	d := newDevice(t)
	msg := d.El("p", "status").WithText("Importing...")
	d.Top().Add(msg)
	s := d.NewSession()

	el, err := s.FindElement(driver.ID("status"))
	require.NoError(t, err)
	msg.Remove()

	_, err = el.Text()
	assert.True(t, core.IsLookupFailure(err))
	execErr, _ := core.AsExecutionError(err)
	assert.Equal(t, core.ErrStaleElement.Code, execErr.Code)
}

func TestElement_SendKeysAndClear(t *testing.T) {
	d := newDevice(t)
	var typed string
	input := d.El("input", "wifi_password").OnKeys(func(text string) { typed = text })
	d.Top().Add(input)
	s := d.NewSession()

	el, err := s.FindElement(driver.ID("wifi_password"))
	require.NoError(t, err)
	require.NoError(t, el.SendKeys("secret"))
	assert.Equal(t, "secret", typed)

	value, err := el.Attribute("value")
	require.NoError(t, err)
	assert.Equal(t, "secret", value)

	require.NoError(t, el.Clear())
	assert.Empty(t, input.Value())
}

func TestElement_ScopedLookup(t *testing.T) {
	d := newDevice(t)
	network := d.El("li", "gaia-net").Append(
		d.El("p", "").WithText("gaia-net").Matching(driver.XPath("p[1]")),
		d.El("p", "").WithText("Connected").Matching(driver.XPath("p[2]")),
	)
	d.Top().Add(d.El("ul", "networks-list").Append(network))
	s := d.NewSession()

	li, err := s.FindElement(driver.ID("gaia-net"))
	require.NoError(t, err)
	state, err := li.FindElement(driver.XPath("p[2]"))
	require.NoError(t, err)
	text, err := state.Text()
	require.NoError(t, err)
	assert.Equal(t, "Connected", text)

	ps, err := li.FindElements(driver.TagName("p"))
	require.NoError(t, err)
	assert.Len(t, ps, 2)
}

func TestSession_Frames(t *testing.T) {
	d := newDevice(t)
	iframe := d.El("iframe", "gmail-frame")
	d.Top().Add(iframe)
	iframe.Document().Add(d.El("input", "Email"))
	s := d.NewSession()

	_, err := s.FindElement(driver.ID("Email"))
	assert.True(t, core.IsLookupFailure(err), "child frame content is not visible from the parent")

	frameEl, err := s.FindElement(driver.ID("gmail-frame"))
	require.NoError(t, err)
	require.NoError(t, s.SwitchToFrame(frameEl))
	_, err = s.FindElement(driver.ID("Email"))
	require.NoError(t, err)

	require.NoError(t, s.SwitchToParentFrame())
	assert.Same(t, d.Top(), s.Frame())

	require.NoError(t, s.SwitchToFrame(frameEl))
	require.NoError(t, s.SwitchToFrame(nil))
	assert.Same(t, d.Top(), s.Frame())

	notFrame := d.El("div", "plain")
	d.Top().Add(notFrame)
	assert.Error(t, s.SwitchToFrame(notFrame))
}

func TestSession_LaunchScript(t *testing.T) {
	d := newDevice(t)
	d.Install("Contacts", "app://communications.gaiamobile.org", func(doc *Frame) {
		doc.Add(d.El("button", "settings-button"))
	})
	s := d.NewSession()

	result, err := s.ExecuteAsyncScript(`
		var done = arguments[arguments.length - 1];
		window.wrappedJSObject.GaiaApps.launchWithName(arguments[0], done);
	`, "Contacts")
	require.NoError(t, err)

	info, ok := result.(map[string]interface{})
	require.True(t, ok, "got %T", result)
	assert.Equal(t, "Contacts", info["name"])
	assert.Equal(t, "app://communications.gaiamobile.org", info["origin"])

	frame, ok := info["frame"].(driver.Element)
	require.True(t, ok)
	require.NoError(t, s.SwitchToFrame(frame))
	_, err = s.FindElement(driver.ID("settings-button"))
	require.NoError(t, err)
	assert.Equal(t, "Contacts", d.Displayed().Name)
}

func TestSession_LaunchUnknownApp(t *testing.T) {
	d := newDevice(t)
	s := d.NewSession()

	result, err := s.ExecuteAsyncScript(`
		GaiaApps.launchWithName(arguments[0], arguments[1]);
	`, "Nope")
	require.NoError(t, err)
	assert.Equal(t, false, result)
}

func TestSession_KillDetachesElements(t *testing.T) {
	d := newDevice(t)
	d.Install("FTU", "app://ftu.gaiamobile.org", func(doc *Frame) {
		doc.Add(d.El("section", "languages"))
	})
	app := d.Launch("FTU")
	s := d.NewSession()
	require.NoError(t, s.SwitchToFrame(app.Document().Owner()))
	section, err := s.FindElement(driver.ID("languages"))
	require.NoError(t, err)

	_, err = s.ExecuteScript("return GaiaApps.killAll();")
	require.NoError(t, err)

	_, err = section.Displayed()
	assert.True(t, core.IsLookupFailure(err))
	assert.False(t, app.Running())
	assert.Nil(t, d.Displayed())
}

func TestSession_DataLayerScripts(t *testing.T) {
	d := newDevice(t)
	s := d.NewSession()

	_, err := s.ExecuteAsyncScript(`GaiaDataLayer.insertContact(arguments[0], arguments[1]);`,
		map[string]interface{}{"name": []interface{}{"Ada Lovelace"}})
	require.NoError(t, err)
	require.Len(t, d.Contacts(), 1)
	assert.NotEmpty(t, d.Contacts()[0]["id"])

	all, err := s.ExecuteAsyncScript(`GaiaDataLayer.getAllContacts(arguments[0]);`)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = s.ExecuteAsyncScript(`GaiaDataLayer.setSetting('geolocation.enabled', false, arguments[0]);`)
	require.NoError(t, err)
	v, err := s.ExecuteAsyncScript(`GaiaDataLayer.getSetting('geolocation.enabled', arguments[0]);`)
	require.NoError(t, err)
	assert.Equal(t, false, v)

	received := make(chan SMS, 1)
	d.OnSMS(func(m SMS) { received <- m })
	_, err = s.ExecuteAsyncScript(`GaiaDataLayer.sendSMS(arguments[0], arguments[1], arguments[2]);`, "555-0100", "hello")
	require.NoError(t, err)
	select {
	case m := <-received:
		assert.Equal(t, SMS{Number: "555-0100", Body: "hello"}, m)
	case <-time.After(time.Second):
		t.Fatal("SMS handler never ran")
	}

	d.ConnectWifi("gaia-net")
	connected, err := s.ExecuteScript(`return GaiaDataLayer.isWiFiConnected(arguments[0]);`,
		map[string]interface{}{"ssid": "gaia-net"})
	require.NoError(t, err)
	assert.Equal(t, true, connected)
}

func TestSession_DocumentFromScript(t *testing.T) {
	d := newDevice(t)
	input := d.El("input", "msgToSend")
	d.Top().Add(input)
	s := d.NewSession()

	_, err := s.ExecuteScript(`
		var msgToSend = document.getElementById('msgToSend');
		msgToSend.value = "this is a test";
	`)
	require.NoError(t, err)
	assert.Equal(t, "this is a test", input.Value())
}

func TestSession_ScriptErrors(t *testing.T) {
	d := newDevice(t)
	d.ScriptTimeout = 30 * time.Millisecond
	s := d.NewSession()

	_, err := s.ExecuteScript("throw new Error('nope');")
	execErr, ok := core.AsExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, core.ErrScriptFailed.Code, execErr.Code)

	_, err = s.ExecuteAsyncScript("/* never finishes */")
	execErr, ok = core.AsExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, "Async script timed out", execErr.Message)
}

func TestSession_DeviceControls(t *testing.T) {
	d := newDevice(t)
	d.Install(HomescreenName, "app://homescreen.gaiamobile.org", nil)
	s := d.NewSession()

	_, err := s.ExecuteScript("GaiaDevice.turnScreenOff();")
	require.NoError(t, err)
	on, err := s.ExecuteScript("return GaiaDevice.isScreenEnabled();")
	require.NoError(t, err)
	assert.Equal(t, false, on)

	_, err = s.ExecuteScript("GaiaDevice.touchHomeButton();")
	require.NoError(t, err)
	assert.Equal(t, HomescreenName, d.Displayed().Name)

	_, err = s.ExecuteAsyncScript("GaiaLockScreen.lock(arguments[0]);")
	require.NoError(t, err)
	assert.True(t, d.Locked())
}

func TestSession_PageSourceAndClose(t *testing.T) {
	d := newDevice(t)
	d.Top().Add(d.El("p", "finish-screen").WithText("Ready <3").WithAttr("data-l10n-id", "done"))
	s := d.NewSession()

	src, err := s.PageSource()
	require.NoError(t, err)
	assert.True(t, strings.Contains(src, `<p id="finish-screen" data-l10n-id="done">Ready &lt;3</p>`), src)

	png, err := s.Screenshot()
	require.NoError(t, err)
	assert.Equal(t, pngHeader, png)

	require.NoError(t, s.Close())
	_, err = s.FindElement(driver.ID("finish-screen"))
	require.Error(t, err)
	assert.False(t, core.IsLookupFailure(err))
}

func TestSession_FindElementsByCombinators(t *testing.T) {
	d := newDevice(t)
	d.Top().Add(
		d.El("section", "languages").Append(
			d.El("ul", "").Append(
				d.El("li", "").Append(
					d.El("input", "").WithAttr("name", "language.current").WithAttr("value", "en-US"),
					d.El("p", "en").WithText("English"),
				),
				d.El("li", "").WithClass("hidden").Append(
					d.El("input", "").WithAttr("name", "language.current").WithAttr("value", "fr"),
					d.El("p", "fr").WithText("Francais"),
				),
			),
		),
		d.El("p", "outside"),
	)
	s := d.NewSession()

	tests := []struct {
		sel  string
		want []string
	}{
		{"#languages ul li p", []string{"en", "fr"}},
		{"section > p", nil},
		{"li:not(.hidden) p", []string{"en"}},
		{"input[value='fr'] ~ p", []string{"fr"}},
		{"#languages li:nth-child(2) p, #outside", []string{"fr", "outside"}},
		{"p[id=\"en\"]", []string{"en"}},
		{"li[", nil},
	}
	for _, tt := range tests {
		t.Run(tt.sel, func(t *testing.T) {
			elements, err := s.FindElements(driver.CSS(tt.sel))
			require.NoError(t, err)
			var got []string
			for _, el := range elements {
				got = append(got, el.(*Element).ID())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestElement_FindElementsScopedCSS(t *testing.T) {
	d := newDevice(t)
	list := d.El("ul", "networks-list").Append(
		d.El("li", "gaia-net").Append(d.El("p", "ssid")),
	)
	d.Top().Add(d.El("div", "wifi").Append(list), d.El("p", "other"))
	s := d.NewSession()

	el, err := s.FindElement(driver.ID("networks-list"))
	require.NoError(t, err)

	children, err := el.FindElements(driver.CSS("#wifi p"))
	require.NoError(t, err)
	require.Len(t, children, 1, "matches are limited to descendants but see the whole document")
	assert.Equal(t, "ssid", children[0].(*Element).ID())
}
