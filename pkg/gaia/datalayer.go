package gaia

import (
	"fmt"

	"github.com/devicelab-dev/gaiatest/pkg/core"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
)

// Data layer scripts. Async ones receive the completion callback last.
const (
	allContactsScript = `var done = arguments[arguments.length - 1];
window.wrappedJSObject.GaiaDataLayer.getAllContacts(done);`

	insertContactScript = `var done = arguments[arguments.length - 1];
window.wrappedJSObject.GaiaDataLayer.insertContact(arguments[0], done);`

	removeAllContactsScript = `var done = arguments[arguments.length - 1];
window.wrappedJSObject.GaiaDataLayer.removeAllContacts(done);`

	sendSMSScript = `var done = arguments[arguments.length - 1];
window.wrappedJSObject.GaiaDataLayer.sendSMS(arguments[0], arguments[1], done);`

	getSettingScript = `var done = arguments[arguments.length - 1];
window.wrappedJSObject.GaiaDataLayer.getSetting(arguments[0], done);`

	setSettingScript = `var done = arguments[arguments.length - 1];
window.wrappedJSObject.GaiaDataLayer.setSetting(arguments[0], arguments[1], done);`

	enableWifiScript = `var done = arguments[arguments.length - 1];
window.wrappedJSObject.GaiaDataLayer.enableWiFi(done);`

	connectToWifiScript = `var done = arguments[arguments.length - 1];
window.wrappedJSObject.GaiaDataLayer.connectToWiFi(arguments[0], done);`

	isWifiEnabledScript       = `return window.wrappedJSObject.GaiaDataLayer.isWiFiEnabled();`
	isWifiConnectedScript     = `return window.wrappedJSObject.GaiaDataLayer.isWiFiConnected(arguments[0]);`
	isCellDataConnectedScript = `return window.wrappedJSObject.GaiaDataLayer.isCellDataConnected();`
)

// DataLayer reads and writes device state: contacts, messages, settings and
// connectivity. Scripts run in the top frame and the session stays there;
// callers switch back to their app explicitly.
type DataLayer struct {
	session driver.Session
}

// AllContacts returns every contact on the device.
func (d *DataLayer) AllContacts() ([]Contact, error) {
	result, err := d.async("getAllContacts", allContactsScript)
	if err != nil {
		return nil, err
	}
	list, ok := result.([]interface{})
	if !ok && result != nil {
		return nil, unexpected("getAllContacts", result)
	}
	contacts := make([]Contact, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, unexpected("getAllContacts", item)
		}
		contacts = append(contacts, ContactFromMap(m))
	}
	return contacts, nil
}

// InsertContact stores c on the device.
func (d *DataLayer) InsertContact(c Contact) error {
	return d.asyncTrue("insertContact", insertContactScript, c.ToMap())
}

// RemoveAllContacts empties the contacts database.
func (d *DataLayer) RemoveAllContacts() error {
	return d.asyncTrue("removeAllContacts", removeAllContactsScript)
}

// SendSMS sends a text message from the device to number.
func (d *DataLayer) SendSMS(number, body string) error {
	return d.asyncTrue("sendSMS", sendSMSScript, number, body)
}

// GetSetting returns the value of a device setting, nil when unset.
func (d *DataLayer) GetSetting(name string) (interface{}, error) {
	return d.async("getSetting", getSettingScript, name)
}

// SetSetting changes a device setting.
func (d *DataLayer) SetSetting(name string, value interface{}) error {
	return d.asyncTrue("setSetting", setSettingScript, name, value)
}

// IsWifiEnabled reports whether the Wi-Fi radio is on.
func (d *DataLayer) IsWifiEnabled() (bool, error) {
	return d.syncBool("isWiFiEnabled", isWifiEnabledScript)
}

// IsWifiConnected reports whether the device is connected to network.
func (d *DataLayer) IsWifiConnected(network WifiNetwork) (bool, error) {
	return d.syncBool("isWiFiConnected", isWifiConnectedScript, network.ToMap())
}

// IsCellDataConnected reports whether mobile data is connected.
func (d *DataLayer) IsCellDataConnected() (bool, error) {
	return d.syncBool("isCellDataConnected", isCellDataConnectedScript)
}

// EnableWifi turns the Wi-Fi radio on.
func (d *DataLayer) EnableWifi() error {
	return d.asyncTrue("enableWiFi", enableWifiScript)
}

// ConnectToWifi joins network, enabling the radio first when needed.
func (d *DataLayer) ConnectToWifi(network WifiNetwork) error {
	return d.asyncTrue("connectToWiFi", connectToWifiScript, network.ToMap())
}

func (d *DataLayer) async(op, script string, args ...interface{}) (interface{}, error) {
	if err := d.session.SwitchToFrame(nil); err != nil {
		return nil, err
	}
	result, err := d.session.ExecuteAsyncScript(script, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func (d *DataLayer) asyncTrue(op, script string, args ...interface{}) error {
	result, err := d.async(op, script, args...)
	if err != nil {
		return err
	}
	if ok, _ := result.(bool); !ok {
		return core.ErrScriptFailed.
			WithMessage(fmt.Sprintf("%s did not succeed", op)).
			WithDetails(map[string]interface{}{"result": result})
	}
	return nil
}

func (d *DataLayer) syncBool(op, script string, args ...interface{}) (bool, error) {
	if err := d.session.SwitchToFrame(nil); err != nil {
		return false, err
	}
	result, err := d.session.ExecuteScript(script, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	b, ok := result.(bool)
	if !ok {
		return false, unexpected(op, result)
	}
	return b, nil
}

func unexpected(op string, v interface{}) error {
	return core.ErrScriptFailed.
		WithMessage(fmt.Sprintf("%s returned unexpected %T", op, v)).
		WithDetails(map[string]interface{}{"result": v})
}
