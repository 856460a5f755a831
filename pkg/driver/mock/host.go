package mock

import (
	"fmt"

	"github.com/devicelab-dev/gaiatest/pkg/jsengine"
)

// registerHostObjects exposes the device to scripts the way the real device
// injects its test atoms: window.wrappedJSObject.GaiaApps and friends.
func (d *Device) registerHostObjects() {
	d.engine.SetHost("GaiaApps", map[string]jsengine.HostFunc{
		"launchWithName": func(args ...interface{}) (interface{}, error) {
			name, done, err := stringAndCallback(args)
			if err != nil {
				return nil, err
			}
			app := d.Launch(name)
			if app == nil {
				done(false)
				return nil, nil
			}
			done(d.appInfo(app))
			return nil, nil
		},
		"getDisplayedApp": func(args ...interface{}) (interface{}, error) {
			app := d.Displayed()
			if app == nil {
				return nil, nil
			}
			return d.appInfo(app), nil
		},
		"kill": func(args ...interface{}) (interface{}, error) {
			origin, done, err := stringAndCallback(args)
			if err != nil {
				return nil, err
			}
			d.mu.Lock()
			var name string
			for _, app := range d.apps {
				if app.Origin == origin {
					name = app.Name
				}
			}
			d.mu.Unlock()
			d.Kill(name)
			done(true)
			return nil, nil
		},
		"killAll": func(args ...interface{}) (interface{}, error) {
			d.KillAll()
			return true, nil
		},
	})

	d.engine.SetHost("GaiaDataLayer", map[string]jsengine.HostFunc{
		"getAllContacts": func(args ...interface{}) (interface{}, error) {
			done, err := lastCallback(args)
			if err != nil {
				return nil, err
			}
			contacts := d.Contacts()
			list := make([]interface{}, len(contacts))
			for i, c := range contacts {
				list[i] = c
			}
			done(list)
			return nil, nil
		},
		"insertContact": func(args ...interface{}) (interface{}, error) {
			done, err := lastCallback(args)
			if err != nil {
				return nil, err
			}
			contact, ok := args[0].(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("insertContact: contact must be an object, got %T", args[0])
			}
			d.AddContact(contact)
			done(true)
			return nil, nil
		},
		"removeAllContacts": func(args ...interface{}) (interface{}, error) {
			done, err := lastCallback(args)
			if err != nil {
				return nil, err
			}
			d.RemoveAllContacts()
			done(true)
			return nil, nil
		},
		"sendSMS": func(args ...interface{}) (interface{}, error) {
			done, err := lastCallback(args)
			if err != nil {
				return nil, err
			}
			if len(args) < 3 {
				return nil, fmt.Errorf("sendSMS: want number, body and callback")
			}
			d.SendSMS(fmt.Sprint(args[0]), fmt.Sprint(args[1]))
			done(true)
			return nil, nil
		},
		"getSetting": func(args ...interface{}) (interface{}, error) {
			name, done, err := stringAndCallback(args)
			if err != nil {
				return nil, err
			}
			done(d.Setting(name))
			return nil, nil
		},
		"setSetting": func(args ...interface{}) (interface{}, error) {
			done, err := lastCallback(args)
			if err != nil {
				return nil, err
			}
			if len(args) < 3 {
				return nil, fmt.Errorf("setSetting: want name, value and callback")
			}
			d.SetSetting(fmt.Sprint(args[0]), args[1])
			done(true)
			return nil, nil
		},
		"isWiFiEnabled": func(args ...interface{}) (interface{}, error) {
			d.mu.Lock()
			defer d.mu.Unlock()
			return d.wifiEnabled, nil
		},
		"isWiFiConnected": func(args ...interface{}) (interface{}, error) {
			ssid := d.WifiSSID()
			if ssid == "" {
				return false, nil
			}
			if len(args) == 0 || args[0] == nil {
				return true, nil
			}
			network, ok := args[0].(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("isWiFiConnected: network must be an object, got %T", args[0])
			}
			return network["ssid"] == ssid, nil
		},
		"isCellDataConnected": func(args ...interface{}) (interface{}, error) {
			d.mu.Lock()
			defer d.mu.Unlock()
			return d.cellData, nil
		},
		"enableWiFi": func(args ...interface{}) (interface{}, error) {
			done, err := lastCallback(args)
			if err != nil {
				return nil, err
			}
			d.SetWifiEnabled(true)
			done(true)
			return nil, nil
		},
		"connectToWiFi": func(args ...interface{}) (interface{}, error) {
			done, err := lastCallback(args)
			if err != nil {
				return nil, err
			}
			network, ok := args[0].(map[string]interface{})
			if !ok || len(args) < 2 {
				return nil, fmt.Errorf("connectToWiFi: network must be an object, got %T", args[0])
			}
			ssid, _ := network["ssid"].(string)
			if ssid == "" {
				done(false)
				return nil, nil
			}
			d.ConnectWifi(ssid)
			done(true)
			return nil, nil
		},
	})

	d.engine.SetHost("GaiaDevice", map[string]jsengine.HostFunc{
		"turnScreenOff": func(args ...interface{}) (interface{}, error) {
			d.SetScreen(false)
			return nil, nil
		},
		"turnScreenOn": func(args ...interface{}) (interface{}, error) {
			d.SetScreen(true)
			return nil, nil
		},
		"isScreenEnabled": func(args ...interface{}) (interface{}, error) {
			return d.ScreenEnabled(), nil
		},
		"touchHomeButton": func(args ...interface{}) (interface{}, error) {
			d.PressHome()
			return true, nil
		},
	})

	d.engine.SetHost("GaiaLockScreen", map[string]jsengine.HostFunc{
		"lock": func(args ...interface{}) (interface{}, error) {
			done, err := lastCallback(args)
			if err != nil {
				return nil, err
			}
			d.Lock()
			done(true)
			return nil, nil
		},
		"unlock": func(args ...interface{}) (interface{}, error) {
			done, err := lastCallback(args)
			if err != nil {
				return nil, err
			}
			d.mu.Lock()
			d.locked = false
			d.mu.Unlock()
			done(true)
			return nil, nil
		},
	})

	if err := d.engine.RunScript("window.wrappedJSObject = window;"); err != nil {
		panic(err)
	}
}

func (d *Device) appInfo(app *App) map[string]interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	info := map[string]interface{}{
		"name":   app.Name,
		"origin": app.Origin,
		"src":    app.Origin + "/index.html",
	}
	if app.iframe != nil {
		info["frame"] = app.iframe
	}
	return info
}

func lastCallback(args []interface{}) (jsengine.Callback, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("missing callback")
	}
	done, ok := args[len(args)-1].(jsengine.Callback)
	if !ok {
		return nil, fmt.Errorf("last argument must be a function, got %T", args[len(args)-1])
	}
	return done, nil
}

func stringAndCallback(args []interface{}) (string, jsengine.Callback, error) {
	if len(args) < 2 {
		return "", nil, fmt.Errorf("want a string and a callback, got %d arguments", len(args))
	}
	s, ok := args[0].(string)
	if !ok {
		return "", nil, fmt.Errorf("first argument must be a string, got %T", args[0])
	}
	done, err := lastCallback(args)
	return s, done, err
}
