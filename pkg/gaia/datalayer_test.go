package gaia

import (
	"testing"

	"github.com/devicelab-dev/gaiatest/pkg/core"
	"github.com/devicelab-dev/gaiatest/pkg/driver/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataLayer_Contacts(t *testing.T) {
	env, d := newTestEnv(t)

	contact := MockContact()
	require.NoError(t, env.Data.InsertContact(contact))
	require.Len(t, d.Contacts(), 1)

	all, err := env.Data.AllContacts()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.NotEmpty(t, all[0].ID)
	assert.Equal(t, contact.Name, all[0].Name)
	assert.Equal(t, contact.PhoneNumbers(), all[0].PhoneNumbers())
	assert.Equal(t, contact.Email, all[0].Email)

	require.NoError(t, env.Data.RemoveAllContacts())
	all, err = env.Data.AllContacts()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDataLayer_SendSMS(t *testing.T) {
	env, d := newTestEnv(t)

	require.NoError(t, env.Data.SendSMS("+15551230000", "Automated Test 1"))
	assert.Equal(t, []mock.SMS{{Number: "+15551230000", Body: "Automated Test 1"}}, d.SentSMS())
}

func TestDataLayer_Settings(t *testing.T) {
	env, _ := newTestEnv(t)

	v, err := env.Data.GetSetting("geolocation.enabled")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, env.Data.SetSetting("geolocation.enabled", true))
	v, err = env.Data.GetSetting("geolocation.enabled")
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestDataLayer_Connectivity(t *testing.T) {
	env, d := newTestEnv(t)
	network := WifiNetwork{SSID: "gaia-net"}

	enabled, err := env.Data.IsWifiEnabled()
	require.NoError(t, err)
	assert.True(t, enabled)

	d.SetWifiEnabled(false)
	enabled, err = env.Data.IsWifiEnabled()
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, env.Data.EnableWifi())
	connected, err := env.Data.IsWifiConnected(network)
	require.NoError(t, err)
	assert.False(t, connected)

	d.ConnectWifi("gaia-net")
	connected, err = env.Data.IsWifiConnected(network)
	require.NoError(t, err)
	assert.True(t, connected)

	connected, err = env.Data.IsWifiConnected(WifiNetwork{SSID: "other"})
	require.NoError(t, err)
	assert.False(t, connected)

	cell, err := env.Data.IsCellDataConnected()
	require.NoError(t, err)
	assert.False(t, cell)
	d.SetCellData(true)
	cell, err = env.Data.IsCellDataConnected()
	require.NoError(t, err)
	assert.True(t, cell)
}

func TestDataLayer_ConnectToWifi(t *testing.T) {
	env, d := newTestEnv(t)
	d.SetWifiEnabled(false)

	require.NoError(t, env.Data.ConnectToWifi(WifiNetwork{SSID: "gaia-net", KeyManagement: "WPA-PSK", PSK: "secret"}))
	assert.Equal(t, "gaia-net", d.WifiSSID())

	err := env.Data.ConnectToWifi(WifiNetwork{})
	execErr, ok := core.AsExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, core.ErrScriptFailed.Code, execErr.Code)
}

func TestDataLayer_RunsInTopFrame(t *testing.T) {
	env, d := newTestEnv(t)
	d.Install("FTU", "app://ftu.gaiamobile.org", nil)
	app := d.Launch("FTU")
	session := env.Session.(*mock.Session)
	require.NoError(t, session.SwitchToFrame(app.Document().Owner()))

	_, err := env.Data.IsWifiEnabled()
	require.NoError(t, err)
	assert.Same(t, d.Top(), session.Frame())
}

func TestDataLayer_ScriptFailure(t *testing.T) {
	env, _ := newTestEnv(t)
	require.NoError(t, env.Session.Close())

	_, err := env.Data.AllContacts()
	execErr, ok := core.AsExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, core.ErrDeviceDisconnected.Code, execErr.Code)
}
