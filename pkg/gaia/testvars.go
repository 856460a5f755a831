package gaia

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/devicelab-dev/gaiatest/pkg/core"
	"gopkg.in/yaml.v3"
)

// TestVars are the per-device values scenarios need: accounts, networks and
// phone numbers. Files are YAML; JSON files parse too.
//
//	email:
//	  gmail: {email: user@gmail.com, password: secret}
//	wifi: {ssid: gaia-net, keyManagement: WPA-PSK, psk: secret}
//	carrier: {phone_number: "+15551230000"}
//	local_phone_numbers: ["+15551230001"]
type TestVars map[string]interface{}

// LoadTestVars reads test variables from path.
func LoadTestVars(path string) (TestVars, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read testvars: %w", err)
	}
	vars, err := ParseTestVars(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vars, nil
}

// ParseTestVars decodes YAML (or JSON) test variables.
func ParseTestVars(data []byte) (TestVars, error) {
	vars := TestVars{}
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("failed to parse testvars: %w", err)
	}
	return vars, nil
}

// Lookup resolves a dotted key such as "email.gmail.password". Numeric
// segments index lists: "local_phone_numbers.0".
func (v TestVars) Lookup(key string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(v)
	for _, part := range strings.Split(key, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = next
		case []interface{}:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}

// String returns the value at key as a string.
func (v TestVars) String(key string) (string, error) {
	val, ok := v.Lookup(key)
	if !ok {
		return "", missing(key)
	}
	switch val.(type) {
	case map[string]interface{}, []interface{}:
		return "", core.ErrInvalidConfig.
			WithMessage(fmt.Sprintf("testvar %s is not a scalar", key)).
			WithDetails(map[string]interface{}{"key": key})
	}
	return toString(val), nil
}

// Int returns the value at key as an integer.
func (v TestVars) Int(key string) (int, error) {
	val, ok := v.Lookup(key)
	if !ok {
		return 0, missing(key)
	}
	if n, ok := toInt(val); ok {
		return n, nil
	}
	n, err := strconv.Atoi(toString(val))
	if err != nil {
		return 0, core.ErrInvalidConfig.
			WithMessage(fmt.Sprintf("testvar %s is not a number", key)).
			WithCause(err)
	}
	return n, nil
}

// Missing returns the keys that do not resolve, sorted.
func (v TestVars) Missing(keys ...string) []string {
	var out []string
	for _, key := range keys {
		if _, ok := v.Lookup(key); !ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// WifiNetwork describes the access point scenarios join.
type WifiNetwork struct {
	SSID          string
	KeyManagement string
	PSK           string
	WEP           string
}

// Secured reports whether joining needs a key.
func (n WifiNetwork) Secured() bool {
	return n.KeyManagement != ""
}

// Password returns the PSK or, failing that, the WEP key.
func (n WifiNetwork) Password() string {
	if n.PSK != "" {
		return n.PSK
	}
	return n.WEP
}

// ToMap encodes the network as the data layer expects it.
func (n WifiNetwork) ToMap() map[string]interface{} {
	m := map[string]interface{}{"ssid": n.SSID}
	if n.KeyManagement != "" {
		m["keyManagement"] = n.KeyManagement
	}
	if n.PSK != "" {
		m["psk"] = n.PSK
	}
	if n.WEP != "" {
		m["wep"] = n.WEP
	}
	return m
}

// Wifi returns the network under "wifi". A secured network without a key is
// a configuration error.
func (v TestVars) Wifi() (WifiNetwork, error) {
	ssid, err := v.String("wifi.ssid")
	if err != nil {
		return WifiNetwork{}, err
	}
	n := WifiNetwork{SSID: ssid}
	n.KeyManagement, _ = v.String("wifi.keyManagement")
	n.PSK, _ = v.String("wifi.psk")
	n.WEP, _ = v.String("wifi.wep")
	if n.Secured() && n.Password() == "" {
		return n, core.ErrInvalidConfig.
			WithMessage("No psk or wep key found in testvars for secured wifi network").
			WithDetails(map[string]interface{}{"ssid": ssid})
	}
	return n, nil
}

func missing(key string) error {
	return core.ErrMissingRequired.
		WithMessage(fmt.Sprintf("testvar %s is not set", key)).
		WithDetails(map[string]interface{}{"key": key})
}
