package gaia

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// Phone is one telephone entry of a contact.
type Phone struct {
	Type  string
	Value string
}

// Contact is a contacts database record. On the device every name field is a
// list; only the first value is modelled here.
type Contact struct {
	ID         string
	GivenName  string
	FamilyName string
	Name       string
	Email      string
	Company    string
	Tel        []Phone
}

// MockContact returns a contact with unique names and a random mobile number.
func MockContact() Contact {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	given := "gn" + suffix
	family := "fn" + suffix
	return Contact{
		GivenName:  given,
		FamilyName: family,
		Name:       given + " " + family,
		Email:      given + "@restmail.net",
		Company:    "Gaia",
		Tel:        []Phone{{Type: "Mobile", Value: randomNumber(10)}},
	}
}

func randomNumber(digits int) string {
	var b strings.Builder
	for i := 0; i < digits; i++ {
		b.WriteByte(byte('0' + rand.Intn(10)))
	}
	return b.String()
}

// PhoneNumbers returns the values of c.Tel in order.
func (c Contact) PhoneNumbers() []string {
	out := make([]string, len(c.Tel))
	for i, t := range c.Tel {
		out[i] = t.Value
	}
	return out
}

// ToMap encodes c the way the device's contacts API stores it.
func (c Contact) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"givenName":  []interface{}{c.GivenName},
		"familyName": []interface{}{c.FamilyName},
		"name":       []interface{}{c.Name},
	}
	if c.ID != "" {
		m["id"] = c.ID
	}
	if c.Email != "" {
		m["email"] = []interface{}{map[string]interface{}{
			"type":  []interface{}{"Personal"},
			"value": c.Email,
		}}
	}
	if c.Company != "" {
		m["org"] = []interface{}{c.Company}
	}
	tel := make([]interface{}, len(c.Tel))
	for i, t := range c.Tel {
		tel[i] = map[string]interface{}{
			"type":  []interface{}{t.Type},
			"value": t.Value,
		}
	}
	m["tel"] = tel
	return m
}

// ContactFromMap decodes a contact returned by the device.
func ContactFromMap(m map[string]interface{}) Contact {
	c := Contact{
		ID:         toString(m["id"]),
		GivenName:  first(m["givenName"]),
		FamilyName: first(m["familyName"]),
		Name:       first(m["name"]),
		Company:    first(m["org"]),
	}
	if emails := toList(m["email"]); len(emails) > 0 {
		if e, ok := emails[0].(map[string]interface{}); ok {
			c.Email = toString(e["value"])
		}
	}
	for _, item := range toList(m["tel"]) {
		t, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		c.Tel = append(c.Tel, Phone{Type: first(t["type"]), Value: toString(t["value"])})
	}
	if c.Name == "" && (c.GivenName != "" || c.FamilyName != "") {
		c.Name = strings.TrimSpace(c.GivenName + " " + c.FamilyName)
	}
	return c
}

// first returns a string field that may be stored as a scalar or a list.
func first(v interface{}) string {
	if list := toList(v); list != nil {
		if len(list) == 0 {
			return ""
		}
		return toString(list[0])
	}
	return toString(v)
}

func toList(v interface{}) []interface{} {
	switch val := v.(type) {
	case []interface{}:
		return val
	case []string:
		out := make([]interface{}, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(val))
		for i, m := range val {
			out[i] = m
		}
		return out
	}
	return nil
}

// toString renders script results, which arrive as JSON (float64) or from
// the fake device's runtime (int64).
func toString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprint(val)
	default:
		return fmt.Sprint(val)
	}
}

// toInt converts a numeric script result.
func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	}
	return 0, false
}
