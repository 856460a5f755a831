// Package driver defines the automation boundary page objects talk to: a
// session on the device's browser-automation server and the elements it finds.
package driver

import (
	"fmt"
	"strings"
	"time"
)

// Strategy is a W3C WebDriver location strategy.
type Strategy string

// Location strategies.
const (
	StrategyID        Strategy = "id"
	StrategyCSS       Strategy = "css selector"
	StrategyXPath     Strategy = "xpath"
	StrategyClassName Strategy = "class name"
	StrategyTagName   Strategy = "tag name"
	StrategyName      Strategy = "name"
	StrategyLinkText  Strategy = "link text"
)

// By identifies a UI element: a strategy and a value.
type By struct {
	Strategy Strategy
	Value    string
}

// ID selects by element id.
func ID(id string) By { return By{Strategy: StrategyID, Value: id} }

// CSS selects by CSS selector.
func CSS(selector string) By { return By{Strategy: StrategyCSS, Value: selector} }

// XPath selects by XPath expression.
func XPath(expr string) By { return By{Strategy: StrategyXPath, Value: expr} }

// ClassName selects by a single class name.
func ClassName(name string) By { return By{Strategy: StrategyClassName, Value: name} }

// TagName selects by tag name.
func TagName(name string) By { return By{Strategy: StrategyTagName, Value: name} }

// Name selects by the name attribute.
func Name(name string) By { return By{Strategy: StrategyName, Value: name} }

// LinkText selects anchors by their visible text.
func LinkText(text string) By { return By{Strategy: StrategyLinkText, Value: text} }

// String describes the selector for logs and error details.
func (b By) String() string {
	return fmt.Sprintf("%s=%s", b.Strategy, b.Value)
}

// cssString escapes a value for use inside a double-quoted CSS string.
var cssString = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// W3C returns the strategy and value as sent on the wire. W3C dropped "id",
// "class name" and "name"; they are rewritten to CSS.
func (b By) W3C() (using, value string) {
	switch b.Strategy {
	case StrategyID:
		return string(StrategyCSS), fmt.Sprintf(`[id="%s"]`, cssString.Replace(b.Value))
	case StrategyClassName:
		return string(StrategyCSS), "." + b.Value
	case StrategyName:
		return string(StrategyCSS), fmt.Sprintf(`[name="%s"]`, cssString.Replace(b.Value))
	default:
		return string(b.Strategy), b.Value
	}
}

// CSSSelector converts the selector to CSS where possible (used by backends
// whose lookups are CSS based). ok is false for XPath and link text.
func (b By) CSSSelector() (selector string, ok bool) {
	switch b.Strategy {
	case StrategyCSS, StrategyTagName:
		return b.Value, true
	case StrategyID, StrategyClassName, StrategyName:
		_, v := b.W3C()
		return v, true
	default:
		return "", false
	}
}

// Element is a reference to a node inside the current frame of a session.
type Element interface {
	// Handle returns the opaque reference the automation server assigned.
	Handle() string

	Tap() error
	SendKeys(text string) error
	Clear() error
	Text() (string, error)
	Attribute(name string) (string, error)
	Displayed() (bool, error)
	Enabled() (bool, error)

	// Scoped lookups below this element.
	FindElement(by By) (Element, error)
	FindElements(by By) ([]Element, error)
}

// Session is one connection to the automation server on the device.
// FindElement fails with core.ErrElementNotFound when nothing matches;
// FindElements returns an empty slice instead.
type Session interface {
	FindElement(by By) (Element, error)
	FindElements(by By) ([]Element, error)

	// SwitchToFrame enters the iframe el; a nil el returns to the top-level document.
	SwitchToFrame(el Element) error
	SwitchToParentFrame() error

	// ExecuteScript runs script in the current frame. Elements among args are
	// passed as references; element references in the result come back as Element.
	ExecuteScript(script string, args ...interface{}) (interface{}, error)
	// ExecuteAsyncScript passes a completion callback as the last argument
	// and returns the value handed to it.
	ExecuteAsyncScript(script string, args ...interface{}) (interface{}, error)

	Screenshot() ([]byte, error)
	PageSource() (string, error)
	Close() error
}

// ScriptTimeoutSetter is implemented by sessions that can change how long an
// async script may run before it fails.
type ScriptTimeoutSetter interface {
	SetScriptTimeout(d time.Duration) error
}

// WithScriptTimeout runs fn with the session's script timeout raised to d and
// restores restore afterwards. Sessions without a settable timeout run fn as is.
func WithScriptTimeout(s Session, d, restore time.Duration, fn func() error) error {
	setter, ok := s.(ScriptTimeoutSetter)
	if !ok || d <= 0 {
		return fn()
	}
	if err := setter.SetScriptTimeout(d); err != nil {
		return fmt.Errorf("set script timeout: %w", err)
	}
	err := fn()
	if restore > 0 {
		if rerr := setter.SetScriptTimeout(restore); rerr != nil && err == nil {
			err = fmt.Errorf("restore script timeout: %w", rerr)
		}
	}
	return err
}
