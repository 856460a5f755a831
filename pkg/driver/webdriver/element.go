package webdriver

import (
	"errors"

	"github.com/devicelab-dev/gaiatest/pkg/driver"
)

// Element is a driver.Element addressed by its WebDriver reference.
type Element struct {
	id      string
	session *Session
}

var _ driver.Element = (*Element)(nil)

// Handle implements driver.Element.
func (e *Element) Handle() string { return e.id }

// Tap sends a touch tap and falls back to a click when the server has no
// touch support.
func (e *Element) Tap() error {
	err := e.session.client.TapElement(e.id)
	if err == nil {
		return nil
	}
	var wdErr *Error
	if errors.As(err, &wdErr) && (wdErr.Code == "unknown command" || wdErr.Code == "unsupported operation") {
		err = e.session.client.ClickElement(e.id)
	}
	return e.mapped(err)
}

func (e *Element) SendKeys(text string) error {
	return e.mapped(e.session.client.SendKeysToElement(e.id, text))
}

func (e *Element) Clear() error {
	return e.mapped(e.session.client.ClearElement(e.id))
}

func (e *Element) Text() (string, error) {
	text, err := e.session.client.GetElementText(e.id)
	return text, e.mapped(err)
}

func (e *Element) Attribute(name string) (string, error) {
	value, err := e.session.client.GetElementAttribute(e.id, name)
	return value, e.mapped(err)
}

func (e *Element) Displayed() (bool, error) {
	displayed, err := e.session.client.IsElementDisplayed(e.id)
	return displayed, e.mapped(err)
}

func (e *Element) Enabled() (bool, error) {
	enabled, err := e.session.client.IsElementEnabled(e.id)
	return enabled, e.mapped(err)
}

// FindElement looks up a descendant.
func (e *Element) FindElement(by driver.By) (driver.Element, error) {
	using, value := by.W3C()
	id, err := e.session.client.FindElementFrom(e.id, using, value)
	if err != nil {
		return nil, mapError(err, by)
	}
	return &Element{id: id, session: e.session}, nil
}

// FindElements looks up all matching descendants.
func (e *Element) FindElements(by driver.By) ([]driver.Element, error) {
	using, value := by.W3C()
	ids, err := e.session.client.FindElementsFrom(e.id, using, value)
	if err != nil {
		return nil, mapError(err, by)
	}
	return e.session.wrap(ids), nil
}

func (e *Element) mapped(err error) error {
	return mapError(err, driver.By{})
}
