package agouti

import (
	"github.com/devicelab-dev/gaiatest/pkg/driver"
	ag "github.com/sclevine/agouti"
	"github.com/sclevine/agouti/api"
)

// Element pairs the raw WebDriver element with the agouti selection that
// found it. Elements returned from scripts have no selection.
type Element struct {
	el      *api.Element
	sel     *ag.Selection
	session *Session
}

var _ driver.Element = (*Element)(nil)

func (e *Element) Handle() string { return e.el.ID }

// Tap uses a touch tap when a selection is available, a click otherwise.
func (e *Element) Tap() error {
	if e.sel != nil {
		if err := e.sel.Tap(ag.SingleTap); err == nil {
			return nil
		}
	}
	return mapError(e.el.Click(), driver.By{})
}

func (e *Element) SendKeys(text string) error {
	return mapError(e.el.Value(text), driver.By{})
}

func (e *Element) Clear() error {
	return mapError(e.el.Clear(), driver.By{})
}

func (e *Element) Text() (string, error) {
	text, err := e.el.GetText()
	return text, mapError(err, driver.By{})
}

func (e *Element) Attribute(name string) (string, error) {
	value, err := e.el.GetAttribute(name)
	return value, mapError(err, driver.By{})
}

func (e *Element) Displayed() (bool, error) {
	displayed, err := e.el.IsDisplayed()
	return displayed, mapError(err, driver.By{})
}

func (e *Element) Enabled() (bool, error) {
	enabled, err := e.el.IsEnabled()
	return enabled, mapError(err, driver.By{})
}

func (e *Element) FindElement(by driver.By) (driver.Element, error) {
	elements, err := e.FindElements(by)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, notFound(by)
	}
	return elements[0], nil
}

func (e *Element) FindElements(by driver.By) ([]driver.Element, error) {
	if e.sel != nil {
		ms, err := selectAll(e.sel, by)
		if err != nil {
			return nil, err
		}
		return e.session.collect(ms, by)
	}

	using, value := by.W3C()
	children, err := e.el.GetElements(api.Selector{Using: using, Value: value})
	if err != nil {
		return nil, mapError(err, by)
	}
	elements := make([]driver.Element, len(children))
	for i, child := range children {
		elements[i] = &Element{el: child, session: e.session}
	}
	return elements, nil
}
