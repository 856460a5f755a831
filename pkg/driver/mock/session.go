package mock

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/core"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
	"github.com/devicelab-dev/gaiatest/pkg/jsengine"
)

// pngHeader is what Screenshot returns; artifact code only needs bytes.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Session is a driver.Session on a Device.
type Session struct {
	device        *Device
	frame         *Frame
	closed        bool
	scriptTimeout time.Duration
}

var _ driver.Session = (*Session)(nil)

// Frame returns the frame lookups currently run in.
func (s *Session) Frame() *Frame {
	s.device.mu.Lock()
	defer s.device.mu.Unlock()

	return s.frame
}

// FindElement implements driver.Session.
func (s *Session) FindElement(by driver.By) (driver.Element, error) {
	matches, err := s.find(by)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, notFound(by)
	}
	return matches[0], nil
}

// FindElements implements driver.Session.
func (s *Session) FindElements(by driver.By) ([]driver.Element, error) {
	matches, err := s.find(by)
	if err != nil {
		return nil, err
	}
	return toDriver(matches), nil
}

func (s *Session) find(by driver.By) ([]*Element, error) {
	s.device.mu.Lock()
	defer s.device.mu.Unlock()

	if err := s.check(); err != nil {
		return nil, err
	}
	s.device.lookups++
	return s.frame.find(by), nil
}

// SwitchToFrame implements driver.Session.
func (s *Session) SwitchToFrame(el driver.Element) error {
	if el == nil {
		s.device.mu.Lock()
		defer s.device.mu.Unlock()

		s.frame = s.device.top
		return s.check()
	}

	target, ok := el.(*Element)
	if !ok {
		return fmt.Errorf("mock: foreign element %T", el)
	}
	if target.tag != "iframe" {
		return core.ErrElementNotFound.WithMessage("Element is not a frame").
			WithDetails(map[string]interface{}{"element": target.describe()})
	}
	doc := target.Document()

	s.device.mu.Lock()
	defer s.device.mu.Unlock()

	if err := s.check(); err != nil {
		return err
	}
	if err := target.usable(false); err != nil {
		return err
	}
	s.frame = doc
	return nil
}

// SwitchToParentFrame implements driver.Session.
func (s *Session) SwitchToParentFrame() error {
	s.device.mu.Lock()
	defer s.device.mu.Unlock()

	if err := s.check(); err != nil {
		return err
	}
	if owner := s.frame.owner; owner != nil && owner.frame != nil {
		s.frame = owner.frame
	} else {
		s.frame = s.device.top
	}
	return nil
}

// ExecuteScript implements driver.Session.
func (s *Session) ExecuteScript(script string, args ...interface{}) (interface{}, error) {
	globals, err := s.globals()
	if err != nil {
		return nil, err
	}
	result, err := s.device.engine.Call(script, args, globals)
	if err != nil {
		return nil, core.ErrScriptFailed.WithCause(err)
	}
	return result, nil
}

// ExecuteAsyncScript implements driver.Session.
func (s *Session) ExecuteAsyncScript(script string, args ...interface{}) (interface{}, error) {
	globals, err := s.globals()
	if err != nil {
		return nil, err
	}
	result, err := s.device.engine.CallAsync(script, args, globals, s.timeout())
	if err != nil {
		if errors.Is(err, jsengine.ErrScriptTimeout) {
			return nil, core.ErrScriptFailed.WithMessage("Async script timed out").WithCause(err)
		}
		return nil, core.ErrScriptFailed.WithCause(err)
	}
	return result, nil
}

// SetScriptTimeout implements driver.ScriptTimeoutSetter.
func (s *Session) SetScriptTimeout(d time.Duration) error {
	s.device.mu.Lock()
	defer s.device.mu.Unlock()

	s.scriptTimeout = d
	return nil
}

func (s *Session) timeout() time.Duration {
	s.device.mu.Lock()
	defer s.device.mu.Unlock()

	if s.scriptTimeout > 0 {
		return s.scriptTimeout
	}
	return s.device.ScriptTimeout
}

func (s *Session) globals() (map[string]interface{}, error) {
	s.device.mu.Lock()
	defer s.device.mu.Unlock()

	if err := s.check(); err != nil {
		return nil, err
	}
	return map[string]interface{}{"document": &document{frame: s.frame}}, nil
}

// Screenshot implements driver.Session.
func (s *Session) Screenshot() ([]byte, error) {
	s.device.mu.Lock()
	defer s.device.mu.Unlock()

	if err := s.check(); err != nil {
		return nil, err
	}
	return append([]byte(nil), pngHeader...), nil
}

// PageSource implements driver.Session.
func (s *Session) PageSource() (string, error) {
	s.device.mu.Lock()
	defer s.device.mu.Unlock()

	if err := s.check(); err != nil {
		return "", err
	}
	return s.frame.render(), nil
}

// Close implements driver.Session.
func (s *Session) Close() error {
	s.device.mu.Lock()
	defer s.device.mu.Unlock()

	s.closed = true
	return nil
}

// check reports a closed session; callers hold device.mu.
func (s *Session) check() error {
	if s.closed {
		return core.ErrDeviceDisconnected.WithMessage("Session closed")
	}
	return nil
}

// document is the script-side view of a frame.
type document struct {
	frame *Frame
}

func (doc *document) Get(key string) (interface{}, bool) {
	switch key {
	case "getElementById":
		return jsengine.HostFunc(func(args ...interface{}) (interface{}, error) {
			if len(args) == 0 {
				return nil, nil
			}
			if el := doc.frame.ByID(fmt.Sprint(args[0])); el != nil {
				return &node{el: el}, nil
			}
			return nil, nil
		}), true
	case "querySelector":
		return jsengine.HostFunc(func(args ...interface{}) (interface{}, error) {
			if len(args) == 0 {
				return nil, nil
			}
			by := driver.CSS(fmt.Sprint(args[0]))
			doc.frame.device.mu.Lock()
			matches := doc.frame.find(by)
			doc.frame.device.mu.Unlock()
			if len(matches) == 0 {
				return nil, nil
			}
			return &node{el: matches[0]}, nil
		}), true
	}
	return nil, false
}

func (doc *document) Set(string, interface{}) bool { return false }

func (doc *document) Keys() []string { return []string{"getElementById", "querySelector"} }

// node is the script-side view of an element.
type node struct {
	el *Element
}

func (n *node) Get(key string) (interface{}, bool) {
	el := n.el
	switch key {
	case "click":
		return jsengine.HostFunc(func(args ...interface{}) (interface{}, error) {
			return nil, el.Tap()
		}), true
	}

	el.device.mu.Lock()
	defer el.device.mu.Unlock()

	switch key {
	case "id":
		return el.id, true
	case "tagName":
		return el.tag, true
	case "value":
		return el.attrs["value"], true
	case "textContent":
		return el.text, true
	case "hidden":
		return el.hidden, true
	case "className":
		return el.attr("class"), true
	}
	if v, ok := el.attrs[key]; ok {
		return v, true
	}
	return nil, false
}

func (n *node) Set(key string, value interface{}) bool {
	switch key {
	case "value":
		n.el.SetAttr("value", fmt.Sprint(value))
	case "textContent":
		n.el.SetText(fmt.Sprint(value))
	case "hidden":
		b, _ := value.(bool)
		n.el.setHidden(b)
	default:
		n.el.SetAttr(key, fmt.Sprint(value))
	}
	return true
}

func (n *node) Keys() []string {
	n.el.device.mu.Lock()
	defer n.el.device.mu.Unlock()

	keys := []string{"click", "id", "tagName", "value", "textContent", "hidden", "className"}
	for k := range n.el.attrs {
		if k != "value" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys[7:])
	return keys
}
