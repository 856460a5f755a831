package webdriver

import (
	"errors"
	"fmt"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/core"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
)

// Options configure a new session.
type Options struct {
	ServerURL     string
	Capabilities  map[string]interface{}
	ScriptTimeout time.Duration
}

// Session is a driver.Session backed by a WebDriver client.
type Session struct {
	client *Client
}

var _ driver.Session = (*Session)(nil)

// Open creates a WebDriver session on the automation server.
func Open(opts Options) (*Session, error) {
	client := NewClient(opts.ServerURL)
	if err := client.Connect(opts.Capabilities); err != nil {
		return nil, core.ErrServerUnreachable.
			WithDetails(map[string]interface{}{"server": opts.ServerURL}).
			WithCause(err)
	}
	if err := client.SetTimeouts(opts.ScriptTimeout, 0); err != nil {
		client.Disconnect()
		return nil, fmt.Errorf("failed to set timeouts: %w", err)
	}
	return &Session{client: client}, nil
}

// NewSession wraps an already connected client.
func NewSession(client *Client) *Session {
	return &Session{client: client}
}

// SetScriptTimeout implements driver.ScriptTimeoutSetter.
func (s *Session) SetScriptTimeout(d time.Duration) error {
	return s.client.SetTimeouts(d, 0)
}

// Client exposes the underlying client.
func (s *Session) Client() *Client {
	return s.client
}

// FindElement implements driver.Session.
func (s *Session) FindElement(by driver.By) (driver.Element, error) {
	using, value := by.W3C()
	id, err := s.client.FindElement(using, value)
	if err != nil {
		return nil, mapError(err, by)
	}
	return &Element{id: id, session: s}, nil
}

// FindElements implements driver.Session.
func (s *Session) FindElements(by driver.By) ([]driver.Element, error) {
	using, value := by.W3C()
	ids, err := s.client.FindElements(using, value)
	if err != nil {
		return nil, mapError(err, by)
	}
	return s.wrap(ids), nil
}

// SwitchToFrame implements driver.Session.
func (s *Session) SwitchToFrame(el driver.Element) error {
	id := ""
	if el != nil {
		id = el.Handle()
	}
	return mapError(s.client.SwitchToFrame(id), driver.By{})
}

// SwitchToParentFrame implements driver.Session.
func (s *Session) SwitchToParentFrame() error {
	return mapError(s.client.SwitchToParentFrame(), driver.By{})
}

// ExecuteScript implements driver.Session.
func (s *Session) ExecuteScript(script string, args ...interface{}) (interface{}, error) {
	result, err := s.client.ExecuteSync(script, encodeArgs(args))
	if err != nil {
		return nil, mapError(err, driver.By{})
	}
	return s.decode(result), nil
}

// ExecuteAsyncScript implements driver.Session.
func (s *Session) ExecuteAsyncScript(script string, args ...interface{}) (interface{}, error) {
	result, err := s.client.ExecuteAsync(script, encodeArgs(args))
	if err != nil {
		return nil, mapError(err, driver.By{})
	}
	return s.decode(result), nil
}

// Screenshot implements driver.Session.
func (s *Session) Screenshot() ([]byte, error) {
	return s.client.Screenshot()
}

// PageSource implements driver.Session.
func (s *Session) PageSource() (string, error) {
	return s.client.Source()
}

// Close implements driver.Session.
func (s *Session) Close() error {
	return s.client.Disconnect()
}

func (s *Session) wrap(ids []string) []driver.Element {
	elements := make([]driver.Element, len(ids))
	for i, id := range ids {
		elements[i] = &Element{id: id, session: s}
	}
	return elements
}

// decode turns element references in a script result into Elements.
func (s *Session) decode(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		if id := extractElementID(val); id != "" && len(val) == 1 {
			return &Element{id: id, session: s}
		}
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = s.decode(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = s.decode(item)
		}
		return out
	default:
		return v
	}
}

func encodeArgs(args []interface{}) []interface{} {
	out := make([]interface{}, len(args))
	for i, arg := range args {
		out[i] = encodeArg(arg)
	}
	return out
}

func encodeArg(arg interface{}) interface{} {
	switch val := arg.(type) {
	case driver.Element:
		return map[string]interface{}{w3cElementKey: val.Handle()}
	case []driver.Element:
		out := make([]interface{}, len(val))
		for i, el := range val {
			out[i] = encodeArg(el)
		}
		return out
	case []interface{}:
		return encodeArgs(val)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = encodeArg(item)
		}
		return out
	default:
		return arg
	}
}

// mapError translates WebDriver error codes into the execution error taxonomy.
func mapError(err error, by driver.By) error {
	if err == nil {
		return nil
	}
	var wdErr *Error
	if !errors.As(err, &wdErr) {
		return core.ErrDeviceDisconnected.WithCause(err)
	}

	var details map[string]interface{}
	if by.Value != "" {
		details = map[string]interface{}{"selector": by.String()}
	}

	switch wdErr.Code {
	case "no such element", "no such frame":
		return core.ErrElementNotFound.WithDetails(details).WithCause(err)
	case "stale element reference":
		return core.ErrStaleElement.WithDetails(details).WithCause(err)
	case "element not interactable":
		return core.ErrElementNotVisible.WithDetails(details).WithCause(err)
	case "javascript error", "script timeout":
		return core.ErrScriptFailed.WithCause(err)
	case "invalid session id":
		return core.ErrDeviceDisconnected.WithCause(err)
	default:
		return err
	}
}
