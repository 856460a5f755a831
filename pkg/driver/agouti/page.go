// Package agouti implements driver.Session on top of an agouti page, for
// automation servers agouti already knows how to talk to.
package agouti

import (
	"fmt"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/core"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
	"github.com/devicelab-dev/gaiatest/pkg/logger"
	"github.com/rs/zerolog"
	ag "github.com/sclevine/agouti"
	"github.com/sclevine/agouti/api"
)

// Legacy and W3C element reference keys; servers accept either.
const (
	legacyElementKey = "ELEMENT"
	w3cElementKey    = "element-6066-11e4-a52e-4f735466cecf"
)

// Session is a driver.Session backed by an *agouti.Page.
type Session struct {
	page *ag.Page
	log  zerolog.Logger
}

var _ driver.Session = (*Session)(nil)

// Open connects to the WebDriver server at url.
func Open(url string, capabilities map[string]interface{}) (*Session, error) {
	caps := ag.NewCapabilities()
	for k, v := range capabilities {
		caps[k] = v
	}
	page, err := ag.NewPage(url, ag.Desired(caps))
	if err != nil {
		return nil, core.ErrServerUnreachable.
			WithDetails(map[string]interface{}{"server": url}).
			WithCause(err)
	}
	return Wrap(page), nil
}

// Wrap adapts an existing page.
func Wrap(page *ag.Page) *Session {
	return &Session{page: page, log: logger.WithComponent("agouti")}
}

// SetScriptTimeout implements driver.ScriptTimeoutSetter.
func (s *Session) SetScriptTimeout(d time.Duration) error {
	return s.page.SetScriptTimeout(int(d.Milliseconds()))
}

// FindElement implements driver.Session.
func (s *Session) FindElement(by driver.By) (driver.Element, error) {
	elements, err := s.FindElements(by)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, notFound(by)
	}
	return elements[0], nil
}

// FindElements implements driver.Session.
func (s *Session) FindElements(by driver.By) ([]driver.Element, error) {
	ms, err := selectAll(s.page, by)
	if err != nil {
		return nil, err
	}
	return s.collect(ms, by)
}

func (s *Session) collect(ms *ag.MultiSelection, by driver.By) ([]driver.Element, error) {
	apiElements, err := ms.Elements()
	if err != nil {
		s.log.Debug().Str("selector", by.String()).Err(err).Msg("lookup failed")
		return nil, mapError(err, by)
	}
	elements := make([]driver.Element, len(apiElements))
	for i, el := range apiElements {
		elements[i] = &Element{el: el, sel: ms.At(i), session: s}
	}
	return elements, nil
}

// SwitchToFrame implements driver.Session.
func (s *Session) SwitchToFrame(el driver.Element) error {
	if el == nil {
		return s.page.SwitchToRootFrame()
	}
	if e, ok := el.(*Element); ok && e.sel != nil {
		return mapError(e.sel.SwitchToFrame(), driver.By{})
	}
	return mapError(s.page.Session().Frame(&api.Element{ID: el.Handle(), Session: s.page.Session()}), driver.By{})
}

// SwitchToParentFrame implements driver.Session.
func (s *Session) SwitchToParentFrame() error {
	return mapError(s.page.SwitchToParentFrame(), driver.By{})
}

// ExecuteScript implements driver.Session.
func (s *Session) ExecuteScript(script string, args ...interface{}) (interface{}, error) {
	var result interface{}
	if err := s.page.Session().Execute(script, encodeArgs(args), &result); err != nil {
		return nil, core.ErrScriptFailed.WithCause(err)
	}
	return s.decode(result), nil
}

// ExecuteAsyncScript implements driver.Session.
func (s *Session) ExecuteAsyncScript(script string, args ...interface{}) (interface{}, error) {
	request := map[string]interface{}{
		"script": script,
		"args":   encodeArgs(args),
	}
	var result interface{}
	if err := s.page.Session().Send("POST", "execute_async", request, &result); err != nil {
		return nil, core.ErrScriptFailed.WithCause(err)
	}
	return s.decode(result), nil
}

// Screenshot implements driver.Session.
func (s *Session) Screenshot() ([]byte, error) {
	return s.page.Session().GetScreenshot()
}

// PageSource implements driver.Session.
func (s *Session) PageSource() (string, error) {
	return s.page.HTML()
}

// Close implements driver.Session.
func (s *Session) Close() error {
	return s.page.Destroy()
}

func (s *Session) decode(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		if id := elementID(val); id != "" {
			return &Element{el: &api.Element{ID: id, Session: s.page.Session()}, session: s}
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

func elementID(m map[string]interface{}) string {
	if len(m) > 2 {
		return ""
	}
	if id, ok := m[w3cElementKey].(string); ok {
		return id
	}
	if id, ok := m[legacyElementKey].(string); ok {
		return id
	}
	return ""
}

func encodeArgs(args []interface{}) []interface{} {
	out := make([]interface{}, len(args))
	for i, arg := range args {
		switch val := arg.(type) {
		case driver.Element:
			out[i] = map[string]interface{}{legacyElementKey: val.Handle(), w3cElementKey: val.Handle()}
		case []interface{}:
			out[i] = encodeArgs(val)
		default:
			out[i] = arg
		}
	}
	return out
}

// selectable is the lookup surface shared by *ag.Page and *ag.Selection.
type selectable interface {
	All(selector string) *ag.MultiSelection
	AllByXPath(selector string) *ag.MultiSelection
	AllByLink(text string) *ag.MultiSelection
}

func selectAll(root selectable, by driver.By) (*ag.MultiSelection, error) {
	if css, ok := by.CSSSelector(); ok {
		return root.All(css), nil
	}
	switch by.Strategy {
	case driver.StrategyXPath:
		return root.AllByXPath(by.Value), nil
	case driver.StrategyLinkText:
		return root.AllByLink(by.Value), nil
	default:
		return nil, fmt.Errorf("unsupported selector strategy %q", by.Strategy)
	}
}

func notFound(by driver.By) error {
	return core.ErrElementNotFound.WithDetails(map[string]interface{}{"selector": by.String()})
}
