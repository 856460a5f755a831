package mock

import (
	"fmt"
	"sort"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/devicelab-dev/gaiatest/pkg/core"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
	"golang.org/x/net/html"
)

// Frame is one document: the system frame or an app's iframe content.
type Frame struct {
	Name   string
	device *Device
	owner  *Element // iframe element; nil for the top frame
	roots  []*Element
}

// Add appends top-level elements to the document and returns the first.
func (f *Frame) Add(elements ...*Element) *Element {
	f.device.mu.Lock()
	defer f.device.mu.Unlock()

	for _, el := range elements {
		el.attach(f, nil)
		f.roots = append(f.roots, el)
	}
	if len(elements) == 0 {
		return nil
	}
	return elements[0]
}

// Reset detaches every element; references held by sessions go stale.
func (f *Frame) Reset() {
	f.device.mu.Lock()
	defer f.device.mu.Unlock()

	for _, el := range f.roots {
		el.detach()
	}
	f.roots = nil
}

// ByID returns the attached element with the given DOM id, or nil.
func (f *Frame) ByID(id string) *Element {
	f.device.mu.Lock()
	defer f.device.mu.Unlock()

	return f.byID(id)
}

func (f *Frame) byID(id string) *Element {
	var found *Element
	f.walk(func(el *Element) bool {
		if el.id == id {
			found = el
			return false
		}
		return true
	})
	return found
}

// Owner returns the iframe element hosting this document.
func (f *Frame) Owner() *Element { return f.owner }

// walk visits attached elements in document order until visit returns false.
func (f *Frame) walk(visit func(*Element) bool) {
	for _, root := range f.roots {
		if !root.walk(visit) {
			return
		}
	}
}

func (f *Frame) find(by driver.By) []*Element {
	match := f.matcher(by)
	var matches []*Element
	f.walk(func(el *Element) bool {
		if match(el) {
			matches = append(matches, el)
		}
		return true
	})
	return matches
}

func (f *Frame) render() string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, root := range f.roots {
		root.render(&b)
	}
	b.WriteString("</body></html>")
	return b.String()
}

// Element is a node of the in-memory DOM. Builder methods (With*, Hidden,
// Matching, On*) and mutators are safe to call while sessions use the device.
type Element struct {
	device *Device
	handle string

	frame    *Frame
	parent   *Element
	children []*Element
	detached bool

	tag       string
	id        string
	classes   []string
	attrs     map[string]string
	text      string
	hidden    bool
	disabled  bool
	selectors []driver.By
	content   *Frame

	onTap  func()
	onKeys func(text string)
}

var _ driver.Element = (*Element)(nil)

// WithText sets the element's text.
func (e *Element) WithText(text string) *Element {
	e.SetText(text)
	return e
}

// WithAttr sets an attribute.
func (e *Element) WithAttr(name, value string) *Element {
	e.SetAttr(name, value)
	return e
}

// WithClass adds CSS classes.
func (e *Element) WithClass(classes ...string) *Element {
	e.device.mu.Lock()
	defer e.device.mu.Unlock()

	e.classes = append(e.classes, classes...)
	return e
}

// Matching registers selectors that resolve to this element, typically XPath
// or CSS the fake tree does not reproduce structurally.
func (e *Element) Matching(selectors ...driver.By) *Element {
	e.device.mu.Lock()
	defer e.device.mu.Unlock()

	e.selectors = append(e.selectors, selectors...)
	return e
}

// Hidden marks the element as not displayed.
func (e *Element) Hidden() *Element {
	e.setHidden(true)
	return e
}

// OnTap sets the tap handler. Handlers run without the device lock held.
func (e *Element) OnTap(fn func()) *Element {
	e.device.mu.Lock()
	defer e.device.mu.Unlock()

	e.onTap = fn
	return e
}

// OnKeys sets the handler called after text is typed into the element.
func (e *Element) OnKeys(fn func(text string)) *Element {
	e.device.mu.Lock()
	defer e.device.mu.Unlock()

	e.onKeys = fn
	return e
}

// Append adds children and returns e.
func (e *Element) Append(children ...*Element) *Element {
	e.device.mu.Lock()
	defer e.device.mu.Unlock()

	for _, child := range children {
		if e.frame != nil {
			child.attach(e.frame, e)
		} else {
			child.parent = e
		}
		e.children = append(e.children, child)
	}
	return e
}

// Document returns the frame hosted by this iframe element, creating it on first use.
func (e *Element) Document() *Frame {
	e.device.mu.Lock()
	defer e.device.mu.Unlock()

	if e.content == nil {
		e.content = &Frame{Name: e.id, device: e.device, owner: e}
	}
	return e.content
}

// SetText replaces the element's text.
func (e *Element) SetText(text string) {
	e.device.mu.Lock()
	defer e.device.mu.Unlock()

	e.text = text
}

// SetAttr sets an attribute; "id" and "class" update the element's identity.
func (e *Element) SetAttr(name, value string) {
	e.device.mu.Lock()
	defer e.device.mu.Unlock()

	switch name {
	case "id":
		e.id = value
	case "class":
		e.classes = strings.Fields(value)
	default:
		if e.attrs == nil {
			e.attrs = make(map[string]string)
		}
		e.attrs[name] = value
	}
}

// Show marks the element as displayed.
func (e *Element) Show() { e.setHidden(false) }

// Hide marks the element as not displayed.
func (e *Element) Hide() { e.setHidden(true) }

func (e *Element) setHidden(hidden bool) {
	e.device.mu.Lock()
	defer e.device.mu.Unlock()

	e.hidden = hidden
}

// SetEnabled toggles the disabled state.
func (e *Element) SetEnabled(enabled bool) {
	e.device.mu.Lock()
	defer e.device.mu.Unlock()

	e.disabled = !enabled
}

// Remove detaches the element; existing references go stale.
func (e *Element) Remove() {
	e.device.mu.Lock()
	defer e.device.mu.Unlock()

	e.remove()
}

func (e *Element) remove() {
	if e.parent != nil {
		e.parent.children = without(e.parent.children, e)
	} else if e.frame != nil {
		e.frame.roots = without(e.frame.roots, e)
	}
	e.detach()
}

// Value returns the "value" attribute.
func (e *Element) Value() string {
	e.device.mu.Lock()
	defer e.device.mu.Unlock()

	return e.attrs["value"]
}

// Children returns a snapshot of the element's children.
func (e *Element) Children() []*Element {
	e.device.mu.Lock()
	defer e.device.mu.Unlock()

	return append([]*Element(nil), e.children...)
}

// ID returns the DOM id.
func (e *Element) ID() string { return e.id }

// driver.Element

func (e *Element) Handle() string { return e.handle }

func (e *Element) Tap() error {
	e.device.mu.Lock()
	if err := e.usable(true); err != nil {
		e.device.mu.Unlock()
		return err
	}
	e.device.taps++
	e.device.tapLog = append(e.device.tapLog, e.describe())
	handler := e.onTap
	e.device.mu.Unlock()

	if handler != nil {
		handler()
	}
	return nil
}

func (e *Element) SendKeys(text string) error {
	e.device.mu.Lock()
	if err := e.usable(true); err != nil {
		e.device.mu.Unlock()
		return err
	}
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs["value"] += text
	handler := e.onKeys
	e.device.mu.Unlock()

	if handler != nil {
		handler(text)
	}
	return nil
}

func (e *Element) Clear() error {
	e.device.mu.Lock()
	defer e.device.mu.Unlock()

	if err := e.usable(false); err != nil {
		return err
	}
	if e.attrs != nil {
		delete(e.attrs, "value")
	}
	return nil
}

func (e *Element) Text() (string, error) {
	e.device.mu.Lock()
	defer e.device.mu.Unlock()

	if err := e.usable(false); err != nil {
		return "", err
	}
	if !e.displayed() {
		// WebDriver returns only rendered text.
		return "", nil
	}
	return e.text, nil
}

func (e *Element) Attribute(name string) (string, error) {
	e.device.mu.Lock()
	defer e.device.mu.Unlock()

	if err := e.usable(false); err != nil {
		return "", err
	}
	return e.attr(name), nil
}

func (e *Element) Displayed() (bool, error) {
	e.device.mu.Lock()
	defer e.device.mu.Unlock()

	if err := e.usable(false); err != nil {
		return false, err
	}
	return e.displayed(), nil
}

func (e *Element) Enabled() (bool, error) {
	e.device.mu.Lock()
	defer e.device.mu.Unlock()

	if err := e.usable(false); err != nil {
		return false, err
	}
	return !e.disabled, nil
}

func (e *Element) FindElement(by driver.By) (driver.Element, error) {
	matches, err := e.findAll(by)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, notFound(by)
	}
	return matches[0], nil
}

func (e *Element) FindElements(by driver.By) ([]driver.Element, error) {
	matches, err := e.findAll(by)
	if err != nil {
		return nil, err
	}
	return toDriver(matches), nil
}

func (e *Element) findAll(by driver.By) ([]*Element, error) {
	e.device.mu.Lock()
	defer e.device.mu.Unlock()

	e.device.lookups++
	if err := e.usable(false); err != nil {
		return nil, err
	}
	match := e.frame.matcher(by)
	var matches []*Element
	for _, child := range e.children {
		child.walk(func(el *Element) bool {
			if match(el) {
				matches = append(matches, el)
			}
			return true
		})
	}
	return matches, nil
}

// internals; callers hold device.mu

func (e *Element) attach(f *Frame, parent *Element) {
	e.frame = f
	e.parent = parent
	e.detached = false
	for _, child := range e.children {
		child.attach(f, e)
	}
}

func (e *Element) detach() {
	e.detached = true
	for _, child := range e.children {
		child.detach()
	}
	if e.content != nil {
		for _, root := range e.content.roots {
			root.detach()
		}
	}
}

func (e *Element) walk(visit func(*Element) bool) bool {
	if !visit(e) {
		return false
	}
	for _, child := range e.children {
		if !child.walk(visit) {
			return false
		}
	}
	return true
}

func (e *Element) usable(interact bool) error {
	if e.detached || e.frame == nil {
		return core.ErrStaleElement.WithDetails(map[string]interface{}{"element": e.describe()})
	}
	if interact && !e.displayed() {
		return core.ErrElementNotVisible.WithDetails(map[string]interface{}{"element": e.describe()})
	}
	return nil
}

func (e *Element) displayed() bool {
	for el := e; el != nil; el = el.parent {
		if el.hidden {
			return false
		}
	}
	if owner := e.frame.owner; owner != nil {
		return owner.displayed()
	}
	return true
}

func (e *Element) attr(name string) string {
	switch name {
	case "id":
		return e.id
	case "class":
		return strings.Join(e.classes, " ")
	case "textContent", "innerHTML":
		return e.text
	}
	return e.attrs[name]
}

func (e *Element) hasClass(class string) bool {
	for _, c := range e.classes {
		if c == class {
			return true
		}
	}
	return false
}

func (e *Element) registered(by driver.By) bool {
	for _, s := range e.selectors {
		if s == by {
			return true
		}
	}
	return false
}

// matches evaluates every strategy except CSS, which goes through matcher.
func (e *Element) matches(by driver.By) bool {
	if e.registered(by) {
		return true
	}
	switch by.Strategy {
	case driver.StrategyID:
		return e.id != "" && e.id == by.Value
	case driver.StrategyTagName:
		return e.tag == by.Value
	case driver.StrategyClassName:
		return e.hasClass(by.Value)
	case driver.StrategyName:
		return e.attrs["name"] == by.Value
	case driver.StrategyLinkText:
		return e.tag == "a" && e.text == by.Value
	default:
		return false
	}
}

func (e *Element) describe() string {
	var b strings.Builder
	b.WriteString(e.tag)
	if e.id != "" {
		b.WriteString("#" + e.id)
	}
	for _, c := range e.classes {
		b.WriteString("." + c)
	}
	return b.String()
}

func (e *Element) render(b *strings.Builder) {
	fmt.Fprintf(b, "<%s", e.tag)
	if e.id != "" {
		fmt.Fprintf(b, ` id="%s"`, html.EscapeString(e.id))
	}
	if len(e.classes) > 0 {
		fmt.Fprintf(b, ` class="%s"`, html.EscapeString(strings.Join(e.classes, " ")))
	}
	for _, name := range e.attrNames() {
		fmt.Fprintf(b, ` %s="%s"`, name, html.EscapeString(e.attrs[name]))
	}
	if e.hidden {
		b.WriteString(" hidden")
	}
	b.WriteString(">")
	b.WriteString(html.EscapeString(e.text))
	for _, child := range e.children {
		child.render(b)
	}
	fmt.Fprintf(b, "</%s>", e.tag)
}

func (e *Element) attrNames() []string {
	names := make([]string, 0, len(e.attrs))
	for name := range e.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func without(list []*Element, el *Element) []*Element {
	out := list[:0]
	for _, item := range list {
		if item != el {
			out = append(out, item)
		}
	}
	return out
}

func toDriver(elements []*Element) []driver.Element {
	out := make([]driver.Element, len(elements))
	for i, el := range elements {
		out[i] = el
	}
	return out
}

func notFound(by driver.By) error {
	return core.ErrElementNotFound.WithDetails(map[string]interface{}{"selector": by.String()})
}

// cssIndex mirrors a frame as an x/net/html tree so cascadia can evaluate
// full selectors, combinators included, against mock elements.
type cssIndex struct {
	nodes map[*Element]*html.Node
}

func (f *Frame) index() *cssIndex {
	idx := &cssIndex{nodes: make(map[*Element]*html.Node)}
	doc := &html.Node{Type: html.DocumentNode}
	root := &html.Node{Type: html.ElementNode, Data: "html"}
	body := &html.Node{Type: html.ElementNode, Data: "body"}
	doc.AppendChild(root)
	root.AppendChild(body)
	for _, el := range f.roots {
		idx.add(body, el)
	}
	return idx
}

func (idx *cssIndex) add(parent *html.Node, e *Element) {
	n := &html.Node{Type: html.ElementNode, Data: e.tag}
	if e.id != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "id", Val: e.id})
	}
	if len(e.classes) > 0 {
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: strings.Join(e.classes, " ")})
	}
	for _, name := range e.attrNames() {
		n.Attr = append(n.Attr, html.Attribute{Key: name, Val: e.attrs[name]})
	}
	if e.hidden {
		n.Attr = append(n.Attr, html.Attribute{Key: "hidden"})
	}
	if e.text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: e.text})
	}
	parent.AppendChild(n)
	idx.nodes[e] = n
	for _, child := range e.children {
		idx.add(n, child)
	}
}

// matcher returns the predicate find uses for by within f. CSS selectors
// that fail to compile match nothing, like a lookup that finds no element.
func (f *Frame) matcher(by driver.By) func(*Element) bool {
	if by.Strategy != driver.StrategyCSS {
		return func(el *Element) bool { return el.matches(by) }
	}
	sel, err := cascadia.Compile(by.Value)
	if err != nil {
		return func(el *Element) bool { return el.registered(by) }
	}
	idx := f.index()
	return func(el *Element) bool {
		if el.registered(by) {
			return true
		}
		n, ok := idx.nodes[el]
		return ok && sel.Match(n)
	}
}
