// Package browsertest provides an in-memory, scriptable browser.Page for tests.
// Selectors are matched literally against the keys the test registers.
package browsertest

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/UnknownOlympus/anvesh/internal/browser"
)

// Element is a fake DOM node. Children are registered per selector.
type Element struct {
	mu       sync.Mutex
	text     string
	attrs    map[string]string
	children map[string][]*Element
	clicks   int

	// OnClick runs on every click. A returned error is returned from Click.
	OnClick func() error
}

// NewElement creates an element with the given inner text.
func NewElement(text string) *Element {
	return &Element{text: text, attrs: map[string]string{}, children: map[string][]*Element{}}
}

// WithAttr sets an attribute and returns the element.
func (e *Element) WithAttr(name, value string) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs[name] = value
	return e
}

// WithChild registers children under a selector and returns the element.
func (e *Element) WithChild(selector string, children ...*Element) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.children[selector] = append(e.children[selector], children...)
	return e
}

// SetText replaces the inner text.
func (e *Element) SetText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = text
}

// Clicks reports how many times the element was clicked.
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

func (e *Element) Query(selector string) (browser.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if found := e.children[selector]; len(found) > 0 {
		return found[0], nil
	}
	return nil, nil
}

func (e *Element) QueryAll(selector string) ([]browser.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return asElements(e.children[selector]), nil
}

func (e *Element) Text() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return strings.TrimSpace(e.text), nil
}

func (e *Element) Attribute(name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attrs[name], nil
}

func (e *Element) Click() error {
	e.mu.Lock()
	e.clicks++
	onClick := e.OnClick
	e.mu.Unlock()

	if onClick != nil {
		return onClick()
	}
	return nil
}

func (e *Element) ScrollIntoView() error { return nil }

// Page is a fake browser.Page. Nodes are registered per selector at page level.
type Page struct {
	mu     sync.Mutex
	nodes  map[string][]*Element
	texts  []string
	urls   []string
	wheels int
	closed bool

	// GotoErr is returned from Goto when set.
	GotoErr error
	// OnWheel runs after every mouse wheel, letting a test load more feed items.
	OnWheel func(p *Page)
}

// NewPage creates an empty page.
func NewPage() *Page {
	return &Page{nodes: map[string][]*Element{}}
}

// Set replaces the nodes matching selector.
func (p *Page) Set(selector string, elements ...*Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(elements) == 0 {
		delete(p.nodes, selector)
		return
	}
	p.nodes[selector] = elements
}

// Append adds nodes matching selector.
func (p *Page) Append(selector string, elements ...*Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nodes[selector] = append(p.nodes[selector], elements...)
}

// Count reports how many nodes match selector.
func (p *Page) Count(selector string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.nodes[selector])
}

// ShowText makes a visible text present on the page.
func (p *Page) ShowText(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.texts = append(p.texts, text)
}

// URLs returns every URL the page navigated to.
func (p *Page) URLs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.urls)
}

// Wheels reports how many times the mouse wheel was used.
func (p *Page) Wheels() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wheels
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) Goto(url string, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.urls = append(p.urls, url)
	return p.GotoErr
}

func (p *Page) Query(selector string) (browser.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if found := p.nodes[selector]; len(found) > 0 {
		return found[0], nil
	}
	return nil, nil
}

func (p *Page) QueryAll(selector string) ([]browser.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return asElements(p.nodes[selector]), nil
}

// WaitFor never blocks: the selector is either present or the wait times out.
func (p *Page) WaitFor(selector string, _ time.Duration) (browser.Element, error) {
	el, err := p.Query(selector)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, browser.ErrTimeout
	}
	return el, nil
}

func (p *Page) HasText(text string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, shown := range p.texts {
		if strings.Contains(shown, text) {
			return true, nil
		}
	}
	return false, nil
}

func (p *Page) Hover(string) error { return nil }

func (p *Page) MouseWheel(_, _ float64) error {
	p.mu.Lock()
	p.wheels++
	onWheel := p.OnWheel
	p.mu.Unlock()

	if onWheel != nil {
		onWheel(p)
	}
	return nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Launcher hands out pages built by NewPageFn.
type Launcher struct {
	NewPageFn func() (*Page, error)
}

func (l *Launcher) NewPage(ctx context.Context) (browser.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := l.NewPageFn()
	if err != nil {
		return nil, err
	}
	return page, nil
}

func asElements(found []*Element) []browser.Element {
	elements := make([]browser.Element, 0, len(found))
	for _, el := range found {
		elements = append(elements, el)
	}
	return elements
}
