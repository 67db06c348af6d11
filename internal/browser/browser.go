// Package browser describes the interactive page capability the feed traversal drives,
// and implements it on top of a Playwright-controlled Chromium.
package browser

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned by Page.WaitFor when the selector did not appear in time.
var ErrTimeout = errors.New("timed out waiting for selector")

// Scope is anything selectors can be evaluated against.
// Query returns a nil Element and a nil error when nothing matches.
type Scope interface {
	Query(selector string) (Element, error)
	QueryAll(selector string) ([]Element, error)
}

// Element is a handle to a node of the current page.
// Attribute returns an empty string for a missing attribute.
type Element interface {
	Scope
	Text() (string, error)
	Attribute(name string) (string, error)
	Click() error
	ScrollIntoView() error
}

// Page is a single browser tab.
type Page interface {
	Scope
	Goto(url string, timeout time.Duration) error
	WaitFor(selector string, timeout time.Duration) (Element, error)
	HasText(text string) (bool, error)
	Hover(selector string) error
	MouseWheel(dx, dy float64) error
	Close() error
}

// Launcher opens isolated pages. Each page owns its own browser context.
type Launcher interface {
	NewPage(ctx context.Context) (Page, error)
}
