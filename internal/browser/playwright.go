package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

const (
	pageLocale   = "en-US"
	pageTimezone = "America/Toronto"
)

// Playwright launches a single Chromium and hands out one isolated context per page.
type Playwright struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	log     *slog.Logger
}

// NewPlaywright starts the Playwright driver and launches Chromium.
func NewPlaywright(headless bool, log *slog.Logger) (*Playwright, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	chromium, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}

	log.Info("Browser launched", "headless", headless, "version", chromium.Version())

	return &Playwright{pw: pw, browser: chromium, log: log}, nil
}

// NewPage opens a page in a fresh context with a fixed locale and timezone
// and no geolocation permission, so results are not biased to the host location.
func (p *Playwright) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bctx, err := p.browser.NewContext(playwright.BrowserNewContextOptions{
		Locale:      playwright.String(pageLocale),
		TimezoneId:  playwright.String(pageTimezone),
		Permissions: []string{},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &playwrightPage{ctx: bctx, page: page}, nil
}

// Close shuts down the browser and the driver.
func (p *Playwright) Close() error {
	return errors.Join(p.browser.Close(), p.pw.Stop())
}

type playwrightPage struct {
	ctx  playwright.BrowserContext
	page playwright.Page
}

func (p *playwrightPage) Goto(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return err
}

func (p *playwrightPage) Query(selector string) (Element, error) {
	handle, err := p.page.QuerySelector(selector)
	return wrapHandle(handle, err)
}

func (p *playwrightPage) QueryAll(selector string) ([]Element, error) {
	handles, err := p.page.QuerySelectorAll(selector)
	return wrapHandles(handles, err)
}

func (p *playwrightPage) WaitFor(selector string, timeout time.Duration) (Element, error) {
	handle, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return nil, ErrTimeout
	}
	el, err := wrapHandle(handle, err)
	if err == nil && el == nil {
		return nil, ErrTimeout
	}
	return el, err
}

func (p *playwrightPage) HasText(text string) (bool, error) {
	return p.page.GetByText(text).First().IsVisible()
}

func (p *playwrightPage) Hover(selector string) error {
	return p.page.Locator(selector).First().Hover()
}

func (p *playwrightPage) MouseWheel(dx, dy float64) error {
	return p.page.Mouse().Wheel(dx, dy)
}

func (p *playwrightPage) Close() error {
	return errors.Join(p.page.Close(), p.ctx.Close())
}

type playwrightElement struct {
	handle playwright.ElementHandle
}

func wrapHandle(handle playwright.ElementHandle, err error) (Element, error) {
	if err != nil {
		return nil, err
	}
	if handle == nil {
		return nil, nil
	}
	return &playwrightElement{handle: handle}, nil
}

func wrapHandles(handles []playwright.ElementHandle, err error) ([]Element, error) {
	if err != nil {
		return nil, err
	}
	elements := make([]Element, 0, len(handles))
	for _, handle := range handles {
		elements = append(elements, &playwrightElement{handle: handle})
	}
	return elements, nil
}

func (e *playwrightElement) Query(selector string) (Element, error) {
	handle, err := e.handle.QuerySelector(selector)
	return wrapHandle(handle, err)
}

func (e *playwrightElement) QueryAll(selector string) ([]Element, error) {
	handles, err := e.handle.QuerySelectorAll(selector)
	return wrapHandles(handles, err)
}

func (e *playwrightElement) Text() (string, error) {
	text, err := e.handle.InnerText()
	return strings.TrimSpace(text), err
}

func (e *playwrightElement) Attribute(name string) (string, error) {
	return e.handle.GetAttribute(name)
}

func (e *playwrightElement) Click() error {
	return e.handle.Click(playwright.ElementHandleClickOptions{Force: playwright.Bool(true)})
}

func (e *playwrightElement) ScrollIntoView() error {
	return e.handle.ScrollIntoViewIfNeeded()
}
