// Package scraper traverses a lazily loaded search feed and yields the listings it can verify.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/UnknownOlympus/anvesh/internal/browser"
	"github.com/UnknownOlympus/anvesh/internal/extractor"
	"github.com/UnknownOlympus/anvesh/internal/metrics"
	"github.com/UnknownOlympus/anvesh/internal/models"
)

const (
	searchBaseURL = "https://www.google.com/maps/search/"

	consentSelector  = `button[aria-label='Accept all']`
	feedSelector     = `div[role="feed"]`
	itemSelector     = `div[role="article"]`
	itemNameSelector = `div.qBF1Pd`
	endMarker        = `div.HlvSq`
	endText          = "You've reached the end of the list"
	panelSelector    = `div.m6QErb`
	pageTitle        = `h1.DUwDvf`
	closeSelector    = `button[aria-label="Close"]`
	detailsSelector  = `button[data-item-id="address"], div.fontDisplayLarge, button[data-item-id^="phone:tel:"]`
)

// headerSelectors are tried in order to read the name shown by the detail view.
var headerSelectors = []string{pageTitle, `div.fontHeadlineSmall`, `h1`}

// SkipReason says why a feed item produced no lead.
type SkipReason string

const (
	SkipNoName     SkipReason = "no_name"
	SkipUnverified SkipReason = "unverified"
	SkipNoPanel    SkipReason = "no_panel"
	SkipNavigation SkipReason = "navigation"
)

// Query is a single search: a category in a location.
type Query struct {
	Industry string
	Location string
}

func (q Query) String() string {
	return q.Industry + " in " + q.Location
}

// SearchURL is the direct search address for q.
func SearchURL(q Query) string {
	return searchBaseURL + url.QueryEscape(q.String()) + "?hl=en"
}

// Result is one step of a traversal: a lead, or the reason a feed item was skipped.
// A result with SkipNavigation is always the last one and carries the navigation error.
type Result struct {
	Lead *models.Lead
	Item string // Item is the name read from the feed item.
	Skip SkipReason
	Err  error
}

// Options tune the waits and budgets of a traversal.
type Options struct {
	GotoTimeout     time.Duration
	ConsentTimeout  time.Duration
	FeedTimeout     time.Duration
	InitialSettle   time.Duration
	ScrollSettle    time.Duration
	HydrateWait     time.Duration
	MaxStalls       int
	ClickAttempts   int
	FirstClickWait  time.Duration
	RetryClickWait  time.Duration
	VerifyPolls     int
	VerifyInterval  time.Duration
	DetailsTimeout  time.Duration
	DetailsSettle   time.Duration
	CloseSettle     time.Duration
	InitialScrollPx float64
	ScrollPx        float64
}

// DefaultOptions returns the timings the feed is known to need.
func DefaultOptions() Options {
	return Options{
		GotoTimeout:     60 * time.Second,
		ConsentTimeout:  3 * time.Second,
		FeedTimeout:     15 * time.Second,
		InitialSettle:   2 * time.Second,
		ScrollSettle:    5 * time.Second,
		HydrateWait:     15 * time.Second,
		MaxStalls:       3,
		ClickAttempts:   10,
		FirstClickWait:  500 * time.Millisecond,
		RetryClickWait:  time.Second,
		VerifyPolls:     6,
		VerifyInterval:  500 * time.Millisecond,
		DetailsTimeout:  5 * time.Second,
		DetailsSettle:   time.Second,
		CloseSettle:     500 * time.Millisecond,
		InitialScrollPx: 2000,
		ScrollPx:        3000,
	}
}

// Engine drives feed traversals. It holds no per-traversal state.
type Engine struct {
	opts    Options
	log     *slog.Logger
	metrics *metrics.Metrics
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewEngine creates a traversal engine.
func NewEngine(opts Options, log *slog.Logger, m *metrics.Metrics) *Engine {
	return &Engine{opts: opts, log: log, metrics: m, sleep: sleepCtx}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var errNoFeed = errors.New("results feed did not appear")

// Traverse searches q on page and yields one result per feed item it visits.
// The sequence ends once the end of the feed is signalled and every visible item was visited, after MaxStalls scrolls that load nothing,
// when stop reports true, when ctx is done or when the consumer stops ranging.
// Each yielded lead was verified to belong to the clicked feed item.
// A sequence can be ranged over once; a new traversal navigates from scratch.
func (e *Engine) Traverse(ctx context.Context, page browser.Page, q Query, stop func() bool) iter.Seq[Result] {
	return func(yield func(Result) bool) {
		log := e.log.With("query", q.String())

		if err := e.open(ctx, page, q); err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, errNoFeed) {
				log.WarnContext(ctx, "Results feed not found, search failed or has no results")
				return
			}
			yield(Result{Skip: SkipNavigation, Err: err})
			return
		}

		processed := 0
		stalls := 0
		for {
			if cancelled(ctx, stop) {
				log.InfoContext(ctx, "Traversal cancelled", "processed", processed)
				return
			}
			ended := e.atEnd(page)

			items, err := page.QueryAll(itemSelector)
			if err != nil {
				log.WarnContext(ctx, "Failed to read feed items", "error", err)
				items = nil
			}

			if len(items) <= processed {
				if ended {
					log.InfoContext(ctx, "Reached end of the feed", "processed", processed)
					return
				}
				grew, errScroll := e.scroll(ctx, page, len(items))
				if errScroll != nil {
					return
				}
				if !grew {
					stalls++
					e.metrics.ScrollStalls.Inc()
					if stalls >= e.opts.MaxStalls {
						log.InfoContext(ctx, "No new feed items after scrolling, ending traversal",
							"stalls", stalls, "processed", processed)
						return
					}
					continue
				}
				stalls = 0
				if e.sleep(ctx, e.opts.HydrateWait) != nil {
					return
				}
				continue
			}

			for processed < len(items) {
				item := items[processed]
				processed++

				if cancelled(ctx, stop) {
					log.InfoContext(ctx, "Traversal cancelled", "processed", processed-1)
					return
				}

				res, panel := e.visit(ctx, page, item, q)
				if res.Skip != "" {
					e.metrics.ItemsSkipped.WithLabelValues(string(res.Skip)).Inc()
					log.DebugContext(ctx, "Feed item skipped", "item", res.Item, "reason", res.Skip)
				} else {
					e.metrics.LeadsExtracted.Inc()
				}

				more := yield(res)
				if panel != nil {
					e.closePanel(ctx, panel)
				}
				if !more {
					return
				}
			}
		}
	}
}

func cancelled(ctx context.Context, stop func() bool) bool {
	return ctx.Err() != nil || (stop != nil && stop())
}

func (e *Engine) open(ctx context.Context, page browser.Page, q Query) error {
	if err := page.Goto(SearchURL(q), e.opts.GotoTimeout); err != nil {
		return fmt.Errorf("failed to open search page: %w", err)
	}

	if consent, err := page.WaitFor(consentSelector, e.opts.ConsentTimeout); err == nil && consent != nil {
		_ = consent.Click()
	}

	if _, err := page.WaitFor(feedSelector, e.opts.FeedTimeout); err != nil {
		return errNoFeed
	}

	_ = page.Hover(feedSelector)
	_ = page.MouseWheel(0, e.opts.InitialScrollPx)

	return e.sleep(ctx, e.opts.InitialSettle)
}

func (e *Engine) atEnd(page browser.Page) bool {
	if marker, err := page.Query(endMarker); err == nil && marker != nil {
		return true
	}
	shown, err := page.HasText(endText)
	return err == nil && shown
}

// scroll asks the feed for more items and reports whether the item count grew past seen.
func (e *Engine) scroll(ctx context.Context, page browser.Page, seen int) (bool, error) {
	_ = page.Hover(feedSelector)
	_ = page.MouseWheel(0, e.opts.ScrollPx)
	if err := e.sleep(ctx, e.opts.ScrollSettle); err != nil {
		return false, err
	}

	items, err := page.QueryAll(itemSelector)
	if err != nil {
		return false, nil
	}
	return len(items) > seen, nil
}

// visit opens, verifies and extracts a single feed item. It returns the overlay panel
// to close after the result was consumed, or nil when there is nothing to close.
func (e *Engine) visit(ctx context.Context, page browser.Page, item browser.Element, q Query) (Result, browser.Element) {
	start := time.Now()
	defer func() { e.metrics.ExtractSeconds.Observe(time.Since(start).Seconds()) }()

	expected := textOf(queryIn(item, itemNameSelector))
	if expected == "" {
		return Result{Skip: SkipNoName}, nil
	}

	name, ok := e.clickAndVerify(ctx, page, item, expected)
	if !ok {
		if closeBtn := queryIn(page, closeSelector); closeBtn != nil {
			_ = closeBtn.Click()
		}
		return Result{Item: expected, Skip: SkipUnverified}, nil
	}

	if _, err := page.WaitFor(detailsSelector, e.opts.DetailsTimeout); err == nil {
		_ = e.sleep(ctx, e.opts.DetailsSettle)
	}

	panel := queryIn(page, panelSelector)
	if panel == nil && !strings.Contains(textOf(queryIn(page, pageTitle)), expected) {
		return Result{Item: expected, Skip: SkipNoPanel}, nil
	}

	fields := extractor.Extract(page, expected)
	lead := &models.Lead{
		BusinessName: name,
		Industry:     q.Industry,
		Category:     fields.Category,
		Location:     q.Location,
		Address:      fields.Address,
		Rating:       fields.Rating,
		ReviewCount:  fields.ReviewCount,
		IsClaimed:    fields.IsClaimed,
		HasWebsite:   fields.HasWebsite,
		WebsiteURL:   fields.WebsiteURL,
		Phone:        fields.Phone,
	}

	return Result{Lead: lead, Item: expected}, panel
}

// clickAndVerify clicks item until the detail view shows a name matching expected.
// It returns the displayed name on success.
func (e *Engine) clickAndVerify(ctx context.Context, page browser.Page, item browser.Element, expected string) (string, bool) {
	for attempt := range e.opts.ClickAttempts {
		if ctx.Err() != nil {
			return "", false
		}

		_ = item.ScrollIntoView()
		wait := e.opts.FirstClickWait
		if attempt > 0 {
			wait = e.opts.RetryClickWait
		}
		if e.sleep(ctx, wait) != nil {
			return "", false
		}

		if err := item.Click(); err != nil {
			e.log.DebugContext(ctx, "Failed to click feed item", "item", expected, "attempt", attempt+1, "error", err)
			continue
		}

		for range e.opts.VerifyPolls {
			if shown := detailHeader(page); NamesMatch(expected, shown) {
				return shown, true
			}
			if e.sleep(ctx, e.opts.VerifyInterval) != nil {
				return "", false
			}
		}
	}

	return "", false
}

func (e *Engine) closePanel(ctx context.Context, panel browser.Element) {
	closeBtn := queryIn(panel, closeSelector)
	if closeBtn == nil {
		return
	}
	if err := closeBtn.Click(); err != nil {
		e.log.DebugContext(ctx, "Failed to close detail panel", "error", err)
		return
	}
	_ = e.sleep(ctx, e.opts.CloseSettle)
}

func detailHeader(page browser.Page) string {
	for _, selector := range headerSelectors {
		if text := textOf(queryIn(page, selector)); text != "" {
			return text
		}
	}
	return ""
}

// NamesMatch reports whether two business names agree when either contains the other.
// Case, punctuation, symbols and spacing are ignored, so "Smith-Jones" matches "Smith Jones".
func NamesMatch(expected, shown string) bool {
	exp, got := normalizeName(expected), normalizeName(shown)
	if exp == "" || got == "" {
		return false
	}
	return strings.Contains(got, exp) || strings.Contains(exp, got)
}

func normalizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, name)
}

func queryIn(scope browser.Scope, selector string) browser.Element {
	el, err := scope.Query(selector)
	if err != nil {
		return nil
	}
	return el
}

func textOf(el browser.Element) string {
	if el == nil {
		return ""
	}
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
