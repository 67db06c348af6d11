// Package extractor reads the typed fields of an opened listing detail view.
// Every field is read by an ordered chain of strategies; the first strategy that
// produces a value wins and a field whose strategies all miss gets its default.
package extractor

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/UnknownOlympus/anvesh/internal/browser"
	"github.com/UnknownOlympus/anvesh/internal/models"
)

const (
	addressSelector     = `button[data-item-id="address"]`
	addressTextSelector = `div.Io6YTe`
	websiteSelector     = `a[data-item-id="authority"]`
	websiteAltSelector  = `a[aria-label*="Website"]`
	phoneSelector       = `button[data-item-id^="phone:tel:"]`
	mainSelector        = `div[role="main"]`
	ratingSelector      = `div.jANrlb > div.fontDisplayLarge`
	ratingAltSelector   = `div.fontDisplayLarge`
	reviewsSelector     = `button[jsaction*="reviewChart.moreReviews"] span`
	claimSelector       = `a[aria-label*="Claim this business"]`
	categorySelector    = `button[jsaction*="category"]`

	claimText       = "Claim this business"
	searchResultTag = "Search result"
)

// View is an opened detail view.
type View interface {
	browser.Scope
	HasText(text string) (bool, error)
}

// Fields are the values read from a detail view.
type Fields struct {
	Address     string
	Phone       *string
	Rating      *float64
	ReviewCount int
	IsClaimed   bool
	Category    string
	HasWebsite  bool
	WebsiteURL  *string
}

// strategy reads one field from a view and reports whether it found a value.
type strategy[T any] func(view View) (T, bool)

// firstOf runs the strategies in order and returns the first value found.
func firstOf[T any](view View, strategies ...strategy[T]) (T, bool) {
	for _, try := range strategies {
		if value, ok := try(view); ok {
			return value, true
		}
	}
	var zero T
	return zero, false
}

// Extract reads all fields of the detail view of the business called name.
// It never fails: a field that cannot be read gets its default.
func Extract(view View, name string) Fields {
	fields := Fields{
		Address:   models.NotAvailable,
		IsClaimed: true,
		Category:  models.NotAvailable,
	}

	if address, ok := firstOf(view, addressText, addressLabel); ok {
		fields.Address = address
	}

	if href, ok := firstOf(view, websiteLink(websiteSelector), websiteLink(websiteAltSelector)); ok {
		fields.HasWebsite = true
		if href != "" {
			fields.WebsiteURL = &href
		}
	}

	if phone, ok := firstOf(view, phoneLabel, phoneInBody(name)); ok {
		fields.Phone = &phone
	}

	if rating, ok := firstOf(view, ratingFrom(ratingSelector), ratingFrom(ratingAltSelector)); ok {
		fields.Rating = &rating
	}

	if reviews, ok := firstOf(view, reviewCount); ok {
		fields.ReviewCount = reviews
	}

	if claimable, ok := firstOf(view, claimLink, claimTextShown); ok {
		fields.IsClaimed = !claimable
	}

	if category, ok := firstOf(view, categoryText); ok {
		fields.Category = category
	}

	return fields
}

func query(scope browser.Scope, selector string) browser.Element {
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

func attrOf(el browser.Element, name string) string {
	if el == nil {
		return ""
	}
	value, err := el.Attribute(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

func nonEmpty(value string) (string, bool) {
	return value, value != ""
}

func addressText(view View) (string, bool) {
	button := query(view, addressSelector)
	if button == nil {
		return "", false
	}
	return nonEmpty(textOf(query(button, addressTextSelector)))
}

func addressLabel(view View) (string, bool) {
	label := attrOf(query(view, addressSelector), "aria-label")
	return nonEmpty(strings.TrimSpace(strings.TrimPrefix(label, "Address:")))
}

// websiteLink reports a found link even without an href: the link itself means a website exists.
func websiteLink(selector string) strategy[string] {
	return func(view View) (string, bool) {
		link := query(view, selector)
		if link == nil {
			return "", false
		}
		return attrOf(link, "href"), true
	}
}

func phoneLabel(view View) (string, bool) {
	label := attrOf(query(view, phoneSelector), "aria-label")
	return nonEmpty(strings.TrimSpace(strings.TrimPrefix(label, "Phone:")))
}

// phoneInBody scans the detail body for the first line that looks like a phone number.
func phoneInBody(name string) strategy[string] {
	return func(view View) (string, bool) {
		body := detailBody(view, name)
		if body == nil {
			return "", false
		}
		text, err := body.Text()
		if err != nil {
			return "", false
		}
		for line := range strings.Lines(text) {
			line = strings.TrimSpace(line)
			if looksLikePhone(line) {
				return line, true
			}
		}
		return "", false
	}
}

// detailBody finds the main region labelled with the business name,
// or else the first main region that is not the results list.
func detailBody(view View, name string) browser.Element {
	if name != "" {
		if body := query(view, mainSelector+`[aria-label*="`+name+`"]`); body != nil {
			return body
		}
	}

	mains, err := view.QueryAll(mainSelector)
	if err != nil {
		return nil
	}
	for _, main := range mains {
		if !strings.Contains(attrOf(main, "aria-label"), searchResultTag) {
			return main
		}
	}
	return nil
}

func looksLikePhone(line string) bool {
	return len(line) > 8 &&
		strings.ContainsFunc(line, unicode.IsDigit) &&
		strings.ContainsAny(line, "+-")
}

func ratingFrom(selector string) strategy[float64] {
	return func(view View) (float64, bool) {
		text := textOf(query(view, selector))
		if text == "" {
			return 0, false
		}
		rating, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, false
		}
		return rating, true
	}
}

func reviewCount(view View) (int, bool) {
	return ParseReviewCount(textOf(query(view, reviewsSelector)))
}

var countToken = regexp.MustCompile(`^(\d+(?:\.\d+)?)([KM]?)$`)

// ParseReviewCount parses labels such as "61 reviews", "1,204" or "2.3K".
// Counts that do not fit the review_count column are rejected.
func ParseReviewCount(label string) (int, bool) {
	token, _, _ := strings.Cut(strings.TrimSpace(label), " ")
	token = strings.ToUpper(strings.ReplaceAll(token, ",", ""))

	match := countToken.FindStringSubmatch(token)
	if match == nil {
		return 0, false
	}

	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	switch match[2] {
	case "K":
		value *= 1_000
	case "M":
		value *= 1_000_000
	}

	value = math.Round(value)
	if value > math.MaxInt32 {
		return 0, false
	}
	return int(value), true
}

func claimLink(view View) (bool, bool) {
	return true, query(view, claimSelector) != nil
}

func claimTextShown(view View) (bool, bool) {
	shown, err := view.HasText(claimText)
	return true, err == nil && shown
}

func categoryText(view View) (string, bool) {
	return nonEmpty(textOf(query(view, categorySelector)))
}
