package price

import (
	"html"
	"html/template"
	"regexp"
	"strings"
)

// Currency is the marker the listing site puts after every amount.
const Currency = "₽"

// currencyToken matches one amount followed by the marker, allowing regular,
// no-break and narrow no-break spaces as thousands separators.
var currencyToken = regexp.MustCompile(`\d[\d\x{202f}\x{00a0} ]*[\x{202f}\x{00a0} ]?₽`)

// Tokens splits scraped price text into its currency amounts, in page order.
func Tokens(text string) []string {
	matches := currencyToken.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m))
	}
	return out
}

// Label reduces scraped price text to the amounts shown on the page, joined by
// a space. It is empty when the text carries no marked amount.
func Label(text string) string {
	return strings.Join(Tokens(text), " ")
}

// Render formats a stored price for display, preferring the label scraped
// with it so discounts keep their regular price.
func Render(value, label string) template.HTML {
	if label != "" {
		return FormatHTML(label)
	}
	return FormatHTML(value)
}

// FormatHTML renders price text for the listing page.
//
// Text carrying the currency marker is scraped text: a single amount is
// shown as is, two amounts are the discount price followed by the regular
// price and render as the struck-through regular price then the discount.
// Text without the marker is a stored value and gets the marker appended.
func FormatHTML(text string) template.HTML {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if !strings.Contains(text, Currency) {
		return template.HTML(html.EscapeString(text) + " " + Currency)
	}

	tokens := Tokens(text)
	switch len(tokens) {
	case 1:
		return template.HTML(html.EscapeString(tokens[0]))
	case 2:
		discount, regular := tokens[0], tokens[1]
		return template.HTML(`<span style="text-decoration: line-through;">` +
			html.EscapeString(regular) + `</span> ` + html.EscapeString(discount))
	default:
		return template.HTML(html.EscapeString(text))
	}
}
