// Package price holds the price text heuristics shared by the scrape and
// display paths: what gets stored and how stored or scraped text is rendered.
package price

import (
	"regexp"
	"strconv"
	"strings"
)

var nonDigit = regexp.MustCompile(`\D`)

// Digits returns s with every non-digit character removed.
func Digits(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// Normalize reduces scraped price text to the stored value.
//
// Only the currency amounts of the text are read (see Tokens); text without
// any marked amount falls back to all of its digits. Listings without a
// discount carry a single amount of at most 7 digit characters once
// stripped; longer runs are two amounts glued together, and only the leading
// (current) one is kept. Short amounts keep 3 digits, long ones 4. An empty
// result means the text carried no price.
func Normalize(text string) string {
	digits := Digits(text)
	if tokens := Tokens(text); len(tokens) > 0 {
		digits = Digits(strings.Join(tokens, ""))
	}
	keep := 3
	if len(digits) > 7 {
		keep = 4
	}
	if len(digits) < keep {
		return digits
	}
	return digits[:keep]
}

// Value parses a stored price for ordering. ok is false when the stored text
// is not a number.
func Value(stored string) (value int, ok bool) {
	digits := Digits(stored)
	if digits == "" {
		return 0, false
	}
	v, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return v, true
}
