// Package size parses quantity+unit expressions from listing text and
// strips them back out of titles. Sizes reduce to two canonical units,
// liters and kilograms, so cross-store listings compare on one axis.
package size

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Unit is a canonical measurement unit.
type Unit string

const (
	Liters    Unit = "l"
	Kilograms Unit = "kg"
)

// Tolerance is the relative difference within which two known sizes are
// considered the same package.
const Tolerance = 0.05

var (
	multiPackRe = regexp.MustCompile(`(\d+)\s*[x×]\s*(\d+(?:\.\d+)?)\s*(ml|l|g|kg|oz|lb)s?\b`)
	singleRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(ml|l|litre|litres|liter|liters|g|gram|grams|kg|oz|lb)s?\b`)

	stripRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:ml|l|litre|litres|liter|liters)\b`),
		regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:g|grams?|kg|kilograms?|oz|ounces?|lb|lbs|pounds?)\b`),
		regexp.MustCompile(`(?i)\b\d+\s*[x×]\s*\d+(?:\.\d+)?\s*(?:ml|l|g|kg|oz|lb)s?\b`),
		regexp.MustCompile(`(?i)\b\d+\s*(?:pack|pk|count|ct|case|bottle|bottles|can|cans)\b`),
		regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:fl\s*oz|fluid\s*ounce)\b`),
		regexp.MustCompile(`(?i)\$\d+(?:\.\d+)?/\d+(?:ml|l|g|kg)`),
	}

	multiSpaceRe = regexp.MustCompile(`\s+`)

	foldT = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// fold strips combining marks and lowercases, so "Litres" and accented
// variants hit the same patterns.
func fold(s string) string {
	folded, _, err := transform.String(foldT, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Extract parses the first size expression in text and converts it to a
// canonical unit. Multi-pack expressions ("6 x 310 ml") total across the
// pack. No recognizable pattern reports ok=false; callers treat unknown
// size as compatible with anything.
func Extract(text string) (float64, Unit, bool) {
	if text == "" {
		return 0, "", false
	}
	s := fold(text)

	if m := multiPackRe.FindStringSubmatch(s); m != nil {
		count, _ := strconv.ParseFloat(m[1], 64)
		each, _ := strconv.ParseFloat(m[2], 64)
		return convert(count*each, m[3])
	}
	if m := singleRe.FindStringSubmatch(s); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return convert(v, m[2])
	}
	return 0, "", false
}

func convert(v float64, unit string) (float64, Unit, bool) {
	switch unit {
	case "ml":
		return v / 1000, Liters, true
	case "l", "litre", "litres", "liter", "liters":
		return v, Liters, true
	case "g", "gram", "grams":
		return v / 1000, Kilograms, true
	case "kg":
		return v, Kilograms, true
	case "oz":
		return v * 0.0295735, Liters, true
	case "lb":
		return v * 0.453592, Kilograms, true
	}
	return 0, "", false
}

// StripTokens removes size expressions, pack/count phrases, and per-unit
// price annotations from text. It is textual and deliberately independent
// of Extract: it also clears expressions Extract does not parse.
func StripTokens(text string) string {
	s := text
	for _, re := range stripRes {
		s = re.ReplaceAllString(s, " ")
	}
	return strings.TrimSpace(multiSpaceRe.ReplaceAllString(s, " "))
}

// Compatible reports whether two extracted sizes could describe the same
// package. An unknown size on either side is a wildcard; differing units
// are a mismatch; otherwise the relative difference must stay within
// Tolerance.
func Compatible(aVal float64, aUnit Unit, aOK bool, bVal float64, bUnit Unit, bOK bool) bool {
	if !aOK || !bOK {
		return true
	}
	if aUnit != bUnit {
		return false
	}
	avg := (aVal + bVal) / 2
	if avg == 0 {
		return aVal == bVal
	}
	return math.Abs(aVal-bVal)/avg <= Tolerance
}
