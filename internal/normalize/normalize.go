// Package normalize turns raw brand and title strings into the canonical
// forms the matcher keys on. All functions are pure: the same input
// always yields the same output, and nothing here holds mutable state.
package normalize

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pricepair/catalog-cli/internal/size"
)

var (
	nonAlnumRe      = regexp.MustCompile(`[^a-z0-9]+`)
	nonAlnumSpaceRe = regexp.MustCompile(`[^a-z0-9\s]+`)
	tokenRe         = regexp.MustCompile(`[a-z0-9]+`)

	casefoldT = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Casefold decomposes Unicode, strips combining marks, and lowercases.
// Empty input yields an empty string.
func Casefold(s string) string {
	if s == "" {
		return ""
	}
	folded, _, err := transform.String(casefoldT, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// percentGuard maps percentage-sensitive descriptors to non-numeric
// placeholder words. Size stripping would otherwise eat the digits, so
// the guard MUST run before StripTokens and be restored after.
var percentGuard = []struct {
	re          *regexp.Regexp
	placeholder string
	canonical   string
}{
	{regexp.MustCompile(`\b3\.25\s*%`), "threepointtwentyfivepercent", "wholefat"},
	{regexp.MustCompile(`\b3\.25\s+percent`), "threepointtwentyfivepercent", "wholefat"},
	{regexp.MustCompile(`\b0%`), "zeropercentmilk", "nonfat"},
	{regexp.MustCompile(`\b1%`), "onepercentmilk", "lowfat1"},
	{regexp.MustCompile(`\b2%`), "twopercentmilk", "lowfat2"},
}

func guardPercentages(s string) string {
	for _, g := range percentGuard {
		s = g.re.ReplaceAllString(s, g.placeholder)
	}
	return s
}

func restorePercentages(s string) string {
	for _, g := range percentGuard {
		s = strings.ReplaceAll(s, g.placeholder, g.canonical)
	}
	return s
}

// synonymRule is one compiled whole-word replacement.
type synonymRule struct {
	re          *regexp.Regexp
	replacement string
}

// Normalizer applies the compiled lookup tables. Build one per run and
// share it; it is safe for concurrent reads.
type Normalizer struct {
	aliasIndex map[string]string // normalized variant -> canonical brand key
	synonyms   []synonymRule     // longest pattern first
	stopwords  map[string]struct{}
}

// New compiles the lookup tables into a Normalizer.
func New(t Tables) *Normalizer {
	n := &Normalizer{
		aliasIndex: make(map[string]string),
		stopwords:  make(map[string]struct{}, len(t.Stopwords)),
	}

	for canonical, variants := range t.BrandAliases {
		for _, v := range variants {
			key := nonAlnumRe.ReplaceAllString(Casefold(v), "")
			if key != "" {
				n.aliasIndex[key] = canonical
			}
		}
	}

	// Longest pattern first so multi-word phrases are rewritten before a
	// shorter pattern can clobber part of them.
	patterns := make([]string, 0, len(t.Synonyms))
	for p := range t.Synonyms {
		patterns = append(patterns, p)
	}
	sort.Slice(patterns, func(i, j int) bool {
		if len(patterns[i]) != len(patterns[j]) {
			return len(patterns[i]) > len(patterns[j])
		}
		return patterns[i] < patterns[j]
	})
	for _, p := range patterns {
		n.synonyms = append(n.synonyms, synonymRule{
			re:          regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(p) + `\b`),
			replacement: t.Synonyms[p],
		})
	}

	for _, w := range t.Stopwords {
		n.stopwords[w] = struct{}{}
	}
	return n
}

// Brand normalizes a raw brand string and resolves it against the alias
// table. Unknown brands pass through in stripped form; this is
// best-effort, not an error.
func (n *Normalizer) Brand(raw string) string {
	if raw == "" {
		return ""
	}
	s := nonAlnumRe.ReplaceAllString(Casefold(raw), "")
	if canonical, ok := n.aliasIndex[s]; ok {
		return canonical
	}
	return s
}

func (n *Normalizer) applySynonyms(s string) string {
	for _, rule := range n.synonyms {
		s = rule.re.ReplaceAllString(s, rule.replacement)
	}
	return s
}

// TitleCore reduces a title to its order-independent token core: brand
// and size stripped, synonyms canonicalized, tokens deduplicated and
// sorted. An empty result means the listing is unmatchable by title; it
// is a valid output, not an error.
func (n *Normalizer) TitleCore(title, brand string) string {
	if title == "" {
		return ""
	}

	s := Casefold(title)
	s = guardPercentages(s)

	// The brand may appear in the title verbatim, in alias-resolved
	// form, or with its separators collapsed. Three removal passes.
	if brand != "" {
		brandFolded := Casefold(brand)
		s = wordPattern(brandFolded).ReplaceAllString(s, " ")

		if brandNorm := n.Brand(brand); brandNorm != "" {
			s = wordPattern(brandNorm).ReplaceAllString(s, " ")
		}
		if brandFlat := nonAlnumRe.ReplaceAllString(brandFolded, ""); brandFlat != "" {
			s = wordPattern(brandFlat).ReplaceAllString(s, " ")
		}
	}

	s = n.applySynonyms(s)
	s = size.StripTokens(s)
	s = restorePercentages(s)
	s = nonAlnumSpaceRe.ReplaceAllString(s, " ")

	tokens := tokenRe.FindAllString(s, -1)
	seen := make(map[string]struct{}, len(tokens))
	kept := tokens[:0]
	for _, tok := range tokens {
		if len(tok) <= 1 || isDigits(tok) {
			continue
		}
		if _, stop := n.stopwords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		kept = append(kept, tok)
	}
	if len(kept) == 0 {
		return ""
	}
	sort.Strings(kept)
	return strings.Join(kept, " ")
}

func wordPattern(literal string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(literal) + `\b`)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
