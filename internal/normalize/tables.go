package normalize

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Tables holds the lookup data driving normalization: brand aliases,
// word synonyms, and stopwords. Loaded once at startup and passed by
// reference; never mutated after compilation.
type Tables struct {
	// BrandAliases maps a canonical brand key to its known spelling
	// variants. Variants are normalized the same way as incoming brands
	// before comparison.
	BrandAliases map[string][]string `yaml:"brand_aliases"`

	// Synonyms maps raw phrases to their canonical replacement, applied
	// longest-pattern-first on whole-word boundaries. An empty
	// replacement drops the phrase.
	Synonyms map[string]string `yaml:"synonyms"`

	Stopwords []string `yaml:"stopwords"`
}

// DefaultTables returns the built-in lookup data tuned for grocery
// listings.
func DefaultTables() Tables {
	return Tables{
		BrandAliases: map[string][]string{
			"milk2go":     {"milk2go", "milk 2 go", "milk2 go", "milk to go"},
			"pc":          {"presidents choice", "president's choice", "pc"},
			"no name":     {"no name", "noname", "nn"},
			"great value": {"great value", "greatvalue", "gv"},
			"neilson":     {"neilson", "nielson"},
			"dairyland":   {"dairyland", "dairy land"},
			"natrel":      {"natrel", "na trel"},
			"beatrice":    {"beatrice"},
			"lactantia":   {"lactantia"},
			"hersheys":    {"hershey's", "hersheys", "hershey"},
			"cadbury":     {"cadbury"},
			"nestle":      {"nestle", "nestlé"},
			"kraft":       {"kraft"},
			"kelloggs":    {"kellogg's", "kelloggs"},
		},
		Synonyms: map[string]string{
			"homogenized":    "wholefat",
			"homo":           "wholefat",
			"partly skimmed": "lowfat",
			"part skimmed":   "lowfat",
			"part skim":      "lowfat",
			"low fat":        "lowfat",
			"lowfat":         "lowfat",
			"skim":           "nonfat",
			"skimmed":        "nonfat",
			"non fat":        "nonfat",
			"nonfat":         "nonfat",
			"whole milk":     "wholefat",
			"whole":          "wholefat",
			"choc":           "chocolate",
			"chocolat":       "chocolate",
			"cocoa":          "chocolate",
			"strawb":         "strawberry",
			"straw":          "strawberry",
			"van":            "vanilla",
			"vanil":          "vanilla",
		},
		Stopwords: []string{
			"and", "the", "of", "for", "in", "to", "a", "an", "with", "by",
			"or", "from", "on", "at", "is", "are", "was", "were", "be",
			"been", "being",
		},
	}
}

// LoadTables reads lookup tables from a YAML file. Sections left empty in
// the file fall back to the built-in defaults, so a deployment can extend
// just the brand aliases without restating the rest.
func LoadTables(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, eris.Wrapf(err, "normalize: read tables %s", path)
	}

	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tables{}, eris.Wrapf(err, "normalize: parse tables %s", path)
	}

	defaults := DefaultTables()
	if len(t.BrandAliases) == 0 {
		t.BrandAliases = defaults.BrandAliases
	}
	if len(t.Synonyms) == 0 {
		t.Synonyms = defaults.Synonyms
	}
	if len(t.Stopwords) == 0 {
		t.Stopwords = defaults.Stopwords
	}
	return t, nil
}
