// Package normalize rewrites raw item terms into catalog search queries.
// Everything here is pure: no I/O, no state beyond the dictionaries passed in.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxQueries bounds how many query variants one term may produce.
const MaxQueries = 3

var unitAliases = map[string]string{
	"lts":    "l",
	"lt":     "l",
	"litro":  "l",
	"litros": "l",
	"l":      "l",
	"ml":     "ml",
	"g":      "g",
	"gr":     "g",
	"grama":  "g",
	"gramas": "g",
	"kg":     "kg",
	"kilo":   "kg",
	"kilos":  "kg",
	"quilo":  "kg",
	"quilos": "kg",
}

var stopwords = map[string]bool{
	"de": true, "da": true, "do": true, "das": true, "dos": true,
	"a": true, "o": true, "as": true, "os": true,
	"um": true, "uma": true, "uns": true, "umas": true,
}

var (
	unitRe     = regexp.MustCompile(`(\d+(?:[\.,]\d+)?)\s*(lts|lt|litros|litro|l|kg|kilos|kilo|quilos|quilo|gramas|grama|gr|g|ml)\b`)
	moneyRe    = regexp.MustCompile(`(?:r\$\s*)?(\d+(?:[\.,]\d+)?)\s*(?:reais|real|conto[s]?)\s+(?:de\s+)?`)
	numTokenRe = regexp.MustCompile(`^\d+(?:[\.,]\d+)?x?$`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases, strips accents and collapses whitespace. The catalog is
// stored accent-free, so every query goes through this first.
func Fold(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	stripped, _, err := transform.String(accentStripper, lowered)
	if err != nil {
		stripped = lowered
	}
	return spaceRe.ReplaceAllString(stripped, " ")
}

// CanonicalizeUnits rewrites size tokens into a canonical number+unit form,
// e.g. "2 lts" -> "2l", "1 quilo" -> "1kg".
func CanonicalizeUnits(text string) string {
	return unitRe.ReplaceAllStringFunc(text, func(m string) string {
		parts := unitRe.FindStringSubmatch(m)
		num := strings.ReplaceAll(parts[1], ",", ".")
		unit := unitAliases[parts[2]]
		if unit == "" {
			unit = parts[2]
		}
		return num + unit
	})
}

// UnitToken extracts the canonical size token from an already-canonicalized
// query ("coca 2l" -> "2l"). Empty when the term declares no size.
func UnitToken(text string) string {
	m := regexp.MustCompile(`\b(\d+(?:\.\d+)?)(l|kg|g|ml)\b`).FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1] + m[2]
}

// HasUnit reports whether a product name carries the given size token,
// tolerating whitespace between number and unit ("2 L", "2l", "2L").
func HasUnit(name, unitToken string) bool {
	m := regexp.MustCompile(`^(\d+(?:\.\d+)?)(l|kg|g|ml)$`).FindStringSubmatch(unitToken)
	if m == nil {
		return false
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(m[1]) + `\s*` + m[2] + `\b`)
	return re.MatchString(Fold(name))
}

// MonetaryAmount parses a monetary-intent prefix ("5 reais de presunto") and
// returns the amount plus the remaining term. ok is false when the term has
// no monetary intent.
func MonetaryAmount(term string) (amount float64, rest string, ok bool) {
	folded := Fold(term)
	loc := moneyRe.FindStringSubmatchIndex(folded)
	if loc == nil {
		return 0, term, false
	}
	raw := strings.ReplaceAll(folded[loc[2]:loc[3]], ",", ".")
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || amount <= 0 {
		return 0, term, false
	}
	rest = strings.TrimSpace(folded[:loc[0]] + folded[loc[1]:])
	return amount, rest, true
}

// Substitute drops stopwords and applies the term-translation dictionary
// token by token. Qualifier tokens (sizes, numbers, brand words) pass through
// untouched so downstream elimination still sees them.
func Substitute(text string, translations map[string]string) string {
	tokens := strings.Fields(text)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if stopwords[tok] {
			continue
		}
		if repl, ok := translations[tok]; ok {
			out = append(out, repl)
			continue
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

// Queries expands a raw term into an ordered sequence of at most MaxQueries
// search queries: the cleaned original, the dictionary-substituted form, and
// a KG-suffixed variant when the term is bulk-likely and declares no size.
// Duplicates are collapsed, order preserved.
func Queries(term string, translations map[string]string, bulkLikely bool) []string {
	base := CanonicalizeUnits(Fold(term))
	if base == "" {
		return nil
	}

	variants := []string{base}

	substituted := Substitute(base, translations)
	if substituted != "" {
		variants = append(variants, substituted)
	}

	if bulkLikely && UnitToken(base) == "" {
		variants = append(variants, substituted+" kg")
	}

	seen := make(map[string]bool, len(variants))
	queries := make([]string, 0, MaxQueries)
	for _, v := range variants {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		queries = append(queries, v)
		if len(queries) == MaxQueries {
			break
		}
	}
	return queries
}

// ContentTokens returns the non-numeric, non-stopword tokens of a folded
// term. Used for overlap scoring and generic-term detection.
func ContentTokens(text string) []string {
	tokens := strings.Fields(text)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if stopwords[tok] || numTokenRe.MatchString(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}
