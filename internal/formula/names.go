package formula

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxDescLength is the longest desc brew audit --strict accepts.
const MaxDescLength = 80

var (
	separators = regexp.MustCompile(`[-_. ]+`)
	classWords = regexp.MustCompile(`[A-Z][^A-Z]*`)
	articles   = map[string]bool{"a": true, "an": true, "the": true}
)

// ClassName derives the Ruby class for a repository name: title-case every
// word, then drop the separators. "my-cool-tool" becomes "MyCoolTool".
func ClassName(repo string) string {
	return separators.ReplaceAllString(titleCase(repo), "")
}

// titleCase upper-cases a cased letter that follows an uncased character
// and lower-cases every other cased letter.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevCased := false
	for _, r := range s {
		cased := unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
		switch {
		case cased && !prevCased:
			b.WriteRune(unicode.ToUpper(r))
		case cased:
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		prevCased = cased
	}
	return b.String()
}

// FormulaName turns a class name back into the kebab-case formula name:
// "HomebrewReleaser" becomes "homebrew-releaser".
func FormulaName(class string) string {
	words := classWords.FindAllString(class, -1)
	if len(words) == 0 {
		return strings.ToLower(class)
	}
	return strings.ToLower(strings.Join(words, "-"))
}

// Description normalises repository text into a desc brew audit accepts. The
// leading article or class name is dropped at most once.
func Description(raw, class string) string {
	desc := truncate(raw, MaxDescLength)
	desc = strings.NewReplacer(".", "", "!", "").Replace(desc)
	desc = capitalize(strings.TrimSpace(desc))

	if first, rest, ok := strings.Cut(desc, " "); ok {
		lower := strings.ToLower(first)
		rest = strings.TrimSpace(rest)
		if rest != "" && (articles[lower] || strings.EqualFold(first, class)) {
			desc = capitalize(rest)
		}
	}

	return strings.ReplaceAll(desc, `"`, "'")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
