package codegen

import (
	"strings"
	"unicode"
)

// ComponentName concatenates parts, drops every non-alphanumeric character and
// upper-cases the first one. ("human_model", "fashion", "Form") becomes
// "HumanmodelfashionForm". A leading digit gets a "C" prefix so the name is a
// valid identifier.
func ComponentName(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		for _, r := range p {
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
				b.WriteRune(r)
			}
		}
	}
	name := b.String()
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		name = "C" + name
	}
	return upperFirst(name)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// Humanize turns "full_name" or "fullName" into "Full Name".
func Humanize(s string) string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, upperFirst(string(cur)))
			cur = cur[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == '.':
			flush()
		case unicode.IsUpper(r) && i > 0 && unicode.IsLower(runes[i-1]):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return strings.Join(words, " ")
}

// isIdentifier reports whether s can be used unquoted as an object key.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || r == '$' || (r < unicode.MaxASCII && unicode.IsLetter(r)) {
			continue
		}
		if i > 0 && r < unicode.MaxASCII && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
