package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// NormalizeSpeech lowercases a transcript and removes everything but
// letters, digits and single spaces so two renditions of the same line
// can be compared.
func NormalizeSpeech(s string) string {
	var out strings.Builder
	for _, c := range strings.ToLower(s) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			out.WriteRune(c)
		case c == ' ', c == '\t', c == '\n':
			out.WriteRune(' ')
		}
	}
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(out.String()), " ")
}
