package uischema

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Humanize turns a field name into a label: "fromToken" -> "From Token",
// "max_price" -> "Max price".
func Humanize(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	s := upperFirst(b.String())
	s = strings.ReplaceAll(s, "_", " ")
	return strings.TrimSpace(s)
}

// HumanizeAction turns an action type into a title: "buy_nft" -> "Buy Nft".
func HumanizeAction(actionType string) string {
	s := []rune(strings.ReplaceAll(actionType, "_", " "))
	prevWord := false
	for i, r := range s {
		w := isWordRune(r)
		if w && !prevWord {
			s[i] = unicode.ToUpper(r)
		}
		prevWord = w
	}
	return string(s)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func isWordRune(r rune) bool {
	return r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
