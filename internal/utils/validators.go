package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidEmail reports whether s looks like a deliverable address.
func ValidEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// ValidFullName accepts two or more words made of letters, hyphens and
// apostrophes.
func ValidFullName(s string) bool {
	words := strings.Fields(strings.TrimSpace(s))
	if len(words) < 2 {
		return false
	}
	for _, w := range words {
		for _, r := range w {
			if !unicode.IsLetter(r) && r != '-' && r != '\'' {
				return false
			}
		}
	}
	return true
}

// ValidCity accepts non-empty names of letters, spaces and hyphens.
func ValidCity(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' {
			return false
		}
	}
	return true
}

// NormalizePhone strips separators and returns the number in +<digits>
// form. The second result is false when the input is not a usable phone
// number. A leading 8 on an 11-digit number is rewritten to +7.
func NormalizePhone(s string) (string, bool) {
	var digits strings.Builder
	plus := false
	for i, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '+' && i == 0:
			plus = true
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return "", false
		}
	}
	d := digits.String()
	if len(d) < 10 || len(d) > 15 {
		return "", false
	}
	if !plus && len(d) == 11 && d[0] == '8' {
		d = "7" + d[1:]
	}
	return "+" + d, true
}

// ValidAge bounds self-reported age to a plausible range.
func ValidAge(age int) bool {
	return age > 10 && age < 100
}

// ValidChildrenCount rejects negative and absurd values.
func ValidChildrenCount(n int) bool {
	return n >= 0 && n <= 20
}
