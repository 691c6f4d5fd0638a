package model

import "strings"

// ContainsWord reports whether s contains w. ASCII words must stand alone
// ("cd" does not match "cdmg", "def" does not match "undefended"); CJK words
// match anywhere. Both arguments are expected in lower case.
func ContainsWord(s, w string) bool {
	if w == "" {
		return false
	}
	ascii := isASCII(w)
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], w)
		if i < 0 {
			return false
		}
		i += from
		if !ascii || (!letterAt(s, i-1) && !letterAt(s, i+len(w))) {
			return true
		}
		from = i + 1
	}
	return false
}

// inflections are the endings ContainsWordForm accepts after an ASCII word.
var inflections = []string{"s", "es", "d", "ed", "ing"}

// ContainsWordForm is ContainsWord that also accepts an inflected ASCII
// word: "melting" and "vaporized" match, "smelt" and "breakthrough" do not.
func ContainsWordForm(s, w string) bool {
	if w == "" {
		return false
	}
	if !isASCII(w) {
		return strings.Contains(s, w)
	}
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], w)
		if i < 0 {
			return false
		}
		i += from
		if !letterAt(s, i-1) && wordEnds(s, i+len(w)) {
			return true
		}
		from = i + 1
	}
	return false
}

func wordEnds(s string, i int) bool {
	if !letterAt(s, i) {
		return true
	}
	for _, suf := range inflections {
		if strings.HasPrefix(s[i:], suf) && !letterAt(s, i+len(suf)) {
			return true
		}
	}
	return false
}

// ContainsAnyWord is ContainsWord over a word list.
func ContainsAnyWord(s string, words []string) bool {
	for _, w := range words {
		if ContainsWord(s, w) {
			return true
		}
	}
	return false
}

// ContainsAny is a plain substring test over a word list.
func ContainsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func isASCII(w string) bool {
	for i := 0; i < len(w); i++ {
		if w[i] >= 0x80 {
			return false
		}
	}
	return true
}

func letterAt(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	return c >= 'a' && c <= 'z'
}
