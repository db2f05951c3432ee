package similarity

import "strings"

// soundexCodes maps consonants to their American Soundex digit.
var soundexCodes = map[rune]byte{
	'B': '1', 'F': '1', 'P': '1', 'V': '1',
	'C': '2', 'G': '2', 'J': '2', 'K': '2', 'Q': '2', 'S': '2', 'X': '2', 'Z': '2',
	'D': '3', 'T': '3',
	'L': '4',
	'M': '5', 'N': '5',
	'R': '6',
}

// Soundex returns the four-character American Soundex code for s, or "" when
// s contains no letters. Non-letter characters are ignored; H and W are
// transparent between consonants; vowels reset the previous code.
func Soundex(s string) string {
	var letters []rune
	for _, r := range strings.ToUpper(s) {
		if r >= 'A' && r <= 'Z' {
			letters = append(letters, r)
		}
	}
	if len(letters) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteRune(letters[0])
	prev := soundexCodes[letters[0]]
	for _, r := range letters[1:] {
		if b.Len() == 4 {
			break
		}
		switch r {
		case 'H', 'W':
			continue
		case 'A', 'E', 'I', 'O', 'U', 'Y':
			prev = 0
			continue
		}
		code := soundexCodes[r]
		if code != 0 && code != prev {
			b.WriteByte(code)
		}
		prev = code
	}
	out := b.String()
	for len(out) < 4 {
		out += "0"
	}
	return out
}
