package document

import (
	"strings"
	"unicode/utf8"
)

// pageCharBudget is the proportional-split page size for formats without
// native page boundaries. Roughly one dense A4 page of monospaced text.
const pageCharBudget = 3500

// extractPlainPages treats content as text. Form feeds mark explicit page
// breaks when present; otherwise the text is split proportionally. Invalid
// UTF-8 sequences are replaced with the replacement character.
func extractPlainPages(content []byte) (*Pages, error) {
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	if strings.ContainsRune(text, '\f') {
		texts := strings.Split(text, "\f")
		return &Pages{PageCount: len(texts), Texts: texts}, nil
	}
	return proportionalPages(text), nil
}

// proportionalPages splits text into pageCharBudget-sized pages on line
// boundaries. Empty text yields zero pages; short text yields one.
func proportionalPages(text string) *Pages {
	if strings.TrimSpace(text) == "" {
		return &Pages{}
	}
	if len(text) <= pageCharBudget {
		return &Pages{PageCount: 1, Texts: []string{text}}
	}

	var texts []string
	var b strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		// A single line longer than the budget is cut hard.
		for len(line) > pageCharBudget {
			b.WriteString(line[:pageCharBudget])
			texts = append(texts, b.String())
			b.Reset()
			line = line[pageCharBudget:]
		}
		if b.Len()+len(line) > pageCharBudget && b.Len() > 0 {
			texts = append(texts, b.String())
			b.Reset()
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		texts = append(texts, b.String())
	}
	return &Pages{PageCount: len(texts), Texts: texts}
}
