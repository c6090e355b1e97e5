package embedding

import (
	"strings"
	"unicode"
)

// chunkText splits text into chunks of at most maxChars, preferring
// sentence boundaries and falling back to word boundaries for sentences
// that are themselves too long.
func chunkText(text string, maxChars int) []string {
	if len(text) == 0 {
		return []string{}
	}
	if len(text) <= maxChars {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, sentence := range splitSentences(text) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(sentence)+1 > maxChars {
			flush()
		}
		if len(sentence) > maxChars {
			flush()
			for _, part := range splitByWords(sentence, maxChars) {
				chunks = append(chunks, part)
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}
	flush()

	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}

func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\r", " ")

	var sentences []string
	var current strings.Builder
	runes := []rune(text)

	for i, r := range runes {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				sentences = append(sentences, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}

func splitByWords(sentence string, maxChars int) []string {
	var chunks []string
	var current strings.Builder

	for _, word := range strings.Fields(sentence) {
		if current.Len() > 0 && current.Len()+len(word)+1 > maxChars {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		// a single oversized word gets hard-cut
		for len(word) > maxChars {
			chunks = append(chunks, word[:maxChars])
			word = word[maxChars:]
		}
		if word == "" {
			continue
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
