package subtitles

import (
	"strings"
	"unicode"

	"storyreel/config"
)

// conjunctions are the coordinating words a long phrase may be split before.
var conjunctions = map[string]bool{
	"and": true, "but": true, "or": true, "so": true, "yet": true,
	"и": true, "но": true, "а": true, "или": true,
}

// fillers are pause markers dropped when splitting leaves them standing alone.
var fillers = map[string]bool{
	"um": true, "uh": true, "er": true, "ah": true, "hmm": true, "mm": true,
	"э": true, "эм": true, "ну": true,
}

// Segment splits narration text into short, screen-friendly phrases.
// Sentences are cut on terminal punctuation; any sentence longer than the
// display budget is further split on commas and coordinating conjunctions.
// Reading order is preserved and non-blank input always yields at least
// one phrase.
func Segment(text string) []string {
	var phrases []string
	for _, sentence := range splitSentences(text) {
		if len([]rune(sentence)) <= config.SubtitleMaxPhraseLen {
			phrases = append(phrases, sentence)
			continue
		}
		phrases = append(phrases, splitLongSentence(sentence)...)
	}

	out := phrases[:0]
	for _, p := range phrases {
		if p = strings.TrimSpace(p); p != "" && !isFiller(p) {
			out = append(out, p)
		}
	}

	if len(out) == 0 && strings.TrimSpace(text) != "" {
		return []string{strings.TrimSpace(text)}
	}
	return out
}

// splitSentences cuts on `.`, `!`, `?` followed by whitespace (or end of
// input), keeping the punctuation with the preceding fragment.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	runes := []rune(text)

	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			sentences = append(sentences, s)
		}
		b.Reset()
	}

	for i, r := range runes {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				flush()
			}
		}
	}
	flush()
	return sentences
}

// splitLongSentence breaks an over-budget sentence on comma boundaries,
// then on conjunctions for chunks that are still too long.
func splitLongSentence(sentence string) []string {
	var parts []string
	for _, chunk := range strings.Split(sentence, ",") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		if len([]rune(chunk)) <= config.SubtitleMaxPhraseLen {
			parts = append(parts, chunk)
			continue
		}
		parts = append(parts, splitOnConjunctions(chunk)...)
	}
	return parts
}

func splitOnConjunctions(chunk string) []string {
	words := strings.Fields(chunk)
	var parts []string
	var current []string

	for _, w := range words {
		// Start a new fragment before a conjunction, but never leave the
		// current fragment empty.
		if conjunctions[strings.ToLower(strings.Trim(w, ".,!?"))] && len(current) > 0 {
			parts = append(parts, strings.Join(current, " "))
			current = current[:0]
		}
		current = append(current, w)
	}
	if len(current) > 0 {
		parts = append(parts, strings.Join(current, " "))
	}
	return parts
}

func isFiller(phrase string) bool {
	return fillers[strings.ToLower(strings.Trim(phrase, ".,!?… "))]
}
