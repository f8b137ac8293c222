package status

import (
	"math"
	"strings"
	"time"
	"unicode"
)

// MaxPieceLen is the longest utterance piece shown in one go.
const MaxPieceLen = 60

// FormatUtterance normalises an utterance for display: whitespace
// collapses to single spaces, the first letter is upper-cased, and a
// terminating period is added when no end punctuation is present.
func FormatUtterance(raw string) string {
	text := strings.Join(strings.Fields(raw), " ")
	if text == "" {
		return ""
	}
	runes := []rune(text)
	runes[0] = unicode.ToUpper(runes[0])
	text = string(runes)
	if !strings.ContainsRune(".!?", runes[len(runes)-1]) {
		text += "."
	}
	return text
}

// Duration computes how long a formatted utterance stays on display.
// The curve saturates around two seconds; trailing punctuation added
// by formatting does not count towards the length.
func Duration(text string) time.Duration {
	n := len(strings.TrimRight(text, ".!?"))
	secs := 2.0 * (1.0 - math.Pow(0.75, float64(n)/10.0))
	return time.Duration(secs * float64(time.Second))
}

// Piece is one displayable segment of an utterance and the delay the
// worker holds it on display before moving on.
type Piece struct {
	Text        string
	Persistence time.Duration
}

// Pieces splits a formatted utterance into display segments no longer
// than MaxPieceLen, preferring sentence boundaries and falling back to
// whitespace. Each piece carries a share of the utterance's total
// duration proportional to its length; the last piece takes the
// remainder, so the shares always sum to the exact total.
func Pieces(text string) []Piece {
	segments := split(text)
	if len(segments) == 0 {
		return nil
	}
	total := Duration(text)
	var chars int
	for _, s := range segments {
		chars += len(s)
	}

	pieces := make([]Piece, len(segments))
	var spent time.Duration
	for i, s := range segments {
		var d time.Duration
		if i == len(segments)-1 {
			d = total - spent
		} else {
			d = time.Duration(float64(total) * float64(len(s)) / float64(chars))
			spent += d
		}
		pieces[i] = Piece{Text: s, Persistence: d}
	}
	return pieces
}

func split(text string) []string {
	var out []string
	for _, sentence := range splitSentences(text) {
		if len(sentence) <= MaxPieceLen {
			out = append(out, sentence)
			continue
		}
		out = append(out, splitWords(sentence)...)
	}
	return out
}

// splitSentences cuts after sentence-ending punctuation followed by a
// space.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		if strings.IndexByte(".!?", text[i]) >= 0 && text[i+1] == ' ' {
			out = append(out, text[start:i+1])
			start = i + 2
			i++
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

// splitWords packs words greedily into chunks of at most MaxPieceLen.
// A single word longer than the limit is hard-cut.
func splitWords(sentence string) []string {
	var out []string
	var current string
	for _, word := range strings.Fields(sentence) {
		for len(word) > MaxPieceLen {
			if current != "" {
				out = append(out, current)
				current = ""
			}
			out = append(out, word[:MaxPieceLen])
			word = word[MaxPieceLen:]
		}
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= MaxPieceLen:
			current += " " + word
		default:
			out = append(out, current)
			current = word
		}
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}

// ExtractUtterance pulls the utterance text out of an event payload,
// which may carry it as "utterance" or as the first entry of
// "utterances".
func ExtractUtterance(data map[string]any) string {
	if data == nil {
		return ""
	}
	if s, ok := data["utterance"].(string); ok && s != "" {
		return s
	}
	switch v := data["utterances"].(type) {
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}
