// internal/humanoid/content.go
package humanoid

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ContentKind is the coarse category of a text payload. It adjusts typing
// speed, error rate and how readily spans are pasted.
type ContentKind string

const (
	ContentAuto       ContentKind = ""
	ContentPlain      ContentKind = "plain"
	ContentCode       ContentKind = "code"
	ContentEmail      ContentKind = "email"
	ContentFormal     ContentKind = "formal"
	ContentRepetitive ContentKind = "repetitive"
)

// ParseContentKind accepts the names above; "" and "auto" mean classify.
func ParseContentKind(s string) (ContentKind, error) {
	switch k := ContentKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ContentAuto, "auto":
		return ContentAuto, nil
	case ContentPlain, ContentCode, ContentEmail, ContentFormal, ContentRepetitive:
		return k, nil
	}
	return ContentAuto, fmt.Errorf("unknown content kind %q", s)
}

// contentFactors are the fixed adjustments per kind.
type contentFactors struct {
	wpm       float64
	errorRate float64
	// pasteBoost raises the copy-paste probability.
	pasteBoost bool
}

var factorsByKind = map[ContentKind]contentFactors{
	ContentPlain:      {wpm: 1.0, errorRate: 1.0},
	ContentCode:       {wpm: 0.8, errorRate: 0.7},
	ContentEmail:      {wpm: 1.0, errorRate: 1.0, pasteBoost: true},
	ContentFormal:     {wpm: 0.9, errorRate: 0.8},
	ContentRepetitive: {wpm: 1.2, errorRate: 1.0, pasteBoost: true},
}

var (
	codeIndicators = []string{
		"def ", "class ", "import ", "{", "}", "[", "]", "()", "=>", "==", "!=",
		"&&", "||", "function", "const ", "return ", ":=", ";\n",
	}
	emailIndicators = []string{
		"@", "Dear", "Sincerely", "Best regards", "Hi ", "Hello",
		"Subject:", "From:", "To:", ".com", ".org", ".net",
	}
	formalIndicators = []string{
		"furthermore", "therefore", "consequently", "moreover",
		"however", "nevertheless", "accordingly", "thus",
	}
)

// ClassifyContent applies simple pattern heuristics, checked in order:
// code, email, formal, repetitive.
func ClassifyContent(text string) ContentKind {
	switch {
	case containsAny(text, codeIndicators):
		return ContentCode
	case containsAny(text, emailIndicators):
		return ContentEmail
	case containsAny(strings.ToLower(text), formalIndicators):
		return ContentFormal
	case isRepetitive(text):
		return ContentRepetitive
	}
	return ContentPlain
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// isRepetitive is true when at least five words are under 70% unique.
func isRepetitive(text string) bool {
	words := strings.Fields(text)
	if len(words) < 5 {
		return false
	}
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}
	return float64(len(unique))/float64(len(words)) < 0.7
}

var (
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	urlPattern   = regexp.MustCompile(`^(?:https?://|www\.)\S+`)
)

// trailing punctuation that belongs to the sentence, not the URL.
const urlTrailing = ".,;:!?)]}'\""

// pasteCandidate returns the length in runes of a span starting at i that a
// person would plausibly paste: an email address, a URL, a repeat of a token
// already typed, or a long technical token. Spans only start at token
// boundaries. Zero means no candidate.
func pasteCandidate(runes []rune, i int, repeatMin, technicalMin int) int {
	if i > 0 && !unicode.IsSpace(runes[i-1]) {
		return 0
	}
	end := i
	for end < len(runes) && !unicode.IsSpace(runes[end]) {
		end++
	}
	token := string(runes[i:end])
	if token == "" {
		return 0
	}

	if m := emailPattern.FindString(token); m != "" {
		return len([]rune(m))
	}
	if m := urlPattern.FindString(token); m != "" {
		m = strings.TrimRight(m, urlTrailing)
		return len([]rune(m))
	}

	// Sentence punctuation stays typed.
	core := []rune(strings.TrimRight(token, urlTrailing))
	n := len(core)
	if n == 0 {
		return 0
	}
	if n >= repeatMin && strings.Contains(string(runes[:i]), string(core)) {
		return n
	}
	if n >= technicalMin && isTechnical(core) {
		return n
	}
	return 0
}

// isTechnical reports identifiers, paths, versions and similar tokens.
func isTechnical(tok []rune) bool {
	for idx, r := range tok {
		switch {
		case unicode.IsDigit(r), strings.ContainsRune("_./:-\\#", r):
			return true
		case idx > 0 && unicode.IsUpper(r) && unicode.IsLower(tok[idx-1]):
			return true
		}
	}
	return false
}
