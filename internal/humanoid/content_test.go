// internal/humanoid/content_test.go
package humanoid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyContent(t *testing.T) {
	tests := []struct {
		name string
		text string
		want ContentKind
	}{
		{"Python", "def handler(event):\n    return event", ContentCode},
		{"GoAssign", "x := compute(y)", ContentCode},
		{"Braces", "if (a) { b(); }", ContentCode},
		{"EmailGreeting", "Dear team, the release is out.", ContentEmail},
		{"EmailAddress", "ping ops@example.org when done", ContentEmail},
		{"Formal", "The results were inconclusive; therefore, we continue.", ContentFormal},
		{"FormalCaseInsensitive", "However it turned out fine", ContentFormal},
		{"Repetitive", "yes yes yes no yes no yes", ContentRepetitive},
		{"Plain", "just a short note about lunch plans", ContentPlain},
		{"PlainEnglishWithFor", "waiting for the bus while it rains", ContentPlain},
		{"TooShortForRepetitive", "no no no", ContentPlain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyContent(tt.text))
		})
	}
}

func TestParseContentKind(t *testing.T) {
	k, err := ParseContentKind(" Code ")
	require.NoError(t, err)
	assert.Equal(t, ContentCode, k)

	k, err = ParseContentKind("auto")
	require.NoError(t, err)
	assert.Equal(t, ContentAuto, k)

	_, err = ParseContentKind("sonnet")
	assert.Error(t, err)
}

func TestPasteCandidate(t *testing.T) {
	tests := []struct {
		name string
		text string
		at   int
		want int
	}{
		{"Email", "mail bob@corp.io now", 5, len("bob@corp.io")},
		{"URLTrimsSentencePunctuation", "see https://go.dev/doc.", 4, len("https://go.dev/doc")},
		{"WWW", "www.example.com", 0, len("www.example.com")},
		{"MidTokenNeverStarts", "mail bob@corp.io", 6, 0},
		{"RepeatedToken", "alpha beta alpha", 11, len("alpha")},
		{"RepeatTooShort", "ab cd ab", 6, 0},
		{"TechnicalIdentifier", "set max_retries", 4, len("max_retries")},
		{"CamelCase", "call parseHeader", 5, len("parseHeader")},
		{"TechnicalTooShort", "use a_b", 4, 0},
		{"PlainWord", "ordinary sentence", 9, 0},
		{"TrailingPeriodNotTechnical", "many things.", 5, 0},
		{"VersionWithComma", "bump v1.2.3, then", 5, len("v1.2.3")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pasteCandidate([]rune(tt.text), tt.at, 4, 6))
		})
	}
}

func TestIsRepetitive(t *testing.T) {
	assert.True(t, isRepetitive("go go go go stop"))
	assert.False(t, isRepetitive("every word here is different"))
}
