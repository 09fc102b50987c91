// internal/humanoid/keyboard.go
package humanoid

import (
	"math/rand"
	"strings"
	"unicode"
)

// -- keyboardNeighbors maps characters to their adjacent keys on a QWERTY layout --
var keyboardNeighbors = map[rune]string{
	'1': "2q`", '2': "13wq", '3': "24we", '4': "35er", '5': "46rt", '6': "57ty",
	'7': "68yu", '8': "79ui", '9': "80io", '0': "9-op",
	'q': "wa1s", 'w': "qase23", 'e': "wsdr34", 'r': "edft45", 't': "rfgy56",
	'y': "tghu67", 'u': "yhji78", 'i': "ujko89", 'o': "iklp90", 'p': "ol;0-",
	'a': "qwsz", 's': "awedxz", 'd': "serfcx", 'f': "drtgvc", 'g': "ftyhbv",
	'h': "gyujnb", 'j': "huikmn", 'k': "jiol,m", 'l': "kop;.",
	'z': "asx", 'x': "zsdc", 'c': "xdfv", 'v': "cfgb", 'b': "vghn", 'n': "bhjm", 'm': "njk,",
}

// -- commonBigrams are typed in a practised burst --
var commonBigrams = map[string]bool{
	"th": true, "he": true, "in": true, "er": true, "an": true, "re": true,
	"es": true, "on": true, "st": true, "nt": true, "en": true, "at": true,
}

// -- awkwardBigrams need the same finger twice in a row on QWERTY --
var awkwardBigrams = map[string]bool{
	"ed": true, "de": true, "ce": true, "ec": true, "un": true, "nu": true,
	"my": true, "ym": true, "ol": true, "lo": true, "sw": true, "ws": true,
	"rf": true, "fr": true, "tg": true, "gt": true, "ju": true, "uj": true,
	"ki": true, "ik": true, "hy": true, "yh": true, "br": true, "rb": true,
	"lp": true, "pl": true, "az": true, "za": true, "qa": true, "aq": true,
	"xs": true, "sx": true, "mu": true, "um": true, "nh": true, "hn": true,
}

// punctuation typed without leaving the home block.
const plainPunctuation = ".,;:'\"!?-"

// charClass groups characters by how hard they are to type.
type charClass int

const (
	classPlain charClass = iota
	classSpace
	classUpper
	classDigitPunct
	classSymbol
)

func classify(r rune) charClass {
	switch {
	case unicode.IsSpace(r):
		return classSpace
	case unicode.IsUpper(r):
		return classUpper
	case unicode.IsDigit(r), strings.ContainsRune(plainPunctuation, r):
		return classDigitPunct
	case unicode.IsLetter(r):
		return classPlain
	default:
		return classSymbol
	}
}

// neighborKey picks an adjacent key for r, keeping its case.
func neighborKey(rng *rand.Rand, r rune) (rune, bool) {
	neighbors, ok := keyboardNeighbors[unicode.ToLower(r)]
	if !ok || len(neighbors) == 0 {
		return 0, false
	}
	n := rune(neighbors[rng.Intn(len(neighbors))])
	if unicode.IsUpper(r) {
		n = unicode.ToUpper(n)
	}
	return n, true
}

func bigram(prev, cur rune) string {
	return string([]rune{unicode.ToLower(prev), unicode.ToLower(cur)})
}
