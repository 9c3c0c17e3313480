package file

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxNameLength is the maximum length of a sanitized name, in characters.
const MaxNameLength = 200

// MaxNameBytes keeps "<name>.f137.mp4.part" within the common 255-byte
// filename limit for multi-byte titles.
const MaxNameBytes = 240

// decorative punctuation dropped from titles entirely
var decorative = map[rune]struct{}{
	'【': {}, '】': {}, '「': {}, '」': {}, '『': {}, '』': {},
	'《': {}, '》': {}, '〈': {}, '〉': {}, '〔': {}, '〕': {},
	'（': {}, '）': {}, '［': {}, '］': {}, '｛': {}, '｝': {},
	'“': {}, '”': {}, '‘': {}, '’': {}, '„': {}, '«': {}, '»': {},
	'…': {}, '⋯': {}, '•': {}, '·': {},
}

// replaced with an underscore
const unsafeChars = `/\|:*?"<>=`

// Sanitize maps an arbitrary title to a name that is safe to use as a file
// base name. It never fails; an empty or all-punctuation title yields "".
func Sanitize(title string) string {
	title = norm.NFC.String(title)

	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if _, drop := decorative[r]; drop {
			continue
		}
		if strings.ContainsRune(unsafeChars, r) || unicode.IsControl(r) {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}

	// whitespace runs become single spaces, and the spaces then act as
	// separators alongside underscores
	spaced := strings.Join(strings.Fields(b.String()), " ")
	segments := strings.FieldsFunc(spaced, func(r rune) bool { return r == '_' || r == ' ' })
	name := strings.Join(segments, "_")

	if runes := []rune(name); len(runes) > MaxNameLength {
		name = string(runes[:MaxNameLength])
	}
	for len(name) > MaxNameBytes {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	return strings.TrimSpace(name)
}
