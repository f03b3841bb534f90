// Package parser turns line-oriented markdown flashcard files into collection
// notes and rewrites the files with identifier comments injected.
package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// Markers recognized at the start of a raw line. No leading whitespace is
// allowed; an indented "Q:" is ordinary text.
const (
	markerQuestion = "Q:"
	markerReversed = "QA:"
	markerAnswer   = "A:"
)

// LineKind is the role a single raw line plays inside a flashcard file.
type LineKind int

const (
	// Continuation is any line with no special role. Outside a note block it
	// passes through untouched; inside one it extends the front or back.
	Continuation LineKind = iota
	QuestionStart
	ReversedQuestionStart
	AnswerLine
	IdentifierComment
	Blank
)

var (
	// idCommentRe matches an HTML-style comment pinning a note to a
	// collection identifier, e.g. <!-- 1510862771508 -->. At least two
	// dashes on each side and at least 13 consecutive digits.
	idCommentRe = regexp.MustCompile(`<!-{2,} *\d{13,} *-{2,}>`)
	digitsRe    = regexp.MustCompile(`\d{13,}`)
)

// Classify returns the role of one raw line. The line may still carry its
// trailing newline.
func Classify(line string) LineKind {
	switch {
	case strings.TrimSpace(line) == "":
		return Blank
	case strings.HasPrefix(line, markerQuestion):
		return QuestionStart
	case strings.HasPrefix(line, markerReversed):
		return ReversedQuestionStart
	case idCommentRe.MatchString(line):
		return IdentifierComment
	case strings.HasPrefix(line, markerAnswer):
		return AnswerLine
	default:
		return Continuation
	}
}

// ExtractID returns the identifier embedded in an identifier-comment line:
// the first run of 13 or more digits, normalized to int64. ok is false when
// the line carries no such run or the digits overflow int64.
func ExtractID(line string) (int64, bool) {
	digits := digitsRe.FindString(line)
	if digits == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
