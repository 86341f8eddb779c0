package types

import (
	"reflect"
	"strings"

	"srparse/util"
)

// Token is one word of a raw sentence.
type Token string

type Sentence interface {
	util.Equaler
	Tokens() []string
}

type BasicSentence []Token

var _ Sentence = BasicSentence{}

func (b BasicSentence) Tokens() []string {
	retval := make([]string, len(b))
	for i, val := range b {
		retval[i] = string(val)
	}
	return retval
}

func (b BasicSentence) Equal(otherEq util.Equaler) bool {
	asBasic, ok := otherEq.(BasicSentence)
	return ok && reflect.DeepEqual(b, asBasic)
}

func (b BasicSentence) String() string {
	return strings.Join(b.Tokens(), " ")
}

func NewSentence(words []string) BasicSentence {
	sent := make(BasicSentence, len(words))
	for i, w := range words {
		sent[i] = Token(w)
	}
	return sent
}

// Span is a half-open token range [Start, End).
type Span struct {
	Start, End int
}

func (s Span) Len() int { return s.End - s.Start }

func (s Span) Empty() bool { return s.End <= s.Start }

// Union is the smallest span covering both s and o.
func (s Span) Union(o Span) Span {
	return Span{min(s.Start, o.Start), max(s.End, o.End)}
}

// Adjacent reports whether o starts exactly where s ends.
func (s Span) Adjacent(o Span) bool { return s.End == o.Start }

// Crosses reports whether s and o overlap without either containing the other.
func (s Span) Crosses(o Span) bool {
	return (s.Start < o.Start && o.Start < s.End && s.End < o.End) ||
		(o.Start < s.Start && s.Start < o.End && o.End < s.End)
}
