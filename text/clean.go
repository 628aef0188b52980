// Package text implements the preprocessing applied to raw utterances before
// subword encoding.
package text

import (
	"bufio"
	"bytes"
	"strings"
	"unicode"
)

// TokenFunc defines a type of function that takes in an array of tokens and
// returns an array of tokens.
type TokenFunc func(Tokens) Tokens

// Tokens represents a slice of strings
type Tokens []string

// Processor consists of a list of text processing rules.
type Processor struct {
	filters []TokenFunc
}

// UtteranceProcessor is the processor applied to utterances before encoding:
// lower-case and strip empty tokens.
var UtteranceProcessor = NewProcessor(Lower, DropEmpty)

// NewProcessor takes a list of TokenFuncs to instantiate a Processor.
func NewProcessor(funcs ...TokenFunc) *Processor {
	p := &Processor{}
	for _, fn := range funcs {
		p.filters = append(p.filters, fn)
	}
	return p
}

// Apply applies a list of TokenFunc to transform the input tokens
func (p *Processor) Apply(ts Tokens) Tokens {
	for _, fn := range p.filters {
		ts = fn(ts)
	}
	return ts
}

// Normalize strips control characters and collapses runs of whitespace into
// single spaces. Punctuation is kept: emotion-bearing marks ("!!", "?!") carry
// signal for this domain.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsControl(r), unicode.IsSpace(r):
			space = true
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Split breaks an utterance into word and punctuation tokens. Words keep
// inner apostrophes ("don't"); runs of other punctuation become their own
// tokens so the subword encoder sees them separately.
func Split(s string) Tokens {
	s = Normalize(s)

	buf := bytes.NewBufferString(s)
	scanner := bufio.NewScanner(buf)
	scanner.Split(bufio.ScanWords)

	var tokens Tokens
	for scanner.Scan() {
		tokens = append(tokens, splitWord(scanner.Text())...)
	}
	return tokens
}

func splitWord(w string) Tokens {
	var tokens Tokens
	var word []rune
	var punct []rune

	flushWord := func() {
		if len(word) > 0 {
			tokens = append(tokens, string(word))
			word = nil
		}
	}
	flushPunct := func() {
		if len(punct) > 0 {
			tokens = append(tokens, string(punct))
			punct = nil
		}
	}

	runes := []rune(w)
	for i, r := range runes {
		inner := i > 0 && i < len(runes)-1
		if unicode.IsLetter(r) || unicode.IsNumber(r) || (r == '\'' && inner) {
			flushPunct()
			word = append(word, r)
		} else {
			flushWord()
			punct = append(punct, r)
		}
	}
	flushWord()
	flushPunct()
	return tokens
}

// Lower converts all tokens to lower case
func Lower(ts Tokens) Tokens {
	for i, t := range ts {
		ts[i] = strings.ToLower(t)
	}
	return ts
}

// DropEmpty removes empty tokens from a token stream
func DropEmpty(ts Tokens) Tokens {
	var kept Tokens
	for _, t := range ts {
		if t != "" {
			kept = append(kept, t)
		}
	}
	return kept
}
