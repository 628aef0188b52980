package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type splitTC struct {
	Desc     string
	Text     string
	Expected Tokens
}

func Test_Split(t *testing.T) {
	tcs := []splitTC{
		{
			Desc:     "empty",
			Text:     "",
			Expected: nil,
		},
		{
			Desc:     "plain words",
			Text:     "what a great day",
			Expected: Tokens{"what", "a", "great", "day"},
		},
		{
			Desc:     "trailing punctuation split off",
			Text:     "so angry!!",
			Expected: Tokens{"so", "angry", "!!"},
		},
		{
			Desc:     "inner apostrophe kept",
			Text:     "don't panic",
			Expected: Tokens{"don't", "panic"},
		},
		{
			Desc:     "whitespace runs collapsed",
			Text:     "hello\t\n  world",
			Expected: Tokens{"hello", "world"},
		},
		{
			Desc:     "mixed word and punctuation",
			Text:     "wow...ok",
			Expected: Tokens{"wow", "...", "ok"},
		},
	}

	for i, tc := range tcs {
		actual := Split(tc.Text)
		assert.Equal(t, tc.Expected, actual, "case %d: %s", i, tc.Desc)
	}
}

func Test_SplitIdempotentConfig(t *testing.T) {
	// identical input and configuration must produce identical tokens
	a := UtteranceProcessor.Apply(Split("I CAN'T believe it!"))
	b := UtteranceProcessor.Apply(Split("I CAN'T believe it!"))
	assert.Equal(t, a, b)
}

func Test_Lower(t *testing.T) {
	assert.Equal(t, Tokens{"abc", "!?"}, Lower(Tokens{"AbC", "!?"}))
}
