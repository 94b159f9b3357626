package clean

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"Hello world!!! How are you ?",
		"Totals · taxes • fees — balance\n18\n74.\nx\nnote",
		"Invoice   no 42\n\n\n\n\nAmount due tomorrow",
		"•••···\nreal content line here\n---",
		// interior whitespace dilutes the symbol ratio until it collapses;
		// the filters must judge the collapsed form on the first pass
		"abc    (((((",
		"ab   12   ++---++",
		"a . . . b words attached",
	}
	for _, in := range inputs {
		once := Normalize(in, false, false)
		assert.Equal(t, once, Normalize(once, false, false), "input %q", in)

		aggr := Normalize(in, true, false)
		assert.Equal(t, aggr, Normalize(aggr, true, false), "aggressive, input %q", in)

		hand := Normalize(in, false, true)
		assert.Equal(t, hand, Normalize(hand, false, true), "handwriting, input %q", in)
	}
}

func TestNormalizeFiltersSeeCollapsedLine(t *testing.T) {
	// "abc (((((" is 5 symbols of 9 characters once the spaces collapse, so
	// both spellings drop; padding must not smuggle the line past the filter
	assert.Equal(t, "", Normalize("abc (((((", false, false))
	assert.Equal(t, "", Normalize("abc    (((((", false, false))
}

func TestNormalizeAllowList(t *testing.T) {
	for _, tok := range []string{"x", "x.", "X", "X.", "note", "Note", "NOTE"} {
		assert.Equal(t, tok, Normalize(tok, false, false), "default mode")
		assert.Equal(t, tok, Normalize(tok, true, false), "aggressive mode")
	}
	// trimmed, but otherwise verbatim
	assert.Equal(t, "x.", Normalize("  x.  ", false, false))
}

func TestNormalizeDropsDigitLines(t *testing.T) {
	// pure digit lines are noise in default mode
	assert.Equal(t, "", Normalize("18", false, false))
	assert.Equal(t, "", Normalize("74.", false, false))

	out := Normalize("Payment schedule follows\n18\n74.\nx", false, false)
	assert.Equal(t, "Payment schedule follows\nx", out)
}

func TestNormalizeDropFilters(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		aggressive  bool
		handwriting bool
		want        string
	}{
		{"symbol soup dropped", "*** ---- ###\nkeep this line", false, false, "keep this line"},
		{"few letters dropped", "ab\nabc here", false, false, "abc here"},
		{"aggressive requires alpha run", "a b c d e f\nwords remain", true, false, "words remain"},
		{"handwriting keeps short lines", "ok 1\nhi", false, true, "ok 1\nhi"},
		{"handwriting looser symbol ratio", "a-b.c!\n@#$%^&*", false, true, "a-b.c!"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in, tc.aggressive, tc.handwriting))
		})
	}
}

func TestNormalizeSymbolsAndSpacing(t *testing.T) {
	out := Normalize("items • listed — here !!!", false, false)
	assert.Equal(t, "items. listed - here!", out)

	out = Normalize("too   many    spaces here .", false, false)
	assert.Equal(t, "too many spaces here.", out)
}

func TestNormalizeBlankLineCollapse(t *testing.T) {
	// blank lines are noise lines; runs of them never survive
	out := Normalize("first paragraph here\n\n\n\n\nsecond paragraph here", false, false)
	require.Equal(t, "first paragraph here\nsecond paragraph here", out)
}
