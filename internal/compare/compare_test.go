package compare

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":                       "",
		"[A, B ,C]":              "A,B,C",
		"{(x)}, , y,,":           "x,y",
		"  10 , [20], (30.5) ":   "10,20,30.5",
		"no brackets here":       "no brackets here",
		"[[nested], {deep(er)}]": "nested,deeper",
		"\uFEFFA, B, C":          "A,B,C",
		"[\uFEFF1, 2]\r\n":       "1,2",
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			got := Normalize(in)
			assert.Equal(t, want, got)
			assert.Equal(t, got, Normalize(got))
			assert.NotContainsf(t, got, "[", "brackets left in %q", got)
		})
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{}, Tokenize(""))
	assert.Equal(t, []string{"a", "b"}, Tokenize(" a ,, b ,"))
	assert.Equal(t, []string{"x", "y"}, Tokenize("\uFEFFx,\ty\uFEFF"))
}

func TestCompareByteOrderMarkedUpload(t *testing.T) {
	res := Compare(Tokenize(Normalize("\uFEFFA, B, C")), Tokenize("A,B,C"))
	assert.Equal(t, []string{"A", "B", "C"}, res.Matched)
	assert.Empty(t, res.Missing)
	assert.Equal(t, "100.00", res.MatchPercentage)
}

func FuzzNormalize(f *testing.F) {
	for _, seed := range []string{
		"",
		"[A, B ,C]",
		"{(x)}, , y,,",
		"\uFEFFA, B, C",
		" \uFEFF , ,\u00a0z\u00a0",
	} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, raw string) {
		got := Normalize(raw)
		if again := Normalize(got); again != got {
			t.Fatalf("Normalize not idempotent: %q -> %q -> %q", raw, got, again)
		}
		if strings.ContainsAny(got, "[]{}()") {
			t.Fatalf("brackets left in %q", got)
		}
		if got == "" {
			return
		}
		for _, token := range strings.Split(got, ",") {
			if token == "" {
				t.Fatalf("empty token in %q", got)
			}
			if token != strings.TrimFunc(token, func(r rune) bool { return unicode.IsSpace(r) || r == '\uFEFF' }) {
				t.Fatalf("untrimmed token %q in %q", token, got)
			}
		}
	})
}

func TestCompare(t *testing.T) {
	res := Compare([]string{"A", "B", "D"}, []string{"A", "B", "C"})
	assert.Equal(t, []string{"A", "B"}, res.Matched)
	assert.Equal(t, []string{"C"}, res.Missing)
	assert.Equal(t, []string{"D"}, res.Extra)
	assert.Equal(t, "66.67", res.MatchPercentage)
	assert.InDelta(t, 66.67, res.Percentage(), 0.001)
}

func TestCompareEmptyReference(t *testing.T) {
	res := Compare([]string{"A"}, nil)
	assert.Empty(t, res.Matched)
	assert.Empty(t, res.Missing)
	assert.Equal(t, []string{"A"}, res.Extra)
	assert.Equal(t, "0.00", res.MatchPercentage)
}

func TestCompareDuplicateReferenceTokens(t *testing.T) {
	res := Compare([]string{"A"}, []string{"A", "A", "B"})
	assert.Equal(t, []string{"A"}, res.Matched)
	assert.Equal(t, []string{"B"}, res.Missing)
	assert.Equal(t, "33.33", res.MatchPercentage)
}

func TestCompareFullMatch(t *testing.T) {
	res := Compare([]string{"1", "2"}, []string{"1", "2"})
	assert.Equal(t, "100.00", res.MatchPercentage)
	assert.Empty(t, res.Missing)
	assert.Empty(t, res.Extra)
}

func TestFrequency(t *testing.T) {
	freq := Frequency([]string{"A,B", "A,C", ""})
	assert.Equal(t, map[string]int{"A": 2, "B": 1, "C": 1}, freq)
}

func TestCombinedTotal(t *testing.T) {
	total := CombinedTotal("42", []string{"10,20", "5,x", "abc"})
	require.NotNil(t, total)
	assert.InDelta(t, 35.0, *total, 1e-9)

	zero := CombinedTotal("7", []string{"a,b"})
	require.NotNil(t, zero)
	assert.Zero(t, *zero)

	assert.Nil(t, CombinedTotal("A,B", []string{"1,2"}))
	assert.Nil(t, CombinedTotal("9", nil))
}

func TestLeadingFloat(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12abc", 12, true},
		{"  -3.5", -3.5, true},
		{".5", 0.5, true},
		{"1e3x", 1000, true},
		{"1e", 1, true},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := LeadingFloat(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.InDelta(t, tc.want, got, 1e-9, tc.in)
	}
}
