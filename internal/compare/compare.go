package compare

import (
	"regexp"
	"strconv"
	"strings"
)

// Result is the outcome of comparing an upload against a reference value.
type Result struct {
	Matched         []string `json:"matched"`
	Missing         []string `json:"missing"`
	Extra           []string `json:"extra"`
	MatchPercentage string   `json:"matchPercentage"`
}

// Percentage returns MatchPercentage as a number.
func (r Result) Percentage() float64 {
	v, _ := strconv.ParseFloat(r.MatchPercentage, 64)
	return v
}

// Compare checks user tokens against reference tokens by exact string match.
// Reference duplicates are checked and counted individually and reference order
// is preserved in Missing. An empty reference is treated as length one.
func Compare(user, reference []string) Result {
	userSet := toSet(user)
	refSet := toSet(reference)

	res := Result{
		Matched: make([]string, 0, len(user)),
		Missing: make([]string, 0),
		Extra:   make([]string, 0),
	}
	for _, token := range reference {
		if _, ok := userSet[token]; !ok {
			res.Missing = append(res.Missing, token)
		}
	}
	for _, token := range user {
		if _, ok := refSet[token]; ok {
			res.Matched = append(res.Matched, token)
		} else {
			res.Extra = append(res.Extra, token)
		}
	}

	total := len(reference)
	if total == 0 {
		total = 1
	}
	pct := float64(len(res.Matched)) / float64(total) * 100
	res.MatchPercentage = strconv.FormatFloat(pct, 'f', 2, 64)
	return res
}

// Frequency counts how often each token appears across the given normalized rows.
func Frequency(rows []string) map[string]int {
	freq := make(map[string]int)
	for _, row := range rows {
		for _, token := range Tokenize(row) {
			freq[token]++
		}
	}
	return freq
}

// CombinedTotal sums every numeric token of the rows when finalValue itself
// starts with a number. It returns nil when finalValue is not numeric or there
// are no rows, and zero when rows exist but contain no numbers.
func CombinedTotal(finalValue string, rows []string) *float64 {
	if _, ok := LeadingFloat(finalValue); !ok || len(rows) == 0 {
		return nil
	}
	var total float64
	for _, row := range rows {
		for _, piece := range strings.Split(row, ",") {
			if n, ok := LeadingFloat(piece); ok {
				total += n
			}
		}
	}
	return &total
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// LeadingFloat parses the longest numeric prefix of s after leading whitespace,
// so "12abc" is 12 and "1,2" is 1.
func LeadingFloat(s string) (float64, bool) {
	match := leadingNumber.FindString(strings.TrimLeft(s, " \t\r\n"))
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
