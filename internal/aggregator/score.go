package aggregator

import (
	"strconv"
	"strings"
)

// markers that may appear in a score without describing a set.
var scoreMarkers = map[string]bool{
	"RET": true,
	"W/O": true,
	"DEF": true,
}

// ParseGames returns the total number of games in a score such as "63_64",
// "76(5) 64" or "6-3 7-6(4)". Tiebreak points in parentheses are not games.
// ok is false for an empty or malformed score.
func ParseGames(score string) (games int, ok bool) {
	tokens := strings.FieldsFunc(score, func(r rune) bool {
		return r == ' ' || r == '_' || r == ','
	})

	sets := 0
	for _, tok := range tokens {
		if scoreMarkers[strings.ToUpper(tok)] {
			continue
		}
		g, ok := parseSet(tok)
		if !ok {
			return 0, false
		}
		games += g
		sets++
	}
	if sets == 0 {
		return 0, false
	}
	return games, true
}

func parseSet(tok string) (int, bool) {
	if i := strings.IndexByte(tok, '('); i >= 0 {
		tb := tok[i:]
		if len(tb) < 3 || tb[len(tb)-1] != ')' || !allDigits(tb[1:len(tb)-1]) {
			return 0, false
		}
		tok = tok[:i]
	}

	if a, b, found := strings.Cut(tok, "-"); found {
		x, err1 := strconv.Atoi(a)
		y, err2 := strconv.Atoi(b)
		if err1 != nil || err2 != nil || x < 0 || y < 0 {
			return 0, false
		}
		return x + y, true
	}

	if len(tok) != 2 || !allDigits(tok) {
		return 0, false
	}
	return int(tok[0]-'0') + int(tok[1]-'0'), true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
