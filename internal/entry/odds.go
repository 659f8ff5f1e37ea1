package entry

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xlatombet/abt/internal/document"
	"github.com/xlatombet/abt/internal/racing"
	"github.com/xlatombet/abt/internal/textutil"
)

// Odds is one row of the JRA win-odds table. A scratched horse has no
// odds, and so no popularity.
type Odds struct {
	HorseNumber *int
	Odds        *float64
	Popularity  *int
}

// RankMethod decides how tied odds are ranked.
type RankMethod int

const (
	// RankDense gives ties the same rank and leaves no gaps.
	RankDense RankMethod = iota
	// RankMin gives ties the lowest rank of the group.
	RankMin
	// RankOrdinal breaks ties by order of appearance.
	RankOrdinal
	// RankAverage gives ties the mean rank of the group, truncated.
	RankAverage
)

var rankNames = map[string]RankMethod{
	"dense":   RankDense,
	"min":     RankMin,
	"ordinal": RankOrdinal,
	"average": RankAverage,
}

// ParseRankMethod maps "dense", "min", "ordinal" or "average" to a
// RankMethod. An empty name is RankDense.
func ParseRankMethod(name string) (RankMethod, error) {
	if name == "" {
		return RankDense, nil
	}
	m, ok := rankNames[strings.ToLower(name)]
	if !ok {
		return RankDense, fmt.Errorf("unknown rank method %q", name)
	}
	return m, nil
}

func (m RankMethod) String() string {
	for name, v := range rankNames {
		if v == m {
			return name
		}
	}
	return "RankMethod(" + strconv.Itoa(int(m)) + ")"
}

// ParseOdds reads the rows of the first tbody and ranks them by odds.
func ParseOdds(doc document.Node, method RankMethod) ([]Odds, error) {
	body, ok := doc.First("tbody")
	if !ok {
		return nil, racing.Missing("odds table")
	}

	rows := body.Find("tr")
	out := make([]Odds, 0, len(rows))
	values := make([]*float64, 0, len(rows))
	for i, row := range rows {
		numCell, ok := row.First("td.num")
		if !ok {
			return nil, fmt.Errorf("odds row %d: %w", i+1, racing.Missing("horse number"))
		}
		oddsText, ok := document.FirstText(row, "div.odds span.num")
		if !ok {
			return nil, fmt.Errorf("odds row %d: %w", i+1, racing.Missing("odds"))
		}

		var o Odds
		first, _, _ := strings.Cut(numCell.Text(), "\n")
		if first = strings.TrimSpace(first); textutil.IsDigits(first) {
			n, _ := strconv.Atoi(first)
			o.HorseNumber = &n
		}
		if textutil.IsDigits(strings.ReplaceAll(oddsText, ".", "")) {
			if v, err := strconv.ParseFloat(oddsText, 64); err == nil {
				o.Odds = &v
			}
		}
		out = append(out, o)
		values = append(values, o.Odds)
	}

	for i, p := range Rank(values, method) {
		out[i].Popularity = p
	}
	return out, nil
}

// Rank ranks values ascending starting at 1. Nil values stay unranked.
func Rank(values []*float64, method RankMethod) []*int {
	order := make([]int, 0, len(values))
	for i, v := range values {
		if v != nil {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return *values[order[a]] < *values[order[b]]
	})

	ranks := make([]*int, len(values))
	dense := 0
	for start := 0; start < len(order); {
		end := start + 1
		for end < len(order) && *values[order[end]] == *values[order[start]] {
			end++
		}
		dense++
		for k := start; k < end; k++ {
			var r int
			switch method {
			case RankMin:
				r = start + 1
			case RankOrdinal:
				r = k + 1
			case RankAverage:
				r = (start + 1 + end) / 2
			default:
				r = dense
			}
			ranks[order[k]] = &r
		}
		start = end
	}
	return ranks
}
