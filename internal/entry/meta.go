package entry

import (
	"strings"
	"unicode/utf8"

	"github.com/xlatombet/abt/internal/document"
	"github.com/xlatombet/abt/internal/racing"
	"github.com/xlatombet/abt/internal/textutil"
)

var (
	directionMarkers = []string{"左", "右", "内", "外"}
	fieldMarkers     = []string{"芝", "ダ"}
)

// RaceMeta is the race condition summary above the netkeiba entry list,
// e.g. "15:40発走 / 芝2400m (左)" and "馬場:良 / 天候:晴 / 18頭".
type RaceMeta struct {
	GroundCondition string
	Weather         string
	HorseCount      *int
	Direction       string // slash-joined 左/右/内/外 in order
	FieldType       string // slash-joined 芝/ダ in order
	Distance        *int
	IsHindrance     bool
}

// ParseRaceMeta reads div.RaceData01 and div.RaceData02. Each token is
// checked against every rule, so one token may set several fields.
func ParseRaceMeta(doc document.Node) (RaceMeta, error) {
	var meta RaceMeta
	first, ok := doc.First("div.RaceData01")
	if !ok {
		return meta, racing.Missing("RaceData01")
	}
	second, ok := doc.First("div.RaceData02")
	if !ok {
		return meta, racing.Missing("RaceData02")
	}

	for _, tok := range metaTokens(append(first.Contents(), second.Contents()...)) {
		if strings.Contains(tok, "馬場") {
			meta.GroundCondition = metaValue(tok, "馬場")
		}
		if strings.Contains(tok, "天候") {
			meta.Weather = metaValue(tok, "天候")
		}
		if strings.Contains(tok, "頭") {
			if n, err := textutil.FirstInt(tok); err == nil {
				meta.HorseCount = &n
			}
		}
		if textutil.ContainsAny(tok, directionMarkers) {
			meta.Direction = textutil.Markers(tok, directionMarkers, "/")
		}
		if textutil.ContainsAny(tok, fieldMarkers) {
			meta.FieldType = textutil.Markers(tok, fieldMarkers, "/")
			if nums := textutil.Ints(tok); len(nums) == 1 {
				meta.Distance = &nums[0]
			}
		}
		// netkeiba prints the post time and the course on separate lines, so
		// the first number of a hindrance token is its distance.
		if strings.Contains(tok, "障") {
			if nums := textutil.Ints(tok); len(nums) > 0 {
				meta.Distance = &nums[0]
			}
			meta.IsHindrance = true
		}
	}
	return meta, nil
}

func metaTokens(contents []string) []string {
	out := make([]string, 0, len(contents))
	for _, c := range contents {
		for _, line := range strings.Split(c, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
	}
	return out
}

// metaValue returns the value after key and its ":" or "：" separator, up
// to the next "/" or space.
func metaValue(tok, key string) string {
	_, v, ok := strings.Cut(tok, key)
	if !ok {
		return ""
	}
	v = strings.TrimSpace(v)
	if r, size := utf8.DecodeRuneInString(v); r == ':' || r == '：' {
		v = v[size:]
	}
	v = strings.TrimSpace(v)
	if i := strings.IndexAny(v, "/ 　"); i >= 0 {
		v = v[:i]
	}
	return v
}
