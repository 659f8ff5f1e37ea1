// Package entry extracts a race card: the netkeiba entry list joined with
// the JRA win odds, plus the race conditions printed above the card.
//
// Optional cells follow a fixed missing-value policy: an absent weight cell
// gives nil weight and nil change, an absent age/sex cell gives nil age and
// empty sex, an absent load cell gives nil load. Canceled horses stay in
// the extracted rows and are only removed by Card.Data.
package entry

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/xlatombet/abt/internal/document"
	"github.com/xlatombet/abt/internal/racing"
	"github.com/xlatombet/abt/internal/textutil"
)

// Entry is one horse on the netkeiba entry list.
type Entry struct {
	HorseNumber        int
	LaneNumber         int
	HorseName          string
	HorseID            string
	TrainerName        string
	TrainerAffiliation string
	TrainerID          string
	IsCanceled         bool
	Weight             *int
	WeightChange       *int
	Age                *int
	Sex                string
	LoadWeight         *float64
}

var weightPattern = regexp.MustCompile(`^(-?)\s*(\d+)\s*\(\s*([+-]?\d+)\s*\)$`)

// ParseEntries reads every tr.HorseList row in page order.
func ParseEntries(doc document.Node) ([]Entry, error) {
	rows := doc.Find("tr.HorseList")
	entries := make([]Entry, 0, len(rows))
	seen := make(map[int]bool, len(rows))
	for i, row := range rows {
		e, err := parseEntry(row)
		if err != nil {
			return nil, fmt.Errorf("entry row %d: %w", i+1, err)
		}
		if seen[e.HorseNumber] {
			return nil, fmt.Errorf("entry row %d: %w: horse number %d", i+1, racing.ErrAmbiguousMatch, e.HorseNumber)
		}
		seen[e.HorseNumber] = true
		entries = append(entries, e)
	}
	return entries, nil
}

func parseEntry(row document.Node) (Entry, error) {
	var e Entry
	var err error

	text, ok := document.FirstText(row, `td[class*="Umaban"]`)
	if !ok {
		return e, racing.Missing("horse number")
	}
	if e.HorseNumber, err = strconv.Atoi(text); err != nil {
		return e, racing.Malformed("horse number", text)
	}

	text, ok = document.FirstText(row, `td[class*="Waku"] span`)
	if !ok {
		return e, racing.Missing("lane number")
	}
	if e.LaneNumber, err = strconv.Atoi(text); err != nil {
		return e, racing.Malformed("lane number", text)
	}

	horse, ok := row.First("span.HorseName")
	if !ok {
		return e, racing.Missing("horse name")
	}
	e.HorseName = horse.Text()
	if e.HorseID, err = linkID(horse, "horse"); err != nil {
		return e, err
	}

	trainer, ok := row.First("td.Trainer")
	if !ok {
		return e, racing.Missing("trainer")
	}
	if e.TrainerName, ok = document.FirstText(trainer, "a"); !ok {
		return e, racing.Missing("trainer name")
	}
	if e.TrainerAffiliation, ok = document.FirstText(trainer, "span"); !ok {
		return e, racing.Missing("trainer affiliation")
	}
	if e.TrainerID, err = linkID(trainer, "trainer"); err != nil {
		return e, err
	}

	_, e.IsCanceled = row.First("td.Cancel_Txt")

	if cell, ok := row.First("td.Weight"); ok {
		if e.Weight, e.WeightChange, err = ParseWeight(cell.Text()); err != nil {
			return e, err
		}
	}

	if cell, ok := row.First("td.Barei"); ok {
		if e.Age, e.Sex, err = ParseAgeSex(cell.Text()); err != nil {
			return e, err
		}
	}

	if text, ok := document.FirstText(row, `td[class="Txt_C"]`); ok {
		load, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return e, racing.Malformed("load weight", text)
		}
		e.LoadWeight = &load
	}

	return e, nil
}

func linkID(n document.Node, what string) (string, error) {
	a, ok := n.First("a")
	if !ok {
		return "", racing.Missing(what + " link")
	}
	href, ok := a.Attr("href")
	if !ok {
		return "", racing.Missing(what + " link")
	}
	return textutil.LastSegment(href)
}

// ParseWeight reads a body weight cell such as "480(+4)" or "-480(-2)". A
// leading minus on the base weight negates it. A blank cell, printed before
// weights are announced, gives (nil, nil).
func ParseWeight(text string) (weight, change *int, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil, nil
	}
	m := weightPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, nil, racing.Malformed("weight", text)
	}
	w, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, nil, racing.Malformed("weight", text)
	}
	if m[1] == "-" {
		w = -w
	}
	c, err := strconv.Atoi(strings.TrimPrefix(m[3], "+"))
	if err != nil {
		return nil, nil, racing.Malformed("weight change", text)
	}
	return &w, &c, nil
}

// ParseAgeSex reads a label like "牡3": the leading digit run is the age and
// the first non-digit rune is the sex code.
func ParseAgeSex(text string) (age *int, sex string, err error) {
	text = strings.TrimSpace(text)
	n, err := textutil.FirstInt(text)
	if err != nil {
		return nil, "", racing.Malformed("age", text)
	}
	for _, r := range text {
		if !unicode.IsDigit(r) {
			sex = string(r)
			break
		}
	}
	if sex == "" {
		return nil, "", racing.Malformed("sex", text)
	}
	return &n, sex, nil
}
