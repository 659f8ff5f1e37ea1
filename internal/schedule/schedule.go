// Package schedule builds the race schedule of the current JRA meetings.
//
// The meeting-selection page links every meeting of the week with a label
// like "5回東京5日". Each meeting page lists its rounds; the start time of a
// round is only printed on the round's own page, so building a schedule
// fetches one page per race. Every row carries a netkeiba race id, which is
// how the same race is located on netkeiba.
package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xlatombet/abt/internal/document"
	"github.com/xlatombet/abt/internal/fetch"
	"github.com/xlatombet/abt/internal/racing"
	"github.com/xlatombet/abt/internal/textutil"
)

const (
	// JRABase is used to resolve relative links on JRA pages.
	JRABase = "https://www.jra.go.jp"

	// NetkeibaRaceURL is formatted with a mode and a race id.
	NetkeibaRaceURL = "https://race.netkeiba.com/race/%s.html?race_id=%s"

	ModeShutuba = "shutuba"
	ModeResult  = "result"
)

const (
	meetingLinks = "div.link_list.multi.div3.center.mid.narrow a"
	roundMeta    = "div#syutsuba"
	roundLinks   = "ul.nav.race-num a"
)

// Meeting is one link of the meeting-selection page.
type Meeting struct {
	textutil.MeetingLabel
	URL string
}

// Entry is one race of a meeting day.
type Entry struct {
	Date        time.Time
	Location    string
	Round       int
	Day         int
	Race        int
	StartHour   int
	StartMinute int
	URL         string // JRA race card page
}

// RaceID is the netkeiba race id: year, location code, round, day and race,
// each zero padded ("202305050811").
func (e Entry) RaceID() (string, error) {
	return BuildRaceID(e.Date.Year(), e.Location, e.Round, e.Day, e.Race)
}

// NetkeibaURL is the netkeiba page of this race for mode.
func (e Entry) NetkeibaURL(mode string) (string, error) {
	id, err := e.RaceID()
	if err != nil {
		return "", err
	}
	return NetkeibaURL(mode, id), nil
}

// BuildRaceID assembles a netkeiba race id.
func BuildRaceID(year int, location string, round, day, race int) (string, error) {
	code, err := racing.LocationCode(location)
	if err != nil {
		return "", err
	}
	if round < 1 || day < 1 || race < 1 {
		return "", fmt.Errorf("%w: round %d day %d race %d", racing.ErrMalformedLabel, round, day, race)
	}
	return fmt.Sprintf("%04d%s%02d%02d%02d", year, code, round, day, race), nil
}

// NetkeibaURL formats a netkeiba race page URL.
func NetkeibaURL(mode, raceID string) string {
	return fmt.Sprintf(NetkeibaRaceURL, mode, raceID)
}

// ParseMeetings reads the meeting links of the selection page.
func ParseMeetings(doc document.Node, base string) ([]Meeting, error) {
	links := doc.Find(meetingLinks)
	if len(links) == 0 {
		return nil, racing.Missing("meeting links")
	}

	meetings := make([]Meeting, 0, len(links))
	for _, a := range links {
		label, err := textutil.ParseMeetingLabel(a.Text())
		if err != nil {
			return nil, err
		}
		href, ok := a.Attr("href")
		if !ok {
			return nil, racing.Missing("href of meeting " + a.Text())
		}
		u, err := fetch.Resolve(base, href)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, Meeting{MeetingLabel: label, URL: u})
	}
	return meetings, nil
}

// ParseRounds reads a meeting page and fetches each round page for its
// start time. Rows follow the page's link order.
func ParseRounds(ctx context.Context, doc document.Node, base string, f fetch.Fetcher) ([]Entry, error) {
	meta, ok := doc.First(roundMeta)
	if !ok {
		return nil, racing.Missing("round info")
	}
	dateCell, ok := document.FirstText(meta, "div.cell.date")
	if !ok {
		return nil, racing.Missing("date cell")
	}
	fields := strings.Fields(dateCell)
	if len(fields) == 0 {
		return nil, racing.Malformed("date cell", dateCell)
	}
	date, err := textutil.ParseDate(fields[0])
	if err != nil {
		return nil, err
	}
	label, err := textutil.ParseMeetingLabel(fields[len(fields)-1])
	if err != nil {
		return nil, err
	}

	nav, ok := doc.First("ul.nav.race-num")
	if !ok {
		return nil, racing.Missing("race number links")
	}

	links := nav.Find("a")
	entries := make([]Entry, 0, len(links))
	for _, a := range links {
		race, err := raceNumber(a)
		if err != nil {
			return nil, err
		}
		href, ok := a.Attr("href")
		if !ok {
			return nil, racing.Missing(fmt.Sprintf("href of race %d", race))
		}
		u, err := fetch.Resolve(base, href)
		if err != nil {
			return nil, err
		}

		page, err := f.Fetch(ctx, u)
		if err != nil {
			return nil, err
		}
		hour, minute, err := ParseStartTime(page)
		if err != nil {
			return nil, fmt.Errorf("race %d: %w", race, err)
		}

		entries = append(entries, Entry{
			Date:        date,
			Location:    label.Location,
			Round:       label.Round,
			Day:         label.Day,
			Race:        race,
			StartHour:   hour,
			StartMinute: minute,
			URL:         u,
		})
	}
	return entries, nil
}

func raceNumber(a document.Node) (int, error) {
	img, ok := a.First("img[alt]")
	if !ok {
		return 0, racing.Missing("race number image")
	}
	alt, _ := img.Attr("alt")
	race, err := textutil.FirstInt(alt)
	if err != nil {
		return 0, err
	}
	if race < 1 {
		return 0, racing.Malformed("race number", alt)
	}
	return race, nil
}

// ParseStartTime reads "<hour>時<minute>分" from a round page.
func ParseStartTime(doc document.Node) (hour, minute int, err error) {
	meta, ok := doc.First(roundMeta)
	if !ok {
		return 0, 0, racing.Missing("round info")
	}
	text, ok := document.FirstText(meta, "div.cell.time strong")
	if !ok {
		return 0, 0, racing.Missing("start time")
	}
	return textutil.ParseClock(text)
}

// Extractor implements racing.Extractor for the weekly schedule.
type Extractor struct {
	URL     string // meeting-selection page
	Base    string
	Fetcher fetch.Fetcher

	entries []Entry
	ready   bool
}

// New creates an Extractor starting from the meeting-selection page at url.
func New(f fetch.Fetcher, url string) *Extractor {
	return &Extractor{URL: url, Base: JRABase, Fetcher: f}
}

// Init fetches the selection page, every meeting page and every round page.
func (e *Extractor) Init(ctx context.Context) error {
	doc, err := e.Fetcher.Fetch(ctx, e.URL)
	if err != nil {
		return err
	}
	meetings, err := ParseMeetings(doc, e.Base)
	if err != nil {
		return fmt.Errorf("meeting selection: %w", err)
	}

	var entries []Entry
	for _, m := range meetings {
		page, err := e.Fetcher.Fetch(ctx, m.URL)
		if err != nil {
			return err
		}
		rounds, err := ParseRounds(ctx, page, e.Base, e.Fetcher)
		if err != nil {
			return fmt.Errorf("meeting %d回%s%d日: %w", m.Round, m.Location, m.Day, err)
		}
		entries = append(entries, rounds...)
	}

	for _, en := range entries {
		if _, err := en.RaceID(); err != nil {
			return err
		}
	}

	e.entries = entries
	e.ready = true
	return nil
}

// Entries returns the extracted rows.
func (e *Extractor) Entries() []Entry {
	return e.entries
}

// Data returns the schedule table.
func (e *Extractor) Data() dataframe.DataFrame {
	if !e.ready {
		return racing.Empty()
	}
	return Table(e.entries)
}

// Table renders entries as a table. Entries must have known locations.
func Table(entries []Entry) dataframe.DataFrame {
	n := len(entries)
	dates := make([]time.Time, n)
	locations := make([]string, n)
	rounds := make([]int, n)
	days := make([]int, n)
	races := make([]int, n)
	hours := make([]int, n)
	minutes := make([]int, n)
	urls := make([]string, n)
	shutuba := make([]string, n)
	results := make([]string, n)

	for i, en := range entries {
		dates[i] = en.Date
		locations[i] = en.Location
		rounds[i] = en.Round
		days[i] = en.Day
		races[i] = en.Race
		hours[i] = en.StartHour
		minutes[i] = en.StartMinute
		urls[i] = en.URL
		shutuba[i], _ = en.NetkeibaURL(ModeShutuba)
		results[i], _ = en.NetkeibaURL(ModeResult)
	}

	return dataframe.New(
		racing.DateColumn("date", dates),
		series.New(locations, series.String, "location"),
		series.New(rounds, series.Int, "round"),
		series.New(days, series.Int, "day"),
		series.New(races, series.Int, "race"),
		series.New(hours, series.Int, "startHour"),
		series.New(minutes, series.Int, "startMinute"),
		series.New(urls, series.String, "url"),
		series.New(shutuba, series.String, "netkeibaURL"),
		series.New(results, series.String, "resultURL"),
	)
}
