// Package ground extracts the day's weather and going (turf and dirt
// condition) for one racecourse from the JRA going page.
//
// The going page carries the date and weather for the whole site plus one
// tab per racecourse; the surface conditions live on the tab page.
package ground

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

// URL is the JRA going and weather page.
const URL = "https://www.jra.go.jp/keiba/baba/"

const (
	weatherPrefix = "天候："
	turfHeading   = "芝"
	dirtHeading   = "ダート"
	courseSuffix  = "競馬場"
)

// Condition is the weather and going at one racecourse on one day.
type Condition struct {
	Date          time.Time
	Location      string
	Weather       string
	TurfCondition string // empty when no turf racing
	DirtCondition string // empty when no dirt racing
}

// ParseDate reads the page date from the single span whose first class is
// "date".
func ParseDate(doc document.Node) (time.Time, error) {
	var labels []document.Node
	for _, n := range doc.Find("span.date") {
		if classes := n.Classes(); len(classes) > 0 && classes[0] == "date" {
			labels = append(labels, n)
		}
	}
	switch {
	case len(labels) == 0:
		return time.Time{}, racing.Missing("date label")
	case len(labels) > 1:
		return time.Time{}, fmt.Errorf("%w: %d date labels", racing.ErrAmbiguousDate, len(labels))
	}
	return textutil.ParseDate(labels[0].Text())
}

// ParseWeather reads the weather cell.
func ParseWeather(doc document.Node) (string, error) {
	cell, ok := doc.First("div.cell.txt")
	if !ok {
		return "", racing.Missing("weather")
	}
	return strings.TrimSpace(strings.ReplaceAll(cell.Text(), weatherPrefix, "")), nil
}

// LocationURL finds the tab link for location and resolves it against base.
func LocationURL(doc document.Node, base, location string) (string, error) {
	tabs, ok := doc.First("div.nav.tab")
	if !ok {
		return "", racing.Missing("racecourse tabs")
	}
	for _, a := range tabs.Find("a") {
		name := strings.TrimSpace(strings.ReplaceAll(a.Text(), courseSuffix, ""))
		if name != location {
			continue
		}
		href, ok := a.Attr("href")
		if !ok {
			return "", racing.Missing("href of " + location + " tab")
		}
		return fetch.Resolve(base, href)
	}
	return "", racing.Missing("tab for " + location)
}

// ParseSurfaces reads turf and dirt conditions from the racecourse tab
// page. Blocks without a heading or without a body paragraph are skipped.
func ParseSurfaces(doc document.Node) (turf, dirt string) {
	for _, block := range doc.Find("div.data_list_unit") {
		heading, ok := document.FirstText(block, "h4")
		if !ok {
			continue
		}
		body, ok := document.FirstText(block, "p")
		if !ok {
			continue
		}
		switch heading {
		case turfHeading:
			turf = body
		case dirtHeading:
			dirt = body
		}
	}
	return turf, dirt
}

// Extractor implements racing.Extractor for the going page.
type Extractor struct {
	URL      string
	Location string
	Fetcher  fetch.Fetcher

	cond *Condition
}

// New creates an Extractor for location against the live JRA site.
func New(f fetch.Fetcher, location string) *Extractor {
	return &Extractor{URL: URL, Location: location, Fetcher: f}
}

// Init fetches the going page and the racecourse tab.
func (e *Extractor) Init(ctx context.Context) error {
	location := strings.TrimSuffix(strings.TrimSpace(e.Location), courseSuffix)
	if loc, err := racing.LookupLocation(location); err == nil {
		location = loc.Name
	}

	doc, err := e.Fetcher.Fetch(ctx, e.URL)
	if err != nil {
		return err
	}
	date, err := ParseDate(doc)
	if err != nil {
		return fmt.Errorf("going page: %w", err)
	}
	weather, err := ParseWeather(doc)
	if err != nil {
		return fmt.Errorf("going page for %s: %w", location, err)
	}
	tabURL, err := LocationURL(doc, e.URL, location)
	if err != nil {
		return fmt.Errorf("going page: %w", err)
	}

	tab, err := e.Fetcher.Fetch(ctx, tabURL)
	if err != nil {
		return err
	}
	turf, dirt := ParseSurfaces(tab)

	e.cond = &Condition{
		Date:          date,
		Location:      location,
		Weather:       weather,
		TurfCondition: turf,
		DirtCondition: dirt,
	}
	return nil
}

// Condition returns the extracted record, or nil before Init succeeds.
func (e *Extractor) Condition() *Condition {
	return e.cond
}

// Data returns a one-row table.
func (e *Extractor) Data() dataframe.DataFrame {
	if e.cond == nil {
		return racing.Empty()
	}
	return dataframe.New(
		racing.DateColumn("date", []time.Time{e.cond.Date}),
		series.New([]string{e.cond.Location}, series.String, "location"),
		series.New([]string{e.cond.Weather}, series.String, "weather"),
		series.New([]string{e.cond.TurfCondition}, series.String, "turfCondition"),
		series.New([]string{e.cond.DirtCondition}, series.String, "dirtCondition"),
	)
}
